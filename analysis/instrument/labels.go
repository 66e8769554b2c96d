// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package instrument

import (
	"fmt"

	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"github.com/awslabs/ar-go-flowinst/analysis/labelstore"
)

// zeroLabel is the handle of the empty set. The entry function interns the empty set before any other set, so the
// runtime gives it the first label.
var zeroLabel = ir.NewConst(int64(labelstore.Untainted), ir.Label)

// A labelRef is a label computed by the instrumentation: the IR value holding it and the instruction defining that
// value. Labels defined far from their uses are spilled to a cell (see avail.go).
type labelRef struct {
	val ir.Value
	// def is nil when val can be used anywhere in the function
	def ir.Instruction
	// cell is the spill cell of the label, allocated on demand
	cell ir.Value
	// untainted is true when the label is statically known to be the empty set
	untainted bool
}

var untaintedRef = &labelRef{val: zeroLabel, untainted: true}

func newRef(instr ir.Instruction) *labelRef {
	return &labelRef{val: ir.ValueOf(instr), def: instr}
}

func isUntainted(r *labelRef) bool {
	return r == nil || r.untainted
}

func orUntainted(r *labelRef) *labelRef {
	if r == nil {
		return untaintedRef
	}
	return r
}

// runtime holds the declarations of the label store functions and module cells
type runtime struct {
	treeNew  *ir.Function
	tableNew *ir.Function
	setNew   *ir.Function
	setMark  *ir.Function
	intern   *ir.Function
	setFree  *ir.Function
	union    *ir.Function
	report   *ir.Function
	root     *ir.Global
	table    *ir.Global
}

func declareRuntime(p *ir.Program) (runtime, error) {
	for _, name := range []string{labelstore.FnTreeNew, labelstore.FnTableNew, labelstore.FnSetNew,
		labelstore.FnSetMark, labelstore.FnIntern, labelstore.FnSetFree, labelstore.FnUnion, labelstore.FnReport} {
		if f := p.Func(name); f != nil && !f.IsExternal() {
			return runtime{}, &PreconditionError{Function: name, Block: -1,
				Reason: "the program defines a function reserved for the label store"}
		}
	}
	return runtime{
		treeNew:  p.DeclareExternal(labelstore.FnTreeNew, ir.Ptr),
		tableNew: p.DeclareExternal(labelstore.FnTableNew, ir.Ptr),
		setNew:   p.DeclareExternal(labelstore.FnSetNew, ir.Ptr),
		setMark:  p.DeclareExternal(labelstore.FnSetMark, ir.Void, ir.Ptr, ir.Int, ir.Int),
		intern:   p.DeclareExternal(labelstore.FnIntern, ir.Label, ir.Ptr, ir.Ptr, ir.Ptr),
		setFree:  p.DeclareExternal(labelstore.FnSetFree, ir.Void, ir.Ptr),
		union:    p.DeclareExternal(labelstore.FnUnion, ir.Label, ir.Label, ir.Label, ir.Ptr, ir.Ptr),
		report:   p.DeclareExternal(labelstore.FnReport, ir.Void, ir.Ptr, ir.Label, ir.Int, ir.Int),
		root:     p.NewGlobal(labelstore.RootCell, 1),
		table:    p.NewGlobal(labelstore.TableCell, 1),
	}, nil
}

// internSet emits the construction of a bit vector with `length` one bits after `offset` zero bits, and returns its
// label
func (s *state) internSet(b *ir.Builder, length, offset int) *labelRef {
	set := b.Call(s.rt.setNew)
	b.Call(s.rt.setMark, set, ir.NewConst(int64(length), ir.Int), ir.NewConst(int64(offset), ir.Int))
	l := b.Call(s.rt.intern, s.fs.tree, set, s.fs.table)
	b.Call(s.rt.setFree, set)
	return newRef(l)
}

// newOrigin emits the creation of the label of a fresh origin
func (s *state) newOrigin(b *ir.Builder) *labelRef {
	bit := s.numOrigins
	s.numOrigins++
	s.Logger.Debugf("%s: origin %d minted in %s", s.fs.fn.Name, bit, b.Block())
	return s.internSet(b, 1, bit)
}

// union emits the union of a and b before at. Nil labels and the untainted label are the identity of the union, and
// the union of a label with itself is the label: no call is emitted in those cases.
// The result is nil when both a and b are nil.
func (s *state) union(at ir.Instruction, a, b *labelRef) *labelRef {
	switch {
	case isUntainted(a):
		if b == nil {
			return a
		}
		return b
	case isUntainted(b):
		return a
	case a == b || a.val == b.val:
		return a
	}
	x := s.use(a, at)
	y := s.use(b, at)
	c := ir.Before(at).Call(s.rt.union, x, y, s.fs.table, s.fs.tree)
	s.Logger.Tracef("%s: %s", s.fs.fn.Name, c)
	return newRef(c)
}

// unionAll folds union over refs. It returns nil if every label is nil or untainted.
func (s *state) unionAll(at ir.Instruction, refs ...*labelRef) *labelRef {
	var res *labelRef
	for _, r := range refs {
		if isUntainted(r) {
			continue
		}
		res = s.union(at, res, r)
	}
	return res
}

func (s *state) storeLabel(at ir.Instruction, ref *labelRef, cell ir.Value) {
	v := s.use(ref, at)
	ir.Before(at).Store(cell, v)
}

func (s *state) loadLabel(at ir.Instruction, cell ir.Value) *labelRef {
	return newRef(ir.Before(at).Load(cell, ir.Label))
}

// reportLabel emits the report of the label of a block
func (s *state) reportLabel(at ir.Instruction, ref *labelRef, total int, block *ir.BasicBlock) {
	v := s.use(ref, at)
	ir.Before(at).Call(s.rt.report, s.fs.table, v, ir.NewConst(int64(total), ir.Int),
		ir.NewConst(int64(block.Index), ir.Int))
}

func (r *labelRef) String() string {
	if r == nil {
		return "none"
	}
	if r.untainted {
		return "untainted"
	}
	return fmt.Sprintf("label %s", r.val.Name())
}
