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

	"github.com/awslabs/ar-go-flowinst/analysis/config"
	"github.com/awslabs/ar-go-flowinst/analysis/ir"
)

// label returns the label of v, or nil if v is untainted
func (s *state) label(v ir.Value) *labelRef {
	return s.labels[v]
}

// define sets the label of v. Untainted labels are not recorded.
func (s *state) define(v ir.Value, ref *labelRef) {
	if isUntainted(ref) {
		return
	}
	s.labels[v] = ref
}

// insertionPoint returns the instruction before which the instrumentation of instr is emitted: instr itself on the
// main path, or once the region of the current scope had to be instrumented in place; the ancestor of the current
// scope otherwise.
func (s *state) insertionPoint(instr ir.Instruction) ir.Instruction {
	cur := s.current()
	if cur.IsMain() || s.fs.pinned[cur.Ancestor] {
		return s.fs.anchor(instr)
	}
	return cur.Ancestor
}

// visitor propagates labels through the original instructions of the function being instrumented
type visitor struct {
	s   *state
	err error
}

var _ ir.InstrOp = (*visitor)(nil)

func (v *visitor) DoBinOp(instr *ir.BinOp) {
	s := v.s
	s.define(instr, s.unionAll(s.insertionPoint(instr), s.label(instr.X), s.label(instr.Y)))
}

func (v *visitor) DoAlloc(*ir.Alloc) {}

func (v *visitor) DoAddressCompute(instr *ir.AddressCompute) {
	s := v.s
	refs := []*labelRef{s.label(instr.Base)}
	for _, idx := range instr.Indices {
		refs = append(refs, s.label(idx))
	}
	s.define(instr, s.unionAll(s.insertionPoint(instr), refs...))
}

// DoLoad gives the loaded value the union of the label stored for the address, the label of the address itself,
// and the controlling labels of the conditional writes to the address.
func (v *visitor) DoLoad(instr *ir.Load) {
	s := v.s
	at := s.insertionPoint(instr)
	var res *labelRef
	if cell, ok := s.slots[instr.Addr]; ok {
		res = s.loadLabel(at, cell)
	}
	res = s.union(at, res, s.label(instr.Addr))
	for _, h := range s.historyLabels(instr.Addr) {
		res = s.union(at, res, h)
	}
	s.define(instr, res)
}

// DoStore records the write in the history of the address and stores the union of the controlling label, the label
// of the value and the label of the address in the slot of the address.
func (v *visitor) DoStore(instr *ir.Store) {
	s := v.s
	at := s.insertionPoint(instr)
	s.recordWrite(instr.Addr)
	l := s.unionAll(at, s.current().label, s.label(instr.Val), s.label(instr.Addr))
	s.storeLabel(at, orUntainted(l), s.slot(instr.Addr))
}

// DoPhi gives the phi the union of the labels of the incoming values and of the controlling labels of the incoming
// blocks.
func (v *visitor) DoPhi(instr *ir.Phi) {
	s := v.s
	at := s.insertionPoint(instr)
	var res *labelRef
	for i, e := range instr.Edges {
		pred := instr.Block().Preds[i]
		if id, ok := s.byBlock[pred]; ok {
			res = s.union(at, res, s.scopes[id].label)
		} else {
			s.Logger.Warnf("%s: no scope for %s, incoming block of %s", s.fs.fn.Name, pred, instr.Name())
		}
		res = s.union(at, res, s.label(e))
	}
	s.define(instr, res)
}

func (v *visitor) DoCall(instr *ir.Call) {
	s := v.s
	callee := instr.Callee
	if callee.IsExternal() {
		if p, ok := s.Config.InputPrimitive(callee.Name); ok {
			v.err = s.callInput(instr, p)
			return
		}
	} else if callee != s.entry {
		s.callDefined(instr)
		return
	}
	// opaque function: the result depends on all the arguments
	if !callee.HasResult() {
		return
	}
	var refs []*labelRef
	for _, arg := range instr.Args {
		refs = append(refs, s.label(arg))
	}
	s.define(instr, s.unionAll(s.insertionPoint(instr), refs...))
}

// callInput gives fresh origins to the inputs read by a call to an input primitive. The result of a result-style
// primitive is the input; the memory pointed to by the output arguments of the other primitives is written like a
// store of a fresh input.
func (s *state) callInput(call *ir.Call, p config.InputPrimitive) error {
	at := s.insertionPoint(call)
	if p.Result {
		if !call.Callee.HasResult() {
			return s.precondition(call, fmt.Sprintf("input primitive %s has no result", p.Name))
		}
		s.define(call, s.newOrigin(ir.Before(at)))
		return nil
	}
	if p.FirstOutput >= len(call.Args) {
		return s.precondition(call, fmt.Sprintf("input primitive %s expects output arguments from position %d, "+
			"the call has %d arguments", p.Name, p.FirstOutput, len(call.Args)))
	}
	for _, addr := range call.Args[p.FirstOutput:] {
		l := s.union(at, s.newOrigin(ir.Before(at)), s.label(addr))
		s.recordWrite(addr)
		s.storeLabel(at, l, s.slot(addr))
	}
	return nil
}

func (v *visitor) DoIf(instr *ir.If) {
	s := v.s
	cur := s.current()
	branchLabel := cur.label
	if c := s.label(instr.Cond); c != nil {
		branchLabel = s.union(s.insertionPoint(instr), cur.label, c)
	}
	s.enterBranch(cur, branchLabel, instr.Block().Succs)
}

func (v *visitor) DoJump(instr *ir.Jump) {
	v.s.leaveBranch(v.s.current(), instr.Block().Succs[0])
}

func (v *visitor) DoReturn(instr *ir.Return) {
	v.s.fs.returns = append(v.s.fs.returns, instr)
	v.s.returnLabel(instr)
}

func (s *state) precondition(instr ir.Instruction, reason string) error {
	return &PreconditionError{Function: s.fs.fn.Name, Block: instr.Block().Index, Instr: instr.String(),
		Reason: reason}
}
