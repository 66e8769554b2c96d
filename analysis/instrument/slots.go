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
)

const slotPrefix = "__flowinst_"

// FunctionSlots are the module cells through which labels cross the boundary of a function
type FunctionSlots struct {
	// Ctx holds the controlling label of the caller at the call site
	Ctx *ir.Global
	// Args holds the label of each argument
	Args []*ir.Global
	// Ret holds the label of the returned value
	Ret *ir.Global
}

func newFunctionSlots(p *ir.Program, f *ir.Function) *FunctionSlots {
	fs := &FunctionSlots{
		Ctx: p.NewGlobal(fmt.Sprintf("%s%s_ctx", slotPrefix, f.Name), 1),
		Ret: p.NewGlobal(fmt.Sprintf("%s%s_ret", slotPrefix, f.Name), 1),
	}
	for i := range f.Params {
		fs.Args = append(fs.Args, p.NewGlobal(fmt.Sprintf("%s%s_arg%d", slotPrefix, f.Name, i), 1))
	}
	return fs
}

// initCallee emits the prologue of a function called by the program: the label store handles, the controlling
// label of the caller and the labels of the parameters are loaded from their cells.
func (s *state) initCallee() {
	f := s.fs.fn
	slots := s.fnSlots[f]
	p := ir.Prologue(f)
	s.fs.tree = p.Load(s.rt.root, ir.Ptr)
	s.fs.table = p.Load(s.rt.table, ir.Ptr)
	ctx := p.Load(slots.Ctx, ir.Label)
	s.attach(f.Blocks[0], newRef(ctx), nil, f.Blocks[0].Terminator(), selfParent)
	for i, param := range f.Params {
		s.define(param, newRef(p.Load(slots.Args[i], ir.Label)))
	}
}

// callDefined emits the transfer of labels to a function called by the program: the current controlling label and
// the labels of the arguments are stored right before the call, and the label of the result is loaded right after.
// The code runs at the call itself, so the rest of the region of the call is emitted in place.
func (s *state) callDefined(call *ir.Call) {
	slots := s.fnSlots[call.Callee]
	cur := s.current()
	s.storeLabel(call, cur.label, slots.Ctx)
	for i, arg := range call.Args {
		s.storeLabel(call, orUntainted(s.label(arg)), slots.Args[i])
	}
	if call.Callee.HasResult() {
		s.define(call, newRef(ir.After(call).Load(slots.Ret, ir.Label)))
	}
	if !cur.IsMain() {
		s.fs.pinned[cur.Ancestor] = true
	}
}

// returnLabel emits the store of the label of the returned value in the return cell of the function
func (s *state) returnLabel(ret *ir.Return) {
	f := s.fs.fn
	if f == s.entry || !f.HasResult() {
		return
	}
	s.storeLabel(ret, orUntainted(s.label(ret.Result)), s.fnSlots[f].Ret)
}

// slot returns the cell holding the label of the memory at addr, creating it if needed. Cells of global addresses
// are module cells shared by all functions; the other cells are allocated in the prologue of the current function.
func (s *state) slot(addr ir.Value) ir.Value {
	if c, ok := s.slots[addr]; ok {
		return c
	}
	var cell ir.Value
	if g, ok := addr.(*ir.Global); ok {
		cell = s.prog.NewGlobal(slotPrefix+"slot_"+g.Ident(), 1)
	} else {
		p := ir.Prologue(s.fs.fn)
		a := p.Alloc(1, "label of "+addr.Name())
		p.Store(a, zeroLabel)
		cell = a
	}
	s.slots[addr] = cell
	return cell
}
