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

package ir

import "fmt"

type insertMode int

const (
	appendMode insertMode = iota
	beforeMode
	afterMode
	prologueMode
)

// A Builder inserts instructions at a fixed position. Consecutive insertions through the same builder appear in the
// order they were made.
//
// Instructions are never inserted in the middle of a group of phis: inserting before or after a phi inserts after the
// last phi of its block.
type Builder struct {
	fn     *Function
	block  *BasicBlock
	mode   insertMode
	anchor Instruction
}

// NewBuilder returns a builder appending at the end of block b
func NewBuilder(b *BasicBlock) *Builder {
	return &Builder{fn: b.parent, block: b, mode: appendMode}
}

// Before returns a builder inserting right before instr
func Before(instr Instruction) *Builder {
	b := instr.Block()
	return &Builder{fn: b.parent, block: b, mode: beforeMode, anchor: instr}
}

// After returns a builder inserting right after instr
func After(instr Instruction) *Builder {
	b := instr.Block()
	return &Builder{fn: b.parent, block: b, mode: afterMode, anchor: instr}
}

// Prologue returns a builder inserting at the start of the entry block of f, after the instructions previously
// inserted in the prologue.
func Prologue(f *Function) *Builder {
	return &Builder{fn: f, block: f.Blocks[0], mode: prologueMode}
}

// Block returns the block where the builder inserts instructions
func (b *Builder) Block() *BasicBlock {
	return b.block
}

// Emit inserts instr and returns it
func (b *Builder) Emit(instr Instruction) Instruction {
	if r, ok := instr.(numbered); ok {
		r.setID(b.fn.nextID)
		b.fn.nextID++
	}
	instr.setBlock(b.block)
	switch b.mode {
	case appendMode:
		b.block.Instrs = append(b.block.Instrs, instr)
	case beforeMode:
		b.insertAt(b.position(b.anchor, 0), instr)
	case afterMode:
		b.insertAt(b.position(b.anchor, 1), instr)
		b.anchor = instr
	case prologueMode:
		idx := b.block.PhiEnd()
		if b.fn.prologueTail != nil {
			idx = b.position(b.fn.prologueTail, 1)
		}
		b.insertAt(idx, instr)
		b.fn.prologueTail = instr
	}
	return instr
}

func (b *Builder) position(anchor Instruction, delta int) int {
	if _, isPhi := anchor.(*Phi); isPhi {
		return b.block.PhiEnd()
	}
	idx := b.block.IndexOf(anchor)
	if idx < 0 {
		panic(fmt.Sprintf("instruction %q is not in block %s", anchor, b.block))
	}
	return idx + delta
}

func (b *Builder) insertAt(idx int, instr Instruction) {
	instrs := b.block.Instrs
	instrs = append(instrs, nil)
	copy(instrs[idx+1:], instrs[idx:])
	instrs[idx] = instr
	b.block.Instrs = instrs
}

// BinOp emits x op y
func (b *Builder) BinOp(op Op, x, y Value) *BinOp {
	t := x.Type()
	if op.IsCompare() {
		t = Bool
	}
	v := &BinOp{register: register{typ: t}, Op: op, X: x, Y: y}
	b.Emit(v)
	return v
}

// Alloc emits the allocation of an object of the given number of cells
func (b *Builder) Alloc(cells int, comment string) *Alloc {
	v := &Alloc{register: register{typ: Ptr}, Cells: cells, Comment: comment}
	b.Emit(v)
	return v
}

// Load emits a load of type t from addr
func (b *Builder) Load(addr Value, t Type) *Load {
	v := &Load{register: register{typ: t}, Addr: addr}
	b.Emit(v)
	return v
}

// Store emits a store of val at addr
func (b *Builder) Store(addr, val Value) *Store {
	s := &Store{Addr: addr, Val: val}
	b.Emit(s)
	return s
}

// AddressCompute emits base + offset + sum(indices[i] * scales[i])
func (b *Builder) AddressCompute(base Value, offset int64, indices []Value, scales []int64) *AddressCompute {
	if len(indices) != len(scales) {
		panic("AddressCompute: indices and scales must have the same length")
	}
	v := &AddressCompute{register: register{typ: Ptr}, Base: base, Indices: indices, Scales: scales, Offset: offset}
	b.Emit(v)
	return v
}

// Phi emits a phi of type t. The edges must be aligned with the predecessors of the block.
func (b *Builder) Phi(t Type, edges ...Value) *Phi {
	v := &Phi{register: register{typ: t}, Edges: edges}
	b.Emit(v)
	return v
}

// Call emits a call to callee
func (b *Builder) Call(callee *Function, args ...Value) *Call {
	v := &Call{register: register{typ: callee.Result}, Callee: callee, Args: args}
	b.Emit(v)
	return v
}

// If terminates the block with a conditional branch and adds the edges to then and els
func (b *Builder) If(cond Value, then, els *BasicBlock) *If {
	s := &If{Cond: cond}
	b.Emit(s)
	AddEdge(b.block, then)
	AddEdge(b.block, els)
	return s
}

// Jump terminates the block with an unconditional branch to target
func (b *Builder) Jump(target *BasicBlock) *Jump {
	s := &Jump{}
	b.Emit(s)
	AddEdge(b.block, target)
	return s
}

// Return terminates the block. result is nil for functions without result.
func (b *Builder) Return(result Value) *Return {
	s := &Return{Result: result}
	b.Emit(s)
	return s
}
