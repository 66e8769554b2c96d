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

import (
	"fmt"
	"strings"
)

// An Instruction is a member of a basic block. Instructions that produce a value also implement Value.
type Instruction interface {
	String() string
	// Block returns the basic block containing the instruction
	Block() *BasicBlock
	// Operands returns the values used by the instruction
	Operands() []Value
	setBlock(b *BasicBlock)
}

type anInstruction struct {
	block *BasicBlock
}

func (a *anInstruction) Block() *BasicBlock { return a.block }

func (a *anInstruction) setBlock(b *BasicBlock) { a.block = b }

// register is embedded by the instructions that define a value
type register struct {
	anInstruction
	id  int
	typ Type
}

func (r *register) Name() string { return fmt.Sprintf("%%%d", r.id) }

func (r *register) Type() Type { return r.typ }

// ID returns the register number, unique within a function
func (r *register) ID() int { return r.id }

func (r *register) setID(id int) { r.id = id }

type numbered interface {
	setID(id int)
}

// Op is a binary operator
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Shl
	Shr
	AndNot
	Eql
	Neq
	Lss
	Leq
	Gtr
	Geq
)

var opNames = [...]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Rem: "rem", And: "and", Or: "or", Xor: "xor", Shl: "shl",
	Shr: "shr", AndNot: "andnot", Eql: "eq", Neq: "ne", Lss: "lt", Leq: "le", Gtr: "gt", Geq: "ge",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsCompare returns true for the comparison operators, whose result is a Bool
func (op Op) IsCompare() bool {
	return op >= Eql && op <= Geq
}

// BinOp is a binary operation or a comparison
type BinOp struct {
	register
	Op   Op
	X, Y Value
}

func (v *BinOp) Operands() []Value { return []Value{v.X, v.Y} }

func (v *BinOp) String() string {
	return fmt.Sprintf("%s = %s %s, %s", v.Name(), v.Op, v.X.Name(), v.Y.Name())
}

// Alloc allocates a fresh memory object of Cells cells and returns its address
type Alloc struct {
	register
	Cells   int
	Comment string
}

func (v *Alloc) Operands() []Value { return nil }

func (v *Alloc) String() string {
	s := fmt.Sprintf("%s = alloc %d", v.Name(), v.Cells)
	if v.Comment != "" {
		s += " ; " + v.Comment
	}
	return s
}

// Load reads the cell at Addr
type Load struct {
	register
	Addr Value
}

func (v *Load) Operands() []Value { return []Value{v.Addr} }

func (v *Load) String() string {
	return fmt.Sprintf("%s = load %s", v.Name(), v.Addr.Name())
}

// Store writes Val in the cell at Addr
type Store struct {
	anInstruction
	Addr Value
	Val  Value
}

func (s *Store) Operands() []Value { return []Value{s.Addr, s.Val} }

func (s *Store) String() string {
	return fmt.Sprintf("store %s, %s", s.Val.Name(), s.Addr.Name())
}

// AddressCompute computes Base + Offset + sum(Indices[i] * Scales[i]), in cells
type AddressCompute struct {
	register
	Base    Value
	Indices []Value
	Scales  []int64
	Offset  int64
}

func (v *AddressCompute) Operands() []Value {
	return append([]Value{v.Base}, v.Indices...)
}

func (v *AddressCompute) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = addr %s", v.Name(), v.Base.Name())
	for i, idx := range v.Indices {
		fmt.Fprintf(&b, "[%s*%d]", idx.Name(), v.Scales[i])
	}
	if v.Offset != 0 {
		fmt.Fprintf(&b, "+%d", v.Offset)
	}
	return b.String()
}

// Phi merges values according to the incoming edge. Edges[i] is the value flowing from Block().Preds[i].
type Phi struct {
	register
	Edges   []Value
	Comment string
}

func (v *Phi) Operands() []Value { return v.Edges }

func (v *Phi) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = phi [", v.Name())
	for i, e := range v.Edges {
		if i > 0 {
			b.WriteString(", ")
		}
		pred := "?"
		if v.block != nil && i < len(v.block.Preds) {
			pred = v.block.Preds[i].String()
		}
		name := "<nil>"
		if e != nil {
			name = e.Name()
		}
		fmt.Fprintf(&b, "%s: %s", pred, name)
	}
	b.WriteString("]")
	if v.Comment != "" {
		b.WriteString(" ; " + v.Comment)
	}
	return b.String()
}

// Call calls Callee with Args. When the callee returns Void, the call is not a value.
type Call struct {
	register
	Callee *Function
	Args   []Value
}

func (v *Call) Operands() []Value { return v.Args }

func (v *Call) String() string {
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = a.Name()
	}
	s := fmt.Sprintf("call %s(%s)", v.Callee.Name, strings.Join(args, ", "))
	if v.typ != Void {
		s = v.Name() + " = " + s
	}
	return s
}

// If jumps to Block().Succs[0] when Cond is true, and to Block().Succs[1] otherwise
type If struct {
	anInstruction
	Cond Value
}

func (s *If) Operands() []Value { return []Value{s.Cond} }

func (s *If) String() string {
	then, els := "?", "?"
	if s.block != nil && len(s.block.Succs) == 2 {
		then, els = s.block.Succs[0].String(), s.block.Succs[1].String()
	}
	return fmt.Sprintf("if %s then %s else %s", s.Cond.Name(), then, els)
}

// Jump jumps to Block().Succs[0]
type Jump struct {
	anInstruction
}

func (s *Jump) Operands() []Value { return nil }

func (s *Jump) String() string {
	target := "?"
	if s.block != nil && len(s.block.Succs) == 1 {
		target = s.block.Succs[0].String()
	}
	return "jump " + target
}

// Return returns from the function, with Result when the function has a result
type Return struct {
	anInstruction
	Result Value
}

func (s *Return) Operands() []Value {
	if s.Result == nil {
		return nil
	}
	return []Value{s.Result}
}

func (s *Return) String() string {
	if s.Result == nil {
		return "return"
	}
	return "return " + s.Result.Name()
}

// ValueOf returns the value defined by instr, or nil if instr does not define a value
func ValueOf(instr Instruction) Value {
	switch x := instr.(type) {
	case *Call:
		if x.typ == Void {
			return nil
		}
		return x
	case Value:
		return x
	}
	return nil
}

// IsTerminator returns true when instr ends a basic block
func IsTerminator(instr Instruction) bool {
	switch instr.(type) {
	case *If, *Jump, *Return:
		return true
	}
	return false
}
