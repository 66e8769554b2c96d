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

// A Program is a set of functions and globals. Functions without blocks are external declarations.
type Program struct {
	Functions []*Function
	Globals   []*Global
	funcs     map[string]*Function
	globals   map[string]*Global
}

// NewProgram returns an empty program
func NewProgram() *Program {
	return &Program{
		funcs:   map[string]*Function{},
		globals: map[string]*Global{},
	}
}

// NewFunction adds a function named name with result type result. It panics if the name is already taken.
func (p *Program) NewFunction(name string, result Type) *Function {
	if _, ok := p.funcs[name]; ok {
		panic(fmt.Sprintf("function %s already declared", name))
	}
	f := &Function{Name: name, Result: result, Prog: p}
	p.funcs[name] = f
	p.Functions = append(p.Functions, f)
	return f
}

// DeclareExternal returns the function named name, declaring it as an external function with the given signature if
// it does not exist yet.
func (p *Program) DeclareExternal(name string, result Type, params ...Type) *Function {
	if f, ok := p.funcs[name]; ok {
		return f
	}
	f := p.NewFunction(name, result)
	for i, t := range params {
		f.AddParam(fmt.Sprintf("arg%d", i), t)
	}
	return f
}

// Func returns the function named name, or nil
func (p *Program) Func(name string) *Function {
	return p.funcs[name]
}

// NewGlobal returns the global named name, creating it with the given number of cells if it does not exist yet.
func (p *Program) NewGlobal(name string, cells int) *Global {
	if g, ok := p.globals[name]; ok {
		return g
	}
	g := &Global{name: name, Cells: cells}
	p.globals[name] = g
	p.Globals = append(p.Globals, g)
	return g
}

// Global returns the global named name, or nil
func (p *Program) Global(name string) *Global {
	return p.globals[name]
}

// A Function has parameters, a result type and a list of basic blocks in layout order. Blocks[0] is the entry block.
type Function struct {
	Name   string
	Params []*Parameter
	Result Type
	Blocks []*BasicBlock
	Prog   *Program

	nextID       int
	prologueTail Instruction
}

// AddParam appends a parameter to the function
func (f *Function) AddParam(name string, t Type) *Parameter {
	p := &Parameter{name: name, typ: t, Index: len(f.Params), parent: f}
	f.Params = append(f.Params, p)
	return p
}

// NewBlock appends a new empty basic block to the function
func (f *Function) NewBlock(comment string) *BasicBlock {
	b := &BasicBlock{Index: len(f.Blocks), Comment: comment, parent: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// IsExternal returns true if the function has no body
func (f *Function) IsExternal() bool {
	return len(f.Blocks) == 0
}

// HasResult returns true if the function returns a value
func (f *Function) HasResult() bool {
	return f.Result != Void
}

func (f *Function) String() string {
	return f.Name
}

// Instructions calls fn on every instruction of the function, in layout order
func (f *Function) Instructions(fn func(Instruction)) {
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			fn(instr)
		}
	}
}

// A BasicBlock is a sequence of instructions ending with a terminator
type BasicBlock struct {
	Index   int
	Comment string
	Instrs  []Instruction
	Preds   []*BasicBlock
	Succs   []*BasicBlock
	parent  *Function
}

// Parent returns the function containing the block
func (b *BasicBlock) Parent() *Function { return b.parent }

func (b *BasicBlock) String() string {
	return fmt.Sprintf("b%d", b.Index)
}

// Terminator returns the last instruction of the block, or nil if the block is empty
func (b *BasicBlock) Terminator() Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

// IndexOf returns the position of instr in the block, or -1
func (b *BasicBlock) IndexOf(instr Instruction) int {
	for i, x := range b.Instrs {
		if x == instr {
			return i
		}
	}
	return -1
}

// PhiEnd returns the position of the first instruction of the block that is not a phi
func (b *BasicBlock) PhiEnd() int {
	for i, x := range b.Instrs {
		if _, ok := x.(*Phi); !ok {
			return i
		}
	}
	return len(b.Instrs)
}

// PredIndex returns the position of pred in the predecessors of b, or -1
func (b *BasicBlock) PredIndex(pred *BasicBlock) int {
	for i, p := range b.Preds {
		if p == pred {
			return i
		}
	}
	return -1
}

// AddEdge adds a control-flow edge from -> to
func AddEdge(from, to *BasicBlock) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}
