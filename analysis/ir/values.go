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

// Type is the type of a value. All values are 64 bits wide at runtime.
type Type int

const (
	// Void is the result type of functions that do not return a value
	Void Type = iota
	// Int is a signed 64-bit integer
	Int
	// Bool is a boolean, 0 or 1
	Bool
	// Ptr is the address of a memory cell
	Ptr
	// Label is a taint label handle
	Label
)

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case Int:
		return "i64"
	case Bool:
		return "bool"
	case Ptr:
		return "ptr"
	case Label:
		return "label"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// A Value is an operand of an instruction: a constant, a parameter, a global or the result of an instruction.
type Value interface {
	// Name returns the name of the value as it is printed when it is used as an operand
	Name() string
	// Type returns the type of the value
	Type() Type
}

// A Const is a constant value
type Const struct {
	Int int64
	typ Type
}

// NewConst returns a constant of type t
func NewConst(v int64, t Type) *Const {
	return &Const{Int: v, typ: t}
}

func (c *Const) Name() string {
	if c.typ == Bool {
		if c.Int != 0 {
			return "true"
		}
		return "false"
	}
	if c.typ == Ptr && c.Int == 0 {
		return "nil"
	}
	return fmt.Sprintf("%d", c.Int)
}

func (c *Const) Type() Type { return c.typ }

// A Parameter is a formal parameter of a function
type Parameter struct {
	name   string
	typ    Type
	Index  int
	parent *Function
}

func (p *Parameter) Name() string { return "%" + p.name }

func (p *Parameter) Type() Type { return p.typ }

// Parent returns the function the parameter belongs to
func (p *Parameter) Parent() *Function { return p.parent }

// A Global is a module-level memory object of Cells cells. Its value is its address.
type Global struct {
	name  string
	Cells int
}

func (g *Global) Name() string { return "@" + g.name }

func (g *Global) Type() Type { return Ptr }

// Ident returns the name of the global without the sigil
func (g *Global) Ident() string { return g.name }
