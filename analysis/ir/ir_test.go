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
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// diamond builds
//
//	func f(x, y) { b0: c = x < y; if c then b1 else b2; b1: jump b3; b2: jump b3; b3: r = phi(x, y); return r }
func diamond() (*Program, *Function) {
	p := NewProgram()
	f := p.NewFunction("f", Int)
	x := f.AddParam("x", Int)
	y := f.AddParam("y", Int)
	b0, b1, b2, b3 := f.NewBlock("entry"), f.NewBlock("then"), f.NewBlock("else"), f.NewBlock("join")
	c := NewBuilder(b0).BinOp(Lss, x, y)
	NewBuilder(b0).If(c, b1, b2)
	NewBuilder(b1).Jump(b3)
	NewBuilder(b2).Jump(b3)
	r := NewBuilder(b3).Phi(Int, x, y)
	NewBuilder(b3).Return(r)
	return p, f
}

func instrStrings(b *BasicBlock) []string {
	var res []string
	for _, instr := range b.Instrs {
		res = append(res, instr.String())
	}
	return res
}

func TestBuildAndPrint(t *testing.T) {
	p, f := diamond()
	if err := p.Validate(); err != nil {
		t.Fatalf("diamond should be valid: %v", err)
	}
	want := []string{"%0 = lt %x, %y", "if %0 then b1 else b2"}
	if diff := cmp.Diff(want, instrStrings(f.Blocks[0])); diff != "" {
		t.Errorf("entry block mismatch (-want +got):\n%s", diff)
	}
	if got := f.Blocks[3].Instrs[0].String(); got != "%1 = phi [b1: %x, b2: %y]" {
		t.Errorf("unexpected phi %q", got)
	}
	s := p.String()
	for _, expected := range []string{"func f(%x i64, %y i64) i64 {", "b3: ; join ; preds b1 b2", "\treturn %1"} {
		if !strings.Contains(s, expected) {
			t.Errorf("printed program does not contain %q:\n%s", expected, s)
		}
	}
}

func TestInsertionOrder(t *testing.T) {
	p, f := diamond()
	ext := p.DeclareExternal("ext", Int, Int)
	ret := f.Blocks[3].Terminator()
	phi := f.Blocks[3].Instrs[0]

	// before: consecutive insertions keep their order
	a := Before(ret).Call(ext, NewConst(1, Int))
	b := Before(ret).Call(ext, NewConst(2, Int))
	// before a phi means after the phi group
	c := Before(phi).Call(ext, NewConst(3, Int))
	// after: a builder keeps inserting after its last instruction
	ab := After(c)
	d := ab.Call(ext, NewConst(4, Int))
	e := ab.Call(ext, NewConst(5, Int))

	got := f.Blocks[3].Instrs
	want := []Instruction{phi, c, d, e, a, b, ret}
	if len(got) != len(want) {
		t.Fatalf("expected %d instructions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	// prologue insertions stack up at the start of the entry block
	p1 := Prologue(f).Alloc(1, "first")
	p2 := Prologue(f).Alloc(1, "second")
	entry := f.Blocks[0].Instrs
	if entry[0] != p1 || entry[1] != p2 {
		t.Errorf("prologue order wrong:\n%s", strings.Join(instrStrings(f.Blocks[0]), "\n"))
	}
	if err := f.Validate(); err != nil {
		t.Errorf("instrumented function should still be valid: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	p, f := diamond()
	phi := f.Blocks[3].Instrs[0].(*Phi)
	phi.Edges = phi.Edges[:1]
	err := p.Validate()
	var merr *MalformedError
	if !errors.As(err, &merr) {
		t.Fatalf("expected a MalformedError, got %v", err)
	}
	if merr.Block != 3 {
		t.Errorf("expected the error in b3, got b%d", merr.Block)
	}

	_, f = diamond()
	NewBuilder(f.Blocks[1]).Return(NewConst(0, Int))
	if err := f.Validate(); err == nil {
		t.Errorf("a block with two terminators should be invalid")
	}
}

// countingOp counts instructions per kind
type countingOp struct {
	counts map[string]int
}

func (v *countingOp) DoBinOp(*BinOp)                   { v.counts["binop"]++ }
func (v *countingOp) DoAlloc(*Alloc)                   { v.counts["alloc"]++ }
func (v *countingOp) DoLoad(*Load)                     { v.counts["load"]++ }
func (v *countingOp) DoStore(*Store)                   { v.counts["store"]++ }
func (v *countingOp) DoAddressCompute(*AddressCompute) { v.counts["addr"]++ }
func (v *countingOp) DoPhi(*Phi)                       { v.counts["phi"]++ }
func (v *countingOp) DoCall(*Call)                     { v.counts["call"]++ }
func (v *countingOp) DoIf(*If)                         { v.counts["if"]++ }
func (v *countingOp) DoJump(*Jump)                     { v.counts["jump"]++ }
func (v *countingOp) DoReturn(*Return)                 { v.counts["return"]++ }

func TestInstrSwitch(t *testing.T) {
	_, f := diamond()
	v := &countingOp{counts: map[string]int{}}
	f.Instructions(func(instr Instruction) { InstrSwitch(v, instr) })
	want := map[string]int{"binop": 1, "if": 1, "jump": 2, "phi": 1, "return": 1}
	if diff := cmp.Diff(want, v.counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestValueOf(t *testing.T) {
	p := NewProgram()
	f := p.NewFunction("g", Void)
	b := NewBuilder(f.NewBlock(""))
	void := p.DeclareExternal("sink", Void, Int)
	call := b.Call(void, NewConst(1, Int))
	a := b.Alloc(2, "")
	s := b.Store(a, NewConst(1, Int))
	b.Return(nil)
	if ValueOf(call) != nil {
		t.Errorf("a call to a void function is not a value")
	}
	if ValueOf(a) != a {
		t.Errorf("an alloc is a value")
	}
	if ValueOf(s) != nil {
		t.Errorf("a store is not a value")
	}
	if got := call.String(); got != "call sink(1)" {
		t.Errorf("unexpected call string %q", got)
	}
}
