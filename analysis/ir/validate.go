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

// A MalformedError reports a structural problem in a function
type MalformedError struct {
	Function string
	Block    int
	Reason   string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed function %s, block b%d: %s", e.Function, e.Block, e.Reason)
}

// Validate checks the structural invariants of every function of the program
func (p *Program) Validate() error {
	for _, f := range p.Functions {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every block of f ends with exactly one terminator that agrees with the successors of the
// block, that phis come first and have one edge per predecessor, that calls match the arity of their callee and
// that returns agree with the result type of f.
//
//gocyclo:ignore
func (f *Function) Validate() error {
	bad := func(b *BasicBlock, format string, args ...any) error {
		return &MalformedError{Function: f.Name, Block: b.Index, Reason: fmt.Sprintf(format, args...)}
	}
	for i, b := range f.Blocks {
		if b.Index != i {
			return bad(b, "block index %d at position %d", b.Index, i)
		}
		if len(b.Instrs) == 0 {
			return bad(b, "empty block")
		}
		phis := true
		for j, instr := range b.Instrs {
			if instr.Block() != b {
				return bad(b, "instruction %q has the wrong parent block", instr)
			}
			last := j == len(b.Instrs)-1
			if IsTerminator(instr) != last {
				return bad(b, "terminator must be the last instruction, found %q at %d", instr, j)
			}
			phi, isPhi := instr.(*Phi)
			if isPhi && !phis {
				return bad(b, "phi %q after a non-phi instruction", instr)
			}
			phis = isPhi
			if isPhi && len(phi.Edges) != len(b.Preds) {
				return bad(b, "phi %q has %d edges for %d predecessors", instr, len(phi.Edges), len(b.Preds))
			}
			if call, ok := instr.(*Call); ok && len(call.Args) != len(call.Callee.Params) {
				return bad(b, "call %q has %d arguments, %s expects %d", instr, len(call.Args), call.Callee.Name,
					len(call.Callee.Params))
			}
			if ret, ok := instr.(*Return); ok && (ret.Result == nil) == f.HasResult() {
				return bad(b, "return %q does not match the result type %s", instr, f.Result)
			}
		}
		switch b.Terminator().(type) {
		case *If:
			if len(b.Succs) != 2 {
				return bad(b, "if with %d successors", len(b.Succs))
			}
		case *Jump:
			if len(b.Succs) != 1 {
				return bad(b, "jump with %d successors", len(b.Succs))
			}
		case *Return:
			if len(b.Succs) != 0 {
				return bad(b, "return with %d successors", len(b.Succs))
			}
		}
		for _, s := range b.Succs {
			if s.PredIndex(b) < 0 {
				return bad(b, "successor %s does not list %s as predecessor", s, b)
			}
		}
	}
	return nil
}
