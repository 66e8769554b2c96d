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
	"github.com/awslabs/ar-go-flowinst/analysis/ir"
)

// emitReports emits, before each return of the entry function, the report of the controlling label of every block
// of the entry function that was instrumented. It runs after every function is instrumented, so that the reports
// carry the number of origins of the whole program.
func (s *state) emitReports() {
	fs := s.funcs[s.entry]
	s.fs = fs
	for _, ret := range fs.returns {
		for _, b := range fs.visited {
			s.reportLabel(ret, s.scopes[s.byBlock[b]].label, s.numOrigins, b)
		}
	}
	s.Logger.Debugf("%s: %d block reports before %d return(s)", s.entry.Name, len(fs.visited), len(fs.returns))
}

// Result is the static outcome of an instrumentation run
type Result struct {
	// NumOrigins is the number of origins minted in the whole program
	NumOrigins int

	// Entry is the entry function
	Entry *ir.Function

	scopes  []*BranchScope
	byBlock map[*ir.BasicBlock]ScopeID
	labels  map[ir.Value]*labelRef
	history map[historyKey][]ScopeID
	fnSlots map[*ir.Function]*FunctionSlots
	visited map[*ir.Function][]*ir.BasicBlock
}

func (s *state) result() *Result {
	visited := make(map[*ir.Function][]*ir.BasicBlock, len(s.funcs))
	for f, fs := range s.funcs {
		visited[f] = fs.visited
	}
	return &Result{
		NumOrigins: s.numOrigins,
		Entry:      s.entry,
		scopes:     s.scopes,
		byBlock:    s.byBlock,
		labels:     s.labels,
		history:    s.history,
		fnSlots:    s.fnSlots,
		visited:    visited,
	}
}

// Label returns the IR value holding the label of v, a value of the original program. It returns false if v is
// statically untainted.
func (r *Result) Label(v ir.Value) (ir.Value, bool) {
	ref, ok := r.labels[v]
	if !ok {
		return nil, false
	}
	return ref.val, true
}

// Scope returns the scope of b, or false if the block was never reached
func (r *Result) Scope(b *ir.BasicBlock) (*BranchScope, bool) {
	id, ok := r.byBlock[b]
	if !ok {
		return nil, false
	}
	return r.scopes[id], true
}

// ScopeByID returns the scope with the given id
func (r *Result) ScopeByID(id ScopeID) *BranchScope {
	return r.scopes[id]
}

// Visited returns the blocks of f that were instrumented, in layout order
func (r *Result) Visited(f *ir.Function) []*ir.BasicBlock {
	return r.visited[f]
}

// History returns the scopes of the conditional writes to addr recorded at the end of the traversal of f
func (r *Result) History(f *ir.Function, addr ir.Value) []*BranchScope {
	var res []*BranchScope
	for _, id := range r.history[historyKey{fn: f, addr: addr}] {
		res = append(res, r.scopes[id])
	}
	return res
}

// Slots returns the interprocedural slots of f. The entry function has no slots.
func (r *Result) Slots(f *ir.Function) (*FunctionSlots, bool) {
	fs, ok := r.fnSlots[f]
	return fs, ok
}
