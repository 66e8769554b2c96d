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

// A ScopeID is the index of a BranchScope in the scopes of an instrumentation run
type ScopeID int

// selfParent is passed to attach to create a scope that is its own parent
const selfParent ScopeID = -1

// A BranchScope is the conditional context a basic block executes under.
//
// The scopes of a function form a tree: the root scope is its own parent, and every conditional branch nests the
// scopes of its successors below the scope of the branching block, until control flow converges back.
type BranchScope struct {
	ID    ScopeID
	Block *ir.BasicBlock

	// Path is the list of directions taken since the nearest convergence point: 0 for the first successor of a
	// branch and 1 for the second one. The path of a scope on the main path of the function is empty.
	Path []int

	// Ancestor is the terminator of the block where the enclosing region of the main path starts. The
	// instrumentation of nested blocks is emitted before it, where it runs whichever path is taken.
	Ancestor ir.Instruction

	// Parent is the enclosing scope
	Parent ScopeID

	label *labelRef
}

// Label returns the IR value of the controlling label of the scope
func (sc *BranchScope) Label() ir.Value {
	return sc.label.val
}

// IsMain returns true if the scope is on the main path of its function
func (sc *BranchScope) IsMain() bool {
	return len(sc.Path) == 0
}

func (sc *BranchScope) String() string {
	return fmt.Sprintf("scope %d of %s (path %v, parent %d)", sc.ID, sc.Block, sc.Path, sc.Parent)
}

// attach creates the scope of b
func (s *state) attach(b *ir.BasicBlock, label *labelRef, path []int, ancestor ir.Instruction,
	parent ScopeID) ScopeID {
	id := ScopeID(len(s.scopes))
	if parent == selfParent {
		parent = id
	}
	sc := &BranchScope{ID: id, Block: b, Path: path, Ancestor: ancestor, Parent: parent, label: orUntainted(label)}
	s.scopes = append(s.scopes, sc)
	s.byBlock[b] = id
	s.Logger.Debugf("%s: %s, %s", b.Parent().Name, sc, sc.label)
	return id
}

func (s *state) current() *BranchScope {
	return s.scopes[s.fs.cur]
}

// hasScope returns true if a scope has already been attached to b
func (s *state) hasScope(b *ir.BasicBlock) bool {
	_, ok := s.byBlock[b]
	return ok
}

// enterBranch attaches the scopes of the successors of a conditional branch. The successor that comes later in the
// control flow is the convergence point of the branch when it has several incoming edges: it gets a scope at the
// level of cur. The other successors get scopes nested in cur with the controlling label branchLabel.
func (s *state) enterBranch(cur *BranchScope, branchLabel *labelRef, succs []*ir.BasicBlock) {
	later := s.fs.laterSuccessor(succs[0], succs[1])
	for i, succ := range succs {
		if s.hasScope(succ) {
			continue
		}
		if i == later && fanIn(succ) >= 2 {
			s.converge(cur, succ)
			continue
		}
		s.attach(succ, branchLabel, appendDirection(cur.Path, i), cur.Ancestor, cur.ID)
	}
}

// converge attaches to succ a scope at the level of cur
func (s *state) converge(cur *BranchScope, succ *ir.BasicBlock) {
	if cur.IsMain() {
		s.attach(succ, cur.label, nil, succ.Terminator(), selfParent)
		return
	}
	s.attach(succ, cur.label, clonePath(cur.Path), cur.Ancestor, cur.Parent)
}

// leaveBranch attaches a scope to the target of an unconditional branch, one level above cur
func (s *state) leaveBranch(cur *BranchScope, succ *ir.BasicBlock) {
	if s.hasScope(succ) || loopEntries(succ) > 0 {
		return
	}
	if cur.IsMain() {
		s.attach(succ, cur.label, nil, succ.Terminator(), selfParent)
		return
	}
	parent := s.scopes[cur.Parent]
	path := clonePath(cur.Path[:len(cur.Path)-1])
	if len(path) == 0 {
		s.attach(succ, parent.label, nil, succ.Terminator(), selfParent)
		return
	}
	s.attach(succ, parent.label, path, cur.Ancestor, parent.Parent)
}

// laterSuccessor returns the index of the successor that executes after the other one. When neither reaches the
// other, or both reach each other, the layout order decides.
func (fs *funcState) laterSuccessor(s0, s1 *ir.BasicBlock) int {
	r01 := fs.graph.Reaches(s0, s1)
	r10 := fs.graph.Reaches(s1, s0)
	switch {
	case r01 && !r10:
		return 1
	case r10 && !r01:
		return 0
	case s0.Index > s1.Index:
		return 0
	}
	return 1
}

// fanIn returns the number of incoming edges of b that are not loop back edges
func fanIn(b *ir.BasicBlock) int {
	return len(b.Preds) - loopEntries(b)
}

// loopEntries returns the number of loop back edges entering b.
// Loop-aware merging of scopes is not supported: back edges are counted as regular edges, and functions with loops
// are diagnosed by the driver instead.
func loopEntries(_ *ir.BasicBlock) int {
	return 0
}

// isEmbedded returns true if short is a prefix of long
func isEmbedded(long, short []int) bool {
	if len(short) > len(long) {
		return false
	}
	for i, d := range short {
		if long[i] != d {
			return false
		}
	}
	return true
}

func samePath(a, b []int) bool {
	return len(a) == len(b) && isEmbedded(a, b)
}

func appendDirection(path []int, d int) []int {
	res := make([]int, len(path), len(path)+1)
	copy(res, path)
	return append(res, d)
}

func clonePath(path []int) []int {
	if len(path) == 0 {
		return nil
	}
	res := make([]int, len(path))
	copy(res, path)
	return res
}
