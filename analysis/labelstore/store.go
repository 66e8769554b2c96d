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

// Package labelstore implements the runtime that stores taint labels while an instrumented program executes.
//
// A label is the handle of a set of origins. Sets are interned in a binary trie: the path from the root to a node
// spells the bits of the set, from origin 0 upwards, and trailing zero bits are insignificant. The table maps every
// label to its trie node, in the order labels were created, so structurally equal sets always get the same label.
// The empty set is interned first by every instrumented program, which makes 0 the untainted label.
package labelstore

import (
	"errors"
	"fmt"

	"golang.org/x/tools/container/intsets"
)

// Label is the handle of an interned origin set
type Label uint32

// Untainted is the label of the empty set, as long as the empty set is the first set interned in the table
const Untainted Label = 0

// ErrUnknownLabel is returned when a label is not in the table
var ErrUnknownLabel = errors.New("unknown label")

// ErrUntaintedFirst is returned by the runtime when a non-empty set is interned in an empty table, which would leave
// Untainted denoting a tainted set
var ErrUntaintedFirst = errors.New("the empty set must be the first set interned in a table")

type node struct {
	children [2]*node
	parent   *node
	right    bool // true when the node is the right (1) child of its parent
	labeled  bool
	label    Label
}

// Tree is the interning trie
type Tree struct {
	root *node
}

// NewTree returns an empty interning trie
func NewTree() *Tree {
	return &Tree{root: &node{}}
}

// Table maps labels to the trie nodes they have been assigned to
type Table struct {
	record []*node
}

// NewTable returns an empty label table
func NewTable() *Table {
	return &Table{}
}

// Len returns the number of labels in the table
func (t *Table) Len() int {
	return len(t.record)
}

// Insert interns set and returns its label. A set that has already been inserted gets the same label again;
// otherwise the next label of the table is assigned to it.
func Insert(tree *Tree, set *intsets.Sparse, table *Table) Label {
	n := tree.root
	if !set.IsEmpty() {
		last := set.Max()
		for i := 0; i <= last; i++ {
			bit := 0
			if set.Has(i) {
				bit = 1
			}
			child := n.children[bit]
			if child == nil {
				child = &node{parent: n, right: bit == 1}
				n.children[bit] = child
			}
			n = child
		}
	}
	if !n.labeled {
		n.labeled = true
		n.label = Label(len(table.record))
		table.record = append(table.record, n)
	}
	return n.label
}

// Find returns the set of origins of label
func Find(label Label, table *Table) (*intsets.Sparse, error) {
	if int(label) >= len(table.record) {
		return nil, fmt.Errorf("%w: %d (table has %d labels)", ErrUnknownLabel, label, len(table.record))
	}
	var path []bool
	for n := table.record[label]; n.parent != nil; n = n.parent {
		path = append(path, n.right)
	}
	set := &intsets.Sparse{}
	// path is in reverse order: the last element is the bit of origin 0
	for i := range path {
		if path[len(path)-1-i] {
			set.Insert(i)
		}
	}
	return set, nil
}

// Union returns the label of the union of the sets of a and b, interning it if necessary
func Union(a, b Label, table *Table, tree *Tree) (Label, error) {
	sa, err := Find(a, table)
	if err != nil {
		return 0, err
	}
	sb, err := Find(b, table)
	if err != nil {
		return 0, err
	}
	sa.UnionWith(sb)
	return Insert(tree, sa, table), nil
}
