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

package labelstore

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/tools/container/intsets"
)

// Names of the runtime functions called by instrumented programs, and of the cells holding the runtime handles
const (
	FnTreeNew  = "__flowinst_tree_new"
	FnTableNew = "__flowinst_table_new"
	FnSetNew   = "__flowinst_set_new"
	FnSetMark  = "__flowinst_set_mark"
	FnIntern   = "__flowinst_intern"
	FnSetFree  = "__flowinst_set_free"
	FnUnion    = "__flowinst_union"
	FnReport   = "__flowinst_report"

	RootCell  = "__flowinst_root"
	TableCell = "__flowinst_table"
)

// BitVec is a bit vector under construction. Unlike interned sets, its length is significant: marking appends bits
// after the current length.
type BitVec struct {
	bits intsets.Sparse
	n    int
}

// Mark appends offset zero bits then length one bits
func (v *BitVec) Mark(length, offset int) {
	v.n += offset
	for i := 0; i < length; i++ {
		v.bits.Insert(v.n)
		v.n++
	}
}

// Len returns the number of bits of the vector
func (v *BitVec) Len() int {
	return v.n
}

// Set returns the set of positions of the one bits
func (v *BitVec) Set() *intsets.Sparse {
	return &v.bits
}

// FormatBits prints the first total bits of set as a string of 0s and 1s. Bits of set beyond total are printed too.
func FormatBits(set *intsets.Sparse, total int) string {
	n := total
	if !set.IsEmpty() && set.Max()+1 > n {
		n = set.Max() + 1
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if set.Has(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Report is the taint report of a basic block
type Report struct {
	Block   int
	Label   Label
	Origins []int
	Total   int
}

func (r Report) String() string {
	set := &intsets.Sparse{}
	for _, o := range r.Origins {
		set.Insert(o)
	}
	return fmt.Sprintf("Basic Block #%d's Taints: %s", r.Block, FormatBits(set, r.Total))
}

// Bindings implements the runtime functions over handles. Handles of trees, tables and bit vectors are positive
// integers; 0 is never a valid handle.
type Bindings struct {
	out     io.Writer
	trees   []*Tree
	tables  []*Table
	sets    []*BitVec
	Reports []Report
}

// NewBindings returns bindings printing the reports to out. If out is nil, the reports are only recorded.
func NewBindings(out io.Writer) *Bindings {
	return &Bindings{out: out}
}

// Functions returns the runtime functions, indexed by their names
func (b *Bindings) Functions() map[string]func(args []int64) (int64, error) {
	return map[string]func(args []int64) (int64, error){
		FnTreeNew: func(args []int64) (int64, error) {
			b.trees = append(b.trees, NewTree())
			return int64(len(b.trees)), nil
		},
		FnTableNew: func(args []int64) (int64, error) {
			b.tables = append(b.tables, NewTable())
			return int64(len(b.tables)), nil
		},
		FnSetNew: func(args []int64) (int64, error) {
			b.sets = append(b.sets, &BitVec{})
			return int64(len(b.sets)), nil
		},
		FnSetMark:  b.setMark,
		FnIntern:   b.intern,
		FnSetFree:  b.setFree,
		FnUnion:    b.union,
		FnReport:   b.report,
	}
}

func (b *Bindings) setMark(args []int64) (int64, error) {
	if err := arity(FnSetMark, args, 3); err != nil {
		return 0, err
	}
	v, err := b.set(args[0])
	if err != nil {
		return 0, err
	}
	if args[1] < 0 || args[2] < 0 {
		return 0, fmt.Errorf("%s: negative length or offset (%d, %d)", FnSetMark, args[1], args[2])
	}
	v.Mark(int(args[1]), int(args[2]))
	return 0, nil
}

func (b *Bindings) intern(args []int64) (int64, error) {
	if err := arity(FnIntern, args, 3); err != nil {
		return 0, err
	}
	tree, err := b.tree(args[0])
	if err != nil {
		return 0, err
	}
	v, err := b.set(args[1])
	if err != nil {
		return 0, err
	}
	table, err := b.table(args[2])
	if err != nil {
		return 0, err
	}
	set := v.Set()
	if table.Len() == 0 && !set.IsEmpty() {
		return 0, fmt.Errorf("%s: %w", FnIntern, ErrUntaintedFirst)
	}
	return int64(Insert(tree, set, table)), nil
}

func (b *Bindings) setFree(args []int64) (int64, error) {
	if err := arity(FnSetFree, args, 1); err != nil {
		return 0, err
	}
	if _, err := b.set(args[0]); err != nil {
		return 0, err
	}
	b.sets[args[0]-1] = nil
	return 0, nil
}

func (b *Bindings) union(args []int64) (int64, error) {
	if err := arity(FnUnion, args, 4); err != nil {
		return 0, err
	}
	table, err := b.table(args[2])
	if err != nil {
		return 0, err
	}
	tree, err := b.tree(args[3])
	if err != nil {
		return 0, err
	}
	l, err := Union(Label(args[0]), Label(args[1]), table, tree)
	return int64(l), err
}

func (b *Bindings) report(args []int64) (int64, error) {
	if err := arity(FnReport, args, 4); err != nil {
		return 0, err
	}
	table, err := b.table(args[0])
	if err != nil {
		return 0, err
	}
	set, err := Find(Label(args[1]), table)
	if err != nil {
		return 0, err
	}
	r := Report{Block: int(args[3]), Label: Label(args[1]), Origins: set.AppendTo(nil), Total: int(args[2])}
	b.Reports = append(b.Reports, r)
	if b.out != nil {
		if _, err := fmt.Fprintln(b.out, r.String()); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

// Origins returns the origins of label in the most recently created table
func (b *Bindings) Origins(label int64) ([]int, error) {
	if len(b.tables) == 0 {
		return nil, fmt.Errorf("no label table has been created")
	}
	set, err := Find(Label(label), b.tables[len(b.tables)-1])
	if err != nil {
		return nil, err
	}
	return set.AppendTo(nil), nil
}

func (b *Bindings) tree(h int64) (*Tree, error) {
	if h <= 0 || int(h) > len(b.trees) {
		return nil, fmt.Errorf("invalid tree handle %d", h)
	}
	return b.trees[h-1], nil
}

func (b *Bindings) table(h int64) (*Table, error) {
	if h <= 0 || int(h) > len(b.tables) {
		return nil, fmt.Errorf("invalid table handle %d", h)
	}
	return b.tables[h-1], nil
}

func (b *Bindings) set(h int64) (*BitVec, error) {
	if h <= 0 || int(h) > len(b.sets) || b.sets[h-1] == nil {
		return nil, fmt.Errorf("invalid or freed bit vector handle %d", h)
	}
	return b.sets[h-1], nil
}

func arity(name string, args []int64, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s expects %d arguments, got %d", name, n, len(args))
	}
	return nil
}
