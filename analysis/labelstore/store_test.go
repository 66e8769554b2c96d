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
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/container/intsets"
)

// fromBits returns the set of positions of the true bits
func fromBits(bits ...bool) *intsets.Sparse {
	s := &intsets.Sparse{}
	for i, b := range bits {
		if b {
			s.Insert(i)
		}
	}
	return s
}

// fromBytes reads the bytes most significant bit first
func fromBytes(bytes ...byte) *intsets.Sparse {
	s := &intsets.Sparse{}
	for i, x := range bytes {
		for j := 0; j < 8; j++ {
			if x&(0x80>>j) != 0 {
				s.Insert(i*8 + j)
			}
		}
	}
	return s
}

type fixture struct {
	tree  *Tree
	table *Table
	sets  []*intsets.Sparse
}

func newFixture() *fixture {
	return &fixture{
		tree:  NewTree(),
		table: NewTable(),
		sets: []*intsets.Sparse{
			fromBits(false),
			fromBits(true, true),
			fromBits(false, false, false),
			fromBits(true),
			fromBytes(0b01110100, 0b10010010),
		},
	}
}

func TestInsert(t *testing.T) {
	f := newFixture()
	expected := []Label{0, 1, 0, 2, 3}
	for i, s := range f.sets {
		if got := Insert(f.tree, s, f.table); got != expected[i] {
			t.Errorf("insert of set %d: expected label %d, got %d", i, expected[i], got)
		}
	}
	if f.table.Len() != 4 {
		t.Errorf("expected 4 labels, got %d", f.table.Len())
	}
}

func TestFind(t *testing.T) {
	f := newFixture()
	for _, s := range f.sets {
		Insert(f.tree, s, f.table)
	}
	for _, tc := range []struct {
		label Label
		set   *intsets.Sparse
	}{
		{0, f.sets[0]},
		{1, f.sets[1]},
		{0, f.sets[2]},
		{2, f.sets[3]},
		{3, f.sets[4]},
	} {
		got, err := Find(tc.label, f.table)
		if err != nil {
			t.Fatalf("find %d: %v", tc.label, err)
		}
		if !got.Equals(tc.set) {
			t.Errorf("find %d: expected %s, got %s", tc.label, tc.set, got)
		}
	}
	if _, err := Find(4, f.table); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("find of a label out of the table should fail with ErrUnknownLabel, got %v", err)
	}
}

func TestUnion(t *testing.T) {
	f := newFixture()
	for _, s := range f.sets {
		Insert(f.tree, s, f.table)
	}
	for _, tc := range []struct {
		a, b, expected Label
	}{
		{0, 1, 1},
		{1, 3, 4},
		{0, 4, 4},
	} {
		got, err := Union(tc.a, tc.b, f.table, f.tree)
		if err != nil {
			t.Fatalf("union(%d, %d): %v", tc.a, tc.b, err)
		}
		if got != tc.expected {
			t.Errorf("union(%d, %d): expected %d, got %d", tc.a, tc.b, tc.expected, got)
		}
	}
}

func TestUnionProperties(t *testing.T) {
	tree, table := NewTree(), NewTable()
	Insert(tree, &intsets.Sparse{}, table)
	var origins []Label
	for i := 0; i < 5; i++ {
		s := &intsets.Sparse{}
		s.Insert(i)
		origins = append(origins, Insert(tree, s, table))
	}
	for _, a := range origins {
		if l, _ := Union(a, a, table, tree); l != a {
			t.Errorf("union(%d, %d) should be idempotent, got %d", a, a, l)
		}
		if l, _ := Union(a, Untainted, table, tree); l != a {
			t.Errorf("untainted should be the identity of union, union(%d, 0) = %d", a, l)
		}
		for _, b := range origins {
			ab, _ := Union(a, b, table, tree)
			ba, _ := Union(b, a, table, tree)
			if ab != ba {
				t.Errorf("union should be commutative: union(%d, %d) = %d, union(%d, %d) = %d", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestBitVecMark(t *testing.T) {
	v := &BitVec{}
	v.Mark(1, 3)
	v.Mark(2, 1)
	if v.Len() != 7 {
		t.Errorf("expected length 7, got %d", v.Len())
	}
	if got := FormatBits(v.Set(), v.Len()); got != "0001011" {
		t.Errorf("unexpected bits %q", got)
	}
}

func TestBindings(t *testing.T) {
	var out bytes.Buffer
	b := NewBindings(&out)
	fns := b.Functions()
	call := func(name string, args ...int64) int64 {
		r, err := fns[name](args)
		if err != nil {
			t.Fatalf("%s%v: %v", name, args, err)
		}
		return r
	}
	tree := call(FnTreeNew)
	table := call(FnTableNew)
	mk := func(length, offset int64) int64 {
		s := call(FnSetNew)
		call(FnSetMark, s, length, offset)
		l := call(FnIntern, tree, s, table)
		call(FnSetFree, s)
		return l
	}
	root := mk(0, 0)
	o0 := mk(1, 0)
	o2 := mk(1, 2)
	u := call(FnUnion, o0, o2, table, tree)
	if root != 0 || o0 != 1 || o2 != 2 || u != 3 {
		t.Errorf("unexpected labels root=%d o0=%d o2=%d u=%d", root, o0, o2, u)
	}
	origins, err := b.Origins(u)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 2}, origins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	call(FnReport, table, u, 4, 7)
	if got := out.String(); got != "Basic Block #7's Taints: 1010\n" {
		t.Errorf("unexpected report %q", got)
	}
	if len(b.Reports) != 1 || b.Reports[0].Block != 7 {
		t.Errorf("report not recorded: %v", b.Reports)
	}
	if _, err := fns[FnSetMark]([]int64{1, 1, 0}); err == nil {
		t.Errorf("marking a freed bit vector should fail")
	}
	if _, err := fns[FnUnion]([]int64{0, 1, 9, tree}); err == nil {
		t.Errorf("union with an invalid table handle should fail")
	}
}

func TestInternUntaintedFirst(t *testing.T) {
	fns := NewBindings(nil).Functions()
	tree, _ := fns[FnTreeNew](nil)
	table, _ := fns[FnTableNew](nil)
	set, _ := fns[FnSetNew](nil)
	if _, err := fns[FnSetMark]([]int64{set, 1, 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := fns[FnIntern]([]int64{tree, set, table}); !errors.Is(err, ErrUntaintedFirst) {
		t.Fatalf("interning an origin before the empty set should fail, got %v", err)
	}
	empty, _ := fns[FnSetNew](nil)
	if l, err := fns[FnIntern]([]int64{tree, empty, table}); err != nil || l != int64(Untainted) {
		t.Fatalf("expected the empty set to be interned as %d, got %d (%v)", Untainted, l, err)
	}
	if l, err := fns[FnIntern]([]int64{tree, set, table}); err != nil || l != 1 {
		t.Errorf("expected the origin to get label 1 after the empty set, got %d (%v)", l, err)
	}
}
