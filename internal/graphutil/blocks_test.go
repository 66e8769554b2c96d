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

package graphutil_test

import (
	"testing"

	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"github.com/awslabs/ar-go-flowinst/internal/graphutil"
	"github.com/yourbasic/graph"
)

// cfg builds a function whose blocks have the successors given by succs. Blocks with two successors end with an if,
// blocks with one with a jump and blocks with none with a return.
func cfg(succs map[int][]int, n int) *ir.Function {
	p := ir.NewProgram()
	f := p.NewFunction("f", ir.Void)
	c := f.AddParam("c", ir.Bool)
	for i := 0; i < n; i++ {
		f.NewBlock("")
	}
	for i, b := range f.Blocks {
		bld := ir.NewBuilder(b)
		switch s := succs[i]; len(s) {
		case 0:
			bld.Return(nil)
		case 1:
			bld.Jump(f.Blocks[s[0]])
		default:
			bld.If(c, f.Blocks[s[0]], f.Blocks[s[1]])
		}
	}
	return f
}

func TestDominatorsAndReachability(t *testing.T) {
	// 0 -> {1, 2}; 1 -> 3; 2 -> 3; 3 -> end; 4 -> 3 (unreachable)
	f := cfg(map[int][]int{0: {1, 2}, 1: {3}, 2: {3}, 4: {3}}, 5)
	bg := graphutil.NewBlockGraph(f)
	b := f.Blocks

	for _, tc := range []struct {
		a, b int
		dom  bool
	}{
		{0, 3, true},
		{0, 1, true},
		{1, 3, false},
		{2, 3, false},
		{3, 3, true},
		{0, 4, false},
	} {
		if got := bg.Dominates(b[tc.a], b[tc.b]); got != tc.dom {
			t.Errorf("Dominates(b%d, b%d) = %v, expected %v", tc.a, tc.b, got, tc.dom)
		}
	}
	if bg.Reachable(b[4]) {
		t.Errorf("b4 should not be reachable")
	}
	if !bg.Reachable(b[3]) {
		t.Errorf("b3 should be reachable")
	}
	if !bg.Reaches(b[1], b[3]) || bg.Reaches(b[3], b[1]) || bg.Reaches(b[1], b[2]) {
		t.Errorf("unexpected reachability between blocks")
	}
	if loops := bg.Loops(); len(loops) != 0 {
		t.Errorf("expected no loop, got %v", loops)
	}
	stats := graph.Check(bg)
	if stats.Size != 5 {
		t.Errorf("expected 5 edges, got %d", stats.Size)
	}
}

func TestLoops(t *testing.T) {
	// 0 -> 1; 1 -> {2, 3}; 2 -> 1; 3 -> {3, 4}
	f := cfg(map[int][]int{0: {1}, 1: {2, 3}, 2: {1}, 3: {3, 4}}, 5)
	bg := graphutil.NewBlockGraph(f)
	loops := bg.Loops()
	if len(loops) != 2 {
		t.Fatalf("expected 2 loops, got %d", len(loops))
	}
	if len(loops[0]) != 2 || loops[0][0].Index != 1 || loops[0][1].Index != 2 {
		t.Errorf("expected the loop {b1, b2}, got %v", loops[0])
	}
	if len(loops[1]) != 1 || loops[1][0].Index != 3 {
		t.Errorf("expected the self loop {b3}, got %v", loops[1])
	}
	// the back edge does not prevent dominance
	if !bg.Dominates(f.Blocks[1], f.Blocks[2]) {
		t.Errorf("b1 should dominate b2")
	}
}
