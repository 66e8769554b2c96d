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
	"sort"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"github.com/awslabs/ar-go-flowinst/internal/funcutil"
	"github.com/awslabs/ar-go-flowinst/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// callProgram builds a program where each function calls the functions listed in calls, in that order
func callProgram(names []string, calls map[string][]string) *ir.Program {
	p := ir.NewProgram()
	for _, name := range names {
		p.NewFunction(name, ir.Void)
	}
	p.DeclareExternal("ext", ir.Void)
	for _, name := range names {
		f := p.Func(name)
		b := ir.NewBuilder(f.NewBlock(""))
		for _, callee := range calls[name] {
			b.Call(p.Func(callee))
		}
		b.Return(nil)
	}
	return p
}

func TestFindAllElementaryCycles(t *testing.T) {
	names := []string{"main", "a", "b", "c", "d", "e"}
	p := callProgram(names, map[string][]string{
		"main": {"a", "e", "ext"},
		"a":    {"b", "c"},
		"b":    {"a"},
		"c":    {"d", "a"},
		"d":    {"c"},
		"e":    {"e"},
	})
	cg := graphutil.NewCallGraph(p, func(f *ir.Function) bool { return !f.IsExternal() })
	stats := graph.Check(cg)
	t.Logf("Stats:\n\tsize: %d\n\tmulti: %d\n\tloops: %d\n\tisolated: %d",
		stats.Size, stats.Multi, stats.Loops, stats.Isolated)

	cycles := graphutil.FindAllElementaryCycles(cg)
	results := funcutil.Map(cycles, func(cycle []int64) string {
		return strings.Join(funcutil.Map(graphutil.CycleFunctions(cg, cycle),
			func(f *ir.Function) string { return f.Name }), "")
	})
	sort.Strings(results)
	expected := []string{"ab", "ac", "cd", "e"}
	if !slices.Equal(results, expected) {
		for i, s := range results {
			t.Logf("Cycle %d: %s", i, s)
		}
		t.Fatalf("Cycles not as expected")
	}
}

func TestReachableFrom(t *testing.T) {
	names := []string{"main", "a", "b", "orphan"}
	p := callProgram(names, map[string][]string{
		"main":   {"a"},
		"a":      {"b"},
		"orphan": {"a"},
	})
	cg := graphutil.NewCallGraph(p, func(f *ir.Function) bool { return !f.IsExternal() })
	got := funcutil.Map(cg.ReachableFrom(p.Func("main")), func(f *ir.Function) string { return f.Name })
	if !slices.Equal(got, []string{"main", "a", "b"}) {
		t.Errorf("unexpected reachable functions %v", got)
	}
}
