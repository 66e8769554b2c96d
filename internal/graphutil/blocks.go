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

package graphutil

import (
	"sort"

	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	yb "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// BlockGraph is the control-flow graph of a function. Node ids are block indices. It implements the yourbasic
// graph.Iterator interface, and wraps a gonum directed graph for dominators and reachability.
type BlockGraph struct {
	fn *ir.Function
	g  *simple.DirectedGraph
	// dom is the dominator tree rooted at the entry block
	dom       flow.DominatorTree
	selfLoops map[int]bool
}

// NewBlockGraph builds the control-flow graph of fn, which must have at least one block
func NewBlockGraph(fn *ir.Function) *BlockGraph {
	g := simple.NewDirectedGraph()
	for _, b := range fn.Blocks {
		g.AddNode(simple.Node(b.Index))
	}
	selfLoops := map[int]bool{}
	for _, b := range fn.Blocks {
		for _, s := range b.Succs {
			// gonum simple graphs have no self edges
			if s == b {
				selfLoops[b.Index] = true
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(b.Index), simple.Node(s.Index)))
		}
	}
	return &BlockGraph{
		fn:        fn,
		g:         g,
		dom:       flow.Dominators(simple.Node(0), g),
		selfLoops: selfLoops,
	}
}

// Order implements the yourbasic graph.Iterator interface
func (bg *BlockGraph) Order() int {
	return len(bg.fn.Blocks)
}

// Visit implements the yourbasic graph.Iterator interface
func (bg *BlockGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= len(bg.fn.Blocks) {
		return false
	}
	for _, s := range bg.fn.Blocks[v].Succs {
		if do(s.Index, 1) {
			return true
		}
	}
	return false
}

// Reachable returns true if b can be reached from the entry block
func (bg *BlockGraph) Reachable(b *ir.BasicBlock) bool {
	return b.Index == 0 || bg.dom.DominatorOf(int64(b.Index)) != nil
}

// Dominates returns true if every path from the entry block to b goes through a. A block dominates itself.
// Unreachable blocks are dominated by no block.
func (bg *BlockGraph) Dominates(a, b *ir.BasicBlock) bool {
	if !bg.Reachable(b) {
		return false
	}
	id := int64(b.Index)
	for {
		if id == int64(a.Index) {
			return true
		}
		d := bg.dom.DominatorOf(id)
		if d == nil {
			return false
		}
		id = d.ID()
	}
}

// Reaches returns true if there is a path from the block from to the block to. A block reaches itself.
func (bg *BlockGraph) Reaches(from, to *ir.BasicBlock) bool {
	return topo.PathExistsIn(bg.g, simple.Node(from.Index), simple.Node(to.Index))
}

// Loops returns the strongly connected components of the graph that contain a cycle, each sorted by block index
func (bg *BlockGraph) Loops() [][]*ir.BasicBlock {
	var loops [][]*ir.BasicBlock
	for _, component := range yb.StrongComponents(bg) {
		if len(component) < 2 && !bg.selfLoops[component[0]] {
			continue
		}
		sort.Ints(component)
		loop := make([]*ir.BasicBlock, len(component))
		for i, idx := range component {
			loop[i] = bg.fn.Blocks[idx]
		}
		loops = append(loops, loop)
	}
	sort.Slice(loops, func(i, j int) bool { return loops[i][0].Index < loops[j][0].Index })
	return loops
}
