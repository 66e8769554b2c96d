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
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/topo"
)

// CallGraph is the static call graph of a program, restricted to some of its functions, that works with existing
// graph libraries. It implements the methods to satisfy the yourbasic graph.Iterator and Gonum's graph.Graph.
// Node ids are the positions of the functions in the program.
type CallGraph struct {
	// The order of the graph
	order int

	// The program the CallGraph was constructed from
	Program *ir.Program

	// IDMap maps from node IDs to CNodes
	IDMap map[int64]CNode

	// Keys are all the node IDs, sorted
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means IDMap[x] calls IDMap[y]
	Edges map[int64]map[int64]bool
}

// NewCallGraph returns the call graph between the functions of p for which include returns true
func NewCallGraph(p *ir.Program, include func(f *ir.Function) bool) CallGraph {
	idmap := map[int64]CNode{}
	ids := map[*ir.Function]int64{}
	var keys []int64
	for i, f := range p.Functions {
		if include(f) {
			idmap[int64(i)] = CNode{Func: f, id: int64(i)}
			ids[f] = int64(i)
			keys = append(keys, int64(i))
		}
	}
	edges := make(map[int64]map[int64]bool, len(keys))
	for _, id := range keys {
		edges[id] = map[int64]bool{}
		idmap[id].Func.Instructions(func(instr ir.Instruction) {
			if call, ok := instr.(*ir.Call); ok {
				if callee, ok := ids[call.Callee]; ok {
					edges[id][callee] = true
				}
			}
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return CallGraph{
		order:   len(p.Functions),
		Program: p,
		IDMap:   idmap,
		Edges:   edges,
		Keys:    keys,
	}
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order and Program are the same as in origin, meaning that node indices will stay consistent
// across subgraphs.
func Subgraph(original CallGraph, include []int64) CallGraph {
	idmap := make(map[int64]CNode, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		idmap[i] = original.IDMap[i]
	}

	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if _, ok := idmap[e]; ok {
				edges[i][e] = true
			}
		}
	}

	return CallGraph{
		order:   original.Order(),
		Program: original.Program,
		IDMap:   idmap,
		Edges:   edges,
		Keys:    keys,
	}
}

// FunctionOf returns the function of node id
func (c CallGraph) FunctionOf(id int64) *ir.Function {
	return c.IDMap[id].Func
}

// IDOf returns the node id of f, and false if f is not in the graph
func (c CallGraph) IDOf(f *ir.Function) (int64, bool) {
	for id, n := range c.IDMap {
		if n.Func == f {
			return id, true
		}
	}
	return -1, false
}

// ReachableFrom returns the functions of the graph that can be reached from root through calls, root included, in
// program order.
func (c CallGraph) ReachableFrom(root *ir.Function) []*ir.Function {
	rid, ok := c.IDOf(root)
	if !ok {
		return nil
	}
	var res []*ir.Function
	for _, id := range c.Keys {
		if topo.PathExistsIn(c, c.IDMap[rid], c.IDMap[id]) {
			res = append(res, c.IDMap[id].Func)
		}
	}
	return res
}

// Order implements the order of the graph.Iterator interface for the CallGraph
func (c CallGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for the CallGraph
func (c CallGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.IDMap[int64(v)]; !ok {
		return false
	}
	for _, w := range c.successors(int64(v)) {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// successors returns the callees of v, sorted by id
func (c CallGraph) successors(v int64) []int64 {
	var res []int64
	for w := range c.Edges[v] {
		res = append(res, w)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (c CallGraph) Node(id int64) graph.Node {
	n, ok := c.IDMap[id]
	if !ok {
		return nil
	}
	return n
}

// Nodes returns the set of nodes in the graph
func (c CallGraph) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(c.Keys))
	for i, k := range c.Keys {
		nodes[i] = c.IDMap[k]
	}
	return iterator.NewOrderedNodes(nodes)
}

// From returns the set of nodes called by id
func (c CallGraph) From(id int64) graph.Nodes {
	var nodes []graph.Node
	for _, out := range c.successors(id) {
		nodes = append(nodes, c.IDMap[out])
	}
	return iterator.NewOrderedNodes(nodes)
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (c CallGraph) HasEdgeBetween(xid, yid int64) bool {
	xe := c.Edges[xid]
	ye := c.Edges[yid]
	return xe[yid] || ye[xid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (c CallGraph) Edge(uid, vid int64) graph.Edge {
	ue := c.Edges[uid]
	if ue != nil {
		if ue[vid] {
			return CEdge{from: c.IDMap[uid], to: c.IDMap[vid]}
		}
	}
	return nil
}

// *************** Nodes implementation **********************

// CNode is a wrapper around a *ir.Function that implements the graph.Node interface
type CNode struct {
	Func *ir.Function
	id   int64
}

// ID returns the id of the node
func (n CNode) ID() int64 {
	return n.id
}

func (n CNode) String() string {
	if n.Func == nil {
		return ""
	}
	return n.Func.Name
}

// *************** Edge implementation **********************

// CEdge implements the graph.Edge interface
type CEdge struct {
	from CNode
	to   CNode
}

// From returns the origin of the edge
func (e CEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e CEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e CEdge) ReversedEdge() graph.Edge {
	return CEdge{from: e.to, to: e.from}
}
