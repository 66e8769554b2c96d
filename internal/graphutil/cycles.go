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
	"github.com/yourbasic/graph"
)

// FindAllElementaryCycles finds all elementary cycles in the call graph. A function calling itself is a cycle
// of length one. Each cycle starts and ends with the same node.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
//
//	cg : the graph with cycles
func FindAllElementaryCycles(cg CallGraph) [][]int64 {
	s := &state{
		blocked: map[int64]bool{},
		blist:   map[int64]map[int64]bool{},
		stack:   []int64{},
		cycles:  [][]int64{},
	}
	for _, id := range cg.Keys {
		if cg.Edges[id][id] {
			s.cycles = append(s.cycles, []int64{id, id})
		}
	}
	nodeid := 0
	for nodeid < len(cg.Keys) {
		fg := Subgraph(cg, cg.Keys[nodeid:])
		// the circuits through the least node of the non-trivial components of fg are searched next
		least := int64(-1)
		for _, component := range graph.StrongComponents(fg) {
			if len(component) < 2 {
				continue
			}
			sort.Ints(component)
			if least < 0 || int64(component[0]) < least {
				least = int64(component[0])
			}
		}
		if least < 0 {
			return s.cycles
		}
		s.stack = []int64{}
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.circuit(least, least, fg)
		nodeid = keyIndex(cg.Keys, least) + 1
	}
	return s.cycles
}

// keyIndex returns the position of id in the sorted keys
func keyIndex(keys []int64, id int64) int {
	return sort.Search(len(keys), func(i int) bool { return keys[i] >= id })
}

// CycleFunctions returns the functions of a cycle found by FindAllElementaryCycles, without the repeated last node
func CycleFunctions(cg CallGraph, cycle []int64) []*ir.Function {
	var res []*ir.Function
	for _, id := range cycle[:len(cycle)-1] {
		res = append(res, cg.FunctionOf(id))
	}
	return res
}

type state struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *state) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int64, i int64, g CallGraph) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range g.successors(v) {
		if w == v {
			continue
		}
		if w == i {
			stackCopy := make([]int64, len(s.stack))
			copy(stackCopy, s.stack)
			stackCopy = append(stackCopy, w)
			s.cycles = append(s.cycles, stackCopy)
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i, g) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for w := range g.Edges[v] {
			m := s.blist[w]
			if m != nil {
				s.blist[w][v] = true
			} else {
				s.blist[w] = map[int64]bool{v: true}
			}
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}
