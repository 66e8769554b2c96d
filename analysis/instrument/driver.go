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
	"strings"

	"github.com/awslabs/ar-go-flowinst/analysis/config"
	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"github.com/awslabs/ar-go-flowinst/internal/funcutil"
	"github.com/awslabs/ar-go-flowinst/internal/graphutil"
)

// state holds the information of one instrumentation run. It is populated during a single traversal of the program.
type state struct {
	// The logger used during the instrumentation
	Logger *config.LogGroup

	// The configuration of the instrumentation
	Config *config.Config

	prog  *ir.Program
	rt    runtime
	entry *ir.Function

	// labels maps the values of the original program to their labels
	labels map[ir.Value]*labelRef
	// slots maps address values to the cells holding the label of the memory they point to
	slots map[ir.Value]ir.Value
	// history maps address values to the scopes of the conditional writes to their memory
	history map[historyKey][]ScopeID

	scopes  []*BranchScope
	byBlock map[*ir.BasicBlock]ScopeID

	fnSlots map[*ir.Function]*FunctionSlots
	funcs   map[*ir.Function]*funcState

	numOrigins int

	// fs is the state of the function being instrumented
	fs *funcState
}

// funcState is the part of the state specific to one function
type funcState struct {
	fn    *ir.Function
	graph *graphutil.BlockGraph

	// original holds the instructions of each block before instrumentation
	original map[*ir.BasicBlock][]ir.Instruction
	// firstNonPhi holds the first original instruction of each block that is not a phi
	firstNonPhi map[*ir.BasicBlock]ir.Instruction

	// tree and table are the label store handles
	tree  ir.Value
	table ir.Value

	cur ScopeID
	// pinned holds the ancestors of the regions that are instrumented in place
	pinned map[ir.Instruction]bool

	visited []*ir.BasicBlock
	returns []*ir.Return
}

func newFuncState(f *ir.Function) *funcState {
	fs := &funcState{
		fn:          f,
		graph:       graphutil.NewBlockGraph(f),
		original:    make(map[*ir.BasicBlock][]ir.Instruction, len(f.Blocks)),
		firstNonPhi: make(map[*ir.BasicBlock]ir.Instruction, len(f.Blocks)),
		pinned:      map[ir.Instruction]bool{},
	}
	for _, b := range f.Blocks {
		fs.original[b] = append([]ir.Instruction(nil), b.Instrs...)
		fs.firstNonPhi[b] = b.Instrs[b.PhiEnd()]
	}
	return fs
}

// anchor returns the instruction before which code computed for instr runs. Code computed for a phi runs after
// all the phis of its block.
func (fs *funcState) anchor(instr ir.Instruction) ir.Instruction {
	if _, ok := instr.(*ir.Phi); ok {
		return fs.firstNonPhi[instr.Block()]
	}
	return instr
}

// Instrument adds to every function of prog the code that computes the taint labels of its values at runtime, and
// returns the static result of the instrumentation. The program is modified in place.
//
// The parameters of the entry function named in the config are the origins of the taint, together with the inputs
// read by calls to input primitives. Before each return of the entry function, the instrumented program reports the
// controlling label of every block of the entry function.
func Instrument(prog *ir.Program, logger *config.LogGroup, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	if err := prog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	entry := prog.Func(cfg.EntryFunction)
	if entry == nil || entry.IsExternal() {
		return nil, &PreconditionError{Function: cfg.EntryFunction, Block: -1,
			Reason: "the entry function is not defined in the program"}
	}
	var defined []*ir.Function
	for _, f := range prog.Functions {
		if !f.IsExternal() {
			defined = append(defined, f)
		}
	}
	rt, err := declareRuntime(prog)
	if err != nil {
		return nil, err
	}

	s := &state{
		Logger:  logger,
		Config:  cfg,
		prog:    prog,
		rt:      rt,
		entry:   entry,
		labels:  map[ir.Value]*labelRef{},
		slots:   map[ir.Value]ir.Value{},
		history: map[historyKey][]ScopeID{},
		byBlock: map[*ir.BasicBlock]ScopeID{},
		fnSlots: map[*ir.Function]*FunctionSlots{},
		funcs:   map[*ir.Function]*funcState{},
	}
	for _, f := range defined {
		if f != entry {
			s.fnSlots[f] = newFunctionSlots(prog, f)
		}
	}
	s.checkCalls(defined)

	// the entry function is instrumented first so that its parameters get the first origins
	order := append([]*ir.Function{entry}, funcutil.Filter(defined, func(f *ir.Function) bool { return f != entry })...)
	for _, f := range order {
		if err := s.instrumentFunction(f); err != nil {
			return nil, err
		}
	}
	s.emitReports()
	logger.Infof("Instrumented %d functions: %d origins, %d scopes", len(order), s.numOrigins, len(s.scopes))
	return s.result(), nil
}

// checkCalls warns about recursive functions and functions that are never called from the entry function
func (s *state) checkCalls(defined []*ir.Function) {
	isDefined := func(f *ir.Function) bool { return !f.IsExternal() }
	cg := graphutil.NewCallGraph(s.prog, isDefined)
	for _, cycle := range graphutil.FindAllElementaryCycles(cg) {
		names := funcutil.Map(graphutil.CycleFunctions(cg, cycle), func(f *ir.Function) string { return f.Name })
		s.Logger.Warnf("Recursive calls %s: labels of nested activations share the same slots",
			strings.Join(names, " -> "))
	}
	reachable := cg.ReachableFrom(s.entry)
	for _, f := range defined {
		if !funcutil.Contains(reachable, f) {
			s.Logger.Warnf("%s is not called from %s: its labels are never used", f.Name, s.entry.Name)
		}
	}
}

// instrumentFunction instruments the blocks of f in layout order
func (s *state) instrumentFunction(f *ir.Function) error {
	fs := newFuncState(f)
	s.funcs[f] = fs
	s.fs = fs
	if loops := fs.graph.Loops(); len(loops) > 0 {
		if s.Config.RejectLoops() {
			return fmt.Errorf("%w: %s has a loop at %s", ErrLoop, f.Name, loops[0][0])
		}
		s.Logger.Warnf("%s has %d loop(s): the labels of blocks in loops may be imprecise", f.Name, len(loops))
	}
	if f == s.entry {
		s.initEntry()
	} else {
		s.initCallee()
	}
	v := &visitor{s: s}
	for _, b := range f.Blocks {
		id, ok := s.byBlock[b]
		if !ok {
			if !fs.graph.Reachable(b) {
				s.Logger.Warnf("%s: skipping %s, unreachable from the entry block", f.Name, b)
				continue
			}
			return &PreconditionError{Function: f.Name, Block: b.Index,
				Reason: "the block is visited before any branch leading to it"}
		}
		fs.cur = id
		fs.visited = append(fs.visited, b)
		for _, instr := range fs.original[b] {
			s.Logger.Tracef("%s: visit %s in %s", f.Name, instr, s.scopes[id])
			ir.InstrSwitch(v, instr)
			if v.err != nil {
				return v.err
			}
		}
	}
	return nil
}

// initEntry emits the prologue of the entry function: the label store is created, the empty set is interned as the
// untainted label, and each parameter gets a fresh origin.
// The empty set must be interned before any origin: the runtime rejects any other order with
// labelstore.ErrUntaintedFirst.
func (s *state) initEntry() {
	f := s.fs.fn
	p := ir.Prologue(f)
	tree := p.Call(s.rt.treeNew)
	table := p.Call(s.rt.tableNew)
	p.Store(s.rt.root, tree)
	p.Store(s.rt.table, table)
	s.fs.tree, s.fs.table = tree, table
	s.internSet(p, 0, 0)
	s.attach(f.Blocks[0], untaintedRef, nil, f.Blocks[0].Terminator(), selfParent)
	for _, param := range f.Params {
		s.define(param, s.newOrigin(p))
	}
}
