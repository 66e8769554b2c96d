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

// Package lower translates Go programs in SSA form into the IR of the instrumentation.
//
// The front end supports the integer, boolean and pointer fragment of Go: local and heap allocations of scalars,
// arrays and structs, arithmetic, comparisons, static calls and global variables. Functions of the loaded packages
// are lowered starting from the entry function; functions of other packages, bodiless functions and functions
// marked with the //flowinst:opaque directive are declared as external functions.
package lower

import (
	"fmt"
	"go/token"

	"github.com/awslabs/ar-go-flowinst/analysis"
	"github.com/awslabs/ar-go-flowinst/analysis/config"
	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"github.com/awslabs/ar-go-flowinst/internal/funcutil"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"
)

// UnsupportedError is returned when a function uses a construct the IR cannot represent
type UnsupportedError struct {
	Function  string
	Pos       token.Position
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported construct in %s: %s", e.Pos, e.Function, e.Construct)
}

type lowerer struct {
	logger     *config.LogGroup
	cfg        *config.Config
	fset       *token.FileSet
	directives analysis.Directives
	initial    map[*ssa.Package]bool

	prog    *ir.Program
	funcs   map[*ssa.Function]*ir.Function
	globals map[*ssa.Global]*ir.Global
	queue   []*ssa.Function
}

// Program lowers the entry function named in the config, and every function it calls transitively, of the packages
// in loaded.
func Program(loaded analysis.LoadedProgram, logger *config.LogGroup, cfg *config.Config) (*ir.Program, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	l := &lowerer{
		logger:     logger,
		cfg:        cfg,
		fset:       loaded.Program.Fset,
		directives: loaded.Directives,
		initial:    map[*ssa.Package]bool{},
		prog:       ir.NewProgram(),
		funcs:      map[*ssa.Function]*ir.Function{},
		globals:    map[*ssa.Global]*ir.Global{},
	}
	var entry *ssa.Function
	for _, pkg := range loaded.Packages {
		l.initial[pkg] = true
		if f := pkg.Func(cfg.EntryFunction); f != nil {
			if entry != nil {
				return nil, fmt.Errorf("entry function %s is defined in %s and %s", cfg.EntryFunction,
					entry.Pkg.Pkg.Path(), pkg.Pkg.Path())
			}
			entry = f
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("no entry function %s in the loaded packages", cfg.EntryFunction)
	}
	if !l.isDefined(entry) {
		return nil, fmt.Errorf("entry function %s has no body to instrument", entry)
	}
	if _, err := l.function(entry); err != nil {
		return nil, err
	}
	for len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue = l.queue[1:]
		if err := l.lowerBody(fn); err != nil {
			return nil, err
		}
	}
	l.logger.Infof("Lowered %d functions (%d external), %d globals", len(l.funcs),
		len(funcutil.Filter(l.prog.Functions, (*ir.Function).IsExternal)), len(l.prog.Globals))
	return l.prog, nil
}

// isDefined returns true if the body of fn is lowered
func (l *lowerer) isDefined(fn *ssa.Function) bool {
	return fn.Pkg != nil &&
		l.initial[fn.Pkg] &&
		len(fn.Blocks) > 0 &&
		fn.Synthetic == "" &&
		l.cfg.MatchPkgFilter(fn.Pkg.Pkg.Path()) &&
		!l.directives.Lookup(l.fset.Position(fn.Pos()), analysis.DirectiveOpaque)
}

// name returns the IR name of fn: functions of the loaded packages are named relative to their package
func (l *lowerer) name(fn *ssa.Function) string {
	if fn.Pkg != nil && l.initial[fn.Pkg] {
		return fn.RelString(fn.Pkg.Pkg)
	}
	return fn.String()
}

func (l *lowerer) unsupported(fn *ssa.Function, pos token.Pos, format string, args ...any) error {
	if pos == token.NoPos {
		pos = fn.Pos()
	}
	return &UnsupportedError{Function: fn.String(), Pos: l.fset.Position(pos), Construct: fmt.Sprintf(format, args...)}
}

// function returns the IR function of fn, declaring it on first use. The bodies of defined functions are lowered
// later.
func (l *lowerer) function(fn *ssa.Function) (*ir.Function, error) {
	if f, ok := l.funcs[fn]; ok {
		return f, nil
	}
	result, params, err := signature(fn.Signature)
	if err != nil {
		return nil, l.unsupported(fn, fn.Pos(), "signature: %v", err)
	}
	name := l.name(fn)
	var f *ir.Function
	if l.isDefined(fn) {
		if l.prog.Func(name) != nil {
			return nil, fmt.Errorf("two functions are named %s", name)
		}
		f = l.prog.NewFunction(name, result)
		for i, p := range fn.Params {
			f.AddParam(p.Name(), params[i])
		}
		l.queue = append(l.queue, fn)
		l.logger.Debugf("Declared %s", name)
	} else {
		f = l.prog.DeclareExternal(name, result, params...)
		l.logger.Debugf("Declared external %s", name)
	}
	l.funcs[fn] = f
	return f, nil
}

func (l *lowerer) global(g *ssa.Global) (*ir.Global, error) {
	if lg, ok := l.globals[g]; ok {
		return lg, nil
	}
	n, err := cells(pointee(g.Type()))
	if err != nil {
		return nil, err
	}
	name := g.String()
	if l.initial[g.Pkg] {
		name = g.Name()
	}
	lg := l.prog.NewGlobal(name, int(max64(n, 1)))
	l.globals[g] = lg
	return lg, nil
}

// layout returns the blocks of fn reachable from the entry block in reverse postorder. Successors are visited in
// reverse order so that the first successor of a branch comes first in the layout.
func layout(fn *ssa.Function) []*ssa.BasicBlock {
	seen := make([]bool, len(fn.Blocks))
	var post []*ssa.BasicBlock
	var visit func(b *ssa.BasicBlock)
	visit = func(b *ssa.BasicBlock) {
		seen[b.Index] = true
		for i := len(b.Succs) - 1; i >= 0; i-- {
			if s := b.Succs[i]; !seen[s.Index] {
				visit(s)
			}
		}
		post = append(post, b)
	}
	visit(fn.Blocks[0])
	funcutil.Reverse(post)
	return post
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// funcLowerer lowers the body of one function
type funcLowerer struct {
	l      *lowerer
	fn     *ssa.Function
	f      *ir.Function
	values map[ssa.Value]ir.Value
	blocks map[*ssa.BasicBlock]*ir.BasicBlock
	source map[*ir.BasicBlock]*ssa.BasicBlock
	phis   map[*ssa.Phi]*ir.Phi
}

func (l *lowerer) lowerBody(fn *ssa.Function) error {
	if len(fn.FreeVars) > 0 {
		return l.unsupported(fn, fn.Pos(), "closure with %d free variables", len(fn.FreeVars))
	}
	fl := &funcLowerer{
		l:      l,
		fn:     fn,
		f:      l.funcs[fn],
		values: map[ssa.Value]ir.Value{},
		blocks: map[*ssa.BasicBlock]*ir.BasicBlock{},
		source: map[*ir.BasicBlock]*ssa.BasicBlock{},
		phis:   map[*ssa.Phi]*ir.Phi{},
	}
	for i, p := range fn.Params {
		fl.values[p] = fl.f.Params[i]
	}
	for _, b := range layout(fn) {
		lb := fl.f.NewBlock(b.Comment)
		fl.blocks[b] = lb
		fl.source[lb] = b
	}
	// definitions dominate their uses, except for phi edges, which are filled once every block is lowered
	for _, b := range fn.DomPreorder() {
		lb, ok := fl.blocks[b]
		if !ok {
			continue
		}
		builder := ir.NewBuilder(lb)
		for _, instr := range b.Instrs {
			if err := fl.instr(builder, instr); err != nil {
				return err
			}
		}
	}
	for phi, lphi := range fl.phis {
		if err := fl.fillPhi(phi, lphi); err != nil {
			return err
		}
	}
	l.logger.Debugf("Lowered %s: %d blocks", fl.f.Name, len(fl.f.Blocks))
	return nil
}

func (fl *funcLowerer) fillPhi(phi *ssa.Phi, lphi *ir.Phi) error {
	lb := lphi.Block()
	lphi.Edges = make([]ir.Value, len(lb.Preds))
	for i, pred := range lb.Preds {
		j := slices.Index(phi.Block().Preds, fl.source[pred])
		if j < 0 {
			return fmt.Errorf("%s: no edge of %s for %s", fl.fn, phi.Name(), pred)
		}
		v, err := fl.value(phi, phi.Edges[j])
		if err != nil {
			return err
		}
		lphi.Edges[i] = v
	}
	return nil
}

// value returns the IR value of v, used by instr
func (fl *funcLowerer) value(instr ssa.Instruction, v ssa.Value) (ir.Value, error) {
	if lv, ok := fl.values[v]; ok {
		return lv, nil
	}
	switch v := v.(type) {
	case *ssa.Const:
		c, err := constValue(v)
		if err != nil {
			return nil, fl.l.unsupported(fl.fn, instr.Pos(), "%v", err)
		}
		return c, nil
	case *ssa.Global:
		g, err := fl.l.global(v)
		if err != nil {
			return nil, fl.l.unsupported(fl.fn, instr.Pos(), "global %s: %v", v.Name(), err)
		}
		return g, nil
	case *ssa.Function:
		return nil, fl.l.unsupported(fl.fn, instr.Pos(), "function value %s", v.Name())
	}
	return nil, fl.l.unsupported(fl.fn, instr.Pos(), "operand %s of %s", v.Name(), instr)
}

func (fl *funcLowerer) operands(instr ssa.Instruction, vs ...ssa.Value) ([]ir.Value, error) {
	res := make([]ir.Value, len(vs))
	for i, v := range vs {
		lv, err := fl.value(instr, v)
		if err != nil {
			return nil, err
		}
		res[i] = lv
	}
	return res, nil
}

func (fl *funcLowerer) typeOf(instr ssa.Instruction, v ssa.Value) (ir.Type, error) {
	t, err := irType(v.Type())
	if err != nil {
		return ir.Void, fl.l.unsupported(fl.fn, instr.Pos(), "%v", err)
	}
	return t, nil
}
