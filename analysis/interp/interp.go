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

// Package interp executes programs in the ir representation. It is used to run instrumented programs against the
// Go implementation of the label store.
//
// All values are int64: booleans are 0 or 1, addresses are object<<32 | offset in cells. External functions are
// provided as bindings; calling an external function without binding is an error unless a fallback is set.
package interp

import (
	"errors"
	"fmt"

	"github.com/awslabs/ar-go-flowinst/analysis/config"
	"github.com/awslabs/ar-go-flowinst/analysis/ir"
)

var (
	// ErrMemory is returned for invalid memory accesses
	ErrMemory = errors.New("invalid memory access")
	// ErrUnknownExternal is returned when an external function without binding is called
	ErrUnknownExternal = errors.New("no binding for external function")
	// ErrStepLimit is returned when the program runs for more steps than allowed
	ErrStepLimit = errors.New("step limit exceeded")
)

// External is the implementation of an external function. It receives the interpreter to access memory.
type External func(it *Interpreter, args []int64) (int64, error)

// Pure turns a function that does not access memory into an External
func Pure(f func(args []int64) (int64, error)) External {
	return func(_ *Interpreter, args []int64) (int64, error) { return f(args) }
}

// Interpreter runs the functions of a program. The memory and globals persist across calls to Run.
type Interpreter struct {
	prog      *ir.Program
	logger    *config.LogGroup
	mem       *memory
	globals   map[*ir.Global]int64
	externals map[string]External
	maxSteps  int
	steps     int
	// last holds the registers of the last completed activation of each function
	last map[*ir.Function]map[ir.Value]int64

	// Fallback is called for external functions without binding, if it is not nil
	Fallback External
}

// New returns an interpreter for prog that executes at most maxSteps instructions (no limit if maxSteps <= 0)
func New(prog *ir.Program, logger *config.LogGroup, maxSteps int) *Interpreter {
	it := &Interpreter{
		prog:      prog,
		logger:    logger,
		mem:       newMemory(),
		globals:   map[*ir.Global]int64{},
		externals: map[string]External{},
		maxSteps:  maxSteps,
		last:      map[*ir.Function]map[ir.Value]int64{},
	}
	for _, g := range prog.Globals {
		it.globals[g] = it.mem.alloc(g.Cells)
	}
	return it
}

// Bind sets the implementation of the external function name
func (it *Interpreter) Bind(name string, f External) {
	it.externals[name] = f
}

// BindPure binds every function of fns that does not access memory
func (it *Interpreter) BindPure(fns map[string]func(args []int64) (int64, error)) {
	for name, f := range fns {
		it.Bind(name, Pure(f))
	}
}

// Load returns the content of the cell at addr
func (it *Interpreter) Load(addr int64) (int64, error) {
	return it.mem.load(addr)
}

// Store writes v in the cell at addr
func (it *Interpreter) Store(addr, v int64) error {
	return it.mem.store(addr, v)
}

// Alloc allocates an object of cells cells and returns its address
func (it *Interpreter) Alloc(cells int) int64 {
	return it.mem.alloc(cells)
}

// GlobalAddr returns the address of g
func (it *Interpreter) GlobalAddr(g *ir.Global) int64 {
	return it.globals[g]
}

// Steps returns the number of instructions executed so far
func (it *Interpreter) Steps() int {
	return it.steps
}

// Register returns the value v had at the end of the last completed activation of fn. The second result is false
// if fn never completed or v was not computed by it.
func (it *Interpreter) Register(fn *ir.Function, v ir.Value) (int64, bool) {
	if c, ok := v.(*ir.Const); ok {
		return c.Int, true
	}
	regs, ok := it.last[fn]
	if !ok {
		return 0, false
	}
	x, ok := regs[v]
	return x, ok
}

// Run calls fn with args and returns its result (0 for functions without result)
func (it *Interpreter) Run(fn *ir.Function, args ...int64) (int64, error) {
	return it.call(fn, args)
}

func (it *Interpreter) call(fn *ir.Function, args []int64) (int64, error) {
	if len(args) != len(fn.Params) {
		return 0, fmt.Errorf("%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	if fn.IsExternal() {
		ext, ok := it.externals[fn.Name]
		if !ok {
			if it.Fallback == nil {
				return 0, fmt.Errorf("%w %s", ErrUnknownExternal, fn.Name)
			}
			ext = it.Fallback
		}
		r, err := ext(it, args)
		if err != nil {
			return 0, fmt.Errorf("in %s: %w", fn.Name, err)
		}
		return r, nil
	}
	fr := &frame{fn: fn, args: args, regs: map[ir.Value]int64{}}
	r, err := it.exec(fr)
	if err != nil {
		return 0, err
	}
	it.last[fn] = fr.regs
	return r, nil
}

type frame struct {
	fn   *ir.Function
	args []int64
	regs map[ir.Value]int64
}

func (it *Interpreter) value(fr *frame, v ir.Value) (int64, error) {
	switch v := v.(type) {
	case *ir.Const:
		return v.Int, nil
	case *ir.Parameter:
		if v.Parent() != fr.fn {
			return 0, fmt.Errorf("parameter %s of %s used in %s", v.Name(), v.Parent().Name, fr.fn.Name)
		}
		return fr.args[v.Index], nil
	case *ir.Global:
		return it.globals[v], nil
	}
	x, ok := fr.regs[v]
	if !ok {
		return 0, fmt.Errorf("in %s: use of %s before its definition", fr.fn.Name, v.Name())
	}
	return x, nil
}

func (it *Interpreter) values(fr *frame, vs []ir.Value) ([]int64, error) {
	res := make([]int64, len(vs))
	for i, v := range vs {
		x, err := it.value(fr, v)
		if err != nil {
			return nil, err
		}
		res[i] = x
	}
	return res, nil
}

// exec runs the blocks of the function of fr, starting at the entry block
//
//gocyclo:ignore
func (it *Interpreter) exec(fr *frame) (int64, error) {
	var prev *ir.BasicBlock
	block := fr.fn.Blocks[0]
	for {
		if it.logger != nil {
			it.logger.Tracef("%s: enter %s", fr.fn.Name, block)
		}
		// phis read their operands simultaneously
		start := block.PhiEnd()
		if start > 0 {
			edge := -1
			if prev != nil {
				edge = block.PredIndex(prev)
			}
			if edge < 0 {
				return 0, fmt.Errorf("in %s: phi in %s reached without predecessor", fr.fn.Name, block)
			}
			vals := make([]int64, start)
			for i, instr := range block.Instrs[:start] {
				x, err := it.value(fr, instr.(*ir.Phi).Edges[edge])
				if err != nil {
					return 0, err
				}
				vals[i] = x
			}
			for i, instr := range block.Instrs[:start] {
				fr.regs[instr.(*ir.Phi)] = vals[i]
			}
		}
		var next *ir.BasicBlock
		for _, instr := range block.Instrs[start:] {
			it.steps++
			if it.maxSteps > 0 && it.steps > it.maxSteps {
				return 0, fmt.Errorf("%w (%d)", ErrStepLimit, it.maxSteps)
			}
			switch instr := instr.(type) {
			case *ir.BinOp:
				x, err := it.value(fr, instr.X)
				if err != nil {
					return 0, err
				}
				y, err := it.value(fr, instr.Y)
				if err != nil {
					return 0, err
				}
				r, err := binop(instr.Op, x, y)
				if err != nil {
					return 0, fmt.Errorf("in %s: %q: %w", fr.fn.Name, instr, err)
				}
				fr.regs[instr] = r
			case *ir.Alloc:
				fr.regs[instr] = it.mem.alloc(instr.Cells)
			case *ir.Load:
				addr, err := it.value(fr, instr.Addr)
				if err != nil {
					return 0, err
				}
				x, err := it.mem.load(addr)
				if err != nil {
					return 0, fmt.Errorf("in %s: %q: %w", fr.fn.Name, instr, err)
				}
				fr.regs[instr] = x
			case *ir.Store:
				addr, err := it.value(fr, instr.Addr)
				if err != nil {
					return 0, err
				}
				x, err := it.value(fr, instr.Val)
				if err != nil {
					return 0, err
				}
				if err := it.mem.store(addr, x); err != nil {
					return 0, fmt.Errorf("in %s: %q: %w", fr.fn.Name, instr, err)
				}
			case *ir.AddressCompute:
				addr, err := it.value(fr, instr.Base)
				if err != nil {
					return 0, err
				}
				addr += instr.Offset
				for i, idx := range instr.Indices {
					x, err := it.value(fr, idx)
					if err != nil {
						return 0, err
					}
					addr += x * instr.Scales[i]
				}
				fr.regs[instr] = addr
			case *ir.Call:
				args, err := it.values(fr, instr.Args)
				if err != nil {
					return 0, err
				}
				r, err := it.call(instr.Callee, args)
				if err != nil {
					return 0, err
				}
				if ir.ValueOf(instr) != nil {
					fr.regs[instr] = r
				}
			case *ir.If:
				c, err := it.value(fr, instr.Cond)
				if err != nil {
					return 0, err
				}
				if c != 0 {
					next = block.Succs[0]
				} else {
					next = block.Succs[1]
				}
			case *ir.Jump:
				next = block.Succs[0]
			case *ir.Return:
				if instr.Result == nil {
					return 0, nil
				}
				return it.value(fr, instr.Result)
			case *ir.Phi:
				return 0, fmt.Errorf("in %s: phi %q after the start of %s", fr.fn.Name, instr, block)
			}
		}
		if next == nil {
			return 0, fmt.Errorf("in %s: %s has no terminator", fr.fn.Name, block)
		}
		prev, block = block, next
	}
}

func binop(op ir.Op, x, y int64) (int64, error) {
	b2i := func(b bool) int64 {
		if b {
			return 1
		}
		return 0
	}
	switch op {
	case ir.Add:
		return x + y, nil
	case ir.Sub:
		return x - y, nil
	case ir.Mul:
		return x * y, nil
	case ir.Div, ir.Rem:
		if y == 0 {
			return 0, fmt.Errorf("integer division by zero")
		}
		if op == ir.Div {
			return x / y, nil
		}
		return x % y, nil
	case ir.And:
		return x & y, nil
	case ir.Or:
		return x | y, nil
	case ir.Xor:
		return x ^ y, nil
	case ir.AndNot:
		return x &^ y, nil
	case ir.Shl, ir.Shr:
		if y < 0 {
			return 0, fmt.Errorf("negative shift amount %d", y)
		}
		if op == ir.Shl {
			return x << uint64(y), nil
		}
		return x >> uint64(y), nil
	case ir.Eql:
		return b2i(x == y), nil
	case ir.Neq:
		return b2i(x != y), nil
	case ir.Lss:
		return b2i(x < y), nil
	case ir.Leq:
		return b2i(x <= y), nil
	case ir.Gtr:
		return b2i(x > y), nil
	case ir.Geq:
		return b2i(x >= y), nil
	}
	return 0, fmt.Errorf("unknown operator %s", op)
}
