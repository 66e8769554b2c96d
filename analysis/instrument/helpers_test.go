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
	"bytes"
	"testing"

	"github.com/awslabs/ar-go-flowinst/analysis/config"
	"github.com/awslabs/ar-go-flowinst/analysis/interp"
	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"github.com/awslabs/ar-go-flowinst/analysis/labelstore"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func i64(v int64) *ir.Const { return ir.NewConst(v, ir.Int) }

// testConfig returns the default config with an extra result-style input primitive "input"
func testConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.InputPrimitives = append(cfg.InputPrimitives, config.InputPrimitive{Name: "input", Result: true})
	cfg.SilenceWarn = true
	cfg.LogLevel = int(config.WarnLevel)
	return cfg
}

// instrumentOrFail instruments prog and checks that the instrumented program is well-formed
func instrumentOrFail(t *testing.T, prog *ir.Program, cfg *config.Config) *Result {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(logs)
	res, err := Instrument(prog, logger, cfg)
	if err != nil {
		t.Fatalf("instrumentation failed: %v\nlogs:\n%s", err, logs)
	}
	if err := prog.Validate(); err != nil {
		t.Fatalf("instrumented program is malformed: %v\n%s", err, prog)
	}
	return res
}

// execution is one run of an instrumented program
type execution struct {
	t      *testing.T
	res    *Result
	it     *interp.Interpreter
	store  *labelstore.Bindings
	result int64
}

// execute runs the entry function of the instrumented program with args, feeding inputs to the input primitives.
// Externals without binding return 0.
func execute(t *testing.T, prog *ir.Program, res *Result, cfg *config.Config, inputs []int64,
	args ...int64) *execution {
	t.Helper()
	store := labelstore.NewBindings(nil)
	it := interp.New(prog, nil, 100000)
	it.BindPure(store.Functions())
	it.BindInputs(cfg, interp.NewInputQueue(inputs...))
	it.Fallback = func(*interp.Interpreter, []int64) (int64, error) { return 0, nil }
	r, err := it.Run(res.Entry, args...)
	if err != nil {
		t.Fatalf("execution of instrumented program failed: %v\n%s", err, prog)
	}
	return &execution{t: t, res: res, it: it, store: store, result: r}
}

// origins returns the origins of the label of v, a value of fn, at the end of the last activation of fn
func (e *execution) origins(fn *ir.Function, v ir.Value) []int {
	e.t.Helper()
	lv, ok := e.res.Label(v)
	if !ok {
		return nil
	}
	x, ok := e.it.Register(fn, lv)
	if !ok {
		e.t.Fatalf("label %s of %s was not computed", lv.Name(), v.Name())
	}
	o, err := e.store.Origins(x)
	if err != nil {
		e.t.Fatalf("label %d of %s: %v", x, v.Name(), err)
	}
	return o
}

// reported returns the origins reported for each block index
func (e *execution) reported() map[int][]int {
	res := map[int][]int{}
	for _, r := range e.store.Reports {
		res[r.Block] = r.Origins
	}
	return res
}

func expectOrigins(t *testing.T, what string, got []int, expected ...int) {
	t.Helper()
	if diff := cmp.Diff(expected, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("origins of %s (-expected +got):\n%s", what, diff)
	}
}

func countCalls(b *ir.BasicBlock, callee string) int {
	n := 0
	for _, instr := range b.Instrs {
		if c, ok := instr.(*ir.Call); ok && c.Callee.Name == callee {
			n++
		}
	}
	return n
}
