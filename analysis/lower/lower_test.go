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

package lower_test

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/awslabs/ar-go-flowinst/analysis/config"
	"github.com/awslabs/ar-go-flowinst/analysis/instrument"
	"github.com/awslabs/ar-go-flowinst/analysis/interp"
	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"github.com/awslabs/ar-go-flowinst/analysis/labelstore"
	"github.com/awslabs/ar-go-flowinst/analysis/lower"
	"github.com/awslabs/ar-go-flowinst/internal/analysistest"
	"github.com/awslabs/ar-go-flowinst/internal/funcutil"
	"github.com/google/go-cmp/cmp"
)

func testDir(name string) string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "testdata", "src", name)
}

func lowerTest(t *testing.T, name string) (*ir.Program, *config.Config) {
	program, cfg := analysistest.LoadTest(t, testDir(name), []string{})
	prog, err := lower.Program(program, config.NewLogGroup(cfg), cfg)
	if err != nil {
		t.Fatalf("lowering failed: %v", err)
	}
	return prog, cfg
}

func TestLowerFunctions(t *testing.T) {
	prog, _ := lowerTest(t, "basic")
	if err := prog.Validate(); err != nil {
		t.Fatalf("lowered program is malformed: %v\n%s", err, prog)
	}
	for name, external := range map[string]bool{"run": false, "clamp": false, "input": true, "mix": true} {
		f := prog.Func(name)
		if f == nil {
			t.Errorf("%s was not lowered", name)
			continue
		}
		if f.IsExternal() != external {
			t.Errorf("%s: expected external=%v", name, external)
		}
	}
	if prog.Func("main") != nil {
		t.Errorf("main is not called from run and should not be lowered")
	}
	if g := prog.Global("total"); g == nil || g.Cells != 1 {
		t.Errorf("expected a global total of one cell, got %v", g)
	}
	run := prog.Func("run")
	if len(run.Params) != 2 || len(run.Blocks) != 3 {
		t.Fatalf("unexpected shape of run:\n%s", prog)
	}
	allocs := map[int]bool{}
	run.Instructions(func(instr ir.Instruction) {
		if a, ok := instr.(*ir.Alloc); ok {
			allocs[a.Cells] = true
		}
	})
	if !allocs[2] || !allocs[4] {
		t.Errorf("expected allocations of the struct (2 cells) and the array (4 cells):\n%s", prog)
	}
	phis := funcutil.Filter(run.Blocks[2].Instrs, func(i ir.Instruction) bool { _, ok := i.(*ir.Phi); return ok })
	if len(phis) != 1 {
		t.Errorf("expected one phi in the join block of run, got %d", len(phis))
	}
}

func TestLowerAndInstrument(t *testing.T) {
	dir := testDir("basic")
	expected := analysistest.LoadExpectations(t, dir)
	for _, run := range expected.Runs {
		prog, cfg := lowerTest(t, "basic")
		res, err := instrument.Instrument(prog, config.NewLogGroup(cfg), cfg)
		if err != nil {
			t.Fatalf("instrumentation failed: %v", err)
		}
		store := labelstore.NewBindings(nil)
		it := interp.New(prog, nil, cfg.MaxSteps)
		it.BindPure(store.Functions())
		it.BindInputs(cfg, interp.NewInputQueue(run.Inputs...))
		it.Bind("mix", interp.Pure(func(args []int64) (int64, error) { return args[0]*31 + args[1], nil }))
		result, err := it.Run(res.Entry, run.Args...)
		if err != nil {
			t.Fatalf("run %v failed: %v", run.Args, err)
		}
		if result != run.Result {
			t.Errorf("run %v: expected %d, got %d", run.Args, run.Result, result)
		}
		reports := funcutil.Map(store.Reports, labelstore.Report.String)
		if diff := cmp.Diff(run.Reports, reports); diff != "" {
			t.Errorf("run %v: reports (-expected +got):\n%s", run.Args, diff)
		}
	}
}

func TestUnsupported(t *testing.T) {
	program, cfg := analysistest.LoadTest(t, testDir("unsupported"), []string{})
	_, err := lower.Program(program, nil, cfg)
	var uerr *lower.UnsupportedError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected an unsupported construct error, got %v", err)
	}
	if uerr.Function != "command-line-arguments.run" || !uerr.Pos.IsValid() {
		t.Errorf("unexpected error location: %v", uerr)
	}
}

func TestMissingEntry(t *testing.T) {
	program, cfg := analysistest.LoadTest(t, testDir("basic"), []string{})
	cfg.EntryFunction = "doesNotExist"
	if _, err := lower.Program(program, nil, cfg); err == nil {
		t.Errorf("expected an error for a missing entry function")
	}
}
