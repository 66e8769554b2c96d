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

// Package run implements the tool instrumenting a Go program and executing the instrumented program.
package run

import (
	"fmt"

	"github.com/awslabs/ar-go-flowinst/analysis/instrument"
	"github.com/awslabs/ar-go-flowinst/analysis/interp"
	"github.com/awslabs/ar-go-flowinst/analysis/labelstore"
	"github.com/awslabs/ar-go-flowinst/cmd/flowinst/tools"
	"github.com/awslabs/ar-go-flowinst/internal/formatutil"
)

// Usage of the run tool
const Usage = `Instrument a Go program and execute its entry function, printing the taint of every block.
Usage:
  flowinst run [options] <package path(s)>
Examples:
  % flowinst run -config config.yaml -args 3,4 -inputs 10 main.go
  % flowinst run -stub-externals -args 1 main.go
`

// Flags represents the parsed run sub-command flags.
type Flags struct {
	tools.CommonFlags
	args          tools.Int64List
	inputs        tools.Int64List
	stubExternals bool
}

// NewFlags returns the parsed run sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("run")
	res := Flags{}
	flags.FlagSet.Var(&res.args, "args", "comma-separated arguments of the entry function")
	flags.FlagSet.Var(&res.inputs, "inputs", "comma-separated values read by the input primitives")
	stub := flags.FlagSet.Bool("stub-externals", false, "external functions without implementation return 0")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	res.CommonFlags = common
	res.stubExternals = *stub
	return res, nil
}

// Run runs the run tool with flags.
func Run(flags Flags) error {
	prog, cfg, logger, err := tools.LoadIR(flags.CommonFlags)
	if err != nil {
		return err
	}
	res, err := instrument.Instrument(prog, logger, cfg)
	if err != nil {
		return fmt.Errorf("instrumentation failed: %w", err)
	}

	store := labelstore.NewBindings(nil)
	inputs := interp.NewInputQueue(flags.inputs...)
	it := interp.New(prog, logger, cfg.MaxSteps)
	it.BindPure(store.Functions())
	it.BindInputs(cfg, inputs)
	if flags.stubExternals {
		it.Fallback = func(*interp.Interpreter, []int64) (int64, error) { return 0, nil }
	}
	result, err := it.Run(res.Entry, flags.args...)
	if err != nil {
		return fmt.Errorf("execution of %s failed after %d steps: %w", res.Entry.Name, it.Steps(), err)
	}

	for _, r := range store.Reports {
		if len(r.Origins) > 0 {
			fmt.Println(formatutil.Red(r.String()))
		} else {
			fmt.Println(formatutil.Faint(r.String()))
		}
	}
	fmt.Printf("%s %d (%d steps)\n", formatutil.Bold("Result:"), result, it.Steps())
	if n := inputs.Remaining(); n > 0 {
		logger.Warnf("%d inputs were not read", n)
	}
	return nil
}
