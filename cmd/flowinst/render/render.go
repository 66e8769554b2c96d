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

// Package render implements the tool printing the IR of a Go program, before instrumentation.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"github.com/awslabs/ar-go-flowinst/cmd/flowinst/tools"
	"github.com/awslabs/ar-go-flowinst/internal/formatutil"
)

// Usage of the render tool
const Usage = `Print the IR of the entry function of a Go program and of every function it calls.
Usage:
  flowinst render [options] <package path(s)>
Examples:
  % flowinst render -config config.yaml main.go
  % flowinst render -out main.ir main.go
`

// Flags represents the parsed render sub-command flags.
type Flags struct {
	tools.CommonFlags
	out string
}

// NewFlags returns the parsed render sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("render")
	out := flags.FlagSet.String("out", "", "output file for the IR (standard output if not specified)")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, out: *out}, nil
}

// Run runs the render tool with flags.
func Run(flags Flags) error {
	prog, _, _, err := tools.LoadIR(flags.CommonFlags)
	if err != nil {
		return err
	}
	return WriteIR(prog, flags.out)
}

// WriteIR writes prog to the file out, or to the standard output if out is empty
func WriteIR(prog *ir.Program, out string) error {
	var w io.Writer = os.Stdout
	if out != "" {
		fmt.Fprintf(os.Stderr, formatutil.Faint("Writing IR in "+out)+"\n")
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("could not create IR output file: %v", err)
		}
		defer f.Close()
		w = f
	}
	if err := ir.WriteProgram(w, prog); err != nil {
		return fmt.Errorf("could not write IR: %v", err)
	}
	return nil
}
