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

// Package instrument implements the tool printing the instrumented IR of a Go program.
package instrument

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-go-flowinst/analysis/instrument"
	"github.com/awslabs/ar-go-flowinst/cmd/flowinst/render"
	"github.com/awslabs/ar-go-flowinst/cmd/flowinst/tools"
	"github.com/awslabs/ar-go-flowinst/internal/formatutil"
)

// Usage of the instrument tool
const Usage = `Instrument a Go program with information-flow tracking and print the instrumented IR.
Usage:
  flowinst instrument [options] <package path(s)>
Examples:
  % flowinst instrument -config config.yaml main.go
  % flowinst instrument -scopes -out main.ir main.go
`

// Flags represents the parsed instrument sub-command flags.
type Flags struct {
	tools.CommonFlags
	out    string
	scopes bool
}

// NewFlags returns the parsed instrument sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("instrument")
	out := flags.FlagSet.String("out", "", "output file for the instrumented IR (standard output if not specified)")
	scopes := flags.FlagSet.Bool("scopes", false, "print the branch scope of every block of the entry function")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, out: *out, scopes: *scopes}, nil
}

// Run runs the instrument tool with flags.
func Run(flags Flags) error {
	prog, cfg, logger, err := tools.LoadIR(flags.CommonFlags)
	if err != nil {
		return err
	}
	res, err := instrument.Instrument(prog, logger, cfg)
	if err != nil {
		return fmt.Errorf("instrumentation failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "%s %d origins in %s\n", formatutil.Green("Instrumented:"), res.NumOrigins,
		res.Entry.Name)
	if flags.scopes {
		for _, b := range res.Visited(res.Entry) {
			if sc, ok := res.Scope(b); ok {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", formatutil.Bold(b.String()), sc)
			}
		}
	}
	return render.WriteIR(prog, flags.out)
}
