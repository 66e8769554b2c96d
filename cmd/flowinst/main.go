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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-go-flowinst/analysis"
	"github.com/awslabs/ar-go-flowinst/cmd/flowinst/instrument"
	"github.com/awslabs/ar-go-flowinst/cmd/flowinst/render"
	"github.com/awslabs/ar-go-flowinst/cmd/flowinst/run"
	"github.com/awslabs/ar-go-flowinst/cmd/flowinst/tools"
)

const usage = `flowinst: dynamic information-flow instrumentation of Go programs
Usage:
  flowinst [tool] [options] <Go file path(s)>
Tools:
  - render: prints the IR of the program before instrumentation
  - instrument: prints the IR of the program instrumented with taint labels
  - run: instruments the program, executes its entry function and prints the taint of every block
Examples:
  Print the instrumented program: flowinst instrument --config=config.yaml main.go
  Run the instrumented program: flowinst run --config=config.yaml -args 1,2 -inputs 3 main.go`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "render":
		flags, err := render.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := render.Run(flags); err != nil {
			errExit(err)
		}
	case "instrument":
		flags, err := instrument.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := instrument.Run(flags); err != nil {
			errExit(err)
		}
	case "run":
		flags, err := run.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := run.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
