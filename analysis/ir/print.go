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

package ir

import (
	"fmt"
	"io"
	"strings"
)

// WriteProgram prints the globals then the functions of p, in declaration order
func WriteProgram(w io.Writer, p *Program) error {
	for _, g := range p.Globals {
		if _, err := fmt.Fprintf(w, "global %s [%d]\n", g.Name(), g.Cells); err != nil {
			return err
		}
	}
	for _, f := range p.Functions {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := WriteFunction(w, f); err != nil {
			return err
		}
	}
	return nil
}

// WriteFunction prints f. External functions are printed as declarations.
func WriteFunction(w io.Writer, f *Function) error {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Name() + " " + p.Type().String()
	}
	sig := fmt.Sprintf("%s(%s)", f.Name, strings.Join(params, ", "))
	if f.HasResult() {
		sig += " " + f.Result.String()
	}
	if f.IsExternal() {
		_, err := fmt.Fprintf(w, "extern func %s\n", sig)
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "func %s {\n", sig)
	for _, block := range f.Blocks {
		fmt.Fprintf(&b, "%s:", block)
		if block.Comment != "" {
			fmt.Fprintf(&b, " ; %s", block.Comment)
		}
		if len(block.Preds) > 0 {
			b.WriteString(" ; preds")
			for _, p := range block.Preds {
				b.WriteString(" " + p.String())
			}
		}
		b.WriteString("\n")
		for _, instr := range block.Instrs {
			fmt.Fprintf(&b, "\t%s\n", instr)
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func (p *Program) String() string {
	var b strings.Builder
	_ = WriteProgram(&b, p)
	return b.String()
}
