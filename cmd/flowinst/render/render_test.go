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
package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-flowinst/analysis/ir"
)

func TestNewFlags(t *testing.T) {
	flags, err := NewFlags([]string{"-out", "prog.ir", "main.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.out != "prog.ir" || flags.Verbose {
		t.Errorf("unexpected flags: %+v", flags)
	}
}

func TestWriteIR(t *testing.T) {
	prog := ir.NewProgram()
	prog.DeclareExternal("input", ir.Int)
	out := filepath.Join(t.TempDir(), "prog.ir")
	if err := WriteIR(prog, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "extern func input(") {
		t.Errorf("expected the external declaration in the output, got:\n%s", b)
	}
}
