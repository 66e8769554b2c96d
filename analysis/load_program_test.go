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

package analysis

import (
	"go/ast"
	"path/filepath"
	"testing"

	"golang.org/x/tools/go/ssa"
)

func TestLoadProgramDirectives(t *testing.T) {
	file := filepath.Join("lower", "testdata", "src", "basic", "main.go")
	program, err := LoadProgram(nil, "", ssa.BuilderMode(0), []string{file})
	if err != nil {
		t.Fatalf("error loading packages: %s", err)
	}
	if len(program.Packages) != 1 {
		t.Fatalf("expected one package, got %d", len(program.Packages))
	}
	pkg := program.Packages[0]
	for name, opaque := range map[string]bool{"mix": true, "clamp": false, "run": false} {
		fn := pkg.Func(name)
		if fn == nil {
			t.Fatalf("function %s not found", name)
		}
		pos := program.Program.Fset.Position(fn.Pos())
		if got := program.Directives.Lookup(pos, DirectiveOpaque); got != opaque {
			t.Errorf("%s: expected opaque=%v, got %v", name, opaque, got)
		}
	}
	if len(program.Directives) != 1 {
		t.Errorf("expected one directive, got %v", program.Directives)
	}
}

func TestNewDirective(t *testing.T) {
	for text, valid := range map[string]bool{
		"//flowinst:opaque":  true,
		"// flowinst:opaque": true,
		"//flowinst:skip":    false,
		"// opaque":          false,
	} {
		if _, ok := NewDirective(&ast.Comment{Text: text}); ok != valid {
			t.Errorf("%q: expected valid=%v", text, valid)
		}
	}
}
