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

package tools

import (
	"strings"
	"testing"
)

func validateHint(t *testing.T, errorMsg string, containedHint string) {
	hint := HintForErrorMessage(errorMsg)
	if !strings.Contains(hint, containedHint) {
		t.Fatalf("incorrect hint %q; check and update error message if necessary", hint)
	}
}

func TestHintForFlagAfterFiles(t *testing.T) {
	errorMsg := "error: could not load program:\n -: named files must be .go files: -v"
	containedHint := "all command line flags should be before the path"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForFailedLoadProgram(t *testing.T) {
	errorMsg := "error: could not load program:\n errors found, exiting\n"
	containedHint := "you have provided the right arguments to load a Go program"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForUnsupported(t *testing.T) {
	errorMsg := "error: could not lower program: main.go:4:2: unsupported construct in main.run: instruction *ssa.Slice"
	validateHint(t, errorMsg, "//flowinst:opaque")
}

func TestHintForMissingEntry(t *testing.T) {
	errorMsg := "error: could not lower program: no entry function main in the loaded packages"
	validateHint(t, errorMsg, "(currently main)")
}

func TestHintForLoop(t *testing.T) {
	errorMsg := "error: instrumentation failed: loops are not supported: run has a loop at b1"
	validateHint(t, errorMsg, "loop-policy")
}

func TestInt64List(t *testing.T) {
	var l Int64List
	if err := l.Set("1, -2,0x10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Set("3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.String() != "[1 -2 16 3]" {
		t.Errorf("unexpected list %s", l.String())
	}
	if err := l.Set("x"); err == nil {
		t.Errorf("expected an error for an invalid integer")
	}
}
