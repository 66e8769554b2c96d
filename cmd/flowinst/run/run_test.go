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
package run

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewFlags(t *testing.T) {
	flags, err := NewFlags([]string{"-args", "3,4", "-inputs", "10", "-stub-externals", "-verbose", "main.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int64{3, 4}, []int64(flags.args)); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{10}, []int64(flags.inputs)); diff != "" {
		t.Errorf("inputs (-want +got):\n%s", diff)
	}
	if !flags.stubExternals || !flags.Verbose {
		t.Errorf("expected -stub-externals and -verbose to be set")
	}
	if diff := cmp.Diff([]string{"main.go"}, flags.FlagSet.Args()); diff != "" {
		t.Errorf("package arguments (-want +got):\n%s", diff)
	}
}

func TestNewFlagsDefaults(t *testing.T) {
	flags, err := NewFlags([]string{"main.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flags.args) != 0 || len(flags.inputs) != 0 || flags.stubExternals || flags.ConfigPath != "" {
		t.Errorf("unexpected defaults: %+v", flags)
	}
}
