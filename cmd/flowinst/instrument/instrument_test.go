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
package instrument

import "testing"

func TestNewFlags(t *testing.T) {
	flags, err := NewFlags([]string{"-config", "config.yaml", "-out", "out.ir", "-scopes", "main.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.ConfigPath != "config.yaml" || flags.out != "out.ir" || !flags.scopes {
		t.Errorf("unexpected flags: %+v", flags)
	}
	if args := flags.FlagSet.Args(); len(args) != 1 || args[0] != "main.go" {
		t.Errorf("unexpected package arguments %v", args)
	}
}
