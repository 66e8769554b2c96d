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

package analysistest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/awslabs/ar-go-flowinst/analysis"
	"github.com/awslabs/ar-go-flowinst/analysis/config"
	"golang.org/x/tools/go/ssa"
	"gopkg.in/yaml.v3"
)

// LoadTest loads the program in the directory dir, looking for a main.go and a config.yaml. If additional files
// are specified as extraFiles, the program will be loaded using those files too.
func LoadTest(t *testing.T, dir string, extraFiles []string) (analysis.LoadedProgram, *config.Config) {
	t.Helper()
	configFile := filepath.Join(dir, "config.yaml")
	config.SetGlobalConfig(configFile)
	files := []string{filepath.Join(dir, "./main.go")}
	for _, extraFile := range extraFiles {
		files = append(files, filepath.Join(dir, extraFile))
	}

	program, err := analysis.LoadProgram(nil, "", ssa.BuilderMode(0), files)
	if err != nil {
		t.Fatalf("error loading packages: %v", err)
	}
	cfg, err := config.LoadGlobal()
	if err != nil {
		t.Fatalf("error loading global config: %v", err)
	}
	return program, cfg
}

// Run is one expected execution of an instrumented test program
type Run struct {
	// Args are the arguments of the entry function
	Args []int64 `yaml:"args"`
	// Inputs are consumed by the input primitives
	Inputs []int64 `yaml:"inputs"`
	// Result is the expected result of the entry function
	Result int64 `yaml:"result"`
	// Reports are the expected reports of the blocks of the entry function, in order
	Reports []string `yaml:"reports"`
}

// Expectations are the runs listed in the expected.yaml file of a test directory
type Expectations struct {
	Runs []Run `yaml:"runs"`
}

// LoadExpectations reads the expected.yaml file in dir
func LoadExpectations(t *testing.T, dir string) Expectations {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "expected.yaml"))
	if err != nil {
		t.Fatalf("could not read expectations: %v", err)
	}
	var e Expectations
	if err := yaml.Unmarshal(b, &e); err != nil {
		t.Fatalf("could not parse expectations: %v", err)
	}
	return e
}
