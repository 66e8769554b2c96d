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

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the entry function, the input primitives and the options of the instrumentation.
// If some field is not defined in the config file, it will keep the value set by NewDefault.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// InputPrimitives lists the functions whose calls introduce fresh input origins
	InputPrimitives []InputPrimitive `yaml:"input-primitives"`

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp
}

// InputPrimitive identifies a function that reads program input.
//
// When Result is false, every argument from index FirstOutput onwards is an output pointer that receives a fresh
// input. When Result is true, the value returned by the call is the fresh input.
type InputPrimitive struct {
	// Name is the name of the function, as it appears in the IR
	Name string `yaml:"name"`

	// FirstOutput is the index of the first output pointer argument
	FirstOutput int `yaml:"first-output"`

	// Result marks primitives that return the input instead of writing it through pointers
	Result bool `yaml:"result"`
}

// Loop policies
const (
	// LoopWarn instruments functions containing loops and logs a warning
	LoopWarn = "warn"
	// LoopReject fails the instrumentation when a function contains a loop
	LoopReject = "reject"
)

type Options struct {
	// EntryFunction is the name of the function whose parameters are the program inputs. The reports are emitted
	// at each of its returns.
	EntryFunction string `yaml:"entry-function"`

	// LoopPolicy is either "warn" or "reject"
	LoopPolicy string `yaml:"loop-policy"`

	// PkgFilter is a filter for the front end: only the functions whose package match the filter are lowered with
	// their bodies, the other ones are external declarations
	PkgFilter string `yaml:"pkg-filter"`

	// MaxSteps bounds the number of instructions the interpreter executes. If MaxSteps <= 0, the default is used.
	MaxSteps int `yaml:"max-steps"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config: the entry function is main, and scanf-like functions are input primitives
// writing to their arguments after the format.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		InputPrimitives: []InputPrimitive{
			{Name: "scanf", FirstOutput: 1},
			{Name: "__isoc99_scanf", FirstOutput: 1},
		},
		Options: Options{
			EntryFunction: DefaultEntryFunction,
			LoopPolicy:    LoopWarn,
			PkgFilter:     "",
			MaxSteps:      DefaultMaxSteps,
			LogLevel:      int(InfoLevel),
			SilenceWarn:   false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(filename, b)
}

// Parse reads a configuration from the contents b of the file filename
func Parse(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename
	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return cfg, nil
}

// setDefaults fills in the fields that have been zeroed by the config file and checks the values of the others.
func (c *Config) setDefaults() error {
	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if c.LogLevel == 0 {
		c.LogLevel = int(InfoLevel)
	}

	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}

	if c.EntryFunction == "" {
		c.EntryFunction = DefaultEntryFunction
	}

	switch c.LoopPolicy {
	case "":
		c.LoopPolicy = LoopWarn
	case LoopWarn, LoopReject:
	default:
		return fmt.Errorf("unknown loop-policy %q (expected %q or %q)", c.LoopPolicy, LoopWarn, LoopReject)
	}

	seen := map[string]bool{}
	for _, p := range c.InputPrimitives {
		if p.Name == "" {
			return fmt.Errorf("input primitive without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("input primitive %q declared twice", p.Name)
		}
		seen[p.Name] = true
		if !p.Result && p.FirstOutput < 0 {
			return fmt.Errorf("input primitive %q has a negative first-output", p.Name)
		}
	}

	if c.PkgFilter != "" {
		r, err := regexp.Compile(c.PkgFilter)
		if err == nil {
			c.pkgFilterRegex = r
		}
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}

// InputPrimitive returns the input primitive named name, if there is one.
func (c Config) InputPrimitive(name string) (InputPrimitive, bool) {
	for _, p := range c.InputPrimitives {
		if p.Name == name {
			return p, true
		}
	}
	return InputPrimitive{}, false
}

// RejectLoops returns true when functions containing loops must not be instrumented
func (c Config) RejectLoops() bool {
	return c.LoopPolicy == LoopReject
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
