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

import "regexp"

// Captures errors happening before any instrumentation starts (program could not load)
var regexCouldNotLoad = regexp.MustCompile("could not load program")

// Captures the kind of error that happen when you put a flag at the end instead of go files
var namedFilesMustBeGoFiles = regexp.MustCompile("-: named files must be .go files: -(\\w)")

// Captures the errors of the front end on constructs outside the supported fragment of Go
var unsupportedConstruct = regexp.MustCompile("unsupported construct in")

// Captures the errors of the front end when the entry function is not found
var missingEntry = regexp.MustCompile("no entry function (\\S+) in the loaded packages")

// Captures the instrumentation errors on functions containing loops
var loopRejected = regexp.MustCompile("loops are not supported")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if regexCouldNotLoad.MatchString(errMsg) {
		if namedFilesMustBeGoFiles.MatchString(errMsg) {
			return "all command line flags should be before the path to the Go files to instrument"
		}
		return "make sure you have provided the right arguments to load a Go program"
	}
	if unsupportedConstruct.MatchString(errMsg) {
		return "only integers, booleans, pointers, arrays and structs are supported; " +
			"mark the function with //flowinst:opaque to leave it uninstrumented"
	}
	if m := missingEntry.FindStringSubmatch(errMsg); m != nil {
		return "set entry-function in the config file to the function to instrument (currently " + m[1] + ")"
	}
	if loopRejected.MatchString(errMsg) {
		return "set loop-policy to warn in the config file to instrument functions with loops"
	}
	return ""
}
