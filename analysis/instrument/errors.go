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

import (
	"errors"
	"fmt"
)

// ErrLoop is returned when a function contains a loop and the loop policy rejects loops
var ErrLoop = errors.New("loops are not supported")

// A PreconditionError reports a program the instrumentation cannot handle: a block reached before any branch
// leading to it was visited, a malformed call to an input primitive, or a missing entry function.
// It is fatal: the instrumented program is left in an unspecified state.
type PreconditionError struct {
	Function string
	// Block is the index of the block where the problem was found, or -1
	Block int
	// Instr is the instruction where the problem was found, if any
	Instr  string
	Reason string
}

func (e *PreconditionError) Error() string {
	loc := e.Function
	if e.Block >= 0 {
		loc += fmt.Sprintf(", block b%d", e.Block)
	}
	if e.Instr != "" {
		loc += fmt.Sprintf(", at %q", e.Instr)
	}
	return fmt.Sprintf("precondition violated in %s: %s", loc, e.Reason)
}
