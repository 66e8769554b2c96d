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

package interp

import (
	"errors"
	"fmt"

	"github.com/awslabs/ar-go-flowinst/analysis/config"
)

// ErrNoInput is returned when an input primitive is called after all the inputs have been consumed
var ErrNoInput = errors.New("no more input")

// InputQueue feeds the input primitives of a program
type InputQueue struct {
	values []int64
}

// NewInputQueue returns a queue that serves values in order
func NewInputQueue(values ...int64) *InputQueue {
	return &InputQueue{values: values}
}

// Remaining returns the number of inputs not consumed yet
func (q *InputQueue) Remaining() int {
	return len(q.values)
}

func (q *InputQueue) next() (int64, error) {
	if len(q.values) == 0 {
		return 0, ErrNoInput
	}
	v := q.values[0]
	q.values = q.values[1:]
	return v, nil
}

// Primitive returns the implementation of the input primitive p. A result primitive returns the next input; the
// other primitives store the next inputs at the addresses given as arguments from p.FirstOutput onwards and return
// the number of inputs read.
func (q *InputQueue) Primitive(p config.InputPrimitive) External {
	if p.Result {
		return func(_ *Interpreter, _ []int64) (int64, error) {
			return q.next()
		}
	}
	return func(it *Interpreter, args []int64) (int64, error) {
		if p.FirstOutput > len(args) {
			return 0, fmt.Errorf("%s: first output %d beyond the %d arguments", p.Name, p.FirstOutput, len(args))
		}
		n := int64(0)
		for _, addr := range args[p.FirstOutput:] {
			v, err := q.next()
			if err != nil {
				return n, err
			}
			if err := it.Store(addr, v); err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	}
}

// BindInputs binds every input primitive of cfg that is declared in the program to q
func (it *Interpreter) BindInputs(cfg *config.Config, q *InputQueue) {
	for _, p := range cfg.InputPrimitives {
		if it.prog.Func(p.Name) != nil {
			it.Bind(p.Name, q.Primitive(p))
		}
	}
}
