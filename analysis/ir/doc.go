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

// Package ir defines the program representation that is instrumented: functions made of basic blocks of
// instructions in single-assignment form, over 64-bit values and cell-addressed memory.
//
// Instructions are created with a [Builder], either appended at the end of a block while constructing a function,
// or inserted before or after an existing instruction, or in the prologue of a function, when instrumenting it.
// An [InstrOp] visits instructions through [InstrSwitch].
package ir
