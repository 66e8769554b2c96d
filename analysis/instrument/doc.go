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

/*
Package instrument adds dynamic information-flow tracking to a program.

Every value and memory location of the instrumented program gets a taint label at runtime: the set of program inputs
that may have influenced it. Labels flow through explicit dependencies (arithmetic, loads, stores, calls) and through
implicit dependencies: a block that executes under a branch on tainted data is tainted by the condition.

The labels are computed by the label store runtime (see package labelstore); the instrumentation only emits calls to
it. Labels are handles: equal sets have equal handles, and the handle 0 is the empty set.

# Branch scopes

Each basic block gets a [BranchScope] when it is first reached by a branch. The scope holds the controlling label of
the block (the union of the labels of the conditions the block depends on) and the path of branch directions since
the last point where control flow converged. Blocks on the main path of a function have an empty path and are
instrumented in place. The instrumentation of nested blocks is emitted before the branch that starts their region,
so that it runs whichever path is taken, unless the region contains a call to a function of the program, in which
case the region is instrumented in place.

# Memory

The label of the memory pointed to by an address value is kept in a cell. Writes that happen under a condition are
recorded in the history of the address; loads are tainted by the controlling labels of the writes in the history.

# Calls

Labels cross function boundaries through module cells: one for the controlling label at the call site, one per
parameter and one for the result of each function. Calls to functions without body are opaque: their result is
tainted by all their arguments, except for input primitives, which create new origins.
*/
package instrument
