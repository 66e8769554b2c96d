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

import "github.com/awslabs/ar-go-flowinst/analysis/ir"

// available returns true if the definition of ref dominates the point right before at
func (fs *funcState) available(ref *labelRef, at ir.Instruction) bool {
	if ref.def == nil {
		return true
	}
	db, ab := ref.def.Block(), at.Block()
	if db == ab {
		return db.IndexOf(ref.def) < db.IndexOf(at)
	}
	return fs.graph.Dominates(db, ab)
}

// use returns a value holding the label of ref right before at.
//
// When the definition of the label does not dominate at, the label goes through a spill cell: the cell is
// allocated in the prologue and holds the untainted label until the definition executes. A use that runs without
// the definition having run reads the untainted label.
func (s *state) use(ref *labelRef, at ir.Instruction) ir.Value {
	if s.fs.available(ref, at) {
		return ref.val
	}
	if ref.cell == nil {
		p := ir.Prologue(s.fs.fn)
		cell := p.Alloc(1, "spill "+ref.val.Name())
		p.Store(cell, zeroLabel)
		ir.After(ref.def).Store(cell, ref.val)
		ref.cell = cell
		s.Logger.Tracef("%s: spilled %s defined in %s", s.fs.fn.Name, ref.val.Name(), ref.def.Block())
	}
	return ir.Before(at).Load(ref.cell, ir.Label)
}
