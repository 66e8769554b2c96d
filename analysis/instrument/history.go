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

// historyKey identifies the write history of an address value in a function. Scope labels are only meaningful in
// their function, so the histories of a global address are separate in each function.
type historyKey struct {
	fn   *ir.Function
	addr ir.Value
}

// recordWrite updates the history of addr with a write in the current scope.
//
// A write on the main path clears the history. A conditional write is appended to the history unless the last entry
// of the history is under the same ancestor and comparable:
//   - when the last entry is a prefix of the current path, the current scope replaces it;
//   - when the current path is a prefix of the last entry, the history is unchanged;
//   - when both paths are equal, the history is unchanged.
func (s *state) recordWrite(addr ir.Value) {
	key := historyKey{fn: s.fs.fn, addr: addr}
	cur := s.current()
	if cur.IsMain() {
		if len(s.history[key]) > 0 {
			s.Logger.Tracef("%s: history of %s cleared", s.fs.fn.Name, addr.Name())
		}
		delete(s.history, key)
		return
	}
	h := s.history[key]
	if len(h) == 0 {
		s.history[key] = []ScopeID{cur.ID}
		return
	}
	last := s.scopes[h[len(h)-1]]
	if last.Ancestor != cur.Ancestor {
		s.history[key] = append(h, cur.ID)
		return
	}
	switch {
	case len(last.Path) < len(cur.Path):
		if isEmbedded(cur.Path, last.Path) {
			h[len(h)-1] = cur.ID
		} else {
			s.history[key] = append(h, cur.ID)
		}
	case len(last.Path) > len(cur.Path):
		if !isEmbedded(last.Path, cur.Path) {
			s.history[key] = append(h, cur.ID)
		}
	default:
		if !samePath(last.Path, cur.Path) {
			s.history[key] = append(h, cur.ID)
		}
	}
}

// historyLabels returns the labels of the scopes in the history of addr
func (s *state) historyLabels(addr ir.Value) []*labelRef {
	var res []*labelRef
	for _, id := range s.history[historyKey{fn: s.fs.fn, addr: addr}] {
		res = append(res, s.scopes[id].label)
	}
	return res
}
