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

import "fmt"

const offsetBits = 32

// memory is a list of objects of cells. An address is object<<32 | offset; object 0 is never allocated so that the
// address 0 is nil.
type memory struct {
	objects [][]int64
}

func newMemory() *memory {
	return &memory{objects: [][]int64{nil}}
}

func (m *memory) alloc(cells int) int64 {
	m.objects = append(m.objects, make([]int64, cells))
	return int64(len(m.objects)-1) << offsetBits
}

func (m *memory) cell(addr int64) (*int64, error) {
	obj := addr >> offsetBits
	off := addr & (1<<offsetBits - 1)
	if addr == 0 {
		return nil, fmt.Errorf("%w: nil address", ErrMemory)
	}
	if obj <= 0 || obj >= int64(len(m.objects)) {
		return nil, fmt.Errorf("%w: invalid object in address %#x", ErrMemory, addr)
	}
	cells := m.objects[obj]
	if off >= int64(len(cells)) {
		return nil, fmt.Errorf("%w: offset %d out of bounds of object %d of %d cells", ErrMemory, off, obj,
			len(cells))
	}
	return &cells[off], nil
}

func (m *memory) load(addr int64) (int64, error) {
	c, err := m.cell(addr)
	if err != nil {
		return 0, err
	}
	return *c, nil
}

func (m *memory) store(addr, v int64) error {
	c, err := m.cell(addr)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
