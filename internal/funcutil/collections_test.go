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

package funcutil

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCollections(t *testing.T) {
	a := []int{3, 1, 4, 1, 5}
	if diff := cmp.Diff([]string{"3", "1", "4", "1", "5"}, Map(a, strconv.Itoa)); diff != "" {
		t.Errorf("Map (-expected +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1}, Filter(a, func(x int) bool { return x < 3 })); diff != "" {
		t.Errorf("Filter (-expected +got):\n%s", diff)
	}
	if Filter(a, func(x int) bool { return x > 10 }) != nil {
		t.Errorf("Filter should return nil when nothing matches")
	}
	if !Contains(a, 4) || Contains(a, 2) {
		t.Errorf("Contains is wrong")
	}
	Reverse(a)
	if diff := cmp.Diff([]int{5, 1, 4, 1, 3}, a); diff != "" {
		t.Errorf("Reverse (-expected +got):\n%s", diff)
	}
}
