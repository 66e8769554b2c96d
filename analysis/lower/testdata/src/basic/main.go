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

package main

type pair struct {
	x int
	y int
}

var total int

// input reads the next input of the program
func input() int

// mix is not instrumented
//
//flowinst:opaque
func mix(a int, b int) int {
	return a*31 + b
}

func clamp(v int, hi int) int {
	if v > hi {
		return hi
	}
	return v
}

func run(a int, b int) int {
	var p pair
	p.x = a
	p.y = input()
	var arr [4]int
	arr[b&3] = p.y
	c := 0
	if a > 10 {
		c = clamp(p.x, 20)
		total = c
	}
	return c + arr[1] + mix(p.x, 0)
}

func main() {
	println(run(12, 1))
}
