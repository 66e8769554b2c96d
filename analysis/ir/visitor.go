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

package ir

import "fmt"

// An InstrOp must implement methods for ALL possible instructions
type InstrOp interface {
	DoBinOp(*BinOp)
	DoAlloc(*Alloc)
	DoLoad(*Load)
	DoStore(*Store)
	DoAddressCompute(*AddressCompute)
	DoPhi(*Phi)
	DoCall(*Call)
	DoIf(*If)
	DoJump(*Jump)
	DoReturn(*Return)
}

// InstrSwitch is mainly a map from the different instructions to the methods of the visitor.
func InstrSwitch(visitor InstrOp, instr Instruction) {
	switch instr := instr.(type) {
	case *BinOp:
		visitor.DoBinOp(instr)
	case *Alloc:
		visitor.DoAlloc(instr)
	case *Load:
		visitor.DoLoad(instr)
	case *Store:
		visitor.DoStore(instr)
	case *AddressCompute:
		visitor.DoAddressCompute(instr)
	case *Phi:
		visitor.DoPhi(instr)
	case *Call:
		visitor.DoCall(instr)
	case *If:
		visitor.DoIf(instr)
	case *Jump:
		visitor.DoJump(instr)
	case *Return:
		visitor.DoReturn(instr)
	default:
		panic(fmt.Sprintf("unexpected instruction %T", instr))
	}
}
