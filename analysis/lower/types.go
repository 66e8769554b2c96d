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

package lower

import (
	"fmt"
	"go/constant"
	"go/types"

	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"golang.org/x/tools/go/ssa"
)

// irType returns the IR type of values of type t. Integers of every size are 64-bit integers.
func irType(t types.Type) (ir.Type, error) {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsBoolean != 0:
			return ir.Bool, nil
		case u.Info()&types.IsInteger != 0:
			return ir.Int, nil
		case u.Kind() == types.UnsafePointer:
			return ir.Ptr, nil
		}
	case *types.Pointer:
		return ir.Ptr, nil
	}
	return ir.Void, fmt.Errorf("values of type %s", t)
}

// signature returns the result type and the parameter types of sig. The receiver is the first parameter.
func signature(sig *types.Signature) (ir.Type, []ir.Type, error) {
	var params []ir.Type
	add := func(v *types.Var) error {
		t, err := irType(v.Type())
		if err != nil {
			return fmt.Errorf("parameter %s: %w", v.Name(), err)
		}
		params = append(params, t)
		return nil
	}
	if recv := sig.Recv(); recv != nil {
		if err := add(recv); err != nil {
			return ir.Void, nil, err
		}
	}
	for i := 0; i < sig.Params().Len(); i++ {
		if err := add(sig.Params().At(i)); err != nil {
			return ir.Void, nil, err
		}
	}
	if sig.Variadic() {
		return ir.Void, nil, fmt.Errorf("variadic function")
	}
	switch sig.Results().Len() {
	case 0:
		return ir.Void, params, nil
	case 1:
		t, err := irType(sig.Results().At(0).Type())
		if err != nil {
			return ir.Void, nil, fmt.Errorf("result: %w", err)
		}
		return t, params, nil
	}
	return ir.Void, nil, fmt.Errorf("%d results", sig.Results().Len())
}

// cells returns the number of memory cells of an object of type t: one per scalar, arrays and structs are
// flattened.
func cells(t types.Type) (int64, error) {
	switch u := t.Underlying().(type) {
	case *types.Array:
		n, err := cells(u.Elem())
		return u.Len() * n, err
	case *types.Struct:
		total := int64(0)
		for i := 0; i < u.NumFields(); i++ {
			n, err := cells(u.Field(i).Type())
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}
	if _, err := irType(t); err != nil {
		return 0, err
	}
	return 1, nil
}

// fieldOffset returns the offset in cells of the field i of s
func fieldOffset(s *types.Struct, i int) (int64, error) {
	off := int64(0)
	for j := 0; j < i; j++ {
		n, err := cells(s.Field(j).Type())
		if err != nil {
			return 0, err
		}
		off += n
	}
	return off, nil
}

// pointee returns the type pointed to by t, or nil if t is not a pointer type
func pointee(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return nil
}

// constValue lowers c. Nil and zero values are 0.
func constValue(c *ssa.Const) (*ir.Const, error) {
	t, err := irType(c.Type())
	if err != nil {
		return nil, err
	}
	if c.Value == nil {
		return ir.NewConst(0, t), nil
	}
	switch c.Value.Kind() {
	case constant.Bool:
		if constant.BoolVal(c.Value) {
			return ir.NewConst(1, t), nil
		}
		return ir.NewConst(0, t), nil
	case constant.Int:
		if v, exact := constant.Int64Val(c.Value); exact {
			return ir.NewConst(v, t), nil
		}
		if v, exact := constant.Uint64Val(c.Value); exact {
			return ir.NewConst(int64(v), t), nil
		}
	}
	return nil, fmt.Errorf("constant %s", c.Value)
}
