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
	"go/token"
	"go/types"

	"github.com/awslabs/ar-go-flowinst/analysis/ir"
	"golang.org/x/tools/go/ssa"
)

var binOps = map[token.Token]ir.Op{
	token.ADD:     ir.Add,
	token.SUB:     ir.Sub,
	token.MUL:     ir.Mul,
	token.QUO:     ir.Div,
	token.REM:     ir.Rem,
	token.AND:     ir.And,
	token.OR:      ir.Or,
	token.XOR:     ir.Xor,
	token.SHL:     ir.Shl,
	token.SHR:     ir.Shr,
	token.AND_NOT: ir.AndNot,
	token.EQL:     ir.Eql,
	token.NEQ:     ir.Neq,
	token.LSS:     ir.Lss,
	token.LEQ:     ir.Leq,
	token.GTR:     ir.Gtr,
	token.GEQ:     ir.Geq,
}

// instr lowers instr at the end of the block of b
//
//gocyclo:ignore
func (fl *funcLowerer) instr(b *ir.Builder, instr ssa.Instruction) error {
	switch instr := instr.(type) {
	case *ssa.DebugRef:
		return nil

	case *ssa.Alloc:
		n, err := cells(pointee(instr.Type()))
		if err != nil {
			return fl.l.unsupported(fl.fn, instr.Pos(), "allocation of %s: %v", instr.Type(), err)
		}
		fl.values[instr] = b.Alloc(int(max64(n, 1)), instr.Comment)

	case *ssa.Store:
		ops, err := fl.operands(instr, instr.Addr, instr.Val)
		if err != nil {
			return err
		}
		b.Store(ops[0], ops[1])

	case *ssa.UnOp:
		return fl.unOp(b, instr)

	case *ssa.BinOp:
		op, ok := binOps[instr.Op]
		if !ok {
			return fl.l.unsupported(fl.fn, instr.Pos(), "operator %s", instr.Op)
		}
		if _, err := fl.typeOf(instr, instr.X); err != nil {
			return err
		}
		ops, err := fl.operands(instr, instr.X, instr.Y)
		if err != nil {
			return err
		}
		fl.values[instr] = b.BinOp(op, ops[0], ops[1])

	case *ssa.IndexAddr:
		var arr *types.Array
		if elem := pointee(instr.X.Type()); elem != nil {
			arr, _ = elem.Underlying().(*types.Array)
		}
		if arr == nil {
			return fl.l.unsupported(fl.fn, instr.Pos(), "indexing of %s", instr.X.Type())
		}
		scale, err := cells(arr.Elem())
		if err != nil {
			return fl.l.unsupported(fl.fn, instr.Pos(), "array of %s: %v", arr.Elem(), err)
		}
		ops, err := fl.operands(instr, instr.X, instr.Index)
		if err != nil {
			return err
		}
		fl.values[instr] = b.AddressCompute(ops[0], 0, []ir.Value{ops[1]}, []int64{scale})

	case *ssa.FieldAddr:
		var st *types.Struct
		if elem := pointee(instr.X.Type()); elem != nil {
			st, _ = elem.Underlying().(*types.Struct)
		}
		if st == nil {
			return fl.l.unsupported(fl.fn, instr.Pos(), "field of %s", instr.X.Type())
		}
		off, err := fieldOffset(st, instr.Field)
		if err != nil {
			return fl.l.unsupported(fl.fn, instr.Pos(), "struct %s: %v", st, err)
		}
		base, err := fl.value(instr, instr.X)
		if err != nil {
			return err
		}
		fl.values[instr] = b.AddressCompute(base, off, nil, nil)

	case *ssa.Phi:
		t, err := fl.typeOf(instr, instr)
		if err != nil {
			return err
		}
		lphi := b.Phi(t)
		fl.values[instr] = lphi
		fl.phis[instr] = lphi

	case *ssa.If:
		cond, err := fl.value(instr, instr.Cond)
		if err != nil {
			return err
		}
		succs := instr.Block().Succs
		b.If(cond, fl.blocks[succs[0]], fl.blocks[succs[1]])

	case *ssa.Jump:
		b.Jump(fl.blocks[instr.Block().Succs[0]])

	case *ssa.Return:
		switch len(instr.Results) {
		case 0:
			b.Return(nil)
		case 1:
			v, err := fl.value(instr, instr.Results[0])
			if err != nil {
				return err
			}
			b.Return(v)
		default:
			return fl.l.unsupported(fl.fn, instr.Pos(), "return of %d results", len(instr.Results))
		}

	case *ssa.Call:
		return fl.call(b, instr)

	case *ssa.Convert:
		return fl.alias(instr, instr, instr.X)

	case *ssa.ChangeType:
		return fl.alias(instr, instr, instr.X)

	default:
		return fl.l.unsupported(fl.fn, instr.Pos(), "instruction %T %q", instr, instr)
	}
	return nil
}

// alias maps v to the IR value of x, after checking that the type of v is supported
func (fl *funcLowerer) alias(instr ssa.Instruction, v ssa.Value, x ssa.Value) error {
	if _, err := fl.typeOf(instr, v); err != nil {
		return err
	}
	lx, err := fl.value(instr, x)
	if err != nil {
		return err
	}
	fl.values[v] = lx
	return nil
}

func (fl *funcLowerer) unOp(b *ir.Builder, instr *ssa.UnOp) error {
	t, err := fl.typeOf(instr, instr)
	if err != nil {
		return err
	}
	if instr.CommaOk {
		return fl.l.unsupported(fl.fn, instr.Pos(), "comma-ok %s", instr)
	}
	x, err := fl.value(instr, instr.X)
	if err != nil {
		return err
	}
	switch instr.Op {
	case token.MUL:
		fl.values[instr] = b.Load(x, t)
	case token.SUB:
		fl.values[instr] = b.BinOp(ir.Sub, ir.NewConst(0, t), x)
	case token.NOT:
		fl.values[instr] = b.BinOp(ir.Xor, x, ir.NewConst(1, t))
	case token.XOR:
		fl.values[instr] = b.BinOp(ir.Xor, x, ir.NewConst(-1, t))
	default:
		return fl.l.unsupported(fl.fn, instr.Pos(), "operator %s", instr.Op)
	}
	return nil
}

func (fl *funcLowerer) call(b *ir.Builder, instr *ssa.Call) error {
	common := instr.Common()
	if common.IsInvoke() {
		return fl.l.unsupported(fl.fn, instr.Pos(), "interface method call %s", instr)
	}
	callee := common.StaticCallee()
	if callee == nil {
		return fl.l.unsupported(fl.fn, instr.Pos(), "dynamic or builtin call %s", instr)
	}
	f, err := fl.l.function(callee)
	if err != nil {
		return err
	}
	args, err := fl.operands(instr, common.Args...)
	if err != nil {
		return err
	}
	call := b.Call(f, args...)
	if f.HasResult() {
		fl.values[instr] = call
	}
	return nil
}
