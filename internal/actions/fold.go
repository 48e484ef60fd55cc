package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
)

// simplifyForVarAction2 rewrites e into an equivalent expression using only the operators of the
// variable machine, operations on a variable and a constant are folded in the fields of the variable.
func simplifyForVarAction2(e expr.Expr, varSize int) expr.Expr {
	return simplify(expr.FoldConstants(e), varSize)
}

func simplify(e expr.Expr, varSize int) expr.Expr {
	switch e := e.(type) {
	case expr.BinOp:
		left := simplify(e.Left, varSize)
		right := simplify(e.Right, varSize)
		return simplifyBinOp(e.Op, left, right, varSize)
	case expr.Not:
		return simplifyBinOp(expr.Eq, simplify(e.Operand, varSize), expr.NewConstant(0), varSize)
	case expr.MachineVar:
		if e.Param != nil {
			e.Param = simplify(e.Param, varSize)
		}
		return e
	case expr.ParamRef:
		return expr.ParamRef{Param: expr.FoldConstants(e.Param)}
	}
	return e
}

func simplifyBinOp(op expr.Op, left, right expr.Expr, varSize int) expr.Expr {
	l, lok := expr.ConstantValue(left)
	r, rok := expr.ConstantValue(right)
	if lok && rok {
		if v, ok := op.Eval(l, r); ok {
			return expr.NewConstant(v)
		}
	}

	if lok && !rok && op.IsCommutative() {
		left, right = right, left
	}

	one := expr.NewConstant(1)
	cmp := func(op expr.Op) expr.Expr {
		return expr.NewBinOp(op, left, right)
	}

	switch op {
	case expr.Eq:
		return simplifyBinOp(expr.And, cmp(expr.Cmp), one, varSize)
	case expr.Ne:
		return simplifyBinOp(expr.Xor, simplifyBinOp(expr.And, cmp(expr.Cmp), one, varSize), one, varSize)
	case expr.Lt:
		return simplifyBinOp(expr.Xor, simplifyBinOp(expr.MinU, cmp(expr.Cmp), one, varSize), one, varSize)
	case expr.Gt:
		return simplifyBinOp(expr.ShrU, cmp(expr.Cmp), one, varSize)
	case expr.Le:
		return simplifyBinOp(expr.Xor, simplifyBinOp(expr.ShrU, cmp(expr.Cmp), one, varSize), one, varSize)
	case expr.Ge:
		return simplifyBinOp(expr.MinU, cmp(expr.Cmp), one, varSize)
	case expr.HasBit:
		return simplifyBinOp(expr.And, simplifyBinOp(expr.ShrU, left, right, varSize), one, varSize)
	case expr.NotHasBit:
		return simplifyBinOp(expr.Xor, simplifyBinOp(expr.HasBit, left, right, varSize), one, varSize)
	}

	if v, ok := left.(expr.MachineVar); ok {
		if folded, ok := foldIntoVar(op, v, right, varSize); ok {
			return folded
		}
	}
	return expr.NewBinOp(op, left, right)
}

// foldIntoVar folds (v <op> operand) into the fields of v, the returned variable is a modified copy.
func foldIntoVar(op expr.Op, v expr.MachineVar, operand expr.Expr, varSize int) (expr.MachineVar, bool) {
	c, isConstant := expr.ConstantValue(operand)

	switch op {
	case expr.And:
		if !isConstant || v.HasPostOp() {
			return v, false
		}
		mask, ok := v.MaskOrFull(varSize).(expr.Constant)
		if !ok {
			return v, false
		}
		v.Mask = expr.NewConstant(mask.Value & c & expr.FullMask(varSize))
		return v, true
	case expr.Add, expr.Sub:
		if v.Div != nil || v.Mod != nil {
			return v, false
		}
		if !isConstant {
			//param[n] can only be added to a variable without post operation.
			ref, ok := operand.(expr.ParamRef)
			if !ok || op != expr.Add || v.Add != nil {
				return v, false
			}
			if _, ok := ref.ConstantIndex(); !ok {
				return v, false
			}
			v.Add = ref
			return v, true
		}
		if op == expr.Sub {
			c = -c
		}
		switch add := v.Add.(type) {
		case nil:
			v.Add = expr.NewConstant(c)
		case expr.Constant:
			v.Add = expr.NewConstant(int64(int32(add.Value + c)))
		default:
			return v, false
		}
		return v, true
	case expr.DivU, expr.ModU:
		//the divisor and modulo of an adjust are unsigned, signed operations stay in the table.
		if !isConstant || c <= 0 || v.Div != nil || v.Mod != nil {
			return v, false
		}
		if op == expr.DivU {
			v.Div = expr.NewConstant(c)
		} else {
			v.Mod = expr.NewConstant(c)
		}
		return v, true
	case expr.ShrU:
		if !isConstant || c < 0 || v.HasPostOp() || int64(v.Shift)+c > expr.SHIFT_MAX {
			return v, false
		}
		mask, ok := v.MaskOrFull(varSize).(expr.Constant)
		if !ok {
			return v, false
		}
		v.Shift += int(c)
		v.Mask = expr.NewConstant(int64(uint32(mask.Value) >> uint(c)))
		return v, true
	}
	return v, false
}
