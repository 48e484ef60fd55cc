package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const (
	ACTION_D_ASSIGN = 0x00
	ACTION_D_DATA   = 0xFF //source byte selecting the data dword

	//offsets of the patchable bytes of a parameter assignment.
	ACTION_D_TARGET_OFFSET = 1
	ACTION_D_SRC1_OFFSET   = 3
	ACTION_D_SRC2_OFFSET   = 4
)

// ParamAssignment (action D) computes target = src1 <op> src2, a source equal to ACTION_D_DATA
// reads Data.
type ParamAssignment struct {
	recordBase
	Target int
	Op     int
	Src1   int
	Src2   int
	Data   int64
}

func (*ParamAssignment) Kind() Kind {
	return KindParamAssignment
}

func (a *ParamAssignment) hasData() bool {
	return a.Src1 == ACTION_D_DATA || a.Src2 == ACTION_D_DATA
}

func (a *ParamAssignment) Size() int {
	if a.hasData() {
		return 9
	}
	return 5
}

func (a *ParamAssignment) Write(out grfout.Output) {
	writePseudoSprite(out, a.Size(), func(w grfout.Writer) {
		w.PrintByte(0x0D)
		w.PrintByte(a.Target)
		w.PrintByte(a.Op)
		w.PrintByte(a.Src1)
		w.PrintByte(a.Src2)
		if a.hasData() {
			w.PrintDword(int(int32(a.Data)))
		}
	})
}

// newConstantAssignment returns the assignment target = value.
func newConstantAssignment(target int, value int64, pos srcpos.Position) *ParamAssignment {
	return &ParamAssignment{
		recordBase: recordBase{pos: pos},
		Target:     target,
		Op:         ACTION_D_ASSIGN,
		Src1:       ACTION_D_DATA,
		Data:       value,
	}
}

// LowerParamAssignment returns the records assigning value to the parameter whose number is target.
// Parameters with a computed number and operands that are not parameters or constants are
// computed in temporary parameters first.
func LowerParamAssignment(ctx *Context, target expr.Expr, value expr.Expr, pos srcpos.Position) ([]Record, error) {
	target = expr.FoldConstants(target)
	value = expr.FoldConstants(value)

	var (
		records []Record
		patches []PatchRequest
		num     int
	)

	if c, ok := expr.ConstantValue(target); ok {
		num = int(c)
		if err := checkParamNumber(num, pos); err != nil {
			return nil, err
		}
	} else {
		pre, tmp, err := getTmpParameter(ctx, target, pos)
		if err != nil {
			return nil, err
		}
		records = append(records, pre...)
		patches = append(patches, PatchRequest{Param: tmp, Size: 1, Offset: ACTION_D_TARGET_OFFSET})
	}

	pre, assignment, assignmentPatches, err := buildAssignment(ctx, num, value, pos)
	if err != nil {
		return nil, err
	}
	records = append(records, pre...)
	patches = append(patches, assignmentPatches...)

	return append(records, withPatches(assignment, patches)...), nil
}

func buildAssignment(ctx *Context, target int, value expr.Expr, pos srcpos.Position) ([]Record, *ParamAssignment, []PatchRequest, error) {
	assignment := &ParamAssignment{recordBase: recordBase{pos: pos}, Target: target}

	switch v := value.(type) {
	case expr.Constant:
		return nil, newConstantAssignment(target, v.Value, pos), nil, nil
	case expr.ParamRef:
		assignment.Op = ACTION_D_ASSIGN
		if index, ok := v.ConstantIndex(); ok {
			if err := checkParamNumber(index, pos); err != nil {
				return nil, nil, nil, err
			}
			assignment.Src1 = index
			return nil, assignment, nil, nil
		}

		pre, tmp, err := getTmpParameter(ctx, v.Param, pos)
		if err != nil {
			return nil, nil, nil, err
		}
		patches := []PatchRequest{{Param: tmp, Size: 1, Offset: ACTION_D_SRC1_OFFSET}}
		return pre, assignment, patches, nil
	case expr.BinOp:
		return buildBinOpAssignment(ctx, assignment, v, pos)
	case expr.Not:
		return nil, nil, nil, grferr.New(grferr.ErrUnsupportedOperator, pos, "logical negation cannot be computed in a parameter assignment: %s", v)
	default:
		return nil, nil, nil, grferr.New(grferr.ErrTypeMismatch, pos, "%s cannot be assigned to a parameter", v)
	}
}

func buildBinOpAssignment(ctx *Context, assignment *ParamAssignment, binop expr.BinOp, pos srcpos.Position) ([]Record, *ParamAssignment, []PatchRequest, error) {
	code, ok := binop.Op.ActionDCode()
	if !ok {
		return nil, nil, nil, grferr.New(grferr.ErrUnsupportedOperator, pos, "operator %s is not supported in parameter assignments", binop.Op)
	}
	assignment.Op = code

	left, right := binop.Left, binop.Right
	if binop.Op == expr.Shr || binop.Op == expr.ShrU {
		//right shifts are shifts by a negative count.
		if c, ok := expr.ConstantValue(right); ok {
			right = expr.NewConstant(-c)
		} else {
			right = expr.NewBinOp(expr.Sub, expr.NewConstant(0), right)
		}
	}

	var records []Record
	dataUsed := false

	source := func(e expr.Expr) (int, error) {
		if c, ok := expr.ConstantValue(e); ok && !dataUsed {
			dataUsed = true
			assignment.Data = c
			return ACTION_D_DATA, nil
		}
		switch e.(type) {
		case expr.MachineVar, expr.StringRef, expr.RecordRef:
			return 0, grferr.New(grferr.ErrTypeMismatch, pos, "%s cannot be used in a parameter assignment", e)
		}
		pre, param, err := patchSource(ctx, e, pos)
		if err != nil {
			return 0, err
		}
		records = append(records, pre...)
		return param, nil
	}

	var err error
	if assignment.Src1, err = source(left); err != nil {
		return nil, nil, nil, err
	}
	if assignment.Src2, err = source(right); err != nil {
		return nil, nil, nil, err
	}
	return records, assignment, nil, nil
}

// getTmpParameter returns a temporary parameter holding the value of e, the pool of temporary
// parameters must have an active checkpoint. No parameter is allocated if e is a parameter with a
// constant number.
func getTmpParameter(ctx *Context, e expr.Expr, pos srcpos.Position) ([]Record, int, error) {
	e = expr.FoldConstants(e)
	if ref, ok := e.(expr.ParamRef); ok {
		if index, ok := ref.ConstantIndex(); ok {
			return nil, index, checkParamNumber(index, pos)
		}
	}

	tmp, err := ctx.TempParams.Pop(pos)
	if err != nil {
		return nil, 0, err
	}

	pre, assignment, patches, err := buildAssignment(ctx, tmp, e, pos)
	if err != nil {
		return nil, 0, err
	}
	return append(pre, withPatches(assignment, patches)...), tmp, nil
}
