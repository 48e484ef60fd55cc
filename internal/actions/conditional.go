package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// Branch is a branch of an if chain, Cond is nil for the else branch. Body is only called for the
// branches that can be taken, inside the conditional.
type Branch struct {
	Cond expr.Expr
	Body func() ([]Record, error)
	Pos  srcpos.Position
}

type keptBranch struct {
	branch Branch
	always bool
}

// enterConditional saves the pools used by a conditional construct, the returned function restores them.
func (ctx *Context) enterConditional() (exit func()) {
	topLevel := !ctx.InConditional()
	if topLevel {
		ctx.ShortLabels.Save()
		ctx.LongLabels.Save()
	}
	ctx.TempParams.Save()
	ctx.condDepth++

	return func() {
		ctx.condDepth--
		ctx.TempParams.Restore()
		if topLevel {
			ctx.LongLabels.Restore()
			ctx.ShortLabels.Restore()
		}
	}
}

// LowerIf returns the records of an if/elseif/else chain. Branches with a constant condition are
// resolved: false ones are dropped and a true one ends the chain.
func LowerIf(ctx *Context, branches []Branch, pos srcpos.Position) ([]Record, error) {
	exit := ctx.enterConditional()
	defer exit()

	var kept []keptBranch
	for _, branch := range branches {
		if branch.Cond == nil {
			kept = append(kept, keptBranch{branch: branch, always: true})
			break
		}
		if value, ok := constantCondition(branch.Cond); ok {
			if value {
				kept = append(kept, keptBranch{branch: branch, always: true})
				break
			}
			continue
		}
		kept = append(kept, keptBranch{branch: branch})
	}

	switch len(kept) {
	case 0:
		return nil, nil
	case 1:
		return lowerBranch(ctx, kept[0], nil)
	}

	//skipAll is set to 0 by the branch that is taken.
	skipAll, err := ctx.TempParams.Pop(pos)
	if err != nil {
		return nil, err
	}
	records := []Record{newConstantAssignment(skipAll, 0xFFFFFFFF, pos)}
	skipAllIsZero := SkipCondition{Param: skipAll, VarSize: 4, Cond: COND_EQ, Value: 0}

	for i, branch := range kept {
		var prefix []Record
		if i < len(kept)-1 {
			prefix = []Record{newConstantAssignment(skipAll, 0, branch.branch.Pos)}
		}

		branchRecords, err := lowerBranch(ctx, branch, prefix)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			branchRecords, err = SkipRuns(ctx, branchRecords, skipAllIsZero, branch.branch.Pos)
			if err != nil {
				return nil, err
			}
		}
		records = append(records, branchRecords...)
	}
	return records, nil
}

// lowerBranch returns the records computing the condition of branch followed by its body, prefix
// included, skipped if the condition is false.
func lowerBranch(ctx *Context, branch keptBranch, prefix []Record) ([]Record, error) {
	var (
		condRecords []Record
		skipCond    SkipCondition
	)

	if !branch.always {
		records, cond, err := parseCondition(ctx, branch.branch.Cond, branch.branch.Pos)
		if err != nil {
			return nil, err
		}
		condRecords, skipCond = records, cond
	}

	body, err := branch.branch.Body()
	if err != nil {
		return nil, err
	}
	body = append(prefix, body...)

	if branch.always {
		return body, nil
	}

	skipped, err := SkipRuns(ctx, body, skipCond, branch.branch.Pos)
	if err != nil {
		return nil, err
	}
	return append(condRecords, skipped...), nil
}

// LowerWhile returns the records of a loop: a jump target, the computation of the condition and the
// body followed by a jump back to the jump target, skipped if the condition is false.
func LowerWhile(ctx *Context, cond expr.Expr, body func() ([]Record, error), pos srcpos.Position) ([]Record, error) {
	exit := ctx.enterConditional()
	defer exit()

	always := false
	if value, ok := constantCondition(cond); ok {
		if !value {
			return nil, nil
		}
		always = true
	}

	label, err := ctx.LongLabels.PopUnique(pos)
	if err != nil {
		return nil, err
	}

	var (
		condRecords []Record
		skipCond    SkipCondition
	)
	if !always {
		condRecords, skipCond, err = parseCondition(ctx, cond, pos)
		if err != nil {
			return nil, err
		}
	}

	bodyRecords, err := body()
	if err != nil {
		return nil, err
	}
	loop := append(bodyRecords, newJump(label, pos))

	records := []Record{NewJumpTarget(label, pos)}
	if always {
		return append(records, loop...), nil
	}

	skipped, err := SkipRuns(ctx, loop, skipCond, pos)
	if err != nil {
		return nil, err
	}
	records = append(records, condRecords...)
	return append(records, skipped...), nil
}

// constantCondition returns the value of cond if it does not depend on parameters. Comparisons are
// unsigned: param < 0 and param > 0xFFFFFFFF are always false.
func constantCondition(cond expr.Expr) (bool, bool) {
	cond = expr.FoldConstants(cond)
	if v, ok := expr.ConstantValue(cond); ok {
		return v != 0, true
	}

	binop, ok := cond.(expr.BinOp)
	if !ok {
		return false, false
	}
	op, _, c, ok := normalizeComparison(binop)
	if !ok {
		return false, false
	}
	switch {
	case op == expr.Lt && c == 0:
		return false, true
	case op == expr.Gt && c == 0xFFFFFFFF:
		return false, true
	case op == expr.Ge && c == 0:
		return true, true
	case op == expr.Le && c == 0xFFFFFFFF:
		return true, true
	}
	return false, false
}

// normalizeComparison returns the comparison binop as (left <op> constant), the constant being
// converted to an unsigned 32 bit value.
func normalizeComparison(binop expr.BinOp) (expr.Op, expr.Expr, int64, bool) {
	if !binop.Op.IsComparison() {
		return 0, nil, 0, false
	}

	op, left, right := binop.Op, binop.Left, binop.Right
	if _, ok := expr.ConstantValue(left); ok {
		if _, ok := expr.ConstantValue(right); ok {
			return 0, nil, 0, false
		}
		left, right = right, left
		switch op {
		case expr.Lt:
			op = expr.Gt
		case expr.Gt:
			op = expr.Lt
		case expr.Le:
			op = expr.Ge
		case expr.Ge:
			op = expr.Le
		}
	}

	c, ok := expr.ConstantValue(right)
	if !ok {
		return 0, nil, 0, false
	}
	return op, left, int64(uint32(c)), true
}

// parseCondition returns the records computing cond and the skip condition that is true when cond
// is false. The pool of temporary parameters must have an active checkpoint.
func parseCondition(ctx *Context, cond expr.Expr, pos srcpos.Position) ([]Record, SkipCondition, error) {
	cond = expr.FoldConstants(cond)

	switch c := cond.(type) {
	case expr.ParamRef:
		records, param, err := patchSource(ctx, c, pos)
		if err != nil {
			return nil, SkipCondition{}, err
		}
		return records, SkipCondition{Param: param, VarSize: 4, Cond: COND_EQ, Value: 0}, nil
	case expr.Not:
		records, param, err := getTmpParameter(ctx, c.Operand, pos)
		if err != nil {
			return nil, SkipCondition{}, err
		}
		return records, SkipCondition{Param: param, VarSize: 4, Cond: COND_NE, Value: 0}, nil
	case expr.BinOp:
		if c.Op == expr.HasBit || c.Op == expr.NotHasBit {
			bit, ok := expr.ConstantValue(c.Right)
			if !ok {
				break
			}
			if bit < 0 || bit > 31 {
				return nil, SkipCondition{}, grferr.New(grferr.ErrRange, pos, "bit %d is out of range [0, 31]", bit)
			}
			records, param, err := patchSource(ctx, c.Left, pos)
			if err != nil {
				return nil, SkipCondition{}, err
			}
			skip := SkipCondition{Param: param, VarSize: 1, Cond: COND_BIT_CLEAR, Value: bit}
			if c.Op == expr.NotHasBit {
				skip.Cond = COND_BIT_SET
			}
			return records, skip, nil
		}

		op, left, value, ok := normalizeComparison(c)
		if !ok {
			break
		}

		var cmp int
		switch op {
		case expr.Eq:
			cmp = COND_NE
		case expr.Ne:
			cmp = COND_EQ
		case expr.Le:
			cmp = COND_GT
		case expr.Ge:
			cmp = COND_LT
		case expr.Lt:
			//param < c is false if param > c - 1
			cmp, value = COND_GT, value-1
		case expr.Gt:
			cmp, value = COND_LT, value+1
		}

		records, param, err := patchSource(ctx, left, pos)
		if err != nil {
			return nil, SkipCondition{}, err
		}
		return records, SkipCondition{Param: param, VarSize: 4, Cond: cmp, Value: value}, nil
	}

	records, param, err := getTmpParameter(ctx, cond, pos)
	if err != nil {
		return nil, SkipCondition{}, err
	}
	return records, SkipCondition{Param: param, VarSize: 4, Cond: COND_EQ, Value: 0}, nil
}
