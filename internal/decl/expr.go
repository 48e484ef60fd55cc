package decl

import (
	"github.com/inoxlang/grfc/internal/expr"
)

// EXPRESSION_KEYS lists the keys identifying an expression node, by priority: a parametrised
// variable has both a var and a param key.
var EXPRESSION_KEYS = []string{"var", "param", "string", "ref", "op", "not"}

// parseExpr decodes an expression node:
//
//	42                               constant
//	{param: <expr>}                  parameter read
//	{var: 0x40, param: <expr>, shift: 8, mask: 0xFF, add: 1, div: 2, mod: 3}
//	{string: STR_NAME}               string id
//	{ref: name}                      decision table or sprite group
//	{op: "+", left: <expr>, right: <expr>}
//	{not: <expr>}
func parseExpr(n *node) (expr.Expr, error) {
	switch n.kind {
	case intNode, stringNode:
		v, err := n.asInt()
		if err != nil {
			return nil, invalid(n.pos, "expression expected, found %s", n.describe())
		}
		return expr.NewConstant(v), nil
	case mappingNode:
	default:
		return nil, invalid(n.pos, "expression expected, found %s", n.kind)
	}

	kind := ""
	for _, key := range EXPRESSION_KEYS {
		if _, ok := n.get(key); ok {
			kind = key
			break
		}
	}

	switch kind {
	case "var":
		return parseMachineVar(n)
	case "param":
		if err := n.checkKeys("param"); err != nil {
			return nil, err
		}
		param, err := parseExpr(n.values["param"])
		if err != nil {
			return nil, err
		}
		return expr.ParamRef{Param: param}, nil
	case "string":
		if err := n.checkKeys("string"); err != nil {
			return nil, err
		}
		name, err := n.stringField("string")
		if err != nil {
			return nil, err
		}
		return expr.NewStringRef(name), nil
	case "ref":
		if err := n.checkKeys("ref"); err != nil {
			return nil, err
		}
		name, err := n.stringField("ref")
		if err != nil {
			return nil, err
		}
		return expr.NewRecordRef(name), nil
	case "op":
		return parseBinOp(n)
	case "not":
		if err := n.checkKeys("not"); err != nil {
			return nil, err
		}
		operand, err := parseExpr(n.values["not"])
		if err != nil {
			return nil, err
		}
		return expr.Not{Operand: operand}, nil
	}
	return nil, invalid(n.pos, "unknown expression, expected a mapping with one of the keys: param, var, string, ref, op, not")
}

func parseBinOp(n *node) (expr.Expr, error) {
	if err := n.checkKeys("op", "left", "right"); err != nil {
		return nil, err
	}
	name, err := n.stringField("op")
	if err != nil {
		return nil, err
	}
	op, ok := expr.ParseOp(name)
	if !ok {
		return nil, invalid(n.values["op"].pos, "unknown operator %q", name)
	}
	switch op {
	case expr.StoTmp, expr.StoPerm, expr.Val2:
		return nil, invalid(n.values["op"].pos, "operator %s cannot be used in declarations", op)
	}

	leftNode, err := n.required("left")
	if err != nil {
		return nil, err
	}
	rightNode, err := n.required("right")
	if err != nil {
		return nil, err
	}

	left, err := parseExpr(leftNode)
	if err != nil {
		return nil, err
	}
	right, err := parseExpr(rightNode)
	if err != nil {
		return nil, err
	}
	return expr.NewBinOp(op, left, right), nil
}

func parseMachineVar(n *node) (expr.Expr, error) {
	if err := n.checkKeys("var", "param", "shift", "mask", "add", "div", "mod"); err != nil {
		return nil, err
	}

	num, err := n.intField("var")
	if err != nil {
		return nil, err
	}
	if num < 0 || num > 0xFF {
		return nil, invalid(n.values["var"].pos, "variable number 0x%X is out of range", num)
	}

	v := expr.MachineVar{Num: num}

	if paramNode, ok := n.get("param"); ok {
		param, err := parseExpr(paramNode)
		if err != nil {
			return nil, err
		}
		v.Param = param
	}

	v.Shift, err = n.optionalIntField("shift", 0)
	if err != nil {
		return nil, err
	}
	if v.Shift < 0 || v.Shift > expr.SHIFT_MAX {
		return nil, invalid(n.values["shift"].pos, "shift %d is out of range [0, %d]", v.Shift, expr.SHIFT_MAX)
	}

	fields := []struct {
		key   string
		value *expr.Value
	}{
		{"mask", &v.Mask},
		{"add", &v.Add},
		{"div", &v.Div},
		{"mod", &v.Mod},
	}

	for _, field := range fields {
		fieldNode, ok := n.get(field.key)
		if !ok {
			continue
		}
		e, err := parseExpr(fieldNode)
		if err != nil {
			return nil, err
		}
		value, ok := expr.FoldConstants(e).(expr.Value)
		if !ok || !expr.IsSimple(value) {
			return nil, invalid(fieldNode.pos, "%s must be a constant or a parameter with a constant number", field.key)
		}
		switch value.(type) {
		case expr.Constant, expr.ParamRef:
		default:
			return nil, invalid(fieldNode.pos, "%s must be a constant or a parameter with a constant number", field.key)
		}
		*field.value = value
	}

	if v.Div != nil && v.Mod != nil {
		return nil, invalid(n.pos, "div and mod cannot be used together")
	}
	return v, nil
}
