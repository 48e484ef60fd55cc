// Package expr contains the compile-time values and expressions handled by the backend, values
// know how to write themselves in the byte layout of the output format.
package expr

import (
	"fmt"

	"github.com/inoxlang/grfc/internal/grfout"
)

var (
	_ = []Value{Constant{}, ParamRef{}, MachineVar{}, (*StoreTempSlot)(nil), LoadTempSlot{}, StringRef{}, RecordRef{}}
	_ = []Expr{BinOp{}, Not{}}
)

// Expr is a node of an expression tree, leaves are values.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Value is an expression leaf that can be written. Size(size) must return exactly the number of
// bytes written by Write(out, size), sprites are sized with Size before anything is written.
type Value interface {
	Expr
	Size(size int) int
	Write(out grfout.Writer, size int)
}

// Constant is an integer known at compile time, it is written truncated to 32 bits.
type Constant struct {
	Value int64
}

func NewConstant(v int64) Constant {
	return Constant{Value: v}
}

func (Constant) isExpr() {}

// Truncated returns the value with 32-bit signed semantics.
func (c Constant) Truncated() int64 {
	return int64(int32(c.Value))
}

func (c Constant) Size(size int) int {
	return size
}

func (c Constant) Write(out grfout.Writer, size int) {
	out.PrintVar(c.Value, size)
}

func (c Constant) String() string {
	if c.Value < 0 {
		return fmt.Sprintf("%d", c.Value)
	}
	return fmt.Sprintf("0x%X", c.Value)
}

// ParamRef is a read of the parameter whose number is Param. Only parameters with a constant number
// can be written: the value is unknown at compile time, a zero placeholder is written and patched
// by a byte-patch table.
type ParamRef struct {
	Param Expr
}

func NewParamRef(param int) ParamRef {
	return ParamRef{Param: Constant{Value: int64(param)}}
}

func (ParamRef) isExpr() {}

// ConstantIndex returns the number of the parameter if it is known at compile time.
func (p ParamRef) ConstantIndex() (int, bool) {
	c, ok := p.Param.(Constant)
	if !ok {
		return 0, false
	}
	return int(c.Value), true
}

func (p ParamRef) Size(size int) int {
	return size
}

func (p ParamRef) Write(out grfout.Writer, size int) {
	if _, ok := p.ConstantIndex(); !ok {
		panic(fmt.Errorf("parameter reference with a computed number cannot be written: %s", p))
	}
	out.PrintVar(0, size)
}

func (p ParamRef) String() string {
	return fmt.Sprintf("param[%s]", p.Param)
}

// StringRef references an entry of the string table, ID is -1 until the string is resolved.
type StringRef struct {
	Name string
	ID   int
}

func NewStringRef(name string) StringRef {
	return StringRef{Name: name, ID: -1}
}

func (StringRef) isExpr() {}

func (s StringRef) WithID(id int) StringRef {
	s.ID = id
	return s
}

func (s StringRef) Size(size int) int {
	return size
}

func (s StringRef) Write(out grfout.Writer, size int) {
	if s.ID < 0 {
		panic(fmt.Errorf("string %s is written before being resolved", s.Name))
	}
	out.PrintVar(int64(s.ID), size)
}

func (s StringRef) String() string {
	return fmt.Sprintf("string(%s)", s.Name)
}

// RecordRef references a named record (a decision table or a sprite group), the name is bound
// to the numeric id of the record during finalization: ID is -1 until then.
type RecordRef struct {
	Name string
	ID   int
}

func NewRecordRef(name string) RecordRef {
	return RecordRef{Name: name, ID: -1}
}

func (RecordRef) isExpr() {}

func (r RecordRef) WithID(id int) RecordRef {
	r.ID = id
	return r
}

func (r RecordRef) IsBound() bool {
	return r.ID >= 0
}

func (r RecordRef) Size(size int) int {
	return size
}

func (r RecordRef) Write(out grfout.Writer, size int) {
	if r.ID < 0 {
		panic(fmt.Errorf("reference to %s is written before being bound", r.Name))
	}
	out.PrintVar(int64(r.ID), size)
}

func (r RecordRef) String() string {
	return r.Name
}

// BinOp is a binary operation, Left and Right are never nil.
type BinOp struct {
	Op    Op
	Left  Expr
	Right Expr
}

func NewBinOp(op Op, left, right Expr) BinOp {
	return BinOp{Op: op, Left: left, Right: right}
}

func (BinOp) isExpr() {}

func (b BinOp) String() string {
	switch b.Op {
	case Min, Max, MinU, MaxU, Rot, Cmp, CmpU, HasBit, NotHasBit, StoTmp, StoPerm:
		return fmt.Sprintf("%s(%s, %s)", b.Op, b.Left, b.Right)
	}
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Not is a logical negation, it is only valid in conditions.
type Not struct {
	Operand Expr
}

func (Not) isExpr() {}

func (n Not) String() string {
	return fmt.Sprintf("!%s", n.Operand)
}

// ConstantValue returns the value of e if e is a constant.
func ConstantValue(e Expr) (int64, bool) {
	c, ok := e.(Constant)
	if !ok {
		return 0, false
	}
	return c.Value, true
}

// IsSimple reports whether e can be used as an operand of a decision table without evaluating
// anything before it.
func IsSimple(e Expr) bool {
	switch e := e.(type) {
	case Constant, StringRef, LoadTempSlot, *StoreTempSlot:
		return true
	case ParamRef:
		_, ok := e.ConstantIndex()
		return ok
	case RecordRef:
		return true
	case MachineVar:
		return e.Param == nil || IsSimple(e.Param)
	}
	return false
}

// FoldConstants returns e with every operation on two constants computed.
func FoldConstants(e Expr) Expr {
	switch e := e.(type) {
	case BinOp:
		left := FoldConstants(e.Left)
		right := FoldConstants(e.Right)
		l, lok := ConstantValue(left)
		r, rok := ConstantValue(right)
		if lok && rok {
			if v, ok := e.Op.Eval(l, r); ok {
				return Constant{Value: v}
			}
		}
		return BinOp{Op: e.Op, Left: left, Right: right}
	case Not:
		operand := FoldConstants(e.Operand)
		if v, ok := ConstantValue(operand); ok {
			if v == 0 {
				return Constant{Value: 1}
			}
			return Constant{Value: 0}
		}
		return Not{Operand: operand}
	case ParamRef:
		return ParamRef{Param: FoldConstants(e.Param)}
	case MachineVar:
		if e.Param != nil {
			e.Param = FoldConstants(e.Param)
		}
		return e
	}
	return e
}

// Walk calls fn for e and all its sub expressions in depth-first order.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	switch e := e.(type) {
	case BinOp:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case Not:
		Walk(e.Operand, fn)
	case ParamRef:
		Walk(e.Param, fn)
	case MachineVar:
		if e.Param != nil {
			Walk(e.Param, fn)
		}
	}
}
