package expr

import "fmt"

type Op int

const (
	Add Op = iota + 1
	Sub
	Mul
	Div
	DivU
	Mod
	ModU
	And
	Or
	Xor
	Min
	Max
	MinU
	MaxU
	Shl
	Shr
	ShrU
	Rot
	Cmp
	CmpU

	//comparisons, only valid in conditions and before the comparison rewriting of decision tables.
	Eq
	Ne
	Lt
	Le
	Gt
	Ge

	//bit tests, only valid in conditions.
	HasBit
	NotHasBit

	//pseudo operators of the variable machine.
	StoTmp
	StoPerm
	Val2
)

var opNames = map[Op]string{
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Div:       "/",
	DivU:      "/u",
	Mod:       "%",
	ModU:      "%u",
	And:       "&",
	Or:        "|",
	Xor:       "^",
	Min:       "min",
	Max:       "max",
	MinU:      "min_u",
	MaxU:      "max_u",
	Shl:       "<<",
	Shr:       ">>",
	ShrU:      ">>>",
	Rot:       "rotate",
	Cmp:       "cmp",
	CmpU:      "cmp_u",
	Eq:        "==",
	Ne:        "!=",
	Lt:        "<",
	Le:        "<=",
	Gt:        ">",
	Ge:        ">=",
	HasBit:    "hasbit",
	NotHasBit: "!hasbit",
	StoTmp:    "STO_TMP",
	StoPerm:   "STO_PERM",
	Val2:      "VAL2",
}

var opsByName map[string]Op

func init() {
	opsByName = make(map[string]Op, len(opNames))
	for op, name := range opNames {
		opsByName[name] = op
	}
}

// ParseOp returns the operator named name, names are the ones returned by Op.String.
func ParseOp(name string) (Op, bool) {
	op, ok := opsByName[name]
	return op, ok
}

func (op Op) String() string {
	name, ok := opNames[op]
	if !ok {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return name
}

// VarAction2Code returns the byte encoding op in the operand stream of a decision table.
func (op Op) VarAction2Code() (int, bool) {
	switch op {
	case Add:
		return 0x00, true
	case Sub:
		return 0x01, true
	case Min:
		return 0x02, true
	case Max:
		return 0x03, true
	case MinU:
		return 0x04, true
	case MaxU:
		return 0x05, true
	case Div:
		return 0x06, true
	case Mod:
		return 0x07, true
	case DivU:
		return 0x08, true
	case ModU:
		return 0x09, true
	case Mul:
		return 0x0A, true
	case And:
		return 0x0B, true
	case Or:
		return 0x0C, true
	case Xor:
		return 0x0D, true
	case StoTmp:
		return 0x0E, true
	case Val2:
		return 0x0F, true
	case StoPerm:
		return 0x10, true
	case Rot:
		return 0x11, true
	case Cmp:
		return 0x12, true
	case CmpU:
		return 0x13, true
	case Shl:
		return 0x14, true
	case ShrU:
		return 0x15, true
	case Shr:
		return 0x16, true
	}
	return 0, false
}

// ActionDCode returns the byte encoding op in a parameter assignment. Shift operators share the
// code of a left shift: right shifts are encoded with a negated shift count.
func (op Op) ActionDCode() (int, bool) {
	switch op {
	case Add:
		return 0x01, true
	case Sub:
		return 0x02, true
	case Mul:
		return 0x04, true
	case Shl, ShrU:
		return 0x05, true
	case Shr:
		return 0x06, true
	case And:
		return 0x07, true
	case Or:
		return 0x08, true
	case DivU:
		return 0x09, true
	case Div:
		return 0x0A, true
	case ModU:
		return 0x0B, true
	case Mod:
		return 0x0C, true
	}
	return 0, false
}

func (op Op) IsCommutative() bool {
	switch op {
	case Add, Mul, And, Or, Xor, Min, Max, MinU, MaxU, Eq, Ne:
		return true
	}
	return false
}

func (op Op) IsComparison() bool {
	switch op {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return true
	}
	return false
}

// Eval computes op on two constants with 32-bit signed semantics, ok is false for operators
// that cannot be computed at compile time and for divisions by zero.
func (op Op) Eval(left, right int64) (result int64, ok bool) {
	l, r := int32(left), int32(right)
	lu, ru := uint32(left), uint32(right)

	b2i := func(b bool) int64 {
		if b {
			return 1
		}
		return 0
	}

	switch op {
	case Add:
		return int64(l + r), true
	case Sub:
		return int64(l - r), true
	case Mul:
		return int64(l * r), true
	case Div:
		if r == 0 {
			return 0, false
		}
		return int64(l / r), true
	case DivU:
		if ru == 0 {
			return 0, false
		}
		return int64(int32(lu / ru)), true
	case Mod:
		if r == 0 {
			return 0, false
		}
		return int64(l % r), true
	case ModU:
		if ru == 0 {
			return 0, false
		}
		return int64(int32(lu % ru)), true
	case And:
		return int64(l & r), true
	case Or:
		return int64(l | r), true
	case Xor:
		return int64(l ^ r), true
	case Min:
		return int64(min(l, r)), true
	case Max:
		return int64(max(l, r)), true
	case MinU:
		return int64(int32(min(lu, ru))), true
	case MaxU:
		return int64(int32(max(lu, ru))), true
	case Shl:
		return int64(int32(lu << (ru & 31))), true
	case Shr:
		return int64(l >> (ru & 31)), true
	case ShrU:
		return int64(int32(lu >> (ru & 31))), true
	case Eq:
		return b2i(l == r), true
	case Ne:
		return b2i(l != r), true
	case Lt:
		return b2i(l < r), true
	case Le:
		return b2i(l <= r), true
	case Gt:
		return b2i(l > r), true
	case Ge:
		return b2i(l >= r), true
	case HasBit:
		return b2i(lu&(1<<(ru&31)) != 0), true
	case NotHasBit:
		return b2i(lu&(1<<(ru&31)) == 0), true
	}
	return 0, false
}
