package expr

import (
	"fmt"
	"strings"

	"github.com/inoxlang/grfc/internal/grfout"
)

const (
	VAR_CONSTANT          = 0x1A //the mask is the value
	VAR_PARAMETRIZED_LAST = 0x7B //parameter of the variable read is the last computed value
	VAR_LOAD_PERM         = 0x7C
	VAR_LOAD_TEMP         = 0x7D
	VAR_PROCEDURE_CALL    = 0x7E

	SHIFT_FLAG_CHAINED = 0x20 //another adjust follows
	SHIFT_FLAG_ADD_DIV = 0x40
	SHIFT_FLAG_ADD_MOD = 0x80
	SHIFT_MAX          = 0x1F
)

// FullMask returns the mask keeping all the bits of a value of the given size.
func FullMask(size int) int64 {
	switch size {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// MachineVar is a read of a variable exposed by the engine: ((var >> Shift) & Mask), then
// optionally (+ Add) and (/ Div) or (% Mod).
//
// Param is nil for variables without parameter, it is written as a single byte and must be a Value
// when the variable is written. Mask, Add, Div and Mod are Constants or ParamRefs with a constant
// number. A nil Mask is a full mask. Div and Mod are mutually exclusive.
type MachineVar struct {
	Num   int
	Param Expr
	Shift int
	Mask  Value
	Add   Value
	Div   Value
	Mod   Value
}

func (MachineVar) isExpr() {}

func NewMachineVar(num int, param Expr) MachineVar {
	return MachineVar{Num: num, Param: param}
}

// ConstantVar returns the variable whose value is v.
func ConstantVar(v int64) MachineVar {
	return MachineVar{Num: VAR_CONSTANT, Mask: Constant{Value: v}}
}

// ProcedureCall returns the variable calling the decision table ref.
func ProcedureCall(ref RecordRef) MachineVar {
	return MachineVar{Num: VAR_PROCEDURE_CALL, Param: ref}
}

func (v MachineVar) HasPostOp() bool {
	return v.Add != nil || v.Div != nil || v.Mod != nil
}

// MaskOrFull returns the mask of the variable, a nil mask is returned as a full mask for size.
func (v MachineVar) MaskOrFull(size int) Value {
	if v.Mask == nil {
		return Constant{Value: FullMask(size)}
	}
	return v.Mask
}

func (v MachineVar) Size(size int) int {
	n := 2 + size
	if v.Param != nil {
		n++
	}
	if v.HasPostOp() {
		n += 2 * size
	}
	return n
}

func (v MachineVar) Write(out grfout.Writer, size int) {
	v.WriteAdjust(out, size, true)
}

// WriteAdjust writes the variable as an adjust of a decision table, the chained flag is set on
// the shift byte if last is false.
func (v MachineVar) WriteAdjust(out grfout.Writer, size int, last bool) {
	if v.Div != nil && v.Mod != nil {
		panic(fmt.Errorf("variable 0x%02X has both a divisor and a modulo", v.Num))
	}
	if v.Shift < 0 || v.Shift > SHIFT_MAX {
		panic(fmt.Errorf("invalid shift %d for variable 0x%02X", v.Shift, v.Num))
	}

	out.PrintByte(v.Num)
	if v.Param != nil {
		param, ok := v.Param.(Value)
		if !ok {
			panic(fmt.Errorf("parameter of variable 0x%02X is not lowered: %s", v.Num, v.Param))
		}
		param.Write(out, 1)
	}

	shift := v.Shift
	if v.Mod != nil {
		shift |= SHIFT_FLAG_ADD_MOD
	} else if v.HasPostOp() {
		shift |= SHIFT_FLAG_ADD_DIV
	}
	if !last {
		shift |= SHIFT_FLAG_CHAINED
	}
	out.PrintByte(shift)
	v.MaskOrFull(size).Write(out, size)

	if !v.HasPostOp() {
		return
	}

	add := v.Add
	if add == nil {
		add = Constant{}
	}
	add.Write(out, size)

	switch {
	case v.Div != nil:
		v.Div.Write(out, size)
	case v.Mod != nil:
		v.Mod.Write(out, size)
	default:
		Constant{Value: 1}.Write(out, size)
	}
}

// Field is a value written at Offset bytes from the start of a variable.
type Field struct {
	Offset int
	Size   int
	Value  Value
}

// Fields returns the values written by WriteAdjust with their offsets, fields written as literals
// (missing add, implicit divisor) are not included.
func (v MachineVar) Fields(size int) []Field {
	var fields []Field
	offset := 1
	if v.Param != nil {
		if param, ok := v.Param.(Value); ok {
			fields = append(fields, Field{Offset: offset, Size: 1, Value: param})
		}
		offset++
	}
	offset++ //shift

	fields = append(fields, Field{Offset: offset, Size: size, Value: v.MaskOrFull(size)})
	offset += size

	if !v.HasPostOp() {
		return fields
	}
	if v.Add != nil {
		fields = append(fields, Field{Offset: offset, Size: size, Value: v.Add})
	}
	offset += size
	if v.Div != nil {
		fields = append(fields, Field{Offset: offset, Size: size, Value: v.Div})
	} else if v.Mod != nil {
		fields = append(fields, Field{Offset: offset, Size: size, Value: v.Mod})
	}
	return fields
}

func (v MachineVar) String() string {
	buf := strings.Builder{}
	if v.Num == VAR_CONSTANT && v.Mask != nil && !v.HasPostOp() {
		return v.Mask.String()
	}

	fmt.Fprintf(&buf, "var[0x%02X", v.Num)
	if v.Param != nil {
		fmt.Fprintf(&buf, ", %s", v.Param)
	}
	fmt.Fprintf(&buf, ", %d", v.Shift)
	if v.Mask != nil {
		fmt.Fprintf(&buf, ", %s", v.Mask)
	}
	buf.WriteString("]")

	if v.Add != nil {
		fmt.Fprintf(&buf, " + %s", v.Add)
	}
	if v.Div != nil {
		fmt.Fprintf(&buf, " / %s", v.Div)
	}
	if v.Mod != nil {
		fmt.Fprintf(&buf, " %% %s", v.Mod)
	}
	return buf.String()
}

// StoreTempSlot is the destination of a spilled sub expression. Register is -1 until a scratch
// register is assigned to the slot, the slot is shared by pointer with its LoadTempSlot.
type StoreTempSlot struct {
	Register int
}

func NewStoreTempSlot() *StoreTempSlot {
	return &StoreTempSlot{Register: -1}
}

func (*StoreTempSlot) isExpr() {}

func (s *StoreTempSlot) IsAssigned() bool {
	return s.Register >= 0
}

// Var returns the variable written for the slot: a constant whose value is the register.
func (s *StoreTempSlot) Var() MachineVar {
	return MachineVar{Num: VAR_CONSTANT, Mask: Constant{Value: int64(s.Register)}}
}

func (s *StoreTempSlot) Size(size int) int {
	return s.Var().Size(size)
}

func (s *StoreTempSlot) Write(out grfout.Writer, size int) {
	s.WriteAdjust(out, size, true)
}

func (s *StoreTempSlot) WriteAdjust(out grfout.Writer, size int, last bool) {
	if !s.IsAssigned() {
		panic(fmt.Errorf("temporary slot written without register"))
	}
	s.Var().WriteAdjust(out, size, last)
}

func (s *StoreTempSlot) String() string {
	if !s.IsAssigned() {
		return "store_tmp(?)"
	}
	return fmt.Sprintf("store_tmp(0x%02X)", s.Register)
}

// LoadTempSlot reads the register of Store.
type LoadTempSlot struct {
	Store *StoreTempSlot
}

func NewLoadTempSlot(store *StoreTempSlot) LoadTempSlot {
	return LoadTempSlot{Store: store}
}

func (LoadTempSlot) isExpr() {}

func (l LoadTempSlot) Var() MachineVar {
	return MachineVar{Num: VAR_LOAD_TEMP, Param: Constant{Value: int64(l.Store.Register)}}
}

func (l LoadTempSlot) Size(size int) int {
	return l.Var().Size(size)
}

func (l LoadTempSlot) Write(out grfout.Writer, size int) {
	l.WriteAdjust(out, size, true)
}

func (l LoadTempSlot) WriteAdjust(out grfout.Writer, size int, last bool) {
	if !l.Store.IsAssigned() {
		panic(fmt.Errorf("temporary slot read without register"))
	}
	l.Var().WriteAdjust(out, size, last)
}

func (l LoadTempSlot) String() string {
	if !l.Store.IsAssigned() {
		return "load_tmp(?)"
	}
	return fmt.Sprintf("load_tmp(0x%02X)", l.Store.Register)
}

// Adjust is implemented by the values that can be operands of a decision table.
type Adjust interface {
	Value
	WriteAdjust(out grfout.Writer, size int, last bool)
}

var _ = []Adjust{MachineVar{}, (*StoreTempSlot)(nil), LoadTempSlot{}}
