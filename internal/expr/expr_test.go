package expr

import (
	"testing"

	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/stretchr/testify/assert"
)

func written(v Value, size int) []byte {
	r := grfout.ValueRecorder()
	v.Write(r, size)
	return r.Bytes()
}

func TestValueSize(t *testing.T) {
	assigned := &StoreTempSlot{Register: 0x81}

	values := map[string]Value{
		"constant":          NewConstant(5),
		"negative constant": NewConstant(-1),
		"large constant":    NewConstant(0x1_2345_6789),
		"param":             NewParamRef(0x42),
		"string":            NewStringRef("STR_NAME").WithID(0xD000),
		"record":            NewRecordRef("switch").WithID(3),
		"variable":          NewMachineVar(0x0C, nil),
		"variable with param": MachineVar{
			Num: 0x60, Param: NewConstant(2), Shift: 4, Mask: NewConstant(0xF),
		},
		"variable with add": MachineVar{
			Num: 0x0C, Add: NewConstant(3),
		},
		"variable with div": MachineVar{
			Num: 0x0C, Add: NewConstant(3), Div: NewConstant(7),
		},
		"variable with mod": MachineVar{
			Num: 0x0C, Mod: NewConstant(7),
		},
		"variable with patched mask": MachineVar{
			Num: 0x1A, Mask: NewParamRef(3),
		},
		"procedure call":  ProcedureCall(NewRecordRef("callee").WithID(9)),
		"constant var":    ConstantVar(0x1234),
		"store temp slot": assigned,
		"load temp slot":  NewLoadTempSlot(assigned),
	}

	for name, value := range values {
		t.Run(name, func(t *testing.T) {
			for _, size := range []int{1, 2, 4} {
				assert.Len(t, written(value, size), value.Size(size), "size %d", size)
			}
		})
	}
}

func TestMachineVarWrite(t *testing.T) {

	t.Run("plain variable", func(t *testing.T) {
		v := NewMachineVar(0x0C, nil)
		assert.Equal(t, []byte{0x0C, 0x00, 0xFF, 0xFF}, written(v, 2))
	})

	t.Run("add", func(t *testing.T) {
		v := MachineVar{Num: 0x0C, Add: NewConstant(3)}
		assert.Equal(t, []byte{0x0C, 0x40, 0xFF, 0x03, 0x01}, written(v, 1))
	})

	t.Run("mod without add", func(t *testing.T) {
		v := MachineVar{Num: 0x0C, Mod: NewConstant(5)}
		assert.Equal(t, []byte{0x0C, 0x80, 0xFF, 0x00, 0x05}, written(v, 1))
	})

	t.Run("chained", func(t *testing.T) {
		v := MachineVar{Num: 0x60, Param: NewConstant(1), Shift: 8, Mask: NewConstant(0xF)}
		r := grfout.ValueRecorder()
		v.WriteAdjust(r, 1, false)
		assert.Equal(t, []byte{0x60, 0x01, 0x28, 0x0F}, r.Bytes())
	})

	t.Run("temp slots", func(t *testing.T) {
		store := NewStoreTempSlot()
		load := NewLoadTempSlot(store)

		assert.Panics(t, func() {
			written(store, 1)
		})
		assert.Panics(t, func() {
			written(load, 1)
		})

		store.Register = 0x85
		assert.Equal(t, []byte{0x1A, 0x00, 0x85, 0x00}, written(store, 2))
		assert.Equal(t, []byte{0x7D, 0x85, 0x00, 0xFF, 0xFF}, written(load, 2))
	})

	t.Run("divisor and modulo", func(t *testing.T) {
		v := MachineVar{Num: 0x0C, Div: NewConstant(2), Mod: NewConstant(3)}
		assert.Panics(t, func() {
			written(v, 1)
		})
	})

	t.Run("unbound reference", func(t *testing.T) {
		assert.Panics(t, func() {
			written(ProcedureCall(NewRecordRef("callee")), 1)
		})
	})
}

func TestMachineVarFields(t *testing.T) {
	v := MachineVar{Num: 0x60, Param: NewConstant(1), Mask: NewParamRef(4), Add: NewParamRef(5), Div: NewConstant(3)}
	fields := v.Fields(2)

	if !assert.Len(t, fields, 4) {
		return
	}
	assert.Equal(t, 1, fields[0].Offset)
	assert.Equal(t, 3, fields[1].Offset)
	assert.Equal(t, NewParamRef(4), fields[1].Value)
	assert.Equal(t, 5, fields[2].Offset)
	assert.Equal(t, NewParamRef(5), fields[2].Value)
	assert.Equal(t, 7, fields[3].Offset)

	//the last field ends with the variable
	last := fields[len(fields)-1]
	assert.Equal(t, v.Size(2), last.Offset+last.Size)
}

func TestOps(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		for op, name := range opNames {
			parsed, ok := ParseOp(name)
			assert.True(t, ok)
			assert.Equal(t, op, parsed)
		}
	})

	t.Run("eval", func(t *testing.T) {
		cases := []struct {
			op          Op
			left, right int64
			result      int64
			ok          bool
		}{
			{Add, 0x7FFFFFFF, 1, -0x80000000, true},
			{Sub, 1, 2, -1, true},
			{Div, 7, 0, 0, false},
			{Div, -7, 2, -3, true},
			{DivU, -2, 2, 0x7FFFFFFF, true},
			{Mod, -7, 2, -1, true},
			{MinU, -1, 3, 3, true},
			{Min, -1, 3, -1, true},
			{ShrU, -1, 28, 0xF, true},
			{Shr, -16, 2, -4, true},
			{Lt, 1, 2, 1, true},
			{HasBit, 4, 2, 1, true},
			{NotHasBit, 4, 2, 0, true},
			{Rot, 1, 1, 0, false},
		}
		for _, testCase := range cases {
			result, ok := testCase.op.Eval(testCase.left, testCase.right)
			assert.Equal(t, testCase.ok, ok, testCase.op.String())
			assert.Equal(t, testCase.result, result, testCase.op.String())
		}
	})

	t.Run("codes", func(t *testing.T) {
		code, ok := Shr.VarAction2Code()
		assert.True(t, ok)
		assert.Equal(t, 0x16, code)

		_, ok = Eq.VarAction2Code()
		assert.False(t, ok)

		_, ok = Xor.ActionDCode()
		assert.False(t, ok)
	})
}

func TestFoldConstants(t *testing.T) {
	v := NewMachineVar(0x0C, nil)

	folded := FoldConstants(NewBinOp(Add, v, NewBinOp(Mul, NewConstant(2), NewConstant(3))))
	assert.Equal(t, NewBinOp(Add, v, NewConstant(6)), folded)

	assert.Equal(t, NewConstant(0), FoldConstants(Not{Operand: NewConstant(4)}))

	//division by zero is left to the backend
	div := NewBinOp(Div, NewConstant(1), NewConstant(0))
	assert.Equal(t, div, FoldConstants(div))
}

func TestIsSimple(t *testing.T) {
	assert.True(t, IsSimple(NewConstant(1)))
	assert.True(t, IsSimple(NewParamRef(1)))
	assert.False(t, IsSimple(ParamRef{Param: NewMachineVar(0x0C, nil)}))
	assert.True(t, IsSimple(NewMachineVar(0x60, NewConstant(1))))
	assert.True(t, IsSimple(NewMachineVar(0x60, NewParamRef(1))))
	assert.False(t, IsSimple(NewMachineVar(0x60, NewBinOp(Add, NewConstant(1), NewMachineVar(0x0C, nil)))))
	assert.False(t, IsSimple(NewBinOp(Add, NewConstant(1), NewConstant(2))))
}
