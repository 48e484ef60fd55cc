package actions

import (
	"testing"

	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSizes(t *testing.T) {
	ctx := newTestContext()
	ctx.TempParams.Save()

	grfInfo, err := NewGRFInfo(GRFID{'A', 'B', 'C', 'D'}, "name", "desc", pos)
	require.NoError(t, err)

	deactivation, err := NewDeactivation([]GRFID{{1, 2, 3, 4}, {5, 6, 7, 8}}, pos)
	require.NoError(t, err)

	stringDefinition, err := NewStringDefinition(0x00, 0x01, 0xD000, "abc", pos)
	require.NoError(t, err)

	data := "x"
	errorMessage, err := LowerErrorMessage(ctx, ErrorMessageDecl{
		Severity: SEVERITY_ERROR,
		MsgID:    2,
		Data:     &data,
		Params:   []expr.Expr{expr.NewParamRef(0x42)},
		Pos:      pos,
	})
	require.NoError(t, err)
	require.Len(t, errorMessage, 1)

	rangeReplace, err := LowerRangeReplace(ctx, []ReplaceBlock{{First: 10, Sprites: []string{"s1"}}, {First: 300, Sprites: []string{"s2", "s3"}}}, pos)
	require.NoError(t, err)

	//the expected sizes are the sums of the sizes of the fields.
	testCases := []struct {
		name   string
		record Sized
		size   int
	}{
		{"sprite count", NewSpriteCount(pos), 4},
		{"GRF info", grfInfo, 1 + 1 + 4 + (4 + 1) + (4 + 1)},
		{"parameter assignment with data", &ParamAssignment{Target: 0x40, Op: 1, Src1: 0x41, Src2: ACTION_D_DATA, Data: 5}, 1 + 4 + 4},
		{"parameter assignment", &ParamAssignment{Target: 0x40, Op: 1, Src1: 0x41, Src2: 0x42}, 1 + 4},
		{"skip", &Skip{Action: ACTION_SKIP_A, Condition: SkipCondition{Param: 0x40, VarSize: 2, Cond: COND_EQ}, Target: 1}, 1 + 1 + 1 + 1 + 2 + 1},
		{"deactivation", deactivation, 1 + 1 + 2*4},
		{"range replace", rangeReplace[0].(Sized), 1 + 1 + 2*(1+2)},
		{"sprite table", &SpriteTable{Feature: 0, NumSets: 1, NumSprites: 300}, 1 + 1 + 1 + 3},
		{"jump target", NewJumpTarget(0x10, pos), 1 + 1},
		{"string definition", stringDefinition, 1 + 1 + 1 + 1 + 2 + (3 + 1)},
		{"byte-patch table", NewBytePatchTable([]PatchRequest{{0x40, 1, 8}, {0x41, 4, 300}}, pos), 1 + (1 + 1 + 1) + (1 + 1 + 3) + 1},
		{"error message", errorMessage[0].(Sized), 1 + 1 + 1 + 1 + (1 + 1) + 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.size, testCase.record.Size())

			sprites := write(t, []Record{testCase.record})
			require.Len(t, sprites, 1)
			assert.Len(t, sprites[0], testCase.size)
		})
	}
}

func TestLowerProperties(t *testing.T) {

	t.Run("parameter value", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()

		records, err := LowerProperties(ctx, 0x00, 0x12, []Property{
			{Num: 0x09, Size: 2, Value: IndirectProperty{Expr: expr.NewParamRef(0x42)}},
		}, pos)
		require.NoError(t, err)

		sprites := finalizeAndWrite(t, ctx, records)
		assert.Equal(t, [][]byte{
			{0x06, 0x42, 0x02, 0x08, 0xFF},
			{0x00, 0x00, 0x01, 0x01, 0xFF, 0x12, 0x00, 0x09, 0x00, 0x00},
		}, sprites)
	})

	t.Run("patch offsets follow the preceding properties", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()

		records, err := LowerProperties(ctx, 0x00, 0x12, []Property{
			{Num: 0x08, Size: 4, Value: ConstantProperty{Value: 7}},
			{Num: 0x09, Size: 1, Value: ArrayProperty{Items: []int64{1, 2}}},
			{Num: 0x0A, Size: 1, Value: IndirectProperty{Expr: expr.NewBinOp(expr.Add, expr.NewParamRef(0x42), expr.NewConstant(1))}},
		}, pos)
		require.NoError(t, err)

		//tmp = param[0x42] + 1
		require.Len(t, records, 3)
		assert.Equal(t, []Kind{KindParamAssignment, KindBytePatchTable, KindPropertyTable}, kinds(records))
		patches := records[1].(*BytePatchTable).Patches
		assert.Equal(t, []PatchRequest{{Param: 0x40, Size: 1, Offset: 7 + 5 + 4 + 1}}, patches)

		sprites := finalizeAndWrite(t, ctx, records)
		assert.Equal(t, []byte{0x0D, 0x40, 0x01, 0x42, 0xFF, 0x01, 0x00, 0x00, 0x00}, sprites[0])
		assert.Equal(t, []byte{
			0x00, 0x00, 0x03, 0x01, 0xFF, 0x12, 0x00,
			0x08, 0x07, 0x00, 0x00, 0x00,
			0x09, 0x02, 0x01, 0x02,
			0x0A, 0x00,
		}, sprites[2])
	})

	t.Run("constant expressions are folded", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()

		records, err := LowerProperties(ctx, 0x00, 0x12, []Property{
			{Num: 0x08, Size: 1, Value: IndirectProperty{Expr: expr.NewBinOp(expr.Mul, expr.NewConstant(3), expr.NewConstant(4))}},
		}, pos)
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindPropertyTable}, kinds(records))
	})

	t.Run("strings are defined once", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()
		props := []Property{{Num: 0x08, Size: 2, Value: StringProperty{Ref: expr.NewStringRef("STR_NAME")}}}

		records, err := LowerProperties(ctx, 0x00, 0x12, props, pos)
		require.NoError(t, err)
		sprites := finalizeAndWrite(t, ctx, records)
		assert.Equal(t, [][]byte{
			{0x04, 0x00, 0x80, 0x01, 0x00, 0xD0, 'H', 'i', 0x00},
			{0x00, 0x00, 0x01, 0x01, 0xFF, 0x12, 0x00, 0x08, 0x00, 0xD0},
		}, sprites)

		records, err = LowerProperties(ctx, 0x00, 0x13, props, pos)
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindPropertyTable}, kinds(records))

		//another feature
		records, err = LowerProperties(ctx, 0x01, 0x13, props, pos)
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindStringDefinition, KindPropertyTable}, kinds(records))
	})

	t.Run("errors", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()

		_, err := LowerProperties(ctx, 0x00, 0x12, []Property{{Num: 0x08, Size: 1, Value: ConstantProperty{Value: 0x100}}}, pos)
		assert.ErrorIs(t, err, grferr.ErrRange)

		_, err = LowerProperties(ctx, 0x00, 0x12, []Property{{Num: 0x08, Size: 3, Value: ConstantProperty{Value: 1}}}, pos)
		assert.ErrorIs(t, err, grferr.ErrRange)

		_, err = LowerProperties(ctx, 0x00, 0x12, []Property{{Num: 0x08, Size: 1, Value: StringProperty{Ref: expr.NewStringRef("STR_NAME")}}}, pos)
		assert.ErrorIs(t, err, grferr.ErrRange)

		_, err = LowerProperties(ctx, 0x00, 0x12, []Property{{Num: 0x08, Size: 2, Value: StringProperty{Ref: expr.NewStringRef("STR_UNKNOWN")}}}, pos)
		assert.ErrorIs(t, err, grferr.ErrUnknownIdentifier)

		_, err = LowerProperties(ctx, 0x00, 0x10000, []Property{{Num: 0x08, Size: 1, Value: ConstantProperty{Value: 1}}}, pos)
		assert.ErrorIs(t, err, grferr.ErrRange)

		_, err = LowerProperties(ctx, 0x00, 0x12, []Property{{Num: 0x08, Size: 1, Value: IndirectProperty{Expr: expr.NewMachineVar(0x40, nil)}}}, pos)
		assert.ErrorIs(t, err, grferr.ErrTypeMismatch)
	})
}

func TestLowerParamAssignment(t *testing.T) {

	lower := func(t *testing.T, target, value expr.Expr) [][]byte {
		t.Helper()
		ctx := newTestContext()
		ctx.TempParams.Save()
		records, err := LowerParamAssignment(ctx, target, value, pos)
		require.NoError(t, err)
		return finalizeAndWrite(t, ctx, records)
	}

	t.Run("constant", func(t *testing.T) {
		sprites := lower(t, expr.NewConstant(0x20), expr.NewConstant(-1))
		assert.Equal(t, [][]byte{{0x0D, 0x20, 0x00, 0xFF, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}}, sprites)
	})

	t.Run("copy", func(t *testing.T) {
		sprites := lower(t, expr.NewConstant(0x20), expr.NewParamRef(0x21))
		assert.Equal(t, [][]byte{{0x0D, 0x20, 0x00, 0x21, 0x00}}, sprites)
	})

	t.Run("right shift", func(t *testing.T) {
		sprites := lower(t, expr.NewConstant(0x20), expr.NewBinOp(expr.ShrU, expr.NewParamRef(0x21), expr.NewConstant(2)))
		assert.Equal(t, [][]byte{{0x0D, 0x20, 0x05, 0x21, 0xFF, 0xFE, 0xFF, 0xFF, 0xFF}}, sprites)
	})

	t.Run("nested operations use temporary parameters", func(t *testing.T) {
		sum := expr.NewBinOp(expr.Add, expr.NewParamRef(0x21), expr.NewParamRef(0x22))
		sprites := lower(t, expr.NewConstant(0x20), expr.NewBinOp(expr.Mul, sum, expr.NewConstant(3)))
		assert.Equal(t, [][]byte{
			{0x0D, 0x40, 0x01, 0x21, 0x22},
			{0x0D, 0x20, 0x04, 0x40, 0xFF, 0x03, 0x00, 0x00, 0x00},
		}, sprites)
	})

	t.Run("computed target", func(t *testing.T) {
		sprites := lower(t, expr.NewParamRef(0x21), expr.NewConstant(1))
		assert.Equal(t, [][]byte{
			{0x06, 0x21, 0x01, 0x01, 0xFF},
			{0x0D, 0x00, 0x00, 0xFF, 0x00, 0x01, 0x00, 0x00, 0x00},
		}, sprites)
	})

	t.Run("errors", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()

		_, err := LowerParamAssignment(ctx, expr.NewConstant(0x100), expr.NewConstant(1), pos)
		assert.ErrorIs(t, err, grferr.ErrRange)

		_, err = LowerParamAssignment(ctx, expr.NewConstant(0x20), expr.NewBinOp(expr.Xor, expr.NewParamRef(1), expr.NewParamRef(2)), pos)
		assert.ErrorIs(t, err, grferr.ErrUnsupportedOperator)

		_, err = LowerParamAssignment(ctx, expr.NewConstant(0x20), expr.NewMachineVar(0x40, nil), pos)
		assert.ErrorIs(t, err, grferr.ErrTypeMismatch)
	})
}

func TestSpritesAndGraphics(t *testing.T) {
	ctx := newTestContext()

	sets, err := LowerSpriteSets(ctx, 0x00, []SpriteSet{
		{Name: "a", Sprites: []string{"s1", "s2"}},
		{Name: "b", Sprites: []string{"s3", "s4"}},
	}, pos)
	require.NoError(t, err)

	group, err := LowerSpriteGroup(ctx, SpriteGroupDecl{Name: "g", Feature: 0x00, Loaded: []string{"b"}, Loading: []string{"a"}, Pos: pos})
	require.NoError(t, err)

	graphics, err := LowerGraphics(ctx, Graphics{
		Feature: 0x00,
		IDs:     []int{5},
		Cargo:   []CargoGraphics{{Cargo: 3, Ref: "g"}},
		Default: "g",
		Pos:     pos,
	})
	require.NoError(t, err)

	records := append(append(sets, group...), graphics...)
	sprites := finalizeAndWrite(t, ctx, records)

	assert.Equal(t, [][]byte{
		{0x01, 0x00, 0x02, 0x02},
		{0xFD, 0x01, 0x00, 0x00, 0x00},
		{0xFD, 0x02, 0x00, 0x00, 0x00},
		{0xFD, 0x03, 0x00, 0x00, 0x00},
		{0xFD, 0x04, 0x00, 0x00, 0x00},
		{0x02, 0x00, 0x00, 0x01, 0x01, 0x01, 0x00, 0x00, 0x00},
		{0x03, 0x00, 0x01, 0x05, 0x01, 0x03, 0x00, 0x00, 0x00, 0x00},
	}, sprites)

	def, ok := ctx.Registry.Lookup("g")
	require.True(t, ok)
	assert.Equal(t, 2, def.TotalRefs())
	assert.True(t, ctx.Registry.IdPool(0x00).IsFree(def.ID()))

	t.Run("errors", func(t *testing.T) {
		ctx := newTestContext()

		_, err := LowerSpriteSets(ctx, 0x00, []SpriteSet{{Name: "a", Sprites: []string{"s1"}}, {Name: "b", Sprites: []string{"s1", "s2"}}}, pos)
		assert.ErrorIs(t, err, grferr.ErrRange)

		_, err = LowerSpriteSets(ctx, 0x00, []SpriteSet{{Name: "a", Sprites: []string{"unknown"}}}, pos)
		assert.ErrorIs(t, err, grferr.ErrUnknownIdentifier)

		_, err = LowerSpriteGroup(ctx, SpriteGroupDecl{Name: "g", Feature: 0x00, Loaded: []string{"a"}, Pos: pos})
		assert.ErrorIs(t, err, grferr.ErrUnknownIdentifier)

		_, err = LowerSpriteSets(ctx, 0x00, []SpriteSet{{Name: "a", Sprites: []string{"s1"}}}, pos)
		require.NoError(t, err)
		_, err = LowerSpriteGroup(ctx, SpriteGroupDecl{Name: "g", Feature: 0x00, Loaded: []string{"c"}, Pos: pos})
		assert.ErrorIs(t, err, grferr.ErrUnknownIdentifier)

		_, err = LowerGraphics(ctx, Graphics{Feature: 0x00, IDs: []int{1}, Default: "unknown", Pos: pos})
		assert.ErrorIs(t, err, grferr.ErrUnknownReference)
	})
}

func TestErrorMessages(t *testing.T) {

	t.Run("custom message", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()

		records, err := LowerErrorMessage(ctx, ErrorMessageDecl{
			Severity: SEVERITY_FATAL,
			Custom:   &expr.StringRef{Name: "STR_ERROR"},
			Pos:      pos,
		})
		require.NoError(t, err)

		sprites := finalizeAndWrite(t, ctx, records)
		assert.Equal(t, [][]byte{
			{0x0B, 0x03, 0x00, 0xFF, 'B', 'a', 'd', 0x00},
			{0x0B, 0x03, 0x01, 0xFF, 'M', 'a', 'l', 0x00},
		}, sprites)
	})

	t.Run("builtin message with parameters", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()
		data := "d"

		records, err := LowerErrorMessage(ctx, ErrorMessageDecl{
			Severity: SEVERITY_WARNING,
			MsgID:    1,
			Data:     &data,
			Params:   []expr.Expr{expr.NewParamRef(0x21), expr.NewBinOp(expr.Add, expr.NewParamRef(0x21), expr.NewConstant(1))},
			Pos:      pos,
		})
		require.NoError(t, err)

		sprites := finalizeAndWrite(t, ctx, records)
		assert.Equal(t, [][]byte{
			{0x0D, 0x40, 0x01, 0x21, 0xFF, 0x01, 0x00, 0x00, 0x00},
			{0x0B, 0x01, 0x7F, 0x01, 'd', 0x00, 0x21, 0x40},
		}, sprites)
	})

	t.Run("errors", func(t *testing.T) {
		ctx := newTestContext()
		ctx.TempParams.Save()

		_, err := LowerErrorMessage(ctx, ErrorMessageDecl{Severity: 4, Pos: pos})
		assert.ErrorIs(t, err, grferr.ErrRange)

		_, err = LowerErrorMessage(ctx, ErrorMessageDecl{Severity: 0, MsgID: 7, Pos: pos})
		assert.ErrorIs(t, err, grferr.ErrRange)

		_, err = LowerErrorMessage(ctx, ErrorMessageDecl{Params: []expr.Expr{expr.NewParamRef(1)}, Pos: pos})
		assert.ErrorIs(t, err, grferr.ErrTypeMismatch)
	})
}

func TestGRFID(t *testing.T) {
	id, err := ParseGRFID("ABCD", pos)
	require.NoError(t, err)
	assert.Equal(t, GRFID{'A', 'B', 'C', 'D'}, id)

	id, err = ParseGRFID("41420102", pos)
	require.NoError(t, err)
	assert.Equal(t, GRFID{'A', 'B', 1, 2}, id)
	assert.Equal(t, "41420102", id.String())

	_, err = ParseGRFID("ABC", pos)
	assert.ErrorIs(t, err, grferr.ErrTypeMismatch)

	_, err = ParseGRFID("4142010Z", pos)
	assert.ErrorIs(t, err, grferr.ErrTypeMismatch)
}
