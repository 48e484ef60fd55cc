package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const (
	//02 feature id type
	DECISION_TABLE_HEADER_SIZE = 4

	DECISION_TABLE_TYPE_BYTE  = 0x81
	DECISION_TABLE_TYPE_WORD  = 0x85
	DECISION_TABLE_TYPE_DWORD = 0x89
	DECISION_TABLE_RELATED    = 0x01 //added to the type byte for the related object

	CALLBACK_RESULT_FLAG = 0x8000
	MAX_CALLBACK_RESULT  = 0x7FFF
	MAX_RANGES           = 0xFF
)

// StreamItem is an element of the operand stream of a decision table: an operator or an operand.
type StreamItem struct {
	Op      expr.Op //zero for operands
	Operand expr.Adjust
}

func (i StreamItem) IsOp() bool {
	return i.Op != 0
}

// opStream is a lowered expression, patch offsets are relative to the start of the stream.
type opStream struct {
	varSize int
	items   []StreamItem
	patches []PatchRequest
	size    int
}

func (s *opStream) appendOp(op expr.Op) {
	if _, ok := op.VarAction2Code(); !ok {
		panic(grferr.New(grferr.ErrUnsupportedOperator, srcpos.Position{}, "%s has no encoding", op))
	}
	s.items = append(s.items, StreamItem{Op: op})
	s.size++
}

func (s *opStream) appendOperand(operand expr.Adjust) {
	s.patches = append(s.patches, patchesOf(operand, s.varSize, s.size)...)
	s.items = append(s.items, StreamItem{Operand: operand})
	s.size += operand.Size(s.varSize)
}

// appendStream appends other, its patch offsets are shifted by the size of s.
func (s *opStream) appendStream(other opStream) {
	for _, patch := range other.patches {
		patch.Offset += s.size
		s.patches = append(s.patches, patch)
	}
	s.items = append(s.items, other.items...)
	s.size += other.size
}

// VarAction2Expr is an expression lowered for a decision table.
type VarAction2Expr struct {
	Extra   []Record       //records computing temporary parameters, to output before the table
	Patches []PatchRequest //offsets are relative to the start of Stream
	Stream  []StreamItem
	Size    int //size of Stream in bytes
}

type varAction2Builder struct {
	ctx     *Context
	from    *Definition
	feature int
	varSize int
	pos     srcpos.Position
}

// BuildVarAction2 lowers e into the operand stream of a decision table. from is the definition of
// the table, references to other records are recorded as references of from.
func BuildVarAction2(ctx *Context, from *Definition, feature int, e expr.Expr, varSize int, pos srcpos.Position) (*VarAction2Expr, error) {
	switch varSize {
	case 1, 2, 4:
	default:
		return nil, grferr.New(grferr.ErrRange, pos, "invalid variable size %d", varSize)
	}

	builder := &varAction2Builder{
		ctx:     ctx,
		from:    from,
		feature: feature,
		varSize: varSize,
		pos:     pos,
	}

	stream, extra, err := builder.lower(simplifyForVarAction2(e, varSize))
	if err != nil {
		return nil, err
	}

	return &VarAction2Expr{
		Extra:   extra,
		Patches: stream.patches,
		Stream:  stream.items,
		Size:    stream.size,
	}, nil
}

func (b *varAction2Builder) newStream() opStream {
	return opStream{varSize: b.varSize}
}

// lower returns the stream computing e and the records that must be output before the decision table.
func (b *varAction2Builder) lower(e expr.Expr) (opStream, []Record, error) {
	stream := b.newStream()

	switch e := e.(type) {
	case expr.Constant:
		stream.appendOperand(expr.ConstantVar(e.Value))
		return stream, nil, nil
	case expr.ParamRef:
		records, param, err := patchSource(b.ctx, e, b.pos)
		if err != nil {
			return stream, nil, err
		}
		stream.appendOperand(expr.MachineVar{Num: expr.VAR_CONSTANT, Mask: expr.NewParamRef(param)})
		return stream, records, nil
	case expr.StringRef:
		ref, records, err := resolveString(b.ctx, b.feature, e, b.pos)
		if err != nil {
			return stream, nil, err
		}
		stream.appendOperand(expr.ConstantVar(int64(ref.ID)))
		return stream, records, nil
	case expr.RecordRef:
		if _, err := b.ctx.Registry.AddRef(b.from, e.Name, b.feature, b.pos); err != nil {
			return stream, nil, err
		}
		stream.appendOperand(expr.ProcedureCall(expr.NewRecordRef(e.Name)))
		return stream, nil, nil
	case expr.MachineVar:
		return b.lowerVar(e)
	case *expr.StoreTempSlot:
		stream.appendOperand(e)
		return stream, nil, nil
	case expr.LoadTempSlot:
		stream.appendOperand(e)
		return stream, nil, nil
	case expr.BinOp:
		return b.lowerBinOp(e)
	default:
		return stream, nil, grferr.New(grferr.ErrTypeMismatch, b.pos, "%s cannot be used in a decision table", e)
	}
}

func (b *varAction2Builder) lowerVar(v expr.MachineVar) (opStream, []Record, error) {
	stream := b.newStream()

	if v.Num < 0 || v.Num > 0xFF {
		return stream, nil, grferr.New(grferr.ErrRange, b.pos, "variable number 0x%X is out of range", v.Num)
	}
	if v.Div != nil && v.Mod != nil {
		return stream, nil, grferr.New(grferr.ErrTypeMismatch, b.pos, "variable 0x%02X has both a divisor and a modulo", v.Num)
	}
	for _, field := range []expr.Value{v.Mask, v.Add, v.Div, v.Mod} {
		if err := b.checkVarField(field); err != nil {
			return stream, nil, err
		}
	}

	switch param := v.Param.(type) {
	case nil:
	case expr.Constant:
		if param.Value < 0 || param.Value > 0xFF {
			return stream, nil, grferr.New(grferr.ErrRange, b.pos, "parameter 0x%X of variable 0x%02X is out of range", param.Value, v.Num)
		}
	case expr.ParamRef:
		if index, ok := param.ConstantIndex(); ok {
			if err := checkParamNumber(index, b.pos); err != nil {
				return stream, nil, err
			}
			break
		}
		return b.lowerParametrizedVar(v)
	default:
		return b.lowerParametrizedVar(v)
	}

	stream.appendOperand(v)
	return stream, nil, nil
}

// lowerParametrizedVar lowers a variable whose parameter is computed: the parameter is computed
// first and variable 0x7B reads the variable with the last computed value as parameter.
func (b *varAction2Builder) lowerParametrizedVar(v expr.MachineVar) (opStream, []Record, error) {
	if v.Num < 0x60 || v.Num > 0x7F {
		return b.newStream(), nil, grferr.New(grferr.ErrTypeMismatch, b.pos, "variable 0x%02X does not take a parameter", v.Num)
	}

	stream, records, err := b.lower(v.Param)
	if err != nil {
		return stream, nil, err
	}

	indirect := v
	indirect.Num = expr.VAR_PARAMETRIZED_LAST
	indirect.Param = expr.NewConstant(int64(v.Num))

	stream.appendOp(expr.Val2)
	stream.appendOperand(indirect)
	return stream, records, nil
}

func (b *varAction2Builder) checkVarField(field expr.Value) error {
	switch field := field.(type) {
	case nil, expr.Constant:
		return nil
	case expr.ParamRef:
		index, ok := field.ConstantIndex()
		if !ok {
			return grferr.New(grferr.ErrTypeMismatch, b.pos, "fields of variables cannot read parameters with a computed number")
		}
		return checkParamNumber(index, b.pos)
	default:
		return grferr.New(grferr.ErrTypeMismatch, b.pos, "invalid variable field: %s", field)
	}
}

// lowerBinOp lowers (left <op> right). A right operand that is not simple is computed first and
// spilled to a scratch register: <right> STO_TMP <slot> VAL2 <left> <op> <load slot>.
func (b *varAction2Builder) lowerBinOp(binop expr.BinOp) (opStream, []Record, error) {
	if _, ok := binop.Op.VarAction2Code(); !ok {
		return b.newStream(), nil, grferr.New(grferr.ErrUnsupportedOperator, b.pos, "operator %s is not supported in decision tables", binop.Op)
	}

	stream := b.newStream()

	right, records, err := b.lower(binop.Right)
	if err != nil {
		return stream, nil, err
	}

	if !expr.IsSimple(binop.Right) {
		store := expr.NewStoreTempSlot()
		stream.appendStream(right)
		stream.appendOp(expr.StoTmp)
		stream.appendOperand(store)
		stream.appendOp(expr.Val2)

		right = b.newStream()
		right.appendOperand(expr.NewLoadTempSlot(store))
	}

	left, leftRecords, err := b.lower(binop.Left)
	if err != nil {
		return stream, nil, err
	}
	records = append(records, leftRecords...)

	stream.appendStream(left)
	stream.appendOp(binop.Op)
	stream.appendStream(right)
	return stream, records, nil
}

// Switch is a decision table: Expr is evaluated and the first range containing the value selects
// the result. Results are callback results (constants), references to named records or expressions,
// each expression result is lowered to an additional decision table returning the computed value.
type Switch struct {
	Name    string
	Feature int
	Related bool
	VarSize int
	Expr    expr.Expr
	Ranges  []SwitchRange
	Default expr.Expr
	Pos     srcpos.Position

	returnComputed bool
}

type SwitchRange struct {
	Min, Max int64
	Result   expr.Expr
	Pos      srcpos.Position
}

type tableResult struct {
	callback int
	ref      expr.RecordRef
	isRef    bool
}

func (r tableResult) word() int {
	if r.isRef {
		return r.ref.ID
	}
	return r.callback | CALLBACK_RESULT_FLAG
}

type tableRange struct {
	min, max int64
	result   tableResult
}

// DecisionTable (variational action 2) selects a sprite group or a callback result from the value
// of an expression.
type DecisionTable struct {
	recordBase
	Def     *Definition
	Feature int
	Related bool
	VarSize int

	stream        []StreamItem
	streamSize    int
	ranges        []tableRange
	defaultResult tableResult
}

func (*DecisionTable) Kind() Kind {
	return KindDecisionTable
}

func (t *DecisionTable) typeByte() int {
	typ := DECISION_TABLE_TYPE_BYTE
	switch t.VarSize {
	case 2:
		typ = DECISION_TABLE_TYPE_WORD
	case 4:
		typ = DECISION_TABLE_TYPE_DWORD
	}
	if t.Related {
		typ += DECISION_TABLE_RELATED
	}
	return typ
}

func (t *DecisionTable) Size() int {
	return DECISION_TABLE_HEADER_SIZE + t.streamSize + 1 + len(t.ranges)*(2+2*t.VarSize) + 2
}

// Stream returns the operand stream of the table.
func (t *DecisionTable) Stream() []StreamItem {
	return t.stream
}

func (t *DecisionTable) RangeCount() int {
	return len(t.ranges)
}

func (t *DecisionTable) Bind(ctx *Context) error {
	//references are consumed before the table gets its id: the table can reuse the id of a record
	//it references for the last time.
	bindRef := func(ref expr.RecordRef) (expr.RecordRef, error) {
		return ctx.Registry.BindRef(ref, t.pos)
	}

	for i, item := range t.stream {
		v, ok := item.Operand.(expr.MachineVar)
		if !ok || v.Num != expr.VAR_PROCEDURE_CALL {
			continue
		}
		ref, ok := v.Param.(expr.RecordRef)
		if !ok {
			continue
		}
		bound, err := bindRef(ref)
		if err != nil {
			return err
		}
		v.Param = bound
		t.stream[i].Operand = v
	}

	for i, r := range t.ranges {
		if !r.result.isRef {
			continue
		}
		bound, err := bindRef(r.result.ref)
		if err != nil {
			return err
		}
		t.ranges[i].result.ref = bound
	}

	if t.defaultResult.isRef {
		bound, err := bindRef(t.defaultResult.ref)
		if err != nil {
			return err
		}
		t.defaultResult.ref = bound
	}

	_, err := ctx.Registry.Bind(t.Def, t.pos)
	return err
}

func (t *DecisionTable) PrepareOutput(ctx *Context) error {
	return assignScratchRegisters(ctx, t)
}

func (t *DecisionTable) Write(out grfout.Output) {
	writePseudoSprite(out, t.Size(), func(w grfout.Writer) {
		w.PrintByte(0x02)
		w.PrintByte(t.Feature)
		w.PrintByte(t.Def.ID())
		w.PrintByte(t.typeByte())
		w.Newline(t.Def.Name)

		for i, item := range t.stream {
			if item.IsOp() {
				code, _ := item.Op.VarAction2Code()
				w.PrintByte(code)
				continue
			}
			item.Operand.WriteAdjust(w, t.VarSize, i == len(t.stream)-1)
			w.Newline("")
		}

		w.PrintByte(len(t.ranges))
		for _, r := range t.ranges {
			w.PrintWord(r.result.word())
			w.PrintVar(r.min, t.VarSize)
			w.PrintVar(r.max, t.VarSize)
			w.Newline("")
		}
		w.PrintWord(t.defaultResult.word())
	})
}

// LowerSwitch returns the records of the decision table s: the tables of the expression results,
// the computations of temporary parameters, the byte-patch table and the decision table itself.
func LowerSwitch(ctx *Context, s Switch) ([]Record, error) {
	if err := checkFeature(s.Feature, s.Pos); err != nil {
		return nil, err
	}
	if len(s.Ranges) > MAX_RANGES {
		return nil, grferr.New(grferr.ErrRange, s.Pos, "too many ranges in %s: %d", s.Name, len(s.Ranges))
	}

	def, err := ctx.Registry.Define(s.Name, s.Feature, s.Pos)
	if err != nil {
		return nil, err
	}

	ctx.Logger.Debug().Str("switch", s.Name).Msg("lowering decision table")

	lowered, err := BuildVarAction2(ctx, def, s.Feature, s.Expr, s.VarSize, s.Pos)
	if err != nil {
		return nil, err
	}

	table := &DecisionTable{
		recordBase: recordBase{pos: s.Pos},
		Def:        def,
		Feature:    s.Feature,
		Related:    s.Related,
		VarSize:    s.VarSize,
		stream:     lowered.Stream,
		streamSize: lowered.Size,
	}

	var resultRecords []Record

	for i, r := range s.Ranges {
		rangePos := r.Pos
		if rangePos.IsZero() {
			rangePos = s.Pos.Sub("ranges[%d]", i)
		}
		if r.Min > r.Max {
			return nil, grferr.New(grferr.ErrRange, rangePos, "empty range %d..%d", r.Min, r.Max)
		}
		for _, bound := range []int64{r.Min, r.Max} {
			if err := checkFits(bound, s.VarSize, rangePos); err != nil {
				return nil, err
			}
		}

		result, records, err := resolveResult(ctx, def, s, r.Result, rangePos)
		if err != nil {
			return nil, err
		}
		resultRecords = append(resultRecords, records...)
		table.ranges = append(table.ranges, tableRange{min: r.Min, max: r.Max, result: result})
	}

	if s.returnComputed {
		table.defaultResult = tableResult{callback: 0}
	} else {
		result, records, err := resolveResult(ctx, def, s, s.Default, s.Pos.Sub("default"))
		if err != nil {
			return nil, err
		}
		resultRecords = append(resultRecords, records...)
		table.defaultResult = result
	}

	patches := make([]PatchRequest, 0, len(lowered.Patches))
	for _, patch := range lowered.Patches {
		patch.Offset += DECISION_TABLE_HEADER_SIZE
		patches = append(patches, patch)
	}

	records := append(resultRecords, lowered.Extra...)
	return append(records, withPatches(table, patches)...), nil
}

// resolveResult returns the result of a range or the default result of s.
func resolveResult(ctx *Context, def *Definition, s Switch, result expr.Expr, pos srcpos.Position) (tableResult, []Record, error) {
	if result == nil {
		return tableResult{}, nil, grferr.New(grferr.ErrInvalidRangeResult, pos, "missing result in %s", s.Name)
	}

	switch r := expr.FoldConstants(result).(type) {
	case expr.Constant:
		if r.Value < 0 || r.Value > MAX_CALLBACK_RESULT {
			return tableResult{}, nil, grferr.New(grferr.ErrRange, pos,
				"callback result %d is out of range [0, 0x%X]", r.Value, MAX_CALLBACK_RESULT)
		}
		return tableResult{callback: int(r.Value)}, nil, nil
	case expr.RecordRef:
		if _, err := ctx.Registry.AddRef(def, r.Name, s.Feature, pos); err != nil {
			return tableResult{}, nil, err
		}
		return tableResult{ref: expr.NewRecordRef(r.Name), isRef: true}, nil, nil
	case expr.BinOp, expr.MachineVar, expr.ParamRef, expr.Not:
		//the result is computed by a table without ranges.
		name := ctx.generateName(def.Name)
		records, err := LowerSwitch(ctx, Switch{
			Name:           name,
			Feature:        s.Feature,
			Related:        s.Related,
			VarSize:        s.VarSize,
			Expr:           r,
			Pos:            pos,
			returnComputed: true,
		})
		if err != nil {
			return tableResult{}, nil, err
		}
		if _, err := ctx.Registry.AddRef(def, name, s.Feature, pos); err != nil {
			return tableResult{}, nil, err
		}
		return tableResult{ref: expr.NewRecordRef(name), isRef: true}, records, nil
	default:
		return tableResult{}, nil, grferr.New(grferr.ErrInvalidRangeResult, pos, "%s is not a valid result", r)
	}
}
