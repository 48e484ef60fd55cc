package actions

import (
	"fmt"

	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const (
	ACTION_SKIP_A = 0x07
	ACTION_SKIP_B = 0x09

	COND_BIT_SET   = 0x00
	COND_BIT_CLEAR = 0x01
	COND_EQ        = 0x02
	COND_NE        = 0x03
	COND_LT        = 0x04
	COND_GT        = 0x05

	//reads as a value whose bits are all set.
	PARAM_ALL_ONES = 0x9A
)

// SkipCondition tests the parameter Param against Value, the records are skipped if the test is true.
// VarSize is the number of bytes of the parameter compared, bit tests use a size of 1 and the bit
// number as Value.
type SkipCondition struct {
	Param   int
	VarSize int
	Cond    int
	Value   int64
}

func (c SkipCondition) String() string {
	return fmt.Sprintf("param[0x%02X] cond %d 0x%X", c.Param, c.Cond, c.Value)
}

// unconditional is always true.
var unconditional = SkipCondition{Param: PARAM_ALL_ONES, VarSize: 1, Cond: COND_BIT_SET, Value: 0}

// Skip (action 7 or 9) skips the Target next sprites if Target is not greater than the inline limit,
// else it skips to the jump target whose label is Target.
type Skip struct {
	recordBase
	Action    int
	Condition SkipCondition
	Target    int
}

func (*Skip) Kind() Kind {
	return KindSkip
}

func (s *Skip) Size() int {
	return 5 + s.Condition.VarSize
}

func (s *Skip) Write(out grfout.Output) {
	writePseudoSprite(out, s.Size(), func(w grfout.Writer) {
		w.PrintByte(s.Action)
		w.PrintByte(s.Condition.Param)
		w.PrintByte(s.Condition.VarSize)
		w.PrintByte(s.Condition.Cond)
		w.PrintVar(s.Condition.Value, s.Condition.VarSize)
		w.PrintByte(s.Target)
	})
}

func newJump(label int, pos srcpos.Position) *Skip {
	return &Skip{
		recordBase: recordBase{pos: pos},
		Action:     ACTION_SKIP_B,
		Condition:  unconditional,
		Target:     label,
	}
}

// skipRun is a sequence of records that share a way of being skipped.
type skipRun struct {
	start, end  int
	allowA      bool
	allowB      bool
	allowNoSkip bool
}

func newSkipRun(start int, record Record) skipRun {
	capabilities := record.Kind().Capabilities()
	return skipRun{
		start:       start,
		end:         start + 1,
		allowA:      capabilities.SkippableByA,
		allowB:      capabilities.SkippableByB,
		allowNoSkip: !capabilities.NeedsSkip,
	}
}

// extend adds record to the run if the run can still be skipped in one of its ways.
func (r *skipRun) extend(record Record) bool {
	capabilities := record.Kind().Capabilities()
	allowA := r.allowA && capabilities.SkippableByA
	allowB := r.allowB && capabilities.SkippableByB
	allowNoSkip := r.allowNoSkip && !capabilities.NeedsSkip
	if !allowA && !allowB && !allowNoSkip {
		return false
	}
	r.allowA, r.allowB, r.allowNoSkip = allowA, allowB, allowNoSkip
	r.end++
	return true
}

// SkipRuns returns records wrapped in skips testing cond: the records are split in maximal runs
// that can be skipped by the same action, action 7 being preferred. Runs longer than the inline
// limit skip to a jump target placed after them, its label is popped from the short label pool.
func SkipRuns(ctx *Context, records []Record, cond SkipCondition, pos srcpos.Position) ([]Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var runs []skipRun
	current := newSkipRun(0, records[0])
	for i := 1; i < len(records); i++ {
		if !current.extend(records[i]) {
			runs = append(runs, current)
			current = newSkipRun(i, records[i])
		}
	}
	runs = append(runs, current)

	result := make([]Record, 0, len(records)+2*len(runs))

	for _, run := range runs {
		runRecords := records[run.start:run.end]
		if run.allowNoSkip {
			result = append(result, runRecords...)
			continue
		}

		skip := &Skip{recordBase: recordBase{pos: pos}, Condition: cond}
		switch {
		case run.allowA:
			skip.Action = ACTION_SKIP_A
		case run.allowB:
			skip.Action = ACTION_SKIP_B
		default:
			panic(fmt.Errorf("%s cannot be skipped", runRecords[0].Kind()))
		}

		length := len(runRecords)
		if length <= ctx.MaxInlineSkip {
			skip.Target = length
			result = append(result, skip)
			result = append(result, runRecords...)
			continue
		}

		label, err := ctx.ShortLabels.Pop(pos)
		if err != nil {
			return nil, err
		}
		skip.Target = label
		result = append(result, skip)
		result = append(result, runRecords...)
		result = append(result, NewJumpTarget(label, pos))
	}
	return result, nil
}
