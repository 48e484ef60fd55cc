package actions

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
)

func newScratchSet() *bitset.BitSet {
	set := bitset.New(SCRATCH_REGISTER_COUNT)
	set.FlipRange(0, SCRATCH_REGISTER_COUNT)
	return set
}

func (ctx *Context) scratchSet(def *Definition) *bitset.BitSet {
	set, ok := ctx.scratch[def]
	if !ok {
		set = newScratchSet()
		ctx.scratch[def] = set
	}
	return set
}

// AvailableScratch returns the scratch registers that the decision table defined by def can still
// use, in increasing order.
func (ctx *Context) AvailableScratch(def *Definition) []int {
	set := ctx.scratchSet(def)
	registers := make([]int, 0, set.Count())
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		registers = append(registers, FIRST_SCRATCH_REGISTER+int(i))
	}
	return registers
}

// assignScratchRegisters gives a register to each temporary slot of t. A register claimed by t is
// no longer available to the tables connected to t in the reference graph.
func assignScratchRegisters(ctx *Context, t *DecisionTable) error {
	available := ctx.scratchSet(t.Def)

	for _, item := range t.stream {
		store, ok := item.Operand.(*expr.StoreTempSlot)
		if !ok || store.IsAssigned() {
			continue
		}

		bit, ok := available.NextSet(0)
		if !ok {
			return grferr.New(grferr.ErrResourceExhausted, t.pos,
				"%s needs more than the %d scratch registers available", t.Def.Name, SCRATCH_REGISTER_COUNT)
		}
		store.Register = FIRST_SCRATCH_REGISTER + int(bit)

		available.Clear(bit)
		for _, connected := range ctx.Registry.Connected(t.Def) {
			ctx.scratchSet(connected).Clear(bit)
		}
	}
	return nil
}
