package actions

import (
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

type replacedRange struct {
	count int
	first int
}

// RangeReplace (action A) replaces ranges of base sprites by the real sprites following it.
type RangeReplace struct {
	recordBase
	ranges []replacedRange
}

func (*RangeReplace) Kind() Kind {
	return KindRangeReplace
}

func (r *RangeReplace) Size() int {
	return 2 + 3*len(r.ranges)
}

func (r *RangeReplace) Write(out grfout.Output) {
	writePseudoSprite(out, r.Size(), func(w grfout.Writer) {
		w.PrintByte(0x0A)
		w.PrintByte(len(r.ranges))
		for _, rng := range r.ranges {
			w.PrintByte(rng.count)
			w.PrintWord(rng.first)
		}
	})
}

// ReplaceBlock replaces the base sprites starting at First by Sprites.
type ReplaceBlock struct {
	First   int
	Sprites []string
	Pos     srcpos.Position
}

func LowerRangeReplace(ctx *Context, blocks []ReplaceBlock, pos srcpos.Position) ([]Record, error) {
	if len(blocks) == 0 || len(blocks) > 0xFF {
		return nil, grferr.New(grferr.ErrRange, pos, "a replace table must contain between 1 and 255 ranges, not %d", len(blocks))
	}

	table := &RangeReplace{recordBase: recordBase{pos: pos}}
	records := []Record{table}

	for i, block := range blocks {
		blockPos := block.Pos
		if blockPos.IsZero() {
			blockPos = pos.Sub("ranges[%d]", i)
		}
		if len(block.Sprites) == 0 || len(block.Sprites) > 0xFF {
			return nil, grferr.New(grferr.ErrRange, blockPos, "a replaced range must contain between 1 and 255 sprites, not %d", len(block.Sprites))
		}
		if block.First < 0 || block.First+len(block.Sprites)-1 > 0xFFFF {
			return nil, grferr.New(grferr.ErrRange, blockPos, "replaced range starting at %d is out of range", block.First)
		}

		table.ranges = append(table.ranges, replacedRange{count: len(block.Sprites), first: block.First})
		for j, ref := range block.Sprites {
			sprite, err := newRealSprite(ctx, ref, blockPos.Sub("sprites[%d]", j))
			if err != nil {
				return nil, err
			}
			records = append(records, sprite)
		}
	}
	return records, nil
}
