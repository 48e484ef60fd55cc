package actions

import (
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// SpriteCount is the first sprite of the container: the number of sprites that follow it.
type SpriteCount struct {
	recordBase
	Count int
}

func NewSpriteCount(pos srcpos.Position) *SpriteCount {
	return &SpriteCount{recordBase: recordBase{pos: pos}}
}

func (*SpriteCount) Kind() Kind {
	return KindSpriteCount
}

func (*SpriteCount) Size() int {
	return 4
}

func (c *SpriteCount) Write(out grfout.Output) {
	writePseudoSprite(out, c.Size(), func(w grfout.Writer) {
		w.PrintDword(c.Count)
	})
}
