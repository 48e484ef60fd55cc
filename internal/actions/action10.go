package actions

import (
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// JumpTarget (action 10) is the destination of the skips targeting its label.
type JumpTarget struct {
	recordBase
	Label int
}

func NewJumpTarget(label int, pos srcpos.Position) *JumpTarget {
	return &JumpTarget{recordBase: recordBase{pos: pos}, Label: label}
}

func (*JumpTarget) Kind() Kind {
	return KindJumpTarget
}

func (*JumpTarget) Size() int {
	return 2
}

func (t *JumpTarget) Write(out grfout.Output) {
	writePseudoSprite(out, t.Size(), func(w grfout.Writer) {
		w.PrintByte(0x10)
		w.PrintByte(t.Label)
	})
}
