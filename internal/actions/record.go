package actions

import (
	"fmt"

	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// Record is a sprite of the output, most records are pseudo sprites containing a single action.
type Record interface {
	Kind() Kind
	Pos() srcpos.Position

	// PrepareOutput is called after the ids have been bound, in reverse order of output.
	PrepareOutput(ctx *Context) error

	Write(out grfout.Output)
}

// Sized is implemented by the pseudo sprites, Size returns the number of bytes written by Write
// after the size header.
type Sized interface {
	Record
	Size() int
}

// Binder is implemented by the records defining or referencing named records, Bind is called in
// output order before PrepareOutput.
type Binder interface {
	Record
	Bind(ctx *Context) error
}

type Kind int

const (
	KindSpriteCount Kind = iota + 1
	KindGRFInfo
	KindPropertyTable
	KindSpriteTable
	KindSpriteGroup
	KindDecisionTable
	KindGraphicsTable
	KindStringDefinition
	KindBytePatchTable
	KindSkip
	KindRangeReplace
	KindErrorMessage
	KindParamAssignment
	KindDeactivation
	KindJumpTarget
	KindRealSprite
)

// Capabilities tells how a record behaves inside a skipped run: SkippableByA is true if an action 7
// can skip it, SkippableByB if an action 9 can. A record that does not need to be skipped can be
// left outside of the skipped runs.
type Capabilities struct {
	SkippableByA bool
	SkippableByB bool
	NeedsSkip    bool
}

func (k Kind) Capabilities() Capabilities {
	switch k {
	case KindSpriteCount, KindGRFInfo:
		return Capabilities{NeedsSkip: true}
	case KindPropertyTable, KindSpriteTable, KindSpriteGroup, KindDecisionTable, KindGraphicsTable,
		KindStringDefinition, KindSkip, KindRangeReplace, KindErrorMessage, KindParamAssignment, KindRealSprite:
		return Capabilities{SkippableByA: true, SkippableByB: true, NeedsSkip: true}
	case KindBytePatchTable:
		return Capabilities{SkippableByB: true, NeedsSkip: true}
	case KindDeactivation:
		return Capabilities{SkippableByA: true, NeedsSkip: true}
	case KindJumpTarget:
		return Capabilities{SkippableByA: true}
	default:
		panic(fmt.Errorf("unknown record kind %d", int(k)))
	}
}

func (k Kind) String() string {
	switch k {
	case KindSpriteCount:
		return "sprite count"
	case KindGRFInfo:
		return "GRF info (action 8)"
	case KindPropertyTable:
		return "property table (action 0)"
	case KindSpriteTable:
		return "sprite table (action 1)"
	case KindSpriteGroup:
		return "sprite group (action 2)"
	case KindDecisionTable:
		return "decision table (varaction2)"
	case KindGraphicsTable:
		return "graphics table (action 3)"
	case KindStringDefinition:
		return "string definition (action 4)"
	case KindBytePatchTable:
		return "byte-patch table (action 6)"
	case KindSkip:
		return "skip (action 7/9)"
	case KindRangeReplace:
		return "range replace (action A)"
	case KindErrorMessage:
		return "error message (action B)"
	case KindParamAssignment:
		return "parameter assignment (action D)"
	case KindDeactivation:
		return "deactivation (action E)"
	case KindJumpTarget:
		return "jump target (action 10)"
	case KindRealSprite:
		return "real sprite"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type recordBase struct {
	pos srcpos.Position
}

func (r recordBase) Pos() srcpos.Position {
	return r.pos
}

func (r recordBase) PrepareOutput(ctx *Context) error {
	return nil
}

// writePseudoSprite writes a pseudo sprite of the given size, the output panics if fn does not write
// exactly size bytes.
func writePseudoSprite(out grfout.Output, size int, fn func(w grfout.Writer)) {
	out.StartPseudoSprite(size)
	fn(out)
	out.EndSprite()
}
