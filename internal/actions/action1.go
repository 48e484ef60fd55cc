package actions

import (
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// SpriteTable (action 1) announces NumSets sets of NumSprites real sprites, the real sprites follow it.
type SpriteTable struct {
	recordBase
	Feature    int
	NumSets    int
	NumSprites int
}

func (*SpriteTable) Kind() Kind {
	return KindSpriteTable
}

func (t *SpriteTable) Size() int {
	return 3 + grfout.ExtByteSize(t.NumSprites)
}

func (t *SpriteTable) Write(out grfout.Output) {
	writePseudoSprite(out, t.Size(), func(w grfout.Writer) {
		w.PrintByte(0x01)
		w.PrintByte(t.Feature)
		w.PrintByte(t.NumSets)
		w.PrintExtByte(t.NumSprites)
	})
}

// RealSprite is an entry of the graphics section, it is written as a reference to the sprite number.
type RealSprite struct {
	recordBase
	Ref string
	Num int
}

func (*RealSprite) Kind() Kind {
	return KindRealSprite
}

func (s *RealSprite) Write(out grfout.Output) {
	out.PrintSpriteReference(s.Num)
}

func newRealSprite(ctx *Context, ref string, pos srcpos.Position) (*RealSprite, error) {
	if ctx.Sprites == nil {
		return nil, grferr.New(grferr.ErrUnknownIdentifier, pos, "sprite %s cannot be resolved: no sprite registry", ref)
	}
	num, err := ctx.Sprites.GetSpriteNumber(ref, pos)
	if err != nil {
		return nil, grferr.WithPos(err, pos)
	}
	return &RealSprite{recordBase: recordBase{pos: pos}, Ref: ref, Num: num}, nil
}

// SpriteSet is a named set of real sprites, all the sets of a sprite table have the same length.
type SpriteSet struct {
	Name    string
	Sprites []string
	Pos     srcpos.Position
}

// LowerSpriteSets returns the sprite table of sets followed by their real sprites. The sprite groups
// of feature that follow refer to the sets by name until the next sprite table of the same feature.
func LowerSpriteSets(ctx *Context, feature int, sets []SpriteSet, pos srcpos.Position) ([]Record, error) {
	if err := checkFeature(feature, pos); err != nil {
		return nil, err
	}
	if len(sets) == 0 || len(sets) > 0xFF {
		return nil, grferr.New(grferr.ErrRange, pos, "a sprite table must contain between 1 and 255 sets, not %d", len(sets))
	}

	numSprites := len(sets[0].Sprites)
	if numSprites == 0 {
		return nil, grferr.New(grferr.ErrRange, pos, "sprite set %s is empty", sets[0].Name)
	}
	if numSprites > 0xFFFF {
		return nil, grferr.New(grferr.ErrRange, pos, "too many sprites per set: %d", numSprites)
	}

	table := &SpriteTable{
		recordBase: recordBase{pos: pos},
		Feature:    feature,
		NumSets:    len(sets),
		NumSprites: numSprites,
	}
	records := []Record{table}
	names := make(map[string]int, len(sets))

	for i, set := range sets {
		setPos := set.Pos
		if setPos.IsZero() {
			setPos = pos.Sub("sets[%d]", i)
		}
		if len(set.Sprites) != numSprites {
			return nil, grferr.New(grferr.ErrRange, setPos,
				"sprite set %s has %d sprites but the sets of the table have %d", set.Name, len(set.Sprites), numSprites)
		}
		if set.Name != "" {
			if _, ok := names[set.Name]; ok {
				return nil, grferr.New(grferr.ErrDuplicateIdentifier, setPos, "sprite set %s is defined twice", set.Name)
			}
			names[set.Name] = i
		}

		for j, ref := range set.Sprites {
			sprite, err := newRealSprite(ctx, ref, setPos.Sub("sprites[%d]", j))
			if err != nil {
				return nil, err
			}
			records = append(records, sprite)
		}
	}

	ctx.spriteSets[feature] = names
	return records, nil
}

// spriteSetNumber returns the number of the set name in the last sprite table of feature.
func (ctx *Context) spriteSetNumber(feature int, name string, pos srcpos.Position) (int, error) {
	sets, ok := ctx.spriteSets[feature]
	if !ok {
		return 0, grferr.New(grferr.ErrUnknownIdentifier, pos, "no sprite set is defined for feature 0x%02X", feature)
	}
	num, ok := sets[name]
	if !ok {
		return 0, grferr.New(grferr.ErrUnknownIdentifier, pos, "sprite set %s is not defined for feature 0x%02X", name, feature)
	}
	return num, nil
}
