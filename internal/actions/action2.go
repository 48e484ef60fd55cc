package actions

import (
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

// SpriteGroup (basic action 2) selects sprite sets of the last sprite table of its feature.
type SpriteGroup struct {
	recordBase
	Def     *Definition
	Feature int
	Loaded  []int
	Loading []int
}

func (*SpriteGroup) Kind() Kind {
	return KindSpriteGroup
}

func (g *SpriteGroup) Size() int {
	return 5 + 2*(len(g.Loaded)+len(g.Loading))
}

func (g *SpriteGroup) Bind(ctx *Context) error {
	_, err := ctx.Registry.Bind(g.Def, g.pos)
	return err
}

func (g *SpriteGroup) Write(out grfout.Output) {
	writePseudoSprite(out, g.Size(), func(w grfout.Writer) {
		w.PrintByte(0x02)
		w.PrintByte(g.Feature)
		w.PrintByte(g.Def.ID())
		w.PrintByte(len(g.Loaded))
		w.PrintByte(len(g.Loading))
		w.Newline(g.Def.Name)
		for _, set := range g.Loaded {
			w.PrintWord(set)
		}
		for _, set := range g.Loading {
			w.PrintWord(set)
		}
	})
}

// SpriteGroupDecl is a named sprite group, Loaded and Loading are names of sprite sets.
type SpriteGroupDecl struct {
	Name    string
	Feature int
	Loaded  []string
	Loading []string
	Pos     srcpos.Position
}

func LowerSpriteGroup(ctx *Context, decl SpriteGroupDecl) ([]Record, error) {
	if err := checkFeature(decl.Feature, decl.Pos); err != nil {
		return nil, err
	}
	if len(decl.Loaded)+len(decl.Loading) == 0 {
		return nil, grferr.New(grferr.ErrRange, decl.Pos, "sprite group %s selects no sprite set", decl.Name)
	}
	if len(decl.Loaded) > 0xFF || len(decl.Loading) > 0xFF {
		return nil, grferr.New(grferr.ErrRange, decl.Pos, "too many sprite sets in sprite group %s", decl.Name)
	}

	resolve := func(names []string, field string) ([]int, error) {
		sets := make([]int, 0, len(names))
		for i, name := range names {
			num, err := ctx.spriteSetNumber(decl.Feature, name, decl.Pos.Sub("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			sets = append(sets, num)
		}
		return sets, nil
	}

	loaded, err := resolve(decl.Loaded, "loaded")
	if err != nil {
		return nil, err
	}
	loading, err := resolve(decl.Loading, "loading")
	if err != nil {
		return nil, err
	}

	def, err := ctx.Registry.Define(decl.Name, decl.Feature, decl.Pos)
	if err != nil {
		return nil, err
	}

	return []Record{&SpriteGroup{
		recordBase: recordBase{pos: decl.Pos},
		Def:        def,
		Feature:    decl.Feature,
		Loaded:     loaded,
		Loading:    loading,
	}}, nil
}
