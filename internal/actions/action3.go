package actions

import (
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/srcpos"
)

const (
	LIVERY_OVERRIDE_FLAG = 0x80
	MAX_GRAPHICS_IDS     = 0x7F
)

type cargoGraphics struct {
	cargo int
	ref   expr.RecordRef
}

// GraphicsTable (action 3) maps items of a feature to the records providing their graphics.
type GraphicsTable struct {
	recordBase
	Feature int
	IDs     []int
	Livery  bool

	cargo        []cargoGraphics
	defaultGroup expr.RecordRef
}

func (*GraphicsTable) Kind() Kind {
	return KindGraphicsTable
}

func (t *GraphicsTable) Size() int {
	size := 3
	for _, id := range t.IDs {
		size += grfout.ExtByteSize(id)
	}
	return size + 1 + 3*len(t.cargo) + 2
}

func (t *GraphicsTable) Bind(ctx *Context) error {
	for i, entry := range t.cargo {
		ref, err := ctx.Registry.BindRef(entry.ref, t.pos)
		if err != nil {
			return err
		}
		t.cargo[i].ref = ref
	}

	ref, err := ctx.Registry.BindRef(t.defaultGroup, t.pos)
	if err != nil {
		return err
	}
	t.defaultGroup = ref
	return nil
}

func (t *GraphicsTable) Write(out grfout.Output) {
	writePseudoSprite(out, t.Size(), func(w grfout.Writer) {
		w.PrintByte(0x03)
		w.PrintByte(t.Feature)
		count := len(t.IDs)
		if t.Livery {
			count |= LIVERY_OVERRIDE_FLAG
		}
		w.PrintByte(count)
		for _, id := range t.IDs {
			w.PrintExtByte(id)
		}
		w.Newline("")

		w.PrintByte(len(t.cargo))
		for _, entry := range t.cargo {
			w.PrintByte(entry.cargo)
			entry.ref.Write(w, 2)
			w.Newline("")
		}
		t.defaultGroup.Write(w, 2)
	})
}

type CargoGraphics struct {
	Cargo int
	Ref   string
}

// Graphics associates the items IDs of a feature to a default record and to per-cargo records.
type Graphics struct {
	Feature int
	IDs     []int
	Livery  bool
	Cargo   []CargoGraphics
	Default string
	Pos     srcpos.Position
}

func LowerGraphics(ctx *Context, g Graphics) ([]Record, error) {
	if err := checkFeature(g.Feature, g.Pos); err != nil {
		return nil, err
	}
	if len(g.IDs) == 0 || len(g.IDs) > MAX_GRAPHICS_IDS {
		return nil, grferr.New(grferr.ErrRange, g.Pos, "a graphics table must contain between 1 and %d ids, not %d", MAX_GRAPHICS_IDS, len(g.IDs))
	}
	for _, id := range g.IDs {
		if id < 0 || id > 0xFFFF {
			return nil, grferr.New(grferr.ErrRange, g.Pos, "id 0x%X is out of range", id)
		}
	}
	if len(g.Cargo) > 0xFF {
		return nil, grferr.New(grferr.ErrRange, g.Pos, "too many cargo specific graphics: %d", len(g.Cargo))
	}

	table := &GraphicsTable{
		recordBase: recordBase{pos: g.Pos},
		Feature:    g.Feature,
		IDs:        g.IDs,
		Livery:     g.Livery,
	}

	for i, entry := range g.Cargo {
		pos := g.Pos.Sub("cargo[%d]", i)
		if entry.Cargo < 0 || entry.Cargo > 0xFF {
			return nil, grferr.New(grferr.ErrRange, pos, "cargo 0x%X is out of range", entry.Cargo)
		}
		if _, err := ctx.Registry.AddRef(nil, entry.Ref, g.Feature, pos); err != nil {
			return nil, err
		}
		table.cargo = append(table.cargo, cargoGraphics{cargo: entry.Cargo, ref: expr.NewRecordRef(entry.Ref)})
	}

	if _, err := ctx.Registry.AddRef(nil, g.Default, g.Feature, g.Pos.Sub("default")); err != nil {
		return nil, err
	}
	table.defaultGroup = expr.NewRecordRef(g.Default)

	return []Record{table}, nil
}
