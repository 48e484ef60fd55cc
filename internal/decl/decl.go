// Package decl contains the declaration tree consumed by the compiler and the loaders of declaration
// files (YAML or JSON). Each declaration lowers itself to a list of records.
package decl

import (
	"errors"

	"github.com/inoxlang/grfc/internal/actions"
	"github.com/inoxlang/grfc/internal/expr"
	"github.com/inoxlang/grfc/internal/srcpos"
)

var (
	ErrInvalidDeclaration = errors.New("invalid declaration")

	_ = []Declaration{
		(*Properties)(nil), (*SpriteSets)(nil), (*SpriteGroup)(nil), (*Switch)(nil), (*Graphics)(nil),
		(*ErrorMessage)(nil), (*Assignment)(nil), (*If)(nil), (*While)(nil), (*Deactivate)(nil), (*Replace)(nil),
	}
)

// A Declaration is a top level (or block level) element of a declaration file.
type Declaration interface {
	Kind() string
	Pos() srcpos.Position

	// Lower returns the records of the declaration, temporary parameters must be saved by the caller.
	Lower(ctx *actions.Context) ([]actions.Record, error)
}

// File is a loaded declaration file.
type File struct {
	Path         string
	Info         GRFInfo
	Sprites      []Sprite
	Strings      []Text
	Declarations []Declaration
}

type GRFInfo struct {
	ID          string
	Name        string
	Description string
	Requires    string //version constraint on the compiler, empty if none
	Pos         srcpos.Position
}

// Sprite is an entry of the graphics section, sprites are numbered in declaration order.
type Sprite struct {
	Name string
	File string
	Pos  srcpos.Position
}

// Text is the translation of a string in a language.
type Text struct {
	Lang int
	Name string
	Text string
	Pos  srcpos.Position
}

// Walk calls fn for each declaration of decls and of their bodies, in depth-first order.
func Walk(decls []Declaration, fn func(Declaration)) {
	for _, d := range decls {
		fn(d)
		switch d := d.(type) {
		case *If:
			for _, branch := range d.Branches {
				Walk(branch.Body, fn)
			}
		case *While:
			Walk(d.Body, fn)
		}
	}
}

type base struct {
	pos srcpos.Position
}

func (b base) Pos() srcpos.Position {
	return b.pos
}

type Properties struct {
	base
	Feature int
	ID      int
	Props   []actions.Property
}

func (*Properties) Kind() string {
	return "properties"
}

func (p *Properties) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerProperties(ctx, p.Feature, p.ID, p.Props, p.pos)
}

type SpriteSets struct {
	base
	Feature int
	Sets    []actions.SpriteSet
}

func (*SpriteSets) Kind() string {
	return "sprite_sets"
}

func (s *SpriteSets) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerSpriteSets(ctx, s.Feature, s.Sets, s.pos)
}

type SpriteGroup struct {
	base
	Group actions.SpriteGroupDecl
}

func (*SpriteGroup) Kind() string {
	return "sprite_group"
}

func (g *SpriteGroup) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerSpriteGroup(ctx, g.Group)
}

type Switch struct {
	base
	Switch actions.Switch
}

func (*Switch) Kind() string {
	return "switch"
}

func (s *Switch) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerSwitch(ctx, s.Switch)
}

type Graphics struct {
	base
	Graphics actions.Graphics
}

func (*Graphics) Kind() string {
	return "graphics"
}

func (g *Graphics) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerGraphics(ctx, g.Graphics)
}

type ErrorMessage struct {
	base
	Message actions.ErrorMessageDecl
}

func (*ErrorMessage) Kind() string {
	return "error"
}

func (m *ErrorMessage) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerErrorMessage(ctx, m.Message)
}

// Assignment sets the parameter Param (possibly computed) to Value.
type Assignment struct {
	base
	Param expr.Expr
	Value expr.Expr
}

func (*Assignment) Kind() string {
	return "assign"
}

func (a *Assignment) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerParamAssignment(ctx, a.Param, a.Value, a.pos)
}

type IfBranch struct {
	Cond expr.Expr //nil for else
	Body []Declaration
	Pos  srcpos.Position
}

type If struct {
	base
	Branches []IfBranch
}

func (*If) Kind() string {
	return "if"
}

func (i *If) Lower(ctx *actions.Context) ([]actions.Record, error) {
	branches := make([]actions.Branch, 0, len(i.Branches))
	for _, branch := range i.Branches {
		body := branch.Body
		branches = append(branches, actions.Branch{
			Cond: branch.Cond,
			Pos:  branch.Pos,
			Body: func() ([]actions.Record, error) {
				return LowerAll(ctx, body)
			},
		})
	}
	return actions.LowerIf(ctx, branches, i.pos)
}

type While struct {
	base
	Cond expr.Expr
	Body []Declaration
}

func (*While) Kind() string {
	return "while"
}

func (w *While) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerWhile(ctx, w.Cond, func() ([]actions.Record, error) {
		return LowerAll(ctx, w.Body)
	}, w.pos)
}

// Deactivate disables other GRFs, IDs are parsed with actions.ParseGRFID.
type Deactivate struct {
	base
	IDs []string
}

func (*Deactivate) Kind() string {
	return "deactivate"
}

func (d *Deactivate) Lower(ctx *actions.Context) ([]actions.Record, error) {
	ids := make([]actions.GRFID, 0, len(d.IDs))
	for i, s := range d.IDs {
		id, err := actions.ParseGRFID(s, d.pos.Sub("[%d]", i))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	deactivation, err := actions.NewDeactivation(ids, d.pos)
	if err != nil {
		return nil, err
	}
	return []actions.Record{deactivation}, nil
}

type Replace struct {
	base
	Blocks []actions.ReplaceBlock
}

func (*Replace) Kind() string {
	return "replace"
}

func (r *Replace) Lower(ctx *actions.Context) ([]actions.Record, error) {
	return actions.LowerRangeReplace(ctx, r.Blocks, r.pos)
}

// LowerDeclaration lowers d inside its own frame of temporary parameters.
func LowerDeclaration(ctx *actions.Context, d Declaration) ([]actions.Record, error) {
	ctx.TempParams.Save()
	defer ctx.TempParams.Restore()

	ctx.Logger.Debug().Str("declaration", d.Kind()).Stringer("pos", d.Pos()).Msg("lowering")

	return d.Lower(ctx)
}

// LowerAll lowers decls in order and concatenates their records, the first error is returned.
func LowerAll(ctx *actions.Context, decls []Declaration) ([]actions.Record, error) {
	var records []actions.Record
	for _, d := range decls {
		declRecords, err := LowerDeclaration(ctx, d)
		if err != nil {
			return nil, err
		}
		records = append(records, declRecords...)
	}
	return records, nil
}
