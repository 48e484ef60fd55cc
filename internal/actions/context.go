package actions

import (
	"strconv"

	"github.com/bits-and-blooms/bitset"
	"github.com/inoxlang/grfc/internal/pool"
	"github.com/inoxlang/grfc/internal/srcpos"
	"github.com/rs/zerolog"
)

const (
	DEFAULT_MAX_INLINE_SKIP = 15

	FIRST_TEMP_PARAM = 0x40
	LAST_TEMP_PARAM  = 0x7F

	FIRST_SHORT_LABEL = 0x10
	LAST_SHORT_LABEL  = 0x7F
	FIRST_LONG_LABEL  = 0x80
	LAST_LONG_LABEL   = 0xFF

	FIRST_RECORD_ID = 0x00
	LAST_RECORD_ID  = 0xFF

	FIRST_SCRATCH_REGISTER = 0x80
	SCRATCH_REGISTER_COUNT = 128
)

// StringTable resolves the strings referenced by the declarations.
type StringTable interface {
	ResolveString(name string, pos srcpos.Position) (int, error)
	ResolveStringTranslations(name string, pos srcpos.Position) ([]Translation, error)
}

type Translation struct {
	Lang int
	Text string
}

// SpriteNumberer returns the number of a sprite in the graphics section.
type SpriteNumberer interface {
	GetSpriteNumber(ref string, pos srcpos.Position) (int, error)
}

// Context holds the state of a compilation: pools, the record registry and the collaborators.
// A context must not be reused between compilations.
type Context struct {
	Logger        zerolog.Logger
	MaxInlineSkip int

	TempParams  *pool.Pool
	ShortLabels *pool.Pool
	LongLabels  *pool.Pool

	Registry *Registry
	Strings  StringTable
	Sprites  SpriteNumberer

	condDepth      int
	definedStrings map[definedString]struct{}

	//names of the sprite sets of the last sprite table, per feature.
	spriteSets map[int]map[string]int

	generatedNames int

	//scratch registers still available to each decision table.
	scratch map[*Definition]*bitset.BitSet
}

type definedString struct {
	feature int
	id      int
}

type ContextConfig struct {
	Logger        zerolog.Logger
	MaxInlineSkip int //DEFAULT_MAX_INLINE_SKIP if zero
	Strings       StringTable
	Sprites       SpriteNumberer
}

func NewContext(config ContextConfig) *Context {
	maxInlineSkip := config.MaxInlineSkip
	if maxInlineSkip <= 0 {
		maxInlineSkip = DEFAULT_MAX_INLINE_SKIP
	}
	if maxInlineSkip >= FIRST_SHORT_LABEL {
		//inline counts must not be mistaken for labels.
		maxInlineSkip = FIRST_SHORT_LABEL - 1
	}

	return &Context{
		Logger:         config.Logger,
		MaxInlineSkip:  maxInlineSkip,
		TempParams:     pool.NewRange("temporary parameters", FIRST_TEMP_PARAM, LAST_TEMP_PARAM),
		ShortLabels:    pool.NewRange("jump labels", FIRST_SHORT_LABEL, LAST_SHORT_LABEL),
		LongLabels:     pool.NewRange("loop labels", FIRST_LONG_LABEL, LAST_LONG_LABEL),
		Registry:       NewRegistry(config.Logger),
		Strings:        config.Strings,
		Sprites:        config.Sprites,
		definedStrings: map[definedString]struct{}{},
		spriteSets:     map[int]map[string]int{},
		scratch:        map[*Definition]*bitset.BitSet{},
	}
}

// InConditional reports whether the records being lowered are inside a conditional or a loop.
func (ctx *Context) InConditional() bool {
	return ctx.condDepth > 0
}

// Pools returns all the pools of the context, record id pools included.
func (ctx *Context) Pools() []*pool.Pool {
	pools := []*pool.Pool{ctx.TempParams, ctx.ShortLabels, ctx.LongLabels}
	return append(pools, ctx.Registry.IdPools()...)
}

func (ctx *Context) generateName(prefix string) string {
	ctx.generatedNames++
	return prefix + "@" + strconv.Itoa(ctx.generatedNames)
}
