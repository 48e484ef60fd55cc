package compiler

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/inoxlang/grfc/internal/actions"
	"github.com/inoxlang/grfc/internal/decl"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/sprites"
	"github.com/inoxlang/grfc/internal/strtab"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	VERSION = "0.4.0"

	COMPILATION_LOG_FIELD_NAME = "compilation"
	SRC_LOG_FIELD_NAME         = "src"
)

var (
	ErrIncompatibleCompiler = errors.New("incompatible compiler")

	compilerVersion = semver.MustParse(VERSION)
)

type Config struct {
	Logger        zerolog.Logger
	MaxInlineSkip int
	LangDir       string //directory of the language files, ignored if empty
}

// Compilation is the result of a successful compilation: the records are finalized and ready to be written.
type Compilation struct {
	ID      ulid.ULID
	File    *decl.File
	Records []actions.Record
	Strings *strtab.Table
	Sprites *sprites.Registry
	Context *actions.Context
}

// Compile lowers the declarations of file and finalizes the resulting records. The first error
// aborts the compilation.
func Compile(file *decl.File, config Config) (*Compilation, error) {
	id := ulid.Make()
	logger := config.Logger.With().
		Str(COMPILATION_LOG_FIELD_NAME, id.String()).
		Str(SRC_LOG_FIELD_NAME, file.Path).
		Logger()

	if err := CheckRequirement(file.Info); err != nil {
		return nil, err
	}

	strings := strtab.New()
	if config.LangDir != "" {
		if err := strings.LoadDir(config.LangDir); err != nil {
			return nil, err
		}
	}
	for _, text := range file.Strings {
		if err := strings.Add(text.Lang, text.Name, text.Text, text.Pos); err != nil {
			return nil, err
		}
	}

	spriteRegistry := sprites.NewRegistry()
	for _, sprite := range file.Sprites {
		if _, err := spriteRegistry.Add(sprite.Name, sprite.File, sprite.Pos); err != nil {
			return nil, err
		}
	}

	ctx := actions.NewContext(actions.ContextConfig{
		Logger:        logger,
		MaxInlineSkip: config.MaxInlineSkip,
		Strings:       strings,
		Sprites:       spriteRegistry,
	})

	header, err := lowerHeader(file.Info)
	if err != nil {
		return nil, err
	}
	count := header[0].(*actions.SpriteCount)

	body, err := decl.LowerAll(ctx, file.Declarations)
	if err != nil {
		return nil, err
	}

	records := append(header, body...)
	count.Count = len(records) - 1

	if err := actions.Finalize(ctx, records); err != nil {
		return nil, err
	}

	compilation := &Compilation{
		ID:      id,
		File:    file,
		Records: records,
		Strings: strings,
		Sprites: spriteRegistry,
		Context: ctx,
	}
	compilation.logDiagnostics()
	return compilation, nil
}

func lowerHeader(info decl.GRFInfo) ([]actions.Record, error) {
	grfID, err := actions.ParseGRFID(info.ID, info.Pos.Sub("id"))
	if err != nil {
		return nil, err
	}
	grfInfo, err := actions.NewGRFInfo(grfID, info.Name, info.Description, info.Pos)
	if err != nil {
		return nil, err
	}
	return []actions.Record{actions.NewSpriteCount(info.Pos), grfInfo}, nil
}

// CheckRequirement checks that the compiler satisfies the version constraint of the GRF, if any.
func CheckRequirement(info decl.GRFInfo) error {
	if info.Requires == "" {
		return nil
	}
	pos := info.Pos.Sub("requires")

	constraint, err := semver.NewConstraint(info.Requires)
	if err != nil {
		return grferr.New(grferr.ErrTypeMismatch, pos, "invalid version constraint %q: %s", info.Requires, err)
	}
	if ok, reasons := constraint.Validate(compilerVersion); !ok {
		return grferr.New(ErrIncompatibleCompiler, pos, "version %s does not satisfy %q: %v", VERSION, info.Requires, reasons)
	}
	return nil
}

func (c *Compilation) logDiagnostics() {
	logger := c.Context.Logger

	for _, def := range c.Context.Registry.Definitions() {
		if def.TotalRefs() == 0 {
			logger.Warn().Str("record", def.Name).Msgf("%s: %s is never referenced", def.Pos, def.Name)
		}
	}

	for _, name := range c.Strings.Unused() {
		logger.Debug().Str("string", name).Msg("unused string")
	}

	for _, sprite := range c.Sprites.Unused() {
		logger.Warn().Str("sprite", sprite.Name).Msgf("%s: sprite %s is never used", sprite.Pos, sprite.Name)
	}

	for _, p := range c.Context.Pools() {
		stats := p.Stats()
		if stats.Peak == 0 {
			continue
		}
		logger.Info().
			Str("pool", stats.Name).
			Int("peak", stats.Peak).
			Int("total", stats.Total).
			Str("peakPos", stats.PeakPos.String()).
			Msg("pool usage")
	}
}

// Write writes the records of the compilation to out and closes it.
func (c *Compilation) Write(out grfout.Output) error {
	if err := actions.WriteAll(out, c.Records); err != nil {
		return fmt.Errorf("failed to write the output: %w", err)
	}
	return nil
}
