package compiler

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"
	"github.com/inoxlang/grfc/internal/cache"
	"github.com/inoxlang/grfc/internal/config"
	"github.com/inoxlang/grfc/internal/decl"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/strtab"
	"github.com/inoxlang/grfc/internal/utils"
	"github.com/maruel/natural"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type BuildConfig struct {
	Config
	Format string //config.GRF_OUTPUT_FORMAT or config.NFO_OUTPUT_FORMAT

	Outputs *cache.BuildCache              //optional
	Parsed  *cache.ContentCache[decl.File] //optional
}

// Stats describes a build, it is printed as JSON by the CLI.
type Stats struct {
	Compilation   string         `json:"compilation,omitempty"`
	Source        string         `json:"source"`
	Format        string         `json:"format"`
	Cached        bool           `json:"cached"`
	OutputSize    int            `json:"outputSize"`
	Records       int            `json:"records"`
	RecordsByKind map[string]int `json:"recordsByKind,omitempty"`
	NamedRecords  []string       `json:"namedRecords,omitempty"`
	Strings       int            `json:"strings"`
	Sprites       int            `json:"sprites"`
	Pools         []PoolStats    `json:"pools,omitempty"`
}

type PoolStats struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Peak    int    `json:"peak"`
	PeakPos string `json:"peakPos,omitempty"`
}

func (s Stats) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Stats returns the statistics of the compilation, the output fields are not set.
func (c *Compilation) Stats() Stats {
	stats := Stats{
		Compilation:   c.ID.String(),
		Source:        c.File.Path,
		Records:       len(c.Records),
		RecordsByKind: map[string]int{},
		Strings:       len(c.Strings.Names()),
		Sprites:       c.Sprites.Len(),
	}

	for _, record := range c.Records {
		stats.RecordsByKind[record.Kind().String()]++
	}

	for _, def := range c.Context.Registry.Definitions() {
		stats.NamedRecords = append(stats.NamedRecords, def.Name)
	}
	slices.SortFunc(stats.NamedRecords, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case natural.Less(a, b):
			return -1
		default:
			return 1
		}
	})

	for _, p := range c.Context.Pools() {
		poolStats := p.Stats()
		stats.Pools = append(stats.Pools, PoolStats{
			Name:    p.Name(),
			Total:   poolStats.Total,
			Peak:    poolStats.Peak,
			PeakPos: poolStats.PeakPos.String(),
		})
	}
	return stats
}

// Check parses and compiles the declaration file at path without producing any output.
func Check(path string, buildConfig BuildConfig) (*Compilation, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file: %w", err)
	}

	file, err := parse(path, content, buildConfig.Parsed)
	if err != nil {
		return nil, err
	}
	return Compile(file, buildConfig.Config)
}

// Build compiles the declaration file at path and writes the output to w. If an output cache is
// configured and the inputs are unchanged the cached output is written.
func Build(path string, w io.Writer, buildConfig BuildConfig) (stats Stats, _ error) {
	format := buildConfig.Format
	if format == "" {
		format = config.DEFAULT_OUTPUT_FORMAT
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read declaration file: %w", err)
	}

	var key [32]byte
	if buildConfig.Outputs != nil {
		key, err = buildKey(path, content, format, buildConfig.Config)
		if err != nil {
			return Stats{}, err
		}

		output, found, err := buildConfig.Outputs.Get(key)
		if err != nil {
			buildConfig.Logger.Warn().Err(err).Msg("failed to read the build cache")
		} else if found {
			buildConfig.Logger.Debug().Str(SRC_LOG_FIELD_NAME, path).Msg("output found in the build cache")
			if _, err := w.Write(output); err != nil {
				return Stats{}, fmt.Errorf("failed to write the output: %w", err)
			}
			return Stats{Source: path, Format: format, Cached: true, OutputSize: len(output)}, nil
		}
	}

	file, err := parse(path, content, buildConfig.Parsed)
	if err != nil {
		return Stats{}, err
	}

	compilation, err := Compile(file, buildConfig.Config)
	if err != nil {
		return Stats{}, err
	}

	var buf bytes.Buffer
	var out grfout.Output
	switch format {
	case config.GRF_OUTPUT_FORMAT:
		out = grfout.NewBinaryOutput(&buf)
	case config.NFO_OUTPUT_FORMAT:
		out = grfout.NewNFOOutput(&buf, filepath.Base(path))
	default:
		return Stats{}, fmt.Errorf("unknown output format %q", format)
	}

	if err := compilation.Write(out); err != nil {
		return Stats{}, err
	}

	stats = compilation.Stats()
	stats.Format = format
	stats.OutputSize = buf.Len()

	output := buf.Bytes()
	_, writeErr := w.Write(output)
	if writeErr != nil {
		writeErr = fmt.Errorf("failed to write the output: %w", writeErr)
	}

	var cacheErr error
	if buildConfig.Outputs != nil && writeErr == nil {
		cacheErr = buildConfig.Outputs.Put(key, output)
		if cacheErr != nil {
			cacheErr = fmt.Errorf("failed to update the build cache: %w", cacheErr)
		}
	}

	if err := utils.CombineErrors(writeErr, cacheErr); err != nil {
		return stats, err
	}

	compilation.Context.Logger.Info().Int("size", stats.OutputSize).Str("format", format).Msg("output written")
	return stats, nil
}

func parse(path string, content []byte, parsed *cache.ContentCache[decl.File]) (*decl.File, error) {
	if parsed != nil {
		if file, ok := parsed.Get(path, content); ok {
			return file, nil
		}
	}

	file, err := decl.Parse(path, content, decl.FormatOf(path))
	if err != nil {
		return nil, err
	}

	if parsed != nil {
		parsed.Put(path, content, file)
	}
	return file, nil
}

// buildKey hashes everything an output depends on: the compiler version, the settings, the
// declaration file and the language files.
func buildKey(path string, content []byte, format string, compilerConfig Config) ([32]byte, error) {
	parts := [][]byte{
		[]byte(VERSION),
		[]byte(format),
		[]byte(strconv.Itoa(compilerConfig.MaxInlineSkip)),
		[]byte(path),
		content,
	}

	if compilerConfig.LangDir != "" {
		langFiles, err := readLangFiles(os.DirFS(compilerConfig.LangDir))
		if err != nil {
			return [32]byte{}, err
		}

		names := maps.Keys(langFiles)
		slices.Sort(names)
		for _, name := range names {
			parts = append(parts, []byte(name), langFiles[name])
		}
	}

	return cache.BuildKey(parts...), nil
}

func readLangFiles(fsys fs.FS) (map[string][]byte, error) {
	paths, err := doublestar.Glob(fsys, strtab.LANG_FILE_PATTERN)
	if err != nil {
		return nil, fmt.Errorf("failed to list the language files: %w", err)
	}

	files := make(map[string][]byte, len(paths))
	for _, path := range paths {
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read language file: %w", err)
		}
		files[path] = content
	}
	return files, nil
}
