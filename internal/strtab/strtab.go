// Package strtab implements the string table: named texts with one translation per language, string ids
// are allocated on first use.
package strtab

import (
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/inoxlang/grfc/internal/actions"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/grfout"
	"github.com/inoxlang/grfc/internal/pool"
	"github.com/inoxlang/grfc/internal/srcpos"
	"github.com/maruel/natural"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	FIRST_STRING_ID = 0xD000
	LAST_STRING_ID  = 0xD3FF

	DEFAULT_LANG = 0x7F //any language
	MAX_LANG     = 0x7F

	LANG_FILE_PATTERN = "**/*.{yaml,yml}"
)

var _ actions.StringTable = (*Table)(nil)

type Table struct {
	texts map[string]map[int]text //name -> lang -> text
	ids   map[string]int
	pool  *pool.Pool
}

type text struct {
	value string
	pos   srcpos.Position
}

func New() *Table {
	return &Table{
		texts: map[string]map[int]text{},
		ids:   map[string]int{},
		pool:  pool.NewRange("string ids", FIRST_STRING_ID, LAST_STRING_ID),
	}
}

// Add adds the translation of name in lang.
func (t *Table) Add(lang int, name string, value string, pos srcpos.Position) error {
	if lang < 0 || lang > MAX_LANG {
		return grferr.New(grferr.ErrRange, pos, "language id 0x%X is out of range [0x00, 0x%02X]", lang, MAX_LANG)
	}
	if _, err := grfout.StringSize(value, true, false); err != nil {
		return grferr.New(grferr.ErrTypeMismatch, pos, "invalid text for %s: %s", name, err)
	}

	translations, ok := t.texts[name]
	if !ok {
		translations = map[int]text{}
		t.texts[name] = translations
	}
	if previous, ok := translations[lang]; ok {
		return grferr.New(grferr.ErrDuplicateIdentifier, pos,
			"%s is already defined for language 0x%02X at %s", name, lang, previous.pos)
	}
	translations[lang] = text{value: value, pos: pos}
	return nil
}

// langFile is the content of a language file:
//
//	lang: 0x01
//	strings:
//	  STR_NAME: Name
type langFile struct {
	Lang    *int              `yaml:"lang"`
	Strings map[string]string `yaml:"strings"`
}

// LoadDir adds the texts of all the language files in dir and its sub directories.
func (t *Table) LoadDir(dir string) error {
	return t.LoadFS(os.DirFS(dir), dir)
}

func (t *Table) LoadFS(fsys fs.FS, displayDir string) error {
	paths, err := doublestar.Glob(fsys, LANG_FILE_PATTERN)
	if err != nil {
		return fmt.Errorf("failed to list the language files: %w", err)
	}
	slices.SortFunc(paths, compareNatural)

	for _, p := range paths {
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read the language file %s: %w", p, err)
		}
		if err := t.LoadLangFile(path.Join(displayDir, p), content); err != nil {
			return err
		}
	}
	return nil
}

// LoadLangFile adds the texts of a language file, filename is only used in error messages.
func (t *Table) LoadLangFile(filename string, content []byte) error {
	var file langFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return grferr.New(grferr.ErrTypeMismatch, srcpos.Position{File: filename}, "invalid language file: %s", err)
	}
	if file.Lang == nil {
		return grferr.New(grferr.ErrUnknownIdentifier, srcpos.Position{File: filename}, "missing language id (lang)")
	}

	names := maps.Keys(file.Strings)
	slices.Sort(names)

	for _, name := range names {
		pos := srcpos.Position{File: filename, Path: "strings." + name}
		if err := t.Add(*file.Lang, name, file.Strings[name], pos); err != nil {
			return err
		}
	}
	return nil
}

// ResolveString returns the id of the string name, ids are allocated on the first resolution.
func (t *Table) ResolveString(name string, pos srcpos.Position) (int, error) {
	if _, ok := t.texts[name]; !ok {
		return 0, grferr.New(grferr.ErrUnknownIdentifier, pos, "string %s is not defined", name)
	}
	if id, ok := t.ids[name]; ok {
		return id, nil
	}
	id, err := t.pool.PopGlobal(pos)
	if err != nil {
		return 0, err
	}
	t.ids[name] = id
	return id, nil
}

// ResolveStringTranslations returns the translations of name sorted by language.
func (t *Table) ResolveStringTranslations(name string, pos srcpos.Position) ([]actions.Translation, error) {
	translations, ok := t.texts[name]
	if !ok {
		return nil, grferr.New(grferr.ErrUnknownIdentifier, pos, "string %s is not defined", name)
	}

	langs := maps.Keys(translations)
	slices.Sort(langs)

	result := make([]actions.Translation, 0, len(langs))
	for _, lang := range langs {
		result = append(result, actions.Translation{Lang: lang, Text: translations[lang].value})
	}
	return result, nil
}

// Names returns the names of the strings in natural order.
func (t *Table) Names() []string {
	names := maps.Keys(t.texts)
	slices.SortFunc(names, compareNatural)
	return names
}

// Unused returns the names of the strings that have never been resolved, in natural order.
func (t *Table) Unused() []string {
	var unused []string
	for _, name := range t.Names() {
		if _, ok := t.ids[name]; !ok {
			unused = append(unused, name)
		}
	}
	return unused
}

func (t *Table) Pool() *pool.Pool {
	return t.pool
}

func compareNatural(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}
