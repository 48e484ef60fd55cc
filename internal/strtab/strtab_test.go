package strtab

import (
	"testing"
	"testing/fstest"

	"github.com/inoxlang/grfc/internal/actions"
	"github.com/inoxlang/grfc/internal/grferr"
	"github.com/inoxlang/grfc/internal/srcpos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pos = srcpos.Position{File: "test.yaml", Line: 3}

func TestTable(t *testing.T) {

	t.Run("ids are allocated on first resolution", func(t *testing.T) {
		table := New()
		require.NoError(t, table.Add(0, "STR_B", "b", pos))
		require.NoError(t, table.Add(0, "STR_A", "a", pos))

		id, err := table.ResolveString("STR_A", pos)
		require.NoError(t, err)
		assert.Equal(t, FIRST_STRING_ID, id)

		id, err = table.ResolveString("STR_B", pos)
		require.NoError(t, err)
		assert.Equal(t, FIRST_STRING_ID+1, id)

		id, err = table.ResolveString("STR_A", pos)
		require.NoError(t, err)
		assert.Equal(t, FIRST_STRING_ID, id)

		assert.Empty(t, table.Unused())
	})

	t.Run("unknown string", func(t *testing.T) {
		table := New()

		_, err := table.ResolveString("STR_X", pos)
		assert.ErrorIs(t, err, grferr.ErrUnknownIdentifier)

		_, err = table.ResolveStringTranslations("STR_X", pos)
		assert.ErrorIs(t, err, grferr.ErrUnknownIdentifier)
	})

	t.Run("translations are sorted by language", func(t *testing.T) {
		table := New()
		require.NoError(t, table.Add(0x7F, "STR_A", "any", pos))
		require.NoError(t, table.Add(0x03, "STR_A", "de", pos))
		require.NoError(t, table.Add(0x01, "STR_A", "en", pos))

		translations, err := table.ResolveStringTranslations("STR_A", pos)
		require.NoError(t, err)
		assert.Equal(t, []actions.Translation{
			{Lang: 0x01, Text: "en"},
			{Lang: 0x03, Text: "de"},
			{Lang: 0x7F, Text: "any"},
		}, translations)
	})

	t.Run("duplicate translation", func(t *testing.T) {
		table := New()
		require.NoError(t, table.Add(1, "STR_A", "a", pos))
		assert.ErrorIs(t, table.Add(1, "STR_A", "b", pos), grferr.ErrDuplicateIdentifier)
	})

	t.Run("invalid language", func(t *testing.T) {
		assert.ErrorIs(t, New().Add(0x80, "STR_A", "a", pos), grferr.ErrRange)
	})

	t.Run("invalid escape", func(t *testing.T) {
		assert.ErrorIs(t, New().Add(0, "STR_A", `\Q`, pos), grferr.ErrTypeMismatch)
	})

	t.Run("exhaustion", func(t *testing.T) {
		table := New()
		for i := FIRST_STRING_ID; i <= LAST_STRING_ID+1; i++ {
			require.NoError(t, table.Add(0, string(rune('a'))+string(rune(i)), "x", pos))
		}

		var lastErr error
		for _, name := range table.Names() {
			if _, err := table.ResolveString(name, pos); err != nil {
				lastErr = err
				break
			}
		}
		assert.ErrorIs(t, lastErr, grferr.ErrResourceExhausted)
	})
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"english.yaml": {Data: []byte("lang: 1\nstrings:\n  STR_NAME: Train\n  STR_DESC: A train\n")},
		"sub/german.yml": {Data: []byte("lang: 2\nstrings:\n  STR_NAME: Zug\n")},
		"README.md":      {Data: []byte("not a language file")},
	}

	t.Run("all language files are loaded", func(t *testing.T) {
		table := New()
		require.NoError(t, table.LoadFS(fsys, "lang"))

		assert.Equal(t, []string{"STR_DESC", "STR_NAME"}, table.Names())

		translations, err := table.ResolveStringTranslations("STR_NAME", pos)
		require.NoError(t, err)
		assert.Equal(t, []actions.Translation{{Lang: 1, Text: "Train"}, {Lang: 2, Text: "Zug"}}, translations)
		assert.Equal(t, []string{"STR_DESC", "STR_NAME"}, table.Unused())
	})

	t.Run("missing language id", func(t *testing.T) {
		table := New()
		err := table.LoadLangFile("x.yaml", []byte("strings:\n  STR_A: a\n"))
		assert.ErrorIs(t, err, grferr.ErrUnknownIdentifier)
	})

	t.Run("duplicate across files", func(t *testing.T) {
		table := New()
		require.NoError(t, table.LoadLangFile("a.yaml", []byte("lang: 1\nstrings:\n  STR_A: a\n")))
		err := table.LoadLangFile("b.yaml", []byte("lang: 1\nstrings:\n  STR_A: b\n"))
		assert.ErrorIs(t, err, grferr.ErrDuplicateIdentifier)
	})
}
