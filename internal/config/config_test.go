package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inoxlang/grfc/internal/actions"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings(t *testing.T) {

	t.Run("default settings are valid", func(t *testing.T) {
		settings := DefaultSettings()
		assert.NoError(t, settings.Validate())
		assert.Equal(t, actions.DEFAULT_MAX_INLINE_SKIP, settings.MaxInlineSkip)

		level, err := settings.ZerologLevel()
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, level)
	})

	t.Run("invalid settings", func(t *testing.T) {
		settings := DefaultSettings()
		settings.MaxInlineSkip = actions.FIRST_SHORT_LABEL
		assert.ErrorIs(t, settings.Validate(), ErrInvalidSettings)

		settings = DefaultSettings()
		settings.MaxInlineSkip = 0
		assert.ErrorIs(t, settings.Validate(), ErrInvalidSettings)

		settings = DefaultSettings()
		settings.OutputFormat = "xml"
		assert.ErrorIs(t, settings.Validate(), ErrInvalidSettings)

		settings = DefaultSettings()
		settings.LogLevel = "verbose"
		assert.ErrorIs(t, settings.Validate(), ErrInvalidSettings)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	write := func(t *testing.T, content string) string {
		path := filepath.Join(dir, t.Name()+".yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	t.Run("missing fields have their default value", func(t *testing.T) {
		settings, err := LoadFile(write(t, "output_format: nfo\nlang_dir: lang\n"))
		require.NoError(t, err)

		expected := DefaultSettings()
		expected.OutputFormat = NFO_OUTPUT_FORMAT
		expected.LangDir = "lang"
		assert.Equal(t, expected, settings)
	})

	t.Run("all fields", func(t *testing.T) {
		settings, err := LoadFile(write(t, "max_inline_skip: 3\noutput_format: grf\nlog_level: debug\nlang_dir: l\n"))
		require.NoError(t, err)
		assert.Equal(t, Settings{MaxInlineSkip: 3, OutputFormat: GRF_OUTPUT_FORMAT, LogLevel: "debug", LangDir: "l"}, settings)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadFile(write(t, "max_inline_skip: 3\ncolor: true\n"))
		assert.ErrorIs(t, err, ErrInvalidSettings)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestColorProfile(t *testing.T) {
	colorize := SHOULD_COLORIZE
	defer func() {
		SHOULD_COLORIZE = colorize
	}()

	SHOULD_COLORIZE = false
	assert.Equal(t, termenv.Ascii, ColorProfile())
}
