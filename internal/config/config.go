package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"
	"github.com/inoxlang/grfc/internal/actions"
	"github.com/rs/zerolog"
)

const (
	GRFC_APP_NAME = "grfc"

	CONFIG_FILE_RELPATH = GRFC_APP_NAME + "/config.yaml"
	BUILD_CACHE_RELPATH = GRFC_APP_NAME + "/build-cache.db"

	LOG_LEVEL_ENV_VARNAME = "GRFC_LOG_LEVEL"

	GRF_OUTPUT_FORMAT = "grf"
	NFO_OUTPUT_FORMAT = "nfo"

	DEFAULT_OUTPUT_FORMAT = GRF_OUTPUT_FORMAT
	DEFAULT_LOG_LEVEL     = "info"
)

var (
	FORCE_COLOR           bool
	TRUECOLOR_COLORTERM   bool
	TERM_256COLOR_CAPABLE bool
	NO_COLOR              bool
	STDERR_IS_TERMINAL    bool
	SHOULD_COLORIZE       bool

	ErrInvalidSettings = errors.New("invalid settings")
)

func init() {
	targetSpecificInit()
}

// Settings are the compiler settings, they are read from the configuration file if it exists and
// can be overridden by command line flags.
type Settings struct {
	MaxInlineSkip int    `yaml:"max_inline_skip"`
	OutputFormat  string `yaml:"output_format"`
	LogLevel      string `yaml:"log_level"`
	LangDir       string `yaml:"lang_dir"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxInlineSkip: actions.DEFAULT_MAX_INLINE_SKIP,
		OutputFormat:  DEFAULT_OUTPUT_FORMAT,
		LogLevel:      DEFAULT_LOG_LEVEL,
	}
}

// Load searches for the configuration file in the XDG config directories, the default settings are
// returned if there is none. The path of the loaded file is empty if no file has been found.
// The log level of the environment (GRFC_LOG_LEVEL) takes precedence over the file.
func Load() (settings Settings, path string, _ error) {
	settings = DefaultSettings()

	path, err := xdg.SearchConfigFile(CONFIG_FILE_RELPATH)
	if err == nil {
		settings, err = LoadFile(path)
		if err != nil {
			return Settings{}, path, err
		}
	} else {
		path = ""
	}

	if level, ok := os.LookupEnv(LOG_LEVEL_ENV_VARNAME); ok && level != "" {
		settings.LogLevel = level
	}

	return settings, path, settings.Validate()
}

// LoadFile reads the settings in the YAML file at path, missing fields have their default value.
func LoadFile(path string) (Settings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read the configuration file: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.UnmarshalWithOptions(content, &settings, yaml.DisallowUnknownField()); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %s", ErrInvalidSettings, path, err)
	}
	return settings, nil
}

func (s Settings) Validate() error {
	if s.MaxInlineSkip < 1 || s.MaxInlineSkip > actions.FIRST_SHORT_LABEL-1 {
		return fmt.Errorf("%w: max_inline_skip should be in the range [1, %d], not %d",
			ErrInvalidSettings, actions.FIRST_SHORT_LABEL-1, s.MaxInlineSkip)
	}

	switch s.OutputFormat {
	case GRF_OUTPUT_FORMAT, NFO_OUTPUT_FORMAT:
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidSettings, s.OutputFormat)
	}

	if _, err := s.ZerologLevel(); err != nil {
		return err
	}
	return nil
}

func (s Settings) ZerologLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: invalid log level %q", ErrInvalidSettings, s.LogLevel)
	}
	return level, nil
}

// BuildCachePath returns the path of the build cache, the parent directories are created.
func BuildCachePath() (string, error) {
	return xdg.CacheFile(BUILD_CACHE_RELPATH)
}
