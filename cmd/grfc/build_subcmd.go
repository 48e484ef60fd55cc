package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/inoxlang/grfc/internal/cache"
	"github.com/inoxlang/grfc/internal/compiler"
	"github.com/inoxlang/grfc/internal/config"
	"github.com/rs/zerolog"
)

type buildOptions struct {
	inputPath  string
	outputPath string
	printStats bool
	noCache    bool
	settings   config.Settings
}

// parseBuildFlags parses the arguments of the build and watch sub commands, ok is false if the
// command should stop.
func parseBuildFlags(subcmd string, args []string, settings config.Settings, outW, errW io.Writer) (opts buildOptions, ok bool, statusCode int) {
	flags := flag.NewFlagSet(subcmd, flag.ContinueOnError)
	flags.SetOutput(errW)

	opts.settings = settings
	flags.StringVar(&opts.outputPath, "o", "", "output file, the extension of the format replaces the extension of the input by default")
	flags.StringVar(&opts.settings.OutputFormat, "format", settings.OutputFormat, "output format: "+config.GRF_OUTPUT_FORMAT+" or "+config.NFO_OUTPUT_FORMAT)
	flags.StringVar(&opts.settings.LangDir, "lang", settings.LangDir, "directory of the language files")
	flags.IntVar(&opts.settings.MaxInlineSkip, "max-inline-skip", settings.MaxInlineSkip, "maximum number of sprites skipped without a label")
	flags.BoolVar(&opts.printStats, "stats", false, "print the statistics of the build as JSON")
	flags.BoolVar(&opts.noCache, "no-cache", false, "do not use the build cache")

	if showHelp(flags, args, outW) {
		return buildOptions{}, false, 0
	}

	if err := flags.Parse(args); err != nil {
		return buildOptions{}, false, ERROR_STATUS_CODE
	}

	if err := opts.settings.Validate(); err != nil {
		fmt.Fprintln(errW, err)
		return buildOptions{}, false, ERROR_STATUS_CODE
	}

	opts.inputPath = flags.Arg(0)
	if opts.inputPath == "" || flags.NArg() > 1 {
		fmt.Fprintln(errW, "a single declaration file is expected")
		return buildOptions{}, false, ERROR_STATUS_CODE
	}

	if opts.outputPath == "" {
		opts.outputPath = defaultOutputPath(opts.inputPath, opts.settings.OutputFormat)
	}

	return opts, true, 0
}

func defaultOutputPath(inputPath string, format string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + format
}

func (opts buildOptions) buildConfig(logger zerolog.Logger) compiler.BuildConfig {
	return compiler.BuildConfig{
		Config: compiler.Config{
			Logger:        logger,
			MaxInlineSkip: opts.settings.MaxInlineSkip,
			LangDir:       opts.settings.LangDir,
		},
		Format: opts.settings.OutputFormat,
	}
}

func openBuildCache(logger zerolog.Logger) *cache.BuildCache {
	path, err := config.BuildCachePath()
	if err != nil {
		logger.Warn().Err(err).Msg("the build cache is disabled")
		return nil
	}

	buildCache, err := cache.OpenBuildCache(path)
	if err != nil {
		logger.Warn().Err(err).Msg("the build cache is disabled")
		return nil
	}
	return buildCache
}

func BuildGRF(subcmd string, args []string, settings config.Settings, logger zerolog.Logger, outW, errW io.Writer) (statusCode int) {
	opts, ok, statusCode := parseBuildFlags(subcmd, args, settings, outW, errW)
	if !ok {
		return statusCode
	}

	buildConfig := opts.buildConfig(logger)
	if !opts.noCache {
		buildConfig.Outputs = openBuildCache(logger)
		if buildConfig.Outputs != nil {
			defer buildConfig.Outputs.Close()
		}
	}

	stats, err := build(opts, buildConfig)
	if err != nil {
		printError(errW, err)
		return ERROR_STATUS_CODE
	}

	if opts.printStats {
		serialized, err := stats.JSON()
		if err != nil {
			printError(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintf(outW, "%s\n", serialized)
	}
	return 0
}

// build compiles the input file and writes the output file, the output file is left untouched if
// the compilation fails.
func build(opts buildOptions, buildConfig compiler.BuildConfig) (compiler.Stats, error) {
	var buf bytes.Buffer
	stats, err := compiler.Build(opts.inputPath, &buf, buildConfig)
	if err != nil {
		return compiler.Stats{}, err
	}

	if err := os.WriteFile(opts.outputPath, buf.Bytes(), 0644); err != nil {
		return compiler.Stats{}, fmt.Errorf("failed to write the output file: %w", err)
	}
	return stats, nil
}

func CheckFiles(subcmd string, args []string, settings config.Settings, logger zerolog.Logger, outW, errW io.Writer) (statusCode int) {
	flags := flag.NewFlagSet(subcmd, flag.ContinueOnError)
	flags.SetOutput(errW)

	flags.StringVar(&settings.LangDir, "lang", settings.LangDir, "directory of the language files")
	flags.IntVar(&settings.MaxInlineSkip, "max-inline-skip", settings.MaxInlineSkip, "maximum number of sprites skipped without a label")

	if showHelp(flags, args, outW) {
		return 0
	}

	if err := flags.Parse(args); err != nil {
		return ERROR_STATUS_CODE
	}

	if err := settings.Validate(); err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}

	if flags.NArg() == 0 {
		fmt.Fprintln(errW, "missing declaration file")
		return ERROR_STATUS_CODE
	}

	buildConfig := compiler.BuildConfig{
		Config: compiler.Config{
			Logger:        logger,
			MaxInlineSkip: settings.MaxInlineSkip,
			LangDir:       settings.LangDir,
		},
	}

	failed := 0
	for _, path := range flags.Args() {
		if _, err := compiler.Check(path, buildConfig); err != nil {
			printError(errW, err)
			failed++
			continue
		}
		fmt.Fprintf(outW, "%s: ok\n", path)
	}

	if failed > 0 {
		fmt.Fprintf(errW, "%d of %d file(s) failed\n", failed, flags.NArg())
		return ERROR_STATUS_CODE
	}
	return 0
}
