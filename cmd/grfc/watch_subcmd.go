package main

import (
	"context"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bep/debounce"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/inoxlang/grfc/internal/cache"
	"github.com/inoxlang/grfc/internal/compiler"
	"github.com/inoxlang/grfc/internal/config"
	"github.com/inoxlang/grfc/internal/decl"
	"github.com/inoxlang/grfc/internal/strtab"
	"github.com/inoxlang/grfc/internal/utils"
	"github.com/rs/zerolog"
)

const (
	WATCH_DEBOUNCE_DURATION = 200 * time.Millisecond
	MAX_PARSED_FILES        = 16
)

type buildWatcher struct {
	opts        buildOptions
	buildConfig compiler.BuildConfig
	logger      zerolog.Logger
	errW        io.Writer

	lock sync.Mutex //held during builds
}

func Watch(subcmd string, args []string, settings config.Settings, logger zerolog.Logger, outW, errW io.Writer) (statusCode int) {
	opts, ok, statusCode := parseBuildFlags(subcmd, args, settings, outW, errW)
	if !ok {
		return statusCode
	}

	w := &buildWatcher{
		opts:        opts,
		buildConfig: opts.buildConfig(logger),
		logger:      logger,
		errW:        errW,
	}
	w.buildConfig.Parsed = cache.NewContentCache[decl.File]()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		printError(errW, err)
		return ERROR_STATUS_CODE
	}
	defer watcher.Close()

	if err := w.addWatchedDirs(watcher); err != nil {
		printError(errW, err)
		return ERROR_STATUS_CODE
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	debounced := debounce.New(WATCH_DEBOUNCE_DURATION)

	w.rebuild()
	logger.Info().Str("input", opts.inputPath).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
			return 0
		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.isInLangDir(event.Name) {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch directory")
					}
				}
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if !w.isRelevant(event.Name) {
				continue
			}

			logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change detected")
			debounced(func() {
				defer func() {
					if e := recover(); e != nil {
						printError(errW, utils.ConvertPanicValueToError(e))
					}
				}()
				w.rebuild()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// addWatchedDirs watches the directory of the input file and the language directory (recursively).
func (w *buildWatcher) addWatchedDirs(watcher *fsnotify.Watcher) error {
	dirs := []string{filepath.Dir(w.opts.inputPath)}

	if langDir := w.opts.settings.LangDir; langDir != "" {
		err := filepath.WalkDir(langDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				dirs = append(dirs, path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	var errs []error
	for _, dir := range dirs {
		errs = append(errs, watcher.Add(dir))
	}
	return utils.CombineErrorsWithPrefixMessage("failed to watch directories", errs...)
}

func (w *buildWatcher) isInLangDir(path string) bool {
	langDir := w.opts.settings.LangDir
	if langDir == "" {
		return false
	}
	rel, err := filepath.Rel(langDir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// isRelevant reports whether a change of the file at path may change the output.
func (w *buildWatcher) isRelevant(path string) bool {
	if filepath.Clean(path) == filepath.Clean(w.opts.inputPath) {
		return true
	}

	if !w.isInLangDir(path) {
		return false
	}

	rel, _ := filepath.Rel(w.opts.settings.LangDir, path)
	match, err := doublestar.Match(strtab.LANG_FILE_PATTERN, filepath.ToSlash(rel))
	return err == nil && match
}

func (w *buildWatcher) rebuild() {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.buildConfig.Parsed.Len() > MAX_PARSED_FILES {
		w.buildConfig.Parsed.InvalidateAllEntries()
	}

	start := time.Now()
	stats, err := build(w.opts, w.buildConfig)
	if err != nil {
		printError(w.errW, err)
		return
	}

	w.logger.Info().
		Str("output", w.opts.outputPath).
		Int("size", stats.OutputSize).
		Dur("duration", time.Since(start)).
		Msg("build succeeded")
}
