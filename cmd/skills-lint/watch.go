package main

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jingkaihe/skills-lint/pkg/cache"
	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/discovery"
	"github.com/jingkaihe/skills-lint/pkg/logger"
	"github.com/jingkaihe/skills-lint/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Lint         *LintConfig
	IgnoreDirs   []string
	DebounceTime int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Lint:         NewLintConfig(),
		IgnoreDirs:   []string{".git", "node_modules", cache.DefaultDir},
		DebounceTime: 300,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Lint, then lint again whenever a skill file or the config changes",
	Long: `Runs the linter once and keeps watching the directories the config patterns
point at. Any change to a matching file, or to the config file itself, triggers
a new run after a short debounce. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg := getWatchConfigFromFlags(cmd)
		if err := cfg.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(exitFatal)
		}
		if err := runWatch(cmd.Context(), cfg, os.Stdout); err != nil {
			presenter.Error(err, "")
			os.Exit(exitFatal)
		}
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().StringSliceP("ignore", "i", defaults.IgnoreDirs, "Directories to ignore")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	cfg := NewWatchConfig()

	cfg.Lint = getLintConfigFromFlags(cmd)
	cfg.Lint.Quiet = true
	cfg.Lint.File = ""
	if ignoreDirs, err := cmd.Flags().GetStringSlice("ignore"); err == nil {
		cfg.IgnoreDirs = ignoreDirs
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		cfg.DebounceTime = debounceTime
	}

	return cfg
}

func runWatch(ctx context.Context, cfg *WatchConfig, out io.Writer) error {
	log := logger.G(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	w := &skillWatcher{cfg: cfg, watcher: watcher}
	w.reload(ctx)

	runLint(ctx, cfg.Lint, out)

	changes := make(chan string)
	relint := debounce(ctx, changes, time.Duration(cfg.DebounceTime)*time.Millisecond)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !w.relevant(ctx, event) {
					continue
				}
				select {
				case changes <- event.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("file watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()

	presenter.Dim("Watching for changes... Press Ctrl+C to stop")

	for {
		select {
		case path, ok := <-relint:
			if !ok {
				return nil
			}
			log.WithField("file", path).Debug("change detected, re-linting")
			presenter.Separator()
			presenter.Dim("Change detected: " + path)
			w.reload(ctx)
			runLint(ctx, cfg.Lint, out)
		case <-ctx.Done():
			return nil
		}
	}
}

// skillWatcher tracks the directories covering the config patterns
type skillWatcher struct {
	cfg     *WatchConfig
	watcher *fsnotify.Watcher

	mu       sync.RWMutex
	patterns []string
}

// reload re-reads the config patterns and watches their base directories.
// An unreadable config leaves the previous patterns in place.
func (w *skillWatcher) reload(ctx context.Context) {
	log := logger.G(ctx)

	if lintCfg, err := config.Load(w.cfg.Lint.ConfigPath); err == nil {
		w.mu.Lock()
		w.patterns = lintCfg.Patterns
		w.mu.Unlock()
	} else {
		log.WithError(err).Debug("keeping previous patterns")
	}

	w.addDir(ctx, filepath.Dir(w.cfg.Lint.ConfigPath))
	for _, pattern := range w.currentPatterns() {
		w.addTree(ctx, discovery.Base(pattern))
	}
}

// addTree watches root and every directory below it, skipping ignored names
func (w *skillWatcher) addTree(ctx context.Context, root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		w.addDir(ctx, path)
		return nil
	})
	if err != nil {
		logger.G(ctx).WithError(err).WithField("root", root).Debug("failed to walk directory")
	}
}

func (w *skillWatcher) currentPatterns() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.patterns
}

func (w *skillWatcher) addDir(ctx context.Context, dir string) {
	if err := w.watcher.Add(dir); err != nil {
		logger.G(ctx).WithError(err).WithField("directory", dir).Debug("failed to watch directory")
		return
	}
	logger.G(ctx).WithField("directory", dir).Trace("watching directory")
}

func (w *skillWatcher) ignored(name string) bool {
	for _, dir := range w.cfg.IgnoreDirs {
		if name == dir {
			return true
		}
	}
	return false
}

// relevant reports whether event should trigger a run. A new directory is
// watched together with its subdirectories and triggers a run, since files
// may have landed in it before the watch was in place.
func (w *skillWatcher) relevant(ctx context.Context, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.ignored(info.Name()) {
				return false
			}
			w.addTree(ctx, event.Name)
			return true
		}
	}

	if samePath(event.Name, w.cfg.Lint.ConfigPath) {
		return true
	}
	for _, pattern := range w.currentPatterns() {
		if discovery.Match(pattern, event.Name) {
			return true
		}
	}
	return false
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// debounce forwards the last value received on in once no new value has
// arrived for delay. The returned channel closes with ctx or in.
func debounce(ctx context.Context, in <-chan string, delay time.Duration) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		var (
			timer *time.Timer
			fire  <-chan time.Time
			last  string
		)
		stop := func() {
			if timer != nil {
				timer.Stop()
			}
		}

		for {
			select {
			case value, ok := <-in:
				if !ok {
					stop()
					return
				}
				last = value
				if timer == nil {
					timer = time.NewTimer(delay)
				} else {
					timer.Reset(delay)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				select {
				case out <- last:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				stop()
				return
			}
		}
	}()

	return out
}
