// Package watch keeps the emitted site current: it reruns the build
// whenever the corpus or the configuration file changes on disk, and
// optionally on a fixed interval. One build runs at a time; triggers
// arriving during a build coalesce into a single follow-up run.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/alexeyismirnov/deep-crawl/internal/config"
	"github.com/alexeyismirnov/deep-crawl/internal/logfields"
	"github.com/alexeyismirnov/deep-crawl/internal/util/sets"
)

// BuildFunc executes one migration run. The watcher treats a build
// failure as a logged event, not a reason to stop watching.
type BuildFunc func(ctx context.Context) error

// Watcher drives continuous rebuilds.
type Watcher struct {
	build     BuildFunc
	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler

	watched  sets.Set[string] // absolute paths of the files that trigger builds
	debounce time.Duration
	interval time.Duration

	// rebuilds has capacity one; a pending trigger absorbs new ones.
	rebuilds chan string
}

// New prepares a watcher over the configured corpus and the given
// config file. Parent directories are watched and events filtered by
// file name; editors replace files instead of writing in place, so
// watching the file itself would silently stop after the first save.
func New(cfg *config.Config, configPath string, build BuildFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		build:    build,
		watcher:  fsWatcher,
		watched:  sets.New[string](),
		debounce: cfg.WatchDebounce(),
		interval: cfg.WatchInterval(),
		rebuilds: make(chan string, 1),
	}

	dirs := sets.New[string]()
	for _, path := range []string{cfg.Source.Corpus, configPath} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("resolve watch path %s: %w", path, err)
		}
		w.watched.Add(abs)
		dirs.Add(filepath.Dir(abs))
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("watch directory %s: %w", dir, err)
		}
	}

	if w.interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("create scheduler: %w", err)
		}
		if _, err := scheduler.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(func() { w.trigger("interval") }),
			gocron.WithName("periodic-rebuild"),
		); err != nil {
			fsWatcher.Close()
			_ = scheduler.Shutdown()
			return nil, fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		w.scheduler = scheduler
	}

	return w, nil
}

// Run builds once to bring the site current, then blocks rebuilding
// on every trigger until the context is canceled. The error of an
// individual build is logged; Run only returns the context's error,
// and nil for a clean cancel.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	go w.watchLoop(ctx)
	if w.scheduler != nil {
		w.scheduler.Start()
		slog.Info("Periodic rebuilds scheduled", logfields.Duration(w.interval))
	}

	files := make([]string, 0, w.watched.Len())
	for path := range w.watched {
		files = append(files, path)
	}
	sort.Strings(files)
	slog.Info("Watching for changes",
		slog.Any("files", files),
		logfields.Duration(w.debounce))

	w.runBuild(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watcher stopped")
			return nil
		case reason := <-w.rebuilds:
			w.runBuild(ctx, reason)
		}
	}
}

// watchLoop turns raw file events into debounced triggers.
func (w *Watcher) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Change detected",
				logfields.File(event.Name),
				slog.String("op", event.Op.String()))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(w.debounce, func() {
				w.trigger(filepath.Base(name))
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// relevant filters directory noise down to the watched files. Write,
// create and rename all count; editors and atomic writers differ in
// which one a save produces.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	abs, err := filepath.Abs(event.Name)
	if err != nil || !w.watched.Has(abs) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// trigger requests a rebuild without blocking; a request already
// queued swallows this one.
func (w *Watcher) trigger(reason string) {
	select {
	case w.rebuilds <- reason:
	default:
	}
}

func (w *Watcher) runBuild(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	slog.Info("Rebuild triggered", slog.String("reason", reason))
	if err := w.build(ctx); err != nil {
		slog.Error("Rebuild failed", slog.String("reason", reason), logfields.Error(err))
	}
}

func (w *Watcher) close() {
	if err := w.watcher.Close(); err != nil {
		slog.Error("Error closing file watcher", logfields.Error(err))
	}
	if w.scheduler != nil {
		if err := w.scheduler.Shutdown(); err != nil {
			slog.Error("Error stopping scheduler", logfields.Error(err))
		}
	}
}
