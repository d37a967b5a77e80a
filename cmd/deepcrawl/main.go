package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/alexeyismirnov/deep-crawl/internal/config"
	"github.com/alexeyismirnov/deep-crawl/internal/engine"
	enginerrors "github.com/alexeyismirnov/deep-crawl/internal/errors"
	"github.com/alexeyismirnov/deep-crawl/internal/events"
	"github.com/alexeyismirnov/deep-crawl/internal/linkcheck"
	"github.com/alexeyismirnov/deep-crawl/internal/logfields"
	"github.com/alexeyismirnov/deep-crawl/internal/metrics"
	"github.com/alexeyismirnov/deep-crawl/internal/state"
	"github.com/alexeyismirnov/deep-crawl/internal/taxonomy"
	"github.com/alexeyismirnov/deep-crawl/internal/urlnorm"
	"github.com/alexeyismirnov/deep-crawl/internal/util/sets"
	"github.com/alexeyismirnov/deep-crawl/internal/version"
	"github.com/alexeyismirnov/deep-crawl/internal/watch"
	"github.com/prometheus/client_golang/prometheus"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"deepcrawl.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Override the configured output directory"`
	} `cmd:"" help:"Run a full migration build from the crawled corpus"`

	Classify struct {
		URL    string `arg:"" help:"URL of the page to classify"`
		Parent string `arg:"" optional:"" help:"URL of the page it was discovered through"`
	} `cmd:"" help:"Classify one URL pair against the category rules"`

	Verify struct {
		Dir string `short:"d" help:"Content directory to verify (defaults to <output>/content)"`
	} `cmd:"" help:"Verify internal links of an emitted content tree"`

	History struct {
		Limit int `short:"n" help:"Number of runs to show" default:"10"`
	} `cmd:"" help:"Show recent runs from the state store"`

	Watch struct{} `cmd:"" help:"Rebuild continuously when the corpus or configuration changes"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	errs := enginerrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	// Execute command
	switch ctx.Command() {
	case "build":
		cfg, err := loadConfig()
		if err != nil {
			errs.HandleError(err)
		}
		applyLogging(cfg)
		if CLI.Build.Output != "" {
			cfg.Output.Directory = CLI.Build.Output
		}
		runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := runBuild(runCtx, cfg); err != nil {
			errs.HandleError(err)
		}
	case "classify <url>", "classify <url> <parent>":
		if err := runClassify(CLI.Classify.URL, CLI.Classify.Parent); err != nil {
			errs.HandleError(err)
		}
	case "verify":
		cfg, err := loadConfig()
		if err != nil {
			errs.HandleError(err)
		}
		applyLogging(cfg)
		if err := runVerify(context.Background(), cfg); err != nil {
			errs.HandleError(err)
		}
	case "history":
		cfg, err := loadConfig()
		if err != nil {
			errs.HandleError(err)
		}
		applyLogging(cfg)
		if err := runHistory(context.Background(), cfg); err != nil {
			errs.HandleError(err)
		}
	case "watch":
		cfg, err := loadConfig()
		if err != nil {
			errs.HandleError(err)
		}
		applyLogging(cfg)
		runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := runWatch(runCtx, cfg); err != nil {
			errs.HandleError(err)
		}
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			errs.HandleError(err)
		}
	case "version":
		fmt.Println(version.String())
	}
}

// loadConfig loads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, enginerrors.Wrap(err, enginerrors.CategoryConfig, enginerrors.SeverityFatal, "configuration load failed")
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLogging re-installs the default logger per the configuration.
// --verbose always wins with debug level and the bootstrap text format.
func applyLogging(cfg *config.Config) {
	if CLI.Verbose {
		return
	}

	opts := &slog.HandlerOptions{Level: config.NormalizeLogLevel(cfg.Logging.Level).Slog()}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if config.NormalizeLogFormat(cfg.Logging.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// collaborators bundles the optional run dependencies the configuration
// enables: state store, event publisher, metrics recorder and listener.
type collaborators struct {
	store     *state.Store
	publisher *events.Publisher
	recorder  metrics.Recorder
	server    *metrics.Server
}

func openCollaborators(cfg *config.Config) (*collaborators, error) {
	c := &collaborators{recorder: metrics.NoopRecorder{}}

	if cfg.State.Path != "" {
		store, err := state.Open(cfg.State.Path)
		if err != nil {
			return nil, err
		}
		c.store = store
	}

	if cfg.Events.Enabled {
		publisher, err := events.Connect(cfg.Events)
		if err != nil {
			// The event sink is advisory. A build must not fail because
			// the broker is down.
			slog.Warn("Event sink unavailable, continuing without publishing", logfields.Error(err))
		} else {
			c.publisher = publisher
		}
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		c.recorder = metrics.NewPrometheusRecorder(reg)
		if cfg.Metrics.Listen != "" {
			c.server = metrics.NewServer(cfg.Metrics.Listen, reg)
		}
	}

	return c, nil
}

func (c *collaborators) close() {
	if c.server != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.server.Stop(stopCtx); err != nil {
			slog.Warn("Metrics listener shutdown failed", logfields.Error(err))
		}
	}
	if c.publisher != nil {
		c.publisher.Close()
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			slog.Warn("State store close failed", logfields.Error(err))
		}
	}
}

func runBuild(ctx context.Context, cfg *config.Config) error {
	collab, err := openCollaborators(cfg)
	if err != nil {
		return err
	}
	defer collab.close()

	if collab.server != nil {
		collab.server.Start()
	}

	eng := engine.New(cfg).
		WithRecorder(collab.recorder).
		WithStore(collab.store).
		WithPublisher(collab.publisher)

	report, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	return nil
}

func runClassify(ownRaw, parentRaw string) error {
	// The rule table is fixed, but a base URL from the configuration lets
	// relative spellings resolve the same way the loader resolves them.
	base := ""
	if cfg, err := config.Load(CLI.Config); err == nil {
		base = cfg.Site.BaseURL
	}

	own := urlnorm.Normalize(ownRaw, base)
	if own.Invalid {
		return enginerrors.ValidationFailed("url", fmt.Sprintf("%q does not resolve to an absolute URL", ownRaw))
	}

	parentURL := ""
	if parentRaw != "" {
		parent := urlnorm.Normalize(parentRaw, base)
		if parent.Invalid {
			return enginerrors.ValidationFailed("parent", fmt.Sprintf("%q does not resolve to an absolute URL", parentRaw))
		}
		parentURL = parent.URL
	}

	classifier := taxonomy.Default()
	category, subcategory := classifier.Classify(own.URL, parentURL)

	fmt.Printf("url:         %s\n", own.URL)
	if parentURL != "" {
		fmt.Printf("parent:      %s\n", parentURL)
	}
	rule, _ := classifier.RuleFor(category)
	fmt.Printf("category:    %s (/%s, %s)\n", category, rule.Slug, rule.Label)
	if subcategory != "" {
		sub, _ := classifier.SubruleFor(category, subcategory)
		fmt.Printf("subcategory: %s (/%s/%s, %s)\n", subcategory, rule.Slug, sub.Slug, sub.Label)
	}
	return nil
}

func runVerify(ctx context.Context, cfg *config.Config) error {
	contentDir := CLI.Verify.Dir
	if contentDir == "" {
		contentDir = filepath.Join(cfg.Output.Directory, "content")
	}

	checker := linkcheck.NewChecker(snapshotPaths(ctx, cfg))
	res, err := checker.VerifyTree(contentDir)
	if err != nil {
		return err
	}

	for _, f := range res.Findings {
		fmt.Printf("%s:%d: dangling destination %s\n", f.File, f.Line, f.Destination)
	}
	fmt.Printf("%d files, %d links extracted, %d checked, %d dangling\n",
		res.Files, res.Links, res.Checked, len(res.Findings))

	if len(res.Findings) > 0 {
		return fmt.Errorf("%d destinations do not land on an emitted page", len(res.Findings))
	}
	return nil
}

// snapshotPaths collects canonical paths from the latest mapping snapshot,
// so verification accepts destinations that are mapped but absent from the
// tree being checked. Any state trouble degrades to emitted-pages-only.
func snapshotPaths(ctx context.Context, cfg *config.Config) sets.Set[string] {
	paths := sets.New[string]()
	if cfg.State.Path == "" {
		return paths
	}

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		slog.Warn("State store unavailable, verifying against emitted pages only", logfields.Error(err))
		return paths
	}
	defer store.Close()

	run, err := store.LatestRun(ctx)
	if err != nil {
		slog.Warn("Run history unreadable", logfields.Error(err))
		return paths
	}
	if run == nil {
		return paths
	}

	mappings, err := store.MappingsForRun(ctx, run.RunID)
	if err != nil {
		slog.Warn("Mapping snapshot unreadable", logfields.RunID(run.RunID), logfields.Error(err))
		return paths
	}
	for _, m := range mappings {
		paths.Add(m.CanonicalPath)
	}
	slog.Debug("Mapping snapshot loaded", logfields.RunID(run.RunID), logfields.Count(paths.Len()))
	return paths
}

func runHistory(ctx context.Context, cfg *config.Config) error {
	if cfg.State.Path == "" {
		return enginerrors.ValidationFailed("state.path", "run history needs a state store, set state.path in the configuration")
	}

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.RecentRuns(ctx, CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %s  %-7s  documents=%-5d rewritten=%-5d unresolved=%-4d collisions=%-3d %s\n",
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Outcome,
			r.Documents, r.Rewritten, r.Unresolved, r.Collisions,
			r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond))
	}
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config) error {
	collab, err := openCollaborators(cfg)
	if err != nil {
		return err
	}
	defer collab.close()

	if collab.server != nil {
		collab.server.Start()
	}

	eng := engine.New(cfg).
		WithRecorder(collab.recorder).
		WithStore(collab.store).
		WithPublisher(collab.publisher)

	watcher, err := watch.New(cfg, CLI.Config, func(ctx context.Context) error {
		_, err := eng.Run(ctx)
		return err
	})
	if err != nil {
		return err
	}

	return watcher.Run(ctx)
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", logfields.Path(configPath))
	return config.Init(configPath, force)
}
