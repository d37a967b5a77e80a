// Package engine runs the migration pipeline: load the crawled corpus,
// classify and place every document, rewrite legacy links against the
// closed mapping table and emit the Hugo content tree. The build phase
// finishes completely before the rewrite phase starts; rewriting runs
// on a bounded worker pool over immutable state.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexeyismirnov/deep-crawl/internal/config"
	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/events"
	"github.com/alexeyismirnov/deep-crawl/internal/hugosite"
	"github.com/alexeyismirnov/deep-crawl/internal/logfields"
	"github.com/alexeyismirnov/deep-crawl/internal/mapping"
	"github.com/alexeyismirnov/deep-crawl/internal/metrics"
	"github.com/alexeyismirnov/deep-crawl/internal/rewrite"
	"github.com/alexeyismirnov/deep-crawl/internal/sitemap"
	"github.com/alexeyismirnov/deep-crawl/internal/state"
	"github.com/alexeyismirnov/deep-crawl/internal/taxonomy"
)

// Engine executes migration runs for one loaded configuration.
// The state store and event publisher are optional collaborators; a
// nil store skips history recording, a nil publisher drops events.
type Engine struct {
	cfg        *config.Config
	classifier *taxonomy.Classifier
	recorder   metrics.Recorder
	store      *state.Store
	publisher  *events.Publisher
}

// New creates an engine with the compiled-in rule table and no
// metrics, state or event sinks.
func New(cfg *config.Config) *Engine {
	return &Engine{
		cfg:        cfg,
		classifier: taxonomy.Default(),
		recorder:   metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder.
func (e *Engine) WithRecorder(r metrics.Recorder) *Engine {
	if r != nil {
		e.recorder = r
	}
	return e
}

// WithStore injects the run history store.
func (e *Engine) WithStore(s *state.Store) *Engine {
	e.store = s
	return e
}

// WithPublisher injects the unresolved-link event publisher.
func (e *Engine) WithPublisher(p *events.Publisher) *Engine {
	e.publisher = p
	return e
}

// Run executes one complete migration run. It always returns a
// report; when a stage aborts, the report carries the failed outcome
// and the returned error wraps that stage's sentinel.
func (e *Engine) Run(ctx context.Context) (*RunReport, error) {
	report := newRunReport(uuid.NewString())
	report.OutputDir = e.cfg.Output.Directory

	slog.Info("Migration run started",
		logfields.RunID(report.RunID),
		logfields.File(e.cfg.Source.Corpus),
		logfields.Path(e.cfg.Output.Directory))

	var (
		documents []*corpus.Document
		loadStats *corpus.LoadStats
	)
	err := e.stage(ctx, report, StageLoad, ErrLoad, func() error {
		docs, stats, err := corpus.NewLoader(e.cfg).Load()
		documents, loadStats = docs, stats
		return err
	})
	if err != nil {
		return e.fail(report, err)
	}
	e.recordLoadStats(report, documents, loadStats)

	err = e.stage(ctx, report, StageClassify, ErrClassify, func() error {
		for _, doc := range documents {
			doc.Category, doc.Subcategory = e.classifier.Classify(doc.NormalizedURL, doc.NormalizedParent)
		}
		return nil
	})
	if err != nil {
		return e.fail(report, err)
	}

	var (
		table *mapping.Table
		tree  []*sitemap.Node
	)
	err = e.stage(ctx, report, StageAssign, ErrAssign, func() error {
		collisions := sitemap.AssignPaths(documents, e.classifier)
		for _, c := range collisions {
			report.AddIssue(IssuePathCollision, StageAssign, SeverityWarning,
				fmt.Sprintf("%s already taken, %s assigned %s", c.Candidate, c.URL, c.Path))
		}
		report.Collisions = len(collisions)

		table = mapping.Build(documents)
		report.MappingFingerprint = MappingFingerprintOf(table.Entries())
		tree = sitemap.BuildMenuTree(documents, e.classifier)
		report.Categories = categoryCounts(tree)
		return nil
	})
	if err != nil {
		return e.fail(report, err)
	}

	var unresolved []*events.UnresolvedLinkEvent
	err = e.stage(ctx, report, StageRewrite, ErrRewrite, func() error {
		var linkStats rewrite.Stats
		linkStats, unresolved = e.rewriteAll(ctx, documents, table, report.RunID)
		report.Links = LinkCounts(linkStats)
		if linkStats.Unresolved > 0 {
			report.AddIssue(IssueUnresolvedLink, StageRewrite, SeverityWarning,
				fmt.Sprintf("%d internal links point at pages outside the corpus and were left unchanged", linkStats.Unresolved))
		}
		return ctx.Err()
	})
	if err != nil {
		return e.fail(report, err)
	}

	err = e.stage(ctx, report, StageEmit, ErrEmit, func() error {
		res, err := hugosite.NewWriter(e.cfg).Emit(tree)
		if err != nil {
			return err
		}
		report.PagesEmitted = res.Pages
		report.SectionsEmitted = res.Sections
		report.OutputDir = res.Output
		return nil
	})
	if err != nil {
		return e.fail(report, err)
	}

	report.deriveOutcome()

	err = e.stage(ctx, report, StageState, ErrState, func() error {
		return e.persistState(ctx, report, documents)
	})
	if err != nil {
		return e.fail(report, err)
	}

	e.publishUnresolved(unresolved)

	report.finish()
	e.recordRunMetrics(report)
	e.persistReport(report)
	slog.Info("Migration run completed", slog.String("summary", report.Summary()))
	return report, nil
}

// stage runs one pipeline stage, wrapping any failure with the
// stage's sentinel. A context already canceled at the stage boundary
// aborts with the same sentinel.
func (e *Engine) stage(ctx context.Context, report *RunReport, name string, sentinel error, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	start := time.Now()
	slog.Debug("Stage started", logfields.Stage(name), logfields.RunID(report.RunID))
	if err := fn(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	elapsed := time.Since(start)
	report.observeStage(name, elapsed)
	e.recorder.ObserveStageDuration(name, elapsed)
	slog.Debug("Stage completed", logfields.Stage(name), logfields.Duration(elapsed))
	return nil
}

// fail finalizes the report for an aborted run.
func (e *Engine) fail(report *RunReport, err error) (*RunReport, error) {
	report.Outcome = OutcomeFailed
	report.finish()
	e.recordRunMetrics(report)
	e.persistReport(report)
	slog.Error("Migration run failed", logfields.RunID(report.RunID), logfields.Error(err))
	return report, err
}

func (e *Engine) recordLoadStats(report *RunReport, documents []*corpus.Document, stats *corpus.LoadStats) {
	report.RecordsTotal = stats.Total
	report.Documents = stats.Loaded
	report.DocumentsSkipped = stats.Skipped + stats.Dropped
	report.DuplicateURLs = stats.Duplicates
	report.InvalidURLs = stats.Invalid

	if report.DocumentsSkipped > 0 {
		report.AddIssue(IssueDocumentSkipped, StageLoad, SeverityWarning,
			fmt.Sprintf("%d records filtered or missing original_url", report.DocumentsSkipped))
	}
	if stats.Duplicates > 0 {
		report.AddIssue(IssueDuplicateURL, StageLoad, SeverityWarning,
			fmt.Sprintf("%d records were later spellings of an already-loaded URL", stats.Duplicates))
	}
	for _, doc := range documents {
		if doc.InvalidURL {
			report.AddIssue(IssueInvalidURL, StageLoad, SeverityWarning,
				fmt.Sprintf("%s could not be parsed, kept as-is", doc.OriginalURL))
		}
	}

	slog.Info("Corpus loaded",
		logfields.Count(stats.Loaded),
		slog.Int("records", stats.Total),
		slog.Int("skipped", stats.Skipped),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("invalid", stats.Invalid))
}

// rewriteAll fans the documents out over a bounded worker pool. The
// mapping table is closed before the pool starts, so workers share it
// without locking; the mutex only guards the merged counters.
func (e *Engine) rewriteAll(ctx context.Context, documents []*corpus.Document, table *mapping.Table, runID string) (rewrite.Stats, []*events.UnresolvedLinkEvent) {
	workers := e.cfg.Build.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(documents) {
		workers = len(documents)
	}
	if workers < 1 {
		workers = 1
	}

	rewriter := rewrite.New(table, e.cfg.Site.BaseURL)
	tasks := make(chan *corpus.Document)

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		stats      rewrite.Stats
		unresolved []*events.UnresolvedLinkEvent
	)

	worker := func(id int) {
		defer wg.Done()
		for doc := range tasks {
			select {
			case <-ctx.Done():
				return
			default:
			}

			res := rewriter.Rewrite(doc)
			doc.Content = res.Content

			mu.Lock()
			stats.Merge(res.Stats)
			for _, occ := range res.Occurrences {
				if occ.Outcome != rewrite.OutcomeUnresolved {
					continue
				}
				unresolved = append(unresolved, &events.UnresolvedLinkEvent{
					URL:        occ.Resolved,
					RawTarget:  occ.Raw,
					SourceURL:  doc.NormalizedURL,
					SourcePath: doc.CanonicalPath,
					Category:   doc.Category,
					RunID:      runID,
				})
			}
			mu.Unlock()

			slog.Debug("Document rewritten",
				logfields.Worker(id),
				logfields.URL(doc.NormalizedURL),
				logfields.Count(res.Stats.Total()))
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker(i)
	}

feed:
	for _, doc := range documents {
		select {
		case tasks <- doc:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	// Pool completion order is not deterministic; put the events back
	// into a stable order before anything downstream sees them.
	sort.Slice(unresolved, func(i, j int) bool {
		if unresolved[i].SourceURL != unresolved[j].SourceURL {
			return unresolved[i].SourceURL < unresolved[j].SourceURL
		}
		return unresolved[i].RawTarget < unresolved[j].RawTarget
	})

	slog.Info("Links rewritten",
		slog.Int("workers", workers),
		slog.Int("rewritten", stats.Rewritten),
		slog.Int("external", stats.External),
		slog.Int("unresolved", stats.Unresolved),
		slog.Int("skipped", stats.Skipped))
	return stats, unresolved
}

// persistState records the run and its mapping snapshot. A nil store
// means history is disabled.
func (e *Engine) persistState(ctx context.Context, report *RunReport, documents []*corpus.Document) error {
	if e.store == nil {
		return nil
	}

	run := state.RunRecord{
		RunID:      report.RunID,
		StartedAt:  report.Start,
		FinishedAt: time.Now(),
		Documents:  report.Documents,
		Rewritten:  report.Links.Rewritten,
		Unresolved: report.Links.Unresolved,
		Collisions: report.Collisions,
		Outcome:    string(report.Outcome),
	}
	if err := e.store.RecordRun(ctx, run); err != nil {
		return err
	}

	mappings := make([]state.Mapping, 0, len(documents))
	for _, doc := range documents {
		if doc.InvalidURL || doc.CanonicalPath == "" {
			continue
		}
		mappings = append(mappings, state.Mapping{
			NormalizedURL: doc.NormalizedURL,
			CanonicalPath: doc.CanonicalPath,
			Category:      doc.Category,
			Subcategory:   doc.Subcategory,
		})
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].NormalizedURL < mappings[j].NormalizedURL })
	return e.store.SnapshotMappings(ctx, report.RunID, mappings)
}

// publishUnresolved hands unresolved-link events to the sink. Best
// effort: a dead broker degrades to warnings, never a failed run.
func (e *Engine) publishUnresolved(unresolved []*events.UnresolvedLinkEvent) {
	if e.publisher == nil || len(unresolved) == 0 {
		return
	}
	published := 0
	for _, event := range unresolved {
		if err := e.publisher.Publish(event); err != nil {
			slog.Warn("Unresolved-link event dropped",
				logfields.URL(event.URL),
				logfields.Error(err))
			continue
		}
		published++
	}
	slog.Info("Unresolved-link events published", logfields.Count(published))
}

func (e *Engine) recordRunMetrics(report *RunReport) {
	for _, c := range report.Categories {
		e.recorder.SetCategoryDocuments(c.Slug, c.Documents)
	}
	e.recorder.AddLinkOutcome(string(rewrite.OutcomeRewritten), report.Links.Rewritten)
	e.recorder.AddLinkOutcome(string(rewrite.OutcomeExternal), report.Links.External)
	e.recorder.AddLinkOutcome(string(rewrite.OutcomeUnresolved), report.Links.Unresolved)
	e.recorder.AddLinkOutcome(string(rewrite.OutcomeSkipped), report.Links.Skipped)
	e.recorder.SetCollisions(report.Collisions)
	e.recorder.IncRunOutcome(string(report.Outcome))
	e.recorder.ObserveRunDuration(report.Duration())
}

func (e *Engine) persistReport(report *RunReport) {
	if err := report.Persist(e.cfg.Output.Directory, e.cfg.Output.Report); err != nil {
		slog.Warn("Run report not persisted", logfields.Error(err))
	}
}

// categoryCounts flattens the menu tree into report rows. Category
// totals include their subcategories.
func categoryCounts(tree []*sitemap.Node) []CategoryCount {
	counts := make([]CategoryCount, 0, len(tree))
	for _, node := range tree {
		row := CategoryCount{
			Category:  node.Name,
			Slug:      node.Slug,
			Label:     node.Label,
			Documents: len(node.Documents),
		}
		for _, child := range node.Children {
			row.Documents += len(child.Documents)
			row.Subcategories = append(row.Subcategories, CategoryCount{
				Category:  child.Name,
				Slug:      child.Slug,
				Label:     child.Label,
				Documents: len(child.Documents),
			})
		}
		counts = append(counts, row)
	}
	return counts
}
