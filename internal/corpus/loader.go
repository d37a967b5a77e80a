package corpus

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/alexeyismirnov/deep-crawl/internal/config"
	enginerrors "github.com/alexeyismirnov/deep-crawl/internal/errors"
	"github.com/alexeyismirnov/deep-crawl/internal/logfields"
	"github.com/alexeyismirnov/deep-crawl/internal/urlnorm"
	"github.com/alexeyismirnov/deep-crawl/internal/util/sets"
)

// LoadStats summarizes one corpus load
type LoadStats struct {
	Total      int // Records present in the corpus file
	Loaded     int // Documents handed to the build phase
	Skipped    int // Filtered out by extension, pattern or depth
	Dropped    int // Structurally unusable (missing original_url)
	Duplicates int // Later spellings of an already-seen normalized URL
	Invalid    int // Loaded, but with an unparsable original_url
}

// Loader reads the extraction stage's JSON corpus and prepares
// Documents for classification
type Loader struct {
	source  config.SourceConfig
	baseURL string
}

// NewLoader creates a corpus loader for the configured source
func NewLoader(cfg *config.Config) *Loader {
	return &Loader{
		source:  cfg.Source,
		baseURL: cfg.Site.BaseURL,
	}
}

// Load reads, filters, normalizes and deduplicates the corpus.
// The first record for a normalized URL wins; later spellings of the
// same page are dropped so that classification and path assignment see
// each page exactly once.
func (l *Loader) Load() ([]*Document, *LoadStats, error) {
	data, err := os.ReadFile(l.source.Corpus)
	if err != nil {
		return nil, nil, enginerrors.CorpusReadError(l.source.Corpus, err)
	}

	var records []*Document
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, enginerrors.CorpusDecodeError(l.source.Corpus, err)
	}

	stats := &LoadStats{Total: len(records)}
	seen := sets.New[string]()
	documents := make([]*Document, 0, len(records))

	for _, doc := range records {
		if strings.TrimSpace(doc.OriginalURL) == "" {
			stats.Dropped++
			slog.Warn("Document skipped, missing original_url", slog.String("title", doc.Title))
			continue
		}

		if reason := l.skipReason(doc); reason != "" {
			stats.Skipped++
			slog.Debug("Document filtered", logfields.URL(doc.OriginalURL), slog.String("reason", reason))
			continue
		}

		res := urlnorm.Normalize(doc.OriginalURL, l.baseURL)
		doc.NormalizedURL = res.URL
		doc.InvalidURL = res.Invalid
		if res.Invalid {
			stats.Invalid++
			slog.Warn("Document URL not parsable, kept as-is", logfields.URL(doc.OriginalURL))
		}

		if doc.ParentURL != "" {
			doc.NormalizedParent = urlnorm.Normalize(doc.ParentURL, l.baseURL).URL
		}

		key := urlnorm.LookupKey(doc.NormalizedURL)
		if seen.Has(key) {
			stats.Duplicates++
			slog.Debug("Duplicate URL dropped", logfields.URL(doc.OriginalURL), slog.String("normalized", doc.NormalizedURL))
			continue
		}
		seen.Add(key)

		documents = append(documents, doc)
	}

	stats.Loaded = len(documents)
	slog.Info("Corpus loaded",
		logfields.Path(l.source.Corpus),
		logfields.Count(stats.Loaded),
		slog.Int("skipped", stats.Skipped),
		slog.Int("dropped", stats.Dropped),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("invalid", stats.Invalid))

	return documents, stats, nil
}

// skipReason reports why a record is filtered out, empty to keep it
func (l *Loader) skipReason(doc *Document) string {
	lower := strings.ToLower(doc.OriginalURL)
	if cut := strings.IndexAny(lower, "?#"); cut >= 0 {
		lower = lower[:cut]
	}

	for _, ext := range l.source.SkipExtensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return "extension " + ext
		}
	}
	for _, pattern := range l.source.SkipPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return "pattern " + pattern
		}
	}
	if l.source.MaxDepth > 0 && doc.Depth > l.source.MaxDepth {
		return "depth"
	}
	return ""
}
