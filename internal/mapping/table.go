package mapping

import (
	"sort"

	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/urlnorm"
)

// Table is the corpus-wide index from normalized original URL to
// canonical path. It is built once per run, after path assignment, and
// is read-only during the rewrite phase; workers share it without
// locking.
type Table struct {
	paths    map[string]string
	assigned map[string]struct{}
}

// Entry is one table row, used for persistence and reporting
type Entry struct {
	URL  string // Normalized original URL, fragment stripped
	Path string // Assigned canonical path
}

// Build indexes every assigned document. Documents with unparsable
// URLs or no assigned path are not mapped; their links can never be
// resolved and rewriting must leave them alone.
func Build(documents []*corpus.Document) *Table {
	paths := make(map[string]string, len(documents))
	assigned := make(map[string]struct{}, len(documents))
	for _, doc := range documents {
		if doc.InvalidURL || doc.CanonicalPath == "" {
			continue
		}
		key := urlnorm.LookupKey(doc.NormalizedURL)
		if _, exists := paths[key]; exists {
			// Loader dedup keys on the same lookup key, so a second
			// document here means a caller skipped it. First one wins.
			continue
		}
		paths[key] = doc.CanonicalPath
		assigned[doc.CanonicalPath] = struct{}{}
	}
	return &Table{paths: paths, assigned: assigned}
}

// Lookup resolves a normalized absolute URL to its canonical path.
// Any fragment on the URL is ignored for the lookup.
func (t *Table) Lookup(normalizedURL string) (string, bool) {
	path, ok := t.paths[urlnorm.LookupKey(normalizedURL)]
	return path, ok
}

// HasPath reports whether path is a canonical path this table
// assigned. The rewriter uses it to recognize links that were already
// rewritten by an earlier run.
func (t *Table) HasPath(path string) bool {
	_, ok := t.assigned[path]
	return ok
}

// Len returns the number of mapped documents.
func (t *Table) Len() int {
	return len(t.paths)
}

// Entries returns all rows in ascending URL order, so persistence and
// diffs are stable across runs.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.paths))
	for url, path := range t.paths {
		entries = append(entries, Entry{URL: url, Path: path})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })
	return entries
}
