package rewrite

import (
	"strings"

	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/mapping"
	"github.com/alexeyismirnov/deep-crawl/internal/urlnorm"
)

// Outcome classifies what happened to one link target
type Outcome string

const (
	OutcomeRewritten  Outcome = "rewritten"  // Target replaced with a canonical path
	OutcomeExternal   Outcome = "external"   // Different host, left unchanged
	OutcomeUnresolved Outcome = "unresolved" // In-scope host but not in the corpus, left unchanged
	OutcomeSkipped    Outcome = "skipped"    // Non-navigational or already canonical
)

// Occurrence is one hyperlink found in a document's content
type Occurrence struct {
	Raw      string // Target exactly as written
	Resolved string // Absolute form after resolution against the document URL
	Outcome  Outcome
}

// Stats counts link outcomes for one document or a whole run
type Stats struct {
	Rewritten  int
	External   int
	Unresolved int
	Skipped    int
}

func (s *Stats) add(o Outcome) {
	switch o {
	case OutcomeRewritten:
		s.Rewritten++
	case OutcomeExternal:
		s.External++
	case OutcomeUnresolved:
		s.Unresolved++
	case OutcomeSkipped:
		s.Skipped++
	}
}

// Merge adds other's counts into s.
func (s *Stats) Merge(other Stats) {
	s.Rewritten += other.Rewritten
	s.External += other.External
	s.Unresolved += other.Unresolved
	s.Skipped += other.Skipped
}

// Total returns the number of link targets seen.
func (s Stats) Total() int {
	return s.Rewritten + s.External + s.Unresolved + s.Skipped
}

// Result carries one document's rewritten content and link outcomes
type Result struct {
	Content     string
	Stats       Stats
	Occurrences []Occurrence
}

// Rewriter replaces legacy link targets with canonical paths. It holds
// only immutable state and is safe for concurrent use by the worker
// pool.
type Rewriter struct {
	table    *mapping.Table
	baseHost string
}

// New creates a rewriter over a closed mapping table. baseURL decides
// which hosts count as in-scope when a target cannot be resolved.
func New(table *mapping.Table, baseURL string) *Rewriter {
	return &Rewriter{
		table:    table,
		baseHost: canonicalHost(urlnorm.Host(baseURL)),
	}
}

// Rewrite scans the document's content for markdown link targets and
// HTML href/src attribute values, resolves each against the document's
// own URL and replaces the ones that map to a migrated page. Targets
// that resolve outside the corpus are left byte-for-byte unchanged.
// Nothing outside hyperlink targets is altered.
func (r *Rewriter) Rewrite(doc *corpus.Document) Result {
	res := Result{}

	content := r.rewriteHTMLAttrs(doc, doc.Content, &res)
	content = r.rewriteMarkdownLinks(doc, content, &res)
	res.Content = content

	return res
}

// rewriteTarget decides one raw target's fate. It returns the
// replacement target (the raw one when nothing changes) and records
// the occurrence.
func (r *Rewriter) rewriteTarget(doc *corpus.Document, raw string, res *Result) string {
	target := strings.TrimSpace(raw)
	outcome, resolved, rewritten := r.classify(doc, target)

	res.Stats.add(outcome)
	res.Occurrences = append(res.Occurrences, Occurrence{Raw: target, Resolved: resolved, Outcome: outcome})

	if outcome == OutcomeRewritten {
		return rewritten
	}
	return raw
}

func (r *Rewriter) classify(doc *corpus.Document, target string) (Outcome, string, string) {
	if target == "" || strings.HasPrefix(target, "#") {
		return OutcomeSkipped, "", ""
	}
	lower := strings.ToLower(target)
	for _, scheme := range []string{"mailto:", "javascript:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return OutcomeSkipped, "", ""
		}
	}

	norm := urlnorm.Normalize(target, doc.NormalizedURL)
	if norm.Invalid {
		return OutcomeUnresolved, norm.URL, ""
	}
	resolved := norm.URL

	if path, ok := r.table.Lookup(resolved); ok {
		return OutcomeRewritten, resolved, path + fragmentOf(resolved)
	}

	// A site-rooted target that already is an assigned canonical path
	// was produced by an earlier run; touching it again would count
	// phantom unresolved links.
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		if r.table.HasPath(urlnorm.LookupKey(target)) {
			return OutcomeSkipped, resolved, ""
		}
	}

	if canonicalHost(urlnorm.Host(resolved)) == r.baseHost {
		return OutcomeUnresolved, resolved, ""
	}
	return OutcomeExternal, resolved, ""
}

func fragmentOf(url string) string {
	if idx := strings.IndexByte(url, '#'); idx >= 0 {
		return url[idx:]
	}
	return ""
}

// canonicalHost ignores the www prefix; the legacy site served both
// spellings of its host.
func canonicalHost(host string) string {
	return strings.TrimPrefix(host, "www.")
}
