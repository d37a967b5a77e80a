package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexeyismirnov/deep-crawl/internal/mapping"
)

// Outcome is the final state of one migration run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success" // every document migrated cleanly
	OutcomePartial Outcome = "partial" // completed, but with warnings in Issues
	OutcomeFailed  Outcome = "failed"  // a stage aborted the run
)

// IssueCode identifies one kind of per-document or per-link problem.
// The codes are a stable contract for report consumers; only append.
type IssueCode string

const (
	IssueInvalidURL      IssueCode = "invalid_url"
	IssueDuplicateURL    IssueCode = "duplicate_url"
	IssueDocumentSkipped IssueCode = "document_skipped"
	IssuePathCollision   IssueCode = "path_collision"
	IssueUnresolvedLink  IssueCode = "unresolved_link"
)

// IssueSeverity normalizes how bad an issue is. Everything the
// taxonomy knows today degrades to a warning; errors abort the run
// before they would reach the issue list.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is one structured entry in the run report.
type ReportIssue struct {
	Code     IssueCode     `json:"code"`
	Stage    string        `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// CategoryCount is one row of the per-category statistics table.
// Category rows count every document under the category, including
// subcategories; subcategory rows count their own documents.
type CategoryCount struct {
	Category      string          `json:"category"`
	Slug          string          `json:"slug"`
	Label         string          `json:"label"`
	Documents     int             `json:"documents"`
	Subcategories []CategoryCount `json:"subcategories,omitempty"`
}

// LinkCounts aggregates link outcomes across the whole corpus.
type LinkCounts struct {
	Rewritten  int `json:"rewritten"`
	External   int `json:"external"`
	Unresolved int `json:"unresolved"`
	Skipped    int `json:"skipped"`
}

// RunReport captures everything an operator needs to judge one
// migration run. It is serialized as run-report.json next to the
// emitted site and rendered as a plain-text summary.
type RunReport struct {
	SchemaVersion int       `json:"schema_version"`
	RunID         string    `json:"run_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`

	StageDurations map[string]time.Duration `json:"stage_durations"`

	RecordsTotal     int `json:"records_total"`
	Documents        int `json:"documents"`
	DocumentsSkipped int `json:"documents_skipped"`
	DuplicateURLs    int `json:"duplicate_urls"`
	InvalidURLs      int `json:"invalid_urls"`

	Categories []CategoryCount `json:"categories"`
	Links      LinkCounts      `json:"links"`
	Collisions int             `json:"collisions"`

	PagesEmitted    int    `json:"pages_emitted"`
	SectionsEmitted int    `json:"sections_emitted"`
	OutputDir       string `json:"output_dir,omitempty"`

	// MappingFingerprint is the sha256 hex digest of the closed
	// mapping table, so two runs over the same corpus can be compared
	// without diffing every row.
	MappingFingerprint string `json:"mapping_fingerprint,omitempty"`

	Issues  []ReportIssue `json:"issues"`
	Outcome Outcome       `json:"outcome"`
}

func newRunReport(runID string) *RunReport {
	return &RunReport{
		SchemaVersion:  1,
		RunID:          runID,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
		Issues:         []ReportIssue{},
	}
}

// AddIssue appends one structured issue.
func (r *RunReport) AddIssue(code IssueCode, stage string, severity IssueSeverity, message string) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Severity: severity, Message: message})
}

func (r *RunReport) observeStage(name string, d time.Duration) {
	r.StageDurations[name] = d
}

func (r *RunReport) finish() {
	if r.End.IsZero() {
		r.End = time.Now()
	}
}

// Duration is the wall-clock time of the run so far.
func (r *RunReport) Duration() time.Duration {
	end := r.End
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(r.Start)
}

// deriveOutcome settles the outcome from the issue list. A failed
// outcome set by the abort path is never downgraded.
func (r *RunReport) deriveOutcome() {
	if r.Outcome == OutcomeFailed {
		return
	}
	if len(r.Issues) > 0 {
		r.Outcome = OutcomePartial
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns the one-line form logged at run completion.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("run=%s documents=%d rewritten=%d external=%d unresolved=%d skipped=%d collisions=%d issues=%d duration=%s outcome=%s",
		r.RunID, r.Documents,
		r.Links.Rewritten, r.Links.External, r.Links.Unresolved, r.Links.Skipped,
		r.Collisions, len(r.Issues),
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Persist writes the report into dir as <name>.json and <name>.txt,
// each atomically via a temp file and rename. name defaults to
// "run-report". Best effort; the caller logs the error, the run
// outcome never changes because of it.
func (r *RunReport) Persist(dir, name string) error {
	if name == "" {
		name = "run-report"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, name+".json"), append(data, '\n')); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, name+".txt"), []byte(r.renderText()))
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// renderText lays the report out for the operator: run header, corpus
// counters, the per-category table, link outcomes and the issue list.
func (r *RunReport) renderText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "deepcrawl run %s\n", r.RunID)
	fmt.Fprintf(&b, "outcome:  %s\n", r.Outcome)
	fmt.Fprintf(&b, "started:  %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "duration: %s\n", r.Duration().Truncate(time.Millisecond))
	b.WriteString("\n")

	fmt.Fprintf(&b, "documents: %d of %d records", r.Documents, r.RecordsTotal)
	if r.DocumentsSkipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", r.DocumentsSkipped)
	}
	if r.DuplicateURLs > 0 {
		fmt.Fprintf(&b, ", %d duplicates", r.DuplicateURLs)
	}
	if r.InvalidURLs > 0 {
		fmt.Fprintf(&b, ", %d invalid URLs", r.InvalidURLs)
	}
	b.WriteString("\n\n")

	if len(r.Categories) > 0 {
		fmt.Fprintf(&b, "%-40s %9s\n", "category", "documents")
		for _, c := range r.Categories {
			fmt.Fprintf(&b, "%-40s %9d\n", c.Label, c.Documents)
			for _, s := range c.Subcategories {
				fmt.Fprintf(&b, "  %-38s %9d\n", s.Label, s.Documents)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "links: %d rewritten, %d external, %d unresolved, %d skipped\n",
		r.Links.Rewritten, r.Links.External, r.Links.Unresolved, r.Links.Skipped)
	fmt.Fprintf(&b, "collisions disambiguated: %d\n", r.Collisions)
	fmt.Fprintf(&b, "emitted: %d pages, %d section indexes\n", r.PagesEmitted, r.SectionsEmitted)

	if len(r.Issues) > 0 {
		b.WriteString("\nissues:\n")
		for _, issue := range r.Issues {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
		}
	}

	return b.String()
}

// MappingFingerprintOf hashes the closed mapping table. Entries come
// out of the table sorted by URL, so the digest is stable for a fixed
// corpus.
func MappingFingerprintOf(entries []mapping.Entry) string {
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s %s\n", e.URL, e.Path)
	}
	return hex.EncodeToString(h.Sum(nil))
}
