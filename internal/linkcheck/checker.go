package linkcheck

import (
	"io/fs"
	"log/slog"
	"os"
	stdpath "path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexeyismirnov/deep-crawl/internal/frontmatter"
	"github.com/alexeyismirnov/deep-crawl/internal/logfields"
	"github.com/alexeyismirnov/deep-crawl/internal/util/sets"
)

// Finding is one destination that does not correspond to an emitted page
type Finding struct {
	File        string // Path of the offending file, relative to the content root
	Line        int    // 1-based line of the first occurrence, 0 when not locatable
	Destination string
}

// Result summarizes one verification run
type Result struct {
	Files    int // Markdown files walked
	Links    int // Destinations extracted
	Checked  int // Destinations subject to verification
	Findings []Finding
}

// Checker verifies an emitted content tree offline: every in-site
// destination must land on an emitted page or on a path the mapping
// snapshot knows about.
type Checker struct {
	extraPaths sets.Set[string]
}

// NewChecker creates a checker. extraPaths may carry canonical paths
// from a mapping snapshot that count as valid even if untraversed; nil
// is fine.
func NewChecker(extraPaths sets.Set[string]) *Checker {
	if extraPaths == nil {
		extraPaths = sets.New[string]()
	}
	return &Checker{extraPaths: extraPaths}
}

// VerifyTree walks the content tree rooted at contentDir and checks
// every extracted destination. Findings come back sorted by file, then
// line.
func (c *Checker) VerifyTree(contentDir string) (*Result, error) {
	pages, files, err := collectPages(contentDir)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, rel := range files {
		body, err := os.ReadFile(filepath.Join(contentDir, rel))
		if err != nil {
			return nil, err
		}
		res.Files++
		c.verifyFile(rel, body, pages, res)
	}

	sort.Slice(res.Findings, func(i, j int) bool {
		if res.Findings[i].File != res.Findings[j].File {
			return res.Findings[i].File < res.Findings[j].File
		}
		return res.Findings[i].Line < res.Findings[j].Line
	})

	slog.Info("Content tree verified",
		logfields.Path(contentDir),
		slog.Int("files", res.Files),
		slog.Int("checked", res.Checked),
		slog.Int("dangling", len(res.Findings)))

	return res, nil
}

func (c *Checker) verifyFile(rel string, raw []byte, pages sets.Set[string], res *Result) {
	// Front matter is metadata, not content; only body links are
	// verified. Line numbers still refer to the file as written.
	_, body, _, _, err := frontmatter.Split(raw)
	if err != nil {
		body = raw
	}

	links := ExtractMarkdownLinks(body)
	if htmlLinks, err := ExtractHTMLLinks(strings.NewReader(nonCodeLines(body))); err == nil {
		links = append(links, htmlLinks...)
	}

	pagePath := pagePathOf(rel)
	seen := sets.New[string]()

	for _, link := range links {
		res.Links++
		dest := strings.TrimSpace(link.Destination)
		if !shouldVerify(dest) {
			continue
		}
		res.Checked++

		candidate := resolveDestination(pagePath, dest)
		if pages.Has(candidate) || c.extraPaths.Has(candidate) {
			continue
		}
		if seen.Has(candidate) {
			continue
		}
		seen.Add(candidate)

		res.Findings = append(res.Findings, Finding{
			File:        rel,
			Line:        lineOf(raw, dest),
			Destination: dest,
		})
	}
}

// collectPages walks the tree once, returning the set of page paths a
// destination may point at and the markdown files to verify.
func collectPages(contentDir string) (sets.Set[string], []string, error) {
	pages := sets.New[string]()
	var files []string

	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		rel, err := filepath.Rel(contentDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, rel)
		pages.Add(pagePathOf(rel))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Strings(files)
	return pages, files, nil
}

// pagePathOf maps a content-relative markdown file to the site path it
// is served under: news/archive/visit.md becomes /news/archive/visit,
// news/_index.md becomes /news, _index.md becomes /.
func pagePathOf(rel string) string {
	p := "/" + strings.TrimSuffix(rel, ".md")
	if strings.HasSuffix(p, "/_index") {
		p = strings.TrimSuffix(p, "/_index")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// resolveDestination turns a destination into the canonical page path
// it points at: fragments dropped, relative forms resolved against the
// page's served URL, trailing slash trimmed. Every page is served as a
// directory (/news/archive/visit/), so the page path itself is the
// base for relative destinations.
func resolveDestination(pagePath, dest string) string {
	if idx := strings.IndexByte(dest, '#'); idx >= 0 {
		dest = dest[:idx]
	}
	if dest == "" {
		return pagePath
	}

	var p string
	if strings.HasPrefix(dest, "/") {
		p = stdpath.Clean(dest)
	} else {
		p = stdpath.Join(pagePath, dest)
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func shouldVerify(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}
	lower := strings.ToLower(dest)
	for _, prefix := range []string{"http://", "https://", "//", "mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

// lineOf locates the first line containing needle, for reporting.
func lineOf(body []byte, needle string) int {
	idx := strings.Index(string(body), needle)
	if idx < 0 {
		return 0
	}
	return 1 + strings.Count(string(body[:idx]), "\n")
}
