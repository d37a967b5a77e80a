package sitemap

import (
	"fmt"
	"log/slog"
	"net/url"
	stdpath "path"
	"regexp"
	"sort"
	"strings"

	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/logfields"
	"github.com/alexeyismirnov/deep-crawl/internal/slug"
	"github.com/alexeyismirnov/deep-crawl/internal/taxonomy"
	"github.com/alexeyismirnov/deep-crawl/internal/util/sets"
)

// Collision records one candidate path that was already taken and the
// disambiguated path the document received instead
type Collision struct {
	Candidate string // The contested candidate path
	Path      string // The path actually assigned
	URL       string // Normalized URL of the document that lost the tie
}

// Language suffixes the legacy site appends to file stems.
var langSuffixRe = regexp.MustCompile(`_(ru|en|cn|gb|b5|big5)$`)

// AssignPaths gives every classified document a canonical path
// `/<category-slug>[/<subcategory-slug>]/<leaf-slug>`, unique within
// the corpus. Ties are broken in ascending normalized-URL order and
// resolved with numeric suffixes, so a fixed corpus always yields the
// same assignment regardless of input order. Documents must already
// carry Category/Subcategory.
func AssignPaths(documents []*corpus.Document, classifier *taxonomy.Classifier) []Collision {
	ordered := make([]*corpus.Document, len(documents))
	copy(ordered, documents)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].NormalizedURL < ordered[j].NormalizedURL
	})

	taken := sets.New[string]()
	var collisions []Collision

	for _, doc := range ordered {
		candidate := candidatePath(doc, classifier)

		path := candidate
		for n := 2; taken.Has(path); n++ {
			path = fmt.Sprintf("%s-%d", candidate, n)
		}
		taken.Add(path)
		doc.CanonicalPath = path

		if path != candidate {
			collisions = append(collisions, Collision{Candidate: candidate, Path: path, URL: doc.NormalizedURL})
			slog.Warn("Canonical path collision disambiguated",
				logfields.Path(path),
				slog.String("candidate", candidate),
				logfields.URL(doc.NormalizedURL))
		}
	}

	return collisions
}

func candidatePath(doc *corpus.Document, classifier *taxonomy.Classifier) string {
	rule, ok := classifier.RuleFor(doc.Category)
	if !ok {
		rule, _ = classifier.RuleFor(taxonomy.Other)
	}

	segments := []string{rule.Slug}
	if doc.Subcategory != "" {
		if sub, ok := classifier.SubruleFor(doc.Category, doc.Subcategory); ok {
			segments = append(segments, sub.Slug)
		}
	}
	segments = append(segments, leafSlug(doc))

	return "/" + strings.Join(segments, "/")
}

// leafSlug derives the last path segment: the slugified title, falling
// back to the URL basename stem, then to "untitled".
func leafSlug(doc *corpus.Document) string {
	if s := slug.Make(doc.Title); s != "" {
		return s
	}
	if s := slug.Make(urlStem(doc.NormalizedURL)); s != "" {
		return s
	}
	return "untitled"
}

// urlStem extracts the basename of a URL path without its extension
// and without the legacy language suffix: ".../20150517beijing_ru.htm"
// yields "20150517beijing".
func urlStem(rawurl string) string {
	p := rawurl
	if u, err := url.Parse(rawurl); err == nil && u.Path != "" {
		p = u.Path
	}

	base := stdpath.Base(p)
	if base == "/" || base == "." {
		return ""
	}
	base = strings.TrimSuffix(base, stdpath.Ext(base))
	return langSuffixRe.ReplaceAllString(strings.ToLower(base), "")
}
