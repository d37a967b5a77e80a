package hugosite

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexeyismirnov/deep-crawl/internal/config"
	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/frontmatter"
	"github.com/alexeyismirnov/deep-crawl/internal/sitemap"
)

const untitledPage = "Без названия"

// pageFrontMatter assembles front matter for one article page.
// Articles are hidden from the sidebar; navigation goes through the
// section indexes.
func pageFrontMatter(doc *corpus.Document, weight int, now time.Time) map[string]any {
	fm := map[string]any{
		"title":             pageTitle(doc),
		"date":              pageDate(doc, now),
		"draft":             false,
		"weight":            weight,
		"bookToc":           true,
		"bookComments":      false,
		"bookSearchExclude": false,
		"bookHidden":        true,
	}
	if doc.OriginalURL != "" {
		fm["original_url"] = doc.OriginalURL
	}
	if doc.ParentURL != "" {
		fm["parent_url"] = doc.ParentURL
	}
	if doc.Depth > 0 {
		fm["depth"] = doc.Depth
	}
	return fm
}

// sectionFrontMatter assembles front matter for a category or
// subcategory index. The weight comes from the rule table so menu
// order is stable across runs.
func sectionFrontMatter(node *sitemap.Node) map[string]any {
	return map[string]any{
		"title":               node.Label,
		"weight":              node.Weight,
		"bookCollapseSection": true,
		"bookFlatSection":     false,
	}
}

func homeFrontMatter(site config.SiteConfig) map[string]any {
	return map[string]any{
		"title":   site.Title,
		"type":    "docs",
		"bookToc": false,
	}
}

func pageTitle(doc *corpus.Document) string {
	title := strings.TrimSpace(doc.Title)
	if title == "" {
		return untitledPage
	}
	return title
}

func pageDate(doc *corpus.Document, now time.Time) string {
	if doc.Date != "" {
		return doc.Date
	}
	return now.Format("2006-01-02")
}

// renderDocument serializes front matter deterministically and
// prepends it to the body.
func renderDocument(fields map[string]any, body string) ([]byte, error) {
	fmData, err := frontmatter.SerializeYAML(fields, frontmatter.Style{})
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("---\n%s---\n\n%s", fmData, body)), nil
}
