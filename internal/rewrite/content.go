package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
)

var (
	markdownLinkRe = regexp.MustCompile(`\[(?P<text>[^\]]+)\]\((?P<link>[^)]+)\)`)
	htmlAttrRe     = regexp.MustCompile(`(?i)(href|src)(\s*=\s*)("([^"]*)"|'([^']*)'|([^\s>'"]+))`)
)

// rewriteMarkdownLinks handles [text](target) and ![alt](target)
// occurrences. An optional link title after the target is preserved.
func (r *Rewriter) rewriteMarkdownLinks(doc *corpus.Document, content string, res *Result) string {
	return markdownLinkRe.ReplaceAllStringFunc(content, func(m string) string {
		matches := markdownLinkRe.FindStringSubmatch(m)
		if len(matches) != 3 {
			return m
		}
		text, link := matches[1], matches[2]

		title := ""
		if idx := strings.IndexAny(link, " \t"); idx >= 0 && strings.ContainsAny(link[idx:], `"'`) {
			title = link[idx:]
			link = link[:idx]
		}

		newLink := r.rewriteTarget(doc, link, res)
		if newLink == link {
			return m
		}
		return fmt.Sprintf("[%s](%s%s)", text, newLink, title)
	})
}

// rewriteHTMLAttrs handles href and src attribute values in raw HTML,
// preserving the attribute's spelling and quoting.
func (r *Rewriter) rewriteHTMLAttrs(doc *corpus.Document, content string, res *Result) string {
	return htmlAttrRe.ReplaceAllStringFunc(content, func(m string) string {
		matches := htmlAttrRe.FindStringSubmatch(m)
		if matches == nil {
			return m
		}
		attr, eq, quoted := matches[1], matches[2], matches[3]

		var quote, value string
		switch {
		case strings.HasPrefix(quoted, `"`):
			quote, value = `"`, matches[4]
		case strings.HasPrefix(quoted, "'"):
			quote, value = "'", matches[5]
		default:
			quote, value = "", matches[6]
		}

		newValue := r.rewriteTarget(doc, value, res)
		if newValue == value {
			return m
		}
		return attr + eq + quote + newValue + quote
	})
}
