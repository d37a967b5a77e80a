package linkcheck

import (
	"io"

	"golang.org/x/net/html"
)

// ExtractHTMLLinks collects href/src destinations from HTML. Emitted
// pages keep fragments of the legacy markup, so the whole body of a
// markdown file can be fed through here; markdown syntax is plain text
// to the HTML parser and contributes nothing.
func ExtractHTMLLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []Link

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if dest := elementDestination(n); dest != "" {
				links = append(links, Link{Kind: LinkKindHTML, Destination: dest})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(doc)
	return links, nil
}

func elementDestination(n *html.Node) string {
	switch n.Data {
	case "a", "link":
		return getAttr(n, "href")
	case "img", "script", "video", "audio", "source", "iframe", "embed":
		return getAttr(n, "src")
	}
	return ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
