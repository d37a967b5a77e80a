package sitemap

import (
	"sort"

	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/taxonomy"
)

// Node is one entry in the two-level navigation tree handed to the
// rendering stage. Category nodes may carry subcategory children;
// every node lists only the documents assigned directly to it.
type Node struct {
	Name      string // Rule name, stable across display-language changes
	Slug      string
	Label     string // Display label in the site language
	Weight    int    // Menu ordering weight from the rule table
	Path      string // Site-rooted section path
	Children  []*Node
	Documents []*corpus.Document // Ordered by canonical path
}

// BuildMenuTree arranges classified, path-assigned documents into the
// navigation tree. Node order follows the declared rule order, never
// discovery order; categories without documents are omitted.
func BuildMenuTree(documents []*corpus.Document, classifier *taxonomy.Classifier) []*Node {
	byCategory := make(map[string][]*corpus.Document)
	for _, doc := range documents {
		byCategory[doc.Category] = append(byCategory[doc.Category], doc)
	}

	var tree []*Node
	for _, rule := range classifier.Rules() {
		docs := byCategory[rule.Name]
		if len(docs) == 0 {
			continue
		}

		node := &Node{
			Name:   rule.Name,
			Slug:   rule.Slug,
			Label:  rule.Label,
			Weight: rule.Weight,
			Path:   "/" + rule.Slug,
		}

		bySubcategory := make(map[string][]*corpus.Document)
		for _, doc := range docs {
			bySubcategory[doc.Subcategory] = append(bySubcategory[doc.Subcategory], doc)
		}

		node.Documents = sortedByPath(bySubcategory[""])

		for _, sub := range rule.Subrules {
			subDocs := bySubcategory[sub.Name]
			if len(subDocs) == 0 {
				continue
			}
			node.Children = append(node.Children, &Node{
				Name:      sub.Name,
				Slug:      sub.Slug,
				Label:     sub.Label,
				Weight:    sub.Weight,
				Path:      node.Path + "/" + sub.Slug,
				Documents: sortedByPath(subDocs),
			})
		}

		tree = append(tree, node)
	}

	return tree
}

func sortedByPath(docs []*corpus.Document) []*corpus.Document {
	ordered := make([]*corpus.Document, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CanonicalPath < ordered[j].CanonicalPath
	})
	return ordered
}
