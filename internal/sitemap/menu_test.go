package sitemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/taxonomy"
)

func TestBuildMenuTreeDeclaredOrder(t *testing.T) {
	docs := []*corpus.Document{
		{Category: "Other", CanonicalPath: "/other/misc"},
		{Category: "Catechism", CanonicalPath: "/catechism/intro"},
		{Category: "News", CanonicalPath: "/news/z"},
		{Category: "News", Subcategory: "Archive", CanonicalPath: "/news/archive/a"},
	}

	tree := BuildMenuTree(docs, taxonomy.Default())

	// Declared rule order, not discovery order. Empty categories are
	// not represented.
	require.Len(t, tree, 3)
	assert.Equal(t, "News", tree[0].Name)
	assert.Equal(t, "Catechism", tree[1].Name)
	assert.Equal(t, "Other", tree[2].Name)

	assert.Equal(t, "Новости", tree[0].Label)
	assert.Equal(t, 10, tree[0].Weight)
	assert.Equal(t, "/news", tree[0].Path)
}

func TestBuildMenuTreeLeafPlacement(t *testing.T) {
	docs := []*corpus.Document{
		{Category: "News", CanonicalPath: "/news/plain"},
		{Category: "News", Subcategory: "Archive", CanonicalPath: "/news/archive/b"},
		{Category: "News", Subcategory: "Archive", CanonicalPath: "/news/archive/a"},
		{Category: "News", Subcategory: "Events", CanonicalPath: "/news/events/x"},
	}

	tree := BuildMenuTree(docs, taxonomy.Default())
	require.Len(t, tree, 1)
	news := tree[0]

	// Direct documents stay on the category node.
	require.Len(t, news.Documents, 1)
	assert.Equal(t, "/news/plain", news.Documents[0].CanonicalPath)

	// Children follow the declared subcategory order: Archive before
	// Events, untouched subcategories omitted.
	require.Len(t, news.Children, 2)
	archive, events := news.Children[0], news.Children[1]
	assert.Equal(t, "Archive", archive.Name)
	assert.Equal(t, "/news/archive", archive.Path)
	assert.Equal(t, "Events", events.Name)

	// Leaves ordered by canonical path.
	require.Len(t, archive.Documents, 2)
	assert.Equal(t, "/news/archive/a", archive.Documents[0].CanonicalPath)
	assert.Equal(t, "/news/archive/b", archive.Documents[1].CanonicalPath)
}

func TestBuildMenuTreeEmptyCorpus(t *testing.T) {
	assert.Empty(t, BuildMenuTree(nil, taxonomy.Default()))
}
