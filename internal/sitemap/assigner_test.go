package sitemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/taxonomy"
)

func classified(url, parent, title string) *corpus.Document {
	doc := &corpus.Document{
		NormalizedURL:    url,
		NormalizedParent: parent,
		Title:            title,
	}
	doc.Category, doc.Subcategory = taxonomy.Default().Classify(url, parent)
	return doc
}

func TestAssignPathsArchivedNewsPage(t *testing.T) {
	doc := classified(
		"https://orthodox.cn/news/20150517beijing_ru.htm",
		"https://orthodox.cn/news/archive_ru.htm",
		"")

	collisions := AssignPaths([]*corpus.Document{doc}, taxonomy.Default())

	require.Empty(t, collisions)
	assert.Equal(t, "News", doc.Category)
	assert.Equal(t, "Archive", doc.Subcategory)
	assert.Equal(t, "/news/archive/20150517beijing", doc.CanonicalPath)
}

func TestAssignPathsTitleSlug(t *testing.T) {
	doc := classified(
		"https://orthodox.cn/news/liturgy_ru.htm",
		"",
		"Божественная литургия в Пекине")

	AssignPaths([]*corpus.Document{doc}, taxonomy.Default())

	assert.Equal(t, "/news/bozhestvennaya-liturgiya-v-pekine", doc.CanonicalPath)
}

func TestAssignPathsSubcategorySegment(t *testing.T) {
	doc := classified(
		"https://orthodox.cn/contemporary/harbin_ru.htm",
		"https://orthodox.cn/contemporary/parish_ru.htm",
		"Покровский храм")

	AssignPaths([]*corpus.Document{doc}, taxonomy.Default())

	assert.Equal(t, "Church today", doc.Category)
	assert.Equal(t, "Parishes", doc.Subcategory)
	assert.Equal(t, "/church-today/parishes/pokrovskii-khram", doc.CanonicalPath)
}

func TestAssignPathsCollisions(t *testing.T) {
	a := classified("https://orthodox.cn/a_ru.htm", "", "Пасха")
	b := classified("https://orthodox.cn/b_ru.htm", "", "Пасха")
	c := classified("https://orthodox.cn/c_ru.htm", "", "Пасха")

	collisions := AssignPaths([]*corpus.Document{c, a, b}, taxonomy.Default())

	// Ascending URL order decides who keeps the bare path.
	assert.Equal(t, "/other/paskha", a.CanonicalPath)
	assert.Equal(t, "/other/paskha-2", b.CanonicalPath)
	assert.Equal(t, "/other/paskha-3", c.CanonicalPath)

	require.Len(t, collisions, 2)
	assert.Equal(t, "/other/paskha", collisions[0].Candidate)
	assert.Equal(t, "/other/paskha-2", collisions[0].Path)
	assert.Equal(t, "https://orthodox.cn/b_ru.htm", collisions[0].URL)
}

func TestAssignPathsChainedCollision(t *testing.T) {
	// A document legitimately titled "Пасха 2" occupies the suffix the
	// disambiguator would otherwise pick.
	a := classified("https://orthodox.cn/a_ru.htm", "", "Пасха")
	b := classified("https://orthodox.cn/b_ru.htm", "", "Пасха 2")
	c := classified("https://orthodox.cn/c_ru.htm", "", "Пасха")

	AssignPaths([]*corpus.Document{a, b, c}, taxonomy.Default())

	assert.Equal(t, "/other/paskha", a.CanonicalPath)
	assert.Equal(t, "/other/paskha-2", b.CanonicalPath)
	assert.Equal(t, "/other/paskha-2-2", c.CanonicalPath)
}

func TestAssignPathsPairwiseDistinct(t *testing.T) {
	docs := []*corpus.Document{
		classified("https://orthodox.cn/news/a_ru.htm", "", "Новость"),
		classified("https://orthodox.cn/news/b_ru.htm", "", "Новость"),
		classified("https://orthodox.cn/news/c_ru.htm", "", ""),
		classified("https://orthodox.cn/news/d_ru.htm", "", "中文"),
		classified("https://orthodox.cn/catechesis_page.htm", "https://orthodox.cn/catechesis/index.htm", "中文"),
	}

	AssignPaths(docs, taxonomy.Default())

	seen := make(map[string]bool)
	for _, doc := range docs {
		require.NotEmpty(t, doc.CanonicalPath)
		assert.False(t, seen[doc.CanonicalPath], "duplicate path %s", doc.CanonicalPath)
		seen[doc.CanonicalPath] = true
	}
}

func TestAssignPathsDeterministicAcrossInputOrder(t *testing.T) {
	build := func(order []string) map[string]string {
		var docs []*corpus.Document
		for _, u := range order {
			docs = append(docs, classified(u, "", "Пасха"))
		}
		AssignPaths(docs, taxonomy.Default())
		got := make(map[string]string)
		for _, doc := range docs {
			got[doc.NormalizedURL] = doc.CanonicalPath
		}
		return got
	}

	urls := []string{
		"https://orthodox.cn/a_ru.htm",
		"https://orthodox.cn/b_ru.htm",
		"https://orthodox.cn/c_ru.htm",
	}
	reversed := []string{urls[2], urls[1], urls[0]}

	assert.Equal(t, build(urls), build(reversed))
}

func TestLeafSlugFallbacks(t *testing.T) {
	cases := []struct {
		name  string
		title string
		url   string
		want  string
	}{
		{"title wins", "Пасха", "https://orthodox.cn/x_ru.htm", "paskha"},
		{"url stem when title empty", "", "https://orthodox.cn/news/20150517beijing_ru.htm", "20150517beijing"},
		{"url stem when title slugifies away", "中文标题", "https://orthodox.cn/news/index_cn.htm", "index"},
		{"untitled when nothing left", "", "https://orthodox.cn/", "untitled"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := leafSlug(&corpus.Document{Title: c.title, NormalizedURL: c.url})
			assert.Equal(t, c.want, got)
		})
	}
}

func TestURLStem(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://orthodox.cn/news/20150517beijing_ru.htm", "20150517beijing"},
		{"https://orthodox.cn/localchurch/harbin_en.html", "harbin"},
		{"https://orthodox.cn/old/page_big5.htm", "page"},
		{"https://orthodox.cn/news/digest_12.htm", "digest_12"},
		{"https://orthodox.cn/plain.htm", "plain"},
		{"https://orthodox.cn/", ""},
	}
	for _, c := range cases {
		if got := urlStem(c.in); got != c.want {
			t.Errorf("urlStem(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
