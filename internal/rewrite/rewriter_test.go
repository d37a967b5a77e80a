package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexeyismirnov/deep-crawl/internal/corpus"
	"github.com/alexeyismirnov/deep-crawl/internal/mapping"
)

const baseURL = "https://orthodox.cn/"

func testTable() *mapping.Table {
	return mapping.Build([]*corpus.Document{
		{NormalizedURL: "https://orthodox.cn/news/20150517beijing_ru.htm", CanonicalPath: "/news/archive/20150517beijing"},
		{NormalizedURL: "https://orthodox.cn/catechesis/intro_ru.htm", CanonicalPath: "/catechism/intro"},
		{NormalizedURL: "https://orthodox.cn/contemporary/harbin_ru.htm", CanonicalPath: "/church-today/parishes/harbin"},
	})
}

func docAt(url, content string) *corpus.Document {
	return &corpus.Document{NormalizedURL: url, Content: content}
}

func TestRewriteDeepRelativeChain(t *testing.T) {
	rw := New(testTable(), baseURL)
	doc := docAt("https://orthodox.cn/a/b/c/page_ru.htm",
		`<a href="../../../news///20150517beijing_ru.htm">визит</a>`)

	res := rw.Rewrite(doc)

	assert.Equal(t, `<a href="/news/archive/20150517beijing">визит</a>`, res.Content)
	assert.Equal(t, 1, res.Stats.Rewritten)
	require.Len(t, res.Occurrences, 1)
	assert.Equal(t, "../../../news///20150517beijing_ru.htm", res.Occurrences[0].Raw)
	assert.Equal(t, "https://orthodox.cn/news/20150517beijing_ru.htm", res.Occurrences[0].Resolved)
	assert.Equal(t, OutcomeRewritten, res.Occurrences[0].Outcome)
}

func TestRewriteMarkdownLink(t *testing.T) {
	rw := New(testTable(), baseURL)
	doc := docAt("https://orthodox.cn/news/other_ru.htm",
		"См. [визит в Пекин](20150517beijing_ru.htm) и [введение](/catechesis/intro_ru.htm).")

	res := rw.Rewrite(doc)

	assert.Equal(t,
		"См. [визит в Пекин](/news/archive/20150517beijing) и [введение](/catechism/intro).",
		res.Content)
	assert.Equal(t, 2, res.Stats.Rewritten)
}

func TestRewriteMarkdownTitlePreserved(t *testing.T) {
	rw := New(testTable(), baseURL)
	doc := docAt("https://orthodox.cn/news/other_ru.htm",
		`[x](20150517beijing_ru.htm "Заметка")`)

	res := rw.Rewrite(doc)

	assert.Equal(t, `[x](/news/archive/20150517beijing "Заметка")`, res.Content)
}

func TestRewriteFragmentPreserved(t *testing.T) {
	rw := New(testTable(), baseURL)
	doc := docAt("https://orthodox.cn/news/other_ru.htm",
		`<a href="20150517beijing_ru.htm#photos">фото</a>`)

	res := rw.Rewrite(doc)

	assert.Equal(t, `<a href="/news/archive/20150517beijing#photos">фото</a>`, res.Content)
}

func TestRewriteExternalUntouched(t *testing.T) {
	rw := New(testTable(), baseURL)
	content := `<a href="http://www.patriarchia.ru/db/text/1.html">источник</a>`
	doc := docAt("https://orthodox.cn/news/other_ru.htm", content)

	res := rw.Rewrite(doc)

	assert.Equal(t, content, res.Content)
	assert.Equal(t, 1, res.Stats.External)
	assert.Zero(t, res.Stats.Unresolved)
}

func TestRewriteUnresolvedInScope(t *testing.T) {
	rw := New(testTable(), baseURL)
	content := `<a href="/news/vanished_ru.htm">пропавшая</a>`
	doc := docAt("https://orthodox.cn/news/other_ru.htm", content)

	res := rw.Rewrite(doc)

	assert.Equal(t, content, res.Content)
	assert.Equal(t, 1, res.Stats.Unresolved)
	require.Len(t, res.Occurrences, 1)
	assert.Equal(t, "https://orthodox.cn/news/vanished_ru.htm", res.Occurrences[0].Resolved)
}

func TestRewriteSchemeVariantStaysUnresolved(t *testing.T) {
	// The table keys normalized URLs exactly; an http:// or www.
	// spelling of an https:// page is a miss, counted as in-scope.
	rw := New(testTable(), baseURL)
	content := `<a href="http://www.orthodox.cn/news/20150517beijing_ru.htm">x</a>`
	doc := docAt("https://orthodox.cn/news/other_ru.htm", content)

	res := rw.Rewrite(doc)

	assert.Equal(t, content, res.Content)
	assert.Equal(t, 1, res.Stats.Unresolved)
	assert.Zero(t, res.Stats.External)
}

func TestRewriteSkipsNonNavigational(t *testing.T) {
	rw := New(testTable(), baseURL)
	content := `<a href="mailto:info@orthodox.cn">почта</a> ` +
		`<a href="javascript:void(0)">x</a> ` +
		`<a href="tel:+861011111111">tel</a> ` +
		`<img src="data:image/gif;base64,R0lGOD">` +
		`<a href="#top">наверх</a>`
	doc := docAt("https://orthodox.cn/news/other_ru.htm", content)

	res := rw.Rewrite(doc)

	assert.Equal(t, content, res.Content)
	assert.Equal(t, 5, res.Stats.Skipped)
	assert.Zero(t, res.Stats.Rewritten)
	assert.Zero(t, res.Stats.Unresolved)
}

func TestRewriteQuoteStylesPreserved(t *testing.T) {
	rw := New(testTable(), baseURL)
	doc := docAt("https://orthodox.cn/news/other_ru.htm",
		`<a HREF='20150517beijing_ru.htm'>a</a> <a href=20150517beijing_ru.htm>b</a>`)

	res := rw.Rewrite(doc)

	assert.Equal(t,
		`<a HREF='/news/archive/20150517beijing'>a</a> <a href=/news/archive/20150517beijing>b</a>`,
		res.Content)
	assert.Equal(t, 2, res.Stats.Rewritten)
}

func TestRewriteImageSrc(t *testing.T) {
	rw := New(testTable(), baseURL)
	content := `<img src="../images/photo.jpg" alt="фото">`
	doc := docAt("https://orthodox.cn/news/other_ru.htm", content)

	res := rw.Rewrite(doc)

	// Not in the corpus: stays put, reported as in-scope unresolved.
	assert.Equal(t, content, res.Content)
	assert.Equal(t, 1, res.Stats.Unresolved)
}

func TestRewriteLeavesSurroundingTextAlone(t *testing.T) {
	rw := New(testTable(), baseURL)
	content := "Текст (в скобках) и [в квадратных] отдельно, href без значения."
	doc := docAt("https://orthodox.cn/news/other_ru.htm", content)

	res := rw.Rewrite(doc)

	assert.Equal(t, content, res.Content)
	assert.Zero(t, res.Stats.Total())
}

func TestRewriteIdempotent(t *testing.T) {
	rw := New(testTable(), baseURL)
	doc := docAt("https://orthodox.cn/a/b/c/page_ru.htm",
		`<a href="../../../news///20150517beijing_ru.htm">визит</a> `+
			`[введение](/catechesis/intro_ru.htm) `+
			`<a href="/news/vanished_ru.htm">пропавшая</a>`)

	first := rw.Rewrite(doc)
	second := rw.Rewrite(docAt(doc.NormalizedURL, first.Content))

	assert.Equal(t, first.Content, second.Content)
	assert.Zero(t, second.Stats.Rewritten)
	// Previously rewritten targets are recognized, not re-counted as
	// unresolved; the genuinely dangling link still is.
	assert.Equal(t, 2, second.Stats.Skipped)
	assert.Equal(t, 1, second.Stats.Unresolved)
}

func TestStatsMergeAndTotal(t *testing.T) {
	a := Stats{Rewritten: 2, External: 1}
	b := Stats{Unresolved: 3, Skipped: 4}
	a.Merge(b)

	assert.Equal(t, Stats{Rewritten: 2, External: 1, Unresolved: 3, Skipped: 4}, a)
	assert.Equal(t, 10, a.Total())
}
