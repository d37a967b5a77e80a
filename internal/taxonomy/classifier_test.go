package taxonomy

import "testing"

func TestClassify(t *testing.T) {
	c := Default()

	cases := []struct {
		name    string
		own     string
		parent  string
		wantCat string
		wantSub string
	}{
		{
			name:    "news article from archive",
			own:     "https://orthodox.cn/news/20150517beijing_ru.htm",
			parent:  "https://orthodox.cn/news/archive_ru.htm",
			wantCat: "News", wantSub: "Archive",
		},
		{
			name:    "news article without subcategory marker",
			own:     "https://orthodox.cn/news/a_ru.htm",
			parent:  "https://orthodox.cn/index_ru.html",
			wantCat: "News", wantSub: "",
		},
		{
			name:    "news article from national index",
			own:     "https://orthodox.cn/news/b_ru.htm",
			parent:  "https://orthodox.cn/news/index_ru.html",
			wantCat: "News", wantSub: "National news",
		},
		{
			name:    "news article from publications",
			own:     "https://orthodox.cn/news/c_ru.htm",
			parent:  "https://orthodox.cn/news/books_ru.htm",
			wantCat: "News", wantSub: "Publications",
		},
		{
			name:    "church today parish page",
			own:     "https://orthodox.cn/contemporary/x_ru.htm",
			parent:  "https://orthodox.cn/contemporary/parish_ru.htm",
			wantCat: "Church today", wantSub: "Parishes",
		},
		{
			name:    "church today father alexander page",
			own:     "https://orthodox.cn/contemporary/y_ru.htm",
			parent:  "https://orthodox.cn/contemporary/fatheralexander_ru.htm",
			wantCat: "Church today", wantSub: "Father Alexander",
		},
		{
			name:    "church today without parent",
			own:     "https://orthodox.cn/contemporary/z_ru.htm",
			parent:  "",
			wantCat: "Church today", wantSub: "",
		},
		{
			name:    "discovered through localchurch",
			own:     "https://orthodox.cn/history/b1_ru.htm",
			parent:  "https://orthodox.cn/localchurch/persons_ru.htm",
			wantCat: "Orthodox Church of China", wantSub: "",
		},
		{
			name:    "discovered through catechesis",
			own:     "https://orthodox.cn/bible/ot_ru.htm",
			parent:  "https://orthodox.cn/catechesis/index_ru.htm",
			wantCat: "Catechism", wantSub: "",
		},
		{
			name:    "nothing matches",
			own:     "https://orthodox.cn/misc/z_ru.htm",
			parent:  "https://orthodox.cn/index_ru.html",
			wantCat: Other, wantSub: "",
		},
		{
			name:    "matching is case-insensitive",
			own:     "https://orthodox.cn/NEWS/UPPER_RU.HTM",
			parent:  "https://orthodox.cn/NEWS/ARCHIVE_RU.HTM",
			wantCat: "News", wantSub: "Archive",
		},
		{
			name:    "total on empty input",
			own:     "",
			parent:  "",
			wantCat: Other, wantSub: "",
		},
		{
			name:    "own-url rule beats later parent-url rule",
			own:     "https://orthodox.cn/news/x_ru.htm",
			parent:  "https://orthodox.cn/localchurch/index_ru.html",
			wantCat: "News", wantSub: "",
		},
		{
			name:    "contemporary page reached through localchurch persons",
			own:     "https://orthodox.cn/contemporary/p_ru.htm",
			parent:  "https://orthodox.cn/localchurch/persons_ru.htm",
			wantCat: "Church today", wantSub: "Persons",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat, sub := c.Classify(tc.own, tc.parent)
			if cat != tc.wantCat || sub != tc.wantSub {
				t.Errorf("Classify(%q, %q) = (%q, %q), want (%q, %q)",
					tc.own, tc.parent, cat, sub, tc.wantCat, tc.wantSub)
			}
		})
	}
}

// The rule table distinguishes own-URL categories from parent-URL categories
// on purpose. These cases pin the asymmetry so nobody "fixes" it into a
// symmetric test by accident.
func TestClassifyRuleAsymmetry(t *testing.T) {
	c := Default()

	// A page living under /localchurch/ is NOT Orthodox Church of China
	// unless it was discovered through a /localchurch/ parent.
	cat, sub := c.Classify("https://orthodox.cn/localchurch/history_ru.htm", "https://orthodox.cn/index_ru.html")
	if cat != Other || sub != "" {
		t.Errorf("own /localchurch/ URL classified as (%q, %q), want (Other, \"\")", cat, sub)
	}

	// A page living under /catechesis/ is NOT Catechism on its own URL either.
	cat, sub = c.Classify("https://orthodox.cn/catechesis/lesson1_ru.htm", "https://orthodox.cn/index_ru.html")
	if cat != Other || sub != "" {
		t.Errorf("own /catechesis/ URL classified as (%q, %q), want (Other, \"\")", cat, sub)
	}

	// The parent-URL direction does claim them.
	cat, _ = c.Classify("https://orthodox.cn/anything_ru.htm", "https://orthodox.cn/localchurch/index_ru.html")
	if cat != "Orthodox Church of China" {
		t.Errorf("parent /localchurch/ classified as %q, want Orthodox Church of China", cat)
	}

	// Own-URL rules need no parent at all.
	cat, _ = c.Classify("https://orthodox.cn/news/x_ru.htm", "")
	if cat != "News" {
		t.Errorf("own /news/ URL with empty parent classified as %q, want News", cat)
	}
}

// Declared order decides between subcategories, not position in the parent URL.
func TestClassifySubcategoryPrecedence(t *testing.T) {
	c := Default()

	cat, sub := c.Classify(
		"https://orthodox.cn/news/x_ru.htm",
		"https://orthodox.cn/news/asia_ru.htm?prev=/news/archive_ru.htm",
	)
	if cat != "News" || sub != "Archive" {
		t.Errorf("got (%q, %q), want (News, Archive)", cat, sub)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := Default()
	own := "https://orthodox.cn/news/20150517beijing_ru.htm"
	parent := "https://orthodox.cn/news/archive_ru.htm"

	firstCat, firstSub := c.Classify(own, parent)
	for i := 0; i < 10; i++ {
		cat, sub := c.Classify(own, parent)
		if cat != firstCat || sub != firstSub {
			t.Fatalf("classification unstable: (%q, %q) vs (%q, %q)", cat, sub, firstCat, firstSub)
		}
	}
}

func TestRuleLookups(t *testing.T) {
	c := Default()

	r, ok := c.RuleFor("Church today")
	if !ok || r.Slug != "church-today" || r.Weight != 20 {
		t.Fatalf("RuleFor(Church today) = %+v, %v", r, ok)
	}

	s, ok := c.SubruleFor("News", "Asian news")
	if !ok || s.Slug != "asian-news" || s.Weight != 13 {
		t.Fatalf("SubruleFor(News, Asian news) = %+v, %v", s, ok)
	}

	if _, ok := c.RuleFor("Saints"); ok {
		t.Fatal("RuleFor(Saints) should not exist")
	}
	if _, ok := c.SubruleFor("Catechism", "Anything"); ok {
		t.Fatal("Catechism has no subcategories")
	}
}
