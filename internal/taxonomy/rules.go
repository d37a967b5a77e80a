// Package taxonomy classifies documents into the two-level navigation
// taxonomy of the migrated site.
//
// The rule table is a fixed design-time artifact, not runtime configuration.
// Precedence is the table order: first match wins at both levels. Whether a
// rule inspects the document's own URL or its parent's differs per rule,
// recorded as the rule's MatchBasis.
package taxonomy

// MatchBasis says which URL a rule's marker is tested against.
type MatchBasis string

const (
	// MatchOwnURL tests the marker against the document's own URL.
	MatchOwnURL MatchBasis = "own-url"
	// MatchParentURL tests the marker against the URL of the page the
	// document was discovered through.
	MatchParentURL MatchBasis = "parent-url"
	// MatchAny always applies; reserved for the trailing catch-all rule.
	MatchAny MatchBasis = "any"
)

// Subrule assigns a subcategory when the parent URL contains its marker.
type Subrule struct {
	Name   string
	Slug   string
	Label  string
	Weight int
	Marker string
}

// Rule is one top-level category record. Marker comparisons are
// case-insensitive substring tests.
type Rule struct {
	Name     string
	Slug     string
	Label    string
	Weight   int
	Basis    MatchBasis
	Marker   string
	Subrules []Subrule
}

// Other is the catch-all category for documents no rule claims.
const Other = "Other"

// DefaultRules returns the ordered rule table for the orthodox.cn corpus.
// Labels are the Russian display strings the generated menu uses; weights
// drive menu ordering.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "News",
			Slug:   "news",
			Label:  "Новости",
			Weight: 10,
			Basis:  MatchOwnURL,
			Marker: "/news/",
			Subrules: []Subrule{
				{Name: "Archive", Slug: "archive", Label: "Архив", Weight: 11, Marker: "/news/archive_ru.htm"},
				{Name: "National news", Slug: "national-news", Label: "Национальные новости", Weight: 12, Marker: "/news/index_ru.html"},
				{Name: "Asian news", Slug: "asian-news", Label: "Новости Азии", Weight: 13, Marker: "/news/asia_ru.htm"},
				{Name: "International", Slug: "international", Label: "Международные новости", Weight: 14, Marker: "/news/intl_ru.htm"},
				{Name: "Events", Slug: "events", Label: "События", Weight: 15, Marker: "/news/events_ru.htm"},
				{Name: "Interview", Slug: "interview", Label: "Интервью", Weight: 16, Marker: "/news/interview_ru.htm"},
				{Name: "Publications", Slug: "publications", Label: "Публикации", Weight: 17, Marker: "/news/books_ru.htm"},
			},
		},
		{
			Name:   "Church today",
			Slug:   "church-today",
			Label:  "Церковь сегодня",
			Weight: 20,
			Basis:  MatchOwnURL,
			Marker: "/contemporary/",
			Subrules: []Subrule{
				{Name: "Dioceses", Slug: "dioceses", Label: "Епархии", Weight: 21, Marker: "contemporary/diocese_ru.htm"},
				{Name: "Parishes", Slug: "parishes", Label: "Приходы", Weight: 22, Marker: "parish_ru.htm"},
				{Name: "Official", Slug: "official", Label: "Официальные документы", Weight: 23, Marker: "officialdoc_ru.htm"},
				{Name: "Persons", Slug: "persons", Label: "Персоналии", Weight: 24, Marker: "persons_ru.htm"},
				{Name: "Father Alexander", Slug: "father-alexander", Label: "Отец Александр", Weight: 25, Marker: "fatheralexander_ru.htm"},
			},
		},
		{
			Name:   "Orthodox Church of China",
			Slug:   "orthodox-church-of-china",
			Label:  "Православная Церковь Китая",
			Weight: 30,
			Basis:  MatchParentURL,
			Marker: "/localchurch/",
		},
		{
			Name:   "Catechism",
			Slug:   "catechism",
			Label:  "Катехизис",
			Weight: 40,
			Basis:  MatchParentURL,
			Marker: "/catechesis/",
		},
		{
			Name:   Other,
			Slug:   "other",
			Label:  "Прочее",
			Weight: 90,
			Basis:  MatchAny,
		},
	}
}
