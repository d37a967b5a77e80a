package corpus

// Document represents one crawled page handed over by the extraction stage
type Document struct {
	OriginalURL string `json:"original_url"`         // Absolute URL as captured during crawling
	ParentURL   string `json:"parent_url,omitempty"` // URL of the page this one was discovered through
	Title       string `json:"title"`                // Extracted page title, may be empty
	Content     string `json:"content"`              // Cleaned page content
	Date        string `json:"date,omitempty"`       // Publication date when the extractor found one
	Depth       int    `json:"depth,omitempty"`      // Crawl depth, 0 for the root

	// Derived during the build phase.
	NormalizedURL    string `json:"-"` // Canonical form of OriginalURL
	NormalizedParent string `json:"-"` // Canonical form of ParentURL, empty for the crawl root
	InvalidURL       bool   `json:"-"` // OriginalURL could not be parsed, NormalizedURL is the raw string
	Category         string `json:"-"`
	Subcategory      string `json:"-"`
	CanonicalPath    string `json:"-"` // Unique site-rooted path, assigned once per run
}
