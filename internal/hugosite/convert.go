package hugosite

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
)

// Converter turns legacy HTML bodies into GitHub-flavored markdown.
// The extraction collaborator hands over whatever markup survived
// sanitization; anything that still looks like HTML goes through here
// before a page is written.
type Converter struct {
	converter *md.Converter
}

func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// LooksLikeHTML reports whether a body is raw markup rather than text.
func LooksLikeHTML(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "<")
}

// Convert strips script and style blocks, converts the rest to
// markdown and collapses runs of blank lines left behind by layout
// tables.
func (c *Converter) Convert(htmlContent string) (string, error) {
	cleaned := scriptRe.ReplaceAllString(htmlContent, "")
	cleaned = styleRe.ReplaceAllString(cleaned, "")

	markdown, err := c.converter.ConvertString(cleaned)
	if err != nil {
		return "", err
	}

	markdown = excessiveLinesRe.ReplaceAllString(markdown, "\n\n\n")
	return strings.TrimSpace(markdown), nil
}
