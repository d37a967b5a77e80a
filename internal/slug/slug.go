// Package slug turns page titles and menu labels into URL-safe path segments.
//
// The target site is Russian, so Cyrillic input transliterates to Latin before
// folding. Output is lowercase ASCII letters, digits and single hyphens, capped
// at MaxLength. Input that folds away completely yields "" and the caller picks
// a fallback.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps one path segment, matching the legacy filename limit.
const MaxLength = 50

var tagRe = regexp.MustCompile(`<[^>]*>`)

// stripMarks removes combining marks after canonical decomposition, so both
// accented Latin (é) and composed Cyrillic (й, ё) reduce to their base letters.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "i", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// Make returns the slug for s, or "" when nothing survives folding.
func Make(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		var part string
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			part = string(r)
		default:
			if tr, ok := translit[r]; ok {
				part = tr
			} else {
				if b.Len() > 0 {
					pendingHyphen = true
				}
				continue
			}
		}
		if part == "" {
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteString(part)
	}

	out := b.String()
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}
