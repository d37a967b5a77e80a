package taxonomy

import "strings"

// Classifier evaluates the ordered rule table. It is stateless and safe for
// concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier over an ordered rule table.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	return NewClassifier(DefaultRules())
}

// Rules exposes the table for menu construction and reporting. Callers must
// not mutate it.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// RuleFor looks a rule up by category name.
func (c *Classifier) RuleFor(category string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Name == category {
			return r, true
		}
	}
	return Rule{}, false
}

// SubruleFor looks a subcategory record up under a category.
func (c *Classifier) SubruleFor(category, subcategory string) (Subrule, bool) {
	r, ok := c.RuleFor(category)
	if !ok {
		return Subrule{}, false
	}
	for _, s := range r.Subrules {
		if s.Name == subcategory {
			return s, true
		}
	}
	return Subrule{}, false
}

// Classify assigns the (category, subcategory) pair for a document.
//
// originalURL and parentURL should already be normalized; matching lowercases
// both, so legacy mixed-case spellings still hit their markers. The function
// is pure and total: every input pair yields exactly one result, an empty
// parentURL simply fails every parent-URL test, and no rule matching at all
// yields (Other, "").
func (c *Classifier) Classify(originalURL, parentURL string) (category, subcategory string) {
	own := strings.ToLower(originalURL)
	parent := strings.ToLower(parentURL)

	for _, r := range c.rules {
		switch r.Basis {
		case MatchOwnURL:
			if !strings.Contains(own, r.Marker) {
				continue
			}
			for _, s := range r.Subrules {
				if strings.Contains(parent, s.Marker) {
					return r.Name, s.Name
				}
			}
			return r.Name, ""
		case MatchParentURL:
			if strings.Contains(parent, r.Marker) {
				return r.Name, ""
			}
		case MatchAny:
			return r.Name, ""
		}
	}
	return Other, ""
}
