// Package themes assigns named feedback themes to reviews from their keywords.
package themes

import (
	"github.com/hashicorp/go-set/v2"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

type rule struct {
	name     string
	triggers *set.Set[string]
}

// Tagger matches keywords against theme trigger sets.
// Matching is exact string membership; there is no substring or fuzzy match.
type Tagger struct {
	rules []rule
}

// NewTagger builds a tagger from the configured themes, keeping their order.
func NewTagger(themes []config.Theme) *Tagger {
	rules := make([]rule, 0, len(themes))
	for _, th := range themes {
		rules = append(rules, rule{name: th.Name, triggers: set.From(th.Keywords)})
	}
	return &Tagger{rules: rules}
}

// Tag returns every theme with a trigger equal to one of keywords, in
// configuration order, or ["Other"] when none match.
func (t *Tagger) Tag(keywords []string) []string {
	var matched []string
	for _, r := range t.rules {
		for _, kw := range keywords {
			if r.triggers.Contains(kw) {
				matched = append(matched, r.name)
				break
			}
		}
	}
	if len(matched) == 0 {
		return []string{review.ThemeOther}
	}
	return matched
}

// Names returns the configured theme names in order.
func (t *Tagger) Names() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.name
	}
	return names
}
