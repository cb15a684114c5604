package sentiment

import (
	"github.com/jonreiter/govader"
)

// VaderScorer scores text with the VADER lexicon.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the VADER lexicon. Loading is relatively expensive;
// reuse the scorer across reviews.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the VADER compound score of text.
func (v *VaderScorer) Score(text string) (float64, error) {
	return v.analyzer.PolarityScores(text).Compound, nil
}
