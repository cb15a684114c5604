// Package sentiment labels review text as positive, neutral or negative.
//
// Polarity comes from a Scorer that returns a compound score in [-1, 1].
// The label is a fixed function of that score:
//
//	score >  0.05  positive
//	score < -0.05  negative
//	otherwise      neutral
//
// Both boundaries are exclusive, so a score of exactly 0.05 is neutral.
package sentiment

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Scorer computes a compound polarity score for text.
type Scorer interface {
	Score(text string) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(text string) (float64, error)

func (f ScorerFunc) Score(text string) (float64, error) { return f(text) }

// LabelFor maps a compound score to its label.
func LabelFor(score float64) review.Label {
	switch {
	case score > PositiveThreshold:
		return review.Positive
	case score < NegativeThreshold:
		return review.Negative
	default:
		return review.Neutral
	}
}

// Classifier labels text using a Scorer. It holds no state besides the scorer.
type Classifier struct {
	scorer Scorer
}

// NewClassifier creates a classifier backed by scorer.
func NewClassifier(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer}
}

// Classify scores text and derives its label.
func (c *Classifier) Classify(text string) (review.Sentiment, error) {
	score, err := c.scorer.Score(text)
	if err != nil {
		return review.Sentiment{}, errors.Wrap(err, "scoring sentiment")
	}
	if math.IsNaN(score) {
		return review.Sentiment{}, errors.New("scoring sentiment: scorer returned NaN")
	}
	score = math.Max(-1, math.Min(1, score))
	return review.Sentiment{Label: LabelFor(score), Score: score}, nil
}
