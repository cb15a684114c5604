package sentiment

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

func fixed(score float64) Scorer {
	return ScorerFunc(func(string) (float64, error) { return score, nil })
}

func TestLabelForThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  review.Label
	}{
		{0.9, review.Positive},
		{0.0501, review.Positive},
		{0.05, review.Neutral},
		{0, review.Neutral},
		{-0.05, review.Neutral},
		{-0.0501, review.Negative},
		{-1, review.Negative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelFor(tt.score), "score %v", tt.score)
	}
}

func TestClassifyBoundaryIsNeutral(t *testing.T) {
	got, err := NewClassifier(fixed(0.05)).Classify("meh")
	require.NoError(t, err)
	assert.Equal(t, review.Sentiment{Label: review.Neutral, Score: 0.05}, got)
}

func TestClassifyLabelFollowsScore(t *testing.T) {
	for _, score := range []float64{-0.8, -0.05, 0.02, 0.3} {
		got, err := NewClassifier(fixed(score)).Classify("text")
		require.NoError(t, err)
		assert.Equal(t, LabelFor(got.Score), got.Label)
	}
}

func TestClassifyClampsScore(t *testing.T) {
	got, err := NewClassifier(fixed(1.7)).Classify("text")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Score)
}

func TestClassifyPropagatesScorerError(t *testing.T) {
	boom := errors.New("lexicon unavailable")
	c := NewClassifier(ScorerFunc(func(string) (float64, error) { return 0, boom }))

	_, err := c.Classify("text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestClassifyRejectsNaN(t *testing.T) {
	_, err := NewClassifier(fixed(math.NaN())).Classify("text")
	assert.Error(t, err)
}

func TestVaderScorer(t *testing.T) {
	c := NewClassifier(NewVaderScorer())

	pos, err := c.Classify("This app is great, I love how easy transfers are!")
	require.NoError(t, err)
	assert.Equal(t, review.Positive, pos.Label)

	neg, err := c.Classify("Terrible app, it crashes all the time and support is awful.")
	require.NoError(t, err)
	assert.Equal(t, review.Negative, neg.Label)

	neutral, err := c.Classify("I opened the app on Tuesday.")
	require.NoError(t, err)
	assert.Equal(t, review.Neutral, neutral.Label)
	assert.GreaterOrEqual(t, pos.Score, -1.0)
	assert.LessOrEqual(t, pos.Score, 1.0)
}
