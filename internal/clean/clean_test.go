package clean

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

type stubSource struct {
	rows []review.RawReview
	err  error
}

func (s stubSource) Raw() ([]review.RawReview, error) { return s.rows, s.err }

func newTestCleaner(cfg config.Cleaning) *Cleaner {
	return NewCleaner(cfg, zerolog.Nop())
}

func sampleRaws() []review.RawReview {
	return []review.RawReview{
		raw("Great app!", 5, "2023-01-05", "Bank X"),
		raw("Great app!", 5, "01/05/2023", "Bank X"),
		raw("Login keeps failing after update", 1, "2023-02-01", "Bank Y"),
		raw("aaaa", 3, "2023-02-02", "Bank X"),
		raw("Transfers are fast", 6, "2023-02-03", "Bank X"),
		raw("Needs a dark mode", 4, "garbage", "Bank Y"),
		raw("Customer support never answers", 2, "Mar 3, 2023", "Bank Y"),
	}
}

func TestCleanPreservesOrderAndCounts(t *testing.T) {
	c := newTestCleaner(defaultCleaning())
	res, err := c.Clean(sampleRaws())
	require.NoError(t, err)

	texts := make([]string, len(res.Reviews))
	for i, r := range res.Reviews {
		texts[i] = r.Text
	}
	assert.Equal(t, []string{
		"Great app!",
		"Login keeps failing after update",
		"Customer support never answers",
	}, texts)

	assert.Equal(t, 7, res.Stats.Initial)
	assert.Equal(t, 3, res.Stats.Final)
	assert.InDelta(t, 57.142857, res.Stats.LossPercent, 0.0001)
	assert.Equal(t, map[Reason]int{
		ReasonDuplicate:        1,
		ReasonNonInformative:   1,
		ReasonRatingOutOfRange: 1,
		ReasonInvalidDate:      1,
	}, res.Stats.Dropped)
	assert.Equal(t, "2023-03-03", res.Reviews[2].Date)
}

func TestCleanRatingDomain(t *testing.T) {
	res, err := newTestCleaner(defaultCleaning()).Clean(sampleRaws())
	require.NoError(t, err)
	for _, r := range res.Reviews {
		assert.GreaterOrEqual(t, r.Rating, 1)
		assert.LessOrEqual(t, r.Rating, 5)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	c := newTestCleaner(defaultCleaning())
	first, err := c.Clean(sampleRaws())
	require.NoError(t, err)

	again := make([]review.RawReview, len(first.Reviews))
	for i, r := range first.Reviews {
		again[i] = r.Raw()
	}
	second, err := c.Clean(again)
	require.NoError(t, err)

	assert.Equal(t, first.Reviews, second.Reviews)
	assert.Empty(t, second.Stats.Dropped)
	assert.Zero(t, second.Stats.LossPercent)
}

func TestCleanNilInputIsNotFound(t *testing.T) {
	_, err := newTestCleaner(defaultCleaning()).Clean(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, review.ErrInputNotFound))
}

func TestCleanEmptyInput(t *testing.T) {
	res, err := newTestCleaner(defaultCleaning()).Clean([]review.RawReview{})
	require.NoError(t, err)
	assert.Empty(t, res.Reviews)
	assert.Zero(t, res.Stats.LossPercent)
}

func TestCleanWarnings(t *testing.T) {
	cfg := defaultCleaning()
	cfg.MinReviews = 10

	res, err := newTestCleaner(cfg).Clean(sampleRaws())
	require.NoError(t, err)

	var kinds []review.WarningKind
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Equal(t, []review.WarningKind{review.WarnLoss, review.WarnMinCount}, kinds)
}

func TestCleanNoWarningsWithinBounds(t *testing.T) {
	rows := []review.RawReview{
		raw("Fast and reliable", 5, "2023-01-01", "Bank X"),
		raw("Crashes on startup", 1, "2023-01-02", "Bank X"),
	}
	res, err := newTestCleaner(defaultCleaning()).Clean(rows)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestCleanSourcePropagatesNotFound(t *testing.T) {
	src := stubSource{err: errors.Wrap(review.ErrInputNotFound, "raw_reviews.csv")}
	_, err := newTestCleaner(defaultCleaning()).CleanSource(src)
	assert.True(t, errors.Is(err, review.ErrInputNotFound))
}

func TestCleanSource(t *testing.T) {
	src := stubSource{rows: sampleRaws()}
	res, err := newTestCleaner(defaultCleaning()).CleanSource(src)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.Final)
}
