package analyze

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/keywords"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
	"github.com/TobiSchelling/ReviewPulse/internal/sentiment"
	"github.com/TobiSchelling/ReviewPulse/internal/themes"
)

// wordScorer scores by keyword: "great" is positive, "bad" negative,
// "boom" fails, anything else neutral.
func wordScorer(text string) (float64, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "boom"):
		return 0, errors.New("scorer exploded")
	case strings.Contains(lower, "great"):
		return 0.8, nil
	case strings.Contains(lower, "bad"):
		return -0.7, nil
	}
	return 0, nil
}

// wordSegmenter makes every whitespace separated word its own chunk and
// fails on "crash".
func wordSegmenter(text string) ([]keywords.Chunk, error) {
	if strings.Contains(text, "crash") {
		return nil, errors.New("segmenter failed")
	}
	var chunks []keywords.Chunk
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ".,!?")
		chunks = append(chunks, keywords.Chunk{{Text: w, IsStop: keywords.IsStopWord(w), IsAlpha: w != ""}})
	}
	return chunks, nil
}

func testAnalyzer(minReviews int) *Analyzer {
	return NewAnalyzer(
		sentiment.NewClassifier(sentiment.ScorerFunc(wordScorer)),
		keywords.NewExtractor(keywords.SegmenterFunc(wordSegmenter), 3),
		themes.NewTagger([]config.Theme{
			{Name: "Account Access Issues", Keywords: []string{"login"}},
			{Name: "Transaction Performance", Keywords: []string{"transfer", "slow"}},
		}),
		config.Analysis{TopN: 10, TopKeywords: 5, TopThemes: 3, MaxPhraseWords: 3},
		minReviews,
		zerolog.Nop(),
	)
}

func cleaned(text string, rating int, date, bank string) review.CleanedReview {
	return review.CleanedReview{Text: text, Rating: rating, Date: date, Bank: bank, Source: review.SourceAppStore}
}

func TestAnalyzeGroupsByBankInFirstSeenOrder(t *testing.T) {
	in := []review.CleanedReview{
		cleaned("great login", 5, "2024-01-01", "Bank B"),
		cleaned("bad transfer", 1, "2024-01-02", "Bank A"),
		cleaned("slow transfer", 2, "2024-01-03", "Bank B"),
	}
	res := testAnalyzer(0).Analyze(in)
	require.Len(t, res.Reviews, 3)

	assert.Equal(t, "great login", res.Reviews[0].Text)
	assert.Equal(t, "slow transfer", res.Reviews[1].Text)
	assert.Equal(t, "bad transfer", res.Reviews[2].Text)

	require.Len(t, res.Summary.Banks, 2)
	assert.Equal(t, "Bank B", res.Summary.Banks[0].Bank)
	assert.Equal(t, "Bank A", res.Summary.Banks[1].Bank)
}

func TestAnalyzeEnrichesEveryReview(t *testing.T) {
	res := testAnalyzer(0).Analyze([]review.CleanedReview{
		cleaned("great login", 5, "2024-01-01", "Bank A"),
		cleaned("the app", 3, "2024-01-02", "Bank A"),
	})
	require.Len(t, res.Reviews, 2)

	first := res.Reviews[0]
	require.NotNil(t, first.Sentiment)
	assert.Equal(t, review.Positive, first.Sentiment.Label)
	assert.Equal(t, []string{"great", "login"}, first.Keywords)
	assert.Equal(t, []string{"Account Access Issues"}, first.Themes)

	second := res.Reviews[1]
	assert.Equal(t, review.Neutral, second.Label())
	assert.Equal(t, []string{"app"}, second.Keywords)
	assert.Equal(t, []string{review.ThemeOther}, second.Themes)

	for _, r := range res.Reviews {
		assert.NotEmpty(t, r.Themes)
		assert.Equal(t, r.Sentiment.Label, sentiment.LabelFor(r.Sentiment.Score))
	}
}

func TestAnalyzeIsolatesScorerFailure(t *testing.T) {
	res := testAnalyzer(0).Analyze([]review.CleanedReview{
		cleaned("boom login", 1, "2024-01-01", "Bank A"),
		cleaned("great transfer", 5, "2024-01-02", "Bank A"),
	})
	require.Len(t, res.Reviews, 2)

	assert.Nil(t, res.Reviews[0].Sentiment)
	assert.Equal(t, []string{"Account Access Issues"}, res.Reviews[0].Themes)
	require.NotNil(t, res.Reviews[1].Sentiment)
	assert.Equal(t, review.Positive, res.Reviews[1].Sentiment.Label)

	assert.Equal(t, Failures{Sentiment: 1}, res.Summary.Failures)
	assert.Equal(t, []SentimentCount{{Bank: "Bank A", Rating: 5, Label: review.Positive, Count: 1}}, res.Summary.Counts)
}

func TestAnalyzeIsolatesSegmenterFailure(t *testing.T) {
	res := testAnalyzer(0).Analyze([]review.CleanedReview{
		cleaned("bad crash", 1, "2024-01-01", "Bank A"),
	})
	require.Len(t, res.Reviews, 1)

	r := res.Reviews[0]
	assert.Equal(t, review.Negative, r.Label())
	assert.NotNil(t, r.Keywords)
	assert.Empty(t, r.Keywords)
	assert.Equal(t, []string{review.ThemeOther}, r.Themes)
	assert.Equal(t, Failures{Keywords: 1}, res.Summary.Failures)
}

func TestAnalyzeEmpty(t *testing.T) {
	res := testAnalyzer(0).Analyze(nil)
	assert.Empty(t, res.Reviews)
	assert.Empty(t, res.Summary.Banks)
	assert.Empty(t, res.Summary.Counts)
	assert.Empty(t, res.Warnings)
}

func TestAnalyzeMinReviewsWarning(t *testing.T) {
	res := testAnalyzer(5).Analyze([]review.CleanedReview{
		cleaned("great login", 5, "2024-01-01", "Bank A"),
	})
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, review.WarnMinCount, res.Warnings[0].Kind)
}

func TestSentimentCountsAreSorted(t *testing.T) {
	res := testAnalyzer(0).Analyze([]review.CleanedReview{
		cleaned("bad login", 1, "2024-01-01", "Bank B"),
		cleaned("great app", 5, "2024-01-01", "Bank A"),
		cleaned("great login", 5, "2024-01-02", "Bank A"),
		cleaned("the app", 5, "2024-01-03", "Bank A"),
		cleaned("bad transfer", 1, "2024-01-04", "Bank A"),
	})
	assert.Equal(t, []SentimentCount{
		{Bank: "Bank A", Rating: 1, Label: review.Negative, Count: 1},
		{Bank: "Bank A", Rating: 5, Label: review.Positive, Count: 2},
		{Bank: "Bank A", Rating: 5, Label: review.Neutral, Count: 1},
		{Bank: "Bank B", Rating: 1, Label: review.Negative, Count: 1},
	}, res.Summary.Counts)
}

func TestBankSummary(t *testing.T) {
	res := testAnalyzer(0).Analyze([]review.CleanedReview{
		cleaned("great login", 5, "2024-01-01", "Bank A"),
		cleaned("great transfer", 4, "2024-01-02", "Bank A"),
		cleaned("bad login", 1, "2024-01-03", "Bank A"),
		cleaned("the app", 3, "2024-01-04", "Bank A"),
	})
	require.Len(t, res.Summary.Banks, 1)
	s := res.Summary.Banks[0]

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, map[review.Label]int{review.Positive: 2, review.Negative: 1, review.Neutral: 1}, s.Labels)
	assert.InDelta(t, 50.0, s.Share[review.Positive], 1e-9)
	assert.InDelta(t, 25.0, s.Share[review.Negative], 1e-9)
	assert.Equal(t, map[int]int{5: 1, 4: 1, 1: 1, 3: 1}, s.Ratings)

	assert.Equal(t, []Frequency{{"great", 2}, {"login", 1}, {"transfer", 1}}, s.TopPositiveKeywords)
	assert.Equal(t, []Frequency{{"Account Access Issues", 1}, {"Transaction Performance", 1}}, s.TopPositiveThemes)
	assert.Equal(t, []Frequency{{"bad", 1}, {"login", 1}}, s.TopNegativeKeywords)
	assert.Equal(t, []Frequency{{"Account Access Issues", 1}}, s.TopNegativeThemes)
	assert.Equal(t, Frequency{"great", 2}, s.TopKeywords[0])
	assert.Equal(t, Frequency{"login", 2}, s.TopKeywords[1])
}

func TestCounterTopKeepsFirstSeenOrderOnTies(t *testing.T) {
	c := newCounter()
	c.add("b", "a", "c", "a", "b", "d")
	assert.Equal(t, []Frequency{{"b", 2}, {"a", 2}, {"c", 1}}, c.top(3))
	assert.Len(t, c.top(0), 4)
	assert.Empty(t, newCounter().top(5))
}

func TestSummarizeMatchesAnalyze(t *testing.T) {
	res := testAnalyzer(0).Analyze([]review.CleanedReview{
		cleaned("great login", 5, "2024-01-01", "Bank A"),
		cleaned("boom transfer", 2, "2024-01-02", "Bank B"),
		cleaned("bad login", 1, "2024-01-03", "Bank A"),
	})

	s := Summarize(res.Reviews, config.Analysis{TopN: 10, TopKeywords: 5, TopThemes: 3})
	assert.Equal(t, res.Summary.Banks, s.Banks)
	assert.Equal(t, res.Summary.Counts, s.Counts)
	assert.Equal(t, 1, s.Failures.Sentiment)
}

func TestDefaultAnalyzer(t *testing.T) {
	cfg := config.Default()
	res := NewDefaultAnalyzer(cfg, zerolog.Nop()).Analyze([]review.CleanedReview{
		cleaned("I love this app, transfers are fast and easy!", 5, "2024-01-01", "Bank A"),
		cleaned("Terrible update, the login error is awful.", 1, "2024-01-02", "Bank A"),
	})
	require.Len(t, res.Reviews, 2)
	assert.Equal(t, review.Positive, res.Reviews[0].Label())
	assert.Equal(t, review.Negative, res.Reviews[1].Label())
	for _, r := range res.Reviews {
		assert.NotEmpty(t, r.Themes)
	}
	assert.Zero(t, res.Summary.Failures.Keywords)
}
