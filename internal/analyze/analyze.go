// Package analyze enriches cleaned reviews with sentiment, keywords and themes
// and aggregates the results per bank.
package analyze

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/keywords"
	"github.com/TobiSchelling/ReviewPulse/internal/metrics"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
	"github.com/TobiSchelling/ReviewPulse/internal/sentiment"
	"github.com/TobiSchelling/ReviewPulse/internal/themes"
)

// SentimentCount is the number of reviews for one bank, rating and label.
type SentimentCount struct {
	Bank   string
	Rating int
	Label  review.Label
	Count  int
}

// BankSummary aggregates the analyzed reviews of one bank.
// Share values are percentages of the reviews that have a sentiment label.
type BankSummary struct {
	Bank    string
	Total   int
	Labels  map[review.Label]int
	Share   map[review.Label]float64
	Ratings map[int]int

	TopKeywords []Frequency
	TopThemes   []Frequency

	// Drivers come from positive reviews, pain points from negative ones.
	TopPositiveKeywords []Frequency
	TopPositiveThemes   []Frequency
	TopNegativeKeywords []Frequency
	TopNegativeThemes   []Frequency
}

// Failures counts reviews whose enrichment was skipped.
type Failures struct {
	Sentiment int
	Keywords  int
}

// Summary holds the aggregates used by reporting.
type Summary struct {
	Counts   []SentimentCount
	Banks    []BankSummary
	Failures Failures
}

// Result holds the analyzed reviews and their summary.
type Result struct {
	Reviews  []review.AnalyzedReview
	Summary  Summary
	Warnings []review.Warning
}

// Analyzer runs the sentiment, keyword and theme stages over cleaned reviews.
type Analyzer struct {
	classifier *sentiment.Classifier
	extractor  *keywords.Extractor
	tagger     *themes.Tagger
	cfg        config.Analysis
	minReviews int
	logger     zerolog.Logger
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(
	classifier *sentiment.Classifier,
	extractor *keywords.Extractor,
	tagger *themes.Tagger,
	cfg config.Analysis,
	minReviews int,
	logger zerolog.Logger,
) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		extractor:  extractor,
		tagger:     tagger,
		cfg:        cfg,
		minReviews: minReviews,
		logger:     logger,
	}
}

// Analyze labels every review. Reviews are grouped by bank in order of first
// appearance; within a bank the input order is kept.
// A scorer or segmenter failure only affects the review it happened on.
func (a *Analyzer) Analyze(cleaned []review.CleanedReview) *Result {
	banks, partitions := partition(cleaned)

	r := &Result{Reviews: make([]review.AnalyzedReview, 0, len(cleaned))}
	for i, bank := range banks {
		start := len(r.Reviews)
		for _, c := range partitions[i] {
			r.Reviews = append(r.Reviews, a.analyzeOne(c, &r.Summary.Failures))
		}
		a.logger.Debug().Str("bank", bank).Int("reviews", len(r.Reviews)-start).Msg("Analyzed bank")
	}

	keywordFailures := r.Summary.Failures.Keywords
	r.Summary = Summarize(r.Reviews, a.cfg)
	r.Summary.Failures.Keywords = keywordFailures

	if a.minReviews > 0 && len(r.Reviews) < a.minReviews {
		r.Warnings = append(r.Warnings, review.Warning{
			Kind:    review.WarnMinCount,
			Message: fmt.Sprintf("only %d reviews were analyzed (minimum %d)", len(r.Reviews), a.minReviews),
		})
	}

	a.logger.Info().
		Int("reviews", len(r.Reviews)).
		Int("banks", len(banks)).
		Int("sentiment_failures", r.Summary.Failures.Sentiment).
		Int("keyword_failures", r.Summary.Failures.Keywords).
		Msg("Analysis complete")
	for _, w := range r.Warnings {
		a.logger.Warn().Str("kind", string(w.Kind)).Msg(w.Message)
	}
	return r
}

func (a *Analyzer) analyzeOne(c review.CleanedReview, failures *Failures) review.AnalyzedReview {
	out := review.AnalyzedReview{CleanedReview: c}

	s, err := a.classifier.Classify(c.Text)
	if err != nil {
		failures.Sentiment++
		metrics.ObserveFailure("sentiment")
		a.logger.Warn().Err(err).Str("bank", c.Bank).Msg("Sentiment unavailable for review")
	} else {
		out.Sentiment = &s
	}

	kws, err := a.extractor.Extract(c.Text)
	if err != nil {
		failures.Keywords++
		metrics.ObserveFailure("keywords")
		a.logger.Warn().Err(err).Str("bank", c.Bank).Msg("Keywords unavailable for review")
		kws = []string{}
	}
	out.Keywords = kws
	out.Themes = a.tagger.Tag(kws)

	metrics.ObserveAnalyzed(c.Bank, string(out.Label()))
	return out
}

func partition(cleaned []review.CleanedReview) ([]string, [][]review.CleanedReview) {
	var banks []string
	var parts [][]review.CleanedReview
	index := make(map[string]int)
	for _, c := range cleaned {
		i, ok := index[c.Bank]
		if !ok {
			i = len(banks)
			index[c.Bank] = i
			banks = append(banks, c.Bank)
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], c)
	}
	return banks, parts
}

// Summarize aggregates analyzed reviews per bank, in order of first
// appearance. Reviews without sentiment are counted as sentiment failures.
func Summarize(reviews []review.AnalyzedReview, cfg config.Analysis) Summary {
	var s Summary
	var banks []string
	groups := make(map[string][]review.AnalyzedReview)
	for _, r := range reviews {
		if _, ok := groups[r.Bank]; !ok {
			banks = append(banks, r.Bank)
		}
		groups[r.Bank] = append(groups[r.Bank], r)
		if r.Sentiment == nil {
			s.Failures.Sentiment++
		}
	}

	s.Counts = countByBankRatingLabel(reviews)
	for _, bank := range banks {
		s.Banks = append(s.Banks, summarizeBank(bank, groups[bank], cfg))
	}
	return s
}

func summarizeBank(bank string, reviews []review.AnalyzedReview, cfg config.Analysis) BankSummary {
	s := BankSummary{
		Bank:    bank,
		Total:   len(reviews),
		Labels:  make(map[review.Label]int, len(review.Labels)),
		Share:   make(map[review.Label]float64, len(review.Labels)),
		Ratings: make(map[int]int, 5),
	}

	allKeywords, allThemes := newCounter(), newCounter()
	posKeywords, posThemes := newCounter(), newCounter()
	negKeywords, negThemes := newCounter(), newCounter()

	labeled := 0
	for _, r := range reviews {
		s.Ratings[r.Rating]++
		allKeywords.add(r.Keywords...)
		allThemes.add(r.Themes...)

		switch r.Label() {
		case review.Positive:
			posKeywords.add(r.Keywords...)
			posThemes.add(r.Themes...)
		case review.Negative:
			negKeywords.add(r.Keywords...)
			negThemes.add(r.Themes...)
		}
		if r.Sentiment != nil {
			s.Labels[r.Sentiment.Label]++
			labeled++
		}
	}

	if labeled > 0 {
		for label, n := range s.Labels {
			s.Share[label] = float64(n) / float64(labeled) * 100
		}
	}

	s.TopKeywords = allKeywords.top(cfg.TopN)
	s.TopThemes = allThemes.top(cfg.TopN)
	s.TopPositiveKeywords = posKeywords.top(cfg.TopKeywords)
	s.TopPositiveThemes = posThemes.top(cfg.TopThemes)
	s.TopNegativeKeywords = negKeywords.top(cfg.TopKeywords)
	s.TopNegativeThemes = negThemes.top(cfg.TopThemes)
	return s
}

func countByBankRatingLabel(reviews []review.AnalyzedReview) []SentimentCount {
	type key struct {
		bank   string
		rating int
		label  review.Label
	}
	counts := make(map[key]int)
	for _, r := range reviews {
		if r.Sentiment == nil {
			continue
		}
		counts[key{r.Bank, r.Rating, r.Sentiment.Label}]++
	}

	out := make([]SentimentCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, SentimentCount{Bank: k.bank, Rating: k.rating, Label: k.label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bank != out[j].Bank {
			return out[i].Bank < out[j].Bank
		}
		if out[i].Rating != out[j].Rating {
			return out[i].Rating < out[j].Rating
		}
		return labelRank(out[i].Label) < labelRank(out[j].Label)
	})
	return out
}

func labelRank(l review.Label) int {
	for i, x := range review.Labels {
		if x == l {
			return i
		}
	}
	return len(review.Labels)
}
