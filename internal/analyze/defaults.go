package analyze

import (
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/keywords"
	"github.com/TobiSchelling/ReviewPulse/internal/sentiment"
	"github.com/TobiSchelling/ReviewPulse/internal/themes"
)

// NewDefaultAnalyzer wires the VADER scorer, the prose segmenter and the
// configured theme table.
func NewDefaultAnalyzer(cfg *config.Config, logger zerolog.Logger) *Analyzer {
	return NewAnalyzer(
		sentiment.NewClassifier(sentiment.NewVaderScorer()),
		keywords.NewExtractor(keywords.NewProseSegmenter(), cfg.Analysis.MaxPhraseWords),
		themes.NewTagger(cfg.Themes),
		cfg.Analysis,
		cfg.Cleaning.MinReviews,
		logger,
	)
}
