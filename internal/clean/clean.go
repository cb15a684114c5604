// Package clean turns raw review records into a de-duplicated, validated
// collection.
//
// A Cleaner runs the Filter checks over a batch in input order:
//
//   - duplicate (text, bank), first occurrence wins
//   - missing text or rating
//   - unparseable date
//   - rating outside 1..5
//   - no word tokens
//   - spam-like, low-information text
//
// Dropped records are counted per reason. Loss above the configured
// percentage or a result smaller than the configured minimum produce
// warnings, never errors.
package clean

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/metrics"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

// Source supplies the raw records of a cleaning run.
type Source interface {
	Raw() ([]review.RawReview, error)
}

// Stats summarizes what a cleaning run kept and dropped.
type Stats struct {
	Initial     int
	Final       int
	LossPercent float64
	Dropped     map[Reason]int
}

// Result holds the cleaned reviews, in input order, and the run statistics.
type Result struct {
	Reviews  []review.CleanedReview
	Stats    Stats
	Warnings []review.Warning
}

// Cleaner runs the quality filter over raw review batches.
type Cleaner struct {
	cfg    config.Cleaning
	logger zerolog.Logger
}

// NewCleaner creates a new Cleaner.
func NewCleaner(cfg config.Cleaning, logger zerolog.Logger) *Cleaner {
	return &Cleaner{cfg: cfg, logger: logger}
}

// CleanSource reads the source and cleans its records.
// A missing source aborts with review.ErrInputNotFound.
func (c *Cleaner) CleanSource(src Source) (*Result, error) {
	raws, err := src.Raw()
	if err != nil {
		return nil, err
	}
	return c.Clean(raws)
}

// Clean filters raws and returns the surviving reviews.
// A nil slice means no input was supplied and yields review.ErrInputNotFound;
// an empty slice is a valid, empty batch.
func (c *Cleaner) Clean(raws []review.RawReview) (*Result, error) {
	if raws == nil {
		return nil, errors.Wrap(review.ErrInputNotFound, "no raw reviews supplied")
	}

	filter := NewFilter(c.cfg)
	r := &Result{
		Reviews: make([]review.CleanedReview, 0, len(raws)),
		Stats: Stats{
			Initial: len(raws),
			Dropped: make(map[Reason]int, len(DropReasons)),
		},
	}

	for i, raw := range raws {
		d := filter.Evaluate(raw)
		if !d.Keep {
			r.Stats.Dropped[d.Reason]++
			metrics.ObserveDrop(string(d.Reason))
			c.logger.Debug().Int("row", i).Str("bank", raw.Bank).Str("reason", string(d.Reason)).Msg("Dropped review")
			continue
		}
		r.Reviews = append(r.Reviews, d.Review)
	}

	r.Stats.Final = len(r.Reviews)
	if r.Stats.Initial > 0 {
		r.Stats.LossPercent = float64(r.Stats.Initial-r.Stats.Final) / float64(r.Stats.Initial) * 100
	}
	r.Warnings = c.checkThresholds(r.Stats)

	c.logger.Info().
		Int("initial", r.Stats.Initial).
		Int("final", r.Stats.Final).
		Float64("loss_percent", r.Stats.LossPercent).
		Msg("Cleaning complete")
	for _, w := range r.Warnings {
		c.logger.Warn().Str("kind", string(w.Kind)).Msg(w.Message)
	}
	return r, nil
}

func (c *Cleaner) checkThresholds(s Stats) []review.Warning {
	var warnings []review.Warning
	if s.LossPercent > c.cfg.MaxLossPercent {
		warnings = append(warnings, review.Warning{
			Kind:    review.WarnLoss,
			Message: fmt.Sprintf("%.2f%% of reviews were dropped (limit %.2f%%)", s.LossPercent, c.cfg.MaxLossPercent),
		})
	}
	if c.cfg.MinReviews > 0 && s.Final < c.cfg.MinReviews {
		warnings = append(warnings, review.Warning{
			Kind:    review.WarnMinCount,
			Message: fmt.Sprintf("only %d reviews remain after cleaning (minimum %d)", s.Final, c.cfg.MinReviews),
		})
	}
	return warnings
}
