// Package pipeline runs the review workflow end to end.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/ReviewPulse/internal/analyze"
	"github.com/TobiSchelling/ReviewPulse/internal/clean"
	"github.com/TobiSchelling/ReviewPulse/internal/collect"
	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/database"
	"github.com/TobiSchelling/ReviewPulse/internal/dataset"
	"github.com/TobiSchelling/ReviewPulse/internal/metrics"
	"github.com/TobiSchelling/ReviewPulse/internal/report"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID    string
	Steps    []StepResult
	Warnings []review.Warning
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Options selects optional steps.
type Options struct {
	Collect bool
}

// Pipeline orchestrates collect, clean, analyze, store and report.
type Pipeline struct {
	cfg       *config.Config
	db        *database.DB
	analyzer  *analyze.Analyzer
	collector *collect.Collector
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a new pipeline. db may be nil, in which case the store step is skipped.
func New(cfg *config.Config, db *database.DB, analyzer *analyze.Analyzer, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		db:        db,
		analyzer:  analyzer,
		collector: collect.NewCollector(cfg.Sources.Apps, collect.NewFeedClient("", nil), logger),
		logger:    logger,
		now:       time.Now,
	}
}

// WithCollector replaces the review collector.
func (p *Pipeline) WithCollector(c *collect.Collector) *Pipeline {
	p.collector = c
	return p
}

// Run executes the pipeline. A missing raw input aborts the run before
// anything is written.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	r := &Result{RunID: uuid.NewString()}
	started := p.now()
	total := 4
	if p.db != nil {
		total++
	}
	if opts.Collect {
		total++
	}
	n := 0
	next := func(name string) {
		n++
		p.logger.Info().Msgf("Step %d/%d: %s...", n, total, name)
	}

	if opts.Collect {
		next("Collecting reviews")
		step := p.timed("collect", func() StepResult { return p.runCollect(ctx) })
		r.Steps = append(r.Steps, step)
		if step.Err != nil {
			return r
		}
	}

	next("Cleaning reviews")
	var cleaned *clean.Result
	step := p.timed("clean", func() StepResult {
		var s StepResult
		cleaned, s = p.runClean()
		return s
	})
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.Warnings = append(r.Warnings, cleaned.Warnings...)

	next("Analyzing reviews")
	var analyzed *analyze.Result
	step = p.timed("analyze", func() StepResult {
		var s StepResult
		analyzed, s = p.runAnalyze(cleaned.Reviews)
		return s
	})
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.Warnings = append(r.Warnings, analyzed.Warnings...)

	next("Writing analyzed reviews")
	step = p.timed("write", func() StepResult { return p.runWrite(analyzed) })
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	if p.db != nil {
		next("Storing reviews")
		step = p.timed("store", func() StepResult {
			var s StepResult
			var warnings []review.Warning
			warnings, s = p.runStore(r.RunID, started, cleaned, analyzed)
			r.Warnings = append(r.Warnings, warnings...)
			return s
		})
		r.Steps = append(r.Steps, step)
	}

	next("Building report")
	r.Steps = append(r.Steps, p.timed("report", func() StepResult { return p.runReport(analyzed) }))

	if err := p.PublishMetrics(); err != nil {
		p.logger.Warn().Err(err).Msg("Publishing metrics")
	}
	return r
}

// PublishMetrics writes the counters observed by this process to the
// configured textfile, where serve picks them up.
func (p *Pipeline) PublishMetrics() error {
	if !p.cfg.Metrics.Enabled || p.cfg.Metrics.Textfile == "" {
		return nil
	}
	return metrics.WriteTextfile(p.cfg.Path(p.cfg.Metrics.Textfile))
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(opts Options) *Result {
	r := &Result{}

	if opts.Collect {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Collect",
			Summary: fmt.Sprintf("[dry-run] Would collect reviews for %d apps", len(p.cfg.Sources.Apps)),
		})
	}

	rawPath := p.cfg.Path(p.cfg.Files.Raw)
	raws, err := dataset.CSVSource{Path: rawPath}.Raw()
	if err != nil && !opts.Collect {
		r.Steps = append(r.Steps, StepResult{Name: "Clean", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Clean",
		Summary: fmt.Sprintf("[dry-run] %s raw reviews in %s", humanize.Comma(int64(len(raws))), rawPath),
	})
	r.Steps = append(r.Steps, StepResult{
		Name:    "Analyze",
		Summary: fmt.Sprintf("[dry-run] Would analyze into %s", p.cfg.Path(p.cfg.Files.Analyzed)),
	})

	if p.db != nil {
		count, _ := p.db.CountReviews()
		r.Steps = append(r.Steps, StepResult{
			Name:    "Store",
			Summary: fmt.Sprintf("[dry-run] %s reviews already stored", humanize.Comma(int64(count))),
		})
	}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("[dry-run] Would write report to %s", p.cfg.Path(p.cfg.Files.Report)),
	})
	return r
}

func (p *Pipeline) timed(step string, fn func() StepResult) StepResult {
	start := p.now()
	res := fn()
	metrics.ObserveStep(step, p.now().Sub(start))
	if res.Err != nil {
		p.logger.Error().Err(res.Err).Str("step", res.Name).Msg("Step failed")
	}
	return res
}

func (p *Pipeline) runCollect(ctx context.Context) StepResult {
	if len(p.cfg.Sources.Apps) == 0 {
		return StepResult{Name: "Collect", Err: errors.New("no apps configured under sources.apps")}
	}
	res := p.collector.Collect(ctx)
	path := p.cfg.Path(p.cfg.Files.Raw)
	if err := dataset.WriteRaw(path, res.Reviews); err != nil {
		return StepResult{Name: "Collect", Err: err}
	}
	return StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Collected %s reviews from %d apps (%d failed)",
			humanize.Comma(int64(len(res.Reviews))), len(p.cfg.Sources.Apps)-len(res.Failed), len(res.Failed)),
	}
}

// Clean runs the cleaning step and writes the cleaned CSV.
func (p *Pipeline) Clean() (*clean.Result, error) {
	cleaner := clean.NewCleaner(p.cfg.Cleaning, p.logger)
	res, err := cleaner.CleanSource(dataset.CSVSource{Path: p.cfg.Path(p.cfg.Files.Raw)})
	if err != nil {
		return nil, err
	}
	if err := dataset.WriteCleaned(p.cfg.Path(p.cfg.Files.Cleaned), res.Reviews); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) runClean() (*clean.Result, StepResult) {
	res, err := p.Clean()
	if err != nil {
		return nil, StepResult{Name: "Clean", Err: err}
	}
	return res, StepResult{
		Name: "Clean",
		Summary: fmt.Sprintf("Kept %s of %s reviews (%.2f%% dropped)",
			humanize.Comma(int64(res.Stats.Final)), humanize.Comma(int64(res.Stats.Initial)), res.Stats.LossPercent),
	}
}

func (p *Pipeline) runAnalyze(cleaned []review.CleanedReview) (*analyze.Result, StepResult) {
	res := p.analyzer.Analyze(cleaned)
	return res, StepResult{
		Name: "Analyze",
		Summary: fmt.Sprintf("Analyzed %s reviews across %d banks",
			humanize.Comma(int64(len(res.Reviews))), len(res.Summary.Banks)),
	}
}

func (p *Pipeline) runWrite(analyzed *analyze.Result) StepResult {
	path := p.cfg.Path(p.cfg.Files.Analyzed)
	if err := dataset.WriteAnalyzed(path, analyzed.Reviews); err != nil {
		return StepResult{Name: "Write", Err: err}
	}
	return StepResult{Name: "Write", Summary: "Wrote " + path}
}

// Store saves analyzed reviews and records the run. It warns when the
// database holds fewer than the configured minimum of reviews.
func (p *Pipeline) Store(runID string, started time.Time, cleaned *clean.Result, analyzed *analyze.Result) (*database.SaveResult, []review.Warning, error) {
	appIDs := make(map[string]string, len(p.cfg.Sources.Apps))
	for _, app := range p.cfg.Sources.Apps {
		appIDs[app.Bank] = app.AppID
	}

	saved, err := p.db.SaveAnalyzed(runID, analyzed.Reviews, appIDs)
	if err != nil {
		return nil, nil, err
	}

	run := database.Run{
		ID:            runID,
		StartedAt:     started.UTC().Format(time.RFC3339),
		FinishedAt:    p.now().UTC().Format(time.RFC3339),
		AnalyzedCount: len(analyzed.Reviews),
		InsertedCount: saved.Inserted,
	}
	if cleaned != nil {
		run.RawCount = cleaned.Stats.Initial
		run.CleanedCount = cleaned.Stats.Final
		run.LossPercent = cleaned.Stats.LossPercent
	}
	if err := p.db.InsertRun(run); err != nil {
		return nil, nil, err
	}

	var warnings []review.Warning
	total, err := p.db.CountReviews()
	if err != nil {
		return nil, nil, err
	}
	if minReviews := p.cfg.Cleaning.MinReviews; minReviews > 0 && total < minReviews {
		w := review.Warning{
			Kind:    review.WarnMinCount,
			Message: fmt.Sprintf("database holds %d reviews (minimum %d)", total, minReviews),
		}
		p.logger.Warn().Str("kind", string(w.Kind)).Msg(w.Message)
		warnings = append(warnings, w)
	}
	return saved, warnings, nil
}

func (p *Pipeline) runStore(runID string, started time.Time, cleaned *clean.Result, analyzed *analyze.Result) ([]review.Warning, StepResult) {
	saved, warnings, err := p.Store(runID, started, cleaned, analyzed)
	if err != nil {
		return nil, StepResult{Name: "Store", Err: err}
	}
	return warnings, StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("Inserted %d new reviews (%d already stored)", saved.Inserted, saved.Skipped),
	}
}

// WriteReport renders the insights report to the configured path.
func (p *Pipeline) WriteReport(summary analyze.Summary, reviews []review.AnalyzedReview) (string, error) {
	path := p.cfg.Path(p.cfg.Files.Report)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating report directory")
	}
	if err := os.WriteFile(path, []byte(report.Build(summary, reviews, p.now())), 0o644); err != nil {
		return "", errors.Wrap(err, "writing report")
	}
	return path, nil
}

func (p *Pipeline) runReport(analyzed *analyze.Result) StepResult {
	path, err := p.WriteReport(analyzed.Summary, analyzed.Reviews)
	if err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	return StepResult{Name: "Report", Summary: "Wrote " + path}
}
