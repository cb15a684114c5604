package metrics

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

var (
	ReviewsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "reviews_dropped_total", Help: "Reviews dropped during cleaning."},
		[]string{"reason"},
	)
	ReviewsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "reviews_analyzed_total", Help: "Reviews labeled by the analyzer."},
		[]string{"bank", "label"},
	)
	EnrichmentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "enrichment_failures_total", Help: "Per-review scorer or segmenter failures."},
		[]string{"stage"}, // stage: sentiment|keywords
	)
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reviewpulse", Name: "step_duration_seconds",
			Help:    "Pipeline step duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)
)

var registry = initRegistry()

func initRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(ReviewsDropped, ReviewsAnalyzed, EnrichmentFailures, StepDuration)
	return reg
}

// Registry returns the registry holding the pipeline collectors.
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the given gatherers in the Prometheus text format,
// or the pipeline collectors when none are given.
func Handler(gatherers ...prometheus.Gatherer) http.Handler {
	if len(gatherers) == 0 {
		return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(prometheus.Gatherers(gatherers), promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// WriteTextfile publishes the pipeline collectors to path so a later
// process can serve what a batch command observed.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating metrics directory")
	}
	return errors.Wrapf(prometheus.WriteToTextfile(path, registry), "writing metrics to %s", path)
}

// Textfile gathers the metric families stored in a file written by
// WriteTextfile. A missing file gathers nothing.
type Textfile string

func (f Textfile) Gather() ([]*dto.MetricFamily, error) {
	file, err := os.Open(string(f))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", string(f))
	}
	defer file.Close()

	parser := expfmt.NewTextParser(model.UTF8Validation)
	byName, err := parser.TextToMetricFamilies(file)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", string(f))
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	mfs := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		mfs = append(mfs, byName[name])
	}
	return mfs, nil
}

// StoreStats is a snapshot of the review store.
type StoreStats struct {
	Labels  map[string]int
	PerBank map[string]int
	Runs    int
	LastRun time.Time // zero when no run was recorded
}

type storeCollector struct {
	snapshot    func() (StoreStats, error)
	reviews     *prometheus.Desc
	bankReviews *prometheus.Desc
	runs        *prometheus.Desc
	lastRun     *prometheus.Desc
}

// NewStoreCollector exports the stored review counts, read on every scrape.
func NewStoreCollector(snapshot func() (StoreStats, error)) prometheus.Collector {
	return &storeCollector{
		snapshot: snapshot,
		reviews: prometheus.NewDesc("reviewpulse_stored_reviews",
			"Stored reviews by sentiment label.", []string{"label"}, nil),
		bankReviews: prometheus.NewDesc("reviewpulse_stored_bank_reviews",
			"Stored reviews by bank.", []string{"bank"}, nil),
		runs: prometheus.NewDesc("reviewpulse_recorded_runs",
			"Pipeline runs recorded in the store.", nil, nil),
		lastRun: prometheus.NewDesc("reviewpulse_last_run_timestamp_seconds",
			"Finish time of the most recent recorded run.", nil, nil),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.reviews
	ch <- c.bankReviews
	ch <- c.runs
	ch <- c.lastRun
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	st, err := c.snapshot()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.reviews, err)
		return
	}
	for label, n := range st.Labels {
		ch <- prometheus.MustNewConstMetric(c.reviews, prometheus.GaugeValue, float64(n), label)
	}
	for bank, n := range st.PerBank {
		ch <- prometheus.MustNewConstMetric(c.bankReviews, prometheus.GaugeValue, float64(n), bank)
	}
	ch <- prometheus.MustNewConstMetric(c.runs, prometheus.GaugeValue, float64(st.Runs))
	if !st.LastRun.IsZero() {
		ch <- prometheus.MustNewConstMetric(c.lastRun, prometheus.GaugeValue, float64(st.LastRun.Unix()))
	}
}

func ObserveDrop(reason string) {
	ReviewsDropped.WithLabelValues(reason).Inc()
}

func ObserveAnalyzed(bank, label string) {
	if label == "" {
		label = "none"
	}
	ReviewsAnalyzed.WithLabelValues(bank, label).Inc()
}

func ObserveFailure(stage string) { // stage: sentiment|keywords
	EnrichmentFailures.WithLabelValues(stage).Inc()
}

func ObserveStep(step string, dur time.Duration) {
	StepDuration.WithLabelValues(step).Observe(dur.Seconds())
}
