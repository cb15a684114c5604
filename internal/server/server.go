package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/ReviewPulse/internal/database"
	"github.com/TobiSchelling/ReviewPulse/internal/metrics"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

const bankPageLimit = 200

// Options configures what the dashboard exposes.
type Options struct {
	ReportPath string
	Metrics    bool
	// MetricsTextfile holds the counters published by the last batch command.
	MetricsTextfile string
}

// Server is the HTTP server for the review dashboard.
type Server struct {
	db     *database.DB
	opts   Options
	pages  map[string]*template.Template
	mux    *http.ServeMux
	logger zerolog.Logger
}

// New creates a new Server.
func New(db *database.DB, opts Options, logger zerolog.Logger) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"comma":    func(n int) string { return humanize.Comma(int64(n)) },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"score": func(f *float64) string {
			if f == nil {
				return ""
			}
			return fmt.Sprintf("%+.3f", *f)
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing base template")
	}

	// Each page gets its own clone of base so their "content" blocks don't clash.
	pageNames := []string{"index.html", "report.html", "bank.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, errors.Wrapf(err, "cloning base for %s", name)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, errors.Wrapf(err, "parsing template %s", name)
		}
		pages[name] = clone
	}

	s := &Server{db: db, opts: opts, pages: pages, mux: http.NewServeMux(), logger: logger}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/report", s.handleReport)
	s.mux.HandleFunc("/bank/", s.handleBank)
	if s.opts.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(metrics.NewStoreCollector(s.storeStats))
		s.mux.Handle("/metrics", metrics.Handler(reg, metrics.Textfile(s.opts.MetricsTextfile)))
	}
}

func (s *Server) storeStats() (metrics.StoreStats, error) {
	stats, err := s.db.GetStats()
	if err != nil {
		return metrics.StoreStats{}, err
	}
	st := metrics.StoreStats{Labels: stats.Labels, PerBank: stats.PerBank, Runs: stats.Runs}
	last, err := s.db.GetLastRun()
	if err != nil {
		return st, err
	}
	if last != nil {
		if t, err := time.Parse(time.RFC3339, last.FinishedAt); err == nil {
			st.LastRun = t
		}
	}
	return st, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.db.GetStats()
	if err != nil {
		s.logger.Error().Err(err).Msg("Loading stats")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	banks, err := s.db.GetBanks()
	if err != nil {
		s.logger.Error().Err(err).Msg("Loading banks")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	lastRun, _ := s.db.GetLastRun()

	s.render(w, "index.html", map[string]any{
		"Stats":   stats,
		"Banks":   banks,
		"LastRun": lastRun,
		"Labels":  review.Labels,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var report string
	if s.opts.ReportPath != "" {
		data, err := os.ReadFile(s.opts.ReportPath)
		if err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.opts.ReportPath).Msg("Reading report")
		}
		report = string(data)
	}

	s.render(w, "report.html", map[string]any{
		"Report": report,
	})
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/bank/")
	if name == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	label := r.URL.Query().Get("label")
	if label != "" && !validLabel(label) {
		http.Error(w, "unknown label", http.StatusBadRequest)
		return
	}

	reviews, err := s.db.GetReviewsForBank(name, label, bankPageLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("bank", name).Msg("Loading reviews")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "bank.html", map[string]any{
		"Bank":    name,
		"Label":   label,
		"Labels":  review.Labels,
		"Reviews": reviews,
	})
}

func validLabel(label string) bool {
	for _, l := range review.Labels {
		if string(l) == label {
			return true
		}
	}
	return false
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error().Str("template", name).Msg("Template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("Rendering template")
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int, opts Options, logger zerolog.Logger) error {
	srv, err := New(db, opts, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	logger.Info().Str("addr", "http://"+addr).Msg("Server listening")
	return http.ListenAndServe(addr, srv.Handler())
}
