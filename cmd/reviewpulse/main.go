package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/ReviewPulse/internal/analyze"
	"github.com/TobiSchelling/ReviewPulse/internal/clean"
	"github.com/TobiSchelling/ReviewPulse/internal/collect"
	"github.com/TobiSchelling/ReviewPulse/internal/config"
	"github.com/TobiSchelling/ReviewPulse/internal/database"
	"github.com/TobiSchelling/ReviewPulse/internal/dataset"
	"github.com/TobiSchelling/ReviewPulse/internal/logging"
	"github.com/TobiSchelling/ReviewPulse/internal/pipeline"
	"github.com/TobiSchelling/ReviewPulse/internal/review"
	"github.com/TobiSchelling/ReviewPulse/internal/server"
	"github.com/TobiSchelling/ReviewPulse/internal/themes"
)

var version = "dev"

const dbName = "reviews.db"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "reviewpulse",
	Short:        "Bank app review analytics",
	Long:         "ReviewPulse cleans bank app store reviews and labels them with sentiment, keywords and themes.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logger = logging.New(config.Logging{Level: "INFO", Format: "console"}, verbose)
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return errors.Wrap(err, "loading config")
		}
		logger = logging.New(cfg.Logging, verbose)
		logger.Debug().Str("config", path).Msg("Loaded config")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(themesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("reviewpulse", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/reviewpulse/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return errors.Wrap(err, "creating config directory")
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return errors.Wrap(err, "writing config")
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to list the bank apps to collect and to tune cleaning thresholds and themes.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and file status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return errors.Wrap(err, "getting stats")
		}

		fmt.Printf("Data directory: %s\n\n", cfg.GetDataDir())
		fmt.Println("Files:")
		for _, name := range []string{cfg.Files.Raw, cfg.Files.Cleaned, cfg.Files.Analyzed, cfg.Files.Report} {
			path := cfg.Path(name)
			if info, err := os.Stat(path); err == nil {
				fmt.Printf("  %s: %s, updated %s\n", name, humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
			} else {
				fmt.Printf("  %s: missing\n", name)
			}
		}

		fmt.Println("\nDatabase:")
		fmt.Printf("  Banks: %d\n", stats.Banks)
		fmt.Printf("  Reviews: %s\n", humanize.Comma(int64(stats.Reviews)))
		for _, label := range review.Labels {
			fmt.Printf("    %s: %s\n", label, humanize.Comma(int64(stats.Labels[string(label)])))
		}
		if n := stats.Labels["none"]; n > 0 {
			fmt.Printf("    unscored: %s\n", humanize.Comma(int64(n)))
		}
		for _, bank := range sortedKeys(stats.PerBank) {
			fmt.Printf("  %s: %s reviews\n", bank, humanize.Comma(int64(stats.PerBank[bank])))
		}
		fmt.Printf("  Runs: %d\n", stats.Runs)

		if last, err := db.GetLastRun(); err == nil && last != nil {
			fmt.Printf("\nLast run %s (%s):\n", last.ID, last.FinishedAt)
			fmt.Printf("  %s raw, %s cleaned (%.2f%% dropped), %s new in database\n",
				humanize.Comma(int64(last.RawCount)), humanize.Comma(int64(last.CleanedCount)),
				last.LossPercent, humanize.Comma(int64(last.InsertedCount)))
		}
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect App Store reviews for the configured banks into the raw CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Sources.Apps) == 0 {
			return errors.New("no apps configured under sources.apps")
		}
		ctx, stop := signalContext()
		defer stop()

		fmt.Println("Collecting reviews...")
		collector := collect.NewCollector(cfg.Sources.Apps, collect.NewFeedClient("", nil), logger)
		result := collector.Collect(ctx)

		path := cfg.Path(cfg.Files.Raw)
		if err := dataset.WriteRaw(path, result.Reviews); err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Reviews: %s\n", humanize.Comma(int64(len(result.Reviews))))
		for _, bank := range sortedKeys(result.PerBank) {
			fmt.Printf("  %s: %d\n", bank, result.PerBank[bank])
		}
		if len(result.Failed) > 0 {
			fmt.Printf("  Failed: %s\n", strings.Join(result.Failed, ", "))
		}
		fmt.Printf("  Written to %s\n", path)
		return nil
	},
}

// --- clean command ---

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the raw CSV into the cleaned CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := pipeline.New(cfg, nil, nil, logger)
		res, err := p.Clean()
		if err != nil {
			return explain(err)
		}
		publishMetrics(p)

		fmt.Println("Cleaning complete:")
		fmt.Printf("  Initial: %s\n", humanize.Comma(int64(res.Stats.Initial)))
		fmt.Printf("  Kept: %s\n", humanize.Comma(int64(res.Stats.Final)))
		fmt.Printf("  Dropped: %.2f%%\n", res.Stats.LossPercent)
		for _, reason := range clean.DropReasons {
			if n := res.Stats.Dropped[reason]; n > 0 {
				fmt.Printf("    %s: %d\n", reason, n)
			}
		}
		printWarnings(res.Warnings)
		return nil
	},
}

// --- analyze command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Label the cleaned CSV with sentiment, keywords and themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cleaned, err := dataset.ReadCleaned(cfg.Path(cfg.Files.Cleaned))
		if err != nil {
			return explain(err)
		}

		res := analyze.NewDefaultAnalyzer(cfg, logger).Analyze(cleaned)
		path := cfg.Path(cfg.Files.Analyzed)
		if err := dataset.WriteAnalyzed(path, res.Reviews); err != nil {
			return err
		}
		publishMetrics(pipeline.New(cfg, nil, nil, logger))

		fmt.Println("Sentiment by bank and rating:")
		for _, c := range res.Summary.Counts {
			fmt.Printf("  %-30s %d  %-8s %d\n", c.Bank, c.Rating, c.Label, c.Count)
		}
		if f := res.Summary.Failures; f.Sentiment > 0 || f.Keywords > 0 {
			fmt.Printf("\nEnrichment failures: %d sentiment, %d keywords\n", f.Sentiment, f.Keywords)
		}
		printWarnings(res.Warnings)
		fmt.Printf("\nWritten to %s\n", path)
		return nil
	},
}

// --- report command ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the markdown insights report from the analyzed CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		reviews, err := dataset.ReadAnalyzed(cfg.Path(cfg.Files.Analyzed))
		if err != nil {
			return explain(err)
		}

		summary := analyze.Summarize(reviews, cfg.Analysis)
		path, err := pipeline.New(cfg, nil, nil, logger).WriteReport(summary, reviews)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)
		return nil
	},
}

// --- run command ---

var (
	dryRun      bool
	withCollect bool
	noStore     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: [collect ->] clean -> analyze -> store -> report",
	RunE: func(cmd *cobra.Command, args []string) error {
		var db *database.DB
		if !noStore {
			var err error
			db, err = openDB()
			if err != nil {
				return err
			}
			defer db.Close()
		}

		pipe := pipeline.New(cfg, db, analyze.NewDefaultAnalyzer(cfg, logger), logger)
		opts := pipeline.Options{Collect: withCollect}

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(opts)
		} else {
			ctx, stop := signalContext()
			defer stop()
			result = pipe.Run(ctx, opts)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		printWarnings(result.Warnings)

		if result.Failed() {
			for _, step := range result.Steps {
				if step.Err != nil {
					return explain(step.Err)
				}
			}
		}
		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'reviewpulse serve' to browse the results.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().BoolVar(&withCollect, "collect", false, "Collect fresh reviews before cleaning")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "Skip writing to the database")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port, server.Options{
			ReportPath:      cfg.Path(cfg.Files.Report),
			Metrics:         cfg.Metrics.Enabled,
			MetricsTextfile: cfg.Path(cfg.Metrics.Textfile),
		}, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- themes command ---

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Inspect the theme table",
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured themes and their trigger keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Themes) == 0 {
			fmt.Println("No themes configured. Every review will be tagged Other.")
			return nil
		}
		for _, th := range cfg.Themes {
			fmt.Printf("%s\n  %s\n", th.Name, strings.Join(th.Keywords, ", "))
		}
		return nil
	},
}

var themesTagCmd = &cobra.Command{
	Use:   "tag [keyword...]",
	Short: "Show which themes a set of keywords maps to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tagged := themes.NewTagger(cfg.Themes).Tag(args)
		fmt.Println(strings.Join(tagged, "\n"))
		return nil
	},
}

func init() {
	themesCmd.AddCommand(themesListCmd)
	themesCmd.AddCommand(themesTagCmd)
}

func publishMetrics(p *pipeline.Pipeline) {
	if err := p.PublishMetrics(); err != nil {
		logger.Warn().Err(err).Msg("Publishing metrics")
	}
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}
	return database.Open(filepath.Join(dataDir, dbName), logger)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// explain adds a hint to missing-input errors.
func explain(err error) error {
	if errors.Is(err, review.ErrInputNotFound) {
		return errors.WithHint(err, "run the previous step first, or check the files section of the config")
	}
	return err
}

func printWarnings(warnings []review.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Println("\nWarnings:")
	for _, w := range warnings {
		fmt.Printf("  %s\n", w)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
