package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources  Sources  `yaml:"sources"`
	Files    Files    `yaml:"files"`
	Cleaning Cleaning `yaml:"cleaning"`
	Analysis Analysis `yaml:"analysis"`
	Themes   []Theme  `yaml:"themes"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Metrics  Metrics  `yaml:"metrics"`
	Logging  Logging  `yaml:"logging"`
}

type Sources struct {
	Apps []App `yaml:"apps"`
}

// App is one banking app whose store reviews are collected.
type App struct {
	Bank    string `yaml:"bank"`
	AppID   string `yaml:"app_id"`
	Country string `yaml:"country"`
	Pages   int    `yaml:"pages"`
}

// Files names the pipeline's CSV artifacts. Relative paths resolve against the data dir.
type Files struct {
	Raw      string `yaml:"raw"`
	Cleaned  string `yaml:"cleaned"`
	Analyzed string `yaml:"analyzed"`
	Report   string `yaml:"report"`
}

type Cleaning struct {
	MinWords       int     `yaml:"min_words"`
	MinChars       int     `yaml:"min_chars"`
	MaxLossPercent float64 `yaml:"max_loss_percent"`
	MinReviews     int     `yaml:"min_reviews"`
}

type Analysis struct {
	TopN           int `yaml:"top_n"`
	TopKeywords    int `yaml:"top_keywords"`
	TopThemes      int `yaml:"top_themes"`
	MaxPhraseWords int `yaml:"max_phrase_words"`
}

// Theme maps a theme name to the keywords that trigger it.
type Theme struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
	// Textfile is where batch commands publish their counters for serve.
	Textfile string `yaml:"textfile"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for reviewpulse.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "reviewpulse")
}

// DataDir returns the XDG data directory for reviewpulse.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "reviewpulse")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/reviewpulse/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Newf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", errors.Newf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'reviewpulse init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return parse(data)
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Files: Files{
			Raw:      "raw_reviews.csv",
			Cleaned:  "cleaned_reviews.csv",
			Analyzed: "analyzed_reviews.csv",
			Report:   "insights.md",
		},
		Cleaning: Cleaning{
			MinWords:       1,
			MinChars:       1,
			MaxLossPercent: 5,
			MinReviews:     1000,
		},
		Analysis: Analysis{
			TopN:           10,
			TopKeywords:    5,
			TopThemes:      3,
			MaxPhraseWords: 3,
		},
		Server:  Server{Port: 8000},
		Metrics: Metrics{Enabled: true, Textfile: "metrics.prom"},
		Logging: Logging{Level: "INFO", Format: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Themes))
	for i, th := range c.Themes {
		if th.Name == "" {
			return errors.Newf("themes[%d]: name is required", i)
		}
		if _, dup := seen[th.Name]; dup {
			return errors.Newf("themes[%d]: duplicate theme %q", i, th.Name)
		}
		seen[th.Name] = struct{}{}
	}
	for i, app := range c.Sources.Apps {
		if app.Bank == "" || app.AppID == "" {
			return errors.Newf("sources.apps[%d]: bank and app_id are required", i)
		}
	}
	if c.Analysis.MaxPhraseWords < 1 {
		return errors.New("analysis.max_phrase_words must be at least 1")
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// Path resolves a file name from the files section against the data dir.
func (c *Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.GetDataDir(), name)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
