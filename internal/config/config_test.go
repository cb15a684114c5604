package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Sources.Apps) != 0 {
		t.Errorf("expected no apps by default, got %d", len(cfg.Sources.Apps))
	}

	if len(cfg.Themes) != 5 {
		t.Errorf("expected 5 themes, got %d", len(cfg.Themes))
	}
	if cfg.Themes[0].Name != "Account Access Issues" {
		t.Errorf("expected first theme 'Account Access Issues', got %q", cfg.Themes[0].Name)
	}

	if cfg.Cleaning.MaxLossPercent != 5 {
		t.Errorf("expected max_loss_percent 5, got %v", cfg.Cleaning.MaxLossPercent)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
cleaning:
  min_reviews: 10
themes:
  - name: Speed
    keywords: [slow]
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Cleaning.MinReviews != 10 {
		t.Errorf("expected min_reviews 10, got %d", cfg.Cleaning.MinReviews)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Cleaning.MaxLossPercent != 5 {
		t.Errorf("expected default max_loss_percent, got %v", cfg.Cleaning.MaxLossPercent)
	}
	if cfg.Analysis.MaxPhraseWords != 3 {
		t.Errorf("expected default max_phrase_words 3, got %d", cfg.Analysis.MaxPhraseWords)
	}
	if cfg.Files.Raw != "raw_reviews.csv" {
		t.Errorf("expected default raw file, got %q", cfg.Files.Raw)
	}
}

func TestParseRejectsDuplicateThemes(t *testing.T) {
	data := []byte(`
themes:
  - name: Speed
    keywords: [slow]
  - name: Speed
    keywords: [fast]
`)
	if _, err := parse(data); err == nil {
		t.Error("expected error for duplicate theme names")
	}
}

func TestParseRejectsIncompleteApp(t *testing.T) {
	data := []byte(`
sources:
  apps:
    - bank: Bank X
`)
	if _, err := parse(data); err == nil {
		t.Error("expected error for app without app_id")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Themes) == 0 {
		t.Error("expected themes to be populated from file")
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
	if got := cfg.Path("raw.csv"); got != filepath.Join("/custom/path", "raw.csv") {
		t.Errorf("expected raw.csv under data dir, got %q", got)
	}
	if got := cfg.Path("/abs/raw.csv"); got != "/abs/raw.csv" {
		t.Errorf("expected absolute path untouched, got %q", got)
	}
}
