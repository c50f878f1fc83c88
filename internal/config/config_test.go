package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediaforge/internal/config"
)

func TestLoadDefaultConfigUsesEnvFallbacksAndExpandsPaths(t *testing.T) {
	t.Setenv("TENOR_API_KEY", "tenor-env")
	t.Setenv("DISCORD_TOKEN", "Bot discord-env")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantTemp := filepath.Join(tempHome, ".cache", "mediaforge", "tmp")
	if cfg.Paths.TempDir != wantTemp {
		t.Fatalf("unexpected temp dir: got %q want %q", cfg.Paths.TempDir, wantTemp)
	}
	if cfg.Tenor.APIKey != "tenor-env" {
		t.Fatalf("expected Tenor key from env, got %q", cfg.Tenor.APIKey)
	}
	if cfg.Discord.Token != "discord-env" {
		t.Fatalf("expected Bot prefix stripped from token, got %q", cfg.Discord.Token)
	}
	if cfg.Resolver.HistoryLimit != 50 {
		t.Fatalf("expected default history limit 50, got %d", cfg.Resolver.HistoryLimit)
	}
	if cfg.Resolver.MaxCount != config.Default().Resolver.MaxCount {
		t.Fatalf("unexpected max count: %d", cfg.Resolver.MaxCount)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected tool binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Paths.TempDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected temp dir to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediaforge.toml")

	type payload struct {
		Paths struct {
			TempDir string `toml:"temp_dir"`
		} `toml:"paths"`
		Tenor struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"tenor"`
		Resolver struct {
			HistoryLimit int `toml:"history_limit"`
			MaxCount     int `toml:"max_count"`
		} `toml:"resolver"`
	}
	custom := payload{}
	custom.Paths.TempDir = filepath.Join(tempDir, "scratch")
	custom.Tenor.APIKey = "abc123"
	custom.Tenor.BaseURL = "https://example.com/tenor/"
	custom.Resolver.HistoryLimit = 120
	custom.Resolver.MaxCount = 3
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.TempDir != custom.Paths.TempDir {
		t.Fatalf("expected temp dir override, got %q", cfg.Paths.TempDir)
	}
	if cfg.Tenor.APIKey != "abc123" {
		t.Fatalf("expected Tenor key from file, got %q", cfg.Tenor.APIKey)
	}
	if cfg.Tenor.BaseURL != "https://example.com/tenor" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Tenor.BaseURL)
	}
	if cfg.Resolver.HistoryLimit != 120 || cfg.Resolver.MaxCount != 3 {
		t.Fatalf("unexpected resolver settings: %+v", cfg.Resolver)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mediaforge.toml")
	if err := os.WriteFile(configPath, []byte("[resolver]\nhistroy_limit = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestTempDirEnvOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "override")
	t.Setenv("MEDIAFORGE_TEMP_DIR", override)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.TempDir != override {
		t.Fatalf("expected env temp dir, got %q", cfg.Paths.TempDir)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[tenor]") {
		t.Fatalf("sample config missing tenor section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Resolver.HistoryLimit != config.Default().Resolver.HistoryLimit {
		t.Fatalf("sample history limit drifted from default: %d", cfg.Resolver.HistoryLimit)
	}
	if !strings.Contains(cfg.Paths.TempDir, "mediaforge") {
		t.Fatalf("expected temp dir to contain mediaforge, got %q", cfg.Paths.TempDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.Paths.TempDir = "/tmp/mediaforge"
		return cfg
	}

	cases := map[string]func(*config.Config){
		"history limit":     func(c *config.Config) { c.Resolver.HistoryLimit = 0 },
		"history too large": func(c *config.Config) { c.Resolver.HistoryLimit = 5000 },
		"max count":         func(c *config.Config) { c.Resolver.MaxCount = -1 },
		"checks":            func(c *config.Config) { c.Resolver.MaxConcurrentChecks = 0 },
		"embed bytes":       func(c *config.Config) { c.Resolver.MaxEmbedBytes = -5 },
		"jobs":              func(c *config.Config) { c.Transcode.MaxConcurrentJobs = 0 },
		"fetch bytes":       func(c *config.Config) { c.Fetch.MaxBytes = 0 },
		"tenor url":         func(c *config.Config) { c.Tenor.BaseURL = "not a url" },
		"log level":         func(c *config.Config) { c.Logging.Level = "loud" },
		"temp dir":          func(c *config.Config) { c.Paths.TempDir = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
