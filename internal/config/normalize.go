package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeDiscord()
	c.normalizeTenor()
	c.normalizeResolver()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MEDIAFORGE_TEMP_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.TempDir = value
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	var err error
	if c.Paths.TempDir, err = expandPath(strings.TrimSpace(c.Paths.TempDir)); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
}

func (c *Config) normalizeDiscord() {
	c.Discord.Token = strings.TrimSpace(c.Discord.Token)
	if c.Discord.Token == "" {
		if value, ok := os.LookupEnv("DISCORD_TOKEN"); ok {
			c.Discord.Token = strings.TrimSpace(value)
		}
	}
	c.Discord.Token = strings.TrimPrefix(c.Discord.Token, "Bot ")
}

func (c *Config) normalizeTenor() {
	c.Tenor.APIKey = strings.TrimSpace(c.Tenor.APIKey)
	if c.Tenor.APIKey == "" {
		if value, ok := os.LookupEnv("TENOR_API_KEY"); ok {
			c.Tenor.APIKey = strings.TrimSpace(value)
		}
	}
	c.Tenor.BaseURL = strings.TrimRight(strings.TrimSpace(c.Tenor.BaseURL), "/")
	if c.Tenor.BaseURL == "" {
		c.Tenor.BaseURL = defaultTenorBaseURL
	}
	if c.Tenor.TimeoutSeconds <= 0 {
		c.Tenor.TimeoutSeconds = defaultTenorTimeoutSeconds
	}
}

func (c *Config) normalizeResolver() {
	if c.Resolver.HistoryLimit == 0 {
		c.Resolver.HistoryLimit = defaultHistoryLimit
	}
	if c.Resolver.MaxCount == 0 {
		c.Resolver.MaxCount = defaultMaxCount
	}
	if c.Resolver.MaxConcurrentChecks == 0 {
		c.Resolver.MaxConcurrentChecks = defaultMaxConcurrentChecks
	}
}

func (c *Config) normalizeMetrics() error {
	c.Metrics.TextfilePath = strings.TrimSpace(c.Metrics.TextfilePath)
	if c.Metrics.TextfilePath == "" {
		return nil
	}
	var err error
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
