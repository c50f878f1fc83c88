package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTenor(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		return errors.New("paths.temp_dir must be set")
	}
	return nil
}

func (c *Config) validateTenor() error {
	parsed, err := url.Parse(c.Tenor.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("tenor.base_url must be an absolute URL, got %q", c.Tenor.BaseURL)
	}
	return nil
}

func (c *Config) validateResolver() error {
	if err := ensurePositiveMap(map[string]int{
		"resolver.history_limit":         c.Resolver.HistoryLimit,
		"resolver.max_count":             c.Resolver.MaxCount,
		"resolver.max_concurrent_checks": c.Resolver.MaxConcurrentChecks,
	}); err != nil {
		return err
	}
	if c.Resolver.HistoryLimit > maxHistoryLimit {
		return fmt.Errorf("resolver.history_limit must be <= %d", maxHistoryLimit)
	}
	if c.Resolver.MaxEmbedBytes < 0 {
		return errors.New("resolver.max_embed_bytes must be >= 0")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if err := ensurePositiveMap(map[string]int{
		"transcode.max_concurrent_jobs": c.Transcode.MaxConcurrentJobs,
		"fetch.timeout_seconds":         c.Fetch.TimeoutSeconds,
		"tenor.timeout_seconds":         c.Tenor.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Fetch.MaxBytes <= 0 {
		return errors.New("fetch.max_bytes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
