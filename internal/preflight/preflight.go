package preflight

import (
	"context"
	"strings"

	"mediaforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir)}

	if strings.TrimSpace(cfg.Tenor.APIKey) != "" {
		results = append(results, CheckTenor(ctx, cfg.Tenor.BaseURL, cfg.Tenor.APIKey))
	}
	if strings.TrimSpace(cfg.Discord.Token) != "" {
		results = append(results, CheckDiscord(ctx, "", cfg.Discord.Token))
	}
	return results
}
