package preflight

import (
	"context"
	"strings"

	"mediaforge/internal/config"
)

// CheckTenorFromConfig reports how gif-host permalinks will be resolved.
// Without an API key the resolver scrapes permalink pages, which is a pass.
func CheckTenorFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Tenor"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Tenor.APIKey) == "" {
		return Result{Name: name, Passed: true, Detail: "No API key (page scrape fallback)"}
	}
	return CheckTenor(ctx, cfg.Tenor.BaseURL, cfg.Tenor.APIKey)
}

// CheckDiscordFromConfig reports whether history lookups can authenticate.
func CheckDiscordFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Discord"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Discord.Token) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled (no token)"}
	}
	return CheckDiscord(ctx, "", cfg.Discord.Token)
}
