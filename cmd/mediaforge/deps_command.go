package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediaforge/internal/deps"
	"mediaforge/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools, encoders and service credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string
			failures := 0

			lines = append(lines, renderSectionHeader("Tools", colorize)...)
			binaries := preflight.CheckSystemDeps(cfg)
			for _, s := range binaries {
				kind, msg := depStatus(s)
				lines = append(lines, renderStatusLine(s.Name, kind, msg, colorize))
			}
			missing := deps.MissingRequired(binaries)
			failures += len(missing)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Encoders", colorize)...)
			if len(missing) > 0 {
				lines = append(lines, renderStatusLine("ffmpeg", statusWarn, "skipped (binary unavailable)", colorize))
			} else {
				encoders, err := deps.CheckEncoders(runCtx, cfg.FFmpegBinary(), deps.RequiredEncoders)
				if err != nil {
					failures++
					lines = append(lines, renderStatusLine("ffmpeg", statusError, err.Error(), colorize))
				}
				for _, s := range encoders {
					kind, msg := depStatus(s)
					if !s.Available {
						failures++
					}
					lines = append(lines, renderStatusLine(s.Name, kind, msg, colorize))
				}
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Environment", colorize)...)
			checks := []preflight.Result{preflight.CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir)}
			if !offline {
				checks = append(checks,
					preflight.CheckTenorFromConfig(runCtx, cfg),
					preflight.CheckDiscordFromConfig(runCtx, cfg),
				)
			}
			for _, r := range checks {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					failures++
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip checks that contact remote services")
	return cmd
}

func depStatus(s deps.Status) (statusKind, string) {
	if s.Available {
		detail := s.Path
		if detail == "" {
			detail = "available"
		}
		return statusOK, detail
	}
	if s.Optional {
		return statusWarn, s.Detail + " (optional)"
	}
	return statusError, s.Detail
}
