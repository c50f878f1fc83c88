package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"mediaforge/internal/config"
	"mediaforge/internal/fetch"
	"mediaforge/internal/fileutil"
	"mediaforge/internal/resolver"
	"mediaforge/internal/services"
	"mediaforge/internal/services/tenor"
)

type resolveOptions struct {
	count    int
	exclude  []string
	gifHost  string
	fetchDir string
	json     bool
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve <channel-id> <message-id>",
		Short: "Find media around a Discord message",
		Long: "Walk the message, its reply target and recent channel history for media.\n" +
			"With --gif-host, only Tenor embeds are considered and the first rendition is printed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withToolchain(cmd, func(runCtx context.Context, tc *toolchain) error {
				session, err := discordSession(tc.cfg)
				if err != nil {
					return err
				}
				msg, err := session.ChannelMessage(args[0], args[1], discordgo.WithContext(runCtx))
				if err != nil {
					return services.Wrap(services.ErrNotFound, "cli", "resolve", "fetch message "+args[1], err)
				}
				if msg.ChannelID == "" {
					msg.ChannelID = args[0]
				}

				gifClient, err := tenorClient(tc.cfg)
				if err != nil {
					return err
				}
				res := resolver.New(session, tc.cfg.Resolver,
					resolver.WithGifHost(gifClient),
					resolver.WithLogger(tc.logger),
				)

				if opts.gifHost != "" {
					return runGifHostLookup(runCtx, cmd, res, msg, opts.gifHost)
				}

				candidates, err := res.FindMedia(runCtx, msg, opts.count, opts.exclude)
				if err != nil {
					return err
				}
				if opts.fetchDir != "" {
					return fetchCandidates(runCtx, cmd, tc, candidates, opts.fetchDir)
				}
				if opts.json {
					return writeJSON(cmd, candidates)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderCandidates(candidates))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "Number of media items to find")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Attachment IDs to skip")
	cmd.Flags().StringVar(&opts.gifHost, "gif-host", "", "Only resolve Tenor embeds, returning the mp4 or gif rendition")
	cmd.Flags().StringVar(&opts.fetchDir, "fetch", "", "Download the candidates into this directory")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	return cmd
}

func discordSession(cfg *config.Config) (*discordgo.Session, error) {
	token := strings.TrimSpace(cfg.Discord.Token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "resolve", "discord.token is not set (or export DISCORD_TOKEN)", nil)
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return session, nil
}

func tenorClient(cfg *config.Config) (*tenor.Client, error) {
	return tenor.New(cfg.Tenor.APIKey, cfg.Tenor.BaseURL, tenor.WithTimeout(cfg.TenorTimeout()))
}

func runGifHostLookup(ctx context.Context, cmd *cobra.Command, res *resolver.Resolver, msg *discordgo.Message, rendition string) error {
	var format tenor.Format
	switch strings.ToLower(strings.TrimSpace(rendition)) {
	case "mp4":
		format = tenor.FormatMP4
	case "gif":
		format = tenor.FormatGIF
	default:
		return fmt.Errorf("--gif-host must be mp4 or gif, got %q", rendition)
	}
	url, err := res.FindGifHostMedia(ctx, msg, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}

func fetchCandidates(ctx context.Context, cmd *cobra.Command, tc *toolchain, candidates []resolver.Candidate, dir string) error {
	target, err := config.ExpandPath(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create fetch directory: %w", err)
	}

	var direct []resolver.Candidate
	for _, c := range candidates {
		if c.Kind == resolver.Direct {
			direct = append(direct, c)
		}
	}
	if len(direct) == 0 {
		return errors.New("no directly fetchable candidates (configure tenor.api_key to resolve gif-host links)")
	}

	session := tc.ledger.Session()
	defer session.Close()
	fetcher := fetch.New(session, tc.cfg.FetchTimeout(),
		fetch.WithMaxBytes(tc.cfg.Fetch.MaxBytes),
		fetch.WithLogger(tc.logger),
	)
	files, err := fetcher.FetchAll(ctx, direct)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, file := range files {
		name := fmt.Sprintf("%s-%d.%s", direct[i].MessageID, i+1, file.Ext())
		dest := filepath.Join(target, name)
		if err := fileutil.CopyFile(file.Path(), dest); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		fmt.Fprintf(out, "Fetched %s -> %s\n", direct[i].URL, dest)
	}
	return nil
}

func renderCandidates(candidates []resolver.Candidate) string {
	headers := []string{"#", "Source", "Kind", "Message", "Spoiler", "URL"}
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(c.Source),
			string(c.Kind),
			c.MessageID,
			yesNo(c.Spoiler),
			c.URL,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight})
}
