package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"mediaforge/internal/logging"
	"mediaforge/internal/metrics"
	"mediaforge/internal/services/tenor"
)

const (
	stickerCDN    = "https://media.discordapp.net/stickers/"
	spoilerPrefix = "SPOILER_"
)

// embedTypeAudio is not among discordgo's EmbedType constants.
const embedTypeAudio discordgo.EmbedType = "audio"

// slot holds the outcome of one concurrent check. A nil candidate means the
// check found nothing or failed.
type slot struct {
	candidate *Candidate
	fallback  *Candidate
}

// scanMessage extracts candidates from m: attachments, then stickers, then
// embeds. Embed checks run concurrently and are all joined before returning.
func (r *Resolver) scanMessage(ctx context.Context, m *discordgo.Message, excluded map[string]struct{}) []Candidate {
	var out []Candidate

	for _, att := range m.Attachments {
		if att == nil || att.URL == "" {
			continue
		}
		if _, skip := excluded[att.ID]; skip {
			continue
		}
		if strings.HasSuffix(strings.ToLower(att.Filename), ".txt") {
			continue
		}
		out = append(out, Candidate{
			URL:       att.URL,
			Kind:      Direct,
			Source:    SourceAttachment,
			MessageID: m.ID,
			Spoiler:   strings.HasPrefix(att.Filename, spoilerPrefix),
		})
	}

	for _, sticker := range m.StickerItems {
		if url, ok := stickerURL(sticker); ok {
			out = append(out, Candidate{URL: url, Kind: Direct, Source: SourceSticker, MessageID: m.ID})
		}
	}

	return append(out, r.checkEmbeds(ctx, m)...)
}

func stickerURL(sticker *discordgo.StickerItem) (string, bool) {
	if sticker == nil || sticker.ID == "" {
		return "", false
	}
	switch sticker.FormatType {
	case discordgo.StickerFormatTypePNG, discordgo.StickerFormatTypeAPNG:
		return stickerCDN + sticker.ID + ".png", true
	case discordgo.StickerFormatTypeGIF:
		return stickerCDN + sticker.ID + ".gif", true
	default:
		return "", false
	}
}

// checkEmbeds validates every embed of m concurrently. Each task writes only
// its own slot and never returns an error, so one failure cannot cancel its
// siblings.
func (r *Resolver) checkEmbeds(ctx context.Context, m *discordgo.Message) []Candidate {
	if len(m.Embeds) == 0 {
		return nil
	}
	logger := logging.WithContext(ctx, r.logger)
	slots := make([]slot, len(m.Embeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.settings.MaxConcurrentChecks)
	for i, embed := range m.Embeds {
		if embed == nil {
			continue
		}
		switch embed.Type {
		case discordgo.EmbedTypeGifv:
			if !tenor.IsPermalink(embed.URL) {
				continue
			}
			permalink := embed.URL
			g.Go(func() error {
				slots[i].candidate = r.gifHostCandidate(gctx, m.ID, permalink)
				return nil
			})
		case discordgo.EmbedTypeImage:
			primary := embed.URL
			if embed.Image != nil && primary == "" {
				primary = embed.Image.URL
			}
			var thumb string
			if embed.Thumbnail != nil {
				thumb = embed.Thumbnail.URL
			}
			g.Go(func() error {
				slots[i].candidate = r.lengthChecked(gctx, m.ID, primary)
				return nil
			})
			if thumb != "" && thumb != primary {
				g.Go(func() error {
					slots[i].fallback = r.lengthChecked(gctx, m.ID, thumb)
					return nil
				})
			}
		case discordgo.EmbedTypeVideo, embedTypeAudio:
			target := embed.URL
			if target == "" && embed.Video != nil {
				target = embed.Video.URL
			}
			g.Go(func() error {
				slots[i].candidate = r.lengthChecked(gctx, m.ID, target)
				return nil
			})
		}
	}
	_ = g.Wait()

	var out []Candidate
	for i, s := range slots {
		switch {
		case s.candidate != nil:
			out = append(out, *s.candidate)
		case s.fallback != nil:
			out = append(out, *s.fallback)
		default:
			if m.Embeds[i] != nil && m.Embeds[i].Type != discordgo.EmbedTypeRich && m.Embeds[i].Type != discordgo.EmbedTypeLink {
				logger.Debug("embed yielded no media",
					logging.String("embed_type", string(m.Embeds[i].Type)),
					logging.String("url", m.Embeds[i].URL),
				)
			}
		}
	}
	return out
}

func (r *Resolver) gifHostCandidate(ctx context.Context, messageID, permalink string) *Candidate {
	if r.gifHost == nil {
		metrics.GifHostLookups.WithLabelValues(metrics.OutcomeIndirect).Inc()
		return &Candidate{URL: permalink, Kind: Indirect, Source: SourceGifHost, MessageID: messageID}
	}
	url, err := r.gifHost.Resolve(ctx, permalink, tenor.FormatMP4)
	if err != nil {
		metrics.GifHostLookups.WithLabelValues(metrics.OutcomeFailure).Inc()
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "gif-host lookup failed", "gifhost_lookup_failed",
			logging.String("permalink", permalink),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check tenor.api_key and network access"),
			logging.String(logging.FieldImpact, "candidate dropped"),
		)
		return nil
	}
	metrics.GifHostLookups.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return &Candidate{URL: url, Kind: Direct, Source: SourceGifHost, MessageID: messageID}
}

// lengthChecked returns a candidate for target when a HEAD request reports a
// positive Content-Length within the configured limit.
func (r *Resolver) lengthChecked(ctx context.Context, messageID, target string) *Candidate {
	if target == "" {
		return nil
	}
	size, err := r.contentLength(ctx, target)
	if err != nil {
		logging.WithContext(ctx, r.logger).Debug("embed length check failed",
			logging.String("url", target),
			logging.Error(err),
		)
		return nil
	}
	if size <= 0 {
		return nil
	}
	if limit := r.settings.MaxEmbedBytes; limit > 0 && size > limit {
		logging.WithContext(ctx, r.logger).Debug("embed exceeds size limit",
			logging.String("url", target),
			logging.Int64("size", size),
			logging.Int64("limit", limit),
		)
		return nil
	}
	return &Candidate{URL: target, Kind: Direct, Source: SourceEmbed, MessageID: messageID}
}

func (r *Resolver) contentLength(ctx context.Context, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, fmt.Errorf("build head request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("head %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("head %s: status %d", target, resp.StatusCode)
	}
	return resp.ContentLength, nil
}
