package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"mediaforge/internal/config"
	"mediaforge/internal/logging"
	"mediaforge/internal/metrics"
	"mediaforge/internal/services"
	"mediaforge/internal/services/tenor"
)

// Resolver finds media in a conversation.
type Resolver struct {
	history    HistorySource
	gifHost    tenor.Resolver
	httpClient *http.Client
	settings   config.Resolver
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGifHost enables gif-host resolution. Without it, gif-host permalinks are
// returned as Indirect candidates.
func WithGifHost(client tenor.Resolver) Option {
	return func(r *Resolver) {
		r.gifHost = client
	}
}

// WithHTTPClient sets the client used for embed length checks.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.httpClient = client
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a Resolver reading history from source with the given limits.
func New(source HistorySource, settings config.Resolver, opts ...Option) *Resolver {
	defaults := config.Default().Resolver
	if settings.HistoryLimit <= 0 {
		settings.HistoryLimit = defaults.HistoryLimit
	}
	if settings.MaxCount <= 0 {
		settings.MaxCount = defaults.MaxCount
	}
	if settings.MaxConcurrentChecks <= 0 {
		settings.MaxConcurrentChecks = defaults.MaxConcurrentChecks
	}
	r := &Resolver{
		history:    source,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		settings:   settings,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "resolver")
	return r
}

// FindMedia returns up to count candidates from msg, its reply target and
// recent history, in that order. Attachment IDs in excluding are skipped. It
// returns an error wrapping services.ErrNotFound when the walk finds nothing.
func (r *Resolver) FindMedia(ctx context.Context, msg *discordgo.Message, count int, excluding []string) ([]Candidate, error) {
	if msg == nil {
		return nil, services.Wrap(services.ErrValidation, "resolver", "find media", "nil message", nil)
	}
	if count < 1 {
		return nil, services.Wrap(services.ErrValidation, "resolver", "find media", fmt.Sprintf("count must be positive, got %d", count), nil)
	}
	if count > r.settings.MaxCount {
		count = r.settings.MaxCount
	}
	ctx = services.WithMessageID(ctx, msg.ID)
	logger := logging.WithContext(ctx, r.logger)

	excluded := make(map[string]struct{}, len(excluding))
	for _, id := range excluding {
		excluded[id] = struct{}{}
	}

	var found []Candidate
	seen := make(map[string]struct{})
	visit := func(m *discordgo.Message) {
		if m == nil {
			return
		}
		if _, ok := seen[m.ID]; ok {
			return
		}
		seen[m.ID] = struct{}{}
		metrics.ResolverMessagesVisited.Inc()
		if m.Type == discordgo.MessageTypeThreadStarterMessage {
			origin, err := fetchReference(ctx, r.history, m)
			if err != nil || origin == nil {
				logger.Debug("thread origin unavailable", logging.String("thread_message_id", m.ID), logging.Error(err))
				return
			}
			if _, ok := seen[origin.ID]; ok {
				return
			}
			seen[origin.ID] = struct{}{}
			m = origin
		}
		found = append(found, r.scanMessage(ctx, m, excluded)...)
	}
	enough := func() bool { return len(found) >= count }

	visit(msg)
	if !enough() && msg.Type != discordgo.MessageTypeThreadStarterMessage {
		reply, err := fetchReference(ctx, r.history, msg)
		if err != nil {
			logging.WarnWithContext(logger, "reply target unavailable", "reply_fetch_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "reply target skipped; history is still searched"),
			)
		}
		visit(reply)
	}

	if !enough() {
		walker := newHistoryWalker(r.history, msg.ChannelID, msg.ID, r.settings.HistoryLimit)
		for !enough() {
			m, err := walker.Next(ctx)
			if err != nil {
				if len(found) > 0 {
					logging.WarnWithContext(logger, "history walk stopped early", "history_fetch_failed",
						logging.Error(err),
						logging.Int("candidates", len(found)),
						logging.String(logging.FieldImpact, "returning candidates found so far"),
					)
					break
				}
				return nil, err
			}
			if m == nil {
				break
			}
			visit(m)
		}
	}

	if len(found) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "resolver", "find media",
			fmt.Sprintf("no media in the last %d messages", r.settings.HistoryLimit), nil)
	}
	if len(found) > count {
		found = found[:count]
	}
	for _, c := range found {
		metrics.ResolverCandidates.WithLabelValues(string(c.Source)).Inc()
	}
	logger.Debug("media resolved",
		logging.Int("candidates", len(found)),
		logging.Int("messages_visited", len(seen)),
	)
	return found, nil
}

// FindGifHostMedia returns the first gif-host rendition in format, looking at
// the reply target alone when msg is a reply and at msg plus recent history
// otherwise.
func (r *Resolver) FindGifHostMedia(ctx context.Context, msg *discordgo.Message, format tenor.Format) (string, error) {
	if msg == nil {
		return "", services.Wrap(services.ErrValidation, "resolver", "find gif host media", "nil message", nil)
	}
	if r.gifHost == nil {
		return "", services.Wrap(services.ErrConfiguration, "resolver", "find gif host media", "no gif host client configured", nil)
	}
	ctx = services.WithMessageID(ctx, msg.ID)

	if msg.MessageReference != nil || msg.ReferencedMessage != nil {
		reply, err := fetchReference(ctx, r.history, msg)
		if err != nil {
			return "", err
		}
		if permalink, ok := gifHostPermalink(reply); ok {
			return r.resolveGifHost(ctx, permalink, format)
		}
		return "", services.Wrap(services.ErrNotFound, "resolver", "find gif host media", "reply target has no gif-host embed", nil)
	}

	if permalink, ok := gifHostPermalink(msg); ok {
		return r.resolveGifHost(ctx, permalink, format)
	}
	walker := newHistoryWalker(r.history, msg.ChannelID, msg.ID, r.settings.HistoryLimit)
	for {
		m, err := walker.Next(ctx)
		if err != nil {
			return "", err
		}
		if m == nil {
			break
		}
		metrics.ResolverMessagesVisited.Inc()
		if permalink, ok := gifHostPermalink(m); ok {
			return r.resolveGifHost(ctx, permalink, format)
		}
	}
	return "", services.Wrap(services.ErrNotFound, "resolver", "find gif host media",
		fmt.Sprintf("no gif-host embed in the last %d messages", r.settings.HistoryLimit), nil)
}

func (r *Resolver) resolveGifHost(ctx context.Context, permalink string, format tenor.Format) (string, error) {
	url, err := r.gifHost.Resolve(ctx, permalink, format)
	if err != nil {
		metrics.GifHostLookups.WithLabelValues(metrics.OutcomeFailure).Inc()
		return "", err
	}
	metrics.GifHostLookups.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return url, nil
}

// gifHostPermalink returns the first gifv embed on m that points at a
// gif-host post.
func gifHostPermalink(m *discordgo.Message) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, embed := range m.Embeds {
		if embed == nil || embed.Type != discordgo.EmbedTypeGifv {
			continue
		}
		if tenor.IsPermalink(embed.URL) {
			return embed.URL, true
		}
	}
	return "", false
}
