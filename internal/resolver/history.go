package resolver

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"mediaforge/internal/services"
)

// HistorySource is the read-only slice of the Discord REST API the resolver
// uses. *discordgo.Session satisfies it.
type HistorySource interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ HistorySource = (*discordgo.Session)(nil)

// maxPageSize is the largest page Discord returns for a history query.
const maxPageSize = 100

// historyWalker pages backwards through a channel, newest first, stopping
// after limit messages.
type historyWalker struct {
	source    HistorySource
	channelID string
	before    string
	remaining int
	page      []*discordgo.Message
	done      bool
}

func newHistoryWalker(source HistorySource, channelID, before string, limit int) *historyWalker {
	return &historyWalker{source: source, channelID: channelID, before: before, remaining: limit}
}

// Next returns the next older message, or nil when the window is exhausted.
func (w *historyWalker) Next(ctx context.Context) (*discordgo.Message, error) {
	if w.remaining <= 0 {
		return nil, nil
	}
	if len(w.page) == 0 {
		if w.done {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := min(w.remaining, maxPageSize)
		page, err := w.source.ChannelMessages(w.channelID, size, w.before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "resolver", "history", fmt.Sprintf("fetch %d messages before %s", size, w.before), err)
		}
		if len(page) < size {
			w.done = true
		}
		if len(page) == 0 {
			return nil, nil
		}
		w.page = page
		w.before = page[len(page)-1].ID
	}
	msg := w.page[0]
	w.page = w.page[1:]
	w.remaining--
	return msg, nil
}

// fetchReference loads the message ref points at. The embedded copy Discord
// sends along with replies is used when present.
func fetchReference(ctx context.Context, source HistorySource, msg *discordgo.Message) (*discordgo.Message, error) {
	if msg.ReferencedMessage != nil {
		return msg.ReferencedMessage, nil
	}
	ref := msg.MessageReference
	if ref == nil || ref.MessageID == "" {
		return nil, nil
	}
	channelID := ref.ChannelID
	if channelID == "" {
		channelID = msg.ChannelID
	}
	referenced, err := source.ChannelMessage(channelID, ref.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "resolver", "reference", "fetch message "+ref.MessageID, err)
	}
	return referenced, nil
}
