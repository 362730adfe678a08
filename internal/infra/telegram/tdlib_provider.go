package fetcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"github.com/zelenin/go-tdlib/client"
)

// firstMessageID is used as the history anchor when a channel has no
// message older than the cutoff: paging forward from it yields the oldest
// messages first.
const firstMessageID int64 = 1

// TDLibProvider implements the chat provider on top of the shared session.
type TDLibProvider struct {
	session *Session
	log     pkg.Logger
}

func NewTDLibProvider(session *Session, log pkg.Logger) *TDLibProvider {
	return &TDLibProvider{session: session, log: log}
}

func (p *TDLibProvider) SearchPublicChat(ctx context.Context, username string) (model.ResolvedChannel, error) {
	c, err := p.client(ctx)
	if err != nil {
		return model.ResolvedChannel{}, err
	}
	chat, err := c.SearchPublicChat(&client.SearchPublicChatRequest{Username: username})
	if err != nil {
		return model.ResolvedChannel{}, fmt.Errorf("SearchPublicChat error: %w", classify(err))
	}
	if chat == nil {
		return model.ResolvedChannel{}, fmt.Errorf("%w: chat is nil after SearchPublicChat", model.ErrNotFound)
	}
	ch := model.ResolvedChannel{Identifier: username, ChatID: chat.Id}
	if chat.LastMessage != nil {
		ch.LastMessageID = chat.LastMessage.Id
	}
	p.log.Debug("Chat found", "username", username, "chat_id", chat.Id, "last_message_id", ch.LastMessageID)
	return ch, nil
}

// ChatHistory returns one ascending page. TDLib pages from a message id
// towards older messages; a negative offset turns the window towards newer
// ones, so the page is [from, from + limit - 1 newer messages].
func (p *TDLibProvider) ChatHistory(ctx context.Context, ch model.ResolvedChannel, q model.HistoryQuery) ([]model.MessageRecord, error) {
	c, err := p.client(ctx)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 1 {
		limit = 2
	}

	from := q.AfterID
	if from == 0 {
		from, err = p.anchor(c, ch.ChatID, q.Since)
		if err != nil {
			return nil, err
		}
	}

	history, err := c.GetChatHistory(&client.GetChatHistoryRequest{
		ChatId:        ch.ChatID,
		FromMessageId: from,
		Offset:        -(limit - 1),
		Limit:         limit,
		OnlyLocal:     false,
	})
	if err != nil {
		return nil, fmt.Errorf("GetChatHistory error: %w", classify(err))
	}

	out := make([]model.MessageRecord, 0, len(history.Messages))
	for _, raw := range history.Messages {
		if raw == nil || raw.Id <= q.AfterID {
			continue
		}
		out = append(out, toRecord(raw))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// anchor finds the last message sent at or before since. It may be older
// than since; the collector drops it.
func (p *TDLibProvider) anchor(c tdClient, chatID int64, since time.Time) (int64, error) {
	msg, err := c.GetChatMessageByDate(&client.GetChatMessageByDateRequest{
		ChatId: chatID,
		Date:   int32(since.Unix()),
	})
	if err != nil {
		err = classify(err)
		if model.IsUnresolvable(err) {
			return firstMessageID, nil
		}
		return 0, fmt.Errorf("GetChatMessageByDate error: %w", err)
	}
	if msg == nil {
		return firstMessageID, nil
	}
	return msg.Id, nil
}

func (p *TDLibProvider) ForwardMessage(ctx context.Context, to, from model.ResolvedChannel, messageID int64) error {
	c, err := p.client(ctx)
	if err != nil {
		return err
	}
	_, err = c.ForwardMessages(&client.ForwardMessagesRequest{
		ChatId:     to.ChatID,
		FromChatId: from.ChatID,
		MessageIds: []int64{messageID},
	})
	if err != nil {
		return fmt.Errorf("ForwardMessages error: %w", classify(err))
	}
	return nil
}

func (p *TDLibProvider) client(ctx context.Context) (tdClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.session.current()
}

func toRecord(raw *client.Message) model.MessageRecord {
	text, hasMedia := content(raw.Content)
	return model.MessageRecord{
		ID:       raw.Id,
		Date:     time.Unix(int64(raw.Date), 0).UTC(),
		Text:     strings.TrimSpace(text),
		HasMedia: hasMedia,
	}
}

// content extracts the text or caption and reports whether the message
// carries a photo or a document-like attachment.
func content(c client.MessageContent) (string, bool) {
	switch v := c.(type) {
	case *client.MessageText:
		return formatted(v.Text), false
	case *client.MessagePhoto:
		return formatted(v.Caption), true
	case *client.MessageVideo:
		return formatted(v.Caption), true
	case *client.MessageDocument:
		return formatted(v.Caption), true
	case *client.MessageAnimation:
		return formatted(v.Caption), true
	case *client.MessageAudio:
		return formatted(v.Caption), true
	case *client.MessageVoiceNote:
		return formatted(v.Caption), true
	case *client.MessageVideoNote, *client.MessageSticker:
		return "", true
	default:
		return "", false
	}
}

func formatted(t *client.FormattedText) string {
	if t == nil {
		return ""
	}
	return t.Text
}
