package contracts

import (
	"context"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
)

// ChatProvider is the messaging network as seen by the collector. Errors
// are expected to be classified into the model error taxonomy.
type ChatProvider interface {
	SearchPublicChat(ctx context.Context, username string) (model.ResolvedChannel, error)
	ChatHistory(ctx context.Context, ch model.ResolvedChannel, q model.HistoryQuery) ([]model.MessageRecord, error)
	ForwardMessage(ctx context.Context, to, from model.ResolvedChannel, messageID int64) error
}

// Session owns the single long-lived provider connection.
type Session interface {
	EnsureConnected(ctx context.Context) error
}

// KeywordTagger returns the keyword tags of msgs, index-aligned.
type KeywordTagger interface {
	Tag(ctx context.Context, msgs []model.MessageRecord) [][]string
}

type Archiver interface {
	SaveCycle(ctx context.Context, label string, res model.CycleResult) error
}

type Reporter interface {
	WriteCycleReport(ctx context.Context, label string, res model.CycleResult) (string, error)
}

type Clock func() time.Time
