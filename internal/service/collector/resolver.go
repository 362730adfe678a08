package collector

import (
	"context"
	"fmt"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
)

// Resolution is the typed result of resolving one identifier. When Skip is
// set, Channel is the zero value and the channel is absent for this cycle.
type Resolution struct {
	Channel model.ResolvedChannel
	Skip    model.Skip
}

type Resolver struct {
	provider contracts.ChatProvider
	log      pkg.Logger
}

func NewResolver(provider contracts.ChatProvider, log pkg.Logger) *Resolver {
	return &Resolver{provider: provider, log: log}
}

// Resolve looks the channel up. Not-found, invalid, private and rate-limited
// channels come back as a Skip; only other failures are returned as error.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (Resolution, error) {
	ch, err := r.provider.SearchPublicChat(ctx, identifier)
	if err == nil {
		r.log.Debug("Channel resolved", "channel", identifier, "chat_id", ch.ChatID)
		ch.Identifier = identifier
		return Resolution{Channel: ch}, nil
	}

	if rl, ok := model.AsRateLimit(err); ok {
		r.log.Warn("Rate limited, skipping channel", "channel", identifier, "wait", rl.Wait.String())
		return Resolution{Skip: model.Skip{Kind: model.SkipRateLimited, Wait: rl.Wait, Err: err}}, nil
	}
	if model.IsUnresolvable(err) {
		r.log.Warn("Channel unavailable, skipping", "channel", identifier, "err", err)
		return Resolution{Skip: model.Skip{Kind: model.SkipUnresolvable, Err: err}}, nil
	}

	return Resolution{}, fmt.Errorf("resolve %s: %w", identifier, err)
}
