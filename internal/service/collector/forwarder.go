package collector

import (
	"context"
	"fmt"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"golang.org/x/time/rate"
)

type Forwarder struct {
	provider contracts.ChatProvider
	resolver *Resolver
	log      pkg.Logger
	limiter  *rate.Limiter
}

// NewForwarder returns a forwarder that paces sends at ratePerSec; zero
// disables pacing.
func NewForwarder(provider contracts.ChatProvider, resolver *Resolver, log pkg.Logger, ratePerSec float64) *Forwarder {
	f := &Forwarder{provider: provider, resolver: resolver, log: log}
	if ratePerSec > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return f
}

// Forward re-publishes messages to target in the given order. A target that
// cannot be resolved fails the whole call; a message that cannot be
// forwarded is logged and counted, and the rest still go.
func (f *Forwarder) Forward(ctx context.Context, messages []model.MessageRecord, target string) (model.ForwardResult, error) {
	res, err := f.resolver.Resolve(ctx, target)
	if err != nil {
		return model.ForwardResult{}, fmt.Errorf("%w: %s: %w", model.ErrForwardTarget, target, err)
	}
	if res.Skip.Skipped() {
		return model.ForwardResult{}, fmt.Errorf("%w: %s: %w", model.ErrForwardTarget, target, res.Skip.Err)
	}

	result := model.ForwardResult{Attempted: len(messages)}
	for _, msg := range messages {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				f.log.Warn("Failed to forward message", "channel", msg.Channel, "id", msg.ID, "err", err)
				continue
			}
		}
		if err := f.provider.ForwardMessage(ctx, res.Channel, msg.Origin, msg.ID); err != nil {
			f.log.Warn("Failed to forward message", "channel", msg.Channel, "id", msg.ID, "err", err)
			continue
		}
		result.Forwarded++
	}

	f.log.Info("Forwarded posts", "target", target, "forwarded", result.Forwarded, "attempted", result.Attempted)
	return result, nil
}
