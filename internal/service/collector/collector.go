package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
)

const DefaultPageLimit int32 = 50

// maxEmptyPages bounds consecutive pages without new messages while the
// channel's newest message has not been reached yet.
const maxEmptyPages = 3

// Collection is everything gathered from one channel. Stop is set when a
// rate limit ended iteration early; Messages then holds the partial result.
type Collection struct {
	Messages []model.MessageRecord
	Stop     model.Skip
}

type Collector struct {
	provider  contracts.ChatProvider
	log       pkg.Logger
	pageLimit int32
}

func NewCollector(provider contracts.ChatProvider, log pkg.Logger, pageLimit int32) *Collector {
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	return &Collector{provider: provider, log: log, pageLimit: pageLimit}
}

// Collect pages the channel history oldest-first from cutoff and returns
// every message dated at or after cutoff in ascending order.
func (c *Collector) Collect(ctx context.Context, ch model.ResolvedChannel, cutoff time.Time) (Collection, error) {
	var (
		out        []model.MessageRecord
		afterID    int64
		pages      int
		dropped    int
		emptyPages int
	)

	for {
		page, err := c.provider.ChatHistory(ctx, ch, model.HistoryQuery{
			Since:   cutoff,
			AfterID: afterID,
			Limit:   c.pageLimit,
		})
		if err != nil {
			if rl, ok := model.AsRateLimit(err); ok {
				c.log.Warn("Rate limited while reading channel, keeping partial result",
					"channel", ch.Identifier, "wait", rl.Wait.String(), "collected", len(out))
				return Collection{
					Messages: out,
					Stop:     model.Skip{Kind: model.SkipRateLimited, Wait: rl.Wait, Err: err},
				}, nil
			}
			if model.IsUnresolvable(err) {
				c.log.Warn("Channel history unavailable, skipping rest of channel",
					"channel", ch.Identifier, "collected", len(out), "err", err)
				return Collection{
					Messages: out,
					Stop:     model.Skip{Kind: model.SkipUnresolvable, Err: err},
				}, nil
			}
			return Collection{Messages: out}, fmt.Errorf("read history of %s: %w", ch.Identifier, err)
		}
		pages++

		progressed := false
		for _, msg := range page {
			if msg.ID <= afterID {
				continue
			}
			afterID = msg.ID
			progressed = true

			// Page boundaries are approximate; the cutoff is checked per message.
			if msg.Date.Before(cutoff) {
				dropped++
				continue
			}
			msg.Channel = ch.Identifier
			msg.Origin = ch
			msg.Date = msg.Date.UTC()
			out = append(out, msg)
		}

		if progressed {
			emptyPages = 0
			continue
		}
		// A page may come back short of the end of history; only a known
		// newest id tells the two apart.
		if afterID >= ch.LastMessageID {
			break
		}
		emptyPages++
		if emptyPages >= maxEmptyPages {
			c.log.Warn("History stalled before the newest message",
				"channel", ch.Identifier, "after_id", afterID, "last_id", ch.LastMessageID)
			break
		}
	}

	c.log.Debug("Channel history read", "channel", ch.Identifier, "count", len(out), "pages", pages, "dropped", dropped)
	return Collection{Messages: out}, nil
}
