package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
)

// Input parameterizes one autonomous run. An empty Target disables forwarding.
type Input struct {
	Channels []string
	Window   time.Duration
	Target   string
}

// Cycle runs resolution and collection over a channel list, optionally
// followed by one forward of the whole aggregate.
type Cycle struct {
	resolver  *Resolver
	collector *Collector
	forwarder *Forwarder
	log       pkg.Logger
	now       func() time.Time
}

func NewCycle(resolver *Resolver, collector *Collector, forwarder *Forwarder, log pkg.Logger) *Cycle {
	return &Cycle{
		resolver:  resolver,
		collector: collector,
		forwarder: forwarder,
		log:       log,
		now:       time.Now,
	}
}

// Run collects every channel and forwards the aggregate when in.Target is
// set. Per-channel problems are recorded in the result's outcomes; a
// returned error means the cycle itself failed, and the result then holds
// whatever was gathered before the failure.
func (c *Cycle) Run(ctx context.Context, in Input) (model.CycleResult, error) {
	res, err := c.Collect(ctx, in.Channels, in.Window)
	if err != nil {
		return res, err
	}

	if len(res.Messages) == 0 {
		c.log.Info("No new posts", "channels", len(in.Channels))
		return res, nil
	}
	if in.Target == "" {
		c.log.Info("Collected posts, no target channel set", "count", len(res.Messages))
		return res, nil
	}
	if c.forwarder == nil {
		return res, fmt.Errorf("forward to %s: forwarder is not configured", in.Target)
	}

	fwd, err := c.forwarder.Forward(ctx, res.Messages, in.Target)
	if err != nil {
		return res, err
	}
	res.Forward = &fwd
	return res, nil
}

// Collect resolves and reads each channel in order, without forwarding.
func (c *Cycle) Collect(ctx context.Context, channels []string, window time.Duration) (model.CycleResult, error) {
	started := c.now().UTC()
	res := model.CycleResult{
		Started:  started,
		Cutoff:   started.Add(-window),
		Outcomes: make([]model.ChannelOutcome, 0, len(channels)),
	}

	for _, identifier := range channels {
		outcome := model.ChannelOutcome{Identifier: identifier}

		resolution, err := c.resolver.Resolve(ctx, identifier)
		if err != nil {
			return res, err
		}
		if resolution.Skip.Skipped() {
			outcome.Skip = resolution.Skip
			res.Outcomes = append(res.Outcomes, outcome)
			continue
		}

		collection, err := c.collector.Collect(ctx, resolution.Channel, res.Cutoff)
		res.Messages = append(res.Messages, collection.Messages...)
		outcome.Collected = len(collection.Messages)
		if err != nil {
			res.Outcomes = append(res.Outcomes, outcome)
			return res, err
		}
		if collection.Stop.Skipped() {
			outcome.Skip = collection.Stop
			outcome.Partial = true
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}

	c.log.Info("Channels processed", "channels", len(channels), "collected", len(res.Messages), "cutoff", res.Cutoff)
	return res, nil
}
