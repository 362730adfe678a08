package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"go.uber.org/zap"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func ids(msgs []model.MessageRecord) []int64 {
	out := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func equalIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestCollectIsolatesUnresolvableChannels(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("alpha", 1, msg(10, now.Add(-30*time.Minute), "a1"))
	p.addChannel("gamma", 3, msg(30, now.Add(-10*time.Minute), "c1"))
	p.resolveErr["private"] = model.ErrInaccessible
	p.resolveErr["bad name"] = model.ErrInvalidIdentifier

	c := newTestCycle(p, pkg.NewNop(), now, 50)
	res, err := c.Collect(context.Background(), []string{"alpha", "missing", "private", "bad name", "gamma"}, time.Hour)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if got := ids(res.Messages); !equalIDs(got, []int64{10, 30}) {
		t.Fatalf("ids = %v, want [10 30]", got)
	}
	if len(res.Outcomes) != 5 {
		t.Fatalf("outcomes = %d, want 5", len(res.Outcomes))
	}
	for _, i := range []int{1, 2, 3} {
		if res.Outcomes[i].Skip.Kind != model.SkipUnresolvable {
			t.Errorf("outcome %d (%s) kind = %v, want unresolvable", i, res.Outcomes[i].Identifier, res.Outcomes[i].Skip.Kind)
		}
	}
	if res.Messages[0].Channel != "alpha" || res.Messages[1].Channel != "gamma" {
		t.Errorf("channels = %q,%q", res.Messages[0].Channel, res.Messages[1].Channel)
	}
}

func TestCollectDropsMessagesBeforeCutoff(t *testing.T) {
	p := newFakeProvider()
	cutoff := now.Add(-time.Hour)
	p.addChannel("alpha", 1,
		msg(1, cutoff.Add(-2*time.Minute), "stale anchor"),
		msg(2, cutoff, "exactly at cutoff"),
		msg(3, cutoff.Add(-time.Second), "stale interleaved"),
		msg(4, cutoff.Add(5*time.Minute), "fresh"),
		msg(5, cutoff.Add(10*time.Minute), "fresher"),
	)

	c := newTestCycle(p, pkg.NewNop(), now, 2)
	res, err := c.Collect(context.Background(), []string{"alpha"}, time.Hour)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if got := ids(res.Messages); !equalIDs(got, []int64{2, 4, 5}) {
		t.Fatalf("ids = %v, want [2 4 5]", got)
	}
	for _, m := range res.Messages {
		if m.Date.Before(res.Cutoff) {
			t.Errorf("message %d dated %v is before cutoff %v", m.ID, m.Date, res.Cutoff)
		}
		if m.Date.Location() != time.UTC {
			t.Errorf("message %d not in UTC", m.ID)
		}
	}
	if !res.Cutoff.Equal(cutoff) {
		t.Errorf("cutoff = %v, want %v", res.Cutoff, cutoff)
	}
}

func TestCollectKeepsPartialResultOnRateLimit(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("A", 1, msg(11, now.Add(-50*time.Minute), ""), msg(12, now.Add(-40*time.Minute), ""))
	p.addChannel("B", 2,
		msg(21, now.Add(-50*time.Minute), ""),
		msg(22, now.Add(-45*time.Minute), ""),
		msg(23, now.Add(-30*time.Minute), ""),
		msg(24, now.Add(-20*time.Minute), ""),
	)
	p.addChannel("C", 3, msg(31, now.Add(-5*time.Minute), ""))
	p.historyErr[2] = pageFailure{afterPages: 1, err: &model.RateLimitError{Wait: 42 * time.Second}}

	log, logs := observedLogger()
	c := newTestCycle(p, log, now, 2)
	res, err := c.Run(context.Background(), Input{Channels: []string{"A", "B", "C"}, Window: time.Hour})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ids(res.Messages); !equalIDs(got, []int64{11, 12, 21, 22, 31}) {
		t.Fatalf("ids = %v, want [11 12 21 22 31]", got)
	}

	b := res.Outcomes[1]
	if b.Skip.Kind != model.SkipRateLimited || !b.Partial || b.Collected != 2 {
		t.Errorf("B outcome = %+v", b)
	}
	if b.Skip.Wait != 42*time.Second {
		t.Errorf("B wait = %v, want 42s", b.Skip.Wait)
	}

	warned := false
	for _, entry := range logs.FilterMessageSnippet("Rate limited").All() {
		fields := entry.ContextMap()
		if fields["channel"] == "B" && fields["wait"] == "42s" {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a rate limit warning naming B with wait 42s, got %v", logs.All())
	}
}

func TestCollectRateLimitedResolutionSkipsChannel(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("A", 1, msg(11, now.Add(-time.Minute), ""))
	p.addChannel("C", 3, msg(31, now.Add(-time.Minute), ""))
	p.resolveErr["B"] = &model.RateLimitError{Wait: time.Minute}

	c := newTestCycle(p, pkg.NewNop(), now, 50)
	res, err := c.Collect(context.Background(), []string{"A", "B", "C"}, time.Hour)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := ids(res.Messages); !equalIDs(got, []int64{11, 31}) {
		t.Fatalf("ids = %v", got)
	}
	if res.Outcomes[1].Skip.Kind != model.SkipRateLimited || res.Outcomes[1].Partial {
		t.Errorf("B outcome = %+v", res.Outcomes[1])
	}
}

func TestCollectPropagatesConnectionFailure(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("A", 1, msg(11, now.Add(-time.Minute), ""))
	p.resolveErr["B"] = model.ErrConnectionClosed

	c := newTestCycle(p, pkg.NewNop(), now, 50)
	res, err := c.Collect(context.Background(), []string{"A", "B", "C"}, time.Hour)
	if !errors.Is(err, model.ErrConnectionClosed) {
		t.Fatalf("err = %v, want ErrConnectionClosed", err)
	}
	if len(res.Messages) != 1 {
		t.Errorf("partial messages = %d, want 1", len(res.Messages))
	}
	for _, name := range p.resolved {
		if name == "C" {
			t.Errorf("C must not be attempted after a connection failure")
		}
	}
}

func TestRunForwardsAggregateInOrder(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("A", 1, msg(11, now.Add(-50*time.Minute), ""), msg(12, now.Add(-10*time.Minute), ""))
	p.addChannel("B", 2, msg(21, now.Add(-55*time.Minute), ""))
	p.addChannel("target", 99)
	p.forwardErr[12] = errors.New("MESSAGE_ID_INVALID")

	c := newTestCycle(p, pkg.NewNop(), now, 50)
	res, err := c.Run(context.Background(), Input{Channels: []string{"A", "B"}, Window: time.Hour, Target: "target"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !equalIDs(p.forwarded, []int64{11, 12, 21}) {
		t.Fatalf("forward order = %v, want [11 12 21]", p.forwarded)
	}
	if res.Forward == nil {
		t.Fatal("forward result missing")
	}
	if res.Forward.Attempted != 3 || res.Forward.Forwarded != 2 {
		t.Errorf("forward = %+v, want 2/3", *res.Forward)
	}
}

func TestRunWithoutMessagesDoesNotForward(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("A", 1, msg(11, now.Add(-2*time.Hour), ""))
	p.addChannel("target", 99)

	c := newTestCycle(p, pkg.NewNop(), now, 50)
	res, err := c.Run(context.Background(), Input{Channels: []string{"A"}, Window: time.Hour, Target: "target"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Forward != nil || len(p.forwarded) != 0 {
		t.Errorf("expected no forwarding, got %v", p.forwarded)
	}
	for _, name := range p.resolved {
		if name == "target" {
			t.Errorf("target must not be resolved for an empty aggregate")
		}
	}
}

func TestRunFailsWhenTargetUnresolvable(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("A", 1, msg(11, now.Add(-time.Minute), ""))

	c := newTestCycle(p, pkg.NewNop(), now, 50)
	res, err := c.Run(context.Background(), Input{Channels: []string{"A"}, Window: time.Hour, Target: "nowhere"})
	if !errors.Is(err, model.ErrForwardTarget) {
		t.Fatalf("err = %v, want ErrForwardTarget", err)
	}
	if len(res.Messages) != 1 {
		t.Errorf("collected messages should be kept, got %d", len(res.Messages))
	}
}

func TestCollectIsolatesUnreadableHistory(t *testing.T) {
	for _, kind := range []error{model.ErrInaccessible, model.ErrNotFound, model.ErrInvalidIdentifier} {
		t.Run(kind.Error(), func(t *testing.T) {
			p := newFakeProvider()
			p.addChannel("A", 1, msg(11, now.Add(-30*time.Minute), ""))
			p.addChannel("B", 2, msg(21, now.Add(-20*time.Minute), ""), msg(22, now.Add(-15*time.Minute), ""))
			p.addChannel("C", 3, msg(31, now.Add(-10*time.Minute), ""))
			p.historyErr[2] = pageFailure{afterPages: 0, err: fmt.Errorf("GetChatHistory error: %w", kind)}

			log, logs := observedLogger()
			c := newTestCycle(p, log, now, 50)
			res, err := c.Collect(context.Background(), []string{"A", "B", "C"}, time.Hour)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}

			if got := ids(res.Messages); !equalIDs(got, []int64{11, 31}) {
				t.Fatalf("ids = %v, want [11 31]", got)
			}
			if len(res.Outcomes) != 3 {
				t.Fatalf("outcomes = %d, want 3", len(res.Outcomes))
			}
			b := res.Outcomes[1]
			if b.Identifier != "B" || b.Skip.Kind != model.SkipUnresolvable || !errors.Is(b.Skip.Err, kind) {
				t.Errorf("B outcome = %+v", b)
			}
			if logs.FilterField(zap.String("channel", "B")).FilterMessageSnippet("unavailable").Len() == 0 {
				t.Errorf("expected a warning naming B, got %v", logs.All())
			}
		})
	}
}

func TestCollectKeepsPagesReadBeforeHistoryBecameUnreadable(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("B", 2,
		msg(21, now.Add(-50*time.Minute), ""),
		msg(22, now.Add(-40*time.Minute), ""),
		msg(23, now.Add(-30*time.Minute), ""),
	)
	p.addChannel("C", 3, msg(31, now.Add(-10*time.Minute), ""))
	p.historyErr[2] = pageFailure{afterPages: 1, err: model.ErrInaccessible}

	c := newTestCycle(p, pkg.NewNop(), now, 2)
	res, err := c.Collect(context.Background(), []string{"B", "C"}, time.Hour)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := ids(res.Messages); !equalIDs(got, []int64{21, 22, 31}) {
		t.Fatalf("ids = %v, want [21 22 31]", got)
	}
	if b := res.Outcomes[0]; !b.Partial || b.Collected != 2 || b.Skip.Kind != model.SkipUnresolvable {
		t.Errorf("B outcome = %+v", b)
	}
}

func TestCollectContinuesPastShortPage(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("A", 1,
		msg(11, now.Add(-50*time.Minute), ""),
		msg(12, now.Add(-40*time.Minute), ""),
		msg(13, now.Add(-30*time.Minute), ""),
		msg(14, now.Add(-20*time.Minute), ""),
		msg(15, now.Add(-10*time.Minute), ""),
	)
	p.stalls[1] = &pageStall{afterID: 12, times: 2}

	c := newTestCycle(p, pkg.NewNop(), now, 2)
	res, err := c.Collect(context.Background(), []string{"A"}, time.Hour)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := ids(res.Messages); !equalIDs(got, []int64{11, 12, 13, 14, 15}) {
		t.Fatalf("ids = %v, want [11 12 13 14 15]", got)
	}
}

func TestCollectStopsOnPersistentlyShortHistory(t *testing.T) {
	p := newFakeProvider()
	p.addChannel("A", 1,
		msg(11, now.Add(-50*time.Minute), ""),
		msg(12, now.Add(-40*time.Minute), ""),
		msg(13, now.Add(-30*time.Minute), ""),
	)
	p.stalls[1] = &pageStall{afterID: 12, times: 1000}

	c := newTestCycle(p, pkg.NewNop(), now, 2)
	res, err := c.Collect(context.Background(), []string{"A"}, time.Hour)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := ids(res.Messages); !equalIDs(got, []int64{11, 12}) {
		t.Fatalf("ids = %v, want [11 12]", got)
	}
	if served := p.pagesServed[1]; served != 1+maxEmptyPages {
		t.Fatalf("pages served = %d, want %d", served, 1+maxEmptyPages)
	}
}
