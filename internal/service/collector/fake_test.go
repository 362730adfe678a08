package collector

import (
	"context"
	"sync"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type pageFailure struct {
	afterPages int
	err        error
}

// pageStall makes history requests after afterID come back empty the given
// number of times before the real page is served.
type pageStall struct {
	afterID int64
	times   int
}

type fakeProvider struct {
	mu sync.Mutex

	chats      map[string]int64
	resolveErr map[string]error
	history    map[int64][]model.MessageRecord
	historyErr map[int64]pageFailure
	stalls     map[int64]*pageStall
	forwardErr map[int64]error

	pagesServed map[int64]int
	resolved    []string
	forwarded   []int64
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		chats:       map[string]int64{},
		resolveErr:  map[string]error{},
		history:     map[int64][]model.MessageRecord{},
		historyErr:  map[int64]pageFailure{},
		stalls:      map[int64]*pageStall{},
		forwardErr:  map[int64]error{},
		pagesServed: map[int64]int{},
	}
}

func (p *fakeProvider) addChannel(name string, chatID int64, msgs ...model.MessageRecord) {
	p.chats[name] = chatID
	p.history[chatID] = msgs
}

func (p *fakeProvider) SearchPublicChat(_ context.Context, username string) (model.ResolvedChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = append(p.resolved, username)
	if err, ok := p.resolveErr[username]; ok {
		return model.ResolvedChannel{}, err
	}
	id, ok := p.chats[username]
	if !ok {
		return model.ResolvedChannel{}, model.ErrNotFound
	}
	ch := model.ResolvedChannel{Identifier: username, ChatID: id}
	if msgs := p.history[id]; len(msgs) > 0 {
		ch.LastMessageID = msgs[len(msgs)-1].ID
	}
	return ch, nil
}

// ChatHistory serves everything after AfterID, including messages older
// than Since, to mimic an inexact provider boundary.
func (p *fakeProvider) ChatHistory(_ context.Context, ch model.ResolvedChannel, q model.HistoryQuery) ([]model.MessageRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.historyErr[ch.ChatID]; ok && p.pagesServed[ch.ChatID] >= f.afterPages {
		return nil, f.err
	}
	p.pagesServed[ch.ChatID]++

	if st, ok := p.stalls[ch.ChatID]; ok && st.afterID == q.AfterID && st.times > 0 {
		st.times--
		return nil, nil
	}

	var page []model.MessageRecord
	for _, m := range p.history[ch.ChatID] {
		if m.ID <= q.AfterID {
			continue
		}
		page = append(page, m)
		if int32(len(page)) == q.Limit {
			break
		}
	}
	return page, nil
}

func (p *fakeProvider) ForwardMessage(_ context.Context, _, _ model.ResolvedChannel, messageID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forwarded = append(p.forwarded, messageID)
	return p.forwardErr[messageID]
}

func msg(id int64, at time.Time, text string) model.MessageRecord {
	return model.MessageRecord{ID: id, Date: at, Text: text}
}

func observedLogger() (pkg.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return pkg.NewFromCore(core), logs
}

func newTestCycle(p *fakeProvider, log pkg.Logger, now time.Time, pageLimit int32) *Cycle {
	resolver := NewResolver(p, log)
	c := NewCycle(resolver, NewCollector(p, log, pageLimit), NewForwarder(p, resolver, log, 0), log)
	c.now = func() time.Time { return now }
	return c
}
