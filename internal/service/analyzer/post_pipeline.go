package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
)

const DefaultWorkers = 4

// TagPipeline tags a batch of messages with a fixed pool of workers, each
// owning its own Matcher.
type TagPipeline struct {
	log      pkg.Logger
	keywords Keywords
	workers  int
}

func NewTagPipeline(log pkg.Logger, keywords Keywords, workers int) *TagPipeline {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &TagPipeline{log: log, keywords: keywords, workers: workers}
}

type tagJob struct {
	idx  int
	text string
}

// Tag returns the keyword tags of msgs, index-aligned. Messages not reached
// before ctx is done get no tags.
func (p *TagPipeline) Tag(ctx context.Context, msgs []model.MessageRecord) [][]string {
	tags := make([][]string, len(msgs))
	if p.keywords.Len() == 0 || len(msgs) == 0 {
		return tags
	}

	start := time.Now()
	in := make(chan tagJob)
	var wg sync.WaitGroup
	workers := min(p.workers, len(msgs))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := NewMatcher(p.keywords)
			for job := range in {
				// Each index is written by exactly one worker.
				tags[job.idx] = m.Match(job.text)
			}
		}()
	}

feed:
	for i, msg := range msgs {
		select {
		case <-ctx.Done():
			p.log.Warn("Context canceled while tagging messages", "tagged", i, "total", len(msgs))
			break feed
		case in <- tagJob{idx: i, text: msg.Text}:
		}
	}
	close(in)
	wg.Wait()

	p.log.Debug("Tagging completed", "messages", len(msgs), "workers", workers, "duration", time.Since(start).String())
	return tags
}
