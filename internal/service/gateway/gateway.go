package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"github.com/samber/lo"
)

const DefaultHours = 1

// Post is one collected message as returned to on-demand callers.
type Post struct {
	Channel  string `json:"channel"`
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Text     string `json:"text"`
	HasMedia bool   `json:"has_media"`
}

type cycleCollector interface {
	Collect(ctx context.Context, channels []string, window time.Duration) (model.CycleResult, error)
}

// Gateway serves on-demand collections over the shared session.
type Gateway struct {
	session contracts.Session
	cycle   cycleCollector
	log     pkg.Logger
}

func New(session contracts.Session, cycle cycleCollector, log pkg.Logger) *Gateway {
	return &Gateway{session: session, cycle: cycle, log: log}
}

// Collect returns the messages of the last hours hours from channels in
// channel order. Non-positive hours mean DefaultHours.
func (g *Gateway) Collect(ctx context.Context, channels []string, hours int) ([]Post, error) {
	if len(channels) == 0 {
		return []Post{}, nil
	}
	if hours <= 0 {
		hours = DefaultHours
	}

	if err := g.session.EnsureConnected(ctx); err != nil {
		return nil, fmt.Errorf("ensure connected: %w", err)
	}

	res, err := g.cycle.Collect(ctx, channels, time.Duration(hours)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	g.log.Info("On-demand collection done", "channels", len(channels), "hours", hours, "posts", len(res.Messages))
	return lo.Map(res.Messages, func(m model.MessageRecord, _ int) Post { return NewPost(m) }), nil
}

func NewPost(m model.MessageRecord) Post {
	return Post{
		Channel:  m.Channel,
		ID:       m.ID,
		Date:     m.Date.UTC().Format(time.RFC3339),
		Text:     m.Text,
		HasMedia: m.HasMedia,
	}
}
