package model

import "time"

// ResolvedChannel is the provider-side handle of a public channel. It is
// only valid within the cycle that resolved it.
type ResolvedChannel struct {
	Identifier string
	ChatID     int64
	// LastMessageID is the newest message id known at resolution, 0 if the
	// channel has no messages or the provider did not report it.
	LastMessageID int64
}

// MessageRecord is one collected post. Date is always UTC.
type MessageRecord struct {
	Channel  string
	ID       int64
	Date     time.Time
	Text     string
	HasMedia bool

	// Origin is the resolved source channel, needed to forward the message.
	Origin ResolvedChannel `json:"-"`
}

// HistoryQuery asks the provider for one page of channel history in
// ascending order. With AfterID == 0 the page starts near Since; otherwise
// it holds only messages newer than AfterID.
type HistoryQuery struct {
	Since   time.Time
	AfterID int64
	Limit   int32
}
