package model

import "time"

type SkipKind int

const (
	SkipNone SkipKind = iota
	SkipUnresolvable
	SkipRateLimited
)

func (k SkipKind) String() string {
	switch k {
	case SkipNone:
		return "none"
	case SkipUnresolvable:
		return "unresolvable"
	case SkipRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Skip explains why a channel was left out of (or cut short in) a cycle.
// The zero value means nothing was skipped.
type Skip struct {
	Kind SkipKind
	Wait time.Duration
	Err  error
}

func (s Skip) Skipped() bool { return s.Kind != SkipNone }

// ChannelOutcome is the per-channel line of a cycle.
type ChannelOutcome struct {
	Identifier string
	Collected  int
	Skip       Skip
	// Partial is set when collection stopped early but kept what it had.
	Partial bool
}

type ForwardResult struct {
	Forwarded int
	Attempted int
}

type CycleResult struct {
	Started  time.Time
	Cutoff   time.Time
	Messages []MessageRecord
	Outcomes []ChannelOutcome
	Forward  *ForwardResult
}
