package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("channel not found")
	ErrInvalidIdentifier = errors.New("invalid channel identifier")
	ErrInaccessible      = errors.New("channel is private or inaccessible")
	ErrConnectionClosed  = errors.New("provider connection is closed")
	ErrForwardTarget     = errors.New("forward target could not be resolved")
)

// RateLimitError is returned when the provider demands a wait before the
// next request.
type RateLimitError struct {
	Wait time.Duration
	Err  error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.Wait, e.Err)
	}
	return fmt.Sprintf("rate limited, retry after %s", e.Wait)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsUnresolvable reports whether err means the channel cannot be used at
// all in this cycle.
func IsUnresolvable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidIdentifier) || errors.Is(err, ErrInaccessible)
}

// AsRateLimit extracts a RateLimitError from err.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
