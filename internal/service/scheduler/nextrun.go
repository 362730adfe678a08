package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DailyClock is a fixed time of day at a fixed UTC offset.
type DailyClock struct {
	schedule cron.Schedule
	loc      *time.Location
	label    string
}

func NewDailyClock(hour, minute int, loc *time.Location) (DailyClock, error) {
	if loc == nil {
		loc = time.UTC
	}
	expr := fmt.Sprintf("%d %d * * *", minute, hour)
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return DailyClock{}, fmt.Errorf("daily schedule %q: %w", expr, err)
	}
	return DailyClock{
		schedule: sched,
		loc:      loc,
		label:    fmt.Sprintf("%02d:%02d %s", hour, minute, loc.String()),
	}, nil
}

// Next returns the next occurrence strictly after now: today's if it is
// still ahead in the clock's zone, tomorrow's otherwise.
func (c DailyClock) Next(now time.Time) time.Time {
	return c.schedule.Next(now.In(c.loc))
}

func (c DailyClock) String() string { return c.label }
