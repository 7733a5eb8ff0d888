package sqlite

import (
	"sync"
	"time"
)

// timeLayout is fixed width (always nine fractional digits) so stored
// timestamps compare correctly as plain text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// clock hands out strictly increasing UTC timestamps.
//
// Two writes in the same nanosecond, or a wall clock that steps backwards,
// would otherwise let updated_at stand still or regress. Each call returns at
// least one nanosecond past the previous value.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newClock(now func() time.Time) *clock {
	return &clock{now: now}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Round(0)
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

// observe raises the floor to t, so timestamps handed out after a restart
// never fall behind values already persisted.
func (c *clock) observe(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.last) {
		c.last = t.UTC()
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
