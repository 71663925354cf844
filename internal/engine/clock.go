package engine

import "sync/atomic"

// Sequencer hands out strictly increasing seq numbers for trace records.
// Clock implements it; tests substitute a resettable deterministic clock.
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock.
//
// Operations and demon firings are stamped with seq numbers from this clock
// rather than wall time, so the trace of a scripted session is reproducible.
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// The CLI uses it to continue numbering an existing trace database.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
