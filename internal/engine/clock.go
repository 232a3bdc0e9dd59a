package engine

import "sync/atomic"

// Clock is a monotonic logical clock stamping executions.
//
// Sequence numbers order executions as the engine accepted them. They are not
// timestamps; concurrent executions get distinct but otherwise arbitrary
// relative numbers.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
