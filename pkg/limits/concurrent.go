package limits

import "sync/atomic"

// ConcurrentLimiter is a non-blocking counting semaphore.
type ConcurrentLimiter struct {
	limit   int64
	current atomic.Int64
}

// NewConcurrentLimiter allows up to limit simultaneous holders.
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{limit: int64(limit)}
}

// Acquire takes a slot, reporting false when none is free. Every successful
// Acquire must be paired with Release.
func (c *ConcurrentLimiter) Acquire() bool {
	if c.current.Add(1) > c.limit {
		c.current.Add(-1)
		return false
	}
	return true
}

// Release returns a slot.
func (c *ConcurrentLimiter) Release() {
	c.current.Add(-1)
}

// Current returns the number of held slots.
func (c *ConcurrentLimiter) Current() int64 {
	return c.current.Load()
}

// Limit returns the configured slot count.
func (c *ConcurrentLimiter) Limit() int64 {
	return c.limit
}

// Remaining returns the number of free slots.
func (c *ConcurrentLimiter) Remaining() int64 {
	return max(0, c.limit-c.current.Load())
}
