package testutil

import (
	"fmt"
	"sync"
	"time"
)

// stampLayout mirrors delta.StampLayout; the constant is duplicated here
// because importing delta would create an import cycle in delta's tests.
const stampLayout = "20060102_150405"

// FixedClock yields a deterministic sequence of delta stamps for tests.
//
// Each Stamp call advances one step from the base time, so the first call
// returns base+step, the second base+2*step, and so on. With a one-second
// step every stamp is distinct and sorts in call order.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int
}

// NewFixedClock creates a clock starting at base, advancing by step per call.
func NewFixedClock(base time.Time, step time.Duration) *FixedClock {
	return &FixedClock{base: base, step: step}
}

// DefaultClock returns the clock scenarios and most tests share:
// 2024-01-01 00:00:00 UTC advancing one second per stamp.
func DefaultClock() *FixedClock {
	return NewFixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
}

// Stamp implements delta.StampClock.
func (c *FixedClock) Stamp() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.base.Add(time.Duration(c.n) * c.step).Format(stampLayout)
}

// Reset rewinds the clock so the next Stamp repeats the first value.
func (c *FixedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}

// SequenceTokens generates an unbounded deterministic token sequence
// ("prefix-001", "prefix-002", ...). Unlike delta.FixedGenerator it never
// exhausts, which suits scenario runs with a variable number of drains.
type SequenceTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTokens creates a generator with the given prefix.
func NewSequenceTokens(prefix string) *SequenceTokens {
	return &SequenceTokens{prefix: prefix}
}

// Generate implements delta.TokenGenerator.
func (g *SequenceTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n)
}
