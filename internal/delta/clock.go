package delta

import "time"

// StampLayout is the filename timestamp format. Zero-padded fields keep
// lexical order identical to chronological order.
const StampLayout = "20060102_150405"

// StampClock produces filename timestamps for freshly written deltas.
// Injecting it keeps delta names deterministic under test.
type StampClock interface {
	// Stamp returns the timestamp for a delta written now.
	Stamp() string
}

// SystemClock stamps deltas with the current UTC wall-clock time.
type SystemClock struct{}

// Stamp implements StampClock.
func (SystemClock) Stamp() string {
	return time.Now().UTC().Format(StampLayout)
}
