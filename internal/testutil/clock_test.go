package testutil

import (
	"testing"
	"time"
)

func TestFixedClock_SequentialStamps(t *testing.T) {
	c := NewFixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	first := c.Stamp()
	second := c.Stamp()

	if first != "20240101_000001" {
		t.Errorf("first stamp = %q, want 20240101_000001", first)
	}
	if second != "20240101_000002" {
		t.Errorf("second stamp = %q, want 20240101_000002", second)
	}
	if !(first < second) {
		t.Error("stamps must sort in call order")
	}
}

func TestFixedClock_Reset(t *testing.T) {
	c := DefaultClock()

	first := c.Stamp()
	c.Stamp()
	c.Reset()

	if got := c.Stamp(); got != first {
		t.Errorf("stamp after reset = %q, want %q", got, first)
	}
}

func TestSequenceTokens(t *testing.T) {
	g := NewSequenceTokens("pass")

	if got := g.Generate(); got != "pass-001" {
		t.Errorf("first token = %q, want pass-001", got)
	}
	if got := g.Generate(); got != "pass-002" {
		t.Errorf("second token = %q, want pass-002", got)
	}
}
