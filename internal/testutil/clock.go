// Package testutil provides deterministic fakes for the core's injected
// dependencies.
package testutil

import (
	"fmt"
	"time"
)

// StepClock returns a time that advances by a fixed step on every call, so
// consecutive snapshot keys carry strictly increasing timestamps.
type StepClock struct {
	T    time.Time
	Step time.Duration
}

// NewStepClock starts at a fixed instant, advancing one second per call.
func NewStepClock() *StepClock {
	return &StepClock{
		T:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local),
		Step: time.Second,
	}
}

func (c *StepClock) Now() time.Time {
	c.T = c.T.Add(c.Step)
	return c.T
}

// SeqSuffixer hands out sequential 8-hex-char key suffixes.
type SeqSuffixer struct {
	n int
}

func (s *SeqSuffixer) Suffix() string {
	s.n++
	return fmt.Sprintf("%08x", s.n)
}
