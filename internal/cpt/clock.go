package cpt

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so snapshot keys are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// KeySuffixer produces the entropy suffix appended to snapshot keys.
// Timestamps alone cannot guarantee uniqueness under rapid repeated calls;
// the suffix makes collisions impossible in practice.
type KeySuffixer interface {
	Suffix() string
}

// UUIDSuffixer derives suffixes from random UUIDs.
type UUIDSuffixer struct{}

func (UUIDSuffixer) Suffix() string {
	id := uuid.New().String()
	return id[:8]
}
