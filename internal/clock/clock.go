// Package clock provides an injectable time source so advance-eligibility
// and day-boundary computations stay deterministic under test.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the business time zone.
type SystemClock struct {
	Zone *time.Location
}

func NewSystem(zone *time.Location) *SystemClock {
	if zone == nil {
		zone = time.UTC
	}
	return &SystemClock{Zone: zone}
}

func (c *SystemClock) Now() time.Time {
	if c.Zone == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Zone)
}
