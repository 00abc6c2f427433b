package cfntheory

import "time"

// Clock provides deterministic time for assembly timestamps and run ids.
type Clock interface {
	Now() time.Time
}

// RealClock uses time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
