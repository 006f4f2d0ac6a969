package clock

import "time"

// Clock abstracts time to keep the exploration engine deterministic in tests.
type Clock interface {
	Now() time.Time
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFuncer schedules f to run once d has elapsed.
type AfterFuncer interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
