package scheduler

import "time"

// Timer is the handle of a pending AfterFunc call
type Timer interface {
	Stop() bool
}

// Clock provides the wall clock for the scheduler
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

var _ Clock = realClock{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
