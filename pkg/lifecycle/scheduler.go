package lifecycle

import "time"

// Scheduler runs f once after d. The returned stop function prevents f from
// running if it has not started and reports whether it did so. f must never be
// run synchronously from AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
