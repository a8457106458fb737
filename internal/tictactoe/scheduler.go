package tictactoe

import "time"

// Scheduler runs fn once after delay. The returned stop func cancels the
// run and reports whether it was still pending.
type Scheduler interface {
	AfterFunc(delay time.Duration, fn func()) (stop func() bool)
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(delay time.Duration, fn func()) func() bool {
	return time.AfterFunc(delay, fn).Stop
}
