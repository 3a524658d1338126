package monitor

import (
	"context"
	"time"
)

// Scheduler suspends the loop between cycles
type Scheduler interface {
	// Wait blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Wait(ctx context.Context, d time.Duration) error
}

// TimerScheduler waits on a real timer
type TimerScheduler struct{}

// Wait implements Scheduler
func (TimerScheduler) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
