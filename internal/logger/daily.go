package logger

import (
	"sync"
	"time"
)

// rotator is the part of lumberjack.Logger the daily writer drives
type rotator interface {
	Write(p []byte) (int, error)
	Rotate() error
}

// dailyWriter rotates the underlying file on the first write of each local
// day, so every file holds at most one day of lines.
type dailyWriter struct {
	mu  sync.Mutex
	out rotator
	now func() time.Time
	day string
}

func newDailyWriter(out rotator) *dailyWriter {
	w := &dailyWriter{out: out, now: time.Now}
	w.day = w.now().Format(time.DateOnly)
	return w
}

func (w *dailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if today := w.now().Format(time.DateOnly); today != w.day {
		if err := w.out.Rotate(); err != nil {
			return 0, err
		}
		w.day = today
	}
	return w.out.Write(p)
}
