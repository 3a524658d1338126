package monitor

import "time"

// Metrics counts what the poll loop has done since start
type Metrics struct {
	Cycles             int64
	Changes            int64
	ResolutionFailures int64
	NotifyFailures     int64
	StoreFailures      int64
	LastCycleTime      time.Time
	LastChangeTime     time.Time
}
