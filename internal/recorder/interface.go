package recorder

import (
	"context"
	"time"
)

// Recorder appends session snapshots for offline analysis. It is
// write-only: diagnostic state is never restored from storage.
type Recorder interface {
	Record(ctx context.Context, snapshot *SessionSnapshot) error
	Close() error
}

// SessionSnapshot is one periodic observation of the engine.
type SessionSnapshot struct {
	Timestamp        time.Time
	MonitoringActive bool
	TotalEvents      uint64
	AlertCount       int
	ChatteringKeys   int
	SuspectLines     int
}
