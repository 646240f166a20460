// Package diag implements the key-matrix diagnostics engine: bounded event
// history, per-key statistics, chatter detection and per-line fault
// inference. All state is owned by a Controller and guarded by a single
// mutex; every operation is CPU-bound and completes in bounded time.
package diag

// Event is one key transition as delivered by the scan driver.
type Event struct {
	Row         uint32
	Col         uint32
	Pressed     bool
	TimestampMS uint64
}

// KeyStat is a read-only copy of the statistics for one key position.
type KeyStat struct {
	Position      int
	Row           uint32
	Col           uint32
	PressCount    uint32
	ReleaseCount  uint32
	ChatterCount  uint32
	Pressed       bool
	Seen          bool
	LastEventMS   uint64
	MinIntervalMS uint64
}

// ChatterAlert records a key that crossed the chatter burst threshold.
// EventCount accumulates the transitions attributed to chatter episodes;
// ChatterCount is the number of distinct episodes.
type ChatterAlert struct {
	Row          uint32
	Col          uint32
	EventCount   uint32
	ChatterCount uint32
	FirstEventMS uint64
	LastEventMS  uint64
}

// LineStatus is the derived health summary for one physical scan line.
// It is recomputed from key statistics and the topology on every snapshot,
// never stored.
type LineStatus struct {
	Index          uint32
	Pin            uint32
	Port           string
	Activity       uint32
	InvolvedKeys   uint32
	ChatterKeys    uint32
	MissingKeys    uint32
	SuspectedFault bool
}

// MonitoringConfig holds the runtime-tunable chatter detection parameters.
type MonitoringConfig struct {
	ChatterWindowMS uint64
	ChatterBurst    uint32
}

// KeyStatus is one entry of the full derived matrix dump.
type KeyStatus struct {
	Position     int
	Row          uint32
	Col          uint32
	DriveLine    int32
	SenseLine    int32
	Pressed      bool
	NeverSeen    bool
	PressCount   uint32
	ReleaseCount uint32
	ChatterCount uint32
	LastEventMS  uint64
}

// State is a consistent point-in-time snapshot of the engine.
type State struct {
	MonitoringActive bool
	TotalEvents      uint64
	RecentEvents     []Event
	ChatterAlerts    []ChatterAlert
	Lines            []LineStatus
	Config           MonitoringConfig
}

const (
	// MaxChatterAlerts bounds the alert list; once full, new chattering
	// keys are dropped while existing alerts keep updating.
	MaxChatterAlerts = 32

	// StateEventLimit caps the recent-event list embedded in a State
	// snapshot. The full buffer is available through Events.
	StateEventLimit = 20
)
