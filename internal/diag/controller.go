package diag

import (
	"sync"

	"codeberg.org/mutker/kscand/internal/errors"
	"codeberg.org/mutker/kscand/internal/logger"
	"codeberg.org/mutker/kscand/internal/topology"
)

// Options configures a Controller at construction.
type Options struct {
	EventBufferSize int
	ChatterWindowMS uint64
	ChatterBurst    uint32
}

// Controller owns all diagnostic state and mediates every access to it.
// It is safe for concurrent use: the ingestion path and the management
// request path share one mutex, and every operation under it is bounded.
type Controller struct {
	mu         sync.Mutex
	topo       *topology.Topology
	ring       *eventRing
	stats      *statsTable
	detector   *chatterDetector
	monitoring bool
}

// NewController builds a stopped controller for the given topology.
func NewController(topo *topology.Topology, opts Options) (*Controller, error) {
	errFactory := errors.New()

	if topo == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "topology is required")
	}
	if opts.EventBufferSize <= 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument,
			"event buffer capacity must be positive")
	}
	if opts.ChatterWindowMS == 0 || opts.ChatterBurst < 2 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument,
			"chatter window and burst threshold must be positive")
	}

	positions := make([]struct{ Row, Col uint32 }, topo.KeyCount())
	for pos := range positions {
		row, col, _ := topo.RowColFor(pos)
		positions[pos] = struct{ Row, Col uint32 }{uint32(row), uint32(col)}
	}

	return &Controller{
		topo:     topo,
		ring:     newEventRing(opts.EventBufferSize),
		stats:    newStatsTable(positions),
		detector: newChatterDetector(opts.ChatterWindowMS, opts.ChatterBurst),
	}, nil
}

// Ingest records one key transition. While stopped it is a no-op: nothing
// is counted, so pre-session noise never pollutes a later session. The
// call never blocks and never returns an error; the scan path has no way
// to act on one.
func (c *Controller) Ingest(row, col uint32, pressed bool, timestampMS uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.monitoring {
		return
	}

	c.ring.push(Event{Row: row, Col: col, Pressed: pressed, TimestampMS: timestampMS})

	pos, ok := c.topo.PositionFor(int(row), int(col))
	if !ok {
		// Event is still buffered; only per-key accounting needs a mapping.
		return
	}

	if ks := c.stats.record(pos, pressed, timestampMS); ks != nil {
		before := ks.chatterCount
		c.detector.observe(ks, timestampMS)
		if ks.chatterCount > before {
			logger.Warn().
				Uint32("row", row).
				Uint32("col", col).
				Int("position", pos).
				Msg("Chatter detected")
		}
	}
}

// Resume transitions to Monitoring, retaining any existing data. A
// non-zero windowMS narrows or widens the chatter window first.
func (c *Controller) Resume(windowMS uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if windowMS > 0 {
		c.detector.configure(windowMS, 0)
	}
	c.monitoring = true
	logger.Info().
		Uint64("chatter_window_ms", c.detector.windowMS).
		Uint32("chatter_burst", c.detector.burstThreshold).
		Msg("Monitoring started")
}

// StartFresh clears all diagnostic data and then starts monitoring.
func (c *Controller) StartFresh(windowMS uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	if windowMS > 0 {
		c.detector.configure(windowMS, 0)
	}
	c.monitoring = true
	logger.Info().
		Uint64("chatter_window_ms", c.detector.windowMS).
		Msg("Monitoring started with fresh counters")
}

// Stop transitions to Stopped. Statistics and buffers are retained so a
// post-mortem snapshot stays available. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.monitoring = false
	logger.Info().Msg("Monitoring stopped")
}

// Clear zeroes the event buffer, the lifetime event counter, key
// statistics and chatter alerts. Monitoring state and chatter
// configuration are untouched.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	logger.Info().Msg("Diagnostic data cleared")
}

func (c *Controller) clearLocked() {
	c.ring.reset()
	c.ring.resetTotal()
	c.stats.reset()
	c.detector.reset()
}

// ConfigureChattering updates the detection parameters; zero values leave
// the corresponding parameter unchanged. Takes effect for subsequent
// events only.
func (c *Controller) ConfigureChattering(windowMS uint64, burstThreshold uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.detector.configure(windowMS, burstThreshold)
	logger.Info().
		Uint64("chatter_window_ms", c.detector.windowMS).
		Uint32("chatter_burst", c.detector.burstThreshold).
		Msg("Chatter detection reconfigured")
}

// IsMonitoring reports whether the controller is in the Monitoring state.
func (c *Controller) IsMonitoring() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.monitoring
}

// Config returns the current chatter detection parameters.
func (c *Controller) Config() MonitoringConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detector.config()
}

// TotalEvents returns the number of events ever ingested.
func (c *Controller) TotalEvents() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ring.total
}

// Events returns up to max recent events oldest-first, the overflow flag
// and the lifetime event counter. With clear set, the buffer empties
// (the counter is untouched).
func (c *Controller) Events(max int, clear bool) ([]Event, bool, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	overflow := c.ring.overflow
	total := c.ring.total
	return c.ring.drainRecent(max, clear), overflow, total
}

// Alerts returns chatter alerts meeting the current burst threshold,
// optionally clearing the alert list.
func (c *Controller) Alerts(clear bool) []ChatterAlert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detector.snapshot(clear)
}

// Snapshot returns a consistent point-in-time view of the whole engine,
// including the derived line statuses.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		MonitoringActive: c.monitoring,
		TotalEvents:      c.ring.total,
		RecentEvents:     c.ring.drainRecent(StateEventLimit, false),
		ChatterAlerts:    c.detector.snapshot(false),
		Lines:            computeLineStatus(c.stats, c.topo),
		Config:           c.detector.config(),
	}
}

// KeyStats returns read-only copies of up to max per-key records.
func (c *Controller) KeyStats(max int) []KeyStat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.snapshot(max)
}

// KeyMatrix returns the full derived matrix dump: one entry per valid key
// position with its line mapping and counters.
func (c *Controller) KeyMatrix() []KeyStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]KeyStatus, 0, c.stats.len())
	for pos := 0; pos < c.stats.len(); pos++ {
		ks := c.stats.at(pos)
		entry := KeyStatus{
			Position:     pos,
			Row:          ks.row,
			Col:          ks.col,
			DriveLine:    -1,
			SenseLine:    -1,
			Pressed:      ks.pressed,
			NeverSeen:    !ks.seen,
			PressCount:   ks.pressCount,
			ReleaseCount: ks.releaseCount,
			ChatterCount: ks.chatterCount,
			LastEventMS:  ks.lastEventMS,
		}
		if drive, sense, ok := c.topo.LinesFor(pos); ok {
			entry.DriveLine = int32(drive)
			entry.SenseLine = int32(sense)
		}
		out = append(out, entry)
	}
	return out
}

// Topology returns the immutable matrix description.
func (c *Controller) Topology() *topology.Topology {
	return c.topo
}
