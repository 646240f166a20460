package diag

import "math"

// keyState is the mutable per-key record. Burst fields belong to the
// chatter detector; everything else is plain event accounting.
type keyState struct {
	row           uint32
	col           uint32
	pressCount    uint32
	releaseCount  uint32
	chatterCount  uint32
	pressed       bool
	seen          bool
	lastEventMS   uint64
	minIntervalMS uint64
	burstCount    uint32
	burstStartMS  uint64
	burstActive   bool
}

// statsTable holds one record per addressable key position, pre-sized at
// construction. Records are never added or removed during a session.
type statsTable struct {
	keys []keyState
}

func newStatsTable(positions []struct{ Row, Col uint32 }) *statsTable {
	t := &statsTable{keys: make([]keyState, len(positions))}
	for i, rc := range positions {
		t.keys[i].row = rc.Row
		t.keys[i].col = rc.Col
		t.keys[i].minIntervalMS = math.MaxUint64
	}
	return t
}

// record updates the statistics for a key transition and returns the
// mutated record so the chatter detector can run on it. Out-of-range
// positions are ignored; upstream mapping failures must not halt ingestion.
func (t *statsTable) record(position int, pressed bool, timestampMS uint64) *keyState {
	if position < 0 || position >= len(t.keys) {
		return nil
	}

	ks := &t.keys[position]
	if ks.seen && timestampMS >= ks.lastEventMS {
		interval := timestampMS - ks.lastEventMS
		if interval < ks.minIntervalMS {
			ks.minIntervalMS = interval
		}
	}

	ks.seen = true
	ks.pressed = pressed
	ks.lastEventMS = timestampMS
	if pressed {
		ks.pressCount++
	} else {
		ks.releaseCount++
	}

	return ks
}

// reset zeroes all counters without changing the table size.
func (t *statsTable) reset() {
	for i := range t.keys {
		row, col := t.keys[i].row, t.keys[i].col
		t.keys[i] = keyState{row: row, col: col, minIntervalMS: math.MaxUint64}
	}
}

// snapshot returns read-only copies of up to max key records.
func (t *statsTable) snapshot(max int) []KeyStat {
	n := len(t.keys)
	if max >= 0 && max < n {
		n = max
	}

	out := make([]KeyStat, n)
	for i := 0; i < n; i++ {
		ks := &t.keys[i]
		minInterval := ks.minIntervalMS
		if minInterval == math.MaxUint64 {
			minInterval = 0
		}
		out[i] = KeyStat{
			Position:      i,
			Row:           ks.row,
			Col:           ks.col,
			PressCount:    ks.pressCount,
			ReleaseCount:  ks.releaseCount,
			ChatterCount:  ks.chatterCount,
			Pressed:       ks.pressed,
			Seen:          ks.seen,
			LastEventMS:   ks.lastEventMS,
			MinIntervalMS: minInterval,
		}
	}
	return out
}

func (t *statsTable) len() int { return len(t.keys) }

func (t *statsTable) at(position int) *keyState {
	if position < 0 || position >= len(t.keys) {
		return nil
	}
	return &t.keys[position]
}
