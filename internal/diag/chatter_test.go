package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(row, col uint32) *keyState {
	return &keyState{row: row, col: col}
}

func TestChatterTwoEpisodes(t *testing.T) {
	d := newChatterDetector(50, 3)
	ks := newTestKey(1, 2)

	// First burst: three transitions within the window.
	for _, ts := range []uint64{0, 10, 20} {
		d.observe(ks, ts)
	}
	// Second burst: 200ms is outside the window of the first.
	for _, ts := range []uint64{200, 210, 220} {
		d.observe(ks, ts)
	}

	assert.Equal(t, uint32(2), ks.chatterCount, "two distinct episodes")

	alerts := d.snapshot(false)
	require.Len(t, alerts, 1, "one alert record per key")
	assert.Equal(t, uint32(1), alerts[0].Row)
	assert.Equal(t, uint32(2), alerts[0].Col)
	assert.Equal(t, uint32(2), alerts[0].ChatterCount)
	assert.Equal(t, uint32(6), alerts[0].EventCount)
	assert.Equal(t, uint64(0), alerts[0].FirstEventMS)
	assert.Equal(t, uint64(220), alerts[0].LastEventMS)
}

func TestChatterIsolatedDoublePress(t *testing.T) {
	d := newChatterDetector(50, 3)
	ks := newTestKey(0, 1)

	// Two quick transitions, then silence, then two more: never three in
	// one window, so never chatter.
	for _, ts := range []uint64{0, 5, 500, 505, 1000, 1010} {
		d.observe(ks, ts)
	}

	assert.Zero(t, ks.chatterCount)
	assert.Empty(t, d.snapshot(false))
}

func TestChatterWindowEdgeInclusive(t *testing.T) {
	d := newChatterDetector(50, 3)
	ks := newTestKey(0, 1)

	// The boundary comparison is strict >, so an event landing exactly
	// window_ms after the burst start still belongs to the burst.
	d.observe(ks, 0)
	d.observe(ks, 25)
	d.observe(ks, 50)

	assert.Equal(t, uint32(1), ks.chatterCount)
}

func TestChatterJustPastWindowResets(t *testing.T) {
	d := newChatterDetector(50, 3)
	ks := newTestKey(0, 1)

	d.observe(ks, 0)
	d.observe(ks, 25)
	d.observe(ks, 51) // window restarts here

	assert.Zero(t, ks.chatterCount)
	assert.Equal(t, uint64(51), ks.burstStartMS)
	assert.Equal(t, uint32(1), ks.burstCount)
}

func TestChatterLegitimateRapidTyping(t *testing.T) {
	// 10 transitions at 60ms spacing: fast typing, but each window only
	// ever holds one event.
	d := newChatterDetector(50, 3)
	ks := newTestKey(2, 3)

	for i := 0; i < 10; i++ {
		d.observe(ks, uint64(i*60))
	}

	assert.Zero(t, ks.chatterCount)
}

func TestChatterAlertCapacity(t *testing.T) {
	d := newChatterDetector(50, 2)

	// Fill the alert list with distinct keys.
	for i := 0; i < MaxChatterAlerts; i++ {
		ks := newTestKey(uint32(i), uint32(i+1))
		d.observe(ks, 0)
		d.observe(ks, 1)
	}
	require.Len(t, d.alerts, MaxChatterAlerts)

	// A new chattering key is dropped once the list is full.
	extra := newTestKey(100, 101)
	d.observe(extra, 0)
	d.observe(extra, 1)
	assert.Equal(t, uint32(1), extra.chatterCount, "the key still counts its episode")
	assert.Len(t, d.alerts, MaxChatterAlerts)

	// An existing alert keeps updating.
	first := newTestKey(0, 1)
	d.observe(first, 100)
	d.observe(first, 101)
	assert.Equal(t, uint32(2), d.alerts[0].ChatterCount)
	assert.Equal(t, uint64(101), d.alerts[0].LastEventMS)
}

func TestChatterConfigureZeroKeepsCurrent(t *testing.T) {
	d := newChatterDetector(50, 3)

	d.configure(0, 0)
	assert.Equal(t, uint64(50), d.windowMS)
	assert.Equal(t, uint32(3), d.burstThreshold)

	d.configure(100, 0)
	assert.Equal(t, uint64(100), d.windowMS)
	assert.Equal(t, uint32(3), d.burstThreshold)

	d.configure(0, 5)
	assert.Equal(t, uint64(100), d.windowMS)
	assert.Equal(t, uint32(5), d.burstThreshold)
}

func TestChatterSnapshotFiltersByCurrentThreshold(t *testing.T) {
	d := newChatterDetector(50, 3)
	ks := newTestKey(1, 2)
	for _, ts := range []uint64{0, 10, 20} {
		d.observe(ks, ts)
	}
	require.Len(t, d.snapshot(false), 1)

	// Raising the threshold above the accumulated event count hides the
	// alert; the record itself is retained.
	d.configure(0, 10)
	assert.Empty(t, d.snapshot(false))
	require.Len(t, d.alerts, 1)

	d.configure(0, 3)
	assert.Len(t, d.snapshot(false), 1)
}

func TestChatterSnapshotClear(t *testing.T) {
	d := newChatterDetector(50, 2)
	ks := newTestKey(0, 1)
	d.observe(ks, 0)
	d.observe(ks, 1)

	alerts := d.snapshot(true)
	require.Len(t, alerts, 1)
	assert.Empty(t, d.snapshot(false))
}
