package diag

// chatterDetector implements burst-window chatter classification. Each key
// carries a sliding window: transitions landing within windowMS of the
// window start accumulate, and reaching burstThreshold inside one window
// classifies a chatter episode. Isolated double-presses never reach the
// threshold; sustained bounce does.
type chatterDetector struct {
	windowMS       uint64
	burstThreshold uint32
	alerts         []ChatterAlert
}

func newChatterDetector(windowMS uint64, burstThreshold uint32) *chatterDetector {
	return &chatterDetector{
		windowMS:       windowMS,
		burstThreshold: burstThreshold,
		alerts:         make([]ChatterAlert, 0, MaxChatterAlerts),
	}
}

// observe runs the burst-window algorithm for one transition. The window
// boundary uses strict >, so an event exactly at the edge still counts
// toward the current burst.
func (d *chatterDetector) observe(ks *keyState, timestampMS uint64) {
	if !ks.burstActive || timestampMS-ks.burstStartMS > d.windowMS {
		ks.burstStartMS = timestampMS
		ks.burstCount = 0
		ks.burstActive = true
	}

	ks.burstCount++

	if ks.burstCount >= d.burstThreshold {
		ks.chatterCount++
		d.raise(ks, timestampMS)
		ks.burstCount = 0
		ks.burstStartMS = timestampMS
	}
}

// raise creates or updates the alert for the chattering key. The list is
// bounded: once full, new keys are dropped while existing entries keep
// updating.
func (d *chatterDetector) raise(ks *keyState, timestampMS uint64) {
	for i := range d.alerts {
		if d.alerts[i].Row == ks.row && d.alerts[i].Col == ks.col {
			d.alerts[i].EventCount += ks.burstCount
			d.alerts[i].ChatterCount++
			d.alerts[i].LastEventMS = timestampMS
			return
		}
	}

	if len(d.alerts) >= MaxChatterAlerts {
		return
	}

	d.alerts = append(d.alerts, ChatterAlert{
		Row:          ks.row,
		Col:          ks.col,
		EventCount:   ks.burstCount,
		ChatterCount: 1,
		FirstEventMS: ks.burstStartMS,
		LastEventMS:  timestampMS,
	})
}

// configure updates the detection parameters. Zero values leave the
// corresponding parameter unchanged; updates apply to subsequent events
// only, past classifications are never revisited.
func (d *chatterDetector) configure(windowMS uint64, burstThreshold uint32) {
	if windowMS > 0 {
		d.windowMS = windowMS
	}
	if burstThreshold > 0 {
		d.burstThreshold = burstThreshold
	}
}

// snapshot returns alerts whose accumulated event count still meets the
// current burst threshold. With clear set, the alert list empties.
func (d *chatterDetector) snapshot(clear bool) []ChatterAlert {
	out := make([]ChatterAlert, 0, len(d.alerts))
	for _, a := range d.alerts {
		if a.EventCount >= d.burstThreshold {
			out = append(out, a)
		}
	}

	if clear {
		d.alerts = d.alerts[:0]
	}
	return out
}

// reset drops all alerts.
func (d *chatterDetector) reset() {
	d.alerts = d.alerts[:0]
}

func (d *chatterDetector) config() MonitoringConfig {
	return MonitoringConfig{
		ChatterWindowMS: d.windowMS,
		ChatterBurst:    d.burstThreshold,
	}
}
