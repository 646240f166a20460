package rpc

import (
	"fmt"

	"codeberg.org/mutker/kscand/internal/diag"
	"codeberg.org/mutker/kscand/internal/gpio"
	"codeberg.org/mutker/kscand/internal/logger"
)

// Dispatcher routes decoded requests to the diagnostics controller. It is
// the single handler implementation shared by every transport; transports
// only decode payloads into Request values.
type Dispatcher struct {
	ctrl     *diag.Controller
	reader   gpio.Reader
	gpioChip string
}

// NewDispatcher creates a dispatcher. ctrl may be nil when no scan device
// is configured; every operation then answers success=false rather than
// failing the transport.
func NewDispatcher(ctrl *diag.Controller, reader gpio.Reader, gpioChip string) *Dispatcher {
	return &Dispatcher{ctrl: ctrl, reader: reader, gpioChip: gpioChip}
}

// ErrorResponsef builds a generic error response. Used by transports for
// undecodable payloads as well as by the dispatcher itself.
func ErrorResponsef(format string, args ...any) Response {
	return Response{
		Kind:  KindError,
		Error: &ErrorResponse{Message: fmt.Sprintf(format, args...)},
	}
}

// Dispatch answers one request with exactly one response. Unknown or
// empty requests produce an error response; no request ever mutates state
// partially or panics the handler.
func (d *Dispatcher) Dispatch(req Request) Response {
	switch {
	case req.Resume != nil:
		return d.handleStart(req.Resume.ChatterThresholdMS, false)
	case req.StartFresh != nil:
		return d.handleStart(req.StartFresh.ChatterThresholdMS, true)
	case req.StopMonitoring != nil:
		return d.handleStop()
	case req.GetState != nil:
		return d.handleGetState()
	case req.ClearData != nil:
		return d.handleClearData()
	case req.GetKscanConfig != nil:
		return d.handleGetKscanConfig()
	case req.GetEvents != nil:
		return d.handleGetEvents(req.GetEvents.ClearBuffer)
	case req.ConfigureChattering != nil:
		return d.handleConfigureChattering(req.ConfigureChattering)
	case req.GetChatteringAlerts != nil:
		return d.handleGetChatteringAlerts(req.GetChatteringAlerts.ClearAlerts)
	case req.TestGpioPin != nil:
		return d.handleTestGpioPin(req.TestGpioPin.GpioIndex)
	case req.GetKeyMatrix != nil:
		return d.handleGetKeyMatrix()
	default:
		logger.Warn().Msg("Unsupported diagnostics request")
		return ErrorResponsef("unsupported request")
	}
}

func (d *Dispatcher) handleStart(thresholdMS uint64, fresh bool) Response {
	if d.ctrl == nil {
		return Response{Kind: KindStartMonitoring,
			StartMonitoring: &StartMonitoringResponse{Success: false}}
	}

	if fresh {
		d.ctrl.StartFresh(thresholdMS)
	} else {
		d.ctrl.Resume(thresholdMS)
	}

	return Response{
		Kind: KindStartMonitoring,
		StartMonitoring: &StartMonitoringResponse{
			Success:   true,
			GpioCount: d.ctrl.Topology().LineCount(),
		},
	}
}

func (d *Dispatcher) handleStop() Response {
	if d.ctrl == nil {
		return Response{Kind: KindStopMonitoring,
			StopMonitoring: &StopMonitoringResponse{Success: false}}
	}

	d.ctrl.Stop()
	return Response{Kind: KindStopMonitoring,
		StopMonitoring: &StopMonitoringResponse{Success: true}}
}

func (d *Dispatcher) handleGetState() Response {
	if d.ctrl == nil {
		return ErrorResponsef("no scan device configured")
	}

	snap := d.ctrl.Snapshot()
	resp := &StateResponse{
		MonitoringActive: snap.MonitoringActive,
		TotalEvents:      snap.TotalEvents,
		ChatterWindowMS:  snap.Config.ChatterWindowMS,
		ChatterBurst:     snap.Config.ChatterBurst,
		RecentEvents:     eventsToJSON(snap.RecentEvents),
		ChatterStats:     alertsToJSON(snap.ChatterAlerts),
		GpioPins:         d.gpioPins(),
		Lines:            linesToJSON(snap.Lines),
	}

	return Response{Kind: KindState, State: resp}
}

func (d *Dispatcher) handleClearData() Response {
	if d.ctrl == nil {
		return Response{Kind: KindClearData, ClearData: &ClearDataResponse{Success: false}}
	}

	d.ctrl.Clear()
	return Response{Kind: KindClearData, ClearData: &ClearDataResponse{Success: true}}
}

func (d *Dispatcher) handleGetKscanConfig() Response {
	if d.ctrl == nil {
		return ErrorResponsef("no scan device configured")
	}

	topo := d.ctrl.Topology()
	return Response{
		Kind: KindKscanConfig,
		KscanConfig: &KscanConfigResponse{
			GpioPins:    d.gpioPins(),
			MatrixRows:  topo.Rows(),
			MatrixCols:  topo.Cols(),
			KeyCount:    topo.KeyCount(),
			Multiplexed: topo.Multiplexed(),
		},
	}
}

func (d *Dispatcher) handleGetEvents(clear bool) Response {
	if d.ctrl == nil {
		return ErrorResponsef("no scan device configured")
	}

	events, overflow, total := d.ctrl.Events(-1, clear)
	return Response{
		Kind: KindEvents,
		Events: &EventsResponse{
			Events:      eventsToJSON(events),
			Overflow:    overflow,
			TotalEvents: total,
		},
	}
}

func (d *Dispatcher) handleConfigureChattering(req *ConfigureChatteringRequest) Response {
	if d.ctrl == nil {
		return Response{Kind: KindConfigureChattering,
			ConfigureChattering: &ConfigureChatteringResponse{Success: false}}
	}

	d.ctrl.ConfigureChattering(req.WindowMS, req.BurstThreshold)
	return Response{Kind: KindConfigureChattering,
		ConfigureChattering: &ConfigureChatteringResponse{Success: true}}
}

func (d *Dispatcher) handleGetChatteringAlerts(clear bool) Response {
	if d.ctrl == nil {
		return ErrorResponsef("no scan device configured")
	}

	return Response{
		Kind:             KindChatteringAlerts,
		ChatteringAlerts: &ChatteringAlertsResponse{Alerts: alertsToJSON(d.ctrl.Alerts(clear))},
	}
}

// handleTestGpioPin bounds-checks the index and delegates the actual read
// to the GPIO layer. Failures come back as a per-operation result, not a
// generic error: the caller needs to tell a failed pin read apart from an
// invalid request.
func (d *Dispatcher) handleTestGpioPin(index uint32) Response {
	fail := func(msg string) Response {
		return Response{
			Kind:        KindTestGpioPin,
			TestGpioPin: &TestGpioPinResponse{Success: false, ErrorMessage: msg},
		}
	}

	if d.ctrl == nil {
		return fail("no scan device configured")
	}

	topo := d.ctrl.Topology()
	line, ok := topo.Line(int(index))
	if !ok {
		return fail(fmt.Sprintf("gpio index %d out of range (%d lines)",
			index, topo.LineCount()))
	}

	if d.reader == nil {
		return fail("no gpio reader available")
	}

	chip := line.Port
	if chip == "" {
		chip = d.gpioChip
	}

	state, err := d.reader.ReadPin(chip, line.Pin)
	if err != nil {
		logger.Debug().Uint32("pin", line.Pin).Str("chip", chip).
			Msg("GPIO pin test failed")
		return fail(err.Error())
	}

	return Response{
		Kind:        KindTestGpioPin,
		TestGpioPin: &TestGpioPinResponse{Success: true, PinState: state},
	}
}

func (d *Dispatcher) handleGetKeyMatrix() Response {
	if d.ctrl == nil {
		return ErrorResponsef("no scan device configured")
	}

	keys := d.ctrl.KeyMatrix()
	out := make([]KeyMatrixEntryJSON, len(keys))
	for i, k := range keys {
		out[i] = KeyMatrixEntryJSON{
			Position:     k.Position,
			Row:          k.Row,
			Col:          k.Col,
			DriveLine:    k.DriveLine,
			SenseLine:    k.SenseLine,
			Pressed:      k.Pressed,
			NeverSeen:    k.NeverSeen,
			PressCount:   k.PressCount,
			ReleaseCount: k.ReleaseCount,
			ChatterCount: k.ChatterCount,
			LastEventMS:  k.LastEventMS,
		}
	}

	return Response{Kind: KindKeyMatrix, KeyMatrix: &KeyMatrixResponse{Keys: out}}
}

func (d *Dispatcher) gpioPins() []GpioPinJSON {
	lines := d.ctrl.Topology().Lines()
	out := make([]GpioPinJSON, len(lines))
	for i, l := range lines {
		out[i] = GpioPinJSON{Index: l.Index, Pin: l.Pin, Port: l.Port}
	}
	return out
}

func eventsToJSON(events []diag.Event) []EventJSON {
	out := make([]EventJSON, len(events))
	for i, ev := range events {
		out[i] = EventJSON{
			Row:         ev.Row,
			Col:         ev.Col,
			Pressed:     ev.Pressed,
			TimestampMS: ev.TimestampMS,
		}
	}
	return out
}

func linesToJSON(lines []diag.LineStatus) []LineStatusJSON {
	out := make([]LineStatusJSON, len(lines))
	for i, l := range lines {
		out[i] = LineStatusJSON{
			Index:          l.Index,
			Pin:            l.Pin,
			Port:           l.Port,
			Activity:       l.Activity,
			InvolvedKeys:   l.InvolvedKeys,
			ChatterKeys:    l.ChatterKeys,
			MissingKeys:    l.MissingKeys,
			SuspectedFault: l.SuspectedFault,
		}
	}
	return out
}

func alertsToJSON(alerts []diag.ChatterAlert) []ChatterAlertJSON {
	out := make([]ChatterAlertJSON, len(alerts))
	for i, a := range alerts {
		out[i] = ChatterAlertJSON{
			Row:          a.Row,
			Col:          a.Col,
			EventCount:   a.EventCount,
			ChatterCount: a.ChatterCount,
			FirstEventMS: a.FirstEventMS,
			LastEventMS:  a.LastEventMS,
		}
	}
	return out
}
