package rpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/kscand/internal/diag"
	"codeberg.org/mutker/kscand/internal/gpio"
	"codeberg.org/mutker/kscand/internal/topology"
)

func newTestDispatcher(t *testing.T, reader gpio.Reader) (*Dispatcher, *diag.Controller) {
	t.Helper()
	topo, err := topology.New(0, 0, true, []topology.Line{
		{Pin: 2, Port: "gpio0"},
		{Pin: 3, Port: "gpio0"},
		{Pin: 4, Port: "gpio0"},
		{Pin: 5, Port: "gpio0"},
	})
	require.NoError(t, err)

	ctrl, err := diag.NewController(topo, diag.Options{
		EventBufferSize: 16,
		ChatterWindowMS: 50,
		ChatterBurst:    3,
	})
	require.NoError(t, err)

	return NewDispatcher(ctrl, reader, "gpiochip0"), ctrl
}

func TestDispatchEmptyRequest(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)

	resp := d.Dispatch(Request{})
	assert.Equal(t, KindError, resp.Kind)
	require.NotNil(t, resp.Error)
	assert.NotEmpty(t, resp.Error.Message)
}

func TestDispatchMonitoringLifecycle(t *testing.T) {
	d, ctrl := newTestDispatcher(t, nil)

	resp := d.Dispatch(Request{Resume: &ResumeRequest{ChatterThresholdMS: 75}})
	require.Equal(t, KindStartMonitoring, resp.Kind)
	assert.True(t, resp.StartMonitoring.Success)
	assert.Equal(t, 4, resp.StartMonitoring.GpioCount)
	assert.True(t, ctrl.IsMonitoring())
	assert.Equal(t, uint64(75), ctrl.Config().ChatterWindowMS)

	resp = d.Dispatch(Request{StopMonitoring: &StopMonitoringRequest{}})
	require.Equal(t, KindStopMonitoring, resp.Kind)
	assert.True(t, resp.StopMonitoring.Success)
	assert.False(t, ctrl.IsMonitoring())
}

func TestDispatchStartFreshClears(t *testing.T) {
	d, ctrl := newTestDispatcher(t, nil)
	ctrl.Resume(0)
	ctrl.Ingest(0, 1, true, 10)
	require.Equal(t, uint64(1), ctrl.TotalEvents())

	resp := d.Dispatch(Request{StartFresh: &StartFreshRequest{}})
	require.Equal(t, KindStartMonitoring, resp.Kind)
	assert.True(t, resp.StartMonitoring.Success)
	assert.Zero(t, ctrl.TotalEvents())
}

func TestDispatchGetState(t *testing.T) {
	d, ctrl := newTestDispatcher(t, nil)
	ctrl.Resume(0)
	ctrl.Ingest(0, 1, true, 10)
	ctrl.Ingest(0, 1, false, 20)

	resp := d.Dispatch(Request{GetState: &GetStateRequest{}})
	require.Equal(t, KindState, resp.Kind)
	require.NotNil(t, resp.State)
	assert.True(t, resp.State.MonitoringActive)
	assert.Equal(t, uint64(2), resp.State.TotalEvents)
	assert.Len(t, resp.State.RecentEvents, 2)
	assert.Len(t, resp.State.GpioPins, 4)
	assert.Len(t, resp.State.Lines, 4)
}

func TestDispatchEventsAndClear(t *testing.T) {
	d, ctrl := newTestDispatcher(t, nil)
	ctrl.Resume(0)
	for i := 0; i < 5; i++ {
		ctrl.Ingest(0, 1, i%2 == 0, uint64(i*100))
	}

	resp := d.Dispatch(Request{GetEvents: &GetEventsRequest{ClearBuffer: true}})
	require.Equal(t, KindEvents, resp.Kind)
	assert.Len(t, resp.Events.Events, 5)
	assert.Equal(t, uint64(5), resp.Events.TotalEvents)

	resp = d.Dispatch(Request{GetEvents: &GetEventsRequest{}})
	assert.Empty(t, resp.Events.Events)
	assert.Equal(t, uint64(5), resp.Events.TotalEvents, "the lifetime counter survives a buffer clear")
}

func TestDispatchConfigureChattering(t *testing.T) {
	d, ctrl := newTestDispatcher(t, nil)

	resp := d.Dispatch(Request{ConfigureChattering: &ConfigureChatteringRequest{
		WindowMS:       120,
		BurstThreshold: 5,
	}})
	require.Equal(t, KindConfigureChattering, resp.Kind)
	assert.True(t, resp.ConfigureChattering.Success)

	cfg := ctrl.Config()
	assert.Equal(t, uint64(120), cfg.ChatterWindowMS)
	assert.Equal(t, uint32(5), cfg.ChatterBurst)
}

func TestDispatchChatteringAlerts(t *testing.T) {
	d, ctrl := newTestDispatcher(t, nil)
	ctrl.Resume(0)
	for _, ts := range []uint64{0, 10, 20} {
		ctrl.Ingest(1, 0, true, ts)
	}

	resp := d.Dispatch(Request{GetChatteringAlerts: &GetChatteringAlertsRequest{ClearAlerts: true}})
	require.Equal(t, KindChatteringAlerts, resp.Kind)
	require.Len(t, resp.ChatteringAlerts.Alerts, 1)
	assert.Equal(t, uint32(1), resp.ChatteringAlerts.Alerts[0].Row)

	resp = d.Dispatch(Request{GetChatteringAlerts: &GetChatteringAlertsRequest{}})
	assert.Empty(t, resp.ChatteringAlerts.Alerts)
}

func TestDispatchKscanConfig(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)

	resp := d.Dispatch(Request{GetKscanConfig: &GetKscanConfigRequest{}})
	require.Equal(t, KindKscanConfig, resp.Kind)
	assert.Equal(t, 4, resp.KscanConfig.MatrixRows)
	assert.Equal(t, 4, resp.KscanConfig.MatrixCols)
	assert.Equal(t, 12, resp.KscanConfig.KeyCount)
	assert.True(t, resp.KscanConfig.Multiplexed)
	assert.Len(t, resp.KscanConfig.GpioPins, 4)
}

func TestDispatchKeyMatrix(t *testing.T) {
	d, ctrl := newTestDispatcher(t, nil)
	ctrl.Resume(0)
	ctrl.Ingest(0, 1, true, 10)

	resp := d.Dispatch(Request{GetKeyMatrix: &GetKeyMatrixRequest{}})
	require.Equal(t, KindKeyMatrix, resp.Kind)
	require.Len(t, resp.KeyMatrix.Keys, 12)

	var seen int
	for _, k := range resp.KeyMatrix.Keys {
		assert.GreaterOrEqual(t, k.DriveLine, int32(0))
		assert.GreaterOrEqual(t, k.SenseLine, int32(0))
		if !k.NeverSeen {
			seen++
			assert.Equal(t, uint32(0), k.Row)
			assert.Equal(t, uint32(1), k.Col)
		}
	}
	assert.Equal(t, 1, seen)
}

func TestDispatchTestGpioPin(t *testing.T) {
	fake := gpio.NewFakeReader(map[string]map[uint32]bool{
		"gpio0": {3: true},
	})
	d, _ := newTestDispatcher(t, fake)

	resp := d.Dispatch(Request{TestGpioPin: &TestGpioPinRequest{GpioIndex: 1}})
	require.Equal(t, KindTestGpioPin, resp.Kind)
	assert.True(t, resp.TestGpioPin.Success)
	assert.True(t, resp.TestGpioPin.PinState)
	assert.Equal(t, 1, fake.Reads)

	resp = d.Dispatch(Request{TestGpioPin: &TestGpioPinRequest{GpioIndex: 0}})
	assert.True(t, resp.TestGpioPin.Success)
	assert.False(t, resp.TestGpioPin.PinState, "unscripted pins read low")
}

func TestDispatchTestGpioPinOutOfRange(t *testing.T) {
	fake := gpio.NewFakeReader(nil)
	d, ctrl := newTestDispatcher(t, fake)
	ctrl.Resume(0)
	ctrl.Ingest(0, 1, true, 10)
	before := ctrl.TotalEvents()

	resp := d.Dispatch(Request{TestGpioPin: &TestGpioPinRequest{GpioIndex: 99}})
	require.Equal(t, KindTestGpioPin, resp.Kind)
	assert.False(t, resp.TestGpioPin.Success)
	assert.NotEmpty(t, resp.TestGpioPin.ErrorMessage)
	assert.Zero(t, fake.Reads, "out-of-range index never reaches the hardware")
	assert.Equal(t, before, ctrl.TotalEvents(), "a failed pin test leaves counters alone")
}

func TestDispatchTestGpioPinReadFailure(t *testing.T) {
	fake := gpio.NewFakeReader(nil)
	fake.ReadError = errors.New("line busy")
	d, _ := newTestDispatcher(t, fake)

	resp := d.Dispatch(Request{TestGpioPin: &TestGpioPinRequest{GpioIndex: 0}})
	require.Equal(t, KindTestGpioPin, resp.Kind)
	assert.False(t, resp.TestGpioPin.Success)
	assert.Contains(t, resp.TestGpioPin.ErrorMessage, "line busy")
}

func TestDispatchWithoutController(t *testing.T) {
	d := NewDispatcher(nil, gpio.NewFakeReader(nil), "gpiochip0")

	resp := d.Dispatch(Request{Resume: &ResumeRequest{}})
	require.Equal(t, KindStartMonitoring, resp.Kind)
	assert.False(t, resp.StartMonitoring.Success)

	resp = d.Dispatch(Request{GetState: &GetStateRequest{}})
	assert.Equal(t, KindError, resp.Kind)

	resp = d.Dispatch(Request{TestGpioPin: &TestGpioPinRequest{GpioIndex: 0}})
	require.Equal(t, KindTestGpioPin, resp.Kind)
	assert.False(t, resp.TestGpioPin.Success)
	assert.NotEmpty(t, resp.TestGpioPin.ErrorMessage)
}
