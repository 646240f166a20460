// Package rpc models the diagnostics request/response protocol: a closed
// set of request kinds, one response per request, and a single dispatcher
// shared by every transport.
package rpc

// Request is the closed request union. Exactly one field must be set;
// anything else is answered with an ErrorResponse.
type Request struct {
	Resume              *ResumeRequest              `json:"start_monitoring,omitempty"`
	StartFresh          *StartFreshRequest          `json:"start_fresh,omitempty"`
	StopMonitoring      *StopMonitoringRequest      `json:"stop_monitoring,omitempty"`
	GetState            *GetStateRequest            `json:"get_state,omitempty"`
	ClearData           *ClearDataRequest           `json:"clear_data,omitempty"`
	GetKscanConfig      *GetKscanConfigRequest      `json:"get_kscan_config,omitempty"`
	GetEvents           *GetEventsRequest           `json:"get_events,omitempty"`
	ConfigureChattering *ConfigureChatteringRequest `json:"configure_chattering,omitempty"`
	GetChatteringAlerts *GetChatteringAlertsRequest `json:"get_chattering_alerts,omitempty"`
	TestGpioPin         *TestGpioPinRequest         `json:"test_gpio_pin,omitempty"`
	GetKeyMatrix        *GetKeyMatrixRequest        `json:"get_key_matrix,omitempty"`
}

// ResumeRequest starts monitoring, retaining existing data.
// A zero threshold keeps the current chatter window.
type ResumeRequest struct {
	ChatterThresholdMS uint64 `json:"chatter_threshold_ms"`
}

// StartFreshRequest clears all diagnostic data, then starts monitoring.
type StartFreshRequest struct {
	ChatterThresholdMS uint64 `json:"chatter_threshold_ms"`
}

type StopMonitoringRequest struct{}

type GetStateRequest struct{}

type ClearDataRequest struct{}

type GetKscanConfigRequest struct{}

type GetEventsRequest struct {
	ClearBuffer bool `json:"clear_buffer"`
}

// ConfigureChatteringRequest updates detection parameters; zero values
// leave the corresponding parameter unchanged.
type ConfigureChatteringRequest struct {
	WindowMS       uint64 `json:"window_ms"`
	BurstThreshold uint32 `json:"burst_threshold"`
}

type GetChatteringAlertsRequest struct {
	ClearAlerts bool `json:"clear_alerts"`
}

type TestGpioPinRequest struct {
	GpioIndex uint32 `json:"gpio_index"`
}

type GetKeyMatrixRequest struct{}

// Response carries exactly one result, tagged by Kind.
type Response struct {
	Kind ResponseKind `json:"kind"`

	StartMonitoring     *StartMonitoringResponse     `json:"start_monitoring,omitempty"`
	StopMonitoring      *StopMonitoringResponse      `json:"stop_monitoring,omitempty"`
	State               *StateResponse               `json:"state,omitempty"`
	ClearData           *ClearDataResponse           `json:"clear_data,omitempty"`
	KscanConfig         *KscanConfigResponse         `json:"kscan_config,omitempty"`
	Events              *EventsResponse              `json:"events,omitempty"`
	ConfigureChattering *ConfigureChatteringResponse `json:"configure_chattering,omitempty"`
	ChatteringAlerts    *ChatteringAlertsResponse    `json:"chattering_alerts,omitempty"`
	TestGpioPin         *TestGpioPinResponse         `json:"test_gpio_pin,omitempty"`
	KeyMatrix           *KeyMatrixResponse           `json:"key_matrix,omitempty"`
	Error               *ErrorResponse               `json:"error,omitempty"`
}

// ResponseKind tags the variant carried by a Response.
type ResponseKind string

const (
	KindStartMonitoring     ResponseKind = "start_monitoring"
	KindStopMonitoring      ResponseKind = "stop_monitoring"
	KindState               ResponseKind = "state"
	KindClearData           ResponseKind = "clear_data"
	KindKscanConfig         ResponseKind = "kscan_config"
	KindEvents              ResponseKind = "events"
	KindConfigureChattering ResponseKind = "configure_chattering"
	KindChatteringAlerts    ResponseKind = "chattering_alerts"
	KindTestGpioPin         ResponseKind = "test_gpio_pin"
	KindKeyMatrix           ResponseKind = "key_matrix"
	KindError               ResponseKind = "error"
)

type StartMonitoringResponse struct {
	Success   bool `json:"success"`
	GpioCount int  `json:"gpio_count"`
}

type StopMonitoringResponse struct {
	Success bool `json:"success"`
}

type ClearDataResponse struct {
	Success bool `json:"success"`
}

type ConfigureChatteringResponse struct {
	Success bool `json:"success"`
}

// EventJSON is the wire form of one transition event.
type EventJSON struct {
	Row         uint32 `json:"row"`
	Col         uint32 `json:"col"`
	Pressed     bool   `json:"pressed"`
	TimestampMS uint64 `json:"timestamp_ms"`
}

// ChatterAlertJSON is the wire form of one chatter alert.
type ChatterAlertJSON struct {
	Row          uint32 `json:"row"`
	Col          uint32 `json:"col"`
	EventCount   uint32 `json:"event_count"`
	ChatterCount uint32 `json:"chatter_count"`
	FirstEventMS uint64 `json:"first_event_ms"`
	LastEventMS  uint64 `json:"last_event_ms"`
}

// GpioPinJSON describes one scan line pin.
type GpioPinJSON struct {
	Index uint32 `json:"index"`
	Pin   uint32 `json:"pin"`
	Port  string `json:"port"`
}

// LineStatusJSON is the wire form of a derived line health summary.
type LineStatusJSON struct {
	Index          uint32 `json:"index"`
	Pin            uint32 `json:"pin"`
	Port           string `json:"port"`
	Activity       uint32 `json:"activity"`
	InvolvedKeys   uint32 `json:"involved_keys"`
	ChatterKeys    uint32 `json:"chatter_keys"`
	MissingKeys    uint32 `json:"missing_keys"`
	SuspectedFault bool   `json:"suspected_fault"`
}

type StateResponse struct {
	MonitoringActive bool               `json:"monitoring_active"`
	TotalEvents      uint64             `json:"total_events"`
	ChatterWindowMS  uint64             `json:"chatter_window_ms"`
	ChatterBurst     uint32             `json:"chatter_burst"`
	RecentEvents     []EventJSON        `json:"recent_events"`
	ChatterStats     []ChatterAlertJSON `json:"chatter_stats"`
	GpioPins         []GpioPinJSON      `json:"gpio_pins"`
	Lines            []LineStatusJSON   `json:"lines"`
}

type KscanConfigResponse struct {
	GpioPins    []GpioPinJSON `json:"gpio_pins"`
	MatrixRows  int           `json:"matrix_rows"`
	MatrixCols  int           `json:"matrix_cols"`
	KeyCount    int           `json:"key_count"`
	Multiplexed bool          `json:"multiplexed"`
}

type EventsResponse struct {
	Events      []EventJSON `json:"events"`
	Overflow    bool        `json:"overflow"`
	TotalEvents uint64      `json:"total_events"`
}

type ChatteringAlertsResponse struct {
	Alerts []ChatterAlertJSON `json:"alerts"`
}

type TestGpioPinResponse struct {
	Success      bool   `json:"success"`
	PinState     bool   `json:"pin_state"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// KeyMatrixEntryJSON is one entry of the full matrix dump.
type KeyMatrixEntryJSON struct {
	Position     int    `json:"position"`
	Row          uint32 `json:"row"`
	Col          uint32 `json:"col"`
	DriveLine    int32  `json:"drive_line"`
	SenseLine    int32  `json:"sense_line"`
	Pressed      bool   `json:"pressed"`
	NeverSeen    bool   `json:"never_seen"`
	PressCount   uint32 `json:"press_count"`
	ReleaseCount uint32 `json:"release_count"`
	ChatterCount uint32 `json:"chatter_count"`
	LastEventMS  uint64 `json:"last_event_ms"`
}

type KeyMatrixResponse struct {
	Keys []KeyMatrixEntryJSON `json:"keys"`
}

// ErrorResponse carries a human-readable failure message.
type ErrorResponse struct {
	Message string `json:"message"`
}
