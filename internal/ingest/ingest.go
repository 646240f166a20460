// Package ingest bridges the host event bus to the diagnostics engine.
// It subscribes to the transitions topic and forwards decoded events to
// the controller; undecodable payloads are logged and dropped, never
// surfaced, since the producer cannot act on a diagnostic error.
package ingest

import (
	"encoding/json"

	"codeberg.org/mutker/kscand/internal/logger"
)

// Sink consumes decoded transition events. Satisfied by diag.Controller.
type Sink interface {
	Ingest(row, col uint32, pressed bool, timestampMS uint64)
}

// Transition is the wire form of one key transition on the event bus.
type Transition struct {
	Row         uint32 `json:"row"`
	Col         uint32 `json:"col"`
	Pressed     bool   `json:"pressed"`
	TimestampMS uint64 `json:"timestamp_ms"`
}

// Decode parses a transition payload.
func Decode(payload []byte) (Transition, error) {
	var t Transition
	err := json.Unmarshal(payload, &t)
	return t, err
}

// Forward decodes one payload and feeds it to the sink. Returns false if
// the payload was dropped.
func Forward(sink Sink, payload []byte) bool {
	t, err := Decode(payload)
	if err != nil {
		logger.Warn().Str("error", err.Error()).Msg("Dropping undecodable transition event")
		return false
	}
	sink.Ingest(t.Row, t.Col, t.Pressed, t.TimestampMS)
	return true
}
