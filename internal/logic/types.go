// Package logic contains the pure decision engine for the soil irrigator.
// This package has NO external dependencies (no GPIO, I2C, HTTP, MQTT, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// PumpState represents the logical state of the pump relay.
type PumpState string

const (
	PumpOff PumpState = "OFF"
	PumpOn  PumpState = "ON"
)

// On reports whether the state drives the relay on.
func (s PumpState) On() bool {
	return s == PumpOn
}

// EventType represents a pump transition event.
type EventType string

const (
	EventPumpOn  EventType = "PUMP_ON"
	EventPumpOff EventType = "PUMP_OFF"
)

// StopReason explains why an irrigation cycle ended.
type StopReason string

const (
	StopNone       StopReason = ""
	StopTimeCap    StopReason = "time_cap"
	StopSaturation StopReason = "saturation"
	StopShutdown   StopReason = "shutdown"
	StopRestart    StopReason = "restart"
)

// PumpEvent represents a pump transition to be published.
type PumpEvent struct {
	Timestamp time.Time
	Type      EventType
	Reason    StopReason
	Moisture  int
	// CycleCap is the run length granted to the cycle (start events)
	// or the cap that was in force (stop events).
	CycleCap time.Duration
	// Runtime is the accumulated pump runtime after the transition.
	// On a saturation stop it carries the total applied before the reset.
	Runtime time.Duration
}

// Reading is one iteration's conditioned sensor input.
type Reading struct {
	Raw          int
	Moisture     int
	TemperatureC float64
	HumidityPct  float64
	RainMM       float64
}

// RainUnknown is the forecast sentinel meaning "no forecast available".
// It is distinct from a legitimate 0 mm forecast.
const RainUnknown = -1.0

// EventCounts tracks the number of pump transitions since startup.
type EventCounts struct {
	PumpOn     int
	PumpOff    int
	Saturation int
	TimeCap    int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
