package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/soil-irrigator/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	BootID        string      `json:"boot_id"`
	Ready         bool        `json:"ready"`
	Pump          PumpJSON    `json:"pump"`
	Reading       ReadingJSON `json:"reading"`
	EstimateS     float64     `json:"estimate_s"`
	Loop          LoopJSON    `json:"loop"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"event_counts"`
	Config        ConfigJSON  `json:"config"`
}

// PumpJSON is the pump machine state.
type PumpJSON struct {
	State     string  `json:"state"`
	Saturated bool    `json:"saturated"`
	CycleCapS float64 `json:"cycle_cap_s"`
	RuntimeS  float64 `json:"runtime_s"`
	StartedAt string  `json:"started_at,omitempty"`
	LastStop  string  `json:"last_stop,omitempty"`
}

// ReadingJSON is the last accepted reading.
type ReadingJSON struct {
	Raw          int     `json:"raw"`
	Moisture     int     `json:"moisture"`
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	RainMM       float64 `json:"rain_mm"`
}

// LoopJSON reports iteration health.
type LoopJSON struct {
	Iteration           int64  `json:"iteration"`
	LastOutcome         string `json:"last_outcome,omitempty"`
	LastError           string `json:"last_error,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	Restarts            int    `json:"restarts"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	PumpOn     int `json:"pump_on"`
	PumpOff    int `json:"pump_off"`
	Saturation int `json:"saturation"`
	TimeCap    int `json:"time_cap"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Profile       string  `json:"profile"`
	PeriodMs      int64   `json:"period_ms"`
	RecoveryMs    int64   `json:"recovery_ms"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	MinRestS      float64 `json:"min_rest_s"`
	MaxRunS       float64 `json:"max_run_s"`
	FailThreshold int     `json:"failure_threshold"`
	Broker        string  `json:"broker"`
	HTTPAddr      string  `json:"http_addr"`
}

func formatTimer(t logic.Timer) string {
	at, ok := t.Get()
	if !ok {
		return ""
	}
	return at.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Pump.State)
	if state == "" {
		state = string(logic.PumpOff)
	}

	return StatusInner{
		BootID: snap.BootID,
		Ready:  snap.Ready,
		Pump: PumpJSON{
			State:     state,
			Saturated: snap.Pump.Saturated,
			CycleCapS: snap.Pump.CycleCap.Seconds(),
			RuntimeS:  snap.Pump.Runtime.Seconds(),
			StartedAt: formatTimer(snap.Pump.StartedAt),
			LastStop:  formatTimer(snap.Pump.LastStop),
		},
		Reading: ReadingJSON{
			Raw:          snap.Reading.Raw,
			Moisture:     snap.Reading.Moisture,
			TemperatureC: snap.Reading.TemperatureC,
			HumidityPct:  snap.Reading.HumidityPct,
			RainMM:       snap.Reading.RainMM,
		},
		EstimateS: snap.Estimate,
		Loop: LoopJSON{
			Iteration:           snap.Iteration,
			LastOutcome:         snap.LastOutcome,
			LastError:           snap.LastError,
			ConsecutiveFailures: snap.ConsecutiveFailures,
			Restarts:            snap.Restarts,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PumpOn:     snap.Pump.Counts.PumpOn,
			PumpOff:    snap.Pump.Counts.PumpOff,
			Saturation: snap.Pump.Counts.Saturation,
			TimeCap:    snap.Pump.Counts.TimeCap,
		},
		Config: ConfigJSON{
			Profile:       snap.Config.Profile,
			PeriodMs:      snap.Config.PeriodMs,
			RecoveryMs:    snap.Config.RecoveryMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			MinRestS:      snap.Config.MinRestS,
			MaxRunS:       snap.Config.MaxRunS,
			FailThreshold: snap.Config.FailThreshold,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
