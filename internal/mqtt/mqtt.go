// Package mqtt publishes pump and lifecycle events with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/soil-irrigator/internal/logic"
)

// DefaultTopicPrefix roots every topic.
const DefaultTopicPrefix = "irrigation"

// Topics are the MQTT topics used by the daemon.
type Topics struct {
	Events string // pump transitions
	System string // lifecycle events, retained LWT
}

// NewTopics derives the topics from a prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{
		Events: prefix + "/pump/events",
		System: prefix + "/system",
	}
}

// System event names.
const (
	EventStartup   = "STARTUP"
	EventShutdown  = "SHUTDOWN"
	EventHeartbeat = "HEARTBEAT"
	EventRestart   = "RESTART"
	EventOffline   = "OFFLINE"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a pump transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.PumpEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a lifecycle event (startup, shutdown, heartbeat, restart).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM" on shutdown, the failing error on restart
	BootID     string
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the pump event message.
type Payload struct {
	Pump PumpPayload `json:"pump"`
}

// PumpPayload contains the pump transition details. Moisture is omitted
// when the transition happened without a trusted reading.
type PumpPayload struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Reason    string  `json:"reason,omitempty"`
	Moisture  *int    `json:"moisture,omitempty"`
	CycleCapS float64 `json:"cycle_cap_s"`
	RuntimeS  float64 `json:"runtime_s"`
}

// FormatPayload creates the JSON payload for a pump event.
func FormatPayload(event logic.PumpEvent) ([]byte, error) {
	p := PumpPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Reason:    string(event.Reason),
		CycleCapS: event.CycleCap.Seconds(),
		RuntimeS:  event.Runtime.Seconds(),
	}
	if event.Moisture >= 0 {
		m := event.Moisture
		p.Moisture = &m
	}
	return json.Marshal(Payload{Pump: p})
}

// SystemPayload is the message for simple lifecycle events (LWT, restart)
// that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	BootID    string `json:"boot_id,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			BootID:    event.BootID,
		},
	}
	return json.Marshal(payload)
}
