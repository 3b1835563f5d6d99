package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sweeney/soil-irrigator/internal/log"
	"github.com/sweeney/soil-irrigator/internal/logic"
)

func TestNewTopics(t *testing.T) {
	got := NewTopics("garden/bed1")
	if got.Events != "garden/bed1/pump/events" {
		t.Errorf("events topic: got %s", got.Events)
	}
	if got.System != "garden/bed1/system" {
		t.Errorf("system topic: got %s", got.System)
	}
	if NewTopics("").System != "irrigation/system" {
		t.Errorf("default prefix not applied: %+v", NewTopics(""))
	}
}

func TestFormatPayloadPumpOn(t *testing.T) {
	event := logic.PumpEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Type:      logic.EventPumpOn,
		Moisture:  22,
		CycleCap:  30 * time.Second,
		Runtime:   60 * time.Second,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"pump":{"timestamp":"2026-01-01T12:00:00Z","event":"PUMP_ON","moisture":22,"cycle_cap_s":30,"runtime_s":60}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadStopReasons(t *testing.T) {
	tests := []struct {
		reason logic.StopReason
		want   string
	}{
		{logic.StopTimeCap, "time_cap"},
		{logic.StopSaturation, "saturation"},
	}
	for _, tt := range tests {
		payload, err := FormatPayload(logic.PumpEvent{
			Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
			Type:      logic.EventPumpOff,
			Reason:    tt.reason,
			Moisture:  70,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var parsed Payload
		if err := json.Unmarshal(payload, &parsed); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if parsed.Pump.Event != "PUMP_OFF" || parsed.Pump.Reason != tt.want {
			t.Errorf("got %s/%s, want PUMP_OFF/%s", parsed.Pump.Event, parsed.Pump.Reason, tt.want)
		}
	}
}

func TestFormatPayloadOmitsUnknownMoisture(t *testing.T) {
	payload, err := FormatPayload(logic.PumpEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Type:      logic.EventPumpOff,
		Reason:    logic.StopTimeCap,
		Moisture:  -1,
		CycleCap:  30 * time.Second,
		Runtime:   30 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["pump"]["moisture"]; ok {
		t.Errorf("moisture should be omitted: %s", payload)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	payload, _ := FormatPayload(logic.PumpEvent{
		Timestamp: time.Date(2026, 1, 1, 9, 0, 0, 0, loc),
		Type:      logic.EventPumpOn,
	})
	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Pump.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Pump.Timestamp)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     EventOffline,
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"OFFLINE","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRestart(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     EventRestart,
		Reason:    "5 consecutive failures",
		BootID:    "b-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "RESTART" || parsed.System.BootID != "b-1" {
		t.Errorf("unexpected payload: %s", payload)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"custom":true}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: EventHeartbeat, RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("got %s, want %s", payload, raw)
	}
}

func TestFakePublisherRecordsInOrder(t *testing.T) {
	f := NewFakePublisher()

	f.Publish(logic.PumpEvent{Type: logic.EventPumpOn})
	f.PublishSystem(SystemEvent{Event: EventStartup})
	f.Publish(logic.PumpEvent{Type: logic.EventPumpOff, Reason: logic.StopTimeCap})
	f.PublishSystem(SystemEvent{Event: EventShutdown, Reason: "SIGTERM"})

	events := f.PumpEvents()
	if len(events) != 2 || events[0].Type != logic.EventPumpOn || events[1].Type != logic.EventPumpOff {
		t.Errorf("unexpected pump events: %+v", events)
	}
	names := f.SystemEventNames()
	if len(names) != 2 || names[0] != EventStartup || names[1] != EventShutdown {
		t.Errorf("unexpected system events: %v", names)
	}
	if len(f.Payloads) != 2 || len(f.SystemPayloads) != 2 {
		t.Errorf("payloads not recorded: %d/%d", len(f.Payloads), len(f.SystemPayloads))
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(logic.PumpEvent{}); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected publish system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherClose(t *testing.T) {
	f := NewFakePublisher()
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakePublisherImplementsInterfaces(t *testing.T) {
	var _ Publisher = NewFakePublisher()
	var _ ConnectionStatus = NewFakePublisher()
	var _ Publisher = (*RealPublisher)(nil)
	var _ ConnectionStatus = (*RealPublisher)(nil)
	var _ Publisher = LogPublisher{}
}

func TestLogPublisherLogsPayloads(t *testing.T) {
	prev := log.Logger()
	t.Cleanup(func() { log.Set(prev) })
	core, logs := observer.New(zapcore.DebugLevel)
	log.Set(zap.New(core))

	var p LogPublisher
	ev := logic.PumpEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Type:      logic.EventPumpOn,
		Moisture:  40,
		CycleCap:  30 * time.Second,
	}
	if err := p.Publish(ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Timestamp: ev.Timestamp, Event: EventStartup}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	payload, _ := entries[0].ContextMap()["payload"].(string)
	var decoded Payload
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.Pump.Event != "PUMP_ON" {
		t.Errorf("event: got %q, want PUMP_ON", decoded.Pump.Event)
	}
	if entries[1].ContextMap()["event"] != EventStartup {
		t.Errorf("system event: got %v", entries[1].ContextMap()["event"])
	}
}
