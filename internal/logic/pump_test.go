package logic

import (
	"testing"
	"time"
)

var lettuceTarget = Band{60, 65}

func testPumpParams() PumpParams {
	p := DefaultPumpParams
	p.MaxRun = 120 * time.Second
	return p
}

func startPump(t *testing.T, p *Pump, now time.Time) *PumpEvent {
	t.Helper()
	ev := p.Step(now, 40, 200)
	if ev == nil || ev.Type != EventPumpOn {
		t.Fatalf("expected PUMP_ON, got %+v", ev)
	}
	return ev
}

func TestPumpStartsWhenDryAndEstimateHigh(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(DefaultPumpParams, lettuceTarget)

	ev := startPump(t, p, t0)
	if ev.CycleCap != 30*time.Second {
		t.Errorf("cycle cap: got %v, want 30s (max run)", ev.CycleCap)
	}
	if ev.Moisture != 40 {
		t.Errorf("moisture: got %d, want 40", ev.Moisture)
	}
	if p.State() != PumpOn {
		t.Errorf("state: got %v, want ON", p.State())
	}
}

func TestPumpDoesNotStart(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		moisture int
		estimate float64
	}{
		{"estimate below minimum", 40, 99},
		{"moisture at target low", 60, 500},
		{"moisture above target", 70, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPump(DefaultPumpParams, lettuceTarget)
			if ev := p.Step(t0, tt.moisture, tt.estimate); ev != nil {
				t.Errorf("expected no transition, got %+v", ev)
			}
			if p.State() != PumpOff {
				t.Errorf("state: got %v, want OFF", p.State())
			}
		})
	}
}

func TestPumpCycleCapFromEstimate(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(testPumpParams(), lettuceTarget)

	ev := p.Step(t0, 40, 100.5)
	if ev == nil {
		t.Fatal("expected start")
	}
	if ev.CycleCap != 100500*time.Millisecond {
		t.Errorf("cycle cap: got %v, want 100.5s", ev.CycleCap)
	}
}

func TestPumpTimeCapStop(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(DefaultPumpParams, lettuceTarget)
	startPump(t, p, t0)

	if ev := p.Step(t0.Add(27*time.Second), 45, 200); ev != nil {
		t.Fatalf("should still run at 27s, got %+v", ev)
	}

	ev := p.Step(t0.Add(54*time.Second), 50, 200)
	if ev == nil || ev.Type != EventPumpOff {
		t.Fatalf("expected PUMP_OFF, got %+v", ev)
	}
	if ev.Reason != StopTimeCap {
		t.Errorf("reason: got %q, want %q", ev.Reason, StopTimeCap)
	}
	if ev.Runtime != 30*time.Second {
		t.Errorf("runtime: got %v, want 30s (the cap)", ev.Runtime)
	}

	snap := p.Snapshot()
	if snap.Saturated {
		t.Error("time cap stop should clear saturation")
	}
	if !snap.LastStop.IsSet() || snap.StartedAt.IsSet() {
		t.Errorf("timers after stop: last=%v started=%v", snap.LastStop, snap.StartedAt)
	}
	if snap.Counts.TimeCap != 1 || snap.Counts.PumpOff != 1 || snap.Counts.PumpOn != 1 {
		t.Errorf("counts: %+v", snap.Counts)
	}
}

func TestPumpMinimumRest(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(DefaultPumpParams, lettuceTarget)
	startPump(t, p, t0)

	stopAt := t0.Add(30 * time.Second)
	if ev := p.Step(stopAt, 40, 200); ev == nil || ev.Type != EventPumpOff {
		t.Fatalf("expected stop, got %+v", ev)
	}

	if ev := p.Step(stopAt.Add(100*time.Second), 10, 600); ev != nil {
		t.Errorf("should rest: got %+v", ev)
	}
	if ev := p.Step(stopAt.Add(300*time.Second), 10, 600); ev != nil {
		t.Errorf("rest must strictly exceed minimum: got %+v", ev)
	}
	if ev := p.Step(stopAt.Add(301*time.Second), 10, 600); ev == nil || ev.Type != EventPumpOn {
		t.Errorf("expected restart after rest, got %+v", ev)
	}
}

func TestPumpRuntimeAccumulatesAcrossTimeCaps(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(DefaultPumpParams, lettuceTarget)

	now := t0
	for i := 1; i <= 3; i++ {
		startPump(t, p, now)
		now = now.Add(30 * time.Second)
		ev := p.Step(now, 40, 200)
		if ev == nil || ev.Reason != StopTimeCap {
			t.Fatalf("cycle %d: expected time cap stop, got %+v", i, ev)
		}
		if want := time.Duration(i) * 30 * time.Second; ev.Runtime != want {
			t.Errorf("cycle %d runtime: got %v, want %v", i, ev.Runtime, want)
		}
		now = now.Add(301 * time.Second)
	}
}

func TestPumpSaturationStop(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(testPumpParams(), lettuceTarget)
	startPump(t, p, t0)

	if ev := p.Step(t0.Add(10*time.Second), 66, 0); ev != nil {
		t.Fatalf("first high reading should only arm the dwell, got %+v", ev)
	}
	if ev := p.Step(t0.Add(30*time.Second), 67, 0); ev != nil {
		t.Fatalf("dwell not elapsed, got %+v", ev)
	}

	ev := p.Step(t0.Add(40*time.Second), 68, 0)
	if ev == nil || ev.Reason != StopSaturation {
		t.Fatalf("expected saturation stop, got %+v", ev)
	}
	if ev.Runtime != 40*time.Second {
		t.Errorf("runtime: got %v, want 40s", ev.Runtime)
	}

	snap := p.Snapshot()
	if !snap.Saturated {
		t.Error("saturation flag should be set")
	}
	if snap.Runtime != 0 {
		t.Errorf("accumulated runtime should reset, got %v", snap.Runtime)
	}
	if snap.Counts.Saturation != 1 {
		t.Errorf("saturation count: got %d, want 1", snap.Counts.Saturation)
	}
}

func TestPumpSaturationDwellResetsOnDip(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(testPumpParams(), lettuceTarget)
	startPump(t, p, t0)

	p.Step(t0.Add(5*time.Second), 70, 0)
	p.Step(t0.Add(20*time.Second), 55, 0) // dip resets the dwell
	p.Step(t0.Add(30*time.Second), 70, 0)

	if ev := p.Step(t0.Add(50*time.Second), 70, 0); ev != nil {
		t.Fatalf("dwell restarted at 30s; 20s held should not stop, got %+v", ev)
	}
	ev := p.Step(t0.Add(60*time.Second), 70, 0)
	if ev == nil || ev.Reason != StopSaturation {
		t.Fatalf("expected saturation stop at 60s, got %+v", ev)
	}
}

func TestPumpSaturationWinsOverTimeCap(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(DefaultPumpParams, lettuceTarget) // cap 30s == dwell 30s
	startPump(t, p, t0)

	p.Step(t0, 70, 0)
	ev := p.Step(t0.Add(30*time.Second), 70, 0)
	if ev == nil || ev.Reason != StopSaturation {
		t.Fatalf("expected saturation stop, got %+v", ev)
	}
}

func TestPumpPostSaturationPolicy(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(testPumpParams(), lettuceTarget)
	startPump(t, p, t0)
	p.Step(t0.Add(time.Second), 70, 0)
	if ev := p.Step(t0.Add(31*time.Second), 70, 0); ev == nil || ev.Reason != StopSaturation {
		t.Fatalf("expected saturation stop, got %+v", ev)
	}

	later := t0.Add(time.Hour)
	if ev := p.Step(later, 45, 500); ev != nil {
		t.Errorf("moisture above rearm level should not start, got %+v", ev)
	}
	if ev := p.Step(later, 25, 50); ev != nil {
		t.Errorf("estimate below rearm minimum should not start, got %+v", ev)
	}
	ev := p.Step(later, 30, 150)
	if ev == nil || ev.Type != EventPumpOn {
		t.Fatalf("expected restart under post-saturation policy, got %+v", ev)
	}
	if p.Snapshot().Saturated {
		t.Error("start should clear saturation flag")
	}
}

func TestPumpEnforceCap(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(DefaultPumpParams, lettuceTarget)

	if ev := p.EnforceCap(t0); ev != nil {
		t.Errorf("idle pump: got %+v", ev)
	}

	startPump(t, p, t0)
	p.Step(t0.Add(5*time.Second), 70, 0)
	if ev := p.EnforceCap(t0.Add(10 * time.Second)); ev != nil {
		t.Errorf("before cap: got %+v", ev)
	}
	if p.Snapshot().HighSince.IsSet() {
		t.Error("EnforceCap should restart the saturation dwell")
	}

	ev := p.EnforceCap(t0.Add(31 * time.Second))
	if ev == nil || ev.Reason != StopTimeCap {
		t.Fatalf("expected time cap stop, got %+v", ev)
	}
	if ev.Moisture != -1 {
		t.Errorf("moisture: got %d, want -1", ev.Moisture)
	}
}

func TestCycleCap(t *testing.T) {
	if got := CycleCap(12.5, 30*time.Second); got != 12500*time.Millisecond {
		t.Errorf("got %v, want 12.5s", got)
	}
	if got := CycleCap(500, 30*time.Second); got != 30*time.Second {
		t.Errorf("got %v, want 30s", got)
	}
	if got := CycleCap(0, 30*time.Second); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestPumpHalt(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(DefaultPumpParams, lettuceTarget)

	if ev := p.Halt(t0, StopShutdown); ev != nil {
		t.Errorf("idle pump: got %+v", ev)
	}

	startPump(t, p, t0)
	ev := p.Halt(t0.Add(12*time.Second), StopRestart)
	if ev == nil || ev.Type != EventPumpOff || ev.Reason != StopRestart {
		t.Fatalf("expected restart stop, got %+v", ev)
	}
	if ev.Runtime != 12*time.Second {
		t.Errorf("runtime: got %v, want 12s", ev.Runtime)
	}
	if p.State() != PumpOff {
		t.Error("pump should be off")
	}
	snap := p.Snapshot()
	if snap.Counts.TimeCap != 0 || snap.Counts.Saturation != 0 || snap.Counts.PumpOff != 1 {
		t.Errorf("halt should only count as an off transition: %+v", snap.Counts)
	}
	if p.Rested(t0.Add(13 * time.Second)) {
		t.Error("halt should start the rest period")
	}
}

func TestPumpRemaining(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPump(DefaultPumpParams, lettuceTarget)

	if _, ok := p.Remaining(t0); ok {
		t.Fatal("an idle pump has no remaining run")
	}

	startPump(t, p, t0)
	if left, ok := p.Remaining(t0.Add(27 * time.Second)); !ok || left != 3*time.Second {
		t.Errorf("remaining at +27s: got %v/%v, want 3s", left, ok)
	}
	if left, ok := p.Remaining(t0.Add(45 * time.Second)); !ok || left != 0 {
		t.Errorf("remaining past the cap: got %v/%v, want 0", left, ok)
	}

	p.Step(t0.Add(30*time.Second), 40, 200)
	if _, ok := p.Remaining(t0.Add(31 * time.Second)); ok {
		t.Error("a stopped pump has no remaining run")
	}
}
