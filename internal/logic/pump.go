package logic

import "time"

// PumpParams configures the pump duty cycle.
type PumpParams struct {
	// MinRest is the rest required after a stop before the next start.
	MinRest time.Duration
	// MaxRun is the hard safety ceiling of a single cycle.
	MaxRun time.Duration
	// SaturationDwell is how long moisture must stay continuously at or
	// above the target's upper edge before the pump stops on saturation.
	SaturationDwell time.Duration

	// "Needs water" policy: the estimate must reach StartMinEstimate seconds.
	StartMinEstimate float64
	// Post-saturation policy: moisture must fall to RearmMoisture and the
	// estimate must reach RearmMinEstimate seconds.
	RearmMoisture    int
	RearmMinEstimate float64
}

// DefaultPumpParams is a conservative duty cycle for a small pump.
var DefaultPumpParams = PumpParams{
	MinRest:          300 * time.Second,
	MaxRun:           30 * time.Second,
	SaturationDwell:  30 * time.Second,
	StartMinEstimate: 100,
	RearmMoisture:    30,
	RearmMinEstimate: 100,
}

// PumpSnapshot is a point-in-time copy of the pump machine.
type PumpSnapshot struct {
	State     PumpState
	StartedAt Timer
	LastStop  Timer
	HighSince Timer
	Saturated bool
	Runtime   time.Duration
	CycleCap  time.Duration
	Counts    EventCounts
}

// Pump is the duty-cycle state machine. It is owned by a single caller and
// is not safe for concurrent use.
type Pump struct {
	params PumpParams
	target Band

	state     PumpState
	startedAt Timer
	lastStop  Timer
	highSince Timer
	saturated bool
	runtime   time.Duration
	cycleCap  time.Duration
	counts    EventCounts
}

// NewPump creates an idle pump machine for the given target band.
func NewPump(params PumpParams, target Band) *Pump {
	return &Pump{
		params: params,
		target: target,
		state:  PumpOff,
	}
}

// Step advances the machine with one iteration's moisture and estimate.
// It returns the transition that occurred, or nil.
func (p *Pump) Step(now time.Time, moisture int, estimate float64) *PumpEvent {
	if p.state == PumpOn {
		return p.stepOn(now, moisture)
	}
	return p.stepOff(now, moisture, estimate)
}

func (p *Pump) stepOn(now time.Time, moisture int) *PumpEvent {
	if float64(moisture) >= p.target.High {
		if !p.highSince.IsSet() {
			p.highSince = At(now)
		}
		if held, _ := p.highSince.Since(now); held >= p.params.SaturationDwell {
			return p.stop(now, StopSaturation, moisture)
		}
	} else {
		p.highSince = Unset()
	}

	if p.capReached(now) {
		return p.stop(now, StopTimeCap, moisture)
	}
	return nil
}

func (p *Pump) stepOff(now time.Time, moisture int, estimate float64) *PumpEvent {
	p.highSince = Unset()

	if !p.Rested(now) {
		return nil
	}
	if !p.wantsWater(moisture, estimate) {
		return nil
	}

	limit := CycleCap(estimate, p.params.MaxRun)
	if limit <= 0 {
		return nil
	}

	p.state = PumpOn
	p.startedAt = At(now)
	p.highSince = Unset()
	p.cycleCap = limit
	p.saturated = false
	p.counts.PumpOn++

	return &PumpEvent{
		Timestamp: now,
		Type:      EventPumpOn,
		Moisture:  moisture,
		CycleCap:  limit,
		Runtime:   p.runtime,
	}
}

// EnforceCap applies only the time cap. It is used on iterations that have
// no trustworthy moisture value, so a running pump still stops on schedule.
// The saturation dwell restarts because it was not observed continuously.
func (p *Pump) EnforceCap(now time.Time) *PumpEvent {
	if p.state != PumpOn {
		return nil
	}
	p.highSince = Unset()
	if p.capReached(now) {
		return p.stop(now, StopTimeCap, -1)
	}
	return nil
}

// Halt stops a running pump outside the duty cycle, on shutdown or before
// a cold restart. The elapsed run counts toward the accumulated runtime.
func (p *Pump) Halt(now time.Time, reason StopReason) *PumpEvent {
	if p.state != PumpOn {
		return nil
	}
	elapsed, _ := p.startedAt.Since(now)
	if elapsed > p.cycleCap {
		elapsed = p.cycleCap
	}
	p.runtime += elapsed

	event := &PumpEvent{
		Timestamp: now,
		Type:      EventPumpOff,
		Reason:    reason,
		Moisture:  -1,
		CycleCap:  p.cycleCap,
		Runtime:   p.runtime,
	}

	p.state = PumpOff
	p.lastStop = At(now)
	p.startedAt = Unset()
	p.highSince = Unset()
	p.cycleCap = 0
	p.counts.PumpOff++
	return event
}

// Rested reports whether the minimum rest since the last stop has elapsed.
// A pump that has never run is always rested.
func (p *Pump) Rested(now time.Time) bool {
	since, ok := p.lastStop.Since(now)
	if !ok {
		return true
	}
	return since > p.params.MinRest
}

func (p *Pump) wantsWater(moisture int, estimate float64) bool {
	if float64(moisture) >= p.target.Low {
		return false
	}
	if p.saturated {
		return moisture <= p.params.RearmMoisture && estimate >= p.params.RearmMinEstimate
	}
	return estimate >= p.params.StartMinEstimate
}

// Remaining is how long the running cycle may still last before its cap.
// ok is false when the pump is off.
func (p *Pump) Remaining(now time.Time) (left time.Duration, ok bool) {
	elapsed, ok := p.startedAt.Since(now)
	if !ok || p.state != PumpOn {
		return 0, false
	}
	if elapsed >= p.cycleCap {
		return 0, true
	}
	return p.cycleCap - elapsed, true
}

func (p *Pump) capReached(now time.Time) bool {
	elapsed, ok := p.startedAt.Since(now)
	return ok && elapsed >= p.cycleCap
}

func (p *Pump) stop(now time.Time, reason StopReason, moisture int) *PumpEvent {
	elapsed, _ := p.startedAt.Since(now)
	limit := p.cycleCap

	event := &PumpEvent{
		Timestamp: now,
		Type:      EventPumpOff,
		Reason:    reason,
		Moisture:  moisture,
		CycleCap:  limit,
	}

	switch reason {
	case StopSaturation:
		if elapsed > limit {
			elapsed = limit
		}
		event.Runtime = p.runtime + elapsed
		p.runtime = 0
		p.saturated = true
		p.counts.Saturation++
	default:
		p.runtime += limit
		event.Runtime = p.runtime
		p.saturated = false
		p.counts.TimeCap++
	}

	p.state = PumpOff
	p.lastStop = At(now)
	p.startedAt = Unset()
	p.highSince = Unset()
	p.cycleCap = 0
	p.counts.PumpOff++

	return event
}

// CycleCap is the run length granted to a cycle: the smaller of the estimate
// and the hard ceiling.
func CycleCap(estimateSeconds float64, maxRun time.Duration) time.Duration {
	est := time.Duration(estimateSeconds * float64(time.Second))
	if est < maxRun {
		return est
	}
	return maxRun
}

// State returns the current logical pump state.
func (p *Pump) State() PumpState {
	return p.state
}

// Snapshot returns a copy of the machine's state.
func (p *Pump) Snapshot() PumpSnapshot {
	return PumpSnapshot{
		State:     p.state,
		StartedAt: p.startedAt,
		LastStop:  p.lastStop,
		HighSince: p.highSince,
		Saturated: p.saturated,
		Runtime:   p.runtime,
		CycleCap:  p.cycleCap,
		Counts:    p.counts,
	}
}
