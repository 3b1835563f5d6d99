// Package status provides a thread-safe status tracker for the irrigator daemon.
// It is read by the HTTP handlers and by the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/soil-irrigator/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Profile       string
	PeriodMs      int64
	RecoveryMs    int64
	HeartbeatMs   int64
	MinRestS      float64
	MaxRunS       float64
	Broker        string
	HTTPAddr      string
	FailThreshold int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	BootID    string
	Ready     bool // at least one reading has been accepted since boot
	Reading   logic.Reading
	Estimate  float64
	Pump      logic.PumpSnapshot
	Iteration int64

	LastOutcome         string
	LastError           string
	ConsecutiveFailures int
	Restarts            int

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the current boot.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Boot records a fresh (re)initialisation. The restart count survives;
// everything learned during the previous boot is dropped.
func (t *Tracker) Boot(bootID string, startTime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	restarts := t.snap.Restarts
	if t.snap.BootID != "" {
		restarts++
	}
	t.snap = Snapshot{
		BootID:        bootID,
		StartTime:     startTime,
		Restarts:      restarts,
		MQTTConnected: t.snap.MQTTConnected,
		Config:        t.snap.Config,
	}
}

// UpdateReading records an accepted reading and the decision made from it.
func (t *Tracker) UpdateReading(r logic.Reading, estimate float64) {
	t.mu.Lock()
	t.snap.Ready = true
	t.snap.Reading = r
	t.snap.Estimate = estimate
	t.mu.Unlock()
}

// UpdatePump records the pump machine state.
func (t *Tracker) UpdatePump(p logic.PumpSnapshot) {
	t.mu.Lock()
	t.snap.Pump = p
	t.mu.Unlock()
}

// SetOutcome records the result of one iteration.
func (t *Tracker) SetOutcome(outcome string, err error, failures int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Iteration++
	t.snap.LastOutcome = outcome
	t.snap.LastError = ""
	if err != nil {
		t.snap.LastError = err.Error()
	}
	t.snap.ConsecutiveFailures = failures
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
