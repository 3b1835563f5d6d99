// Package controller runs one iteration of the irrigation loop: read the
// sensors, condition and estimate, step the pump machine, drive the relay
// and report. Every collaborator is an interface so the whole iteration can
// be exercised against fakes.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/soil-irrigator/internal/display"
	"github.com/sweeney/soil-irrigator/internal/forecast"
	"github.com/sweeney/soil-irrigator/internal/gpio"
	"github.com/sweeney/soil-irrigator/internal/log"
	"github.com/sweeney/soil-irrigator/internal/logic"
	"github.com/sweeney/soil-irrigator/internal/metrics"
	"github.com/sweeney/soil-irrigator/internal/mqtt"
	"github.com/sweeney/soil-irrigator/internal/sensor"
	"github.com/sweeney/soil-irrigator/internal/status"
	"github.com/sweeney/soil-irrigator/internal/telemetry"
)

// Outcome classifies an iteration.
type Outcome int

const (
	// OutcomeOK is a complete iteration.
	OutcomeOK Outcome = iota
	// OutcomeSkipped is an iteration abandoned on an implausible soil reading.
	// It does not count as a failure.
	OutcomeSkipped
	// OutcomeFailed is an iteration aborted by a collaborator error.
	OutcomeFailed
	// OutcomeFatal is a failure that reached the restart threshold.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeFatal:
		return "fatal"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is what one iteration produced.
type Result struct {
	Outcome Outcome
	Err     error
	// Delay is how long the loop should wait before the next iteration.
	Delay  time.Duration
	Events []logic.PumpEvent
}

// Deps are the collaborators of an iteration.
type Deps struct {
	Soil      sensor.SoilSensor
	Climate   sensor.ClimateSensor
	Forecast  forecast.Forecaster
	Relay     gpio.Relay
	Display   display.Display
	Telemetry telemetry.Uploader
	Publisher mqtt.Publisher
	Tracker   *status.Tracker
}

// Params are the tunables of an iteration.
type Params struct {
	Profile          logic.Profile
	Calibration      logic.Calibration
	Estimator        logic.EstimatorParams
	Pump             logic.PumpParams
	Period           time.Duration
	RecoveryDelay    time.Duration
	FailureThreshold int
	// PlantField duplicates moisture into the plant-specific telemetry field.
	PlantField bool
}

// Controller owns the per-boot state of the loop. It is not safe for
// concurrent use; a cold restart builds a new one.
type Controller struct {
	deps     Deps
	params   Params
	bands    logic.Bands
	pump     *logic.Pump
	failures *logic.FailureCounter
	filtered *int
}

// New creates a controller with a fresh pump machine and no filter history.
func New(deps Deps, params Params) *Controller {
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.Nop{}
	}
	bands := params.Profile.Bands()
	return &Controller{
		deps:     deps,
		params:   params,
		bands:    bands,
		pump:     logic.NewPump(params.Pump, bands.Moisture.Target),
		failures: logic.NewFailureCounter(params.FailureThreshold),
	}
}

// Pump returns a snapshot of the pump machine.
func (c *Controller) Pump() logic.PumpSnapshot {
	return c.pump.Snapshot()
}

// Failures returns the number of consecutive failed iterations.
func (c *Controller) Failures() int {
	return c.failures.Count()
}

// Step runs one iteration. A panic inside the iteration is recovered and
// counted as a failure. Whatever the outcome, the relay is left matching
// the logical pump state.
func (c *Controller) Step(ctx context.Context, now time.Time) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = c.fail(now, fmt.Errorf("panic: %v", r), res.Events)
		}
		metrics.Iterations.WithLabelValues(res.Outcome.String()).Inc()
		metrics.IterationLatency.Observe(time.Since(start).Seconds())
		metrics.ConsecutiveFailures.Set(float64(c.failures.Count()))
		if c.deps.Tracker != nil {
			c.deps.Tracker.UpdatePump(c.pump.Snapshot())
			c.deps.Tracker.SetOutcome(res.Outcome.String(), res.Err, c.failures.Count())
		}
	}()

	reading, err := c.read(ctx)
	if err != nil {
		var rangeErr *logic.RangeError
		if errors.As(err, &rangeErr) {
			return c.skip(now, err)
		}
		return c.fail(now, err, nil)
	}

	estimate := logic.Estimate(float64(reading.Moisture), reading.TemperatureC, reading.RainMM, c.bands, c.params.Estimator)
	estimate = logic.AdjustForTarget(estimate, float64(reading.Moisture), c.bands, c.params.Estimator)
	metrics.EstimateSeconds.Set(estimate)

	var events []logic.PumpEvent
	if ev := c.pump.Step(now, reading.Moisture, estimate); ev != nil {
		events = append(events, *ev)
		c.report(*ev)
	}
	if err := c.drive(); err != nil {
		return c.fail(now, err, events)
	}

	log.Infow("iteration",
		"raw", reading.Raw,
		"moisture", reading.Moisture,
		"temperature_c", reading.TemperatureC,
		"humidity_pct", reading.HumidityPct,
		"rain_mm", reading.RainMM,
		"estimate_s", estimate,
		"pump", c.pump.State())

	if c.deps.Display != nil {
		l1, l2 := display.StatusLines(reading.Moisture, reading.TemperatureC)
		if err := c.deps.Display.Show(l1, l2); err != nil {
			log.Warnf("display: %v", err)
		}
	}

	c.upload(ctx, reading, estimate)

	if c.deps.Tracker != nil {
		c.deps.Tracker.UpdateReading(reading, estimate)
	}
	c.failures.Success()

	return Result{Outcome: OutcomeOK, Delay: c.nextDelay(now, c.params.Period), Events: events}
}

// Halt stops a running pump outside the duty cycle and switches the relay
// off. It is used on shutdown and before a cold restart.
func (c *Controller) Halt(now time.Time, reason logic.StopReason) *logic.PumpEvent {
	ev := c.pump.Halt(now, reason)
	if ev != nil {
		c.report(*ev)
	}
	if err := c.drive(); err != nil {
		log.Errorf("relay off on %s: %v", reason, err)
	}
	if c.deps.Tracker != nil {
		c.deps.Tracker.UpdatePump(c.pump.Snapshot())
	}
	return ev
}

// read gathers one iteration's inputs. Climate and forecast come first, so a
// rejected soil sample leaves the filter untouched.
func (c *Controller) read(ctx context.Context) (logic.Reading, error) {
	climate, err := c.deps.Climate.Read()
	if err != nil {
		return logic.Reading{}, fmt.Errorf("read climate: %w", err)
	}
	metrics.AirTemperature.Set(climate.TemperatureC)
	metrics.AirHumidity.Set(climate.HumidityPct)

	rain := logic.RainUnknown
	if c.deps.Forecast != nil {
		rain = c.deps.Forecast.RainMM(ctx)
	}
	metrics.ForecastRain.Set(rain)

	raw, err := c.deps.Soil.ReadRaw()
	if err != nil {
		return logic.Reading{}, fmt.Errorf("read soil: %w", err)
	}
	metrics.SoilRaw.Set(float64(raw))

	moisture, err := c.params.Calibration.Condition(raw, c.filtered)
	if err != nil {
		return logic.Reading{}, err
	}
	c.filtered = &moisture
	metrics.SoilMoisture.Set(float64(moisture))

	return logic.Reading{
		Raw:          raw,
		Moisture:     moisture,
		TemperatureC: climate.TemperatureC,
		HumidityPct:  climate.HumidityPct,
		RainMM:       rain,
	}, nil
}

// skip handles a rejected soil sample: no filter or decision update, only the
// time cap is enforced.
func (c *Controller) skip(now time.Time, err error) Result {
	metrics.SoilRejected.Inc()
	log.Warnf("%v, retrying in %v", err, c.params.RecoveryDelay)

	events := c.enforceCap(now)
	if derr := c.drive(); derr != nil {
		return c.fail(now, derr, events)
	}
	return Result{Outcome: OutcomeSkipped, Err: err, Delay: c.nextDelay(now, c.params.RecoveryDelay), Events: events}
}

func (c *Controller) fail(now time.Time, err error, events []logic.PumpEvent) Result {
	events = append(events, c.enforceCap(now)...)
	if derr := c.drive(); derr != nil {
		log.Errorf("relay: %v", derr)
	}

	n, fatal := c.failures.Failure()
	res := Result{Outcome: OutcomeFailed, Err: err, Delay: c.nextDelay(now, c.params.Period), Events: events}
	if fatal {
		res.Outcome = OutcomeFatal
		log.Errorf("iteration failed (%d/%d): %v", n, c.failures.Threshold(), err)
		return res
	}
	log.Warnf("iteration failed (%d/%d): %v", n, c.failures.Threshold(), err)
	return res
}

// nextDelay shortens d so a running pump is revisited no later than the
// moment its cycle cap runs out.
func (c *Controller) nextDelay(now time.Time, d time.Duration) time.Duration {
	if left, ok := c.pump.Remaining(now); ok && left < d {
		return left
	}
	return d
}

func (c *Controller) enforceCap(now time.Time) []logic.PumpEvent {
	ev := c.pump.EnforceCap(now)
	if ev == nil {
		return nil
	}
	c.report(*ev)
	return []logic.PumpEvent{*ev}
}

// drive sets the relay to the logical pump state.
func (c *Controller) drive() error {
	on := c.pump.State().On()
	metrics.PumpOn.Set(metrics.BoolGauge(on))
	if err := c.deps.Relay.Set(on); err != nil {
		return fmt.Errorf("set relay: %w", err)
	}
	return nil
}

func (c *Controller) report(ev logic.PumpEvent) {
	switch ev.Type {
	case logic.EventPumpOn:
		metrics.PumpStarts.Inc()
		log.Infow("pump on", "moisture", ev.Moisture, "cycle_cap", ev.CycleCap)
	case logic.EventPumpOff:
		metrics.PumpStops.WithLabelValues(string(ev.Reason)).Inc()
		log.Infow("pump off", "reason", ev.Reason, "moisture", ev.Moisture, "runtime", ev.Runtime)
	}
	metrics.PumpRuntime.Set(c.pump.Snapshot().Runtime.Seconds())

	if c.deps.Publisher == nil {
		return
	}
	if err := c.deps.Publisher.Publish(ev); err != nil {
		log.Warnf("publish %s: %v", ev.Type, err)
	}
}

func (c *Controller) upload(ctx context.Context, r logic.Reading, estimate float64) {
	sample := telemetry.Sample{
		Moisture:     r.Moisture,
		TemperatureC: r.TemperatureC,
		HumidityPct:  r.HumidityPct,
		RainMM:       r.RainMM,
		IrrigationS:  estimate,
	}
	if c.params.PlantField {
		m := r.Moisture
		sample.PlantMoisture = &m
	}
	if err := c.deps.Telemetry.Upload(ctx, sample); err != nil {
		metrics.TelemetryErrors.WithLabelValues("primary").Inc()
		log.Warnf("telemetry: %v", err)
	}
	if err := c.deps.Telemetry.UploadRuntime(ctx, c.pump.Snapshot().Runtime); err != nil {
		metrics.TelemetryErrors.WithLabelValues("runtime").Inc()
		log.Warnf("telemetry runtime: %v", err)
	}
}
