// Command soil-irrigator reads soil moisture, decides how long to irrigate and
// drives the pump relay, publishing pump transitions to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/soil-irrigator/internal/config"
	"github.com/sweeney/soil-irrigator/internal/controller"
	"github.com/sweeney/soil-irrigator/internal/forecast"
	"github.com/sweeney/soil-irrigator/internal/log"
	"github.com/sweeney/soil-irrigator/internal/logic"
	"github.com/sweeney/soil-irrigator/internal/metrics"
	"github.com/sweeney/soil-irrigator/internal/mqtt"
	"github.com/sweeney/soil-irrigator/internal/status"
	"github.com/sweeney/soil-irrigator/internal/telemetry"
	"github.com/sweeney/soil-irrigator/internal/web"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "/etc/soil-irrigator.yaml", "Path to the YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	httpAddr := flag.String("http", "", "HTTP status address, overrides the config (\"off\" disables)")
	fake := flag.Bool("fake", false, "Use in-memory hardware")
	printState := flag.Bool("print-state", false, "Print one reading and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
	switch *httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = *httpAddr
	}
	if *fake {
		cfg.Hardware.Fake = true
	}

	if *printState {
		err = printReading(cfg)
	} else {
		err = run(cfg)
	}
	if err != nil {
		log.Errorf("fatal: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func printReading(cfg config.Config) error {
	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	raw, err := hw.soil.ReadRaw()
	if err != nil {
		return fmt.Errorf("read soil: %w", err)
	}
	moisture, err := cfg.CalibrationParams().Condition(raw, nil)
	if err != nil {
		return err
	}
	c, err := hw.climate.Read()
	if err != nil {
		return fmt.Errorf("read climate: %w", err)
	}
	fmt.Printf("raw: %d, moisture: %d%%, temperature: %.1fC, humidity: %.0f%%\n",
		raw, moisture, c.TemperatureC, c.HumidityPct)
	return nil
}

func run(cfg config.Config) error {
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTP.Addr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &supervisor{
		cfg:     cfg,
		tracker: tracker,
		sig:     sigCh,
		now:     time.Now,
		after:   time.After,
		connect: newPublisher,
		open:    openHardware,
	}
	return s.run(ctx)
}

// supervisor boots the controller and cold-restarts it when the loop asks
// for it. The tracker and the HTTP server outlive restarts; everything else
// is rebuilt on every boot.
type supervisor struct {
	cfg     config.Config
	tracker *status.Tracker
	sig     <-chan os.Signal
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time
	connect func(config.MQTTConfig) (mqtt.Publisher, error)
	open    func(config.Config) (*hardware, error)
}

func (s *supervisor) run(ctx context.Context) error {
	event, reason := mqtt.EventStartup, ""
	for {
		err := s.boot(ctx, event, reason)
		if !errors.Is(err, ErrRestart) {
			return err
		}

		metrics.Restarts.Inc()
		log.Errorf("cold restart: %v", err)
		event, reason = mqtt.EventRestart, err.Error()
	}
}

// boot connects to the broker, opens the hardware and runs the loop until it
// stops. On return the hardware is released and the broker session closed.
// Hardware that cannot be opened is reported as a restart after one loop
// period, unless a signal arrives first.
func (s *supervisor) boot(ctx context.Context, event, reason string) error {
	cfg := s.cfg

	publisher, err := s.connect(cfg.MQTT)
	if err != nil {
		return err
	}
	defer publisher.Close()
	mqttStatus, _ := publisher.(mqtt.ConnectionStatus)

	bootID := uuid.NewString()
	s.tracker.Boot(bootID, s.now())
	if mqttStatus != nil {
		s.tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	publishSystem(publisher, s.tracker, event, reason)

	log.Infow("started",
		"boot_id", bootID,
		"profile", cfg.Profile,
		"period", cfg.Loop.Period,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.Loop.Heartbeat,
		"fake_hardware", cfg.Hardware.Fake)

	l := loopDeps{
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    s.tracker,
		heartbeat:  cfg.Loop.Heartbeat,
		now:        s.now,
		after:      s.after,
		sig:        s.sig,
	}

	hw, err := s.open(cfg)
	if err != nil {
		select {
		case sg := <-s.sig:
			shutdown(l, nil, sg)
			return nil
		case <-s.after(cfg.Loop.Period):
			return fmt.Errorf("%w: %v", ErrRestart, err)
		}
	}
	defer hw.Close()

	l.ctrl = controller.New(controller.Deps{
		Soil:      hw.soil,
		Climate:   hw.climate,
		Forecast:  forecast.NewClient(cfg.Forecast.URL, cfg.Forecast.Timeout),
		Relay:     hw.relay,
		Display:   hw.display,
		Telemetry: newUploader(cfg.Telemetry),
		Publisher: publisher,
		Tracker:   s.tracker,
	}, controllerParams(cfg))

	return runLoop(ctx, l)
}

// ErrRestart is returned by runLoop when the controller asks for a cold
// restart after repeated failures.
var ErrRestart = errors.New("restart requested")

// loopDeps are the collaborators of runLoop. now, after and sig are
// injectable so tests can drive the loop deterministically.
type loopDeps struct {
	ctrl       *controller.Controller
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	now        func() time.Time
	after      func(time.Duration) <-chan time.Time
	sig        <-chan os.Signal
}

func runLoop(ctx context.Context, l loopDeps) error {
	hb := logic.NewHeartbeat(l.now())
	wait := l.after(0)

	for {
		select {
		case s := <-l.sig:
			shutdown(l, l.ctrl, s)
			return nil

		case <-wait:
			t := l.now()
			res := l.ctrl.Step(ctx, t)

			if l.mqttStatus != nil {
				l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
			}

			if res.Outcome == controller.OutcomeFatal {
				l.ctrl.Halt(t, logic.StopRestart)
				return fmt.Errorf("%w: %v", ErrRestart, res.Err)
			}

			if hbData := hb.Check(t, l.heartbeat, l.ctrl.Pump().Counts); hbData != nil {
				log.Infow("heartbeat",
					"uptime", hbData.Uptime,
					"pump_on", hbData.Counts.PumpOn,
					"pump_off", hbData.Counts.PumpOff,
					"saturation", hbData.Counts.Saturation,
					"time_cap", hbData.Counts.TimeCap)
				publishSystem(l.publisher, l.tracker, mqtt.EventHeartbeat, "")
			}

			wait = l.after(res.Delay)
		}
	}
}

func shutdown(l loopDeps, ctrl *controller.Controller, s os.Signal) {
	log.Infof("received %v, shutting down", s)
	if ctrl != nil {
		ctrl.Halt(l.now(), logic.StopShutdown)
	}
	publishSystem(l.publisher, l.tracker, mqtt.EventShutdown, signalName(s))
}

func publishSystem(p mqtt.Publisher, tracker *status.Tracker, event, reason string) {
	snap := tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		BootID:     snap.BootID,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
		Retained:   event != mqtt.EventHeartbeat,
	}
	if err := p.PublishSystem(ev); err != nil {
		log.Warnf("failed to publish %s event: %v", event, err)
		return
	}
	log.Debugf("published %s event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func newPublisher(c config.MQTTConfig) (mqtt.Publisher, error) {
	if c.Broker == "" {
		log.Warnf("no mqtt broker configured, events are only logged")
		return mqtt.LogPublisher{}, nil
	}
	p, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   c.Broker,
		ClientID: c.ClientID,
		Topics:   mqtt.NewTopics(c.TopicPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("init mqtt: %w", err)
	}
	return p, nil
}

func newUploader(c config.TelemetryConfig) telemetry.Uploader {
	if c.APIKey == "" {
		return telemetry.Nop{}
	}
	return telemetry.NewThingSpeak(c.URL, c.APIKey, c.RuntimeAPIKey, c.Timeout)
}

func controllerParams(cfg config.Config) controller.Params {
	return controller.Params{
		Profile:          cfg.ProfileValue(),
		Calibration:      cfg.CalibrationParams(),
		Estimator:        cfg.EstimatorParams(),
		Pump:             cfg.PumpParams(),
		Period:           cfg.Loop.Period,
		RecoveryDelay:    cfg.Loop.RecoveryDelay,
		FailureThreshold: cfg.Loop.FailureThreshold,
		PlantField:       cfg.Telemetry.PlantField,
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		Profile:       cfg.Profile,
		PeriodMs:      cfg.Loop.Period.Milliseconds(),
		RecoveryMs:    cfg.Loop.RecoveryDelay.Milliseconds(),
		HeartbeatMs:   cfg.Loop.Heartbeat.Milliseconds(),
		MinRestS:      cfg.Pump.MinRest.Seconds(),
		MaxRunS:       cfg.Pump.MaxRun.Seconds(),
		Broker:        cfg.MQTT.Broker,
		HTTPAddr:      cfg.HTTP.Addr,
		FailThreshold: cfg.Loop.FailureThreshold,
	}
}
