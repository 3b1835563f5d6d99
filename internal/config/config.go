// Package config loads the irrigator's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/soil-irrigator/internal/logic"
)

// Config is the complete daemon configuration.
type Config struct {
	Profile     string            `yaml:"profile"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Estimator   EstimatorConfig   `yaml:"estimator"`
	Pump        PumpConfig        `yaml:"pump"`
	Loop        LoopConfig        `yaml:"loop"`
	Hardware    HardwareConfig    `yaml:"hardware"`
	Forecast    ForecastConfig    `yaml:"forecast"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	HTTP        HTTPConfig        `yaml:"http"`
}

type CalibrationConfig struct {
	DryRaw int     `yaml:"dry_raw"`
	WetRaw int     `yaml:"wet_raw"`
	RawMin int     `yaml:"raw_min"`
	RawMax int     `yaml:"raw_max"`
	Alpha  float64 `yaml:"alpha"`
}

type EstimatorConfig struct {
	StrongWeight     float64 `yaml:"strong_weight"`
	ModerateWeight   float64 `yaml:"moderate_weight"`
	WeakWeight       float64 `yaml:"weak_weight"`
	Epsilon          float64 `yaml:"epsilon"`
	DegreeFloor      float64 `yaml:"degree_floor"`
	WeakFloor        float64 `yaml:"weak_floor"`
	MildShoulder     float64 `yaml:"mild_shoulder"`
	MildFloor        float64 `yaml:"mild_floor"`
	RainScale        float64 `yaml:"rain_scale"`
	RainMaxReduction float64 `yaml:"rain_max_reduction"`
	RainFloor        float64 `yaml:"rain_floor"`
	DryDegree        float64 `yaml:"dry_degree"`
	DryThreshold     float64 `yaml:"dry_threshold"`
	DryMinimum       float64 `yaml:"dry_minimum"`
	TargetAdjust     bool    `yaml:"target_adjust"`
	TargetBoost      float64 `yaml:"target_boost"`
}

type PumpConfig struct {
	MinRest          time.Duration `yaml:"min_rest"`
	MaxRun           time.Duration `yaml:"max_run"`
	SaturationDwell  time.Duration `yaml:"saturation_dwell"`
	StartMinEstimate float64       `yaml:"start_min_estimate"`
	RearmMoisture    int           `yaml:"rearm_moisture"`
	RearmMinEstimate float64       `yaml:"rearm_min_estimate"`
}

type LoopConfig struct {
	Period           time.Duration `yaml:"period"`
	RecoveryDelay    time.Duration `yaml:"recovery_delay"`
	FailureThreshold int           `yaml:"failure_threshold"`
	Heartbeat        time.Duration `yaml:"heartbeat"`
}

// HardwareConfig locates the devices. Fake selects in-memory devices so the
// daemon can run on a workstation.
type HardwareConfig struct {
	Fake           bool   `yaml:"fake"`
	I2CBus         string `yaml:"i2c_bus"`
	SoilAddr       uint16 `yaml:"soil_addr"`
	SoilChannel    int    `yaml:"soil_channel"`
	ClimateAddr    uint16 `yaml:"climate_addr"`
	LCDAddr        uint16 `yaml:"lcd_addr"`
	RelayChip      string `yaml:"relay_chip"`
	RelayLine      int    `yaml:"relay_line"`
	RelayActiveLow bool   `yaml:"relay_active_low"`
}

type ForecastConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type TelemetryConfig struct {
	URL           string        `yaml:"url"`
	APIKey        string        `yaml:"api_key"`
	RuntimeAPIKey string        `yaml:"runtime_api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	// PlantField sends the filtered moisture a second time as field8.
	PlantField bool `yaml:"plant_field"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	c := logic.DefaultCalibration
	e := logic.DefaultEstimatorParams
	p := logic.DefaultPumpParams
	return Config{
		Profile: logic.ProfileGeneric.String(),
		Calibration: CalibrationConfig{
			DryRaw: c.DryRaw,
			WetRaw: c.WetRaw,
			RawMin: c.RawMin,
			RawMax: c.RawMax,
			Alpha:  c.Alpha,
		},
		Estimator: EstimatorConfig{
			StrongWeight:     e.StrongWeight,
			ModerateWeight:   e.ModerateWeight,
			WeakWeight:       e.WeakWeight,
			Epsilon:          e.Epsilon,
			DegreeFloor:      e.DegreeFloor,
			WeakFloor:        e.WeakFloor,
			MildShoulder:     e.MildShoulder,
			MildFloor:        e.MildFloor,
			RainScale:        e.RainScale,
			RainMaxReduction: e.RainMaxReduction,
			RainFloor:        e.RainFloor,
			DryDegree:        e.DryDegree,
			DryThreshold:     e.DryThreshold,
			DryMinimum:       e.DryMinimum,
			TargetAdjust:     e.TargetAdjust,
			TargetBoost:      e.TargetBoost,
		},
		Pump: PumpConfig{
			MinRest:          p.MinRest,
			MaxRun:           p.MaxRun,
			SaturationDwell:  p.SaturationDwell,
			StartMinEstimate: p.StartMinEstimate,
			RearmMoisture:    p.RearmMoisture,
			RearmMinEstimate: p.RearmMinEstimate,
		},
		Loop: LoopConfig{
			Period:           27 * time.Second,
			RecoveryDelay:    15 * time.Second,
			FailureThreshold: logic.DefaultFailureThreshold,
			Heartbeat:        15 * time.Minute,
		},
		Hardware: HardwareConfig{
			I2CBus:         "1",
			SoilAddr:       0x08,
			SoilChannel:    0,
			ClimateAddr:    0x76,
			LCDAddr:        0x27,
			RelayChip:      "gpiochip0",
			RelayLine:      17,
			RelayActiveLow: true,
		},
		Forecast: ForecastConfig{
			URL:     "http://localhost:8085/chuva",
			Timeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			URL:     "https://api.thingspeak.com/update",
			Timeout: 10 * time.Second,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "soil-irrigator",
			TopicPrefix: "irrigation",
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that would make the controller unsafe
// or meaningless.
func (c Config) Validate() error {
	if _, err := logic.ParseProfile(c.Profile); err != nil {
		return err
	}
	if c.Calibration.DryRaw == c.Calibration.WetRaw {
		return fmt.Errorf("calibration: dry_raw and wet_raw must differ (both %d)", c.Calibration.DryRaw)
	}
	if c.Calibration.RawMin >= c.Calibration.RawMax {
		return fmt.Errorf("calibration: raw_min %d must be below raw_max %d", c.Calibration.RawMin, c.Calibration.RawMax)
	}
	if c.Calibration.Alpha <= 0 || c.Calibration.Alpha > 1 {
		return fmt.Errorf("calibration: alpha %v outside (0, 1]", c.Calibration.Alpha)
	}
	if c.Estimator.Epsilon <= 0 {
		return fmt.Errorf("estimator: epsilon must be positive")
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"pump.min_rest", c.Pump.MinRest},
		{"pump.max_run", c.Pump.MaxRun},
		{"pump.saturation_dwell", c.Pump.SaturationDwell},
		{"loop.period", c.Loop.Period},
		{"loop.recovery_delay", c.Loop.RecoveryDelay},
		{"forecast.timeout", c.Forecast.Timeout},
		{"telemetry.timeout", c.Telemetry.Timeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.d)
		}
	}

	if c.Loop.FailureThreshold < 1 {
		return fmt.Errorf("loop.failure_threshold must be at least 1, got %d", c.Loop.FailureThreshold)
	}
	if c.Loop.Heartbeat < 0 {
		return fmt.Errorf("loop.heartbeat must not be negative")
	}
	if c.Hardware.SoilChannel < 0 || c.Hardware.SoilChannel > 3 {
		return fmt.Errorf("hardware.soil_channel %d outside 0..3", c.Hardware.SoilChannel)
	}
	return nil
}

// ProfileValue returns the parsed plant profile. Call after Validate.
func (c Config) ProfileValue() logic.Profile {
	p, _ := logic.ParseProfile(c.Profile)
	return p
}

// CalibrationParams converts the calibration section.
func (c Config) CalibrationParams() logic.Calibration {
	return logic.Calibration{
		DryRaw: c.Calibration.DryRaw,
		WetRaw: c.Calibration.WetRaw,
		RawMin: c.Calibration.RawMin,
		RawMax: c.Calibration.RawMax,
		Alpha:  c.Calibration.Alpha,
	}
}

// EstimatorParams converts the estimator section.
func (c Config) EstimatorParams() logic.EstimatorParams {
	e := c.Estimator
	return logic.EstimatorParams{
		StrongWeight:     e.StrongWeight,
		ModerateWeight:   e.ModerateWeight,
		WeakWeight:       e.WeakWeight,
		Epsilon:          e.Epsilon,
		DegreeFloor:      e.DegreeFloor,
		WeakFloor:        e.WeakFloor,
		MildShoulder:     e.MildShoulder,
		MildFloor:        e.MildFloor,
		RainScale:        e.RainScale,
		RainMaxReduction: e.RainMaxReduction,
		RainFloor:        e.RainFloor,
		DryDegree:        e.DryDegree,
		DryThreshold:     e.DryThreshold,
		DryMinimum:       e.DryMinimum,
		TargetAdjust:     e.TargetAdjust,
		TargetBoost:      e.TargetBoost,
	}
}

// PumpParams converts the pump section.
func (c Config) PumpParams() logic.PumpParams {
	return logic.PumpParams{
		MinRest:          c.Pump.MinRest,
		MaxRun:           c.Pump.MaxRun,
		SaturationDwell:  c.Pump.SaturationDwell,
		StartMinEstimate: c.Pump.StartMinEstimate,
		RearmMoisture:    c.Pump.RearmMoisture,
		RearmMinEstimate: c.Pump.RearmMinEstimate,
	}
}
