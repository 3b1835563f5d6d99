package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/soil-irrigator/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "irrigator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultMatchesLogicDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, logic.DefaultCalibration, cfg.CalibrationParams())
	assert.Equal(t, logic.DefaultEstimatorParams, cfg.EstimatorParams())
	assert.Equal(t, logic.DefaultPumpParams, cfg.PumpParams())
	assert.Equal(t, logic.ProfileGeneric, cfg.ProfileValue())
	assert.Equal(t, 27*time.Second, cfg.Loop.Period)
	assert.Equal(t, 15*time.Second, cfg.Loop.RecoveryDelay)
	assert.Equal(t, 5, cfg.Loop.FailureThreshold)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := writeConfig(t, `
profile: alface
calibration:
  dry_raw: 640
  wet_raw: 340
pump:
  max_run: 45s
loop:
  heartbeat: 5m
hardware:
  fake: true
mqtt:
  broker: tcp://broker:1883
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, logic.ProfileLettuce, cfg.ProfileValue())
	assert.Equal(t, 640, cfg.Calibration.DryRaw)
	assert.Equal(t, 340, cfg.Calibration.WetRaw)
	assert.Equal(t, 0.15, cfg.Calibration.Alpha)
	assert.Equal(t, 45*time.Second, cfg.Pump.MaxRun)
	assert.Equal(t, 300*time.Second, cfg.Pump.MinRest)
	assert.Equal(t, 5*time.Minute, cfg.Loop.Heartbeat)
	assert.True(t, cfg.Hardware.Fake)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "irrigation", cfg.MQTT.TopicPrefix)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "pump: [unterminated"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "profile: cactus\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cactus")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"equal calibration points", func(c *Config) { c.Calibration.WetRaw = c.Calibration.DryRaw }},
		{"raw bounds inverted", func(c *Config) { c.Calibration.RawMin = 2000 }},
		{"alpha zero", func(c *Config) { c.Calibration.Alpha = 0 }},
		{"alpha above one", func(c *Config) { c.Calibration.Alpha = 1.5 }},
		{"zero epsilon", func(c *Config) { c.Estimator.Epsilon = 0 }},
		{"zero period", func(c *Config) { c.Loop.Period = 0 }},
		{"negative max run", func(c *Config) { c.Pump.MaxRun = -time.Second }},
		{"zero failure threshold", func(c *Config) { c.Loop.FailureThreshold = 0 }},
		{"negative heartbeat", func(c *Config) { c.Loop.Heartbeat = -time.Minute }},
		{"bad soil channel", func(c *Config) { c.Hardware.SoilChannel = 4 }},
		{"unknown profile", func(c *Config) { c.Profile = "orchid" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAllowsDisabledHeartbeat(t *testing.T) {
	cfg := Default()
	cfg.Loop.Heartbeat = 0
	assert.NoError(t, cfg.Validate())
}
