package logic

import (
	"errors"
	"fmt"
	"math"
)

// ErrSensorRange is matched (via errors.Is) by every RangeError.
var ErrSensorRange = errors.New("soil sensor reading out of range")

// RangeError reports a raw reading outside the plausible working range:
// saturated, shorted or unplugged.
type RangeError struct {
	Raw int
	Min int
	Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("raw soil reading %d outside (%d, %d)", e.Raw, e.Min, e.Max)
}

// Is makes errors.Is(err, ErrSensorRange) true for any RangeError.
func (e *RangeError) Is(target error) bool {
	return target == ErrSensorRange
}

// Calibration converts raw ADC counts into a moisture percentage.
type Calibration struct {
	DryRaw int // reading in air / dry soil
	WetRaw int // reading in water / saturated soil
	RawMin int // readings <= RawMin are rejected
	RawMax int // readings >= RawMax are rejected
	Alpha  float64
}

// DefaultCalibration matches a capacitive probe on a 10-bit ADC.
var DefaultCalibration = Calibration{
	DryRaw: 710,
	WetRaw: 314,
	RawMin: 10,
	RawMax: 1023,
	Alpha:  0.15,
}

// Percent maps a raw reading linearly onto 0..100 between the two
// calibration points. The result is truncated and clamped.
func (c Calibration) Percent(raw int) int {
	span := float64(c.DryRaw - c.WetRaw)
	if span == 0 {
		return 0
	}
	pct := int(float64(c.DryRaw-raw) / span * 100)
	return clampInt(pct, 0, 100)
}

// Condition validates a raw reading, calibrates it, and applies exponential
// smoothing against the previous filtered value. prev is nil before the first
// accepted reading, in which case the calibrated value is returned unsmoothed.
// The caller persists the result as the new filtered value.
func (c Calibration) Condition(raw int, prev *int) (int, error) {
	if raw <= c.RawMin || raw >= c.RawMax {
		return 0, &RangeError{Raw: raw, Min: c.RawMin, Max: c.RawMax}
	}

	pct := c.Percent(raw)
	if prev == nil {
		return pct, nil
	}

	filtered := int(math.Round(c.Alpha*float64(pct) + (1-c.Alpha)*float64(*prev)))

	// Rounding stalls within 0.5/alpha of the target; step by one count
	// so a constant input always converges to its calibrated value.
	if filtered == *prev && pct != *prev {
		if pct > *prev {
			filtered++
		} else {
			filtered--
		}
	}
	return clampInt(filtered, 0, 100), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
