package logic

import (
	"errors"
	"testing"
)

func TestConditionRejectsOutOfRange(t *testing.T) {
	c := DefaultCalibration

	for _, raw := range []int{-5, 0, 10, 1023, 1024, 4095} {
		_, err := c.Condition(raw, nil)
		if err == nil {
			t.Errorf("raw %d: expected rejection", raw)
			continue
		}
		if !errors.Is(err, ErrSensorRange) {
			t.Errorf("raw %d: expected ErrSensorRange, got %v", raw, err)
		}
		var re *RangeError
		if !errors.As(err, &re) || re.Raw != raw {
			t.Errorf("raw %d: expected RangeError carrying the raw value, got %v", raw, err)
		}
	}
}

func TestConditionAcceptsWholeWorkingRange(t *testing.T) {
	c := DefaultCalibration

	for raw := 11; raw < 1023; raw++ {
		pct, err := c.Condition(raw, nil)
		if err != nil {
			t.Fatalf("raw %d: unexpected error: %v", raw, err)
		}
		if pct < 0 || pct > 100 {
			t.Fatalf("raw %d: moisture %d outside [0,100]", raw, pct)
		}
	}
}

func TestConditionCalibrationExample(t *testing.T) {
	c := Calibration{DryRaw: 640, WetRaw: 340, RawMin: 10, RawMax: 1023, Alpha: 0.3}

	// (640-500)/(640-340)*100 = 46.7
	pct, err := c.Condition(500, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pct != 46 {
		t.Errorf("moisture: got %d, want 46", pct)
	}
}

func TestPercentClamps(t *testing.T) {
	c := Calibration{DryRaw: 640, WetRaw: 340}

	if got := c.Percent(900); got != 0 {
		t.Errorf("drier than dry: got %d, want 0", got)
	}
	if got := c.Percent(100); got != 100 {
		t.Errorf("wetter than wet: got %d, want 100", got)
	}
	if got := c.Percent(340); got != 100 {
		t.Errorf("wet point: got %d, want 100", got)
	}
	if got := c.Percent(640); got != 0 {
		t.Errorf("dry point: got %d, want 0", got)
	}
}

func TestPercentDegenerateCalibration(t *testing.T) {
	c := Calibration{DryRaw: 500, WetRaw: 500}
	if got := c.Percent(400); got != 0 {
		t.Errorf("expected 0 for zero-span calibration, got %d", got)
	}
}

func TestConditionBootstrapSkipsSmoothing(t *testing.T) {
	c := Calibration{DryRaw: 640, WetRaw: 340, RawMin: 10, RawMax: 1023, Alpha: 0.3}

	pct, _ := c.Condition(340, nil)
	if pct != 100 {
		t.Errorf("first sample should be unsmoothed: got %d, want 100", pct)
	}
}

func TestConditionSmoothing(t *testing.T) {
	c := Calibration{DryRaw: 640, WetRaw: 340, RawMin: 10, RawMax: 1023, Alpha: 0.3}

	prev := 0
	// pct 100, 0.3*100 + 0.7*0 = 30
	got, err := c.Condition(340, &prev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 30 {
		t.Errorf("smoothed: got %d, want 30", got)
	}
}

func TestConditionConvergesOnConstantInput(t *testing.T) {
	for _, alpha := range []float64{0.15, 0.3, 1} {
		c := DefaultCalibration
		c.Alpha = alpha

		target := c.Percent(500)
		var prev *int
		for i := 0; i < 200; i++ {
			v, err := c.Condition(500, prev)
			if err != nil {
				t.Fatalf("alpha %v: unexpected error: %v", alpha, err)
			}
			prev = &v
		}
		if *prev != target {
			t.Errorf("alpha %v: converged to %d, want %d", alpha, *prev, target)
		}

		// Once converged the value is a fixed point.
		v, _ := c.Condition(500, prev)
		if v != target {
			t.Errorf("alpha %v: fixed point moved to %d", alpha, v)
		}
	}
}

func TestConditionConvergesDownward(t *testing.T) {
	c := DefaultCalibration
	prev := 100
	target := c.Percent(650)
	p := &prev
	for i := 0; i < 200; i++ {
		v, _ := c.Condition(650, p)
		p = &v
	}
	if *p != target {
		t.Errorf("converged to %d, want %d", *p, target)
	}
}
