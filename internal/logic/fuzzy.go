package logic

import "math"

// EstimatorParams tunes the fuzzy irrigation estimator.
type EstimatorParams struct {
	// Seconds-weights of the strong, moderate and weak scenarios.
	StrongWeight   float64
	ModerateWeight float64
	WeakWeight     float64
	// Epsilon keeps the normalising denominator non-zero.
	Epsilon float64
	// DegreeFloor is the minimum temperature degree of the strong and
	// moderate scenarios. WeakFloor is the minimum cold degree of the weak one.
	DegreeFloor float64
	WeakFloor   float64
	// The mild temperature degree extends MildShoulder °C past both edges of
	// its band and never drops below MildFloor inside that widened band.
	MildShoulder float64
	MildFloor    float64

	// Rain dampening: factor = max(RainFloor, 1 - min(rain/RainScale, RainMaxReduction)).
	RainScale        float64
	RainMaxReduction float64
	RainFloor        float64

	// A clearly dry soil (dry degree > DryDegree) whose blended result falls
	// below DryThreshold seconds is given DryMinimum seconds instead.
	DryDegree    float64
	DryThreshold float64
	DryMinimum   float64

	// Target adjustment boosts the recommendation below the profile's target
	// band and zeroes it at the band's upper edge. Disabled when TargetAdjust
	// is false.
	TargetAdjust bool
	TargetBoost  float64
}

// DefaultEstimatorParams is the tuned estimator.
var DefaultEstimatorParams = EstimatorParams{
	StrongWeight:     600,
	ModerateWeight:   300,
	WeakWeight:       60,
	Epsilon:          0.01,
	DegreeFloor:      0.05,
	WeakFloor:        0.02,
	MildShoulder:     1,
	MildFloor:        0.01,
	RainScale:        10,
	RainMaxReduction: 0.8,
	RainFloor:        0.2,
	DryDegree:        0.5,
	DryThreshold:     1,
	DryMinimum:       60,
	TargetAdjust:     true,
	TargetBoost:      1.2,
}

// Memberships holds the fuzzy membership degrees of one input set.
type Memberships struct {
	Dry, Moderate, Wet float64
	Cold, Mild, Hot    float64
}

// Fuzzify computes the membership degrees of a moisture/temperature pair.
func Fuzzify(moisture, tempC float64, b Bands, p EstimatorParams) Memberships {
	m := b.Moisture
	t := b.Temperature
	return Memberships{
		Dry:      rampDown(moisture, m.Dry.Low, m.Dry.High),
		Moderate: triangle(moisture, m.Moderate),
		Wet:      rampUp(moisture, m.Wet.Low, m.Wet.High),
		Cold:     rampDown(tempC, t.Cold.Low, t.Cold.High),
		Mild:     shoulderTriangle(tempC, t.Mild, p.MildShoulder, p.MildFloor),
		Hot:      rampUp(tempC, t.Hot.Low, t.Hot.High),
	}
}

// Estimate returns the recommended irrigation duration in seconds for the
// given soil moisture (%), air temperature (°C) and forecast rain (mm).
// A negative rain value (RainUnknown) skips rain dampening.
// The result is never negative.
func Estimate(moisture, tempC, rainMM float64, b Bands, p EstimatorParams) float64 {
	mu := Fuzzify(moisture, tempC, b, p)

	strong := mu.Dry * math.Max(math.Max(mu.Hot, mu.Mild), math.Max(mu.Cold, p.DegreeFloor))
	moderate := mu.Moderate * math.Max(mu.Mild, p.DegreeFloor)
	weak := mu.Wet * math.Max(mu.Cold, p.WeakFloor)

	num := strong*p.StrongWeight + moderate*p.ModerateWeight + weak*p.WeakWeight
	den := strong + moderate + weak + p.Epsilon
	duration := num / den

	if rainMM >= 0 {
		duration *= RainFactor(rainMM, p)
	}

	if duration < p.DryThreshold && mu.Dry > p.DryDegree {
		duration = p.DryMinimum
	}

	return math.Max(duration, 0)
}

// RainFactor is the multiplier applied for a known forecast of rainMM.
// It decreases linearly with rain and never falls below RainFloor.
func RainFactor(rainMM float64, p EstimatorParams) float64 {
	if rainMM < 0 {
		return 1
	}
	reduction := p.RainMaxReduction
	if p.RainScale > 0 {
		reduction = math.Min(rainMM/p.RainScale, p.RainMaxReduction)
	}
	return math.Max(p.RainFloor, 1-reduction)
}

// AdjustForTarget scales an estimate against the profile's target band:
// boosted below Target.Low, unchanged inside the band and zero once the soil
// is at or above Target.High.
func AdjustForTarget(duration, moisture float64, b Bands, p EstimatorParams) float64 {
	if !p.TargetAdjust {
		return duration
	}
	target := b.Moisture.Target
	switch {
	case moisture >= target.High:
		return 0
	case moisture < target.Low:
		return duration * p.TargetBoost
	}
	return duration
}

// rampDown is 1 at or below lo, 0 at or above hi, linear between.
func rampDown(x, lo, hi float64) float64 {
	if hi <= lo {
		if x <= lo {
			return 1
		}
		return 0
	}
	return clamp01((hi - x) / (hi - lo))
}

// rampUp is 0 at or below lo, 1 at or above hi, linear between.
func rampUp(x, lo, hi float64) float64 {
	return 1 - rampDown(x, lo, hi)
}

// triangle peaks at the band midpoint and reaches 0 at both edges.
func triangle(x float64, b Band) float64 {
	if x <= b.Low || x >= b.High {
		return 0
	}
	mid := b.Mid()
	if x <= mid {
		return clamp01((x - b.Low) / (mid - b.Low))
	}
	return clamp01((b.High - x) / (b.High - mid))
}

// shoulderTriangle is triangle widened by shoulder on both sides. Anywhere
// in the widened band the degree is at least floor.
func shoulderTriangle(x float64, b Band, shoulder, floor float64) float64 {
	if x < b.Low-shoulder || x > b.High+shoulder {
		return 0
	}
	mid := b.Mid()
	var d float64
	switch {
	case x <= mid && mid > b.Low:
		d = (x - b.Low) / (mid - b.Low)
	case x > mid && b.High > mid:
		d = (b.High - x) / (b.High - mid)
	default:
		d = 1
	}
	return math.Min(1, math.Max(floor, d))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
