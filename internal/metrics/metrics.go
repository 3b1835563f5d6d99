package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Controller gauges and counters, exported on /metrics.

var (
	// Readings
	SoilRaw = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "soil",
		Name:      "raw",
		Help:      "Last raw ADC reading of the soil probe",
	})

	SoilMoisture = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "soil",
		Name:      "moisture_percent",
		Help:      "Filtered soil moisture",
	})

	SoilRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "irrigator",
		Subsystem: "soil",
		Name:      "rejected_total",
		Help:      "Raw readings rejected as out of range",
	})

	AirTemperature = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "climate",
		Name:      "temperature_celsius",
		Help:      "Air temperature",
	})

	AirHumidity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "climate",
		Name:      "humidity_percent",
		Help:      "Relative air humidity",
	})

	ForecastRain = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "forecast",
		Name:      "rain_mm",
		Help:      "Forecast rain, -1 when unknown",
	})

	// Decision
	EstimateSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "estimator",
		Name:      "recommendation_seconds",
		Help:      "Last irrigation recommendation",
	})

	PumpOn = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "pump",
		Name:      "on",
		Help:      "1 while the pump is running",
	})

	PumpStarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "irrigator",
		Subsystem: "pump",
		Name:      "starts_total",
		Help:      "Pump cycles started",
	})

	PumpStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "irrigator",
		Subsystem: "pump",
		Name:      "stops_total",
		Help:      "Pump cycles stopped, by reason",
	}, []string{"reason"})

	PumpRuntime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "pump",
		Name:      "accumulated_runtime_seconds",
		Help:      "Runtime accumulated since the last saturation stop",
	})

	// Loop
	Iterations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "irrigator",
		Subsystem: "loop",
		Name:      "iterations_total",
		Help:      "Control iterations, by outcome",
	}, []string{"outcome"})

	IterationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "irrigator",
		Subsystem: "loop",
		Name:      "iteration_duration_seconds",
		Help:      "Control iteration duration including sensor and network I/O",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	})

	ConsecutiveFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "irrigator",
		Subsystem: "loop",
		Name:      "consecutive_failures",
		Help:      "Failed iterations since the last success",
	})

	Restarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "irrigator",
		Subsystem: "loop",
		Name:      "restarts_total",
		Help:      "Cold restarts after repeated failures",
	})

	// Uploads
	TelemetryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "irrigator",
		Subsystem: "telemetry",
		Name:      "errors_total",
		Help:      "Failed telemetry uploads, by channel",
	}, []string{"channel"})
)

// BoolGauge converts a flag to a gauge value.
func BoolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
