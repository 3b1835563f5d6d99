// Package telemetry uploads readings to a ThingSpeak-style channel API.
// Delivery is best effort: callers log errors and carry on.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Sample is one iteration's upload to the primary channel.
type Sample struct {
	Moisture     int
	TemperatureC float64
	HumidityPct  float64
	RainMM       float64
	IrrigationS  float64

	// PlantMoisture duplicates Moisture into field8 when non-nil.
	PlantMoisture *int
}

// Uploader sends telemetry.
type Uploader interface {
	Upload(ctx context.Context, s Sample) error
	UploadRuntime(ctx context.Context, runtime time.Duration) error
}

// DefaultURL is the ThingSpeak update endpoint.
const DefaultURL = "https://api.thingspeak.com/update"

// ThingSpeak uploads over HTTP GET with query parameters.
type ThingSpeak struct {
	url        string
	apiKey     string
	runtimeKey string
	httpClient *http.Client
}

// NewThingSpeak creates an uploader. An empty runtimeKey disables the
// runtime channel.
func NewThingSpeak(endpoint, apiKey, runtimeKey string, timeout time.Duration) *ThingSpeak {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ThingSpeak{
		url:        endpoint,
		apiKey:     apiKey,
		runtimeKey: runtimeKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Values encodes a sample as channel fields. field6 is an activity marker
// and is always 1.
func (s Sample) Values() url.Values {
	v := url.Values{}
	v.Set("field1", strconv.Itoa(s.Moisture))
	v.Set("field2", formatFloat(s.TemperatureC))
	v.Set("field3", formatFloat(s.HumidityPct))
	v.Set("field4", formatFloat(s.RainMM))
	v.Set("field5", strconv.Itoa(int(s.IrrigationS)))
	v.Set("field6", "1")
	if s.PlantMoisture != nil {
		v.Set("field8", strconv.Itoa(*s.PlantMoisture))
	}
	return v
}

// Upload sends a sample to the primary channel.
func (t *ThingSpeak) Upload(ctx context.Context, s Sample) error {
	v := s.Values()
	v.Set("api_key", t.apiKey)
	return t.send(ctx, v)
}

// UploadRuntime sends the accumulated pump runtime in whole seconds to the
// runtime channel.
func (t *ThingSpeak) UploadRuntime(ctx context.Context, runtime time.Duration) error {
	if t.runtimeKey == "" {
		return nil
	}
	v := url.Values{}
	v.Set("api_key", t.runtimeKey)
	v.Set("field1", strconv.Itoa(int(runtime/time.Second)))
	return t.send(ctx, v)
}

func (t *ThingSpeak) send(ctx context.Context, params url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating telemetry request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending telemetry: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telemetry server returned status %d", resp.StatusCode)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Nop discards telemetry. It is used when no API key is configured.
type Nop struct{}

func (Nop) Upload(context.Context, Sample) error                { return nil }
func (Nop) UploadRuntime(context.Context, time.Duration) error { return nil }
