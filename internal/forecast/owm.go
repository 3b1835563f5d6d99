package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultOWMEndpoint is the OpenWeatherMap 5 day / 3 hour forecast API.
const DefaultOWMEndpoint = "https://api.openweathermap.org/data/2.5/forecast"

// DefaultBuckets covers the next six hours of 3-hourly buckets.
const DefaultBuckets = 2

// OWMResponse is the subset of the OpenWeatherMap forecast we read.
type OWMResponse struct {
	List []OWMBucket `json:"list"`
}

type OWMBucket struct {
	Dt   int64 `json:"dt"`
	Rain struct {
		ThreeHour float64 `json:"3h"`
	} `json:"rain"`
}

// SumRain totals the rain of the first n buckets.
func (r OWMResponse) SumRain(n int) float64 {
	total := 0.0
	for i, b := range r.List {
		if i >= n {
			break
		}
		total += b.Rain.ThreeHour
	}
	return total
}

// OWM aggregates upcoming rain from OpenWeatherMap for one location.
type OWM struct {
	Endpoint  string
	APIKey    string
	Latitude  float64
	Longitude float64
	Buckets   int

	httpClient *http.Client
}

// NewOWM creates an aggregator. Zero Endpoint and Buckets take defaults.
func NewOWM(apiKey string, lat, lon float64, timeout time.Duration) *OWM {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OWM{
		Endpoint:   DefaultOWMEndpoint,
		APIKey:     apiKey,
		Latitude:   lat,
		Longitude:  lon,
		Buckets:    DefaultBuckets,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RainNext returns the rounded rain sum of the configured buckets.
func (o *OWM) RainNext(ctx context.Context) (float64, error) {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(o.Latitude, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(o.Longitude, 'f', -1, 64))
	v.Set("appid", o.APIKey)
	v.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.Endpoint+"?"+v.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating OpenWeatherMap request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("OpenWeatherMap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("OpenWeatherMap returned status %d", resp.StatusCode)
	}

	var body OWMResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding OpenWeatherMap response: %w", err)
	}

	n := o.Buckets
	if n <= 0 {
		n = DefaultBuckets
	}
	return Round2(body.SumRain(n)), nil
}
