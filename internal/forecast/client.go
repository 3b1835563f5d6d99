// Package forecast fetches the rain forecast consumed by the estimator and
// serves the small proxy that aggregates it from OpenWeatherMap.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sweeney/soil-irrigator/internal/log"
	"github.com/sweeney/soil-irrigator/internal/logic"
)

// Forecaster returns forecast rain in millimetres, or logic.RainUnknown
// when no trustworthy value is available.
type Forecaster interface {
	RainMM(ctx context.Context) float64
}

// Response is the proxy's wire format.
type Response struct {
	RainMM float64 `json:"chuva_mm"`
}

// ErrNotObject is returned when the payload is valid JSON but not an object.
var ErrNotObject = errors.New("forecast payload is not a JSON object")

// DefaultTimeout bounds a forecast request.
const DefaultTimeout = 10 * time.Second

// Client reads the proxy endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for url. A zero timeout uses DefaultTimeout.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RainMM implements Forecaster. Every failure is logged and collapses to
// logic.RainUnknown so a missing forecast never reads as "no rain".
func (c *Client) RainMM(ctx context.Context) float64 {
	mm, err := c.Fetch(ctx)
	if err != nil {
		log.Warnf("rain forecast unavailable: %v", err)
		return logic.RainUnknown
	}
	return mm
}

// Fetch performs one request. A missing chuva_mm field is 0mm. The value is
// rounded to two decimals.
func (c *Client) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, fmt.Errorf("reading forecast body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("forecast server returned status %d", resp.StatusCode)
	}

	return ParseRain(body)
}

// ParseRain decodes a proxy payload.
func ParseRain(body []byte) (float64, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return 0, ErrNotObject
		}
		return 0, fmt.Errorf("decoding forecast: %w", err)
	}
	if payload == nil {
		return 0, ErrNotObject
	}

	raw, ok := payload["chuva_mm"]
	if !ok {
		return 0, nil
	}
	var mm float64
	if err := json.Unmarshal(raw, &mm); err != nil {
		return 0, fmt.Errorf("decoding chuva_mm: %w", err)
	}
	if mm < 0 || math.IsNaN(mm) || math.IsInf(mm, 0) {
		return 0, fmt.Errorf("implausible rain forecast %v", mm)
	}
	return Round2(mm), nil
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
