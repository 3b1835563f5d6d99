package forecast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mm  float64
	err error
}

func (s stubSource) RainNext(ctx context.Context) (float64, error) {
	return s.mm, s.err
}

func TestServerRain(t *testing.T) {
	s := NewServer(":0", stubSource{mm: 2.5})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chuva", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"chuva_mm": 2.5}`, rec.Body.String())
}

func TestServerUpstreamFailure(t *testing.T) {
	s := NewServer(":0", stubSource{err: errors.New("timeout")})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chuva", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServerRejectsPost(t *testing.T) {
	s := NewServer(":0", stubSource{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chuva", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerRoundTripThroughClient(t *testing.T) {
	srv := httptest.NewServer(NewServer(":0", stubSource{mm: 4.25}).Handler())
	defer srv.Close()

	mm, err := NewClient(srv.URL+"/chuva", 0).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.25, mm)
}

func TestServerFailureReadsAsUnknown(t *testing.T) {
	srv := httptest.NewServer(NewServer(":0", stubSource{err: errors.New("down")}).Handler())
	defer srv.Close()

	assert.Equal(t, -1.0, NewClient(srv.URL+"/chuva", 0).RainMM(context.Background()))
}

func TestFakeForecaster(t *testing.T) {
	f := NewFakeForecaster(3)
	assert.Equal(t, 3.0, f.RainMM(context.Background()))
	assert.Equal(t, 1, f.Calls)
}
