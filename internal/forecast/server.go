package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sweeney/soil-irrigator/internal/log"
)

// RainSource produces the aggregated rain value served by the proxy.
type RainSource interface {
	RainNext(ctx context.Context) (float64, error)
}

// Server exposes GET /chuva.
type Server struct {
	source RainSource
	server *http.Server
}

// NewServer creates a proxy server listening on addr.
func NewServer(addr string, source RainSource) *Server {
	s := &Server{source: source}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/chuva", s.handleRain).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return router
}

func (s *Server) handleRain(w http.ResponseWriter, r *http.Request) {
	mm, err := s.source.RainNext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		log.Warnf("upstream forecast failed: %v", err)
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "upstream forecast unavailable"})
		return
	}
	json.NewEncoder(w).Encode(Response{RainMM: mm})
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Infof("rain forecast proxy listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("forecast proxy error: %v", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
