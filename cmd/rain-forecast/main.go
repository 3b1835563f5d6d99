// Command rain-forecast serves the rain expected over the next hours for one
// location, aggregated from OpenWeatherMap, as {"chuva_mm": x} on GET /chuva.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/soil-irrigator/internal/forecast"
	"github.com/sweeney/soil-irrigator/internal/log"
)

const envAPIKey = "OWM_API_KEY"

type options struct {
	addr    string
	apiKey  string
	lat     float64
	lon     float64
	buckets int
	timeout time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.addr, "addr", ":8085", "Listen address")
	flag.StringVar(&o.apiKey, "key", os.Getenv(envAPIKey), "OpenWeatherMap API key (default $"+envAPIKey+")")
	flag.Float64Var(&o.lat, "lat", -23.5505, "Latitude")
	flag.Float64Var(&o.lon, "lon", -46.6333, "Longitude")
	flag.IntVar(&o.buckets, "buckets", forecast.DefaultBuckets, "Number of 3-hour forecast buckets to sum")
	flag.DurationVar(&o.timeout, "timeout", forecast.DefaultTimeout, "Upstream request timeout")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(o, sigCh); err != nil {
		log.Errorf("fatal: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func newSource(o options) (*forecast.OWM, error) {
	if o.apiKey == "" {
		return nil, errors.New("no OpenWeatherMap API key: set -key or $" + envAPIKey)
	}
	if o.buckets < 1 {
		return nil, fmt.Errorf("buckets must be at least 1, got %d", o.buckets)
	}
	src := forecast.NewOWM(o.apiKey, o.lat, o.lon, o.timeout)
	src.Buckets = o.buckets
	return src, nil
}

func run(o options, sig <-chan os.Signal) error {
	src, err := newSource(o)
	if err != nil {
		return err
	}

	srv := forecast.NewServer(o.addr, src)
	srv.Start()
	log.Infow("started", "lat", o.lat, "lon", o.lon, "buckets", o.buckets)

	s := <-sig
	log.Infof("received %v, shutting down", s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
