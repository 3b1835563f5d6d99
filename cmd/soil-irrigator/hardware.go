package main

import (
	"fmt"
	"io"

	"github.com/sweeney/soil-irrigator/internal/config"
	"github.com/sweeney/soil-irrigator/internal/display"
	"github.com/sweeney/soil-irrigator/internal/gpio"
	"github.com/sweeney/soil-irrigator/internal/log"
	"github.com/sweeney/soil-irrigator/internal/sensor"
)

// hardware is the set of devices opened for one boot.
type hardware struct {
	soil    sensor.SoilSensor
	climate sensor.ClimateSensor
	relay   gpio.Relay
	display display.Display

	// closers are released in reverse order.
	closers []io.Closer
}

// openHardware opens every device. The LCD is optional: a missing display
// is logged and the loop runs without one. Any other failure releases what
// was already opened.
func openHardware(cfg config.Config) (_ *hardware, err error) {
	hc := cfg.Hardware
	if hc.Fake {
		return fakeHardware(cfg), nil
	}

	hw := &hardware{}
	defer func() {
		if err != nil {
			hw.Close()
		}
	}()

	relay, err := gpio.NewRealRelay(hc.RelayChip, hc.RelayLine, hc.RelayActiveLow)
	if err != nil {
		return nil, fmt.Errorf("init relay: %w", err)
	}
	hw.relay = relay
	hw.closers = append(hw.closers, relay)

	bus, err := sensor.OpenBus(hc.I2CBus)
	if err != nil {
		return nil, err
	}
	hw.closers = append(hw.closers, bus)

	soil, err := sensor.NewI2CSoil(bus, hc.SoilAddr, hc.SoilChannel)
	if err != nil {
		return nil, fmt.Errorf("init soil sensor: %w", err)
	}
	hw.soil = soil

	climate, err := sensor.NewBME280(bus, hc.ClimateAddr)
	if err != nil {
		return nil, fmt.Errorf("init climate sensor: %w", err)
	}
	hw.climate = climate
	hw.closers = append(hw.closers, climate)

	lcd, err := display.NewLCD(bus, hc.LCDAddr)
	if err != nil {
		log.Warnf("lcd unavailable, continuing without display: %v", err)
	} else {
		hw.display = lcd
		hw.closers = append(hw.closers, lcd)
	}

	return hw, nil
}

// fakeHardware reports a constant mid-range soil reading and mild air.
func fakeHardware(cfg config.Config) *hardware {
	cal := cfg.Calibration
	relay := gpio.NewFakeRelay()
	climate := sensor.NewFakeClimate(22, 55)
	lcd := display.NewFakeDisplay()
	return &hardware{
		soil:    sensor.NewFakeSoil((cal.DryRaw + cal.WetRaw) / 2),
		climate: climate,
		relay:   relay,
		display: lcd,
		closers: []io.Closer{relay, climate, lcd},
	}
}

// Close releases every device, the relay last so the pump is switched off
// even when another device fails to close.
func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			log.Warnf("close device: %v", err)
		}
	}
	h.closers = nil
}
