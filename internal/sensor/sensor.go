// Package sensor reads the soil probe and the air climate sensor.
package sensor

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// SoilSensor returns raw ADC counts on the 10-bit scale (0..1023).
type SoilSensor interface {
	ReadRaw() (int, error)
}

// Climate is one air measurement.
type Climate struct {
	TemperatureC float64
	HumidityPct  float64
}

// ClimateSensor measures air temperature and relative humidity.
type ClimateSensor interface {
	Read() (Climate, error)
	Close() error
}

// ErrNoSamples is returned by fakes with nothing scripted.
var ErrNoSamples = errors.New("no samples configured")

// OpenBus initialises the host drivers and opens an I2C bus by name
// ("1" on a Raspberry Pi). An empty name picks the first bus found.
func OpenBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return bus, nil
}
