package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// DefaultClimateAddr is the BME280 address with SDO tied low.
const DefaultClimateAddr = 0x76

// BME280 reads temperature and humidity from a Bosch BME280.
type BME280 struct {
	dev *bmxx80.Dev
}

// NewBME280 probes the sensor and configures the default oversampling.
func NewBME280(bus i2c.Bus, addr uint16) (*BME280, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("open bme280 at %#x: %w", addr, err)
	}
	return &BME280{dev: dev}, nil
}

// Read takes one forced measurement.
func (b *BME280) Read() (Climate, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return Climate{}, fmt.Errorf("bme280 sense: %w", err)
	}
	return Climate{
		TemperatureC: float64(e.Temperature-physic.ZeroCelsius) / float64(physic.Celsius),
		HumidityPct:  float64(e.Humidity) / float64(physic.PercentRH),
	}, nil
}

// Close puts the sensor to sleep.
func (b *BME280) Close() error {
	return b.dev.Halt()
}
