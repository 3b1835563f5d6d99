package sensor

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Grove Base Hat ADC registers: 0x10+ch returns the raw 12-bit
// conversion, little endian.
const (
	DefaultSoilAddr = 0x08
	regRaw          = 0x10
)

// I2CSoil reads a capacitive soil probe wired to one channel of an I2C ADC.
type I2CSoil struct {
	dev     i2c.Dev
	channel byte
}

// NewI2CSoil creates a soil reader for channel 0..3 of the ADC at addr.
func NewI2CSoil(bus i2c.Bus, addr uint16, channel int) (*I2CSoil, error) {
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("soil channel %d outside 0..3", channel)
	}
	return &I2CSoil{
		dev:     i2c.Dev{Bus: bus, Addr: addr},
		channel: byte(channel),
	}, nil
}

// ReadRaw returns the conversion scaled down to 10 bits so calibration
// points stay comparable with 10-bit microcontroller ADCs.
func (s *I2CSoil) ReadRaw() (int, error) {
	write := []byte{regRaw + s.channel}
	read := make([]byte, 2)
	if err := s.dev.Tx(write, read); err != nil {
		return 0, fmt.Errorf("read soil adc channel %d: %w", s.channel, err)
	}
	raw := binary.LittleEndian.Uint16(read) & 0x0FFF
	return int(raw >> 2), nil
}
