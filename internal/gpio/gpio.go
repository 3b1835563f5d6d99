// Package gpio drives the pump relay with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Relay switches the pump.
type Relay interface {
	// Set drives the relay to the logical state: true = pump running.
	// Setting the current state again is harmless.
	Set(on bool) error

	// Close turns the relay off and releases GPIO resources.
	Close() error
}

// Defaults for a relay HAT on a Raspberry Pi (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 17
)
