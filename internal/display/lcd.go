package display

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// DefaultLCDAddr is the usual address of a PCF8574 LCD backpack.
const DefaultLCDAddr = 0x27

// PCF8574 pin mapping on the common backpack: P0=RS, P2=E, P3=backlight,
// P4..P7=D4..D7.
const (
	pinRS        = 0x01
	pinEnable    = 0x04
	pinBacklight = 0x08
)

// HD44780 commands.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off
	cmdFunctionSet = 0x28 // 4-bit, 2 lines, 5x8
	cmdLine1       = 0x80
	cmdLine2       = 0xC0
)

// Columns is the width of a 16x2 module.
const Columns = 16

// LCD is an HD44780 16x2 character display behind a PCF8574 I2C expander.
type LCD struct {
	dev   i2c.Dev
	sleep func(time.Duration)
}

// NewLCD initialises the controller into 4-bit mode and clears it.
func NewLCD(bus i2c.Bus, addr uint16) (*LCD, error) {
	return newLCD(bus, addr, time.Sleep)
}

func newLCD(bus i2c.Bus, addr uint16, sleep func(time.Duration)) (*LCD, error) {
	l := &LCD{dev: i2c.Dev{Bus: bus, Addr: addr}, sleep: sleep}
	if err := l.init(); err != nil {
		return nil, fmt.Errorf("init lcd at %#x: %w", addr, err)
	}
	return l, nil
}

func (l *LCD) init() error {
	l.sleep(50 * time.Millisecond)

	// Reset sequence: three 8-bit function sets, then switch to 4-bit.
	for _, d := range []time.Duration{4500 * time.Microsecond, 4500 * time.Microsecond, 150 * time.Microsecond} {
		if err := l.writeNibble(0x30, 0); err != nil {
			return err
		}
		l.sleep(d)
	}
	if err := l.writeNibble(0x20, 0); err != nil {
		return err
	}

	for _, c := range []byte{cmdFunctionSet, cmdDisplayOn, cmdClear, cmdEntryMode} {
		if err := l.command(c); err != nil {
			return err
		}
	}
	return nil
}

// Show writes both lines, padded or truncated to the display width.
func (l *LCD) Show(line1, line2 string) error {
	if err := l.writeLine(cmdLine1, line1); err != nil {
		return err
	}
	return l.writeLine(cmdLine2, line2)
}

// Clear blanks the display.
func (l *LCD) Clear() error {
	return l.command(cmdClear)
}

// Close blanks the display and turns the backlight off.
func (l *LCD) Close() error {
	if err := l.Clear(); err != nil {
		return err
	}
	return l.write(0)
}

func (l *LCD) writeLine(addr byte, s string) error {
	if err := l.command(addr); err != nil {
		return err
	}
	for _, c := range fit(s) {
		if err := l.send(c, pinRS); err != nil {
			return err
		}
	}
	return nil
}

func (l *LCD) command(c byte) error {
	if err := l.send(c, 0); err != nil {
		return err
	}
	if c == cmdClear {
		l.sleep(2 * time.Millisecond)
	}
	return nil
}

func (l *LCD) send(b, mode byte) error {
	if err := l.writeNibble(b&0xF0, mode); err != nil {
		return err
	}
	return l.writeNibble((b<<4)&0xF0, mode)
}

// writeNibble latches the high nibble of n on the falling edge of E.
func (l *LCD) writeNibble(n, mode byte) error {
	data := n&0xF0 | mode | pinBacklight
	if err := l.write(data | pinEnable); err != nil {
		return err
	}
	l.sleep(time.Microsecond)
	if err := l.write(data &^ pinEnable); err != nil {
		return err
	}
	l.sleep(50 * time.Microsecond)
	return nil
}

func (l *LCD) write(b byte) error {
	if err := l.dev.Tx([]byte{b}, nil); err != nil {
		return fmt.Errorf("lcd write: %w", err)
	}
	return nil
}

// fit pads or truncates s to the display width, replacing characters the
// HD44780 ROM cannot show.
func fit(s string) []byte {
	out := make([]byte, 0, Columns)
	for _, r := range s {
		if len(out) == Columns {
			break
		}
		if r < 0x20 || r > 0x7E {
			r = '?'
		}
		out = append(out, byte(r))
	}
	for len(out) < Columns {
		out = append(out, ' ')
	}
	return out
}
