// Package display drives the two-line status LCD.
package display

import "fmt"

// Display shows a two-line status.
type Display interface {
	Show(line1, line2 string) error
	Close() error
}

// StatusLines formats the controller status the way the LCD shows it.
func StatusLines(moisture int, tempC float64) (string, string) {
	return "Soil:", fmt.Sprintf("%d%% %.0fC", moisture, tempC)
}
