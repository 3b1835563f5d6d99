package logic

import (
	"fmt"
	"strings"
)

// Band is a closed numeric interval used to shape membership functions.
type Band struct {
	Low  float64
	High float64
}

// Mid returns the midpoint of the band.
func (b Band) Mid() float64 {
	return (b.Low + b.High) / 2
}

// MoistureBands holds the soil-moisture bands of a plant profile, in percent.
// Dry, Moderate and Wet shape the fuzzy estimator; Target drives the pump:
// irrigation starts below Target.Low and saturation is Target.High.
type MoistureBands struct {
	Dry      Band
	Moderate Band
	Wet      Band
	Target   Band
}

// TemperatureBands holds the air-temperature bands of a plant profile, in °C.
type TemperatureBands struct {
	Cold Band
	Mild Band
	Hot  Band
}

// Bands is the band configuration resolved from a Profile.
type Bands struct {
	Moisture    MoistureBands
	Temperature TemperatureBands
}

// Profile is a supported plant profile.
type Profile int

const (
	ProfileGeneric Profile = iota
	ProfileLettuce
)

var profileNames = map[Profile]string{
	ProfileGeneric: "generic",
	ProfileLettuce: "lettuce",
}

var profileBands = map[Profile]Bands{
	ProfileGeneric: {
		Moisture: MoistureBands{
			Dry:      Band{0, 30},
			Moderate: Band{20, 80},
			Wet:      Band{70, 100},
			Target:   Band{90, 90},
		},
		Temperature: TemperatureBands{
			Cold: Band{10, 20},
			Mild: Band{21, 30},
			Hot:  Band{31, 41},
		},
	},
	ProfileLettuce: {
		Moisture: MoistureBands{
			Dry:      Band{0, 50},
			Moderate: Band{40, 80},
			Wet:      Band{70, 100},
			Target:   Band{60, 65},
		},
		Temperature: TemperatureBands{
			Cold: Band{0, 17},
			Mild: Band{18, 24},
			Hot:  Band{25, 35},
		},
	},
}

// String returns the profile's configuration name.
func (p Profile) String() string {
	if name, ok := profileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// Bands returns the band configuration for the profile.
func (p Profile) Bands() Bands {
	return profileBands[p]
}

// ParseProfile resolves a configuration name to a Profile.
// "alface" is accepted as an alias for lettuce.
func ParseProfile(name string) (Profile, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ProfileGeneric, nil
	}
	if n == "alface" {
		return ProfileLettuce, nil
	}
	for p, pn := range profileNames {
		if pn == n {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown plant profile %q", name)
}
