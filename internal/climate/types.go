// Package climate keeps the in-memory climate session of one aircon and one room sensor,
// synchronizes it from the cloud API and derives the commands sent back for user intents.
package climate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dokzlo13/remoctl/internal/remo"
)

// Power is the appliance power state
type Power string

const (
	PowerOn  Power = "on"
	PowerOff Power = "off"
)

// Mode is the aircon operating mode
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeCool Mode = "cool"
	ModeWarm Mode = "warm"
	ModeDry  Mode = "dry"
)

// Modes lists the supported modes in display order
var Modes = []Mode{ModeAuto, ModeCool, ModeWarm, ModeDry}

// ParseMode parses an operation mode string as reported by the API
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeCool, ModeWarm, ModeDry:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported mode %q", s)
	}
}

// ParsePower maps the settings button to a power state.
// Only "power-off" means off; the API reports "" or a swing button while running.
func ParsePower(button string) Power {
	if button == remo.ButtonPowerOff {
		return PowerOff
	}
	return PowerOn
}

// ParseTemperature parses the textual target temperature.
// An empty value is the auto-mode sentinel 0.
func ParseTemperature(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid temperature %q", s)
	}
	return SnapHalf(v), nil
}

// SnapHalf rounds v to the nearest multiple of 0.5
func SnapHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

// FormatTemperature renders a temperature the way the API expects it in form bodies
func FormatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Snapshot is a point-in-time read of sensor and appliance state
type Snapshot struct {
	RoomTemperature   float64
	Power             Power
	Mode              Mode
	TargetTemperature float64
}
