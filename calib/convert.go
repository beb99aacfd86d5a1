// Package calib computes thermostat calibration offsets from an external room sensor and writes them to
// the thermostats.
package calib

import "math"

// Limits of the TEMPERATURE_OFFSET parameter accepted by the thermostats.
const (
	MaxOffset  = 3.5
	MinOffset  = -3.5
	OffsetStep = 0.5
)

// Offset holds every stage of the offset computation for one thermostat.
type Offset struct {
	Raw     float64 `json:"raw"`
	Rounded float64 `json:"rounded"`
	Device  float64 `json:"device"`
}

// NewOffset computes the offset between the external sensor and the thermostat's own probe.
func NewOffset(external, actual float64) Offset {
	raw := external - actual
	rounded := RoundDelta(raw)
	return Offset{
		Raw:     raw,
		Rounded: rounded,
		Device:  ToDeviceOffset(rounded),
	}
}

// RoundDelta rounds half up to two decimal places.
func RoundDelta(d float64) float64 {
	return math.Floor(d*100+0.5) / 100
}

// ToDeviceOffset rounds d half up to the nearest 0.5 and clamps it to [MinOffset, MaxOffset].
// Example: -2.655 results in -2.5.
func ToDeviceOffset(d float64) float64 {
	v := math.Floor(d/OffsetStep+0.5) * OffsetStep
	if v > MaxOffset {
		v = MaxOffset
	}
	if v < MinOffset {
		v = MinOffset
	}
	return v
}
