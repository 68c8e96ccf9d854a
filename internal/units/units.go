// Package units provides shared constants and conversion for player
// speed units. The pipeline computes speeds in m/s; reports display
// km/h by default.
package units

// Unit constants
const (
	MPS = "mps"
	KMH = "kmh"
	MPH = "mph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, KMH, MPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// MpsToKmh converts metres per second to kilometres per hour.
func MpsToKmh(speedMPS float64) float64 {
	return speedMPS * 3.6
}

// KmhToMps converts kilometres per hour to metres per second.
func KmhToMps(speedKMH float64) float64 {
	return speedKMH / 3.6
}

// ConvertSpeed converts a speed from metres per second to the target
// units. Pipeline-internal aggregates are always m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * 2.2369362920544
	case KMH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}
