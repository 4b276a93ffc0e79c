package score

import (
	"fmt"
	"math"
)

// Tenths is a score quantized to multiples of 0.1, stored as an integer so
// band comparisons never depend on float rounding. Valid values are 0..10.
type Tenths int

// MaxTenths is the band for a score of 1.0.
const MaxTenths Tenths = 10

// bandEpsilon absorbs representation error such as 0.3 being stored as
// 0.29999999999999998, so a score exactly on a boundary lands in that band.
const bandEpsilon = 1e-9

// BandOf returns the largest tenth that is <= v. Out-of-range and NaN
// inputs are clamped first.
func BandOf(v float64) Tenths {
	v = Clamp(v)
	t := Tenths(math.Floor(v*10 + bandEpsilon))
	if t > MaxTenths {
		return MaxTenths
	}
	if t < 0 {
		return 0
	}
	return t
}

// Float returns the band as a score in [0,1].
func (t Tenths) Float() float64 {
	return float64(t) / 10
}

// String renders the band as a decimal, e.g. "0.3".
func (t Tenths) String() string {
	return fmt.Sprintf("%.1f", t.Float())
}

// Clamp bounds v to [0,1]. NaN is treated as 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
