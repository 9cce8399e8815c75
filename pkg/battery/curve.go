package battery

import (
	"fmt"
	"sort"

	"golang.org/x/exp/constraints"
)

// Point maps a voltage to a charge level.
type Point struct {
	Millivolts int32
	Percent    uint8
}

// Curve is a discharge curve, sorted by descending voltage.
type Curve []Point

// DefaultCurve approximates a lithium coin cell under light load.
var DefaultCurve = Curve{
	{Millivolts: 3000, Percent: 100},
	{Millivolts: 2900, Percent: 42},
	{Millivolts: 2740, Percent: 18},
	{Millivolts: 2440, Percent: 6},
	{Millivolts: 2100, Percent: 0},
}

// Validate checks that voltages strictly decrease and levels do not rise.
func (c Curve) Validate() error {
	if len(c) < 2 {
		return fmt.Errorf("battery curve needs at least 2 points, got %d", len(c))
	}
	for i := 1; i < len(c); i++ {
		if c[i].Millivolts >= c[i-1].Millivolts {
			return fmt.Errorf("battery curve point %d: voltage must decrease", i)
		}
		if c[i].Percent > c[i-1].Percent {
			return fmt.Errorf("battery curve point %d: level must not increase", i)
		}
		if c[i-1].Percent > 100 {
			return fmt.Errorf("battery curve point %d: level above 100", i-1)
		}
	}
	return nil
}

// Percent interpolates the charge level for mv. Readings outside the curve
// clamp to its end points.
func (c Curve) Percent(mv int32) uint8 {
	if len(c) == 0 {
		return 0
	}
	if mv >= c[0].Millivolts {
		return c[0].Percent
	}
	last := c[len(c)-1]
	if mv <= last.Millivolts {
		return last.Percent
	}

	// First point at or below mv; i >= 1 here.
	i := sort.Search(len(c), func(i int) bool { return c[i].Millivolts <= mv })
	hi, lo := c[i-1], c[i]
	span := hi.Millivolts - lo.Millivolts
	pct := int32(lo.Percent) + (mv-lo.Millivolts)*(int32(hi.Percent)-int32(lo.Percent))/span
	return uint8(clamp(pct, 0, 100))
}

// Percent converts mv with DefaultCurve.
func Percent(mv int32) uint8 {
	return DefaultCurve.Percent(mv)
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
