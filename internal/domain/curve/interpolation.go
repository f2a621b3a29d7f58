package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/damon-houk/yc-central/internal/domain/entity"
)

// ErrOutOfRange is matched by every OutOfRangeError
var ErrOutOfRange = errors.New("maturity outside observed range")

// OutOfRangeError reports a query below the shortest or above the longest
// observed maturity. Yields are never extrapolated.
type OutOfRangeError struct {
	Target float64 // years
	Min    float64 // years
	Max    float64 // years
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("maturity %gY outside observed range [%gY, %gY]", e.Target, e.Min, e.Max)
}

// Is makes errors.Is(err, ErrOutOfRange) hold
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// Interpolate returns the yield at target, linearly interpolated between the
// two bracketing observed maturities
func Interpolate(c *YieldCurve, target entity.Maturity) (float64, error) {
	if c.Len() == 0 {
		return 0, ErrEmptyCurve
	}
	if y, ok := c.Yield(target); ok {
		return y, nil
	}
	return InterpolateYears(c, target.Years())
}

// InterpolateYears is Interpolate for a maturity given in fractional years
func InterpolateYears(c *YieldCurve, years float64) (float64, error) {
	if c.Len() == 0 {
		return 0, ErrEmptyCurve
	}

	lo, hi := c.points[0], c.points[len(c.points)-1]
	if math.IsNaN(years) || years < lo.Maturity.Years() || years > hi.Maturity.Years() {
		return 0, &OutOfRangeError{
			Target: years,
			Min:    lo.Maturity.Years(),
			Max:    hi.Maturity.Years(),
		}
	}

	// first observed maturity >= target
	idx := sort.Search(len(c.points), func(i int) bool {
		return c.points[i].Maturity.Years() >= years
	})

	right := c.points[idx]
	if right.Maturity.Years() == years || idx == 0 {
		return right.Yield, nil
	}

	left := c.points[idx-1]
	x0, x1 := left.Maturity.Years(), right.Maturity.Years()
	return left.Yield + (right.Yield-left.Yield)*(years-x0)/(x1-x0), nil
}

// Slice interpolates every target in order and fails on the first one out of range
func Slice(c *YieldCurve, targets []entity.Maturity) ([]float64, error) {
	out := make([]float64, 0, len(targets))
	for _, m := range targets {
		y, err := Interpolate(c, m)
		if err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, nil
}

// Spread returns yield(long) - yield(short) in percentage points
func Spread(c *YieldCurve, long, short entity.Maturity) (float64, error) {
	ys, err := Slice(c, []entity.Maturity{long, short})
	if err != nil {
		return 0, err
	}
	return ys[0] - ys[1], nil
}
