// Package curve models a treasury yield curve and answers yield queries at
// maturities the provider did not observe.
package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/entity"
)

var (
	// ErrEmptyCurve is returned when a curve is built without points
	ErrEmptyCurve = errors.New("yield curve requires at least one point")
	// ErrDuplicateMaturity is returned when two points share a maturity
	ErrDuplicateMaturity = errors.New("duplicate maturity in yield curve")
	// ErrNonFiniteYield is returned for NaN or infinite yields
	ErrNonFiniteYield = errors.New("yield must be a finite number")
	// ErrMixedDates is returned when points carry different as-of dates
	ErrMixedDates = errors.New("yield curve points must share one as-of date")
)

// YieldCurve is an immutable set of yields observed on one date, ordered by maturity
type YieldCurve struct {
	asOf   civil.Date
	points []entity.YieldCurvePoint
}

// New builds a curve from points sharing one as-of date. The input slice is copied.
func New(points []entity.YieldCurvePoint) (*YieldCurve, error) {
	if len(points) == 0 {
		return nil, ErrEmptyCurve
	}

	sorted := make([]entity.YieldCurvePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Maturity < sorted[j].Maturity
	})

	asOf := sorted[0].AsOf
	for i, p := range sorted {
		if p.AsOf != asOf {
			return nil, fmt.Errorf("%w: %s and %s", ErrMixedDates, asOf, p.AsOf)
		}
		if math.IsNaN(p.Yield) || math.IsInf(p.Yield, 0) {
			return nil, fmt.Errorf("%w: %s on %s", ErrNonFiniteYield, p.Maturity, p.AsOf)
		}
		if i > 0 && sorted[i-1].Maturity == p.Maturity {
			return nil, fmt.Errorf("%w: %s on %s", ErrDuplicateMaturity, p.Maturity, p.AsOf)
		}
	}

	return &YieldCurve{asOf: asOf, points: sorted}, nil
}

// FromObservations groups a flat list of observations into one curve per date,
// ordered by date ascending
func FromObservations(points []entity.YieldCurvePoint) ([]*YieldCurve, error) {
	byDate := make(map[civil.Date][]entity.YieldCurvePoint)
	for _, p := range points {
		byDate[p.AsOf] = append(byDate[p.AsOf], p)
	}

	dates := make([]civil.Date, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	curves := make([]*YieldCurve, 0, len(dates))
	for _, d := range dates {
		c, err := New(byDate[d])
		if err != nil {
			return nil, err
		}
		curves = append(curves, c)
	}

	return curves, nil
}

// AsOf returns the observation date shared by all points
func (c *YieldCurve) AsOf() civil.Date {
	if c == nil {
		return civil.Date{}
	}
	return c.asOf
}

// Len returns the number of observed maturities. A nil or zero curve has none.
func (c *YieldCurve) Len() int {
	if c == nil {
		return 0
	}
	return len(c.points)
}

// Points returns a copy of the observations ordered by maturity
func (c *YieldCurve) Points() []entity.YieldCurvePoint {
	if c.Len() == 0 {
		return nil
	}
	out := make([]entity.YieldCurvePoint, len(c.points))
	copy(out, c.points)
	return out
}

// Maturities returns the observed maturities in ascending order
func (c *YieldCurve) Maturities() []entity.Maturity {
	if c.Len() == 0 {
		return nil
	}
	out := make([]entity.Maturity, len(c.points))
	for i, p := range c.points {
		out[i] = p.Maturity
	}
	return out
}

// MinMaturity returns the shortest observed maturity, 0 for an empty curve
func (c *YieldCurve) MinMaturity() entity.Maturity {
	if c.Len() == 0 {
		return 0
	}
	return c.points[0].Maturity
}

// MaxMaturity returns the longest observed maturity, 0 for an empty curve
func (c *YieldCurve) MaxMaturity() entity.Maturity {
	if c.Len() == 0 {
		return 0
	}
	return c.points[len(c.points)-1].Maturity
}

// Yield returns the observed yield at m, if m was observed
func (c *YieldCurve) Yield(m entity.Maturity) (float64, bool) {
	if c.Len() == 0 {
		return 0, false
	}
	idx := sort.Search(len(c.points), func(i int) bool {
		return c.points[i].Maturity >= m
	})
	if idx < len(c.points) && c.points[idx].Maturity == m {
		return c.points[idx].Yield, true
	}
	return 0, false
}
