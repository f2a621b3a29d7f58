package entity

import (
	"cloud.google.com/go/civil"
)

// YieldCurvePoint is a single treasury yield observation
type YieldCurvePoint struct {
	Maturity Maturity   `json:"maturity"`
	Yield    float64    `json:"yield"`
	AsOf     civil.Date `json:"as_of"`
}

// NewYieldCurvePoint creates a point for the given maturity, yield (in percent) and date
func NewYieldCurvePoint(maturity Maturity, yield float64, asOf civil.Date) YieldCurvePoint {
	return YieldCurvePoint{
		Maturity: maturity,
		Yield:    yield,
		AsOf:     asOf,
	}
}

// Less orders points by date, then by maturity
func (p YieldCurvePoint) Less(other YieldCurvePoint) bool {
	if p.AsOf != other.AsOf {
		return p.AsOf.Before(other.AsOf)
	}
	return p.Maturity < other.Maturity
}
