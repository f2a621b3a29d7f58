package curve

import (
	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/entity"
)

// InversionStatus summarizes the two spreads commonly used to call a curve inverted
type InversionStatus struct {
	AsOf        civil.Date `json:"as_of"`
	Spread10Y3M float64    `json:"spread_10y_3m"`
	Spread10Y2Y float64    `json:"spread_10y_2y"`
	Inverted    bool       `json:"inverted"`
}

// InversionMaturities are the maturities needed to compute an InversionStatus
var InversionMaturities = []entity.Maturity{entity.ThreeMonths, entity.TwoYears, entity.TenYears}

// Inversion reports the 10Y-3M and 10Y-2Y spreads. The curve is inverted when
// either spread is negative.
func Inversion(c *YieldCurve) (InversionStatus, error) {
	s3m, err := Spread(c, entity.TenYears, entity.ThreeMonths)
	if err != nil {
		return InversionStatus{}, err
	}

	s2y, err := Spread(c, entity.TenYears, entity.TwoYears)
	if err != nil {
		return InversionStatus{}, err
	}

	return InversionStatus{
		AsOf:        c.AsOf(),
		Spread10Y3M: s3m,
		Spread10Y2Y: s2y,
		Inverted:    s3m < 0 || s2y < 0,
	}, nil
}
