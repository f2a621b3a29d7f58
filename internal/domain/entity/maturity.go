package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// Maturity is the time remaining until a treasury security repays principal,
// held as a whole number of months so that equal maturities compare equal.
type Maturity int

// Supported maturities of the yield provider
const (
	OneMonth    Maturity = 1
	ThreeMonths Maturity = 3
	SixMonths   Maturity = 6
	OneYear     Maturity = 12
	TwoYears    Maturity = 24
	ThreeYears  Maturity = 36
	FiveYears   Maturity = 60
	SevenYears  Maturity = 84
	TenYears    Maturity = 120
	TwentyYears Maturity = 240
	ThirtyYears Maturity = 360
)

const monthsInYear = 12

var supportedMaturities = []Maturity{
	OneMonth, ThreeMonths, SixMonths,
	OneYear, TwoYears, ThreeYears, FiveYears, SevenYears,
	TenYears, TwentyYears, ThirtyYears,
}

// Months builds a maturity of n months
func Months(n int) Maturity {
	return Maturity(n)
}

// Years builds a maturity of n years
func Years(n int) Maturity {
	return Maturity(n * monthsInYear)
}

// SupportedMaturities returns the provider's maturities in ascending order
func SupportedMaturities() []Maturity {
	out := make([]Maturity, len(supportedMaturities))
	copy(out, supportedMaturities)
	return out
}

// IsSupported reports whether the provider publishes yields for m
func (m Maturity) IsSupported() bool {
	for _, s := range supportedMaturities {
		if s == m {
			return true
		}
	}
	return false
}

// Years returns the maturity as a duration in years
func (m Maturity) Years() float64 {
	return float64(m) / monthsInYear
}

// String renders the provider label, e.g. "3M" or "10Y"
func (m Maturity) String() string {
	if m > 0 && m%monthsInYear == 0 {
		return strconv.Itoa(int(m)/monthsInYear) + "Y"
	}
	return strconv.Itoa(int(m)) + "M"
}

// ParseMaturity parses labels such as "3M", "10Y", "3month" or "10year"
func ParseMaturity(label string) (Maturity, error) {
	s := strings.ToUpper(strings.TrimSpace(label))

	var unit Maturity
	var digits string
	switch {
	case strings.HasSuffix(s, "MONTH"):
		unit, digits = 1, strings.TrimSuffix(s, "MONTH")
	case strings.HasSuffix(s, "YEAR"):
		unit, digits = monthsInYear, strings.TrimSuffix(s, "YEAR")
	case strings.HasSuffix(s, "M"):
		unit, digits = 1, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "Y"):
		unit, digits = monthsInYear, strings.TrimSuffix(s, "Y")
	default:
		return 0, fmt.Errorf("invalid maturity label %q", label)
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid maturity label %q", label)
	}

	return Maturity(n) * unit, nil
}
