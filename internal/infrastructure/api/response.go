package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/damon-houk/yc-central/internal/domain/entity"
)

// YieldResponse represents the response structure from the yield provider
type YieldResponse struct {
	Meta struct {
		Function      string `json:"function"`
		Interval      string `json:"interval"`
		Unit          string `json:"unit"`
		LastRefreshed string `json:"last_refreshed"`
	} `json:"meta"`
	Data map[string]map[string]YieldValue `json:"data"`

	// throttle and error notices sent with HTTP 200
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// YieldValue is a percentage yield sent either as a string ("4.25") or a number.
// "." and "" mark a day without an observation.
type YieldValue struct {
	Value   float64
	Missing bool
}

func (v *YieldValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		v.Missing = true
		return nil
	}

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" || raw == "." {
			v.Missing = true
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid yield value %s", string(b))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite yield value %s", string(b))
	}

	v.Value = f
	return nil
}

// points converts the payload into observations, keeping only the requested
// maturities and dates within [start, end]. Unknown series labels are ignored.
func (r *YieldResponse) points(requested map[entity.Maturity]bool, start, end civil.Date) ([]entity.YieldCurvePoint, error) {
	if r.Data == nil {
		return nil, fmt.Errorf("response has no data section")
	}

	var out []entity.YieldCurvePoint
	for dateKey, byLabel := range r.Data {
		date, err := civil.ParseDate(dateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid observation date %q: %w", dateKey, err)
		}
		if date.Before(start) || date.After(end) {
			continue
		}

		// "3M" and "3month" name the same maturity and must agree
		values := make(map[entity.Maturity]float64, len(byLabel))
		for label, v := range byLabel {
			m, err := entity.ParseMaturity(label)
			if err != nil || !requested[m] || v.Missing {
				continue
			}
			if prev, ok := values[m]; ok && prev != v.Value {
				return nil, fmt.Errorf("conflicting yields for %s on %s: %v and %v", m, dateKey, prev, v.Value)
			}
			values[m] = v.Value
		}
		for m, y := range values {
			out = append(out, entity.NewYieldCurvePoint(m, y, date))
		}
	}

	return out, nil
}
