package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Float is a float64 that survives JSON encoding when it is not finite.
// NaN and the infinities are written as their strconv spelling ("NaN",
// "+Inf", "-Inf") so the value stays visibly non-numeric instead of failing
// the whole document.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte(strconv.Quote(strconv.FormatFloat(v, 'g', -1, 64))), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON accepts either a JSON number or one of the string spellings
// produced by MarshalJSON.
func (f *Float) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("unquote float: %w", err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse float %q: %w", s, err)
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// FloatPtr returns a pointer to v as a Float.
func FloatPtr(v float64) *Float {
	f := Float(v)
	return &f
}

// Round rounds v half away from zero to the given number of decimal
// places, working on the shortest decimal form of v. Non-finite values pass
// through unchanged.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(int32(places)).Float64()
	return f
}
