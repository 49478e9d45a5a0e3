// Package flex holds the tolerant numeric parsing shared by every vendor
// client. Vendor payloads mix numbers, numeric strings, empty strings, and
// "N/A"; parse failures coerce to a fallback instead of failing the whole
// aggregation.
package flex

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Float64 handles JSON values that may be either a number or a string.
type Float64 float64

func (f *Float64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = Float64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Float64(ParseOr(s, 0))
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// ParseOr parses a vendor numeric string, returning fallback on anything
// unparsable. Trailing percent signs and thousands separators are stripped
// first ("1.23%" and "1,234.5" both occur in the wild).
func ParseOr(value string, fallback float64) float64 {
	s := strings.TrimSpace(value)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "N/A" || s == "-" {
		return fallback
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return num
}

// ParseIntOr parses a vendor integer string with the same tolerance.
func ParseIntOr(value string, fallback int64) int64 {
	s := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if s == "" || s == "N/A" || s == "-" {
		return fallback
	}
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return int64(ParseOr(s, float64(fallback)))
	}
	return num
}
