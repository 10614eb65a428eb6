package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError reports malformed numeric filter input.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query: invalid %s %q", e.Field, e.Value)
}

// ParseBound parses a user-entered price bound. Blank input is an absent
// bound. A leading "$", thousands separators and surrounding whitespace are
// accepted; decimals are rounded to the nearest whole unit.
func ParseBound(field, raw string) (*int64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return nil, &ValidationError{Field: field, Value: raw}
	}
	v := int64(math.Round(f))
	return &v, nil
}

// CoerceBound is ParseBound with malformed input treated as unbounded.
func CoerceBound(field, raw string) *int64 {
	v, err := ParseBound(field, raw)
	if err != nil {
		return nil
	}
	return v
}
