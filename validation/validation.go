package validation

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/diewo77/go-pos/internal/apperr"
)

// Violations maps a field name to a machine readable reason.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns v as an error, or nil when there are no violations.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v Violations) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return "pos: validation failed: " + strings.Join(parts, ", ")
}

func (v Violations) Unwrap() error { return apperr.ErrInvalidArgument }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MinLength(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		v[field] = "too_short"
	}
}

func PositiveInt(field string, val int64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeInt(field string, val int64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_choice"
}
