package validation

import (
	"errors"
	"testing"

	"github.com/diewo77/go-pos/internal/apperr"
)

func TestValidators(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	MinLength("username", "ab", 3, v)
	PositiveInt("price", 0, v)
	NonNegativeInt("quantity", -1, v)
	OneOf("role", "OWNER", []string{"ADMIN", "EMPLOYEE"}, v)

	want := map[string]string{
		"name":     "required",
		"username": "too_short",
		"price":    "must_be_positive",
		"quantity": "must_not_be_negative",
		"role":     "invalid_choice",
	}
	for field, reason := range want {
		if v[field] != reason {
			t.Errorf("%s = %q, want %q", field, v[field], reason)
		}
	}
}

func TestValidInputProducesNoViolations(t *testing.T) {
	v := Violations{}
	Required("name", "Cola", v)
	MinLength("username", "bob", 3, v)
	PositiveInt("price", 1, v)
	NonNegativeInt("quantity", 0, v)
	OneOf("role", "ADMIN", []string{"ADMIN", "EMPLOYEE"}, v)
	if !v.Empty() {
		t.Fatalf("expected no violations, got %v", v)
	}
	if v.Err() != nil {
		t.Fatalf("Err() should be nil for empty violations")
	}
}

func TestViolationsAsError(t *testing.T) {
	v := Violations{"price": "must_be_positive", "name": "required"}
	err := v.Err()
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument kind, got %v", err)
	}
	if got, want := err.Error(), "pos: validation failed: name: required, price: must_be_positive"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	var target Violations
	if !errors.As(err, &target) || target["name"] != "required" {
		t.Fatalf("errors.As should recover the violations map")
	}
}
