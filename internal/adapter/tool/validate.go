package tool

import (
	"fmt"
	"strings"
)

// RequireField returns an error if the string value is empty.
func RequireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("'%s' is required", name)
	}
	return nil
}

// ValidatePositive checks that value is > 0.
func ValidatePositive(name string, value float64) error {
	if value <= 0 {
		return fmt.Errorf("'%s' must be > 0", name)
	}
	return nil
}

// ValidateNonNegative checks that value is >= 0.
func ValidateNonNegative(name string, value float64) error {
	if value < 0 {
		return fmt.Errorf("'%s' must be >= 0", name)
	}
	return nil
}

// ValidateEnum checks that value is one of the allowed values. An empty
// value is treated as "not set".
func ValidateEnum(name, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (want: %s)", name, value, strings.Join(allowed, ", "))
}

// ValidateAll returns the first non-nil error.
func ValidateAll(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
