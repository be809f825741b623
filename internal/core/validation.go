package core

// validation.go checks single field values against their column definitions.
//
// Validation happens at two levels:
//  1. Field validation: one value against one column (required, then type)
//  2. Record validation: every declared column of a record, all errors collected
//
// Each column is validated independently, so the result never depends on the
// order columns are checked in. Empty optional values skip the type checks.

import (
	"fmt"
	"regexp"
)

// emailRegex requires local@domain.tld with no whitespace or extra '@'.
// The class mirrors browser \s, which also covers Unicode spaces.
var emailRegex = regexp.MustCompile(`^[^@\s\v\x{FEFF}\p{Z}]+@[^@\s\v\x{FEFF}\p{Z}]+\.[^@\s\v\x{FEFF}\p{Z}]+$`)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`   // Column id
	Value   string `json:"value"`   // The rejected value as text
	Message string `json:"message"` // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateField validates value against col.
// Returns nil if valid, or a ValidationError describing the problem.
func ValidateField(value Value, col Column) error {
	if value.IsBlank() {
		if col.Required {
			return ValidationError{
				Field:   col.ID,
				Value:   value.String(),
				Message: fmt.Sprintf("%s is required", col.Label),
			}
		}
		return nil
	}

	switch col.Type {
	case ColumnNumber:
		if _, ok := value.Number(); ok {
			return nil
		}
		if _, ok := ParseNumber(value.String()); !ok {
			return ValidationError{
				Field:   col.ID,
				Value:   value.String(),
				Message: fmt.Sprintf("%s must be a valid number", col.Label),
			}
		}
	case ColumnEmail:
		if !emailRegex.MatchString(value.String()) {
			return ValidationError{
				Field:   col.ID,
				Value:   value.String(),
				Message: fmt.Sprintf("%s must be a valid email address", col.Label),
			}
		}
	}
	return nil
}

// ValidateRecord validates every column against the matching entry of values
// and returns all errors, in column order. Missing entries are empty.
func ValidateRecord(values map[string]Value, columns []Column) []ValidationError {
	var errs []ValidationError
	for _, col := range columns {
		if err := ValidateField(values[col.ID], col); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	}
	return errs
}
