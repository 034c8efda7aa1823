package parser

import "fmt"

// MissingFieldError is returned when a mandatory Listing field could not be
// extracted from the input (spec §4.1's ParseMissingField).
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("parser: missing mandatory field %q", e.Field)
}

func missingField(field string) error {
	return &MissingFieldError{Field: field}
}
