package remo

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaValidation is matched by every *SchemaValidationError.
	ErrSchemaValidation = errors.New("remo: schema validation failed")
	// ErrMissingReading is matched by every *MissingReadingError.
	ErrMissingReading = errors.New("remo: reading not available")
)

// SchemaValidationError reports a device payload that does not match the
// device record schema. Field is a dotted path such as
// "newest_events[te].val" and Expected is the JSON type the field must have.
type SchemaValidationError struct {
	Field    string
	Expected string
	Reason   string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("remo: invalid field %q (expected %s): %s", e.Field, e.Expected, e.Reason)
}

func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// MissingReadingError is returned by the reading accessors when the device
// never reported the requested channel.
type MissingReadingError struct {
	Channel Channel
}

func (e *MissingReadingError) Error() string {
	return fmt.Sprintf("remo: %s (%s) is not set", e.Channel.Name(), string(e.Channel))
}

func (e *MissingReadingError) Is(target error) bool {
	return target == ErrMissingReading
}

// APIError is returned when the Remo cloud API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remo: api returned %s", e.Status)
}
