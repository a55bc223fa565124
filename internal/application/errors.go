package application

import "errors"

var (
	// ErrNotFound is returned when a referenced connection or appointment
	// does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConnectionInactive is returned when an operation targets a
	// deactivated calendar connection.
	ErrConnectionInactive = errors.New("application: calendar connection inactive")
	// ErrNotSynced is returned when an update is requested for an
	// appointment that has never been pushed to the staff calendar. There is
	// no fallback create; the missing external id is a hard precondition.
	ErrNotSynced = errors.New("application: appointment has no staff calendar event")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
