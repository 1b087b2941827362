package form

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// FieldErrors maps a field name to its ordered error messages.
// Values are treated as immutable: every change produces a new map.
type FieldErrors map[string][]string

// First returns the first message for field, or "".
func (e FieldErrors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Has reports whether field has at least one message.
func (e FieldErrors) Has(field string) bool {
	return len(e[field]) > 0
}

// Fields returns the field names with messages, sorted.
func (e FieldErrors) Fields() []string {
	names := make([]string, 0, len(e))
	for name, msgs := range e {
		if len(msgs) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Clone returns a deep copy.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for name, msgs := range e {
		out[name] = slices.Clone(msgs)
	}
	return out
}

// Equal reports whether both maps hold the same messages in the same order.
func (e FieldErrors) Equal(other FieldErrors) bool {
	return maps.EqualFunc(e, other, slices.Equal[[]string])
}

// ValidationError is a local (client-only) validation failure for one step.
// It never involves the network.
type ValidationError struct {
	Step   Step
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d invalid: %s", e.Step, strings.Join(e.Fields.Fields(), ", "))
}

// ServerValidationError is a structured rejection from the registration
// endpoint carrying per-field messages.
type ServerValidationError struct {
	StatusCode int
	Message    string
	Fields     FieldErrors
}

func (e *ServerValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("registration rejected (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("registration rejected (HTTP %d): %s", e.StatusCode, strings.Join(e.Fields.Fields(), ", "))
}

// GenericFailureMessage is shown for failures without field-level detail.
const GenericFailureMessage = "Registration failed"

// MapFailure translates a failed submission into the next field error state.
//
// A structured server failure yields a brand-new FieldErrors holding exactly
// the server's fields and messages; prev is discarded. Any other failure
// leaves prev untouched and reports structured=false so the caller can show
// one generic notification instead.
func MapFailure(prev FieldErrors, err error) (next FieldErrors, structured bool) {
	var sve *ServerValidationError
	if !errors.As(err, &sve) || len(sve.Fields) == 0 {
		return prev, false
	}

	next = make(FieldErrors, len(sve.Fields))
	for field, msgs := range sve.Fields {
		if len(msgs) == 0 {
			continue
		}
		next[field] = slices.Clone(msgs)
	}
	if len(next) == 0 {
		return prev, false
	}
	return next, true
}
