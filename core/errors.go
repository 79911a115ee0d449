package core

import (
	"errors"
	"sort"
	"strings"
)

// ErrSubmitInFlight is returned by Flow.Submit when a submission is already
// running on the same flow.
var ErrSubmitInFlight = errors.New("submit_in_flight")

// FieldErrors maps form field names to validation error codes. It is returned
// before any provider or action call is made.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, code := range fe {
		parts = append(parts, field+": "+code)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, ", ")
}
