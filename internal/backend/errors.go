package backend

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// APIError carries the backend's error payload for a rejected request.
// Message holds the top-level message when the backend provides one;
// Errors holds field-level validation messages keyed by field name.
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend: request failed with status %d", e.Status)
}

// FirstFieldError returns one field-level validation message, preferring the
// alphabetically first field so the choice is deterministic. Empty when the
// payload carried no field errors.
func (e *APIError) FirstFieldError() string {
	if len(e.Errors) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if msgs := e.Errors[f]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// Unauthorized reports whether the backend rejected the request for lack of
// an authenticated session.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// AsAPIError unwraps err into an *APIError when the failure came from the
// backend rather than from the network.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
