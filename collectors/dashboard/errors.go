package dashboard

import (
	"errors"
	"fmt"
	"net/http"
)

var errInvalidJSON = errors.New("invalid JSON (empty or truncated response)")

// StatusError represents a non-success HTTP response from the dashboard API.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("dashboard API error: HTTP %s", status)
}

// DecodeError is returned when a non-empty response body cannot be parsed.
type DecodeError struct {
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("dashboard API decode (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is a StatusError.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// IsDecode reports whether err is a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
