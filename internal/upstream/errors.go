package upstream

import (
	"fmt"
)

// StatusError is returned when the NLP worker answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// PayloadError is returned when a reply body cannot be decoded.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("upstream reply is not valid JSON: %v", e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }
