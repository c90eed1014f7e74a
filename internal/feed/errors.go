package feed

import "fmt"

// The four failure shapes a fetch can produce. They are all handled
// identically at the controller boundary (stored as a display string),
// but callers can still tell them apart with errors.As.

// NetworkError is a transport-level failure: DNS, connection reset,
// timeout. The message comes from the underlying transport.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a response received with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// MalformedJSONError means the response body could not be parsed as JSON.
type MalformedJSONError struct {
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON in announcements document: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error {
	return e.Err
}

// InvalidFormatError means the body parsed as JSON but the top-level
// value is not an array.
type InvalidFormatError struct{}

func (e *InvalidFormatError) Error() string {
	return "announcements document is not a JSON array"
}
