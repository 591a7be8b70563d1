package gifapi

import "fmt"

// RequestError reports a failed round-trip: the service answered with an
// "error" field or an unexpected status, the body could not be decoded, or
// the transport itself failed (Err set, StatusCode 0).
type RequestError struct {
	Op         string // e.g. "fetch image"
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	default:
		return e.Op + ": request failed"
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Reason returns the part of the error worth showing to a user: the service's
// own message when there is one, otherwise the underlying cause.
func (e *RequestError) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "request failed"
}
