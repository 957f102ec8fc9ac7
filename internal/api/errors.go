package api

import "fmt"

// NetworkError wraps a transport failure: connection errors, timeouts, and
// 5xx statuses, which the envelope protocol treats as undeliverable.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// BusinessError reports a response whose transport succeeded but whose
// envelope carried isSuccess=false. Message is the server's human-readable
// explanation, surfaced to the user as-is.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string { return e.Message }

// HTTPError reports a deliverable status whose body was not a valid
// envelope.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string { return fmt.Sprintf("unexpected response with status %d", e.Status) }
