package gateway

import "fmt"

// RejectedError is a non-2xx answer from the upstream gateway. The body is
// kept verbatim; support triage needs it.
type RejectedError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway rejected request: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("gateway rejected request: %d", e.StatusCode)
}

// UnreachableError is a transport-level failure: no response at all. Distinct
// from RejectedError so callers can tell retryable from non-retryable.
type UnreachableError struct {
	Endpoint string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("gateway unreachable at %s: %v", e.Endpoint, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }
