package mpesa

import "fmt"

// ValidationError reports malformed or missing caller input. It is returned
// before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "mpesa: " + e.Message
	}
	return fmt.Sprintf("mpesa: %s: %s", e.Field, e.Message)
}

// AuthError reports a failed OAuth token exchange.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mpesa: token exchange failed with status %d: %s", e.StatusCode, e.Body)
	}
	return "mpesa: token exchange failed: " + e.Body
}

// APIError reports a non-2xx gateway response. Body carries the raw response
// text the gateway returned.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mpesa: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// TimeoutError reports a cancelled or timed-out outbound call. The core never
// retries on timeout; compose with the retry package if retries are wanted.
type TimeoutError struct {
	Operation string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("mpesa: %s timed out: %v", e.Operation, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
