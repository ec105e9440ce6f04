package twitter

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMaxRetries is returned when the retry budget ran out without a
// classifiable last failure.
var ErrMaxRetries = errors.New("Max retries exceeded") //nolint:staticcheck

// ValidationError reports missing action arguments. Its message is shown to
// the model verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RateLimitedError is returned after every attempt was answered with HTTP 429.
type RateLimitedError struct {
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return "Rate limit exceeded. Please try again later."
}

// RequestError is returned after every attempt failed with a transport error
// (Status == 0) or a server error.
type RequestError struct {
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Request failed: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("Request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusError is a non-retryable error response from the platform.
type StatusError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// ResolutionError means no recent post contained the requested text.
type ResolutionError struct {
	Text string
}

func (e *ResolutionError) Error() string {
	return "Could not find recent tweet containing: " + e.Text
}

// Step names the request that failed inside an action.
type Step string

const (
	StepCredentials Step = "credentials"
	StepPost        Step = "post"
	StepReply       Step = "reply"
	StepUserLookup  Step = "user_lookup"
	StepTimeline    Step = "timeline"
	StepDelete      Step = "delete"
)

// StepError attaches the failing step to an action error.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
