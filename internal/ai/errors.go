package ai

import (
	"errors"
	"fmt"
)

// Answering outcomes other than success. RateLimited and Timeout are normal
// steady-state conditions: produced before any request is dispatched and
// without touching the retry budget.
var (
	ErrRateLimited    = errors.New("group request quota exceeded")
	ErrTimeout        = errors.New("timed out waiting for a provider slot")
	ErrPromptTooLarge = errors.New("prompt exceeds provider budget")
)

// ProviderError reports a failed provider call: either a non-retryable
// rejection or an exhausted retry budget. Err carries the last underlying
// cause for logging; Detail is safe to surface to operators.
type ProviderError struct {
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Detail, e.Err)
	}
	return "provider error: " + e.Detail
}

func (e *ProviderError) Unwrap() error { return e.Err }

// transientError marks a failure worth retrying (network error, 5xx,
// provider-side rate limit).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }
