package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoAPIKey is returned when neither the server nor the request supplies
// a key for a provider that needs one.
var ErrNoAPIKey = errors.New("API key is required")

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated at MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrRejected indicates the provider refused the request, typically
// because of a bad key or an unsupported model. It is not retried.
type ErrRejected struct {
	Status int
	Err    error
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("LLM request rejected (status %d): %v", e.Status, e.Err)
}

func (e *ErrRejected) Unwrap() error { return e.Err }

// IsServiceError reports whether err came from the AI service rather than
// from the caller's input.
func IsServiceError(err error) bool {
	var (
		rl  *ErrRateLimit
		inv *ErrInvalidResponse
		un  *ErrProviderUnavailable
		mt  *ErrMaxTokensExceeded
		rj  *ErrRejected
	)
	return errors.As(err, &rl) || errors.As(err, &inv) || errors.As(err, &un) ||
		errors.As(err, &mt) || errors.As(err, &rj)
}
