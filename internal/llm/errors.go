package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// retryClass says whether and how a failure may be retried.
type retryClass int

const (
	retryBackoff retryClass = iota
	retryOnce
	retryNever
)

// classified is implemented by the error types below.
type classified interface {
	retryClass() retryClass
}

// classify defaults to retrying: transport failures that no vendor mapped
// are assumed transient.
func classify(err error) retryClass {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retryNever
	}
	var c classified
	if errors.As(err, &c) {
		return c.retryClass()
	}
	return retryBackoff
}

// ErrRateLimit is a 429 from the vendor.
type ErrRateLimit struct {
	// RetryAfter is the vendor's requested wait, zero when not given.
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error          { return e.Err }
func (e *ErrRateLimit) retryClass() retryClass { return retryBackoff }

// ErrInvalidResponse is a reply that is not valid JSON or does not match
// the requested schema. Models often get it right on a second try.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error          { return e.Err }
func (e *ErrInvalidResponse) retryClass() retryClass { return retryOnce }

// ErrProviderUnavailable is a vendor outage or an unreachable endpoint.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error          { return e.Err }
func (e *ErrProviderUnavailable) retryClass() retryClass { return retryBackoff }

// ErrMaxTokensExceeded is a structured reply cut off by the token cap.
// The same prompt would be cut off again.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

func (e *ErrMaxTokensExceeded) retryClass() retryClass { return retryNever }

// ErrInvalidRequest is a request the vendor refused: a bad key, an unknown
// model or a malformed prompt.
type ErrInvalidRequest struct {
	StatusCode int
	Err        error
}

func (e *ErrInvalidRequest) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("LLM request rejected: %v", e.Err)
	}
	return fmt.Sprintf("LLM request rejected (status %d): %v", e.StatusCode, e.Err)
}

func (e *ErrInvalidRequest) Unwrap() error          { return e.Err }
func (e *ErrInvalidRequest) retryClass() retryClass { return retryNever }
