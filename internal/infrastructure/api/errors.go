package api

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRequest is returned before any network call for bad arguments
	ErrInvalidRequest = errors.New("invalid fetch request")
	// ErrRateLimited means the provider signaled throttling. Retried with backoff.
	ErrRateLimited = errors.New("rate limited by provider")
	// ErrInvalidResponse means the payload was malformed or unexpected. Not retried.
	ErrInvalidResponse = errors.New("invalid provider response")
	// ErrNetworkError is a transport-level or provider-side transient failure. Retried with backoff.
	ErrNetworkError = errors.New("network error")
	// ErrUnauthorized means the credential is missing or rejected. Not retried.
	ErrUnauthorized = errors.New("unauthorized")
)

// FetchError describes a failed fetch. errors.Is matches its Kind sentinel.
type FetchError struct {
	Kind       error
	StatusCode int
	Attempts   int
	RetryAfter time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrRateLimited) and friends match on Kind
func (e *FetchError) Is(target error) bool {
	return target == e.Kind
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed
func (e *FetchError) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrNetworkError
}

func kindLabel(kind error) string {
	switch kind {
	case ErrRateLimited:
		return "rate_limited"
	case ErrInvalidResponse:
		return "invalid_response"
	case ErrNetworkError:
		return "network_error"
	case ErrUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// RetryPolicy bounds exponential backoff: delay(n) = min(BaseDelay * 2^(n-1), MaxDelay)
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy allows 5 attempts starting at 1s, capped at 32s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    32 * time.Second,
	}
}

// Backoff returns the delay after the given failed attempt (1-based)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
