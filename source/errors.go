// Package source provides the resilient analytics-fetch layer.
//
// This file defines failure classification for upstream API calls.
// Classification drives the retry policy: each class has its own backoff
// multiplier and attempt budget. Callers use errors.Is/errors.As for typed
// assertions rather than string matching.
package source

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for upstream failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrRateLimited indicates rate limiting or quota exhaustion (429,
	// "rate limit"/"quota" body heuristics).
	ErrRateLimited = errors.New("rate limited")

	// ErrAuth indicates an authentication or authorization failure (401, 403).
	ErrAuth = errors.New("authentication failed")

	// ErrUpstream indicates a server-side or network failure (5xx, no response).
	ErrUpstream = errors.New("upstream unavailable")

	// ErrExhausted wraps the last failure after the retry budget is spent.
	// Callers treat it as "no data for this sub-request", not a fatal error.
	ErrExhausted = errors.New("retry attempts exhausted")
)

// FailureClass buckets upstream failures for backoff selection.
type FailureClass int

const (
	// ClassOther covers failures with no better classification.
	ClassOther FailureClass = iota
	// ClassRateLimit covers rate-limit and quota failures.
	ClassRateLimit
	// ClassAuth covers authentication/authorization failures.
	ClassAuth
	// ClassServer covers server-side and network failures.
	ClassServer
)

// String returns the class name used in logs.
func (c FailureClass) String() string {
	switch c {
	case ClassRateLimit:
		return "rate_limit"
	case ClassAuth:
		return "auth"
	case ClassServer:
		return "server"
	default:
		return "other"
	}
}

// FetchError wraps an upstream failure with its classification.
// It preserves the original error in the chain for inspection via errors.As.
type FetchError struct {
	// Class is the failure class used for backoff selection.
	Class FailureClass
	// Op is the operation that failed (e.g. "query", "list_profiles").
	Op string
	// Status is the HTTP status code, 0 when no response was received.
	Status int
	// RetryAfter is the server-requested cooldown from a Retry-After
	// header, 0 when absent.
	RetryAfter time.Duration
	// Err is the underlying error.
	Err error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d (%s): %v", e.Op, e.Status, e.Class, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Class, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches a classification sentinel.
func (e *FetchError) Is(target error) bool {
	switch e.Class {
	case ClassRateLimit:
		return target == ErrRateLimited
	case ClassAuth:
		return target == ErrAuth
	case ClassServer:
		return target == ErrUpstream
	default:
		return false
	}
}

// ClassifyStatus determines the failure class from an HTTP status code and
// response body heuristics.
func ClassifyStatus(status int, body string) FailureClass {
	lower := strings.ToLower(body)
	switch {
	case status == 429,
		strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "quota"),
		strings.Contains(lower, "too many requests"):
		return ClassRateLimit
	case status == 401, status == 403:
		return ClassAuth
	case status >= 500:
		return ClassServer
	default:
		return ClassOther
	}
}

// ClassifyErr determines the failure class of a transport-level error
// (request never produced a response). Timeouts, refused connections and
// DNS failures are all server-class: retried with the server multiplier.
func ClassifyErr(err error) FailureClass {
	if err == nil {
		return ClassOther
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Class
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ClassServer
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "quota"):
		return ClassRateLimit
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no route to host"),
		strings.Contains(lower, "network unreachable"),
		strings.Contains(lower, "dial tcp"),
		strings.Contains(lower, "i/o timeout"),
		strings.Contains(lower, "deadline exceeded"),
		strings.Contains(lower, "eof"):
		return ClassServer
	default:
		return ClassOther
	}
}

// RetryAfterOf extracts the server-requested cooldown from an error chain.
// Returns 0 when the failure carried no Retry-After header.
func RetryAfterOf(err error) time.Duration {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.RetryAfter
	}
	return 0
}
