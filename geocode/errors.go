// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ConfigError reports an invalid or missing setting detected while
// building a Geocoder or a service adapter. It is the only error class
// surfaced to callers: once construction succeeds, Geocode never fails.
type ConfigError struct {
	Component string // geocoder or service name
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

func configErrorf(component, format string, args ...any) error {
	return &ConfigError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError represents a failed upstream call, classified so callers
// inspecting diagnostics can tell a timeout from a quota problem.
type UpstreamError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies upstream failures.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit means the provider throttled us.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded means the quota ran out or access was denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout means the call exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeNotFound means the provider endpoint was not found.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest means the provider rejected the request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetwork is a transport-level failure.
	ErrorTypeNetwork
	// ErrorTypeParse means the response body could not be decoded.
	ErrorTypeParse
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeParse:
		return "parse"
	default:
		return "unknown"
	}
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsTimeoutError reports whether the error was classified as a timeout.
func IsTimeoutError(err error) bool {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsRateLimitError reports whether the error was classified as throttling.
func IsRateLimitError(err error) bool {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// ClassifyHTTPError maps a non-200 response to an upstream error.
func ClassifyHTTPError(statusCode int) *UpstreamError {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &UpstreamError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden:
		return &UpstreamError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest:
		return &UpstreamError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound:
		return &UpstreamError{
			Type:    ErrorTypeNotFound,
			Message: "endpoint not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &UpstreamError{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &UpstreamError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}

// ClassifyTransportError maps a transport failure to an upstream error.
// Deadline expiry, whether from the context or the socket, classifies as
// a timeout so a hung provider is distinguishable from an unreachable one.
func ClassifyTransportError(err error) *UpstreamError {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Type: ErrorTypeTimeout, Message: "request timed out", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &UpstreamError{Type: ErrorTypeTimeout, Message: "request timed out", Err: err}
	}

	return &UpstreamError{Type: ErrorTypeNetwork, Message: "transport failure", Err: err}
}
