// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout},
		{"wrapped deadline", fmt.Errorf("calling upstream: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"plain error", errors.New("connection refused"), ErrorTypeNetwork},
		{
			"already classified",
			&UpstreamError{Type: ErrorTypeParse, Message: "bad json"},
			ErrorTypeParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTransportError(tt.err); got.Type != tt.want {
				t.Errorf("ClassifyTransportError() = %s, want %s", got.Type, tt.want)
			}
		})
	}
}

func TestIsTimeoutError(t *testing.T) {
	if !IsTimeoutError(&UpstreamError{Type: ErrorTypeTimeout}) {
		t.Error("classified timeout not recognized")
	}

	if !IsTimeoutError(errors.New("context deadline exceeded")) {
		t.Error("deadline message not recognized")
	}

	if IsTimeoutError(errors.New("connection refused")) {
		t.Error("network error misread as a timeout")
	}
}

func TestIsRateLimitError(t *testing.T) {
	if !IsRateLimitError(&UpstreamError{Type: ErrorTypeRateLimit}) {
		t.Error("classified rate limit not recognized")
	}

	if !IsRateLimitError(errors.New("got 429 from upstream")) {
		t.Error("429 message not recognized")
	}

	if IsRateLimitError(&UpstreamError{Type: ErrorTypeTimeout}) {
		t.Error("timeout misread as a rate limit")
	}
}

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		t    ErrorType
		want string
	}{
		{ErrorTypeRateLimit, "rate_limit"},
		{ErrorTypeQuotaExceeded, "quota_exceeded"},
		{ErrorTypeTimeout, "timeout"},
		{ErrorTypeUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.t, got, tt.want)
		}
	}
}
