// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"fmt"
	"time"
)

// UpstreamResponseInfo describes the outcome of one call to one upstream
// provider. Every invoked service produces exactly one, success or not; a
// service skipped by cancellation produces none.
type UpstreamResponseInfo struct {
	// Service is the name of the upstream provider.
	Service string `json:"service"`

	// ProcessedQuery is the query as it was actually sent, after the
	// service-level preprocessor chain ran.
	ProcessedQuery Query `json:"processed_query"`

	// Success is true when the API call completed and the response was
	// decoded. A 200 response with zero matches is still a success.
	Success bool `json:"success"`

	// ResponseTime is how long the upstream call took.
	ResponseTime time.Duration `json:"response_time"`

	// ErrorType classifies the failure; meaningful only when Success is
	// false.
	ErrorType ErrorType `json:"error_type,omitempty"`

	// Errors holds human-readable failure descriptions.
	Errors []string `json:"errors,omitempty"`
}

func (u *UpstreamResponseInfo) String() string {
	return fmt.Sprintf("<%s success=%t %dms>", u.Service, u.Success, u.ResponseTime.Milliseconds())
}

// Result is the output of one Geocode call. Both slices are always
// non-nil; empty candidates do not imply empty diagnostics, since a
// service can succeed with zero matches.
type Result struct {
	Candidates           []Candidate             `json:"candidates"`
	UpstreamResponseInfo []*UpstreamResponseInfo `json:"upstream_response_info"`
}

func emptyResult() Result {
	return Result{
		Candidates:           []Candidate{},
		UpstreamResponseInfo: []*UpstreamResponseInfo{},
	}
}
