// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Custom"); got != "value" {
			t.Errorf("X-Custom = %q", got)
		}

		if got := r.Header.Get("User-Agent"); got != "geomux-test" {
			t.Errorf("User-Agent = %q", got)
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{
		Transport: &AppendRequestHeadersRoundTripper{
			Transport: http.DefaultTransport,
			Headers:   map[string]string{"X-Custom": "value", "User-Agent": "geomux-test"},
		},
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	resp.Body.Close()
}

func TestLoggingRoundTripper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var buf strings.Builder

	client := &http.Client{
		Transport: &LoggingRoundTripper{
			Transport: http.DefaultTransport,
			Writer:    &buf,
		},
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	resp.Body.Close()

	out := buf.String()

	if !strings.Contains(out, "> GET /") {
		t.Errorf("trace misses the request line:\n%s", out)
	}

	if !strings.Contains(out, "418") {
		t.Errorf("trace misses the response status:\n%s", out)
	}
}

func TestLoggingRoundTripperNilWriter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{
		Transport: &LoggingRoundTripper{Transport: http.DefaultTransport},
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	resp.Body.Close()
}
