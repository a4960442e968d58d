// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"testing"
	"time"
)

func TestSettingsMerge(t *testing.T) {
	defaults := Settings{SettingEndpoint: "https://example.com", SettingTimeout: 10}
	overrides := Settings{SettingTimeout: 5, SettingAPIKey: "k"}

	merged := defaults.Merge(overrides)

	if got := merged.Duration(SettingTimeout, 0); got != 5*time.Second {
		t.Errorf("merged timeout = %s, want 5s", got)
	}

	if got := merged.String(SettingEndpoint, ""); got != "https://example.com" {
		t.Errorf("merged endpoint = %q", got)
	}

	if got := merged.String(SettingAPIKey, ""); got != "k" {
		t.Errorf("merged api key = %q", got)
	}

	// the merge must be a fresh map: mutating it cannot leak into defaults
	merged[SettingEndpoint] = "https://other.example.com"

	if got := defaults.String(SettingEndpoint, ""); got != "https://example.com" {
		t.Errorf("defaults polluted by merge: endpoint = %q", got)
	}
}

func TestSettingsDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"duration value", 3 * time.Second, 3 * time.Second},
		{"int counts as seconds", 7, 7 * time.Second},
		{"float counts as seconds", 0.5, 500 * time.Millisecond},
		{"missing falls back", nil, DefaultTimeout},
		{"wrong type falls back", "10", DefaultTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Settings{}
			if tt.val != nil {
				s[SettingTimeout] = tt.val
			}

			if got := s.Duration(SettingTimeout, DefaultTimeout); got != tt.want {
				t.Errorf("Duration() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSettingsRequire(t *testing.T) {
	s := Settings{SettingAPIKey: "k", SettingEndpoint: ""}

	if err := s.Require("svc", SettingAPIKey); err != nil {
		t.Errorf("Require(present) error = %v", err)
	}

	if err := s.Require("svc", SettingEndpoint); err == nil {
		t.Error("Require(empty string) expected an error")
	}

	err := s.Require("svc", "missing_key")
	if err == nil {
		t.Fatal("Require(missing) expected an error")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Component != "svc" {
		t.Errorf("Require() error = %v, want ConfigError for svc", err)
	}
}
