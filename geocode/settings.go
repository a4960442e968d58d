// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"time"
)

// Well-known setting keys shared by the service adapters.
const (
	SettingAPIKey         = "api_key"
	SettingEndpoint       = "endpoint"
	SettingTimeout        = "timeout"
	SettingRequestHeaders = "request_headers"
	SettingHTTPTrace      = "http_trace"
)

// DefaultTimeout bounds an upstream call when no per-service timeout is
// configured.
const DefaultTimeout = 10 * time.Second

// Settings is the configuration map supplied to a service adapter at
// construction. Instance settings override adapter defaults key by key;
// a merge always produces a fresh map, so adapter defaults can never be
// polluted by one instance's overrides.
type Settings map[string]any

// Merge returns a new Settings with the receiver's entries replaced, key
// by key, by the overrides. Neither input is modified.
func (s Settings) Merge(overrides Settings) Settings {
	merged := make(Settings, len(s)+len(overrides))

	for k, v := range s {
		merged[k] = v
	}

	for k, v := range overrides {
		merged[k] = v
	}

	return merged
}

// String returns the string value for key, or fallback when absent or of
// another type.
func (s Settings) String(key, fallback string) string {
	if v, ok := s[key].(string); ok {
		return v
	}

	return fallback
}

// Bool returns the bool value for key, or fallback.
func (s Settings) Bool(key string, fallback bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}

	return fallback
}

// Duration returns the duration for key. Plain integers count as seconds,
// matching how timeouts are written in configuration files.
func (s Settings) Duration(key string, fallback time.Duration) time.Duration {
	switch v := s[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	default:
		return fallback
	}
}

// Headers returns the request-header map for key, or nil.
func (s Settings) Headers(key string) map[string]string {
	if v, ok := s[key].(map[string]string); ok {
		return v
	}

	return nil
}

// Require verifies that every named key is present and non-empty.
// It returns a ConfigError naming the first missing key.
func (s Settings) Require(component string, keys ...string) error {
	for _, key := range keys {
		v, ok := s[key]
		if !ok || v == nil {
			return configErrorf(component, "required setting %q is missing", key)
		}

		if str, isStr := v.(string); isStr && str == "" {
			return configErrorf(component, "required setting %q is empty", key)
		}
	}

	return nil
}
