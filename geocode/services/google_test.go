// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcodagnone/geomux/geocode"
)

func TestGoogleGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if got := query.Get("key"); got != "test-key" {
			t.Errorf("key = %q", got)
		}

		// the default pre chain composes the structured fields
		if got := query.Get("address"); got != "340 N 12th St, Philadelphia, PA" {
			t.Errorf("address = %q", got)
		}

		if got := query.Get("components"); got != "country:US" {
			t.Errorf("components = %q", got)
		}

		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "340 N 12th St, Philadelphia, PA 19107, USA",
				"types": ["street_address"],
				"geometry": {
					"location": {"lat": 39.9587, "lng": -75.1573},
					"location_type": "ROOFTOP"
				},
				"address_components": [
					{"long_name": "340", "short_name": "340", "types": ["street_number"]},
					{"long_name": "North 12th Street", "short_name": "N 12th St", "types": ["route"]},
					{"long_name": "Philadelphia", "short_name": "Philadelphia", "types": ["locality", "political"]},
					{"long_name": "Pennsylvania", "short_name": "PA", "types": ["administrative_area_level_1", "political"]},
					{"long_name": "United States", "short_name": "US", "types": ["country", "political"]},
					{"long_name": "19107", "short_name": "19107", "types": ["postal_code"]}
				]
			}]
		}`))
	}))
	defer srv.Close()

	svc, err := NewGoogle(geocode.Settings{
		geocode.SettingAPIKey:   "test-key",
		geocode.SettingEndpoint: srv.URL,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewGoogle() error = %v", err)
	}

	q := geocode.Query{Address: "340 N 12th St", City: "Philadelphia", State: "PA"}
	q.Country = "US"

	candidates, info := svc.Geocode(context.Background(), q)

	if info == nil || !info.Success {
		t.Fatalf("info = %+v", info)
	}

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates", len(candidates))
	}

	c := candidates[0]
	if c.Score != 100 || c.Locator != geocode.LocatorRooftop || c.LocatorType != "ROOFTOP" {
		t.Errorf("candidate = %+v", c)
	}

	if c.Entity != "street_address" {
		t.Errorf("Entity = %q", c.Entity)
	}

	if c.Components == nil {
		t.Fatal("no components")
	}

	if c.Components.StreetAddr != "340 North 12th Street" {
		t.Errorf("StreetAddr = %q", c.Components.StreetAddr)
	}

	// regions and countries use the short form
	if c.Components.Region != "PA" || c.Components.Country != "US" {
		t.Errorf("components = %+v", c.Components)
	}
}

func TestGoogleStatusClassification(t *testing.T) {
	tests := []struct {
		status string
		want   geocode.ErrorType
	}{
		{"OVER_QUERY_LIMIT", geocode.ErrorTypeRateLimit},
		{"REQUEST_DENIED", geocode.ErrorTypeQuotaExceeded},
		{"INVALID_REQUEST", geocode.ErrorTypeInvalidRequest},
		{"UNKNOWN_ERROR", geocode.ErrorTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"status": "` + tt.status + `", "results": []}`))
			}))
			defer srv.Close()

			svc, err := NewGoogle(geocode.Settings{
				geocode.SettingAPIKey:   "test-key",
				geocode.SettingEndpoint: srv.URL,
			}, nil, nil)
			if err != nil {
				t.Fatalf("NewGoogle() error = %v", err)
			}

			_, info := svc.Geocode(context.Background(), geocode.NewQuery("x"))

			if info == nil || info.Success || info.ErrorType != tt.want {
				t.Errorf("info = %+v, want %s", info, tt.want)
			}
		})
	}
}

func TestGoogleZeroResultsIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	svc, err := NewGoogle(geocode.Settings{
		geocode.SettingAPIKey:   "test-key",
		geocode.SettingEndpoint: srv.URL,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewGoogle() error = %v", err)
	}

	candidates, info := svc.Geocode(context.Background(), geocode.NewQuery("nowhere at all"))

	if info == nil || !info.Success {
		t.Errorf("info = %+v, want success with zero matches", info)
	}

	if len(candidates) != 0 {
		t.Errorf("candidates = %v", candidates)
	}
}
