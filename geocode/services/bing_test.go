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

func TestNewBingRequiresKey(t *testing.T) {
	t.Setenv("BING_MAPS_API_KEY", "")

	if _, err := NewBing(nil, nil, nil); err == nil {
		t.Error("NewBing() without a key expected an error")
	}

	t.Setenv("BING_MAPS_API_KEY", "env-key")

	if _, err := NewBing(nil, nil, nil); err != nil {
		t.Errorf("NewBing() with env key error = %v", err)
	}
}

func TestBingGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if got := query.Get("key"); got != "test-key" {
			t.Errorf("key = %q", got)
		}

		if got := query.Get("query"); got != "340 N 12th St" {
			t.Errorf("query = %q", got)
		}

		_, _ = w.Write([]byte(`{
			"statusCode": 200,
			"resourceSets": [{"resources": [
				{
					"name": "340 N 12th St, Philadelphia, PA 19107",
					"entityType": "Address",
					"confidence": "High",
					"point": {"coordinates": [39.9587, -75.1573]},
					"address": {
						"addressLine": "340 N 12th St",
						"locality": "Philadelphia",
						"adminDistrict": "PA",
						"postalCode": "19107",
						"countryRegion": "United States"
					}
				},
				{
					"name": "Philadelphia, PA",
					"entityType": "PopulatedPlace",
					"confidence": "Medium",
					"point": {"coordinates": [39.9526, -75.1652]},
					"address": {"locality": "Philadelphia"}
				}
			]}]
		}`))
	}))
	defer srv.Close()

	svc, err := NewBing(geocode.Settings{
		geocode.SettingAPIKey:   "test-key",
		geocode.SettingEndpoint: srv.URL,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewBing() error = %v", err)
	}

	candidates, info := svc.Geocode(context.Background(), geocode.NewQuery("340 N 12th St"))

	if info == nil || !info.Success {
		t.Fatalf("info = %+v", info)
	}

	// the default chain keeps the high-confidence Address and drops the
	// populated place
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates: %v", len(candidates), candidates)
	}

	c := candidates[0]
	if c.Score != 100 || c.LocatorType != "High" || c.Entity != "Address" {
		t.Errorf("candidate = %+v", c)
	}

	// bing sends lat first
	if c.X != -75.1573 || c.Y != 39.9587 {
		t.Errorf("coordinates = (%g, %g)", c.X, c.Y)
	}

	if c.Components == nil || c.Components.Region != "PA" {
		t.Errorf("components = %+v", c.Components)
	}
}

func TestBingUserContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if got := query.Get("culture"); got != "en-US" {
			t.Errorf("culture = %q", got)
		}

		if got := query.Get("userIp"); got != "203.0.113.7" {
			t.Errorf("userIp = %q", got)
		}

		if got := query.Get("userLocation"); got != "39.95,-75.16" {
			t.Errorf("userLocation = %q", got)
		}

		_, _ = w.Write([]byte(`{"statusCode": 200, "resourceSets": []}`))
	}))
	defer srv.Close()

	svc, err := NewBing(geocode.Settings{
		geocode.SettingAPIKey:   "test-key",
		geocode.SettingEndpoint: srv.URL,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewBing() error = %v", err)
	}

	q := geocode.NewQuery("340 N 12th St")
	q.Culture = "en-US"
	q.UserIP = "203.0.113.7"
	q.UserLat, q.UserLon = 39.95, -75.16
	q.HasUserLocation = true

	_, info := svc.Geocode(context.Background(), q)
	if info == nil || !info.Success {
		t.Errorf("info = %+v", info)
	}
}
