// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcodagnone/geomux/geocode"
	"github.com/jcodagnone/geomux/spatial"
)

func mustViewbox(t *testing.T) *spatial.Viewbox {
	t.Helper()

	v, err := spatial.NewViewbox(-75.3, 40.1, -74.9, 39.8, 0)
	if err != nil {
		t.Fatalf("NewViewbox() error = %v", err)
	}

	return v
}

func TestPeliasSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("path = %q", r.URL.Path)
		}

		query := r.URL.Query()

		if got := query.Get("text"); got != "340 N 12th St" {
			t.Errorf("text = %q", got)
		}

		if got := query.Get("api_key"); got != "ge-key" {
			t.Errorf("api_key = %q", got)
		}

		if got := query.Get("boundary.country"); got != "US" {
			t.Errorf("boundary.country = %q", got)
		}

		_, _ = w.Write([]byte(`{
			"features": [{
				"geometry": {"coordinates": [-75.1573, 39.9587]},
				"properties": {
					"label": "340 N 12th St, Philadelphia, PA, USA",
					"confidence": 0.95,
					"match_type": "exact",
					"layer": "address",
					"housenumber": "340",
					"street": "N 12th St",
					"locality": "Philadelphia",
					"region": "Pennsylvania",
					"postalcode": "19107",
					"country_a": "USA"
				}
			}]
		}`))
	}))
	defer srv.Close()

	svc, err := NewPelias(geocode.Settings{
		SettingInstanceURL:    srv.URL,
		geocode.SettingAPIKey: "ge-key",
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewPelias() error = %v", err)
	}

	q := geocode.NewQuery("340 N 12th St")
	q.Country = "US"

	candidates, info := svc.Geocode(context.Background(), q)

	if info == nil || !info.Success {
		t.Fatalf("info = %+v", info)
	}

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates", len(candidates))
	}

	c := candidates[0]
	if c.Score != 95 || c.Locator != geocode.LocatorRooftop || c.Entity != "address" {
		t.Errorf("candidate = %+v", c)
	}

	if c.X != -75.1573 || c.Y != 39.9587 {
		t.Errorf("coordinates = (%g, %g)", c.X, c.Y)
	}

	if c.Components == nil || c.Components.StreetAddr != "340 N 12th St" {
		t.Errorf("components = %+v", c.Components)
	}
}

func TestPeliasPlaceByGid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/place" {
			t.Errorf("path = %q", r.URL.Path)
		}

		if got := r.URL.Query().Get("ids"); got != "openaddresses:address:us/pa/philadelphia:a1b2" {
			t.Errorf("ids = %q", got)
		}

		_, _ = w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	svc, err := NewPelias(geocode.Settings{SettingInstanceURL: srv.URL}, nil, nil)
	if err != nil {
		t.Fatalf("NewPelias() error = %v", err)
	}

	q := geocode.NewQuery("whatever")
	q.Key = "openaddresses:address:us/pa/philadelphia:a1b2"

	_, info := svc.Geocode(context.Background(), q)
	if info == nil || !info.Success {
		t.Errorf("info = %+v", info)
	}
}

func TestPeliasBoundedViewbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if got := query.Get("boundary.rect.min_lon"); got != "-75.3" {
			t.Errorf("min_lon = %q", got)
		}

		if got := query.Get("boundary.rect.max_lat"); got != "40.1" {
			t.Errorf("max_lat = %q", got)
		}

		_, _ = w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	svc, err := NewPelias(geocode.Settings{SettingInstanceURL: srv.URL}, nil, nil)
	if err != nil {
		t.Fatalf("NewPelias() error = %v", err)
	}

	q := geocode.NewQuery("340 N 12th St")
	q.Viewbox = mustViewbox(t)
	q.Bounded = true

	_, info := svc.Geocode(context.Background(), q)
	if info == nil || !info.Success {
		t.Errorf("info = %+v", info)
	}
}
