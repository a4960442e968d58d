// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jcodagnone/geomux/geocode"
	"github.com/jcodagnone/geomux/spatial"
)

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "340 N 12th St" {
			t.Errorf("q = %q", got)
		}

		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q", got)
		}

		if !strings.Contains(r.Header.Get("User-Agent"), "geomux") {
			t.Errorf("User-Agent = %q, want the default identification", r.Header.Get("User-Agent"))
		}

		_, _ = w.Write([]byte(`[
			{"lat": "39.9587", "lon": "-75.1573", "display_name": "340, North 12th Street, Philadelphia", "class": "building", "type": "yes"},
			{"lat": "39.9590", "lon": "-75.1570", "display_name": "a bench", "class": "amenity", "type": "bench"}
		]`))
	}))
	defer srv.Close()

	svc, err := NewNominatim(geocode.Settings{geocode.SettingEndpoint: srv.URL}, nil, nil)
	if err != nil {
		t.Fatalf("NewNominatim() error = %v", err)
	}

	candidates, info := svc.Geocode(context.Background(), geocode.NewQuery("340 N 12th St"))

	if info == nil || !info.Success {
		t.Fatalf("info = %+v", info)
	}

	// the default chain keeps building-level entities only
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %v", len(candidates), candidates)
	}

	c := candidates[0]
	if c.Entity != "building.yes" || c.Locator != geocode.LocatorParcel {
		t.Errorf("candidate = %+v", c)
	}

	if c.X != -75.1573 || c.Y != 39.9587 || c.WKID != 4326 {
		t.Errorf("coordinates = (%g, %g, %d)", c.X, c.Y, c.WKID)
	}
}

func TestNominatimViewbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("viewbox"); got != "-75.3,40.1,-74.9,39.8" {
			t.Errorf("viewbox = %q", got)
		}

		if got := r.URL.Query().Get("bounded"); got != "1" {
			t.Errorf("bounded = %q", got)
		}

		if got := r.URL.Query().Get("countrycodes"); got != "US" {
			t.Errorf("countrycodes = %q", got)
		}

		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc, err := NewNominatim(geocode.Settings{geocode.SettingEndpoint: srv.URL}, nil, nil)
	if err != nil {
		t.Fatalf("NewNominatim() error = %v", err)
	}

	viewbox, err := spatial.NewViewbox(-75.3, 40.1, -74.9, 39.8, 0)
	if err != nil {
		t.Fatalf("NewViewbox() error = %v", err)
	}

	q := geocode.NewQuery("340 N 12th St")
	q.Country = "US"
	q.Viewbox = viewbox
	q.Bounded = true

	_, info := svc.Geocode(context.Background(), q)
	if info == nil || !info.Success {
		t.Errorf("info = %+v", info)
	}
}

func TestNominatimBadCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "not a number", "lon": "-75.1573", "display_name": "x", "class": "building", "type": "yes"}]`))
	}))
	defer srv.Close()

	svc, err := NewNominatim(geocode.Settings{geocode.SettingEndpoint: srv.URL}, nil, nil)
	if err != nil {
		t.Fatalf("NewNominatim() error = %v", err)
	}

	candidates, info := svc.Geocode(context.Background(), geocode.NewQuery("x"))

	if len(candidates) != 0 {
		t.Errorf("candidates = %v", candidates)
	}

	if info == nil || info.Success || info.ErrorType != geocode.ErrorTypeParse {
		t.Errorf("info = %+v, want a parse failure", info)
	}
}

func TestNominatimRangeCollapse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the default pre chain keeps only the first number of a range
		if got := r.URL.Query().Get("q"); got != "4109 Main St" {
			t.Errorf("q = %q", got)
		}

		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	svc, err := NewNominatim(geocode.Settings{geocode.SettingEndpoint: srv.URL}, nil, nil)
	if err != nil {
		t.Fatalf("NewNominatim() error = %v", err)
	}

	_, info := svc.Geocode(context.Background(), geocode.NewQuery("4109-4113 Main St"))
	if info == nil || !info.Success {
		t.Errorf("info = %+v", info)
	}

	if info != nil && info.ProcessedQuery.Query != "4109 Main St" {
		t.Errorf("ProcessedQuery = %+v", info.ProcessedQuery)
	}
}
