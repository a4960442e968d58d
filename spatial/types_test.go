// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Point
		want      float64
		tolerance float64
	}{
		{
			name: "same point",
			a:    Point{Lat: 39.95, Lng: -75.16},
			b:    Point{Lat: 39.95, Lng: -75.16},
			want: 0, tolerance: 0.001,
		},
		{
			name: "one degree of latitude",
			a:    Point{Lat: 0, Lng: 0},
			b:    Point{Lat: 1, Lng: 0},
			want: 111195, tolerance: 10,
		},
		{
			name: "philadelphia city hall to liberty bell",
			a:    Point{Lat: 39.952583, Lng: -75.165222},
			b:    Point{Lat: 39.949610, Lng: -75.150282},
			want: 1315, tolerance: 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.HaversineDistance(&tt.b)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineDistance() = %f, want %f ± %f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestPointScan(t *testing.T) {
	var p Point
	if err := p.Scan([]byte("POINT (-56.152960 -34.882237)")); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if p.Lng != -56.15296 || p.Lat != -34.882237 {
		t.Errorf("Scan() = %+v, want lng=-56.15296 lat=-34.882237", p)
	}

	if err := p.Scan(map[string]interface{}{"x": -75.16, "y": 39.95}); err != nil {
		t.Fatalf("Scan(map) error = %v", err)
	}

	if p.Lng != -75.16 || p.Lat != 39.95 {
		t.Errorf("Scan(map) = %+v, want lng=-75.16 lat=39.95", p)
	}

	if err := p.Scan(42); err == nil {
		t.Error("Scan(int) expected an error")
	}
}

func TestViewbox(t *testing.T) {
	v, err := NewViewbox(-75.3, 40.1, -74.9, 39.8, 0)
	if err != nil {
		t.Fatalf("NewViewbox() error = %v", err)
	}

	if v.WKID != WGS84 {
		t.Errorf("WKID = %d, want %d", v.WKID, WGS84)
	}

	if !v.Contains(Point{Lat: 39.95, Lng: -75.16}) {
		t.Error("Contains() = false for a point inside the box")
	}

	if v.Contains(Point{Lat: 41, Lng: -75.16}) {
		t.Error("Contains() = true for a point north of the box")
	}

	if _, err := NewViewbox(-74.9, 40.1, -75.3, 39.8, 0); err == nil {
		t.Error("NewViewbox() with left > right expected an error")
	}

	if _, err := NewViewbox(-75.3, 39.8, -74.9, 40.1, 0); err == nil {
		t.Error("NewViewbox() with bottom > top expected an error")
	}
}
