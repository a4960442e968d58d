// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"testing"
)

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{"free-form only", NewQuery("340 N 12th St Philadelphia PA"), false},
		{"structured only", Query{Address: "340 N 12th St", City: "Philadelphia"}, false},
		{"postal only", Query{Postal: "19107"}, false},
		{"empty", Query{}, true},
		{"country alone is not enough", Query{Country: "US"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %t", err, tt.wantErr)
			}

			if tt.wantErr && !errors.Is(err, ErrEmptyQuery) {
				t.Errorf("Validate() error = %v, want ErrEmptyQuery", err)
			}
		})
	}
}

func TestQuerySingleLine(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "free-form wins",
			q:    Query{Query: "city hall philly", Address: "340 N 12th St"},
			want: "city hall philly",
		},
		{
			name: "full structured",
			q: Query{
				Address: "340 N 12th St", City: "Philadelphia",
				State: "PA", Postal: "19107", Country: "US",
			},
			want: "340 N 12th St, Philadelphia, PA 19107, US",
		},
		{
			name: "postal without state",
			q:    Query{Address: "340 N 12th St", Postal: "19107"},
			want: "340 N 12th St, 19107",
		},
		{
			name: "subregion between city and state",
			q:    Query{Address: "1 Main St", City: "Media", Subregion: "Delaware County", State: "PA"},
			want: "1 Main St, Media, Delaware County, PA",
		},
		{
			name: "empty",
			q:    Query{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.SingleLine(); got != tt.want {
				t.Errorf("SingleLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewQueryTrimsSpace(t *testing.T) {
	if got := NewQuery("  340 N 12th St  ").Query; got != "340 N 12th St" {
		t.Errorf("NewQuery() = %q", got)
	}
}
