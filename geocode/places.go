// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode implements the geocoding pipeline: a Query is normalized
// by a chain of preprocessors, dispatched to one or more upstream
// geocoding services, and the merged candidates are reduced by a chain of
// postprocessors. Wire formats live in the service adapters; this package
// only knows the shared vocabulary.
package geocode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jcodagnone/geomux/spatial"
)

// Query represents an address or place to be geocoded. It is built once
// per Geocode call, rewritten (by value) by preprocessors, and read-only
// for every service adapter.
type Query struct {
	// Query is the free-form, single-line form of the search,
	// e.g. "340 N 12th St Philadelphia PA 19107".
	Query string `json:"query,omitempty"`

	// Structured address fields. A query may carry either the single-line
	// form, the structured form, or both.
	Address      string `json:"address,omitempty"`      // street line, e.g. "340 N 12th St"
	Neighborhood string `json:"neighborhood,omitempty"` // city subdivision, unused in US addresses
	City         string `json:"city,omitempty"`
	Subregion    string `json:"subregion,omitempty"` // between city and state, e.g. county
	State        string `json:"state,omitempty"`     // state, province, territory
	Postal       string `json:"postal,omitempty"`
	Country      string `json:"country,omitempty"` // ISO alpha-2 preferred

	// Viewbox is the preferred area for results. When Bounded is set,
	// services that support it only return candidates inside the box.
	Viewbox *spatial.Viewbox `json:"viewbox,omitempty"`
	Bounded bool             `json:"bounded,omitempty"`

	// Key is an upstream-specific disambiguation hint, such as an Esri
	// magicKey from the suggest endpoint or a Pelias place id.
	Key string `json:"key,omitempty"`

	// Optional end-user context forwarded to services that accept it.
	Culture string  `json:"culture,omitempty"`
	UserIP  string  `json:"user_ip,omitempty"`
	UserLat float64 `json:"user_lat,omitempty"`
	UserLon float64 `json:"user_lon,omitempty"`

	// HasUserLocation distinguishes a (0, 0) user location from an
	// absent one.
	HasUserLocation bool `json:"-"`
}

// NewQuery wraps a raw single-line address into a Query.
func NewQuery(text string) Query {
	return Query{Query: strings.TrimSpace(text)}
}

// ErrEmptyQuery is returned by Validate when a query has no usable content.
var ErrEmptyQuery = errors.New("must provide query or one or more of address, city, state, and postal")

// Validate reports whether the query carries enough content to be sent to
// an upstream service.
func (q Query) Validate() error {
	if q.Query == "" && q.Address == "" && q.City == "" && q.State == "" && q.Postal == "" {
		return ErrEmptyQuery
	}

	return nil
}

// SingleLine composes the structured fields into a single-line string.
// The free-form Query field wins when set.
func (q Query) SingleLine() string {
	if q.Query != "" {
		return q.Query
	}

	parts := make([]string, 0, 5)

	for _, p := range []string{q.Address, q.City, q.Subregion} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	statePostal := strings.TrimSpace(q.State + " " + q.Postal)
	if statePostal != "" {
		parts = append(parts, statePostal)
	}

	if q.Country != "" {
		parts = append(parts, q.Country)
	}

	return strings.Join(parts, ", ")
}

func (q Query) String() string {
	return fmt.Sprintf("<%s%s %s>", q.Query, q.Address, q.Postal)
}
