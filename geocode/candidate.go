// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"fmt"

	"github.com/jcodagnone/geomux/spatial"
)

// Standardized locator values. Services map their native match methods
// onto these so postprocessors can compare candidates across providers.
const (
	LocatorRooftop        = "rooftop"
	LocatorParcel         = "parcel"
	LocatorInterpolation  = "interpolation"
	LocatorPostalSpecific = "postal_specific"
	LocatorPostal         = "postal"
)

// AddressComponents is the decomposed form of a matched address. Services
// that can break a match apart populate it; the rest leave it nil.
type AddressComponents struct {
	StreetAddr string `json:"street_addr,omitempty"` // e.g. "340 N 12th St"
	City       string `json:"city,omitempty"`
	Subregion  string `json:"subregion,omitempty"` // county
	Region     string `json:"region,omitempty"`    // state / province
	Postal     string `json:"postal,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Candidate is one match proposed by exactly one upstream service.
// Candidates are immutable once produced; postprocessors build new slices
// rather than rewriting elements in place.
type Candidate struct {
	// X and Y are the coordinates in the spatial reference named by WKID
	// (longitude and latitude for WGS84).
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	WKID int     `json:"wkid"`

	// Score is the match confidence normalized to [0, 100] regardless of
	// the provider's native scale.
	Score float64 `json:"score"`

	// MatchAddr is the human-readable address the provider matched.
	MatchAddr string `json:"match_addr"`

	// Locator is the standardized match method (see the Locator constants);
	// LocatorType is the provider's native value, kept for filtering.
	Locator     string `json:"locator,omitempty"`
	LocatorType string `json:"locator_type,omitempty"`

	// Entity classifies what was matched, e.g. Nominatim's "place.house"
	// or Bing's "Address".
	Entity string `json:"entity,omitempty"`

	// Service names the upstream provider that produced this candidate.
	Service string `json:"service"`

	// Components is present only for services able to decompose matches.
	Components *AddressComponents `json:"components,omitempty"`

	// PartialMatch is set when the provider flagged the result as not
	// covering the whole request.
	PartialMatch bool `json:"partial_match,omitempty"`
}

// Point returns the candidate location as a WGS84 point. Callers comparing
// distances must use this, never the string form of the coordinates.
func (c Candidate) Point() spatial.Point {
	return spatial.Point{Lat: c.Y, Lng: c.X}
}

func (c Candidate) String() string {
	addr := c.MatchAddr
	if addr == "" {
		addr = "(no address)"
	}

	return fmt.Sprintf("<%s (%g, %g) %s>", addr, c.X, c.Y, c.Service)
}

// attr returns the named string attribute of the candidate. It backs the
// attribute-driven postprocessors, which are configured with field names
// the same way pipelines are described in configuration files.
func (c Candidate) attr(name string) string {
	switch name {
	case "locator":
		return c.Locator
	case "locator_type":
		return c.LocatorType
	case "entity":
		return c.Entity
	case "match_addr":
		return c.MatchAddr
	case "service":
		return c.Service
	default:
		return ""
	}
}
