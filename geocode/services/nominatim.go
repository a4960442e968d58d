// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jcodagnone/geomux/geocode"
)

// Nominatim queries an OpenStreetMap Nominatim instance. Matches are
// classified by the OSM class.type pair, exposed as the candidate entity;
// the default chain keeps building-level entities and drops street
// furniture. The public instance demands a descriptive User-Agent, so one
// is always installed unless settings override it.
type Nominatim struct {
	geocode.ServiceBase
}

const nominatimEndpoint = "https://nominatim.openstreetmap.org/search"

// nominatimAcceptedEntities pass the default filter when the entity merely
// contains them, so "building." accepts every building subtype.
var nominatimAcceptedEntities = []string{
	"building.",
	"historic.castle",
	"leisure.ice_rink",
	"leisure.miniature_golf",
	"leisure.sports_centre",
	"leisure.stadium",
	"leisure.track",
	"lodging.",
	"place.house",
	"place.houses",
	"shop.",
	"tourism.",
}

var nominatimRejectedEntities = []string{
	"amenity.atm",
	"amenity.bench",
	"amenity.bicycle_parking",
	"amenity.drinking_water",
	"amenity.grit_bin",
	"amenity.hunting_stand",
	"amenity.post_box",
	"amenity.waste_basket",
}

// NewNominatim builds the adapter. The nil-chain defaults collapse address
// ranges (Nominatim matches only exact house numbers) and keep only
// building-level entities.
func NewNominatim(settings geocode.Settings, pre []geocode.Preprocessor, post []geocode.Postprocessor) (*Nominatim, error) {
	if pre == nil {
		pre = []geocode.Preprocessor{geocode.ReplaceRangeWithNumber{}}
	}

	if post == nil {
		post = []geocode.Postprocessor{
			geocode.AttrFilter{Attr: "entity", Good: nominatimAcceptedEntities},
			geocode.AttrExclude{Attr: "entity", Bad: nominatimRejectedEntities, ExactMatch: true},
		}
	}

	defaults := geocode.Settings{
		geocode.SettingRequestHeaders: map[string]string{
			"User-Agent": "geomux (github.com/jcodagnone/geomux)",
		},
	}

	return &Nominatim{
		ServiceBase: geocode.NewServiceBase("nominatim", nominatimEndpoint, defaults, settings, pre, post),
	}, nil
}

// Geocode implements geocode.GeocodeService.
func (s *Nominatim) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	return s.Run(ctx, q, s.call)
}

func (s *Nominatim) call(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", q.SingleLine())
	setNonEmpty(params, "countrycodes", q.Country)

	if q.Viewbox != nil {
		params.Set("viewbox", fmt.Sprintf("%g,%g,%g,%g",
			q.Viewbox.Left, q.Viewbox.Top, q.Viewbox.Right, q.Viewbox.Bottom))

		if q.Bounded {
			params.Set("bounded", "1")
		}
	}

	var items []nominatimPlace
	if err := s.GetJSON(ctx, s.Endpoint(), params, &items); err != nil {
		return nil, err
	}

	candidates := make([]geocode.Candidate, 0, len(items))

	for _, item := range items {
		lat, latErr := strconv.ParseFloat(item.Lat, 64)
		lon, lonErr := strconv.ParseFloat(item.Lon, 64)

		if latErr != nil || lonErr != nil {
			return nil, &geocode.UpstreamError{
				Type:    geocode.ErrorTypeParse,
				Message: fmt.Sprintf("unparseable coordinates %q, %q", item.Lat, item.Lon),
			}
		}

		candidates = append(candidates, geocode.Candidate{
			X:         lon,
			Y:         lat,
			WKID:      4326,
			MatchAddr: item.DisplayName,
			Locator:   geocode.LocatorParcel,
			Entity:    item.Class + "." + item.Type,
			Service:   "nominatim",
		})
	}

	return candidates, nil
}

// nominatim encodes coordinates as JSON strings
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}
