// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/jcodagnone/geomux/geocode"
)

// Bing queries the Bing Maps Locations API. Bing reports a categorical
// confidence instead of a numeric score; it is mapped onto the normalized
// scale at parse time and kept verbatim in the locator type for filtering.
type Bing struct {
	geocode.ServiceBase
	apiKey string
}

const bingEndpoint = "https://dev.virtualearth.net/REST/v1/Locations"

var bingConfidenceScores = map[string]float64{
	"High":   100,
	"Medium": 85,
	"Low":    50,
}

// NewBing builds the adapter. The API key comes from settings or
// BING_MAPS_API_KEY. The nil-chain post defaults keep only high-confidence
// street addresses when any exist and collapse duplicates.
func NewBing(settings geocode.Settings, pre []geocode.Preprocessor, post []geocode.Postprocessor) (*Bing, error) {
	if post == nil {
		post = []geocode.Postprocessor{
			geocode.UseHighScoreIfAtLeast{MinScore: 100},
			geocode.AttrFilter{Attr: "entity", Good: []string{"Address"}, ExactMatch: true},
			geocode.ScoreSorter{},
			geocode.GroupBy{Attrs: []string{"match_addr"}},
			geocode.GroupBy{Attrs: []string{"xy"}},
		}
	}

	base := geocode.NewServiceBase("bing", bingEndpoint, nil, settings, pre, post)

	apiKey := base.Settings().String(geocode.SettingAPIKey, "")
	if apiKey == "" {
		apiKey = os.Getenv("BING_MAPS_API_KEY")
	}

	if apiKey == "" {
		return nil, &geocode.ConfigError{Component: "bing", Reason: "an API key is required"}
	}

	return &Bing{ServiceBase: base, apiKey: apiKey}, nil
}

// Geocode implements geocode.GeocodeService.
func (s *Bing) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	return s.Run(ctx, q, s.call)
}

func (s *Bing) call(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	params := url.Values{}
	params.Set("key", s.apiKey)

	if q.Query != "" {
		params.Set("query", q.Query)
	} else {
		setNonEmpty(params, "addressLine", q.Address)
		setNonEmpty(params, "locality", q.City)
		setNonEmpty(params, "adminDistrict", q.State)
		setNonEmpty(params, "postalCode", q.Postal)
		setNonEmpty(params, "countryRegion", q.Country)
	}

	setNonEmpty(params, "culture", q.Culture)
	setNonEmpty(params, "userIp", q.UserIP)

	if q.HasUserLocation {
		params.Set("userLocation", fmt.Sprintf("%g,%g", q.UserLat, q.UserLon))
	}

	if q.Viewbox != nil {
		// user map view: south,west,north,east
		params.Set("umv", fmt.Sprintf("%g,%g,%g,%g",
			q.Viewbox.Bottom, q.Viewbox.Left, q.Viewbox.Top, q.Viewbox.Right))
	}

	var resp bingResponse
	if err := s.GetJSON(ctx, s.Endpoint(), params, &resp); err != nil {
		return nil, err
	}

	var candidates []geocode.Candidate

	for _, set := range resp.ResourceSets {
		for _, r := range set.Resources {
			if len(r.Point.Coordinates) < 2 {
				continue
			}

			candidates = append(candidates, geocode.Candidate{
				X:           r.Point.Coordinates[1],
				Y:           r.Point.Coordinates[0],
				WKID:        4326,
				Score:       bingConfidenceScores[r.Confidence],
				MatchAddr:   r.Name,
				Locator:     geocode.LocatorInterpolation,
				LocatorType: r.Confidence,
				Entity:      r.EntityType,
				Service:     "bing",
				Components: &geocode.AddressComponents{
					StreetAddr: r.Address.AddressLine,
					City:       r.Address.Locality,
					Subregion:  r.Address.AdminDistrict2,
					Region:     r.Address.AdminDistrict,
					Postal:     r.Address.PostalCode,
					Country:    r.Address.CountryRegion,
				},
			})
		}
	}

	return candidates, nil
}

type bingResponse struct {
	StatusCode   int `json:"statusCode"`
	ResourceSets []struct {
		Resources []struct {
			Name       string `json:"name"`
			EntityType string `json:"entityType"`
			Confidence string `json:"confidence"`
			Point      struct {
				Coordinates []float64 `json:"coordinates"` // lat, lon
			} `json:"point"`
			Address struct {
				AddressLine    string `json:"addressLine"`
				Locality       string `json:"locality"`
				AdminDistrict  string `json:"adminDistrict"`
				AdminDistrict2 string `json:"adminDistrict2"`
				PostalCode     string `json:"postalCode"`
				CountryRegion  string `json:"countryRegion"`
			} `json:"address"`
		} `json:"resources"`
	} `json:"resourceSets"`
}
