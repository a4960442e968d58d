// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jcodagnone/geomux/geocode"
)

// MapQuest queries the MapQuest Geocoding API. The request travels as a
// JSON document inside the query string, the way that API wants it.
// MapQuest reports a quality class instead of a score; the default chain
// migrates it onto the normalized scale.
type MapQuest struct {
	geocode.ServiceBase
	apiKey string
}

const mapQuestEndpoint = "https://www.mapquestapi.com/geocoding/v1/address"

var mapQuestLocatorMap = map[string]string{
	"POINT":        geocode.LocatorRooftop,
	"ADDRESS":      geocode.LocatorInterpolation,
	"ZIP_EXTENDED": geocode.LocatorPostalSpecific,
	"ZIP":          geocode.LocatorPostal,
}

// NewMapQuest builds the adapter. The API key comes from settings or
// MAPQUEST_API_KEY.
func NewMapQuest(settings geocode.Settings, pre []geocode.Preprocessor, post []geocode.Postprocessor) (*MapQuest, error) {
	if post == nil {
		post = []geocode.Postprocessor{
			geocode.ScoreMigration{Attr: "locator_type", Map: map[string]float64{
				"POINT":        100,
				"ADDRESS":      90,
				"INTERSECTION": 80,
				"STREET":       70,
				"ZIP_EXTENDED": 60,
				"ZIP":          50,
				"NEIGHBORHOOD": 40,
				"CITY":         30,
			}},
			geocode.ScoreSorter{},
		}
	}

	base := geocode.NewServiceBase("mapquest", mapQuestEndpoint, nil, settings, pre, post)

	apiKey := base.Settings().String(geocode.SettingAPIKey, "")
	if apiKey == "" {
		apiKey = os.Getenv("MAPQUEST_API_KEY")
	}

	if apiKey == "" {
		return nil, &geocode.ConfigError{Component: "mapquest", Reason: "an API key is required"}
	}

	return &MapQuest{ServiceBase: base, apiKey: apiKey}, nil
}

// Geocode implements geocode.GeocodeService.
func (s *MapQuest) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	return s.Run(ctx, q, s.call)
}

func (s *MapQuest) call(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	location := map[string]string{}

	if q.Query != "" {
		location["street"] = q.Query
	} else {
		putNonEmpty(location, "street", q.Address)
		putNonEmpty(location, "adminArea5", q.City)
		putNonEmpty(location, "adminArea4", q.Subregion)
		putNonEmpty(location, "adminArea3", q.State)
		putNonEmpty(location, "postalCode", q.Postal)
		putNonEmpty(location, "adminArea1", q.Country)
	}

	body, err := json.Marshal(map[string]any{
		"location": location,
		"options":  map[string]any{"thumbMaps": false},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("inFormat", "json")
	params.Set("outFormat", "json")
	params.Set("json", string(body))

	var resp mapQuestResponse
	if err := s.GetJSON(ctx, s.Endpoint(), params, &resp); err != nil {
		return nil, err
	}

	if resp.Info.StatusCode != 0 {
		return nil, &geocode.UpstreamError{
			Type:    geocode.ErrorTypeInvalidRequest,
			Message: fmt.Sprintf("mapquest status %d: %s", resp.Info.StatusCode, strings.Join(resp.Info.Messages, "; ")),
		}
	}

	var candidates []geocode.Candidate

	for _, result := range resp.Results {
		for _, loc := range result.Locations {
			candidates = append(candidates, geocode.Candidate{
				X:           loc.LatLng.Lng,
				Y:           loc.LatLng.Lat,
				WKID:        4326,
				MatchAddr:   mapQuestMatchAddr(loc),
				Locator:     mapQuestLocatorMap[loc.GeocodeQuality],
				LocatorType: loc.GeocodeQuality,
				Service:     "mapquest",
				Components: &geocode.AddressComponents{
					StreetAddr: loc.Street,
					City:       loc.AdminArea5,
					Subregion:  loc.AdminArea4,
					Region:     loc.AdminArea3,
					Postal:     loc.PostalCode,
					Country:    loc.AdminArea1,
				},
			})
		}
	}

	return candidates, nil
}

func mapQuestMatchAddr(loc mapQuestLocation) string {
	parts := make([]string, 0, 4)

	for _, p := range []string{loc.Street, loc.AdminArea5,
		strings.TrimSpace(loc.AdminArea3 + " " + loc.PostalCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

func putNonEmpty(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}

type mapQuestLocation struct {
	Street         string `json:"street"`
	AdminArea5     string `json:"adminArea5"` // city
	AdminArea4     string `json:"adminArea4"` // county
	AdminArea3     string `json:"adminArea3"` // state
	AdminArea1     string `json:"adminArea1"` // country
	PostalCode     string `json:"postalCode"`
	GeocodeQuality string `json:"geocodeQuality"`
	LatLng         struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"latLng"`
}

type mapQuestResponse struct {
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
	Results []struct {
		Locations []mapQuestLocation `json:"locations"`
	} `json:"results"`
}
