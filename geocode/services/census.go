// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/jcodagnone/geomux/geocode"
)

// USCensus queries the US Census Bureau geocoder. It is free and keyless,
// covers US street addresses only, and reports no match score; every
// returned match is a TIGER/Line interpolation.
type USCensus struct {
	geocode.ServiceBase
}

const usCensusEndpoint = "https://geocoding.geo.census.gov/geocoder/locations"

// SettingBenchmark selects the Census geocoding dataset vintage.
const SettingBenchmark = "benchmark"

const defaultBenchmark = "Public_AR_Current"

// NewUSCensus builds the adapter. The service has no processor defaults.
func NewUSCensus(settings geocode.Settings, pre []geocode.Preprocessor, post []geocode.Postprocessor) (*USCensus, error) {
	defaults := geocode.Settings{SettingBenchmark: defaultBenchmark}

	return &USCensus{
		ServiceBase: geocode.NewServiceBase("us_census", usCensusEndpoint, defaults, settings, pre, post),
	}, nil
}

// Geocode implements geocode.GeocodeService.
func (s *USCensus) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	return s.Run(ctx, q, s.call)
}

func (s *USCensus) call(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("benchmark", s.Settings().String(SettingBenchmark, defaultBenchmark))

	endpoint := s.Endpoint()
	if q.Query != "" {
		endpoint += "/onelineaddress"
		params.Set("address", q.Query)
	} else {
		endpoint += "/address"
		setNonEmpty(params, "street", q.Address)
		setNonEmpty(params, "city", q.City)
		setNonEmpty(params, "state", q.State)
		setNonEmpty(params, "zip", q.Postal)
	}

	var resp censusResponse
	if err := s.GetJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}

	candidates := make([]geocode.Candidate, 0, len(resp.Result.AddressMatches))
	for _, m := range resp.Result.AddressMatches {
		candidates = append(candidates, geocode.Candidate{
			X:         m.Coordinates.X,
			Y:         m.Coordinates.Y,
			WKID:      4326,
			MatchAddr: m.MatchedAddress,
			Locator:   geocode.LocatorInterpolation,
			Service:   "us_census",
			Components: &geocode.AddressComponents{
				StreetAddr: censusStreetAddr(m.MatchedAddress, m.AddressComponents),
				City:       m.AddressComponents.City,
				Region:     m.AddressComponents.State,
				Postal:     m.AddressComponents.Zip,
				Country:    "US",
			},
		})
	}

	return candidates, nil
}

// censusStreetAddr rebuilds the street line from the decomposed parts,
// taking the house number from the matched address since the components
// only carry the interpolation range.
func censusStreetAddr(matchedAddr string, c censusComponents) string {
	parts := make([]string, 0, 8)

	if number, _, ok := strings.Cut(matchedAddr, " "); ok {
		parts = append(parts, number)
	}

	for _, p := range []string{
		c.PreQualifier, c.PreDirection, c.PreType,
		c.StreetName,
		c.SuffixType, c.SuffixDirection, c.SuffixQualifier,
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, " ")
}

type censusComponents struct {
	FromAddress     string `json:"fromAddress"`
	ToAddress       string `json:"toAddress"`
	PreQualifier    string `json:"preQualifier"`
	PreDirection    string `json:"preDirection"`
	PreType         string `json:"preType"`
	StreetName      string `json:"streetName"`
	SuffixType      string `json:"suffixType"`
	SuffixDirection string `json:"suffixDirection"`
	SuffixQualifier string `json:"suffixQualifier"`
	City            string `json:"city"`
	State           string `json:"state"`
	Zip             string `json:"zip"`
}

type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			MatchedAddress string `json:"matchedAddress"`
			Coordinates    struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"coordinates"`
			AddressComponents censusComponents `json:"addressComponents"`
		} `json:"addressMatches"`
	} `json:"result"`
}
