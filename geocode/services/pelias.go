// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jcodagnone/geomux/geocode"
)

// Pelias queries a Pelias instance, hosted (geocode.earth) or self-hosted.
// A query carrying a Key is treated as a Pelias gid and resolved through
// the place endpoint instead of search.
type Pelias struct {
	geocode.ServiceBase
	apiKey string
}

// Pelias-specific setting keys. The instance URL and API version combine
// into the endpoint, so self-hosted deployments only override the former.
const (
	SettingInstanceURL = "instance_url"
	SettingAPIVersion  = "api_version"
)

const (
	defaultPeliasInstance = "https://api.geocode.earth"
	defaultPeliasVersion  = "v1"
)

var peliasLocatorMap = map[string]string{
	"exact":        geocode.LocatorRooftop,
	"interpolated": geocode.LocatorInterpolation,
}

// NewPelias builds the adapter. The API key is optional: self-hosted
// instances usually run without one.
func NewPelias(settings geocode.Settings, pre []geocode.Preprocessor, post []geocode.Postprocessor) (*Pelias, error) {
	defaults := geocode.Settings{
		SettingInstanceURL: defaultPeliasInstance,
		SettingAPIVersion:  defaultPeliasVersion,
	}

	merged := defaults.Merge(settings)
	endpoint := strings.TrimRight(merged.String(SettingInstanceURL, defaultPeliasInstance), "/") +
		"/" + merged.String(SettingAPIVersion, defaultPeliasVersion)

	base := geocode.NewServiceBase("pelias", endpoint, defaults, settings, pre, post)

	return &Pelias{
		ServiceBase: base,
		apiKey:      base.Settings().String(geocode.SettingAPIKey, ""),
	}, nil
}

// Geocode implements geocode.GeocodeService.
func (s *Pelias) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	return s.Run(ctx, q, s.call)
}

func (s *Pelias) call(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	params := url.Values{}
	setNonEmpty(params, "api_key", s.apiKey)

	endpoint := s.Endpoint()

	if q.Key != "" {
		endpoint += "/place"
		params.Set("ids", q.Key)
	} else {
		endpoint += "/search"
		params.Set("text", q.SingleLine())
		setNonEmpty(params, "boundary.country", q.Country)

		if q.HasUserLocation {
			params.Set("focus.point.lat", fmt.Sprintf("%g", q.UserLat))
			params.Set("focus.point.lon", fmt.Sprintf("%g", q.UserLon))
		}

		if q.Viewbox != nil && q.Bounded {
			params.Set("boundary.rect.min_lon", fmt.Sprintf("%g", q.Viewbox.Left))
			params.Set("boundary.rect.min_lat", fmt.Sprintf("%g", q.Viewbox.Bottom))
			params.Set("boundary.rect.max_lon", fmt.Sprintf("%g", q.Viewbox.Right))
			params.Set("boundary.rect.max_lat", fmt.Sprintf("%g", q.Viewbox.Top))
		}
	}

	var resp peliasResponse
	if err := s.GetJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}

	candidates := make([]geocode.Candidate, 0, len(resp.Features))

	for _, f := range resp.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}

		p := f.Properties

		c := geocode.Candidate{
			X:         f.Geometry.Coordinates[0],
			Y:         f.Geometry.Coordinates[1],
			WKID:      4326,
			Score:     p.Confidence * 100,
			MatchAddr: p.Label,
			Locator:   peliasLocatorMap[p.MatchType],
			Entity:    p.Layer,
			Service:   "pelias",
		}

		if p.Street != "" || p.Locality != "" {
			streetAddr := p.Street
			if p.HouseNumber != "" {
				streetAddr = p.HouseNumber + " " + p.Street
			}

			c.Components = &geocode.AddressComponents{
				StreetAddr: streetAddr,
				City:       p.Locality,
				Subregion:  p.County,
				Region:     p.Region,
				Postal:     p.Postalcode,
				Country:    p.CountryCode,
			}
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

type peliasResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lon, lat
		} `json:"geometry"`
		Properties struct {
			Label       string  `json:"label"`
			Confidence  float64 `json:"confidence"` // [0, 1]
			MatchType   string  `json:"match_type"`
			Layer       string  `json:"layer"`
			HouseNumber string  `json:"housenumber"`
			Street      string  `json:"street"`
			Locality    string  `json:"locality"`
			County      string  `json:"county"`
			Region      string  `json:"region"`
			Postalcode  string  `json:"postalcode"`
			CountryCode string  `json:"country_a"`
		} `json:"properties"`
	} `json:"features"`
}
