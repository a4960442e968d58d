// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"

	"github.com/jcodagnone/geomux/geocode"
)

// Google queries the Google Maps Geocoding API. The API key comes from
// settings, falling back to GOOGLE_MAPS_API_KEY and finally to a lookup
// through Application Default Credentials against the Cloud API Keys
// service, for deployments where the key is provisioned but never
// distributed.
type Google struct {
	geocode.ServiceBase
	apiKey string
}

const googleEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// SettingKeyDisplayName names the Cloud API key resource resolved through
// ADC when no explicit key is configured.
const SettingKeyDisplayName = "key_display_name"

const defaultKeyDisplayName = "Geomux Geocoding Key"

var googleLocatorMap = map[string]string{
	"ROOFTOP":            geocode.LocatorRooftop,
	"RANGE_INTERPOLATED": geocode.LocatorInterpolation,
}

var googleScores = map[string]float64{
	"ROOFTOP":            100,
	"RANGE_INTERPOLATED": 90,
	"GEOMETRIC_CENTER":   75,
	"APPROXIMATE":        50,
}

// NewGoogle builds the adapter. The nil-chain defaults compose the
// structured fields into the single line Google expects, and sort the
// answers best first.
func NewGoogle(settings geocode.Settings, pre []geocode.Preprocessor, post []geocode.Postprocessor) (*Google, error) {
	if pre == nil {
		pre = []geocode.Preprocessor{geocode.ComposeSingleLine{}}
	}

	if post == nil {
		post = []geocode.Postprocessor{geocode.ScoreSorter{}}
	}

	base := geocode.NewServiceBase("google", googleEndpoint, nil, settings, pre, post)

	apiKey := base.Settings().String(geocode.SettingAPIKey, "")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	}

	if apiKey == "" {
		log.Println("google: no API key configured, attempting to retrieve via ADC...")

		displayName := base.Settings().String(SettingKeyDisplayName, defaultKeyDisplayName)

		var err error

		apiKey, err = googleKeyFromADC(context.Background(), displayName)
		if err != nil {
			return nil, &geocode.ConfigError{
				Component: "google",
				Reason:    fmt.Sprintf("no API key configured and ADC lookup failed: %v", err),
			}
		}
	}

	return &Google{ServiceBase: base, apiKey: apiKey}, nil
}

// googleKeyFromADC resolves the Maps API key through Application Default
// Credentials: find the project, list its API keys, and fetch the secret
// of the one matching displayName. ListKeys redacts KeyString; only
// GetKeyString returns the secret.
func googleKeyFromADC(ctx context.Context, displayName string) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	if creds.ProjectID == "" {
		return "", errors.New("default credentials carry no project id")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", creds.ProjectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != displayName {
			continue
		}

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("retrieving key string for %s: %w", key.Name, err)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("no API key named %q in project %s", displayName, creds.ProjectID)
}

// Geocode implements geocode.GeocodeService.
func (s *Google) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	return s.Run(ctx, q, s.call)
}

func (s *Google) call(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	params := url.Values{}
	params.Set("address", q.SingleLine())
	params.Set("key", s.apiKey)

	if q.Country != "" {
		params.Set("components", "country:"+q.Country)
	}

	if q.Viewbox != nil {
		// southwest|northeast
		params.Set("bounds", fmt.Sprintf("%g,%g|%g,%g",
			q.Viewbox.Bottom, q.Viewbox.Left, q.Viewbox.Top, q.Viewbox.Right))
	}

	var resp googleResponse
	if err := s.GetJSON(ctx, s.Endpoint(), params, &resp); err != nil {
		return nil, err
	}

	if err := resp.ok(); err != nil {
		return nil, err
	}

	candidates := make([]geocode.Candidate, 0, len(resp.Results))

	for _, r := range resp.Results {
		locType := r.Geometry.LocationType

		candidates = append(candidates, geocode.Candidate{
			X:            r.Geometry.Location.Lng,
			Y:            r.Geometry.Location.Lat,
			WKID:         4326,
			Score:        googleScores[locType],
			MatchAddr:    r.FormattedAddress,
			Locator:      googleLocatorMap[locType],
			LocatorType:  locType,
			Entity:       firstOf(r.Types),
			Service:      "google",
			Components:   googleComponents(r.AddressComponents),
			PartialMatch: r.PartialMatch,
		})
	}

	return candidates, nil
}

// googleComponents flattens the typed address_components list into the
// shared decomposed form.
func googleComponents(components []googleAddressComponent) *geocode.AddressComponents {
	if len(components) == 0 {
		return nil
	}

	byType := map[string]string{}
	short := map[string]string{}

	for _, c := range components {
		for _, t := range c.Types {
			byType[t] = c.LongName
			short[t] = c.ShortName
		}
	}

	streetAddr := byType["route"]
	if number := byType["street_number"]; number != "" {
		streetAddr = number + " " + streetAddr
	}

	return &geocode.AddressComponents{
		StreetAddr: streetAddr,
		City:       byType["locality"],
		Subregion:  byType["administrative_area_level_2"],
		Region:     short["administrative_area_level_1"],
		Postal:     byType["postal_code"],
		Country:    short["country"],
	}
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

type googleAddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		PartialMatch     bool     `json:"partial_match"`
		Types            []string `json:"types"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
		AddressComponents []googleAddressComponent `json:"address_components"`
	} `json:"results"`
}

func (r *googleResponse) ok() error {
	var errType geocode.ErrorType

	switch r.Status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT":
		errType = geocode.ErrorTypeRateLimit
	case "REQUEST_DENIED":
		errType = geocode.ErrorTypeQuotaExceeded
	case "INVALID_REQUEST":
		errType = geocode.ErrorTypeInvalidRequest
	default:
		errType = geocode.ErrorTypeUnknown
	}

	msg := r.Status
	if r.ErrorMessage != "" {
		msg = fmt.Sprintf("%s: %s", r.Status, r.ErrorMessage)
	}

	return &geocode.UpstreamError{Type: errType, Message: msg}
}
