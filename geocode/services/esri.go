// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jcodagnone/geomux/geocode"
)

// EsriWGS queries the ArcGIS World Geocoding Service over its REST API.
// Structured queries go to findAddressCandidates; single-line queries
// carrying a magicKey hint from the suggest endpoint go to find.
type EsriWGS struct {
	geocode.ServiceBase
}

const esriWGSEndpoint = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer"

// esriAddrTypes are the address-level match types, best first. Coarser
// types (Locality, POI, ...) are filtered out by the default chain.
var esriAddrTypes = []string{
	"PointAddress",
	"BuildingName",
	"StreetAddress",
	"StreetInt",
	"PostalExt",
	"Postal",
}

var esriLocatorMap = map[string]string{
	"PointAddress":  geocode.LocatorRooftop,
	"BuildingName":  geocode.LocatorParcel,
	"StreetAddress": geocode.LocatorInterpolation,
	"StreetInt":     geocode.LocatorInterpolation,
	"PostalExt":     geocode.LocatorPostalSpecific,
	"Postal":        geocode.LocatorPostal,
}

// NewEsriWGS builds the adapter. A nil pre chain defaults to rejecting PO
// boxes (the World service cannot resolve them); a nil post chain defaults
// to keeping address-level matches, preferring exact ones, and collapsing
// same-address and same-point duplicates.
func NewEsriWGS(settings geocode.Settings, pre []geocode.Preprocessor, post []geocode.Postprocessor) (*EsriWGS, error) {
	if pre == nil {
		pre = []geocode.Preprocessor{geocode.CancelIfPOBox{}}
	}

	if post == nil {
		post = []geocode.Postprocessor{
			geocode.AttrFilter{Attr: "locator_type", Good: esriAddrTypes, ExactMatch: true},
			geocode.AttrSorter{Attr: "locator_type", Ordered: esriAddrTypes},
			geocode.UseHighScoreIfAtLeast{MinScore: 99.8},
			geocode.ScoreSorter{},
			geocode.GroupBy{Attrs: []string{"match_addr"}},
			geocode.GroupBy{Attrs: []string{"xy"}},
		}
	}

	return &EsriWGS{
		ServiceBase: geocode.NewServiceBase("esri_wgs", esriWGSEndpoint, nil, settings, pre, post),
	}, nil
}

// Geocode implements geocode.GeocodeService.
func (s *EsriWGS) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	return s.Run(ctx, q, s.call)
}

const esriOutFields = "Addr_type,Loc_name,StAddr,City,Region,Postal,Country"

func (s *EsriWGS) call(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	if q.Key != "" {
		return s.find(ctx, q)
	}

	return s.findAddressCandidates(ctx, q)
}

// find resolves a suggest magicKey against the find endpoint.
func (s *EsriWGS) find(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	params := url.Values{}
	params.Set("f", "json")
	params.Set("outFields", esriOutFields)
	params.Set("text", q.SingleLine())
	params.Set("magicKey", q.Key)

	var resp esriFindResponse
	if err := s.GetJSON(ctx, s.Endpoint()+"/find", params, &resp); err != nil {
		return nil, err
	}

	if err := resp.Error.ok(); err != nil {
		return nil, err
	}

	wkid := wkidOrDefault(resp.SpatialReference.WKID)

	candidates := make([]geocode.Candidate, 0, len(resp.Locations))
	for _, loc := range resp.Locations {
		candidates = append(candidates, esriCandidate(
			loc.Name, loc.Feature.Geometry.X, loc.Feature.Geometry.Y, wkid,
			loc.Feature.Attributes.Score, loc.Feature.Attributes,
		))
	}

	return candidates, nil
}

func (s *EsriWGS) findAddressCandidates(ctx context.Context, q geocode.Query) ([]geocode.Candidate, error) {
	params := url.Values{}
	params.Set("f", "json")
	params.Set("outFields", esriOutFields)
	params.Set("maxLocations", "20")

	if q.Query != "" {
		params.Set("singleLine", q.Query)
	} else {
		setNonEmpty(params, "address", q.Address)
		setNonEmpty(params, "neighborhood", q.Neighborhood)
		setNonEmpty(params, "city", q.City)
		setNonEmpty(params, "subregion", q.Subregion)
		setNonEmpty(params, "region", q.State)
		setNonEmpty(params, "postal", q.Postal)
		setNonEmpty(params, "countryCode", q.Country)
	}

	if q.Viewbox != nil {
		// xmin,ymin,xmax,ymax
		params.Set("searchExtent", fmt.Sprintf("%g,%g,%g,%g",
			q.Viewbox.Left, q.Viewbox.Bottom, q.Viewbox.Right, q.Viewbox.Top))
	}

	if q.HasUserLocation {
		params.Set("location", fmt.Sprintf("%g,%g", q.UserLon, q.UserLat))
	}

	var resp esriCandidatesResponse
	if err := s.GetJSON(ctx, s.Endpoint()+"/findAddressCandidates", params, &resp); err != nil {
		return nil, err
	}

	if err := resp.Error.ok(); err != nil {
		return nil, err
	}

	wkid := wkidOrDefault(resp.SpatialReference.WKID)

	candidates := make([]geocode.Candidate, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		candidates = append(candidates, esriCandidate(
			c.Address, c.Location.X, c.Location.Y, wkid, c.Score, c.Attributes,
		))
	}

	return candidates, nil
}

func esriCandidate(addr string, x, y float64, wkid int, score float64, attrs esriAttributes) geocode.Candidate {
	c := geocode.Candidate{
		X:           x,
		Y:           y,
		WKID:        wkid,
		Score:       score,
		MatchAddr:   addr,
		Locator:     esriLocatorMap[attrs.AddrType],
		LocatorType: attrs.AddrType,
		Service:     "esri_wgs",
	}

	if attrs.StAddr != "" || attrs.City != "" {
		c.Components = &geocode.AddressComponents{
			StreetAddr: attrs.StAddr,
			City:       attrs.City,
			Region:     attrs.Region,
			Postal:     attrs.Postal,
			Country:    attrs.Country,
		}
	}

	return c
}

type esriAttributes struct {
	AddrType string  `json:"Addr_type"`
	LocName  string  `json:"Loc_name"`
	Score    float64 `json:"Score"`
	StAddr   string  `json:"StAddr"`
	City     string  `json:"City"`
	Region   string  `json:"Region"`
	Postal   string  `json:"Postal"`
	Country  string  `json:"Country"`
}

type esriSpatialReference struct {
	WKID int `json:"wkid"`
}

type esriCandidatesResponse struct {
	SpatialReference esriSpatialReference `json:"spatialReference"`
	Candidates       []struct {
		Address  string `json:"address"`
		Location struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
		Score      float64        `json:"score"`
		Attributes esriAttributes `json:"attributes"`
	} `json:"candidates"`
	Error *esriError `json:"error"`
}

type esriFindResponse struct {
	SpatialReference esriSpatialReference `json:"spatialReference"`
	Locations        []struct {
		Name    string `json:"name"`
		Feature struct {
			Geometry struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"geometry"`
			Attributes esriAttributes `json:"attributes"`
		} `json:"feature"`
	} `json:"locations"`
	Error *esriError `json:"error"`
}

// esriError is the error object ArcGIS embeds in otherwise-200 responses.
type esriError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *esriError) ok() error {
	if e == nil {
		return nil
	}

	errType := geocode.ErrorTypeInvalidRequest
	// 498 invalid token, 499 token required
	if e.Code == 498 || e.Code == 499 {
		errType = geocode.ErrorTypeQuotaExceeded
	}

	return &geocode.UpstreamError{
		Type:    errType,
		Message: fmt.Sprintf("arcgis error %d: %s", e.Code, e.Message),
	}
}

func wkidOrDefault(wkid int) int {
	if wkid == 0 {
		return 4326
	}

	return wkid
}

func setNonEmpty(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}
