// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

// Package services implements the upstream geocoding adapters. Every
// adapter embeds geocode.ServiceBase and honors the never-fails contract:
// Geocode returns candidates plus a diagnostic, never an error. The only
// errors this package raises are configuration errors at construction.
//
// Adapter constructors take the instance settings plus optional processor
// chains. A nil chain selects the adapter's documented defaults; an empty
// non-nil chain disables the defaults entirely.
package services

import (
	"fmt"
	"sort"

	"github.com/jcodagnone/geomux/geocode"
)

// Factory builds an adapter from instance settings, using the adapter's
// default processor chains.
type Factory func(settings geocode.Settings) (geocode.GeocodeService, error)

// Info describes a registered adapter for listings.
type Info struct {
	Name        string
	Description string
	RequiresKey bool
}

type entry struct {
	info    Info
	factory Factory
}

var registry = map[string]entry{}

func register(info Info, factory Factory) {
	registry[info.Name] = entry{info: info, factory: factory}
}

func init() {
	register(Info{Name: "esri_wgs", Description: "ArcGIS World Geocoding Service"},
		func(s geocode.Settings) (geocode.GeocodeService, error) { return NewEsriWGS(s, nil, nil) })
	register(Info{Name: "esri_soap", Description: "self-hosted ArcGIS geocode server (SOAP)"},
		func(s geocode.Settings) (geocode.GeocodeService, error) { return NewEsriSOAP(s, nil, nil) })
	register(Info{Name: "us_census", Description: "US Census Bureau geocoder"},
		func(s geocode.Settings) (geocode.GeocodeService, error) { return NewUSCensus(s, nil, nil) })
	register(Info{Name: "nominatim", Description: "OpenStreetMap Nominatim"},
		func(s geocode.Settings) (geocode.GeocodeService, error) { return NewNominatim(s, nil, nil) })
	register(Info{Name: "google", Description: "Google Maps Geocoding API", RequiresKey: true},
		func(s geocode.Settings) (geocode.GeocodeService, error) { return NewGoogle(s, nil, nil) })
	register(Info{Name: "bing", Description: "Bing Maps Locations API", RequiresKey: true},
		func(s geocode.Settings) (geocode.GeocodeService, error) { return NewBing(s, nil, nil) })
	register(Info{Name: "mapquest", Description: "MapQuest Geocoding API", RequiresKey: true},
		func(s geocode.Settings) (geocode.GeocodeService, error) { return NewMapQuest(s, nil, nil) })
	register(Info{Name: "pelias", Description: "Pelias / geocode.earth"},
		func(s geocode.Settings) (geocode.GeocodeService, error) { return NewPelias(s, nil, nil) })
}

// Names returns the registered adapter names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Describe returns the Info of every registered adapter, sorted by name.
func Describe() []Info {
	infos := make([]Info, 0, len(registry))
	for _, name := range Names() {
		infos = append(infos, registry[name].info)
	}

	return infos
}

// New builds the named adapter with the given settings and its default
// processor chains.
func New(name string, settings geocode.Settings) (geocode.GeocodeService, error) {
	e, ok := registry[name]
	if !ok {
		return nil, &geocode.ConfigError{
			Component: "services",
			Reason:    fmt.Sprintf("unknown service %q (known: %v)", name, Names()),
		}
	}

	return e.factory(settings)
}
