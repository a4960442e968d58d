// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/pflag"

	"github.com/jcodagnone/geomux/geocode"
	"github.com/jcodagnone/geomux/geocode/services"
)

// sourceOptions are the provider-selection flags shared by the geocode,
// batch, and serve commands.
type sourceOptions struct {
	Sources   []string
	APIKey    string
	Timeout   int
	TraceHTTP bool
}

// defaultSources are the keyless providers, usable out of the box.
var defaultSources = []string{"nominatim", "us_census"}

func (o *sourceOptions) register(flags *pflag.FlagSet) {
	flags.StringArrayVar(&o.Sources, "source", nil,
		"Provider to query, in priority order; repeatable. Defaults to the keyless providers")
	flags.StringVar(&o.APIKey, "api-key", "",
		"API key passed to every selected provider; per-provider env vars also work")
	flags.IntVar(&o.Timeout, "timeout", 0,
		"Per-provider timeout in seconds (0 uses each provider's default)")
	flags.BoolVar(&o.TraceHTTP, "trace-http", false,
		"Display HTTP requests-responses")
}

// build constructs the selected adapters in flag order.
func (o *sourceOptions) build() ([]geocode.GeocodeService, error) {
	names := o.Sources
	if len(names) == 0 {
		names = defaultSources
	}

	settings := geocode.Settings{}
	if o.APIKey != "" {
		settings[geocode.SettingAPIKey] = o.APIKey
	}

	if o.Timeout > 0 {
		settings[geocode.SettingTimeout] = o.Timeout
	}

	if o.TraceHTTP {
		settings[geocode.SettingHTTPTrace] = true
	}

	sources := make([]geocode.GeocodeService, 0, len(names))

	for _, name := range names {
		src, err := services.New(name, settings)
		if err != nil {
			return nil, err
		}

		sources = append(sources, src)
	}

	return sources, nil
}
