// Copyright 2025 The Geomux Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import "fmt"

// Viewbox is a bounding box used to bias or restrict geocoding results.
// The zero value is not usable; build one with NewViewbox so the bounds
// are validated once, up front.
type Viewbox struct {
	Left   float64 `json:"left"`   // minimum X (west)
	Top    float64 `json:"top"`    // maximum Y (north)
	Right  float64 `json:"right"`  // maximum X (east)
	Bottom float64 `json:"bottom"` // minimum Y (south)
	WKID   int     `json:"wkid"`
}

// NewViewbox validates the bounds and returns a Viewbox in the given
// spatial reference. A wkid of 0 defaults to WGS84.
func NewViewbox(left, top, right, bottom float64, wkid int) (*Viewbox, error) {
	if left > right {
		return nil, fmt.Errorf("spatial: left x-coord %f must be less than right x-coord %f", left, right)
	}

	if bottom > top {
		return nil, fmt.Errorf("spatial: bottom y-coord %f must be less than top y-coord %f", bottom, top)
	}

	if wkid == 0 {
		wkid = WGS84
	}

	return &Viewbox{Left: left, Top: top, Right: right, Bottom: bottom, WKID: wkid}, nil
}

// World returns the maximum bounds for WGS84.
func World() *Viewbox {
	return &Viewbox{Left: -180, Top: 90, Right: 180, Bottom: -90, WKID: WGS84}
}

// Contains reports whether the point falls within the box. Only meaningful
// for WGS84 boxes; the cache and the snap postprocessors work in WGS84.
func (v *Viewbox) Contains(p Point) bool {
	return p.Lng >= v.Left && p.Lng <= v.Right && p.Lat >= v.Bottom && p.Lat <= v.Top
}
