// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ReplaceRangeWithNumber keeps only the first part of an address range or
// hyphenated house number, in both the free-form and street fields:
// "4109-4113 Main St" becomes "4109 Main St". Queens-style hyphenated
// house numbers are mangled by this; don't enable it for those.
type ReplaceRangeWithNumber struct{}

var reStreetNumberRange = regexp.MustCompile(`(?i)^(\d+\w*-\d*\w*)\s`)

func (ReplaceRangeWithNumber) replaceRange(addr string) string {
	match := reStreetNumberRange.FindStringSubmatch(addr)
	if match == nil {
		return addr
	}

	old := match[1]
	first, _, _ := strings.Cut(old, "-")

	return strings.Replace(addr, old, first, 1)
}

// Process implements Preprocessor.
func (p ReplaceRangeWithNumber) Process(q Query) (Query, bool) {
	q.Query = p.replaceRange(q.Query)
	q.Address = p.replaceRange(q.Address)

	return q, true
}

// ParseSingleLine splits a free-form query into address, city, and postal
// fields. Fields already set explicitly are never overwritten.
type ParseSingleLine struct{}

var (
	reUnitNumbered    = regexp.MustCompile(`(?i)(su?i?te|p\W*[om]\W*b(?:ox)?|(?:ap|dep)(?:ar)?t(?:me?nt)?|ro*m|flo*r?|uni?t|bu?i?ldi?n?g|ha?nga?r|lo?t|pier|slip|spa?ce?|stop|tra?i?le?r|bo?x|no\.?)\s+|#`)
	reUnitNotNumbered = regexp.MustCompile(`(?i)ba?se?me?n?t|fro?nt|lo?bby|lowe?r|off?i?ce?|pe?n?t?ho?u?s?e?|rear|side|uppe?r`)
	rePostcode        = regexp.MustCompile(`(?i)[A-Z]{1,2}[0-9R][0-9A-Z]? *[0-9][A-Z]{0,2}`)
	reBlank           = regexp.MustCompile(`\s`)
)

func commaJoin(left, right string) string {
	if left == "" {
		return right
	}

	return left + ", " + right
}

// Process implements Preprocessor.
func (ParseSingleLine) Process(q Query) (Query, bool) {
	if q.Query == "" {
		return q, true
	}

	var postcode, address, city string

	// take the last postcode-looking token in the whole query
	if matches := rePostcode.FindAllString(q.Query, -1); len(matches) > 0 {
		postcode = matches[len(matches)-1]
	}

	parts := strings.Split(q.Query, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if postcode != "" && strings.Contains(parts[0], postcode) {
		// postcode inside the first segment usually means there are no
		// commas at all; keep just the part before it, unless that part
		// has spaces (then it probably wasn't a real postcode)
		before := strings.TrimSpace(strings.SplitN(parts[0], postcode, 2)[0])
		if !reBlank.MatchString(before) {
			address = before
		} else {
			address = parts[0]
		}
	} else {
		address = parts[0]
	}

	for _, part := range parts[1:] {
		if postcode != "" && strings.Contains(part, postcode) {
			part = strings.TrimSpace(strings.Replace(part, postcode, "", 1))
		}

		switch {
		case reUnitNumbered.MatchString(part):
			// secondary address like "Ste 402"
			address = commaJoin(address, part)
		case reUnitNotNumbered.MatchString(part):
			// secondary address like "Basement"
			address = commaJoin(address, part)
		default:
			city = commaJoin(city, part)
		}
	}

	if q.Postal == "" {
		q.Postal = postcode
	}

	if q.Address == "" {
		q.Address = address
	}

	if q.City == "" {
		q.City = city
	}

	return q, true
}

// ComposeSingleLine builds the free-form query from the structured fields
// when no free-form query was given.
type ComposeSingleLine struct{}

// Process implements Preprocessor.
func (ComposeSingleLine) Process(q Query) (Query, bool) {
	if q.Query == "" {
		q.Query = q.SingleLine()
	}

	return q, true
}

// CountryPreProcessor standardizes country codes and optionally restricts
// queries to an accepted set. The country map replaces values key by key;
// an empty Acceptable list accepts every country.
type CountryPreProcessor struct {
	// Acceptable lists the countries the pipeline may query for. An empty
	// country field always passes; use RequireCountry to demand one.
	Acceptable []string

	// CountryMap rewrites input country codes to the value the services
	// accept, e.g. {"UK": "GB", "USA": "US"}.
	CountryMap map[string]string
}

// Process implements Preprocessor.
func (p CountryPreProcessor) Process(q Query) (Query, bool) {
	acceptable := func(c string) bool {
		for _, a := range p.Acceptable {
			if a == c {
				return true
			}
		}

		return false
	}

	if !acceptable(q.Country) {
		if mapped, ok := p.CountryMap[q.Country]; ok {
			q.Country = mapped
		}
	}

	if q.Country != "" && len(p.Acceptable) > 0 && !acceptable(q.Country) {
		return q, false
	}

	return q, true
}

// RequireCountry cancels queries without a country, or fills in a default
// one when configured.
type RequireCountry struct {
	Default string
}

// Process implements Preprocessor.
func (p RequireCountry) Process(q Query) (Query, bool) {
	if strings.TrimSpace(q.Country) != "" {
		return q, true
	}

	if p.Default == "" {
		return q, false
	}

	q.Country = p.Default

	return q, true
}

// CancelIfRegexInAttr cancels the query when the pattern matches any of
// the named query fields. Unknown field names are ignored.
type CancelIfRegexInAttr struct {
	regex *regexp.Regexp
	attrs []string
}

// NewCancelIfRegexInAttr compiles the pattern (anchored at the start of
// the field, matching the historical behavior) against the named fields.
// Valid names: query, address, neighborhood, city, subregion, state,
// postal, country.
func NewCancelIfRegexInAttr(pattern string, attrs []string, ignoreCase bool) (*CancelIfRegexInAttr, error) {
	if len(attrs) == 0 {
		return nil, configErrorf("CancelIfRegexInAttr", "at least one attribute name is required")
	}

	if ignoreCase {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("compiling cancellation pattern: %w", err)
	}

	return &CancelIfRegexInAttr{regex: re, attrs: attrs}, nil
}

func queryAttr(q Query, name string) string {
	switch name {
	case "query":
		return q.Query
	case "address":
		return q.Address
	case "neighborhood":
		return q.Neighborhood
	case "city":
		return q.City
	case "subregion":
		return q.Subregion
	case "state":
		return q.State
	case "postal":
		return q.Postal
	case "country":
		return q.Country
	default:
		return ""
	}
}

// Process implements Preprocessor.
func (p *CancelIfRegexInAttr) Process(q Query) (Query, bool) {
	for _, attr := range p.attrs {
		if p.regex.MatchString(queryAttr(q, attr)) {
			return q, false
		}
	}

	return q, true
}

// CancelIfPOBox rejects queries whose address or free-form text starts
// with any variation of "PO Box". Street-only matching services cannot
// resolve those, so the request is dropped before any network call.
type CancelIfPOBox struct{}

var rePOBox = regexp.MustCompile(`(?i)^\s*P\.?\s*O\.?\s*B\.?O?X?[\s\d]`)

// Process implements Preprocessor.
func (CancelIfPOBox) Process(q Query) (Query, bool) {
	if rePOBox.MatchString(q.Address) || rePOBox.MatchString(q.Query) {
		return q, false
	}

	return q, true
}

// NormalizeASCII removes accents from the free-form and street fields and
// trims surrounding space, so providers with ASCII-only matching behave
// consistently. Lower additionally folds to lowercase.
type NormalizeASCII struct {
	Lower bool
}

func (p NormalizeASCII) fold(s string) string {
	if p.Lower {
		s = strings.ToLower(s)
	}

	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(s),
	)

	return s
}

// Process implements Preprocessor.
func (p NormalizeASCII) Process(q Query) (Query, bool) {
	q.Query = p.fold(q.Query)
	q.Address = p.fold(q.Address)
	q.City = p.fold(q.City)

	return q, true
}
