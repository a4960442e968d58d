// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"log"
	"sort"
	"strings"

	"github.com/uber/h3-go/v4"
)

// SnapPoints collapses candidates that sit within Distance meters of an
// earlier candidate, keeping the first of each group. Comparisons use the
// great-circle distance between the actual coordinate values.
type SnapPoints struct {
	// Distance is the merge threshold in meters. Zero means the default
	// of 50; candidates at or beyond the threshold stay distinct.
	Distance float64
}

// DefaultSnapDistance is the merge threshold used when none is configured.
const DefaultSnapDistance = 50.0

func (p SnapPoints) distance() float64 {
	if p.Distance <= 0 {
		return DefaultSnapDistance
	}

	return p.Distance
}

// Process implements Postprocessor.
func (p SnapPoints) Process(candidates []Candidate) []Candidate {
	threshold := p.distance()
	keepers := make([]Candidate, 0, len(candidates))
	merged := make([]bool, len(candidates))

	for i, c := range candidates {
		if merged[i] {
			continue
		}

		keepers = append(keepers, c)
		pnt := c.Point()

		for j := i + 1; j < len(candidates); j++ {
			if merged[j] {
				continue
			}

			other := candidates[j].Point()
			if pnt.HaversineDistance(&other) < threshold {
				merged[j] = true
			}
		}
	}

	return keepers
}

// GroupByCell collapses candidates that fall into the same H3 cell at the
// configured resolution, keeping the first per cell. It is the coarse,
// index-based variant of SnapPoints: resolution 11 cells are roughly a
// 25 m across, resolution 9 roughly 175 m.
type GroupByCell struct {
	Resolution int
}

// Process implements Postprocessor.
func (p GroupByCell) Process(candidates []Candidate) []Candidate {
	keepers := make([]Candidate, 0, len(candidates))
	seen := make(map[h3.Cell]bool, len(candidates))

	for _, c := range candidates {
		cell, err := h3.LatLngToCell(h3.NewLatLng(c.Y, c.X), p.Resolution)
		if err != nil {
			// an unindexable coordinate is kept rather than silently dropped
			log.Printf("GroupByCell: indexing %s: %v", c, err)
			keepers = append(keepers, c)

			continue
		}

		if seen[cell] {
			continue
		}

		seen[cell] = true
		keepers = append(keepers, c)
	}

	return keepers
}

// LocatorFilter drops candidates whose locator is not in Good.
type LocatorFilter struct {
	Good []string
}

// Process implements Postprocessor.
func (p LocatorFilter) Process(candidates []Candidate) []Candidate {
	return AttrFilter{Attr: "locator", Good: p.Good, ExactMatch: true}.Process(candidates)
}

// AttrFilter keeps candidates whose named attribute matches one of the
// Good values. With ExactMatch false a value matches when it contains any
// good value as a substring, so "building." accepts "building.house".
type AttrFilter struct {
	Attr       string
	Good       []string
	ExactMatch bool
}

// Process implements Postprocessor.
func (p AttrFilter) Process(candidates []Candidate) []Candidate {
	keepers := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		val := c.attr(p.Attr)
		if attrMatches(val, p.Good, p.ExactMatch) {
			keepers = append(keepers, c)
		}
	}

	return keepers
}

// AttrExclude drops candidates whose named attribute matches one of the
// Bad values.
type AttrExclude struct {
	Attr       string
	Bad        []string
	ExactMatch bool
}

// Process implements Postprocessor.
func (p AttrExclude) Process(candidates []Candidate) []Candidate {
	keepers := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		val := c.attr(p.Attr)
		if !attrMatches(val, p.Bad, p.ExactMatch) {
			keepers = append(keepers, c)
		}
	}

	return keepers
}

func attrMatches(val string, values []string, exact bool) bool {
	for _, v := range values {
		if exact {
			if val == v {
				return true
			}
		} else if strings.Contains(val, v) {
			return true
		}
	}

	return false
}

// AttrRename remaps values of the named attribute through Map, e.g.
// provider locator names onto the standardized vocabulary. Unmapped
// values pass through untouched. With ExactMatch false, a map key only
// needs to be a substring of the value (case-insensitively unless
// CaseSensitive is set).
type AttrRename struct {
	Attr          string
	Map           map[string]string
	ExactMatch    bool
	CaseSensitive bool
}

// Process implements Postprocessor.
func (p AttrRename) Process(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if mapped, ok := lookupAttrMap(c.attr(p.Attr), p.Map, p.ExactMatch, p.CaseSensitive); ok {
			c = setAttr(c, p.Attr, mapped)
		}

		out = append(out, c)
	}

	return out
}

func lookupAttrMap(val string, attrMap map[string]string, exact, caseSensitive bool) (string, bool) {
	cc := func(s string) string {
		if caseSensitive {
			return s
		}

		return strings.ToLower(s)
	}

	for k, v := range attrMap {
		if exact {
			if cc(k) == cc(val) {
				return v, true
			}
		} else if strings.Contains(cc(val), cc(k)) {
			return v, true
		}
	}

	return "", false
}

// setAttr returns a copy of the candidate with the named string attribute
// replaced. Candidates are value types, so the input is untouched.
func setAttr(c Candidate, name, val string) Candidate {
	switch name {
	case "locator":
		c.Locator = val
	case "locator_type":
		c.LocatorType = val
	case "entity":
		c.Entity = val
	case "match_addr":
		c.MatchAddr = val
	case "service":
		c.Service = val
	}

	return c
}

// ScoreMigration maps a provider's categorical confidence onto the
// normalized [0, 100] score scale, e.g. {"High": 100, "Medium": 85,
// "Low": 50} keyed on the entity or locator attribute.
type ScoreMigration struct {
	Attr          string
	Map           map[string]float64
	CaseSensitive bool
}

// Process implements Postprocessor.
func (p ScoreMigration) Process(candidates []Candidate) []Candidate {
	cc := func(s string) string {
		if p.CaseSensitive {
			return s
		}

		return strings.ToLower(s)
	}

	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		val := cc(c.attr(p.Attr))

		for k, score := range p.Map {
			if cc(k) == val {
				c.Score = score

				break
			}
		}

		out = append(out, c)
	}

	return out
}

// UseHighScoreIfAtLeast keeps only candidates scoring at least MinScore,
// if and only if at least one candidate reaches it. Otherwise the whole
// list passes through untouched.
type UseHighScoreIfAtLeast struct {
	MinScore float64
}

// Process implements Postprocessor.
func (p UseHighScoreIfAtLeast) Process(candidates []Candidate) []Candidate {
	high := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if c.Score >= p.MinScore {
			high = append(high, c)
		}
	}

	if len(high) == 0 {
		return candidates
	}

	return high
}

// ScoreFilter drops every candidate scoring below MinScore, without the
// all-or-nothing behavior of UseHighScoreIfAtLeast.
type ScoreFilter struct {
	MinScore float64
}

// Process implements Postprocessor.
func (p ScoreFilter) Process(candidates []Candidate) []Candidate {
	keepers := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if c.Score >= p.MinScore {
			keepers = append(keepers, c)
		}
	}

	return keepers
}

// ScoreSorter orders candidates by score, best first unless Ascending is
// set. The sort is stable so equal scores keep their backend order.
type ScoreSorter struct {
	Ascending bool
}

// Process implements Postprocessor.
func (p ScoreSorter) Process(candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)

	sort.SliceStable(out, func(i, j int) bool {
		if p.Ascending {
			return out[i].Score < out[j].Score
		}

		return out[i].Score > out[j].Score
	})

	return out
}

// AttrSorter reorders candidates so those whose named attribute matches
// Ordered values come first, in the configured order. Candidates with
// unlisted values keep their relative order at the end.
type AttrSorter struct {
	Attr    string
	Ordered []string
}

// Process implements Postprocessor.
func (p AttrSorter) Process(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	taken := make([]bool, len(candidates))

	for _, want := range p.Ordered {
		for i, c := range candidates {
			if !taken[i] && c.attr(p.Attr) == want {
				out = append(out, c)
				taken[i] = true
			}
		}
	}

	for i, c := range candidates {
		if !taken[i] {
			out = append(out, c)
		}
	}

	return out
}

// AttrReverseSorter is AttrSorter with the configured order reversed,
// for configurations that already hold the list in the opposite order.
type AttrReverseSorter struct {
	Attr    string
	Ordered []string
}

// Process implements Postprocessor.
func (p AttrReverseSorter) Process(candidates []Candidate) []Candidate {
	reversed := make([]string, len(p.Ordered))
	for i, v := range p.Ordered {
		reversed[len(p.Ordered)-1-i] = v
	}

	return AttrSorter{Attr: p.Attr, Ordered: reversed}.Process(candidates)
}

// GroupBy keeps the first candidate per distinct value combination of the
// named attributes, so it is usually run after a sorter. The special
// attribute name "xy" groups on the exact coordinate pair.
type GroupBy struct {
	Attrs []string
}

// Process implements Postprocessor.
func (p GroupBy) Process(candidates []Candidate) []Candidate {
	keepers := make([]Candidate, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		key := groupKey(c, p.Attrs)
		if seen[key] {
			continue
		}

		seen[key] = true
		keepers = append(keepers, c)
	}

	return keepers
}

func groupKey(c Candidate, attrs []string) string {
	parts := make([]string, 0, len(attrs))

	for _, attr := range attrs {
		if attr == "xy" {
			parts = append(parts, c.Point().String())

			continue
		}

		parts = append(parts, c.attr(attr))
	}

	return strings.Join(parts, "\x00")
}

// DupePicker narrows near-duplicate candidates: among the top-scoring
// candidates, all candidates sharing (case- and comma-insensitively) the
// same AttrDupes value are sorted by AttrSort along Ordered, and the ones
// carrying the best attribute value win. See the historical example of
// trading a lower-scored rooftop match for a same-address interpolated
// one.
type DupePicker struct {
	AttrDupes string
	AttrSort  string
	Ordered   []string
}

// Process implements Postprocessor.
func (p DupePicker) Process(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return []Candidate{}
	}

	cleanup := func(s string) string {
		return strings.ToUpper(strings.ReplaceAll(s, ",", ""))
	}

	byScore := ScoreSorter{}.Process(candidates)
	hiScore := byScore[0].Score

	newCandidates := make([]Candidate, 0, len(candidates))
	have := func(c Candidate) bool {
		for _, n := range newCandidates {
			if n == c {
				return true
			}
		}

		return false
	}

	for _, hsc := range candidates {
		if hsc.Score != hiScore {
			continue
		}

		want := cleanup(hsc.attr(p.AttrDupes))

		matching := make([]Candidate, 0, len(candidates))

		for _, mc := range candidates {
			if cleanup(mc.attr(p.AttrDupes)) == want {
				matching = append(matching, mc)
			}
		}

		matching = AttrSorter{Attr: p.AttrSort, Ordered: p.Ordered}.Process(matching)
		best := matching[0].attr(p.AttrSort)

		for _, nc := range matching {
			if nc.attr(p.AttrSort) == best && !have(nc) {
				newCandidates = append(newCandidates, nc)
			}
		}
	}

	return newCandidates
}
