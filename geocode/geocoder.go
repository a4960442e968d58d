// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StopPolicy decides, after each backend answers, whether the remaining
// backends can be skipped. It sees the candidates accumulated so far.
type StopPolicy func(accumulated []Candidate) bool

// StopAfter returns a policy that stops querying once at least n
// candidates have accumulated. StopAfter(1) is the classic waterfall:
// fall through the source list until anything matches.
func StopAfter(n int) StopPolicy {
	return func(accumulated []Candidate) bool {
		return len(accumulated) >= n
	}
}

// Config fixes a Geocoder's behavior at construction time. The orchestrator
// copies the slices, so the configuration cannot be changed afterwards and
// concurrent Geocode calls on one Geocoder never interfere.
type Config struct {
	// Preprocessors run in order against the query before any backend is
	// contacted; the first cancellation ends the call with an empty Result.
	Preprocessors []Preprocessor

	// Sources are the upstream services, queried in order. Each adapter
	// already carries its own settings, merged at its construction.
	Sources []GeocodeService

	// Postprocessors run in order against the merged candidate list.
	Postprocessors []Postprocessor

	// Stop optionally short-circuits the source list; nil queries every
	// source. A non-nil policy forces sequential execution, since it
	// depends on accumulated-so-far state.
	Stop StopPolicy

	// Parallel issues one call per source concurrently instead of walking
	// them in order. Diagnostics are still returned in configured source
	// order. Sequential remains the default: it bounds the outbound
	// request rate against rate-limited providers, at the documented cost
	// of worst-case latency being the sum of the configured timeouts.
	Parallel bool
}

// Geocoder dispatches queries to the configured sources and reduces their
// answers into one ranked candidate list plus per-source diagnostics.
type Geocoder struct {
	pre      []Preprocessor
	sources  []GeocodeService
	post     []Postprocessor
	stop     StopPolicy
	parallel bool
}

// New validates the configuration and builds a Geocoder. Configuration
// mistakes are the only errors this package ever raises; once New
// succeeds, Geocode always returns a structurally valid Result.
func New(cfg Config) (*Geocoder, error) {
	if len(cfg.Sources) == 0 {
		return nil, configErrorf("geocoder", "must declare at least one source")
	}

	for i, src := range cfg.Sources {
		if src == nil {
			return nil, configErrorf("geocoder", "source %d is nil", i)
		}

		if src.Name() == "" {
			return nil, configErrorf("geocoder", "source %d has no name", i)
		}
	}

	g := &Geocoder{
		pre:      make([]Preprocessor, len(cfg.Preprocessors)),
		sources:  make([]GeocodeService, len(cfg.Sources)),
		post:     make([]Postprocessor, len(cfg.Postprocessors)),
		stop:     cfg.Stop,
		parallel: cfg.Parallel,
	}
	copy(g.pre, cfg.Preprocessors)
	copy(g.sources, cfg.Sources)
	copy(g.post, cfg.Postprocessors)

	return g, nil
}

// GeocodeString wraps a raw single-line address and geocodes it.
func (g *Geocoder) GeocodeString(ctx context.Context, text string) Result {
	return g.Geocode(ctx, NewQuery(text))
}

// Geocode runs the full pipeline: preprocess, query the sources, then
// postprocess the merged candidates. It never fails; upstream problems
// are visible only through the returned diagnostics.
func (g *Geocoder) Geocode(ctx context.Context, q Query) Result {
	processed, ok := runPreprocessors(q, g.pre)
	if !ok {
		// cancellation is a successful, intentionally empty result: no
		// source was invoked, so there are exactly zero diagnostics
		return emptyResult()
	}

	var (
		candidates []Candidate
		infos      []*UpstreamResponseInfo
	)

	if g.parallel && g.stop == nil {
		candidates, infos = g.queryParallel(ctx, processed)
	} else {
		candidates, infos = g.querySequential(ctx, processed)
	}

	candidates = runPostprocessors(candidates, g.post)

	if candidates == nil {
		candidates = []Candidate{}
	}

	if infos == nil {
		infos = []*UpstreamResponseInfo{}
	}

	return Result{Candidates: candidates, UpstreamResponseInfo: infos}
}

func (g *Geocoder) querySequential(ctx context.Context, q Query) ([]Candidate, []*UpstreamResponseInfo) {
	candidates := make([]Candidate, 0, len(g.sources))
	infos := make([]*UpstreamResponseInfo, 0, len(g.sources))

	for _, src := range g.sources {
		found, info := g.callSource(ctx, src, q)
		if info != nil {
			infos = append(infos, info)
		}

		candidates = append(candidates, found...)

		if g.stop != nil && g.stop(candidates) {
			break
		}
	}

	return candidates, infos
}

func (g *Geocoder) queryParallel(ctx context.Context, q Query) ([]Candidate, []*UpstreamResponseInfo) {
	type slot struct {
		candidates []Candidate
		info       *UpstreamResponseInfo
	}

	slots := make([]slot, len(g.sources))

	var wg sync.WaitGroup

	for i, src := range g.sources {
		wg.Add(1)

		go func(i int, src GeocodeService) {
			defer wg.Done()

			found, info := g.callSource(ctx, src, q)
			slots[i] = slot{candidates: found, info: info}
		}(i, src)
	}

	wg.Wait()

	// merge per-source results back into configured source order so the
	// output is indistinguishable from a sequential run
	candidates := make([]Candidate, 0, len(g.sources))
	infos := make([]*UpstreamResponseInfo, 0, len(g.sources))

	for _, s := range slots {
		candidates = append(candidates, s.candidates...)

		if s.info != nil {
			infos = append(infos, s.info)
		}
	}

	return candidates, infos
}

// watchdogGrace is how long past a source's own timeout the orchestrator
// waits before writing the source off. It only matters for adapters that
// fail to honor their deadline; a conforming adapter answers first.
const watchdogGrace = time.Second

// callSource invokes one service and guarantees an answer within the
// source's timeout plus grace, even against a hung adapter. Candidates
// are tagged with the source name if the adapter did not do so itself.
func (g *Geocoder) callSource(ctx context.Context, src GeocodeService, q Query) ([]Candidate, *UpstreamResponseInfo) {
	timeout := DefaultTimeout
	if tr, ok := src.(TimeoutReporter); ok && tr.Timeout() > 0 {
		timeout = tr.Timeout()
	}

	type outcome struct {
		candidates []Candidate
		info       *UpstreamResponseInfo
	}

	// buffered so a late answer from a hung adapter is dropped, not leaked
	ch := make(chan outcome, 1)
	start := time.Now()

	go func() {
		found, info := src.Geocode(ctx, q)
		ch <- outcome{candidates: found, info: info}
	}()

	timer := time.NewTimer(timeout + watchdogGrace)
	defer timer.Stop()

	select {
	case out := <-ch:
		for i := range out.candidates {
			if out.candidates[i].Service == "" {
				out.candidates[i].Service = src.Name()
			}
		}

		return out.candidates, out.info
	case <-timer.C:
		return nil, &UpstreamResponseInfo{
			Service:        src.Name(),
			ProcessedQuery: q,
			Success:        false,
			ResponseTime:   time.Since(start),
			ErrorType:      ErrorTypeTimeout,
			Errors:         []string{fmt.Sprintf("no response from %s within %s", src.Name(), timeout+watchdogGrace)},
		}
	case <-ctx.Done():
		return nil, &UpstreamResponseInfo{
			Service:        src.Name(),
			ProcessedQuery: q,
			Success:        false,
			ResponseTime:   time.Since(start),
			ErrorType:      ErrorTypeTimeout,
			Errors:         []string{fmt.Sprintf("geocode call aborted: %v", ctx.Err())},
		}
	}
}
