// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

// Preprocessor rewrites a Query before it is sent to any upstream service.
// Implementations must be deterministic and free of I/O so chains are
// trivially testable and safe to replay.
type Preprocessor interface {
	// Process returns the (possibly rewritten) query and true to continue,
	// or false to cancel: the remaining chain is skipped and no service is
	// called. Cancellation is a successful, intentionally empty result,
	// not an error.
	Process(q Query) (Query, bool)
}

// Postprocessor reduces the merged candidate list after all services have
// answered. Implementations return a new slice and never mutate the input,
// so earlier stages can be replayed in tests. The orchestrator guarantees
// a postprocessor is never invoked with an empty list.
type Postprocessor interface {
	Process(candidates []Candidate) []Candidate
}

// runPreprocessors threads the query through the chain in order, stopping
// at the first cancellation.
func runPreprocessors(q Query, chain []Preprocessor) (Query, bool) {
	for _, p := range chain {
		var ok bool

		q, ok = p.Process(q)
		if !ok {
			return q, false
		}
	}

	return q, true
}

// runPostprocessors threads the candidate list through the chain in order.
// An empty list short-circuits the whole chain: processors may assume at
// least one element.
func runPostprocessors(candidates []Candidate, chain []Postprocessor) []Candidate {
	for _, p := range chain {
		if len(candidates) == 0 {
			break
		}

		candidates = p.Process(candidates)
	}

	return candidates
}
