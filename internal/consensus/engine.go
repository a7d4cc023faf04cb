// Package consensus implements threshold majority voting over responses
// collected from independent, mutually-distrusted ledger sources.
package consensus

import "fmt"

// Error reports that too few sources responded or agreed.
type Error struct {
	Have int
	Need int
}

func (e *Error) Error() string {
	return fmt.Sprintf("insufficient consensus: %d/%d responses", e.Have, e.Need)
}

// Engine gates aggregated responses behind a configured agreement threshold.
// The threshold invariant (1 <= threshold <= sources) is enforced at
// construction; a zero-value Engine is not usable.
type Engine struct {
	threshold int
	sources   int
}

// NewEngine validates and builds a consensus engine.
func NewEngine(threshold, sources int) (*Engine, error) {
	if sources < 1 {
		return nil, fmt.Errorf("consensus requires at least one source")
	}
	if threshold < 1 {
		return nil, fmt.Errorf("consensus threshold must be at least 1, got %d", threshold)
	}
	if threshold > sources {
		return nil, fmt.Errorf("consensus threshold %d exceeds source count %d", threshold, sources)
	}
	return &Engine{threshold: threshold, sources: sources}, nil
}

// Threshold returns the configured agreement threshold.
func (e *Engine) Threshold() int {
	return e.threshold
}

// SourceCount returns the number of configured sources.
func (e *Engine) SourceCount() int {
	return e.sources
}

// CheckQuorum fails when fewer than threshold responses arrived.
func (e *Engine) CheckQuorum(have int) error {
	if have < e.threshold {
		return &Error{Have: have, Need: e.threshold}
	}
	return nil
}

// FindConsensus picks the most common value among responses, requiring its
// occurrence count to meet the engine threshold. Ties between equally common
// values break toward the value seen first in arrival order, which keeps the
// result deterministic for a given response sequence.
func FindConsensus[T comparable](e *Engine, responses []T) (T, error) {
	var zero T
	if err := e.CheckQuorum(len(responses)); err != nil {
		return zero, err
	}

	counts := make(map[T]int, len(responses))
	for _, r := range responses {
		counts[r]++
	}

	winner := zero
	best := 0
	for _, r := range responses {
		if c := counts[r]; c > best {
			winner = r
			best = c
		}
	}

	if best < e.threshold {
		return zero, &Error{Have: best, Need: e.threshold}
	}
	return winner, nil
}

// Ratio reports the share of responses that carry the most common value.
// Purely a metric for risk scoring, never a gate.
func Ratio[T comparable](responses []T) float64 {
	if len(responses) == 0 {
		return 0
	}
	counts := make(map[T]int, len(responses))
	max := 0
	for _, r := range responses {
		counts[r]++
		if counts[r] > max {
			max = counts[r]
		}
	}
	return float64(max) / float64(len(responses))
}
