// Package monitor tracks per-source slot observations and derives network
// health (healthy, forked, halted) from their spread and freshness.
package monitor

import (
	"encoding/json"
	"fmt"
	"time"
)

// NetworkHealth is the derived liveness/consistency state of the network.
// It is recomputed from the observation set on demand, never transitioned
// incrementally.
type NetworkHealth int

const (
	Healthy NetworkHealth = iota
	Forked
	Halted
)

func (h NetworkHealth) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Forked:
		return "forked"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("NetworkHealth(%d)", int(h))
	}
}

// IsOperational reports whether verifications should proceed at full trust.
func (h NetworkHealth) IsOperational() bool {
	return h == Healthy
}

// IsDegraded is the complement of IsOperational.
func (h NetworkHealth) IsDegraded() bool {
	return !h.IsOperational()
}

// MarshalJSON renders the state as its lowercase name.
func (h NetworkHealth) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON accepts the lowercase names produced by MarshalJSON.
func (h *NetworkHealth) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "healthy":
		*h = Healthy
	case "forked":
		*h = Forked
	case "halted":
		*h = Halted
	default:
		return fmt.Errorf("unknown network health %q", s)
	}
	return nil
}

// SlotObservation is one source's most recent view of the chain tip. A newer
// observation from the same source replaces the older one.
type SlotObservation struct {
	Slot         uint64    `json:"slot"`
	Source       string    `json:"source"`
	ObservedAt   time.Time `json:"observed_at"`
	StakePercent *float64  `json:"stake_percent,omitempty"`
}

// NewObservation builds an observation stamped with the current time.
func NewObservation(slot uint64, sourceID string) SlotObservation {
	return SlotObservation{Slot: slot, Source: sourceID, ObservedAt: time.Now().UTC()}
}

// WithStake attaches the source's stake weight, when known.
func (o SlotObservation) WithStake(percent float64) SlotObservation {
	o.StakePercent = &percent
	return o
}

// Age returns how long ago the observation was made.
func (o SlotObservation) Age(now time.Time) time.Duration {
	return now.Sub(o.ObservedAt)
}

// IsStale reports whether the observation is older than the threshold.
func (o SlotObservation) IsStale(now time.Time, threshold time.Duration) bool {
	return o.Age(now) > threshold
}
