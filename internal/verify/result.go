package verify

import (
	"time"

	"slotguard/internal/bridge"
	"slotguard/internal/monitor"
)

// Result is the outcome of one verification. It is fully populated by its
// constructor and immutable afterwards.
type Result struct {
	Signature      string                `json:"signature"`
	Slot           uint64                `json:"slot"`
	Verified       bool                  `json:"verified"`
	RiskScore      float64               `json:"risk_score"`
	Finality       FinalityLevel         `json:"finality_level"`
	NetworkHealth  monitor.NetworkHealth `json:"network_health"`
	ConsensusCount int                   `json:"consensus_count"`
	Bridge         *bridge.Parsed        `json:"parsed_instruction,omitempty"`
	ObservedAt     time.Time             `json:"observed_at"`
}

// NewResult builds a verified result. The risk score is clamped into [0, 1].
func NewResult(signature string, slot uint64, risk float64, finality FinalityLevel, health monitor.NetworkHealth, consensusCount int, parsed *bridge.Parsed) *Result {
	return &Result{
		Signature:      signature,
		Slot:           slot,
		Verified:       true,
		RiskScore:      clamp01(risk),
		Finality:       finality,
		NetworkHealth:  health,
		ConsensusCount: consensusCount,
		Bridge:         parsed,
		ObservedAt:     time.Now().UTC(),
	}
}

// NewFailedResult builds the result for a transaction that failed on-chain:
// maximum risk, lowest finality tier, no consensus credit. On-chain failure
// is a valid negative outcome, not an error.
func NewFailedResult(signature string, slot uint64, health monitor.NetworkHealth, parsed *bridge.Parsed) *Result {
	return &Result{
		Signature:      signature,
		Slot:           slot,
		Verified:       false,
		RiskScore:      1.0,
		Finality:       Fast,
		NetworkHealth:  health,
		ConsensusCount: 0,
		Bridge:         parsed,
		ObservedAt:     time.Now().UTC(),
	}
}

// IsSafe reports whether the result clears the conservative acceptance bar.
func (r *Result) IsSafe() bool {
	return r.Verified &&
		r.NetworkHealth.IsOperational() &&
		r.RiskScore < 0.2 &&
		r.Finality >= Safe
}
