// Package verify orchestrates the verification pipeline: health gate,
// consensus fetch, bridge decode, finality classification, and risk scoring.
package verify

import (
	"encoding/json"
	"fmt"
)

// FinalityLevel expresses confidence that a slot will not be reverted.
// Levels are ordered: Fast < Safe < UltraSafe.
type FinalityLevel int

const (
	Fast FinalityLevel = iota
	Safe
	UltraSafe
)

// Slot-age bands for classification.
const (
	safeSlotAge      = 32
	ultraSafeSlotAge = 64
)

func (l FinalityLevel) String() string {
	switch l {
	case Fast:
		return "fast"
	case Safe:
		return "safe"
	case UltraSafe:
		return "ultra_safe"
	default:
		return fmt.Sprintf("FinalityLevel(%d)", int(l))
	}
}

// MarshalJSON renders the level as its lowercase name.
func (l FinalityLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON.
func (l *FinalityLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "fast":
		*l = Fast
	case "safe":
		*l = Safe
	case "ultra_safe":
		*l = UltraSafe
	default:
		return fmt.Errorf("unknown finality level %q", s)
	}
	return nil
}

// RequiredStakePercent documents the nominal stake share behind each level.
// The classifier itself works on slot age, not stake.
func (l FinalityLevel) RequiredStakePercent() float64 {
	switch l {
	case UltraSafe:
		return 90.0
	case Safe:
		return 80.0
	default:
		return 66.0
	}
}

// FinalityFromStake maps an observed stake share onto a level.
func FinalityFromStake(stakePercent float64) FinalityLevel {
	switch {
	case stakePercent >= 90.0:
		return UltraSafe
	case stakePercent >= 80.0:
		return Safe
	default:
		return Fast
	}
}

// ClassifyFinality maps slot age onto a finality level. The age saturates
// at zero when a source reports a tip behind the transaction's slot.
func ClassifyFinality(currentSlot, txSlot uint64) FinalityLevel {
	var age uint64
	if currentSlot > txSlot {
		age = currentSlot - txSlot
	}
	switch {
	case age >= ultraSafeSlotAge:
		return UltraSafe
	case age >= safeSlotAge:
		return Safe
	default:
		return Fast
	}
}
