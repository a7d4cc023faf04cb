package monitor

import "time"

const (
	// forkSupportThreshold is the minimum share of sources (percent) a slot
	// group needs before it counts as a competing fork.
	forkSupportThreshold = 30.0
	// healthyLagTolerance is the slot spread sources may show while still
	// being considered in lock-step.
	healthyLagTolerance = 2
)

// Detector derives network health from a set of per-source observations.
type Detector struct {
	staleThreshold time.Duration
}

// NewDetector builds a detector with the given staleness threshold.
func NewDetector(staleThreshold time.Duration) *Detector {
	return &Detector{staleThreshold: staleThreshold}
}

// DetectHealth classifies the observation set. Evaluation order matters:
// an empty or entirely stale set is a halt, a tight slot spread is healthy,
// and only then is fork support measured.
func (d *Detector) DetectHealth(observations map[string]SlotObservation, now time.Time) NetworkHealth {
	if len(observations) == 0 {
		return Halted
	}
	if d.allStale(observations, now) {
		return Halted
	}
	if d.hasSignificantFork(observations) {
		return Forked
	}
	return Healthy
}

func (d *Detector) allStale(observations map[string]SlotObservation, now time.Time) bool {
	for _, obs := range observations {
		if !obs.IsStale(now, d.staleThreshold) {
			return false
		}
	}
	return true
}

func (d *Detector) hasSignificantFork(observations map[string]SlotObservation) bool {
	groups := groupBySlot(observations)

	if withinHealthyTolerance(groups) {
		return false
	}

	total := len(observations)
	significant := 0
	for _, count := range groups {
		support := float64(count) / float64(total) * 100.0
		if support > forkSupportThreshold {
			significant++
		}
	}
	return significant > 1
}

func groupBySlot(observations map[string]SlotObservation) map[uint64]int {
	groups := make(map[uint64]int)
	for _, obs := range observations {
		groups[obs.Slot]++
	}
	return groups
}

func withinHealthyTolerance(groups map[uint64]int) bool {
	if len(groups) <= 1 {
		return true
	}

	first := true
	var min, max uint64
	for slot := range groups {
		if first {
			min, max = slot, slot
			first = false
			continue
		}
		if slot < min {
			min = slot
		}
		if slot > max {
			max = slot
		}
	}
	return max-min <= healthyLagTolerance
}
