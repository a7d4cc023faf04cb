package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Monitor owns the observation map and its mutation discipline. Writes
// (upsert + prune) hold the lock for a short critical section; health reads
// come from a cached value so the verification path never recomputes.
type Monitor struct {
	mu           sync.RWMutex
	observations map[string]SlotObservation
	health       NetworkHealth

	detector  *Detector
	retention time.Duration
	logger    zerolog.Logger
}

// Options configure a Monitor.
type Options struct {
	StaleThreshold  time.Duration
	RetentionWindow time.Duration
}

// New constructs a health monitor.
func New(opts Options, logger zerolog.Logger) *Monitor {
	return &Monitor{
		observations: make(map[string]SlotObservation),
		health:       Healthy,
		detector:     NewDetector(opts.StaleThreshold),
		retention:    opts.RetentionWindow,
		logger:       logger.With().Str("component", "health_monitor").Logger(),
	}
}

// Record upserts an observation by source id and prunes entries that fell
// out of the retention window.
func (m *Monitor) Record(obs SlotObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug().Uint64("slot", obs.Slot).Str("source", obs.Source).Msg("recording slot observation")
	m.observations[obs.Source] = obs
	m.prune(time.Now().UTC())
}

// CheckHealth recomputes health from the current observation set, updates
// the cached value, and reports whether the state changed. Transitions are
// logged here exactly once.
func (m *Monitor) CheckHealth() (NetworkHealth, bool) {
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	health := m.detector.DetectHealth(m.observations, now)
	changed := health != m.health
	if changed {
		event := m.logger.Warn()
		if health == Healthy {
			event = m.logger.Info()
		}
		event.Stringer("previous", m.health).Stringer("current", health).Msg("network health changed")
	}
	m.health = health
	return health, changed
}

// Health returns the cached value without recomputation. This is the cheap
// read path used by the verification pipeline.
func (m *Monitor) Health() NetworkHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// Observations returns a copy of the current observation set.
func (m *Monitor) Observations() map[string]SlotObservation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]SlotObservation, len(m.observations))
	for k, v := range m.observations {
		out[k] = v
	}
	return out
}

// prune removes observations older than the retention window. Caller holds
// the write lock.
func (m *Monitor) prune(now time.Time) {
	cutoff := now.Add(-m.retention)
	for source, obs := range m.observations {
		if obs.ObservedAt.Before(cutoff) {
			delete(m.observations, source)
		}
	}
}
