// Package service orchestrates the polling loop, the verification pipeline,
// and everything that observes their results.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"slotguard/internal/alerting"
	"slotguard/internal/consensus"
	"slotguard/internal/events"
	"slotguard/internal/metrics"
	"slotguard/internal/monitor"
	"slotguard/internal/scheduler"
	"slotguard/internal/source"
	"slotguard/internal/storage"
	"slotguard/internal/verify"
)

// Options wire the service's collaborators. Store, transitions, notifier,
// hub, and metrics are optional; a nil field disables that concern.
type Options struct {
	Scheduler   *scheduler.Scheduler
	Sources     *source.Multi
	Monitor     *monitor.Monitor
	Pipeline    *verify.Pipeline
	Hub         *events.Hub
	Metrics     *metrics.Metrics
	Store       storage.VerificationStore
	Transitions storage.TransitionStore
	Notifier    alerting.Notifier
	Network     string
	AlertsOn    bool
	// HistoryRetention bounds how long persisted verifications are kept.
	// Zero disables the retention sweep.
	HistoryRetention time.Duration
}

// sweepInterval spaces out retention sweeps; the poll tick itself runs far
// too often to delete on every pass.
const sweepInterval = time.Hour

// Service runs the health poll and fronts the verification pipeline.
type Service struct {
	opts   Options
	logger zerolog.Logger

	lastHealth monitor.NetworkHealth
	lastSweep  time.Time
}

// New constructs the oracle service.
func New(opts Options, logger zerolog.Logger) *Service {
	return &Service{
		opts:       opts,
		logger:     logger.With().Str("component", "service").Logger(),
		lastHealth: monitor.Healthy,
	}
}

// Run begins the health polling loop and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.opts.Scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.opts.Scheduler.Run(ctx, s.PollTick)
}

// PollTick samples every source's slot, feeds the monitor, and reacts to
// health transitions.
func (s *Service) PollTick(ctx context.Context, at time.Time) error {
	samples := s.opts.Sources.ObserveSlots(ctx)
	for _, sample := range samples {
		s.opts.Monitor.Record(monitor.SlotObservation{
			Slot:       sample.Slot,
			Source:     sample.Source,
			ObservedAt: sample.ObservedAt,
		})
	}

	health, changed := s.opts.Monitor.CheckHealth()
	if s.opts.Metrics != nil {
		s.opts.Metrics.SetNetworkHealth(health)
	}
	if changed {
		s.handleTransition(ctx, health)
	}
	s.lastHealth = health

	s.sweepHistory(ctx)
	return nil
}

// sweepHistory deletes verification rows older than the retention window,
// at most once per sweep interval.
func (s *Service) sweepHistory(ctx context.Context) {
	if s.opts.HistoryRetention <= 0 || s.opts.Store == nil {
		return
	}
	now := time.Now().UTC()
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now

	cutoff := now.Add(-s.opts.HistoryRetention)
	if err := s.opts.Store.DeleteVerificationsBefore(ctx, cutoff); err != nil {
		s.logger.Error().Err(err).Time("cutoff", cutoff).Msg("failed to sweep verification history")
	}
}

func (s *Service) handleTransition(ctx context.Context, current monitor.NetworkHealth) {
	slot := s.highestSlot()

	if s.opts.Transitions != nil {
		record := storage.HealthTransition{
			Previous: s.lastHealth.String(),
			Current:  current.String(),
			Slot:     slot,
		}
		if _, err := s.opts.Transitions.InsertHealthTransition(ctx, record); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist health transition")
		}
	}

	if s.opts.AlertsOn && s.opts.Notifier != nil {
		note := alerting.Notification{
			At:       time.Now().UTC(),
			Previous: s.lastHealth,
			Current:  current,
			Slot:     slot,
			Sources:  len(s.opts.Monitor.Observations()),
			Network:  s.opts.Network,
		}
		if err := s.opts.Notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Msg("failed to dispatch health alert")
		}
	}
}

func (s *Service) highestSlot() uint64 {
	var highest uint64
	for _, obs := range s.opts.Monitor.Observations() {
		if obs.Slot > highest {
			highest = obs.Slot
		}
	}
	return highest
}

// Verify runs one verification and fans the outcome out to metrics, the
// event feed, and storage.
func (s *Service) Verify(ctx context.Context, signature string) (*verify.Result, error) {
	start := time.Now()
	result, err := s.opts.Pipeline.Verify(ctx, signature)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if s.opts.Metrics != nil {
			s.opts.Metrics.ObserveVerification(outcomeLabel(nil, err), elapsed, 0)
		}
		return nil, err
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveVerification(outcomeLabel(result, nil), elapsed, result.ConsensusCount)
	}
	if s.opts.Hub != nil {
		s.opts.Hub.Publish(events.FromResult(result))
	}
	if s.opts.Store != nil {
		if storeErr := s.opts.Store.UpsertVerification(ctx, toRecord(result)); storeErr != nil {
			s.logger.Error().Err(storeErr).Str("signature", signature).Msg("failed to persist verification")
		}
	}
	return result, nil
}

// VerifyBatch verifies signatures sequentially through Verify so every
// outcome is observed and published individually.
func (s *Service) VerifyBatch(ctx context.Context, signatures []string) []verify.Outcome {
	outcomes := make([]verify.Outcome, 0, len(signatures))
	for _, sig := range signatures {
		result, err := s.Verify(ctx, sig)
		outcomes = append(outcomes, verify.Outcome{Signature: sig, Result: result, Err: err})
	}
	return outcomes
}

func outcomeLabel(result *verify.Result, err error) string {
	switch {
	case err == nil && result != nil && result.Verified:
		return "verified"
	case err == nil:
		return "failed_onchain"
	case errors.Is(err, verify.ErrInvalidSignature):
		return "rejected"
	case errors.Is(err, verify.ErrNetworkHalted):
		return "halted"
	default:
		var consensusErr *consensus.Error
		if errors.As(err, &consensusErr) {
			return "no_consensus"
		}
		return "error"
	}
}

func toRecord(result *verify.Result) storage.VerificationRecord {
	rec := storage.VerificationRecord{
		Signature:      result.Signature,
		Slot:           result.Slot,
		Verified:       result.Verified,
		RiskScore:      result.RiskScore,
		Finality:       result.Finality.String(),
		Health:         result.NetworkHealth.String(),
		ConsensusCount: result.ConsensusCount,
		ObservedAt:     result.ObservedAt,
	}
	if result.Bridge != nil {
		name := result.Bridge.InstructionName()
		rec.BridgeInstruction = &name
		if amount, ok := result.Bridge.HumanAmount(); ok {
			rec.BridgeAmount = &amount
		}
		if chain, ok := result.Bridge.TargetChainName(); ok {
			rec.TargetChain = &chain
		}
	}
	return rec
}
