package verify

import (
	"context"

	"github.com/rs/zerolog"

	"slotguard/internal/bridge"
	"slotguard/internal/monitor"
	"slotguard/internal/source"
)

// Pipeline sequences one verification decision per signature: health gate,
// consensus fetch, bridge decode, on-chain success check, finality, risk.
type Pipeline struct {
	sources *source.Multi
	monitor *monitor.Monitor
	logger  zerolog.Logger
}

// NewPipeline wires the verification pipeline.
func NewPipeline(sources *source.Multi, mon *monitor.Monitor, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		sources: sources,
		monitor: mon,
		logger:  logger.With().Str("component", "verification").Logger(),
	}
}

// Verify runs the full pipeline for one signature.
func (p *Pipeline) Verify(ctx context.Context, signature string) (*Result, error) {
	if err := ValidateSignature(signature); err != nil {
		return nil, err
	}

	log := p.logger.With().Str("signature", signature).Logger()
	log.Debug().Msg("starting verification")

	// Step 1: health gate from the cached value; a halted network fails
	// fast before any source is queried.
	health := p.monitor.Health()
	if health == monitor.Halted {
		log.Warn().Msg("network halted, refusing verification")
		return nil, ErrNetworkHalted
	}

	// Step 2: fetch with responder quorum.
	tx, consensusCount, err := p.sources.TransactionWithQuorum(ctx, signature)
	if err != nil {
		return nil, err
	}

	// Step 3: best-effort bridge decode; nil means not a bridge transaction.
	parsed := bridge.Decode(tx.AccountKeys, tx.Instructions)
	if parsed != nil {
		log.Debug().Stringer("bridge", parsed).Msg("bridge instruction detected")
	}

	// Step 4: on-chain success. A failed transaction short-circuits with a
	// maximum-risk negative result; finality and risk are not computed.
	if !tx.Success {
		log.Warn().Uint64("slot", tx.Slot).Msg("transaction failed on-chain")
		return NewFailedResult(signature, tx.Slot, health, parsed), nil
	}

	// Step 5: finality, itself requiring fresh slot consensus.
	currentSlot, err := p.sources.ConsensusSlot(ctx)
	if err != nil {
		return nil, err
	}
	finality := ClassifyFinality(currentSlot, tx.Slot)

	// Step 6: risk.
	ratio := float64(consensusCount) / float64(p.sources.SourceCount())
	risk := RiskScore(finality, health, ratio)

	result := NewResult(signature, tx.Slot, risk, finality, health, consensusCount, parsed)

	log.Info().
		Uint64("slot", tx.Slot).
		Stringer("finality", finality).
		Float64("risk", result.RiskScore).
		Int("consensus", consensusCount).
		Msg("verification complete")

	return result, nil
}

// Outcome is one signature's result or error within a batch.
type Outcome struct {
	Signature string
	Result    *Result
	Err       error
}

// VerifyBatch verifies signatures sequentially, collecting one outcome per
// input. A failing signature never aborts the batch.
func (p *Pipeline) VerifyBatch(ctx context.Context, signatures []string) []Outcome {
	outcomes := make([]Outcome, 0, len(signatures))
	for _, sig := range signatures {
		result, err := p.Verify(ctx, sig)
		outcomes = append(outcomes, Outcome{Signature: sig, Result: result, Err: err})
	}
	return outcomes
}
