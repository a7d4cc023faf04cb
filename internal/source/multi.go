package source

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"slotguard/internal/consensus"
)

// MultiOptions tune the fan-out behaviour.
type MultiOptions struct {
	// Threshold is the consensus threshold over the configured clients.
	Threshold int
	// CallTimeout bounds every per-source call. A slow source is abandoned
	// at the deadline instead of stalling the whole batch.
	CallTimeout time.Duration
	// ErrorHook, when set, is invoked for every absorbed per-source failure.
	ErrorHook func(sourceID string)
}

// Multi fans a query out to every configured source concurrently and
// reconciles whatever succeeds through the consensus engine. Individual
// source failures are absorbed here; they only become visible in aggregate
// as a consensus error when too few sources answered.
type Multi struct {
	clients   []Client
	engine    *consensus.Engine
	timeout   time.Duration
	errorHook func(string)
	logger    zerolog.Logger
}

// NewMulti builds the multi-source client. The threshold invariant is
// enforced here, at startup, never at request time.
func NewMulti(clients []Client, opts MultiOptions, logger zerolog.Logger) (*Multi, error) {
	engine, err := consensus.NewEngine(opts.Threshold, len(clients))
	if err != nil {
		return nil, err
	}

	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Multi{
		clients:   clients,
		engine:    engine,
		timeout:   timeout,
		errorHook: opts.ErrorHook,
		logger:    logger.With().Str("component", "multi_source").Logger(),
	}, nil
}

// SourceCount returns the number of configured sources.
func (m *Multi) SourceCount() int {
	return len(m.clients)
}

// Threshold returns the configured consensus threshold.
func (m *Multi) Threshold() int {
	return m.engine.Threshold()
}

// SlotSample is one source's answer to a slot poll.
type SlotSample struct {
	Source     string
	Slot       uint64
	ObservedAt time.Time
}

// ObserveSlots polls every source for its current slot and returns one sample
// per source that answered. Used by the health monitor; no consensus gate.
func (m *Multi) ObserveSlots(ctx context.Context) []SlotSample {
	results := fanOut(ctx, m, func(ctx context.Context, c Client) (uint64, error) {
		return c.CurrentSlot(ctx)
	}, 0)

	samples := make([]SlotSample, 0, len(results))
	now := time.Now().UTC()
	for _, r := range results {
		samples = append(samples, SlotSample{Source: r.source, Slot: r.value, ObservedAt: now})
	}
	return samples
}

// ConsensusSlot returns the majority slot value across sources, gated by the
// configured threshold.
func (m *Multi) ConsensusSlot(ctx context.Context) (uint64, error) {
	results := fanOut(ctx, m, func(ctx context.Context, c Client) (uint64, error) {
		return c.CurrentSlot(ctx)
	}, 0)

	slots := make([]uint64, 0, len(results))
	for _, r := range results {
		slots = append(slots, r.value)
	}

	slot, err := consensus.FindConsensus(m.engine, slots)
	if err != nil {
		return 0, err
	}

	m.logger.Debug().Uint64("slot", slot).Int("responses", len(slots)).Msg("slot consensus reached")
	return slot, nil
}

// TransactionWithQuorum fetches the transaction from all sources and returns
// the first success once enough sources responded, along with the responder
// count. Unlike the slot path, fetched content is not required to match
// across sources; the quorum is over responder count only. The weaker
// guarantee is priced into the risk score through the consensus ratio.
// Remaining in-flight calls are cancelled once the quorum is met.
func (m *Multi) TransactionWithQuorum(ctx context.Context, signature string) (*Transaction, int, error) {
	results := fanOut(ctx, m, func(ctx context.Context, c Client) (*Transaction, error) {
		return c.Transaction(ctx, signature)
	}, m.engine.Threshold())

	if err := m.engine.CheckQuorum(len(results)); err != nil {
		return nil, len(results), err
	}

	m.logger.Debug().
		Str("signature", signature).
		Int("responses", len(results)).
		Int("sources", len(m.clients)).
		Msg("transaction quorum reached")

	return results[0].value, len(results), nil
}

type sourced[T any] struct {
	source string
	value  T
}

// fanOut issues one concurrent call per source with a bounded per-call
// deadline. Failures are logged, reported to the error hook, and dropped.
// When stopAt > 0, outstanding calls are cancelled as soon as that many
// successes have been collected.
func fanOut[T any](ctx context.Context, m *Multi, call func(context.Context, Client) (T, error), stopAt int) []sourced[T] {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		source string
		value  T
		err    error
	}

	ch := make(chan outcome, len(m.clients))
	for _, c := range m.clients {
		go func(c Client) {
			callCtx, done := context.WithTimeout(ctx, m.timeout)
			defer done()
			v, err := call(callCtx, c)
			ch <- outcome{source: c.ID(), value: v, err: err}
		}(c)
	}

	var results []sourced[T]
	for i := 0; i < len(m.clients); i++ {
		o := <-ch
		if o.err != nil {
			m.logger.Warn().Err(o.err).Str("source", o.source).Msg("source call failed")
			if m.errorHook != nil {
				m.errorHook(o.source)
			}
			continue
		}
		results = append(results, sourced[T]{source: o.source, value: o.value})
		if stopAt > 0 && len(results) >= stopAt {
			cancel()
			break
		}
	}
	return results
}
