package verify

import (
	"context"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"slotguard/internal/bridge"
	"slotguard/internal/consensus"
	"slotguard/internal/monitor"
	"slotguard/internal/source"
)

type stubClient struct {
	id        string
	slot      uint64
	tx        *source.Transaction
	txErr     error
	slotCalls atomic.Int64
	txCalls   atomic.Int64
}

func (s *stubClient) ID() string { return s.id }

func (s *stubClient) CurrentSlot(ctx context.Context) (uint64, error) {
	s.slotCalls.Add(1)
	return s.slot, nil
}

func (s *stubClient) Transaction(ctx context.Context, signature string) (*source.Transaction, error) {
	s.txCalls.Add(1)
	return s.tx, s.txErr
}

func validSignature() string {
	raw := make([]byte, 64)
	raw[0] = 0x42
	return base58.Encode(raw)
}

func healthyMonitor(t *testing.T, sources int) *monitor.Monitor {
	t.Helper()
	m := monitor.New(monitor.Options{StaleThreshold: 5 * time.Second, RetentionWindow: 30 * time.Second}, zerolog.Nop())
	for i := 0; i < sources; i++ {
		m.Record(monitor.NewObservation(100, string(rune('a'+i))))
	}
	if health, _ := m.CheckHealth(); health != monitor.Healthy {
		t.Fatalf("test monitor not healthy: %v", health)
	}
	return m
}

func haltedMonitor(t *testing.T) *monitor.Monitor {
	t.Helper()
	m := monitor.New(monitor.Options{StaleThreshold: 5 * time.Second, RetentionWindow: 30 * time.Second}, zerolog.Nop())
	if health, _ := m.CheckHealth(); health != monitor.Halted {
		t.Fatalf("empty monitor must be halted, got %v", health)
	}
	return m
}

func testPipeline(t *testing.T, clients []*stubClient, threshold int, mon *monitor.Monitor) *Pipeline {
	t.Helper()
	cs := make([]source.Client, len(clients))
	for i, c := range clients {
		cs[i] = c
	}
	multi, err := source.NewMulti(cs, source.MultiOptions{Threshold: threshold, CallTimeout: time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewMulti failed: %v", err)
	}
	return NewPipeline(multi, mon, zerolog.Nop())
}

func successTx(slot uint64) *source.Transaction {
	return &source.Transaction{Slot: slot, Success: true, AccountKeys: []string{"payer"}}
}

func TestVerifyHaltedGateSkipsSources(t *testing.T) {
	clients := []*stubClient{
		{id: "a", slot: 200, tx: successTx(100)},
		{id: "b", slot: 200, tx: successTx(100)},
	}
	p := testPipeline(t, clients, 2, haltedMonitor(t))

	_, err := p.Verify(context.Background(), validSignature())
	if !errors.Is(err, ErrNetworkHalted) {
		t.Fatalf("expected ErrNetworkHalted, got %v", err)
	}
	for _, c := range clients {
		if c.slotCalls.Load() != 0 || c.txCalls.Load() != 0 {
			t.Fatalf("halted gate must not query source %s", c.id)
		}
	}
}

func TestVerifyInvalidSignatureRejectedEarly(t *testing.T) {
	clients := []*stubClient{{id: "a", slot: 200, tx: successTx(100)}}
	p := testPipeline(t, clients, 1, healthyMonitor(t, 1))

	_, err := p.Verify(context.Background(), "not-base58-!!")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if clients[0].txCalls.Load() != 0 {
		t.Fatal("invalid signature must not reach any source")
	}
}

func TestVerifySuccess(t *testing.T) {
	clients := []*stubClient{
		{id: "a", slot: 300, tx: successTx(100)},
		{id: "b", slot: 300, tx: successTx(100)},
		{id: "c", slot: 300, tx: successTx(100)},
	}
	p := testPipeline(t, clients, 3, healthyMonitor(t, 3))

	result, err := p.Verify(context.Background(), validSignature())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.Verified {
		t.Fatal("successful transaction must verify")
	}
	if result.Finality != UltraSafe {
		t.Fatalf("slot age 200 must be ultra safe, got %v", result.Finality)
	}
	if result.ConsensusCount != 3 {
		t.Fatalf("expected consensus count 3, got %d", result.ConsensusCount)
	}
	if result.RiskScore >= 0.1 {
		t.Fatalf("healthy full-consensus risk must be low, got %v", result.RiskScore)
	}
	if !result.IsSafe() {
		t.Fatalf("result should be safe: %+v", result)
	}
}

func TestVerifyFailedOnChainSkipsFinality(t *testing.T) {
	failed := &source.Transaction{Slot: 100, Success: false, AccountKeys: []string{"payer"}}
	clients := []*stubClient{
		{id: "a", slot: 300, tx: failed},
		{id: "b", slot: 300, tx: failed},
	}
	p := testPipeline(t, clients, 2, healthyMonitor(t, 2))

	result, err := p.Verify(context.Background(), validSignature())
	if err != nil {
		t.Fatalf("on-chain failure is a valid result, not an error: %v", err)
	}
	if result.Verified {
		t.Fatal("failed transaction must not verify")
	}
	if result.RiskScore != 1.0 {
		t.Fatalf("failed transaction risk must be 1.0, got %v", result.RiskScore)
	}
	if result.ConsensusCount != 0 {
		t.Fatalf("failed transaction carries no consensus credit, got %d", result.ConsensusCount)
	}
	for _, c := range clients {
		if c.slotCalls.Load() != 0 {
			t.Fatal("finality must not be computed for a failed transaction")
		}
	}
}

func TestVerifyConsensusFailurePropagates(t *testing.T) {
	clients := []*stubClient{
		{id: "a", txErr: errors.New("down")},
		{id: "b", txErr: errors.New("down")},
		{id: "c", tx: successTx(100), slot: 150},
	}
	p := testPipeline(t, clients, 2, healthyMonitor(t, 3))

	_, err := p.Verify(context.Background(), validSignature())
	var cErr *consensus.Error
	if !errors.As(err, &cErr) {
		t.Fatalf("expected consensus error, got %v", err)
	}
}

func TestVerifyAttachesBridgeMetadata(t *testing.T) {
	data := make([]byte, 55)
	data[0] = 0x04
	binary.LittleEndian.PutUint64(data[5:13], 1_000_000)
	binary.LittleEndian.PutUint16(data[53:55], 2)

	tx := &source.Transaction{
		Slot:        100,
		Success:     true,
		AccountKeys: []string{"payer", bridge.WormholeTokenBridge},
		Instructions: []source.Instruction{
			{ProgramIndex: 1, Data: base58.Encode(data)},
		},
	}
	clients := []*stubClient{
		{id: "a", slot: 120, tx: tx},
		{id: "b", slot: 120, tx: tx},
	}
	p := testPipeline(t, clients, 2, healthyMonitor(t, 2))

	result, err := p.Verify(context.Background(), validSignature())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.Bridge == nil {
		t.Fatal("bridge metadata must be attached")
	}
	if result.Bridge.InstructionName() != "TransferWrapped" {
		t.Fatalf("unexpected instruction: %s", result.Bridge.InstructionName())
	}
}

func TestVerifyFailedOnChainKeepsBridgeMetadata(t *testing.T) {
	tx := &source.Transaction{
		Slot:        100,
		Success:     false,
		AccountKeys: []string{"payer", bridge.WormholeTokenBridge},
		Instructions: []source.Instruction{
			{ProgramIndex: 1, Data: base58.Encode([]byte{0x02})},
		},
	}
	clients := []*stubClient{
		{id: "a", tx: tx},
		{id: "b", tx: tx},
	}
	p := testPipeline(t, clients, 2, healthyMonitor(t, 2))

	result, err := p.Verify(context.Background(), validSignature())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.Bridge == nil || result.Bridge.InstructionName() != "AttestToken" {
		t.Fatalf("decoded metadata must survive on-chain failure: %+v", result.Bridge)
	}
}

func TestVerifyBatchCollectsPerSignatureOutcomes(t *testing.T) {
	clients := []*stubClient{
		{id: "a", slot: 150, tx: successTx(100)},
		{id: "b", slot: 150, tx: successTx(100)},
	}
	p := testPipeline(t, clients, 2, healthyMonitor(t, 2))

	outcomes := p.VerifyBatch(context.Background(), []string{"bogus", validSignature()})
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if !errors.Is(outcomes[0].Err, ErrInvalidSignature) {
		t.Fatalf("first outcome must fail validation: %v", outcomes[0].Err)
	}
	if outcomes[1].Err != nil || outcomes[1].Result == nil {
		t.Fatalf("second outcome must succeed: %+v", outcomes[1])
	}
}

func TestValidateSignature(t *testing.T) {
	if err := ValidateSignature(validSignature()); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := ValidateSignature(""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("empty signature must be invalid: %v", err)
	}
	if err := ValidateSignature("abc"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("short signature must be invalid: %v", err)
	}
	if err := ValidateSignature("!!!"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("non-base58 signature must be invalid: %v", err)
	}
}
