package bridge

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"

	"slotguard/internal/source"
)

func transferData(op byte, amount uint64, targetChain uint16, recipient []byte) string {
	data := make([]byte, transferMinLen)
	data[0] = op
	binary.LittleEndian.PutUint32(data[1:5], 7) // nonce, not retained
	binary.LittleEndian.PutUint64(data[5:13], amount)
	binary.LittleEndian.PutUint64(data[13:21], 0) // fee, not retained
	copy(data[21:53], recipient)
	binary.LittleEndian.PutUint16(data[53:55], targetChain)
	return base58.Encode(data)
}

func bridgeTx(data string) ([]string, []source.Instruction) {
	keys := []string{"payer111", WormholeTokenBridge}
	instructions := []source.Instruction{{ProgramIndex: 1, Data: data}}
	return keys, instructions
}

func TestDecodeTransferWrapped(t *testing.T) {
	keys, instructions := bridgeTx(transferData(0x04, 1_000_000, 2, []byte{0x12, 0x34}))

	parsed := Decode(keys, instructions)
	if parsed == nil {
		t.Fatal("bridge transaction not detected")
	}
	if parsed.Bridge != KindWormhole {
		t.Fatalf("expected Wormhole, got %v", parsed.Bridge)
	}
	if parsed.InstructionName() != "TransferWrapped" {
		t.Fatalf("expected TransferWrapped, got %s", parsed.InstructionName())
	}
	if amount, ok := parsed.Amount(); !ok || amount != 1_000_000 {
		t.Fatalf("expected amount 1000000, got %d ok=%v", amount, ok)
	}
	if chain, ok := parsed.TargetChain(); !ok || chain != 2 {
		t.Fatalf("expected target chain 2, got %d ok=%v", chain, ok)
	}
	if name, _ := parsed.TargetChainName(); name != "Ethereum" {
		t.Fatalf("expected Ethereum, got %s", name)
	}
	if parsed.Direction() != "Outbound" {
		t.Fatalf("expected Outbound, got %s", parsed.Direction())
	}
	recipient, ok := parsed.Recipient()
	if !ok || len(recipient) != 32 {
		t.Fatalf("recipient must be 32 raw bytes, got %d ok=%v", len(recipient), ok)
	}
	if !bytes.HasPrefix(recipient, []byte{0x12, 0x34}) {
		t.Fatalf("recipient bytes lost: %x", recipient[:4])
	}
}

func TestDecodeTransferNative(t *testing.T) {
	keys, instructions := bridgeTx(transferData(0x01, 500, 30, nil))

	parsed := Decode(keys, instructions)
	if parsed == nil || parsed.InstructionName() != "TransferNative" {
		t.Fatalf("expected TransferNative, got %+v", parsed)
	}
	if name, _ := parsed.TargetChainName(); name != "Base" {
		t.Fatalf("expected Base, got %s", name)
	}
}

func TestDecodeTransferWithPayload(t *testing.T) {
	keys, instructions := bridgeTx(transferData(0x05, 9_999, 23, nil))

	parsed := Decode(keys, instructions)
	if parsed == nil || parsed.InstructionName() != "TransferWithPayload" {
		t.Fatalf("expected TransferWithPayload, got %+v", parsed)
	}
	if amount, _ := parsed.Amount(); amount != 9_999 {
		t.Fatalf("amount lost: %d", amount)
	}
	if _, ok := parsed.Recipient(); ok {
		t.Fatal("transfer-with-payload carries no recipient")
	}
}

func TestDecodeAttestToken(t *testing.T) {
	keys, instructions := bridgeTx(base58.Encode([]byte{0x02}))

	parsed := Decode(keys, instructions)
	if parsed == nil || parsed.InstructionName() != "AttestToken" {
		t.Fatalf("expected AttestToken, got %+v", parsed)
	}
	if parsed.Direction() != "Token Operation" {
		t.Fatalf("expected Token Operation, got %s", parsed.Direction())
	}
}

func TestDecodeCompleteTransfer(t *testing.T) {
	keys, instructions := bridgeTx(base58.Encode([]byte{0x07}))

	parsed := Decode(keys, instructions)
	if parsed == nil || parsed.InstructionName() != "CompleteTransfer" {
		t.Fatalf("expected CompleteTransfer, got %+v", parsed)
	}
	if !parsed.Instruction.IsNative {
		t.Fatal("opcode 0x07 must set is_native")
	}
	if parsed.Direction() != "Inbound" {
		t.Fatalf("expected Inbound, got %s", parsed.Direction())
	}

	_, wrapped := bridgeTx(base58.Encode([]byte{0x03}))
	parsed = Decode(keys, wrapped)
	if parsed.Instruction.IsNative {
		t.Fatal("opcode 0x03 must not set is_native")
	}
}

func TestDecodeWrappedTokenOperations(t *testing.T) {
	keys, create := bridgeTx(base58.Encode([]byte{0x09}))
	parsed := Decode(keys, create)
	if parsed == nil || parsed.InstructionName() != "CreateWrapped" {
		t.Fatalf("expected CreateWrapped, got %+v", parsed)
	}

	_, complete := bridgeTx(base58.Encode([]byte{0x0a}))
	parsed = Decode(keys, complete)
	if parsed == nil || parsed.InstructionName() != "CompleteWrapped" {
		t.Fatalf("expected CompleteWrapped, got %+v", parsed)
	}
	if !parsed.IsTokenOperation() {
		t.Fatal("wrapped token ops are token operations")
	}
}

func TestDecodeCompleteTransferWithPayload(t *testing.T) {
	keys, instructions := bridgeTx(base58.Encode([]byte{0x0d}))
	parsed := Decode(keys, instructions)
	if parsed == nil || parsed.InstructionName() != "CompleteTransferWithPayload" {
		t.Fatalf("expected CompleteTransferWithPayload, got %+v", parsed)
	}
}

func TestDecodeShortTransferDataIsUnknown(t *testing.T) {
	for _, op := range []byte{0x01, 0x04, 0x05} {
		keys, instructions := bridgeTx(base58.Encode([]byte{op, 0x01, 0x02}))
		parsed := Decode(keys, instructions)
		if parsed == nil {
			t.Fatal("short data is still a bridge transaction")
		}
		if parsed.Instruction.Op != OpUnknown {
			t.Fatalf("short transfer data under 0x%02x must decode to Unknown, got %v", op, parsed.Instruction.Op)
		}
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	keys, instructions := bridgeTx(base58.Encode([]byte{0xee, 0x01}))
	parsed := Decode(keys, instructions)
	if parsed == nil || parsed.Instruction.Op != OpUnknown {
		t.Fatalf("unknown opcode must decode to Unknown, got %+v", parsed)
	}
	if parsed.Direction() != "Unknown" {
		t.Fatalf("expected Unknown direction, got %s", parsed.Direction())
	}
}

func TestDecodeNonBridgeTransaction(t *testing.T) {
	keys := []string{"payer111", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"}
	instructions := []source.Instruction{{ProgramIndex: 1, Data: base58.Encode([]byte{0x03})}}

	if parsed := Decode(keys, instructions); parsed != nil {
		t.Fatalf("non-bridge transaction must return nil, got %+v", parsed)
	}
}

func TestDecodeFirstBridgeInstructionWins(t *testing.T) {
	keys := []string{"payer111", WormholeTokenBridge}
	instructions := []source.Instruction{
		{ProgramIndex: 1, Data: base58.Encode([]byte{0x04, 0x01})}, // short, decodes Unknown
		{ProgramIndex: 1, Data: transferData(0x04, 42, 2, nil)},    // valid, but never reached
	}

	parsed := Decode(keys, instructions)
	if parsed == nil || parsed.Instruction.Op != OpUnknown {
		t.Fatalf("scan must stop at the first bridge instruction, got %+v", parsed)
	}
}

func TestDecodeMalformedInputs(t *testing.T) {
	// Program index out of range must be skipped, not crash.
	keys := []string{WormholeTokenBridge}
	instructions := []source.Instruction{{ProgramIndex: 5, Data: "abc"}}
	if parsed := Decode(keys, instructions); parsed != nil {
		t.Fatalf("out-of-range program index must be skipped, got %+v", parsed)
	}

	// Invalid base58 data degrades to Unknown.
	keys, bad := bridgeTx("0OIl") // characters outside the base58 alphabet
	parsed := Decode(keys, bad)
	if parsed == nil || parsed.Instruction.Op != OpUnknown {
		t.Fatalf("undecodable data must yield Unknown, got %+v", parsed)
	}

	// Empty data degrades to Unknown.
	keys, empty := bridgeTx("")
	parsed = Decode(keys, empty)
	if parsed == nil || parsed.Instruction.Op != OpUnknown {
		t.Fatalf("empty data must yield Unknown, got %+v", parsed)
	}
}
