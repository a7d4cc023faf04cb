package bridge

import (
	"encoding/binary"

	"github.com/mr-tron/base58"

	"slotguard/internal/source"
)

// Known bridge program ids on Solana.
const (
	WormholeTokenBridge = "wormDTUJ6AWPNvk59vGQbDvGJmqbDTdgWgAqcLBCgUb"
	WormholeCore        = "worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth"
)

// Instruction discriminators (first data byte).
const (
	opTransferNative              = 0x01
	opAttestToken                 = 0x02
	opCompleteTransferWrapped     = 0x03
	opTransferWrapped             = 0x04
	opTransferWithPayload         = 0x05
	opCompleteTransferNative      = 0x07
	opCreateWrapped               = 0x09
	opCompleteWrapped             = 0x0a
	opCompleteTransferWithPayload = 0x0d
)

// transferMinLen is discriminator(1) + nonce(4) + amount(8) + fee(8) +
// recipient(32) + chain(2).
const transferMinLen = 55

// Decode scans a transaction's instructions for the first one invoking a
// known bridge program and decodes its payload. It returns nil when the
// transaction touches no bridge program at all; a bridge transaction whose
// payload cannot be decoded still returns a Parsed with an Unknown
// instruction. The scan stops at the first bridge-owned instruction even
// when it decodes to Unknown.
func Decode(accountKeys []string, instructions []source.Instruction) *Parsed {
	for _, ix := range instructions {
		if ix.ProgramIndex < 0 || ix.ProgramIndex >= len(accountKeys) {
			continue
		}
		program := accountKeys[ix.ProgramIndex]
		if program != WormholeTokenBridge && program != WormholeCore {
			continue
		}
		return &Parsed{
			Bridge:      KindWormhole,
			Instruction: decodeData(ix.Data),
		}
	}
	return nil
}

func decodeData(encoded string) Instruction {
	data, err := base58.Decode(encoded)
	if err != nil || len(data) == 0 {
		return Instruction{Op: OpUnknown}
	}

	switch data[0] {
	case opTransferNative, opTransferWrapped, opTransferWithPayload:
		return decodeTransfer(data)
	case opAttestToken:
		return Instruction{Op: OpAttestToken}
	case opCompleteTransferWrapped:
		return Instruction{Op: OpCompleteTransfer, IsNative: false}
	case opCompleteTransferNative:
		return Instruction{Op: OpCompleteTransfer, IsNative: true}
	case opCreateWrapped:
		return Instruction{Op: OpWrappedTokenOperation, Operation: "CreateWrapped"}
	case opCompleteWrapped:
		return Instruction{Op: OpWrappedTokenOperation, Operation: "CompleteWrapped"}
	case opCompleteTransferWithPayload:
		return Instruction{Op: OpCompleteTransferWithPayload}
	default:
		return Instruction{Op: OpUnknown}
	}
}

// decodeTransfer reads the fixed transfer layout. Length is checked before
// any indexing; short payloads degrade to Unknown rather than crash.
func decodeTransfer(data []byte) Instruction {
	if len(data) < transferMinLen {
		return Instruction{Op: OpUnknown}
	}

	// nonce (offset 1) and fee (offset 13) are parsed but not retained.
	_ = binary.LittleEndian.Uint32(data[1:5])
	amount := binary.LittleEndian.Uint64(data[5:13])
	_ = binary.LittleEndian.Uint64(data[13:21])
	recipient := make([]byte, 32)
	copy(recipient, data[21:53])
	targetChain := binary.LittleEndian.Uint16(data[53:55])

	switch data[0] {
	case opTransferWrapped:
		return Instruction{
			Op:          OpTransferWrapped,
			Amount:      amount,
			TargetChain: targetChain,
			Recipient:   recipient,
		}
	case opTransferNative:
		return Instruction{
			Op:          OpTransferNative,
			Amount:      amount,
			TargetChain: targetChain,
			Recipient:   recipient,
		}
	default:
		// Transfer with payload carries amount and chain only.
		return Instruction{
			Op:          OpTransferWithPayload,
			Amount:      amount,
			TargetChain: targetChain,
		}
	}
}
