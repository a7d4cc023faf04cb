// Package bridge detects and decodes cross-chain token-bridge instructions
// embedded in verified transactions. The supported bridges form a closed set;
// anything else reports as an unknown bridge rather than failing.
package bridge

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind tags which bridge protocol a transaction invoked. New bridges are
// added by extending this set and the decoder, not by runtime registration.
type Kind int

const (
	KindWormhole Kind = iota
	KindUnknownBridge
)

func (k Kind) String() string {
	switch k {
	case KindWormhole:
		return "Wormhole"
	default:
		return "Unknown"
	}
}

// Op is the decoded instruction variant.
type Op int

const (
	OpUnknown Op = iota
	OpTransferNative
	OpTransferWrapped
	OpTransferWithPayload
	OpAttestToken
	OpCompleteTransfer
	OpCompleteTransferWithPayload
	OpWrappedTokenOperation
)

// Instruction is the decoded, immutable payload of a bridge instruction.
// Only the fields relevant to the decoded Op are populated.
type Instruction struct {
	Op          Op
	Amount      uint64
	TargetChain uint16
	Recipient   []byte
	// VAAHash is a placeholder: complete-transfer metadata lives in
	// referenced accounts, which are not decoded here.
	VAAHash   []byte
	IsNative  bool
	Operation string
}

// Parsed couples the detected bridge with its decoded instruction.
type Parsed struct {
	Bridge      Kind
	Instruction Instruction
}

// InstructionName returns the human-readable variant name.
func (p *Parsed) InstructionName() string {
	switch p.Instruction.Op {
	case OpTransferWrapped:
		return "TransferWrapped"
	case OpTransferNative:
		return "TransferNative"
	case OpTransferWithPayload:
		return "TransferWithPayload"
	case OpAttestToken:
		return "AttestToken"
	case OpCompleteTransfer:
		return "CompleteTransfer"
	case OpCompleteTransferWithPayload:
		return "CompleteTransferWithPayload"
	case OpWrappedTokenOperation:
		return p.Instruction.Operation
	default:
		return "Unknown"
	}
}

// Amount returns the transfer amount for outbound variants.
func (p *Parsed) Amount() (uint64, bool) {
	switch p.Instruction.Op {
	case OpTransferWrapped, OpTransferNative, OpTransferWithPayload:
		return p.Instruction.Amount, true
	default:
		return 0, false
	}
}

// HumanAmount renders the transfer amount in token units. The token bridge
// normalises all amounts to 8 decimals on the wire.
func (p *Parsed) HumanAmount() (decimal.Decimal, bool) {
	amount, ok := p.Amount()
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.New(int64(amount), -8), true
}

// TargetChain returns the destination chain id for outbound variants.
func (p *Parsed) TargetChain() (uint16, bool) {
	switch p.Instruction.Op {
	case OpTransferWrapped, OpTransferNative, OpTransferWithPayload:
		return p.Instruction.TargetChain, true
	default:
		return 0, false
	}
}

// TargetChainName returns the destination chain name for outbound variants.
func (p *Parsed) TargetChainName() (string, bool) {
	id, ok := p.TargetChain()
	if !ok {
		return "", false
	}
	return ChainName(id), true
}

// Recipient returns the raw 32-byte recipient for transfer variants that
// carry one.
func (p *Parsed) Recipient() ([]byte, bool) {
	switch p.Instruction.Op {
	case OpTransferWrapped, OpTransferNative:
		return p.Instruction.Recipient, true
	default:
		return nil, false
	}
}

// IsOutbound reports whether tokens leave this chain.
func (p *Parsed) IsOutbound() bool {
	switch p.Instruction.Op {
	case OpTransferWrapped, OpTransferNative, OpTransferWithPayload:
		return true
	default:
		return false
	}
}

// IsInbound reports whether tokens arrive on this chain.
func (p *Parsed) IsInbound() bool {
	switch p.Instruction.Op {
	case OpCompleteTransfer, OpCompleteTransferWithPayload:
		return true
	default:
		return false
	}
}

// IsTokenOperation reports token lifecycle operations (attest, wrap).
func (p *Parsed) IsTokenOperation() bool {
	switch p.Instruction.Op {
	case OpAttestToken, OpWrappedTokenOperation:
		return true
	default:
		return false
	}
}

// Direction classifies the instruction for display.
func (p *Parsed) Direction() string {
	switch {
	case p.IsOutbound():
		return "Outbound"
	case p.IsInbound():
		return "Inbound"
	case p.IsTokenOperation():
		return "Token Operation"
	default:
		return "Unknown"
	}
}

// String renders a one-line summary, e.g.
// "Wormhole - TransferWrapped (1000000 units) -> Ethereum".
func (p *Parsed) String() string {
	s := fmt.Sprintf("%s - %s", p.Bridge, p.InstructionName())
	if amount, ok := p.Amount(); ok {
		s += fmt.Sprintf(" (%d units)", amount)
	}
	if name, ok := p.TargetChainName(); ok {
		s += " -> " + name
	}
	return s
}

// MarshalJSON renders the summary shape served by the API.
func (p *Parsed) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"bridge":      p.Bridge.String(),
		"instruction": p.InstructionName(),
		"direction":   p.Direction(),
	}
	if amount, ok := p.Amount(); ok {
		out["amount"] = amount
	}
	if chain, ok := p.TargetChain(); ok {
		out["target_chain"] = chain
		out["chain_name"] = ChainName(chain)
	}
	if recipient, ok := p.Recipient(); ok {
		out["recipient"] = "0x" + hex.EncodeToString(recipient)
	}
	if p.Instruction.Op == OpCompleteTransfer {
		out["is_native"] = p.Instruction.IsNative
	}
	return json.Marshal(out)
}
