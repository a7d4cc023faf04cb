// Package source provides access to independent ledger endpoints and the
// concurrent fan-out that aggregates their answers under consensus rules.
package source

import "context"

// Instruction is one raw instruction of a fetched transaction. Data stays in
// its base58 wire encoding until the bridge decoder needs it.
type Instruction struct {
	ProgramIndex int    `json:"program_index"`
	Data         string `json:"data"`
}

// Transaction is the minimal transaction record the oracle needs: where it
// landed, whether it succeeded on-chain, and enough structure to detect and
// decode bridge instructions.
type Transaction struct {
	Slot         uint64        `json:"slot"`
	Success      bool          `json:"success"`
	AccountKeys  []string      `json:"account_keys"`
	Instructions []Instruction `json:"instructions"`
}

// Client answers slot and transaction queries against a single endpoint.
type Client interface {
	// ID identifies the source in observations and logs.
	ID() string
	// CurrentSlot returns the endpoint's view of the chain tip.
	CurrentSlot(ctx context.Context) (uint64, error)
	// Transaction fetches a transaction record by signature.
	Transaction(ctx context.Context, signature string) (*Transaction, error)
}
