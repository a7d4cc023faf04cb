package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerificationRecord is a persisted verification outcome.
type VerificationRecord struct {
	ID                int64
	Signature         string
	Slot              uint64
	Verified          bool
	RiskScore         float64
	Finality          string
	Health            string
	ConsensusCount    int
	BridgeInstruction *string
	BridgeAmount      *decimal.Decimal
	TargetChain       *string
	ObservedAt        time.Time
	CreatedAt         time.Time
}

// HealthTransition records a change of network health for auditing.
type HealthTransition struct {
	ID        int64
	Previous  string
	Current   string
	Slot      uint64
	CreatedAt time.Time
}
