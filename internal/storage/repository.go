package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertVerificationSQL = `INSERT INTO verifications (
        signature,
        slot,
        verified,
        risk_score,
        finality,
        health,
        consensus_count,
        bridge_instruction,
        bridge_amount,
        target_chain,
        observed_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    )
    ON CONFLICT (signature) DO UPDATE
    SET
        slot               = EXCLUDED.slot,
        verified           = EXCLUDED.verified,
        risk_score         = EXCLUDED.risk_score,
        finality           = EXCLUDED.finality,
        health             = EXCLUDED.health,
        consensus_count    = EXCLUDED.consensus_count,
        bridge_instruction = EXCLUDED.bridge_instruction,
        bridge_amount      = EXCLUDED.bridge_amount,
        target_chain       = EXCLUDED.target_chain,
        observed_at        = EXCLUDED.observed_at;`

	getVerificationSQL = `SELECT
        id,
        signature,
        slot,
        verified,
        risk_score,
        finality,
        health,
        consensus_count,
        bridge_instruction,
        bridge_amount,
        target_chain,
        observed_at,
        created_at
    FROM verifications
    WHERE signature = $1;`

	listVerificationsBetweenSQL = `SELECT
        id,
        signature,
        slot,
        verified,
        risk_score,
        finality,
        health,
        consensus_count,
        bridge_instruction,
        bridge_amount,
        target_chain,
        observed_at,
        created_at
    FROM verifications
    WHERE observed_at >= $1
      AND observed_at < $2
    ORDER BY observed_at;`

	listRecentVerificationsSQL = `SELECT
        id,
        signature,
        slot,
        verified,
        risk_score,
        finality,
        health,
        consensus_count,
        bridge_instruction,
        bridge_amount,
        target_chain,
        observed_at,
        created_at
    FROM verifications
    ORDER BY observed_at DESC
    LIMIT $1;`

	countVerificationsSQL = `SELECT COUNT(*) FROM verifications;`

	insertHealthTransitionSQL = `INSERT INTO health_transitions (
        previous,
        current,
        slot
    ) VALUES (
        $1,$2,$3
    )
    RETURNING id, previous, current, slot, created_at;`

	listRecentTransitionsSQL = `SELECT
        id,
        previous,
        current,
        slot,
        created_at
    FROM health_transitions
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteVerificationsBeforeSQL = `DELETE FROM verifications WHERE observed_at < $1;`
)

// VerificationStore defines operations for verification persistence.
type VerificationStore interface {
	UpsertVerification(ctx context.Context, rec VerificationRecord) error
	GetVerification(ctx context.Context, signature string) (VerificationRecord, error)
	ListVerificationsBetween(ctx context.Context, from, to time.Time) ([]VerificationRecord, error)
	ListRecentVerifications(ctx context.Context, limit int) ([]VerificationRecord, error)
	CountVerifications(ctx context.Context) (int64, error)
	DeleteVerificationsBefore(ctx context.Context, olderThan time.Time) error
}

// TransitionStore defines operations for health transition auditing.
type TransitionStore interface {
	InsertHealthTransition(ctx context.Context, tr HealthTransition) (HealthTransition, error)
	ListRecentTransitions(ctx context.Context, limit int) ([]HealthTransition, error)
}

// Store aggregates access to verifications and health transitions.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertVerification persists or updates a verification outcome.
func (s *Store) UpsertVerification(ctx context.Context, rec VerificationRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var instruction interface{}
	if rec.BridgeInstruction != nil {
		instruction = *rec.BridgeInstruction
	}
	var amount interface{}
	if rec.BridgeAmount != nil {
		amount = rec.BridgeAmount.String()
	}
	var chain interface{}
	if rec.TargetChain != nil {
		chain = *rec.TargetChain
	}

	_, execErr := pool.Exec(ctx, insertVerificationSQL,
		rec.Signature,
		int64(rec.Slot),
		rec.Verified,
		rec.RiskScore,
		rec.Finality,
		rec.Health,
		rec.ConsensusCount,
		instruction,
		amount,
		chain,
		rec.ObservedAt,
	)
	if execErr != nil {
		return fmt.Errorf("upsert verification: %w", execErr)
	}
	return nil
}

// GetVerification loads a single verification by signature.
func (s *Store) GetVerification(ctx context.Context, signature string) (VerificationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return VerificationRecord{}, err
	}

	rows, queryErr := pool.Query(ctx, getVerificationSQL, signature)
	if queryErr != nil {
		return VerificationRecord{}, fmt.Errorf("get verification: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return VerificationRecord{}, rows.Err()
		}
		return VerificationRecord{}, pgx.ErrNoRows
	}
	return scanVerification(rows)
}

// ListVerificationsBetween lists verifications within a time window.
func (s *Store) ListVerificationsBetween(ctx context.Context, from, to time.Time) ([]VerificationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listVerificationsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list verifications between: %w", queryErr)
	}
	defer rows.Close()

	records := make([]VerificationRecord, 0)
	for rows.Next() {
		rec, scanErr := scanVerification(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// ListRecentVerifications lists the most recent verifications.
func (s *Store) ListRecentVerifications(ctx context.Context, limit int) ([]VerificationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentVerificationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent verifications: %w", queryErr)
	}
	defer rows.Close()

	records := make([]VerificationRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanVerification(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// CountVerifications counts stored verifications.
func (s *Store) CountVerifications(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countVerificationsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count verifications: %w", scanErr)
	}
	return count, nil
}

// InsertHealthTransition persists a health change.
func (s *Store) InsertHealthTransition(ctx context.Context, tr HealthTransition) (HealthTransition, error) {
	pool, err := s.getPool()
	if err != nil {
		return HealthTransition{}, err
	}

	row := pool.QueryRow(ctx, insertHealthTransitionSQL, tr.Previous, tr.Current, int64(tr.Slot))

	var rec HealthTransition
	var slot int64
	if scanErr := row.Scan(&rec.ID, &rec.Previous, &rec.Current, &slot, &rec.CreatedAt); scanErr != nil {
		return HealthTransition{}, fmt.Errorf("insert health transition: %w", scanErr)
	}
	rec.Slot = uint64(slot)
	return rec, nil
}

// ListRecentTransitions lists most recent health transitions.
func (s *Store) ListRecentTransitions(ctx context.Context, limit int) ([]HealthTransition, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentTransitionsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent transitions: %w", queryErr)
	}
	defer rows.Close()

	transitions := make([]HealthTransition, 0, limit)
	for rows.Next() {
		var rec HealthTransition
		var slot int64
		if err := rows.Scan(&rec.ID, &rec.Previous, &rec.Current, &slot, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Slot = uint64(slot)
		transitions = append(transitions, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return transitions, nil
}

// DeleteVerificationsBefore deletes historical verifications.
func (s *Store) DeleteVerificationsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteVerificationsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete verifications before: %w", execErr)
	}
	return nil
}

func scanVerification(rows pgx.Rows) (VerificationRecord, error) {
	var (
		rec         VerificationRecord
		slot        int64
		instruction sql.NullString
		amount      sql.NullString
		chain       sql.NullString
	)

	if err := rows.Scan(
		&rec.ID,
		&rec.Signature,
		&slot,
		&rec.Verified,
		&rec.RiskScore,
		&rec.Finality,
		&rec.Health,
		&rec.ConsensusCount,
		&instruction,
		&amount,
		&chain,
		&rec.ObservedAt,
		&rec.CreatedAt,
	); err != nil {
		return VerificationRecord{}, err
	}
	rec.Slot = uint64(slot)

	if instruction.Valid {
		value := instruction.String
		rec.BridgeInstruction = &value
	}
	if amount.Valid {
		parsed, err := decimal.NewFromString(amount.String)
		if err != nil {
			return VerificationRecord{}, fmt.Errorf("parse bridge amount: %w", err)
		}
		rec.BridgeAmount = &parsed
	}
	if chain.Valid {
		value := chain.String
		rec.TargetChain = &value
	}

	return rec, nil
}
