package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"slotguard/internal/storage"
)

type fakeVerificationLister struct {
	records []storage.VerificationRecord
	total   int64
	byID    map[string]storage.VerificationRecord
}

func (f *fakeVerificationLister) GetVerification(ctx context.Context, signature string) (storage.VerificationRecord, error) {
	rec, ok := f.byID[signature]
	if !ok {
		return storage.VerificationRecord{}, pgx.ErrNoRows
	}
	return rec, nil
}

func (f *fakeVerificationLister) ListRecentVerifications(ctx context.Context, limit int) ([]storage.VerificationRecord, error) {
	return f.records, nil
}

func (f *fakeVerificationLister) CountVerifications(ctx context.Context) (int64, error) {
	return f.total, nil
}

func sampleRecord(signature string) storage.VerificationRecord {
	instruction := "complete_transfer"
	chain := "Ethereum"
	amount := decimal.NewFromFloat(12.5)
	return storage.VerificationRecord{
		Signature:         signature,
		Slot:              312,
		Verified:          true,
		RiskScore:         0.06,
		Finality:          "safe",
		Health:            "healthy",
		ConsensusCount:    4,
		BridgeInstruction: &instruction,
		BridgeAmount:      &amount,
		TargetChain:       &chain,
		ObservedAt:        time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestShowVerificationsPrintsTotalFooter(t *testing.T) {
	lister := &fakeVerificationLister{
		records: []storage.VerificationRecord{sampleRecord("sigA"), sampleRecord("sigB")},
		total:   57,
	}
	var out bytes.Buffer

	a := &App{}
	if err := a.showVerifications(context.Background(), &out, lister, 2); err != nil {
		t.Fatalf("showVerifications failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "showing 2 of 57 total") {
		t.Fatalf("missing total footer in output:\n%s", text)
	}
	if !strings.Contains(text, "complete_transfer -> Ethereum") {
		t.Fatalf("missing bridge column in output:\n%s", text)
	}
}

func TestShowOneRendersRecord(t *testing.T) {
	rec := sampleRecord("sigA")
	lister := &fakeVerificationLister{byID: map[string]storage.VerificationRecord{"sigA": rec}}
	var out bytes.Buffer

	a := &App{}
	if err := a.showOne(context.Background(), &out, lister, "sigA"); err != nil {
		t.Fatalf("showOne failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"sigA", "safe", "healthy", "complete_transfer", "Ethereum", "12.5"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestShowOneMissingSignature(t *testing.T) {
	lister := &fakeVerificationLister{byID: map[string]storage.VerificationRecord{}}
	var out bytes.Buffer

	a := &App{}
	if err := a.showOne(context.Background(), &out, lister, "unknown"); err != nil {
		t.Fatalf("missing record must not be an error: %v", err)
	}
	if !strings.Contains(out.String(), "no verification found for unknown") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}
