package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5"

	"slotguard/internal/storage"
)

type verificationLister interface {
	GetVerification(ctx context.Context, signature string) (storage.VerificationRecord, error)
	ListRecentVerifications(ctx context.Context, limit int) ([]storage.VerificationRecord, error)
	CountVerifications(ctx context.Context) (int64, error)
}

type transitionLister interface {
	ListRecentTransitions(ctx context.Context, limit int) ([]storage.HealthTransition, error)
}

// Show prints recent verifications, a single verification looked up by
// signature, or health transitions when requested.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	switch {
	case opts.Signature != "":
		return a.showOne(ctx, os.Stdout, store, opts.Signature)
	case opts.Transitions:
		return a.showTransitions(ctx, os.Stdout, store, opts.Limit)
	default:
		return a.showVerifications(ctx, os.Stdout, store, opts.Limit)
	}
}

func (a *App) showOne(ctx context.Context, out io.Writer, store verificationLister, signature string) error {
	rec, err := store.GetVerification(ctx, signature)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			fmt.Fprintf(out, "no verification found for %s\n", sanitizeInline(signature))
			return nil
		}
		return err
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Signature:\t%s\n", rec.Signature)
	fmt.Fprintf(writer, "Observed:\t%s\n", rec.ObservedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(writer, "Slot:\t%d\n", rec.Slot)
	fmt.Fprintf(writer, "Verified:\t%t\n", rec.Verified)
	fmt.Fprintf(writer, "Risk score:\t%.3f\n", rec.RiskScore)
	fmt.Fprintf(writer, "Finality:\t%s\n", rec.Finality)
	fmt.Fprintf(writer, "Health:\t%s\n", rec.Health)
	fmt.Fprintf(writer, "Consensus:\t%d\n", rec.ConsensusCount)
	if rec.BridgeInstruction != nil {
		fmt.Fprintf(writer, "Bridge:\t%s\n", sanitizeInline(*rec.BridgeInstruction))
		if rec.BridgeAmount != nil {
			fmt.Fprintf(writer, "Amount:\t%s\n", rec.BridgeAmount.String())
		}
		if rec.TargetChain != nil {
			fmt.Fprintf(writer, "Target chain:\t%s\n", sanitizeInline(*rec.TargetChain))
		}
	}
	return writer.Flush()
}

func (a *App) showVerifications(ctx context.Context, out io.Writer, store verificationLister, limit int) error {
	records, err := store.ListRecentVerifications(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "no verifications found")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tSignature\tVerified\tRisk\tFinality\tHealth\tConsensus\tBridge")

	for _, rec := range records {
		bridgeInfo := ""
		if rec.BridgeInstruction != nil {
			bridgeInfo = *rec.BridgeInstruction
			if rec.TargetChain != nil {
				bridgeInfo += " -> " + *rec.TargetChain
			}
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%t\t%.3f\t%s\t%s\t%d\t%s\n",
			rec.ObservedAt.UTC().Format(time.RFC3339),
			shorten(rec.Signature),
			rec.Verified,
			rec.RiskScore,
			rec.Finality,
			rec.Health,
			rec.ConsensusCount,
			sanitizeInline(bridgeInfo),
		)
	}
	writer.Flush()

	total, err := store.CountVerifications(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "showing %d of %d total\n", len(records), total)
	return nil
}

func (a *App) showTransitions(ctx context.Context, out io.Writer, store transitionLister, limit int) error {
	transitions, err := store.ListRecentTransitions(ctx, limit)
	if err != nil {
		return err
	}
	if len(transitions) == 0 {
		fmt.Fprintln(out, "no health transitions found")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tPrevious\tCurrent\tSlot")
	for _, tr := range transitions {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\n",
			tr.CreatedAt.UTC().Format(time.RFC3339),
			tr.Previous,
			tr.Current,
			tr.Slot,
		)
	}
	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
