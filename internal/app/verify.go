package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"slotguard/internal/verify"
)

// Verify runs the pipeline once per signature and prints the outcomes.
func (a *App) Verify(ctx context.Context, opts VerifyOptions) error {
	if len(opts.Signatures) == 0 {
		return errors.New("at least one signature is required")
	}

	sources, err := a.newSources(nil)
	if err != nil {
		return err
	}
	mon := a.newMonitor()
	a.primeMonitor(ctx, sources, mon)

	pipeline := verify.NewPipeline(sources, mon, a.Logger)
	outcomes := pipeline.VerifyBatch(ctx, opts.Signatures)

	if opts.JSONOutput {
		return printOutcomesJSON(outcomes)
	}
	printOutcomesTable(outcomes)

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			return fmt.Errorf("verification failed for %s: %w", outcome.Signature, outcome.Err)
		}
	}
	return nil
}

func printOutcomesJSON(outcomes []verify.Outcome) error {
	type entry struct {
		Signature string         `json:"signature"`
		Result    *verify.Result `json:"result,omitempty"`
		Error     string         `json:"error,omitempty"`
	}
	entries := make([]entry, 0, len(outcomes))
	for _, outcome := range outcomes {
		e := entry{Signature: outcome.Signature, Result: outcome.Result}
		if outcome.Err != nil {
			e.Error = outcome.Err.Error()
		}
		entries = append(entries, e)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

func printOutcomesTable(outcomes []verify.Outcome) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Signature\tVerified\tSlot\tRisk\tFinality\tHealth\tConsensus\tSafe\tBridge")

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			fmt.Fprintf(writer, "%s\terror: %s\t\t\t\t\t\t\t\n", shorten(outcome.Signature), outcome.Err)
			continue
		}
		r := outcome.Result
		bridgeInfo := ""
		if r.Bridge != nil {
			bridgeInfo = r.Bridge.String()
		}
		fmt.Fprintf(writer, "%s\t%t\t%d\t%.3f\t%s\t%s\t%d\t%t\t%s\n",
			shorten(r.Signature),
			r.Verified,
			r.Slot,
			r.RiskScore,
			r.Finality,
			r.NetworkHealth,
			r.ConsensusCount,
			r.IsSafe(),
			bridgeInfo,
		)
	}
	writer.Flush()
}

func shorten(signature string) string {
	if len(signature) <= 16 {
		return signature
	}
	return signature[:8] + ".." + signature[len(signature)-6:]
}
