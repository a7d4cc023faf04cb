package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"slotguard/internal/storage"
)

// Export renders verification history as CSV and/or a risk-score PNG chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-24 * time.Hour)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	records, err := store.ListVerificationsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no verifications found for export window")
		return nil
	}

	downsampled := downsampleRecords(records, opts.MaxPoints)
	a.Logger.Info().Int("total", len(records)).Int("exported", len(downsampled)).Msg("exporting verifications")

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRiskPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleRecords(records []storage.VerificationRecord, max int) []storage.VerificationRecord {
	if max <= 0 || len(records) <= max {
		return records
	}

	result := make([]storage.VerificationRecord, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}

func writeRecordsCSV(path string, records []storage.VerificationRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"observed_at", "signature", "slot", "verified", "risk_score", "finality", "health", "consensus_count", "bridge_instruction", "bridge_amount", "target_chain"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		instruction := ""
		if rec.BridgeInstruction != nil {
			instruction = *rec.BridgeInstruction
		}
		amount := ""
		if rec.BridgeAmount != nil {
			amount = rec.BridgeAmount.String()
		}
		chain := ""
		if rec.TargetChain != nil {
			chain = *rec.TargetChain
		}
		row := []string{
			rec.ObservedAt.UTC().Format(time.RFC3339),
			rec.Signature,
			strconv.FormatUint(rec.Slot, 10),
			strconv.FormatBool(rec.Verified),
			strconv.FormatFloat(rec.RiskScore, 'f', 4, 64),
			rec.Finality,
			rec.Health,
			strconv.Itoa(rec.ConsensusCount),
			instruction,
			amount,
			chain,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeRiskPNG(path string, records []storage.VerificationRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(records))
	risk := make([]float64, len(records))
	consensus := make([]float64, len(records))

	for i, rec := range records {
		x[i] = rec.ObservedAt
		risk[i] = rec.RiskScore
		consensus[i] = float64(rec.ConsensusCount)
	}

	riskFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Risk score",
			ValueFormatter: riskFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Consensus responses",
			ValueFormatter: riskFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Risk",
				XValues: x,
				YValues: risk,
			},
			chart.TimeSeries{
				Name:    "Consensus",
				XValues: x,
				YValues: consensus,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
