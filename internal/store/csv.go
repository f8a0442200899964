package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/growthcast/internal/portfolio"
)

var csvColumns = []string{
	"Ticker", "Annual Rate (%)", "Initial Deposit",
	"Contribution Amount", "Expected Final Value",
}

// ExportCSV writes a spreadsheet-friendly export: a header block with the
// shared parameters, a blank row, then one row per holding. Each row's final
// value is that holding projected alone with the shared parameters.
func ExportCSV(w io.Writer, holdings []portfolio.Holding, p portfolio.Params, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := [][]string{
		{"Investment Portfolio Export"},
		{"Export Date:", now.Format("2006-01-02 15:04:05")},
		{"Years of Growth:", decimal.NewFromFloat(p.Years).String()},
		{"Compound Frequency:", p.CompoundFrequency.String()},
		{"Contribution Frequency:", p.ContributionFrequency.String()},
		{},
		csvColumns,
	}
	if err := cw.WriteAll(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, h := range holdings {
		res, err := portfolio.Standalone(h, p)
		if err != nil {
			return fmt.Errorf("investment %d: %w", i+1, err)
		}
		row := []string{
			h.Ticker,
			fixed2(h.Rate),
			fixed2(h.InitialDeposit),
			fixed2(h.ContributionAmount),
			fixed2(res.FinalCapital),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSVFile writes the export to path.
func ExportCSVFile(path string, holdings []portfolio.Holding, p portfolio.Params) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := ExportCSV(f, holdings, p, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
