// Package store persists portfolios as versioned JSON documents and exports
// them to CSV.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/growthcast/internal/portfolio"
	"github.com/seenimoa/growthcast/internal/projection"
)

// Version is written into every saved document.
const Version = "3.0"

// ErrInvalidDocument is returned when a file is not a valid investment file.
var ErrInvalidDocument = errors.New("not a valid investment file")

// Metadata describes the shared projection parameters of a saved portfolio.
type Metadata struct {
	Version               string               `json:"version"`
	ID                    string               `json:"id,omitempty"`
	CreatedAt             Timestamp            `json:"created_at"`
	Years                 float64              `json:"years"`
	CompoundFrequency     projection.Frequency `json:"compound_frequency"`
	ContributionFrequency projection.Frequency `json:"contribution_frequency"`
}

// Timestamp is a document time. It is written as RFC 3339 and also reads
// the zone-less ISO 8601 form ("2025-03-04T12:34:56.789012"), taken as
// local time.
type Timestamp struct {
	time.Time
}

// localLayout parses ISO 8601 without an offset; the fraction is optional.
const localLayout = "2006-01-02T15:04:05.999999999"

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return t.Time.MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("created_at must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	v, err := time.ParseInLocation(localLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("invalid created_at %q", s)
	}
	t.Time = v
	return nil
}

// Investment is one saved holding. A nil Rate marks a rate still to be
// looked up.
type Investment struct {
	Ticker             string   `json:"ticker"`
	Rate               *float64 `json:"rate"`
	InitialDeposit     float64  `json:"initial_deposit"`
	ContributionAmount float64  `json:"contribution_amount"`
}

// Document is the on-disk portfolio format.
type Document struct {
	Metadata    Metadata     `json:"metadata"`
	Investments []Investment `json:"investments"`
}

// NewDocument builds a document from holdings and shared parameters, stamped
// with a fresh id and the current time.
func NewDocument(holdings []portfolio.Holding, p portfolio.Params) *Document {
	doc := &Document{
		Metadata: Metadata{
			Version:               Version,
			ID:                    uuid.NewString(),
			CreatedAt:             Timestamp{time.Now().UTC().Truncate(time.Second)},
			Years:                 p.Years,
			CompoundFrequency:     p.CompoundFrequency,
			ContributionFrequency: p.ContributionFrequency,
		},
		Investments: make([]Investment, 0, len(holdings)),
	}
	for _, h := range holdings {
		inv := Investment{
			Ticker:             h.Ticker,
			InitialDeposit:     h.InitialDeposit,
			ContributionAmount: h.ContributionAmount,
		}
		if h.Status != portfolio.RatePending {
			rate := h.Rate
			inv.Rate = &rate
		}
		doc.Investments = append(doc.Investments, inv)
	}
	return doc
}

// Params returns the shared projection parameters.
func (d *Document) Params() portfolio.Params {
	return portfolio.Params{
		CompoundFrequency:     d.Metadata.CompoundFrequency,
		ContributionFrequency: d.Metadata.ContributionFrequency,
		Years:                 d.Metadata.Years,
	}
}

// Holdings converts the saved investments, validating each one.
func (d *Document) Holdings() ([]portfolio.Holding, error) {
	out := make([]portfolio.Holding, 0, len(d.Investments))
	for i, inv := range d.Investments {
		var h portfolio.Holding
		if inv.Rate == nil {
			if inv.Ticker == "" {
				return nil, fmt.Errorf("investment %d: %w", i+1, &projection.ValidationError{
					Field:   "rate",
					Message: "invalid investment data: a rate or a ticker is required",
				})
			}
			h = portfolio.Pending(inv.Ticker, inv.InitialDeposit, inv.ContributionAmount)
		} else {
			h = portfolio.Holding{
				Ticker:             inv.Ticker,
				Rate:               *inv.Rate,
				InitialDeposit:     inv.InitialDeposit,
				ContributionAmount: inv.ContributionAmount,
			}
		}
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("investment %d: %w", i+1, err)
		}
		out = append(out, h)
	}
	return out, nil
}

// ── Encoding ──

var (
	requiredMetadata   = []string{"years", "compound_frequency", "contribution_frequency"}
	requiredInvestment = []string{"ticker", "rate", "initial_deposit", "contribution_amount"}
)

// Encode writes d as indented JSON.
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Decode reads and validates a document. Structural problems are reported as
// ErrInvalidDocument.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if err := validateStructure(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Metadata.Version == "" {
		doc.Metadata.Version = Version
	}
	return &doc, nil
}

// validateStructure checks that required keys are present with the right
// shapes before typed decoding.
func validateStructure(data []byte) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("%w: not a valid JSON object: %v", ErrInvalidDocument, err)
	}

	rawMeta, ok := root["metadata"]
	if !ok {
		return fmt.Errorf("%w: missing metadata", ErrInvalidDocument)
	}
	rawInv, ok := root["investments"]
	if !ok {
		return fmt.Errorf("%w: missing investments", ErrInvalidDocument)
	}

	var meta map[string]json.RawMessage
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return fmt.Errorf("%w: metadata must be an object", ErrInvalidDocument)
	}
	for _, k := range requiredMetadata {
		if _, ok := meta[k]; !ok {
			return fmt.Errorf("%w: metadata.%s is required", ErrInvalidDocument, k)
		}
	}

	var investments []json.RawMessage
	if err := json.Unmarshal(rawInv, &investments); err != nil {
		return fmt.Errorf("%w: investments must be an array", ErrInvalidDocument)
	}
	for i, raw := range investments {
		var inv map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inv); err != nil {
			return fmt.Errorf("%w: investment %d must be an object", ErrInvalidDocument, i+1)
		}
		for _, k := range requiredInvestment {
			if _, ok := inv[k]; !ok {
				return fmt.Errorf("%w: investment %d: %s is required", ErrInvalidDocument, i+1, k)
			}
		}
	}
	return nil
}

// Save writes d to path, creating parent directories.
func Save(path string, d *Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads and validates the document at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
