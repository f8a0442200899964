package models

import "time"

// PricePoint is a single daily close from a price history.
type PricePoint struct {
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close,omitempty"`
}

// RateQuote is the historical annual growth rate derived for a ticker.
type RateQuote struct {
	Ticker    string    `json:"ticker"`           // normalized user ticker, e.g. "SPY"
	Symbol    string    `json:"symbol,omitempty"` // provider symbol, e.g. "^GSPC"
	Rate      float64   `json:"rate"`             // percent per year, e.g. 6.97
	From      time.Time `json:"from,omitempty"`
	To        time.Time `json:"to,omitempty"`
	Points    int       `json:"points,omitempty"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Span returns the length of the history window the rate was computed over.
func (q RateQuote) Span() time.Duration {
	if q.From.IsZero() || q.To.IsZero() {
		return 0
	}
	return q.To.Sub(q.From)
}
