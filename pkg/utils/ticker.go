// Package utils provides small shared helpers for growthcast.
package utils

import (
	"strings"
)

// Index aliases users commonly type instead of the Yahoo Finance symbol.
var indexAliases = map[string]string{
	"SP500":     "^GSPC",
	"S&P500":    "^GSPC",
	"S&P 500":   "^GSPC",
	"NASDAQ":    "^IXIC",
	"NASDAQ100": "^NDX",
	"DOW":       "^DJI",
	"DJIA":      "^DJI",
	"RUSSELL":   "^RUT",
	"FTSE":      "^FTSE",
	"DAX":       "^GDAXI",
	"NIKKEI":    "^N225",
	"NIFTY":     "^NSEI",
	"SENSEX":    "^BSESN",
}

// NormalizeTicker canonicalizes user input: trims whitespace, uppercases and
// drops a leading "$" (common in chat and notes).
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	return strings.TrimPrefix(ticker, "$")
}

// ToYahooSymbol maps a normalized ticker to the symbol Yahoo Finance expects.
// Index aliases are translated; anything else passes through unchanged.
func ToYahooSymbol(ticker string) string {
	ticker = NormalizeTicker(ticker)
	if sym, ok := indexAliases[ticker]; ok {
		return sym
	}
	return ticker
}

// IsIndex reports whether ticker names a market index.
func IsIndex(ticker string) bool {
	return strings.HasPrefix(ToYahooSymbol(ticker), "^")
}
