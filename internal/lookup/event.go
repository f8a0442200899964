package lookup

import (
	"errors"
	"fmt"
	"time"

	"github.com/seenimoa/growthcast/internal/ratesource"
	"github.com/seenimoa/growthcast/pkg/models"
)

// EventType identifies a lookup event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventError    EventType = "error"
)

// Event is published by a running lookup.
type Event struct {
	Type    EventType         `json:"type"`
	Ticker  string            `json:"ticker"`
	Message string            `json:"message,omitempty"`
	Quote   *models.RateQuote `json:"quote,omitempty"`
	Time    time.Time         `json:"time"`
}

// Sink receives events. It is called from lookup goroutines and must not
// call back into the Registry.
type Sink func(Event)

// UserMessage turns a lookup error into a message fit for end users.
func UserMessage(ticker string, err error) string {
	switch {
	case errors.Is(err, ratesource.ErrNotFound):
		return fmt.Sprintf("Ticker '%s' not found or has no data", ticker)
	case errors.Is(err, ratesource.ErrNoConnection):
		return "No internet connection available"
	case errors.Is(err, ratesource.ErrDownload):
		return fmt.Sprintf("Failed to retrieve data for '%s'", ticker)
	default:
		return err.Error()
	}
}
