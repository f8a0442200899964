package projection

import (
	"fmt"
	"strings"
)

// Frequency is a number of periods per year. Only the enumerated values
// below are valid; there are no free-form periods.
type Frequency int

const (
	Annually     Frequency = 1
	Semiannually Frequency = 2
	Quarterly    Frequency = 4
	Monthly      Frequency = 12
)

// frequencyLabels lists every valid frequency in display order.
var frequencyLabels = []struct {
	freq  Frequency
	label string
}{
	{Monthly, "Monthly"},
	{Quarterly, "Quarterly"},
	{Semiannually, "Semiannually"},
	{Annually, "Annually"},
}

// Frequencies returns the supported frequencies, most frequent first.
func Frequencies() []Frequency {
	out := make([]Frequency, 0, len(frequencyLabels))
	for _, fl := range frequencyLabels {
		out = append(out, fl.freq)
	}
	return out
}

// ParseFrequency converts a label such as "Monthly" (case-insensitive) into a
// Frequency. Unknown labels yield a validation error.
func ParseFrequency(label string) (Frequency, error) {
	s := strings.TrimSpace(label)
	for _, fl := range frequencyLabels {
		if strings.EqualFold(s, fl.label) {
			return fl.freq, nil
		}
	}
	return 0, &ValidationError{Field: "frequency", Message: fmt.Sprintf("invalid frequency: %s", label)}
}

// Valid reports whether f is a member of the enumeration.
func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Quarterly, Semiannually, Annually:
		return true
	}
	return false
}

// PerYear returns the number of periods per year as a float.
func (f Frequency) PerYear() float64 { return float64(f) }

func (f Frequency) String() string {
	for _, fl := range frequencyLabels {
		if fl.freq == f {
			return fl.label
		}
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// MarshalText encodes the frequency as its label.
func (f Frequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: frequency %d is not a member of the enumeration", ErrPrecondition, int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a frequency label.
func (f *Frequency) UnmarshalText(text []byte) error {
	parsed, err := ParseFrequency(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
