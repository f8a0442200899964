package projection

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want Frequency
	}{
		{"Monthly", Monthly},
		{"monthly", Monthly},
		{" Quarterly ", Quarterly},
		{"SEMIANNUALLY", Semiannually},
		{"Annually", Annually},
	}
	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		if err != nil {
			t.Errorf("ParseFrequency(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFrequency(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFrequencyInvalid(t *testing.T) {
	_, err := ParseFrequency("Weekly")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "invalid frequency: Weekly" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestFrequencyMultipliers(t *testing.T) {
	want := map[Frequency]int{Monthly: 12, Quarterly: 4, Semiannually: 2, Annually: 1}
	for f, n := range want {
		if int(f) != n {
			t.Errorf("%s = %d, want %d", f, int(f), n)
		}
	}
	if got := len(Frequencies()); got != 4 {
		t.Errorf("Frequencies() has %d entries, want 4", got)
	}
	if Frequency(0).Valid() || Frequency(52).Valid() {
		t.Error("non-enumerated frequencies must be invalid")
	}
}

func TestFrequencyJSON(t *testing.T) {
	var v struct {
		F Frequency `json:"f"`
	}
	if err := json.Unmarshal([]byte(`{"f":"Quarterly"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.F != Quarterly {
		t.Errorf("got %v, want Quarterly", v.F)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"f":"Quarterly"}` {
		t.Errorf("marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"f":"Daily"}`), &v); err == nil {
		t.Error("expected error for unknown label")
	}
	v.F = 0
	if _, err := json.Marshal(v); err == nil {
		t.Error("expected error marshaling zero frequency")
	}
}
