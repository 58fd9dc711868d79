package models

import "testing"

func TestCanonicalizeLeague(t *testing.T) {
	tests := []struct {
		name string
		want LeagueFormat
	}{
		{"Esoccer Battle - 8 mins play", FormatBattle8},
		{"Esoccer Battle Volta - 6 mins play", FormatVolta6},
		{"Esoccer H2H GG League - 8 mins play", FormatH2H8},
		{"Esoccer GT Leagues - 12 mins play", FormatGT12},
		// En dash variant seen in the wild.
		{"Esoccer GT Leagues – 12 mins play", FormatGT12},
		// Case-insensitive.
		{"ESOCCER BATTLE - 8 MINS PLAY", FormatBattle8},
		// Unknown leagues fail closed.
		{"Esoccer Live Arena - 10 mins play", FormatUnknown},
		{"Premier League", FormatUnknown},
		{"", FormatUnknown},
		// A Volta league must not fall through to plain Battle.
		{"Esoccer Battle Volta - 6 mins play (special)", FormatVolta6},
	}
	for _, tt := range tests {
		if got := CanonicalizeLeague(tt.name); got != tt.want {
			t.Errorf("CanonicalizeLeague(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFormatFromLabel(t *testing.T) {
	for _, f := range AllFormats() {
		if got := FormatFromLabel(f.String()); got != f {
			t.Errorf("FormatFromLabel(%q) = %v, want %v", f.String(), got, f)
		}
	}
	if got := FormatFromLabel("SOMETHING ELSE"); got != FormatUnknown {
		t.Errorf("FormatFromLabel(unknown) = %v, want FormatUnknown", got)
	}
}

func TestKnown(t *testing.T) {
	if FormatUnknown.Known() {
		t.Error("FormatUnknown should not be known")
	}
	for _, f := range AllFormats() {
		if !f.Known() {
			t.Errorf("%v should be known", f)
		}
	}
}
