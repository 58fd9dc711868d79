package models

import "testing"

func TestMarketSettle(t *testing.T) {
	rec := &MatchRecord{
		HomeScoreHT: 1, AwayScoreHT: 0,
		HomeScoreFT: 2, AwayScoreFT: 1,
	}
	tests := []struct {
		market Market
		want   TipStatus
	}{
		{Market{Family: MarketTotalHT, Line: 0.5}, StatusGreen},
		{Market{Family: MarketTotalHT, Line: 1.5}, StatusRed},
		{Market{Family: MarketTotalFT, Line: 2.5}, StatusGreen},
		{Market{Family: MarketTotalFT, Line: 3.5}, StatusRed},
		{Market{Family: MarketBTTSHT}, StatusRed},
		{Market{Family: MarketBTTSFT}, StatusGreen},
		{Market{Family: MarketPlayerFT, Line: 1.5, Side: SideHome}, StatusGreen},
		{Market{Family: MarketPlayerFT, Line: 1.5, Side: SideAway}, StatusRed},
		{Market{Family: MarketPlayerFT, Line: 0.5, Side: SideAway}, StatusGreen},
	}
	for _, tt := range tests {
		if got := tt.market.Settle(rec); got != tt.want {
			t.Errorf("Settle(%s) = %v, want %v", tt.market.Key(), got, tt.want)
		}
	}
}

func TestMarketKeyRoundTrip(t *testing.T) {
	markets := []Market{
		{Family: MarketTotalHT, Line: 0.5},
		{Family: MarketTotalHT, Line: 2.5},
		{Family: MarketTotalFT, Line: 1.5},
		{Family: MarketTotalFT, Line: 3.5},
		{Family: MarketBTTSHT},
		{Family: MarketBTTSFT},
		{Family: MarketPlayerFT, Line: 1.5, Side: SideHome},
		{Family: MarketPlayerFT, Line: 2.5, Side: SideAway},
	}
	for _, m := range markets {
		parsed, err := ParseMarketKey(m.Key())
		if err != nil {
			t.Fatalf("ParseMarketKey(%q): %v", m.Key(), err)
		}
		if parsed != m {
			t.Errorf("round trip %q = %+v, want %+v", m.Key(), parsed, m)
		}
	}

	if _, err := ParseMarketKey("corner_kicks_5.5"); err == nil {
		t.Error("expected error for unknown market key")
	}
}

func TestMarketLabel(t *testing.T) {
	tests := []struct {
		market Market
		player string
		want   string
	}{
		{Market{Family: MarketTotalHT, Line: 0.5}, "", "+0.5 GOLS HT"},
		{Market{Family: MarketTotalFT, Line: 2.5}, "", "+2.5 GOLS FT"},
		{Market{Family: MarketBTTSHT}, "", "BTTS HT"},
		{Market{Family: MarketPlayerFT, Line: 1.5, Side: SideHome}, "NEYMAR JR", "NEYMAR JR +1.5 GOLS FT"},
	}
	for _, tt := range tests {
		if got := tt.market.Label(tt.player); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.player, got, tt.want)
		}
	}
}

func TestRequiredGoals(t *testing.T) {
	tests := []struct {
		line float64
		want int
	}{
		{0.5, 1},
		{1.5, 2},
		{2.5, 3},
		{3.5, 4},
	}
	for _, tt := range tests {
		m := Market{Family: MarketTotalFT, Line: tt.line}
		if got := m.RequiredGoals(); got != tt.want {
			t.Errorf("RequiredGoals(%.1f) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestPlayerGoals(t *testing.T) {
	rec := &MatchRecord{
		HomePlayer:  "ALPHA",
		AwayPlayer:  "beta",
		HomeScoreHT: 1, AwayScoreHT: 2,
		HomeScoreFT: 3, AwayScoreFT: 4,
	}

	if scored, conceded := rec.PlayerGoalsFT("ALPHA"); scored != 3 || conceded != 4 {
		t.Errorf("PlayerGoalsFT(home) = %d,%d, want 3,4", scored, conceded)
	}
	// Lookup is case-insensitive; feeds disagree on casing.
	if scored, conceded := rec.PlayerGoalsFT("BETA"); scored != 4 || conceded != 3 {
		t.Errorf("PlayerGoalsFT(away) = %d,%d, want 4,3", scored, conceded)
	}
	if scored, conceded := rec.PlayerGoalsHT("beta"); scored != 2 || conceded != 1 {
		t.Errorf("PlayerGoalsHT(away) = %d,%d, want 2,1", scored, conceded)
	}
	if !rec.Involves(" alpha ") {
		t.Error("Involves should trim and ignore case")
	}
}

func TestTipCounts(t *testing.T) {
	c := TipCounts{Green: 3, Red: 1, Refund: 2, Pending: 4}
	if c.Total() != 4 {
		t.Errorf("Total() = %d, want 4", c.Total())
	}
	if got := c.HitRate(); got != 75 {
		t.Errorf("HitRate() = %v, want 75", got)
	}
	var empty TipCounts
	if empty.HitRate() != 0 {
		t.Error("empty HitRate should be 0")
	}
}
