package engine

import (
	"testing"

	"github.com/rwtips/tipster/internal/pkg/models"
)

func TestScoreComposition(t *testing.T) {
	home := &models.PlayerFormProfile{
		GamesAnalyzed: 5,
		HTOver05Pct:   100,
		HTOver15Pct:   80,
		Regime:        models.RegimeStable,
	}
	away := &models.PlayerFormProfile{
		GamesAnalyzed: 5,
		HTOver05Pct:   100,
		HTOver15Pct:   80,
		Regime:        models.RegimeStable,
	}
	baseline := &models.LeagueBaseline{Format: models.FormatBattle8, HTOver05: 95}
	market := models.Market{Family: models.MarketTotalHT, Line: 0.5}

	// consistency (100+80)/2 = 90 per side -> 36
	// baseline 95 -> 28.5, above the weak floor
	// no h2h -> neutral 10
	// 5 games -> 5
	got := Score(home, away, baseline, nil, market)
	if got != 79.5 {
		t.Errorf("Score = %v, want 79.5", got)
	}
}

func TestScoreClampsAtZero(t *testing.T) {
	home := &models.PlayerFormProfile{GamesAnalyzed: 5, ColdStreak: true}
	away := &models.PlayerFormProfile{GamesAnalyzed: 5}
	baseline := &models.LeagueBaseline{Format: models.FormatBattle8, HTOver05: 50}
	market := models.Market{Family: models.MarketTotalHT, Line: 0.5}

	// -25 cold streak, 0 consistency, 15 baseline, -25 very weak league,
	// 10 neutral h2h, 5 sample -> -20, clamped.
	got := Score(home, away, baseline, nil, market)
	if got != 0 {
		t.Errorf("Score = %v, want 0", got)
	}
}

func TestScoreClampsAtHundred(t *testing.T) {
	full := &models.PlayerFormProfile{
		GamesAnalyzed: 20,
		HTOver05Pct:   100, HTOver15Pct: 100,
		Regime: models.RegimeHeating,
	}
	baseline := &models.LeagueBaseline{Format: models.FormatBattle8, HTOver05: 100}
	h2h := &models.H2HSummary{TotalMatches: 10, AvgTotalGoals: 6}
	market := models.Market{Family: models.MarketTotalHT, Line: 0.5}

	// 10 heating + 40 + 30 + 20 + 10 = 110, clamped to 100.
	got := Score(full, full, baseline, h2h, market)
	if got != 100 {
		t.Errorf("Score = %v, want 100", got)
	}
}

func TestScoreWeakLeaguePenalty(t *testing.T) {
	p := &models.PlayerFormProfile{GamesAnalyzed: 10, HTOver05Pct: 100, HTOver15Pct: 100}
	market := models.Market{Family: models.MarketTotalHT, Line: 0.5}

	strong := Score(p, p, &models.LeagueBaseline{HTOver05: 70}, nil, market)
	weak := Score(p, p, &models.LeagueBaseline{HTOver05: 60}, nil, market)
	veryWeak := Score(p, p, &models.LeagueBaseline{HTOver05: 50}, nil, market)

	// 70 -> 21, no penalty. 60 -> 18 - 15. 50 -> 15 - 25.
	if wantDiff := 21.0 - 3.0; strong-weak != wantDiff {
		t.Errorf("strong-weak = %v, want %v", strong-weak, wantDiff)
	}
	if weak <= veryWeak {
		t.Errorf("weak (%v) should outscore very weak (%v)", weak, veryWeak)
	}
}

func TestScoreNeutralCredits(t *testing.T) {
	p := &models.PlayerFormProfile{GamesAnalyzed: 10, FTOver15Pct: 100, FTOver25Pct: 100}
	market := models.Market{Family: models.MarketTotalFT, Line: 2.5}

	// Two meetings is below the h2h usability bar and must score exactly
	// like no history at all.
	thin := &models.H2HSummary{TotalMatches: 2, AvgTotalGoals: 9}
	withThin := Score(p, p, nil, thin, market)
	withNil := Score(p, p, nil, nil, market)
	if withThin != withNil {
		t.Errorf("thin h2h = %v, nil h2h = %v, want equal", withThin, withNil)
	}

	// 40 consistency + 15 neutral baseline + 10 neutral h2h + 10 sample.
	if withNil != 75 {
		t.Errorf("Score = %v, want 75", withNil)
	}
}

func TestScoreH2HSupport(t *testing.T) {
	h2h := &models.H2HSummary{TotalMatches: 5, AvgTotalGoals: 2, BTTSPct: 80}

	// Goal market: 2 average vs 3 required -> 66.67% support.
	got := h2hSupport(h2h, models.Market{Family: models.MarketTotalFT, Line: 2.5})
	if want := 2.0 / 3.0 * 100; !almostEqual(got, want) {
		t.Errorf("h2hSupport(total) = %v, want %v", got, want)
	}

	// BTTS market uses the BTTS rate directly.
	got = h2hSupport(h2h, models.Market{Family: models.MarketBTTSFT})
	if got != 80 {
		t.Errorf("h2hSupport(btts) = %v, want 80", got)
	}

	// Support saturates at 100.
	rich := &models.H2HSummary{TotalMatches: 5, AvgTotalGoals: 9}
	got = h2hSupport(rich, models.Market{Family: models.MarketTotalFT, Line: 1.5})
	if got != 100 {
		t.Errorf("h2hSupport(capped) = %v, want 100", got)
	}
}
