package engine

import (
	"testing"
	"time"

	"github.com/rwtips/tipster/internal/pkg/models"
)

func leagueMatch(id int64, league string, minsAgo int, htHome, htAway, ftHome, ftAway int) models.MatchRecord {
	return models.MatchRecord{
		ID:          id,
		LeagueName:  league,
		Format:      models.CanonicalizeLeague(league),
		HomePlayer:  "HOME",
		AwayPlayer:  "AWAY",
		HomeScoreHT: htHome, AwayScoreHT: htAway,
		HomeScoreFT: ftHome, AwayScoreFT: ftAway,
		RealizedAt: time.Now().Add(-time.Duration(minsAgo) * time.Minute),
	}
}

func TestComputeBaselinesMinimumMatches(t *testing.T) {
	const battle = "Esoccer Battle - 8 mins play"
	records := []models.MatchRecord{
		leagueMatch(1, battle, 1, 1, 0, 2, 1),
		leagueMatch(2, battle, 2, 1, 0, 2, 1),
		leagueMatch(3, battle, 3, 1, 0, 2, 1),
		leagueMatch(4, battle, 4, 1, 0, 2, 1),
	}

	set := ComputeBaselines(records)
	if _, ok := set[models.FormatBattle8]; ok {
		t.Error("four matches must not produce a baseline")
	}

	records = append(records, leagueMatch(5, battle, 5, 1, 0, 2, 1))
	set = ComputeBaselines(records)
	if _, ok := set[models.FormatBattle8]; !ok {
		t.Fatal("five matches should produce a baseline")
	}
}

func TestComputeBaselinesPercentages(t *testing.T) {
	const volta = "Esoccer Battle Volta - 6 mins play"
	records := []models.MatchRecord{
		leagueMatch(1, volta, 1, 2, 1, 3, 2), // ht 3, ft 5, both btts
		leagueMatch(2, volta, 2, 1, 0, 2, 0), // ht 1, ft 2
		leagueMatch(3, volta, 3, 0, 0, 1, 1), // ht 0, ft 2, ft btts
		leagueMatch(4, volta, 4, 1, 1, 2, 2), // ht 2, ft 4, both btts
		leagueMatch(5, volta, 5, 0, 1, 0, 2), // ht 1, ft 2
	}

	set := ComputeBaselines(records)
	base, ok := set[models.FormatVolta6]
	if !ok {
		t.Fatal("missing volta baseline")
	}

	if base.Matches != 5 {
		t.Errorf("Matches = %d, want 5", base.Matches)
	}
	if base.HTOver05 != 80 {
		t.Errorf("HTOver05 = %d, want 80", base.HTOver05)
	}
	if base.HTOver15 != 40 {
		t.Errorf("HTOver15 = %d, want 40", base.HTOver15)
	}
	if base.HTOver25 != 20 {
		t.Errorf("HTOver25 = %d, want 20", base.HTOver25)
	}
	if base.HTBTTS != 40 {
		t.Errorf("HTBTTS = %d, want 40", base.HTBTTS)
	}
	if base.FTOver15 != 100 {
		t.Errorf("FTOver15 = %d, want 100", base.FTOver15)
	}
	if base.FTOver25 != 40 {
		t.Errorf("FTOver25 = %d, want 40", base.FTOver25)
	}
	if base.FTBTTS != 60 {
		t.Errorf("FTBTTS = %d, want 60", base.FTBTTS)
	}
}

func TestComputeBaselinesWindowTakesMostRecent(t *testing.T) {
	const gt = "Esoccer GT Leagues - 12 mins play"
	// Five recent high-scoring matches, then older scoreless ones that must
	// fall outside the five-match window.
	var records []models.MatchRecord
	for i := 1; i <= 5; i++ {
		records = append(records, leagueMatch(int64(i), gt, i, 2, 1, 3, 2))
	}
	for i := 6; i <= 12; i++ {
		records = append(records, leagueMatch(int64(i), gt, i, 0, 0, 0, 0))
	}

	set := ComputeBaselines(records)
	base := set[models.FormatGT12]
	if base.HTOver05 != 100 || base.FTOver15 != 100 {
		t.Errorf("baseline should only see the five most recent matches, got %+v", base)
	}
}

func TestComputeBaselinesStableAcrossInputOrder(t *testing.T) {
	const battle = "Esoccer Battle - 8 mins play"
	records := []models.MatchRecord{
		leagueMatch(1, battle, 1, 1, 0, 2, 1),
		leagueMatch(2, battle, 2, 0, 0, 1, 0),
		leagueMatch(3, battle, 3, 2, 1, 3, 1),
		leagueMatch(4, battle, 4, 1, 1, 2, 2),
		leagueMatch(5, battle, 5, 0, 1, 1, 2),
		leagueMatch(6, battle, 6, 2, 2, 4, 3),
	}

	forward := ComputeBaselines(records)

	reversed := make([]models.MatchRecord, len(records))
	for i := range records {
		reversed[len(records)-1-i] = records[i]
	}
	backward := ComputeBaselines(reversed)

	if !forward.Equal(backward) {
		t.Errorf("baselines differ across input order: %+v vs %+v", forward, backward)
	}
}

func TestComputeBaselinesSkipsUnknownLeagues(t *testing.T) {
	var records []models.MatchRecord
	for i := 1; i <= 6; i++ {
		records = append(records, leagueMatch(int64(i), "Premier League", i, 1, 0, 2, 1))
	}
	set := ComputeBaselines(records)
	if len(set) != 0 {
		t.Errorf("unknown leagues must not produce baselines, got %v", set)
	}
}
