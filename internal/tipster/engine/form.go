package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rwtips/tipster/internal/pkg/models"
)

// Form aggregation constants. The recency skew is the core design decision:
// the three most recent matches carry roughly 75% of the total weight, so a
// sudden drop in form shows up immediately instead of being averaged away.
const (
	minMatchesForProfile = 5
	maxMatchesForProfile = 5
	maxMatchesConsidered = 20

	regimeMinMatches = 8
	coolingRatio     = 0.5
	coolingAbsolute  = 1.5
	heatingRatio     = 1.8
	heatingAbsolute  = 2.0
)

// formWeights assigns decreasing weight by recency; index 0 is the most
// recent match. Matches 1-3 sum to 2.8 of a 3.8 total (~74%).
var formWeights = [maxMatchesForProfile]float64{1.0, 0.95, 0.85, 0.50, 0.50}

// Soft "do not decide" outcomes. Neither is a failure: callers skip the
// player for this cycle and move on.
var (
	ErrInsufficientData = errors.New("not enough matches to build a form profile")
	ErrRegimeVeto       = errors.New("player regime is cooling, analysis vetoed")
)

// DetectRegime compares the player's scoring rate over the 3 most recent
// matches against the up-to-7 before them. matches must be ordered most
// recent first. Fewer than 8 matches yields a stable regime: there is not
// enough history to call a shift.
//
// Cooling and heating are mutually exclusive by construction: cooling needs
// ratio < 0.5, heating needs ratio > 1.8.
func DetectRegime(matches []models.MatchRecord, player string) models.Regime {
	if len(matches) < regimeMinMatches {
		return models.Regime{Direction: models.RegimeStable}
	}

	avgWindow := func(window []models.MatchRecord) float64 {
		if len(window) == 0 {
			return 0
		}
		total := 0
		for i := range window {
			scored, _ := window[i].PlayerGoalsFT(player)
			total += scored
		}
		return float64(total) / float64(len(window))
	}

	recent := matches[:3]
	prevEnd := len(matches)
	if prevEnd > 10 {
		prevEnd = 10
	}
	previous := matches[3:prevEnd]

	avgRecent := avgWindow(recent)
	avgPrevious := avgWindow(previous)

	r := models.Regime{Direction: models.RegimeStable, AvgRecent: avgRecent, AvgPrevious: avgPrevious}
	if avgPrevious <= 0 {
		return r
	}

	ratio := avgRecent / avgPrevious
	switch {
	case ratio < coolingRatio && avgRecent < coolingAbsolute:
		r.Direction = models.RegimeCooling
	case ratio > heatingRatio && avgRecent > heatingAbsolute:
		r.Direction = models.RegimeHeating
	}
	return r
}

// BuildProfile computes the weighted form profile for player from their
// matches, ordered most recent first. It returns ErrInsufficientData below
// the 5-match minimum and ErrRegimeVeto when regime detection flags a
// high-severity cooling shift; the absence of a profile, not a low score,
// is the signal in both cases.
func BuildProfile(matches []models.MatchRecord, player string) (*models.PlayerFormProfile, error) {
	if len(matches) > maxMatchesConsidered {
		matches = matches[:maxMatchesConsidered]
	}
	if len(matches) < minMatchesForProfile {
		return nil, fmt.Errorf("%w: %s has %d matches, need %d",
			ErrInsufficientData, player, len(matches), minMatchesForProfile)
	}

	regime := DetectRegime(matches, player)
	if regime.Direction == models.RegimeCooling {
		slog.Warn("regime veto: player cooled off, skipping analysis",
			"player", player,
			"avg_recent", regime.AvgRecent,
			"avg_previous", regime.AvgPrevious)
		return nil, fmt.Errorf("%w: %s recent %.1f vs previous %.1f",
			ErrRegimeVeto, player, regime.AvgRecent, regime.AvgPrevious)
	}

	n := len(matches)
	if n > maxMatchesForProfile {
		n = maxMatchesForProfile
	}
	used := matches[:n]

	var totalWeight float64
	for i := 0; i < n; i++ {
		totalWeight += formWeights[i]
	}

	var (
		htOver05, htOver15, htOver25, htOver35           float64
		ftOver05, ftOver15, ftOver25, ftOver35, ftOver45 float64
		htScored05, htScored15, htScored25, htConceded15 float64
		ftScored05, ftScored15, ftScored25, ftScored35   float64
		goalsFT, concededFT, goalsHT, concededHT         float64
		btts, htBTTS, scored3Plus                        float64
	)

	lastThree := make([]int, 0, 3)

	for i := range used {
		m := &used[i]
		w := formWeights[i]

		htScored, htConceded := m.PlayerGoalsHT(player)
		ftScored, ftConceded := m.PlayerGoalsFT(player)
		htTotal := m.HomeScoreHT + m.AwayScoreHT
		ftTotal := m.HomeScoreFT + m.AwayScoreFT

		if i < 3 {
			lastThree = append(lastThree, ftScored)
		}

		goalsFT += float64(ftScored) * w
		concededFT += float64(ftConceded) * w
		goalsHT += float64(htScored) * w
		concededHT += float64(htConceded) * w

		if ftScored >= 3 {
			scored3Plus += w
		}
		if m.HomeScoreFT > 0 && m.AwayScoreFT > 0 {
			btts += w
		}
		if m.HomeScoreHT > 0 && m.AwayScoreHT > 0 {
			htBTTS += w
		}

		if htTotal > 0 {
			htOver05 += w
		}
		if htTotal > 1 {
			htOver15 += w
		}
		if htTotal > 2 {
			htOver25 += w
		}
		if htTotal > 3 {
			htOver35 += w
		}

		if htScored > 0 {
			htScored05 += w
		}
		if htScored > 1 {
			htScored15 += w
		}
		if htScored > 2 {
			htScored25 += w
		}
		if htConceded > 1 {
			htConceded15 += w
		}

		if ftTotal > 0 {
			ftOver05 += w
		}
		if ftTotal > 1 {
			ftOver15 += w
		}
		if ftTotal > 2 {
			ftOver25 += w
		}
		if ftTotal > 3 {
			ftOver35 += w
		}
		if ftTotal > 4 {
			ftOver45 += w
		}

		if ftScored > 0 {
			ftScored05 += w
		}
		if ftScored > 1 {
			ftScored15 += w
		}
		if ftScored > 2 {
			ftScored25 += w
		}
		if ftScored > 3 {
			ftScored35 += w
		}
	}

	pct := func(v float64) float64 { return v / totalWeight * 100 }

	// Cold streak: an independent, cheaper signal than the regime veto.
	// It penalizes confidence later instead of blocking the profile.
	coldStreak := false
	if len(lastThree) == 3 {
		low := 0
		for _, g := range lastThree {
			if g <= 1 {
				low++
			}
		}
		if low >= 2 {
			coldStreak = true
			slog.Warn("cold streak detected", "player", player, "last_three_goals", lastThree)
		}
	}

	return &models.PlayerFormProfile{
		Player:        player,
		GamesAnalyzed: n,

		HTOver05Pct: pct(htOver05),
		HTOver15Pct: pct(htOver15),
		HTOver25Pct: pct(htOver25),
		HTOver35Pct: pct(htOver35),
		FTOver05Pct: pct(ftOver05),
		FTOver15Pct: pct(ftOver15),
		FTOver25Pct: pct(ftOver25),
		FTOver35Pct: pct(ftOver35),
		FTOver45Pct: pct(ftOver45),

		HTScored05Pct:   pct(htScored05),
		HTScored15Pct:   pct(htScored15),
		HTScored25Pct:   pct(htScored25),
		HTConceded15Pct: pct(htConceded15),
		FTScored05Pct:   pct(ftScored05),
		FTScored15Pct:   pct(ftScored15),
		FTScored25Pct:   pct(ftScored25),
		FTScored35Pct:   pct(ftScored35),

		AvgGoalsScoredFT:   goalsFT / totalWeight,
		AvgGoalsConcededFT: concededFT / totalWeight,
		AvgGoalsScoredHT:   goalsHT / totalWeight,
		AvgGoalsConcededHT: concededHT / totalWeight,

		BTTSPct:          pct(btts),
		HTBTTSPct:        pct(htBTTS),
		Scored3PlusPct:   pct(scored3Plus),
		Regime:           regime.Direction,
		ColdStreak:       coldStreak,
		LastThreeGoalsFT: lastThree,
	}, nil
}
