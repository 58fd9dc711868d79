package engine

import (
	"math"

	"github.com/rwtips/tipster/internal/pkg/models"
)

// Confidence model weights. The composition is additive with penalties
// rather than multiplicative so a single disqualifying signal can drive the
// score toward zero even when every other term is strong, while each term
// stays auditable on its own.
const (
	weightConsistency = 40.0
	weightBaseline    = 30.0
	weightH2H         = 20.0
	weightSample      = 10.0

	coldStreakPenalty = 25.0
	heatingBonus      = 10.0

	// Base-rate correction: strong player form in a statistically weak
	// league must not alone produce a high score.
	weakBaselineFloor       = 65
	weakBaselinePenalty     = 15.0
	veryWeakBaselineFloor   = 55
	veryWeakBaselinePenalty = 25.0

	neutralBaselineCredit = 15.0 // half of the baseline term when no baseline exists
	neutralH2HCredit      = 10.0 // half of the H2H term below 3 meetings

	sampleCap = 10.0
)

// Score fuses the two players' form, the league baseline and head-to-head
// support into a single confidence value clamped to [0,100]. baseline and
// h2h may be nil.
func Score(home, away *models.PlayerFormProfile, baseline *models.LeagueBaseline, h2h *models.H2HSummary, market models.Market) float64 {
	confidence := 0.0

	if home.ColdStreak || away.ColdStreak {
		confidence -= coldStreakPenalty
	}
	if home.Regime == models.RegimeHeating || away.Regime == models.RegimeHeating {
		confidence += heatingBonus
	}

	// Player consistency, on the metrics matching the market's checkpoint.
	homeConsistency := consistencyFor(home, market)
	awayConsistency := consistencyFor(away, market)
	avgConsistency := (homeConsistency + awayConsistency) / 2
	confidence += avgConsistency / 100 * weightConsistency

	// League baseline with base-rate correction.
	if baseline != nil {
		if metric, ok := baseline.MetricFor(market); ok {
			confidence += float64(metric) / 100 * weightBaseline
			if metric < weakBaselineFloor {
				penalty := weakBaselinePenalty
				if metric < veryWeakBaselineFloor {
					penalty = veryWeakBaselinePenalty
				}
				confidence -= penalty
			}
		} else {
			confidence += neutralBaselineCredit
		}
	} else {
		confidence += neutralBaselineCredit
	}

	// Head-to-head support.
	if h2h.Usable() {
		confidence += h2hSupport(h2h, market) / 100 * weightH2H
	} else {
		confidence += neutralH2HCredit
	}

	// Sample size.
	games := home.GamesAnalyzed
	if away.GamesAnalyzed < games {
		games = away.GamesAnalyzed
	}
	confidence += math.Min(float64(games)/sampleCap, 1.0) * weightSample

	confidence = math.Max(0, math.Min(100, confidence))
	return math.Round(confidence*10) / 10
}

// consistencyFor picks the over-threshold percentages relevant to the
// market: half-time metrics for half-time markets, full-time otherwise.
func consistencyFor(p *models.PlayerFormProfile, market models.Market) float64 {
	if market.HalfTime() {
		return (p.HTOver05Pct + p.HTOver15Pct) / 2
	}
	return (p.FTOver15Pct + p.FTOver25Pct) / 2
}

// h2hSupport maps head-to-head history onto [0,100] support for the market:
// the BTTS rate for BTTS markets, otherwise how far the average combined
// goal count clears the goal line.
func h2hSupport(h2h *models.H2HSummary, market models.Market) float64 {
	switch market.Family {
	case models.MarketBTTSHT, models.MarketBTTSFT:
		return h2h.BTTSPct
	default:
		required := float64(market.RequiredGoals())
		if required <= 0 {
			return 50
		}
		return math.Min(100, h2h.AvgTotalGoals/required*100)
	}
}
