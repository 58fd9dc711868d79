package models

import (
	"fmt"
	"math"
)

// MarketFamily is the family of betting market a strategy targets.
type MarketFamily int

const (
	MarketTotalHT  MarketFamily = iota // total goals at half time
	MarketTotalFT                      // total goals at full time
	MarketBTTSHT                       // both players score by half time
	MarketBTTSFT                       // both players score by full time
	MarketPlayerFT                     // one player's own goals at full time
)

// Side selects which player a per-player market refers to.
type Side int

const (
	SideNone Side = iota
	SideHome
	SideAway
)

// Market is the structured strategy identifier: family, goal line and,
// for per-player markets, the side. It is produced once by the rule matrix
// and consumed unchanged by the settlement logic, so the two can never
// disagree on what a tip means.
type Market struct {
	Family MarketFamily
	Line   float64 // half line for goal markets (0.5, 1.5, ...); unused for BTTS
	Side   Side
}

// Key returns a stable short identifier for storage and dedup, e.g.
// "total_ft_2.5" or "player_ft_home_1.5".
func (m Market) Key() string {
	switch m.Family {
	case MarketTotalHT:
		return fmt.Sprintf("total_ht_%.1f", m.Line)
	case MarketTotalFT:
		return fmt.Sprintf("total_ft_%.1f", m.Line)
	case MarketBTTSHT:
		return "btts_ht"
	case MarketBTTSFT:
		return "btts_ft"
	case MarketPlayerFT:
		side := "home"
		if m.Side == SideAway {
			side = "away"
		}
		return fmt.Sprintf("player_ft_%s_%.1f", side, m.Line)
	default:
		return "unknown"
	}
}

// Label renders the market for tip messages. playerName is used only for
// per-player markets.
func (m Market) Label(playerName string) string {
	switch m.Family {
	case MarketTotalHT:
		return fmt.Sprintf("+%.1f GOLS HT", m.Line)
	case MarketTotalFT:
		return fmt.Sprintf("+%.1f GOLS FT", m.Line)
	case MarketBTTSHT:
		return "BTTS HT"
	case MarketBTTSFT:
		return "BTTS FT"
	case MarketPlayerFT:
		return fmt.Sprintf("%s +%.1f GOLS FT", playerName, m.Line)
	default:
		return "UNKNOWN"
	}
}

// HalfTime reports whether the market settles on half-time scores.
func (m Market) HalfTime() bool {
	return m.Family == MarketTotalHT || m.Family == MarketBTTSHT
}

// TipStatus is the lifecycle state of an emitted tip.
type TipStatus string

const (
	StatusPending TipStatus = "pending"
	StatusGreen   TipStatus = "green"
	StatusRed     TipStatus = "red"
	StatusRefund  TipStatus = "refund"
)

// Settle applies the market condition to a finished match and returns the
// terminal status. All goal markets use half lines, so there is no push
// outcome to produce here; StatusRefund is reserved for voided tips.
func (m Market) Settle(rec *MatchRecord) TipStatus {
	over := func(total int) TipStatus {
		if float64(total) > m.Line {
			return StatusGreen
		}
		return StatusRed
	}
	switch m.Family {
	case MarketTotalHT:
		return over(rec.HomeScoreHT + rec.AwayScoreHT)
	case MarketTotalFT:
		return over(rec.HomeScoreFT + rec.AwayScoreFT)
	case MarketBTTSHT:
		if rec.HomeScoreHT > 0 && rec.AwayScoreHT > 0 {
			return StatusGreen
		}
		return StatusRed
	case MarketBTTSFT:
		if rec.HomeScoreFT > 0 && rec.AwayScoreFT > 0 {
			return StatusGreen
		}
		return StatusRed
	case MarketPlayerFT:
		goals := rec.HomeScoreFT
		if m.Side == SideAway {
			goals = rec.AwayScoreFT
		}
		return over(goals)
	default:
		return StatusRefund
	}
}

// RequiredGoals is the minimum integer goal count that settles the market
// green (e.g. line 1.5 requires 2). Only meaningful for goal-line markets.
func (m Market) RequiredGoals() int {
	return int(math.Floor(m.Line)) + 1
}

// ParseMarketKey inverts Key, restoring a Market from its stored identifier.
func ParseMarketKey(key string) (Market, error) {
	switch key {
	case "btts_ht":
		return Market{Family: MarketBTTSHT}, nil
	case "btts_ft":
		return Market{Family: MarketBTTSFT}, nil
	}

	var line float64
	if _, err := fmt.Sscanf(key, "total_ht_%f", &line); err == nil {
		return Market{Family: MarketTotalHT, Line: line}, nil
	}
	if _, err := fmt.Sscanf(key, "total_ft_%f", &line); err == nil {
		return Market{Family: MarketTotalFT, Line: line}, nil
	}
	if _, err := fmt.Sscanf(key, "player_ft_home_%f", &line); err == nil {
		return Market{Family: MarketPlayerFT, Side: SideHome, Line: line}, nil
	}
	if _, err := fmt.Sscanf(key, "player_ft_away_%f", &line); err == nil {
		return Market{Family: MarketPlayerFT, Side: SideAway, Line: line}, nil
	}
	return Market{}, fmt.Errorf("unknown market key %q", key)
}
