package models

import (
	"fmt"
	"strings"
	"time"
)

// MatchRecord is one finished match in canonical shape. Immutable once
// produced by the normalizer; consumed by the form aggregator, the baseline
// aggregator and the reconciler.
type MatchRecord struct {
	ID         int64        `json:"id"`
	LeagueName string       `json:"league_name"`
	Format     LeagueFormat `json:"-"`
	HomePlayer string       `json:"home_player"`
	AwayPlayer string       `json:"away_player"`
	HomeTeam   string       `json:"home_team"`
	AwayTeam   string       `json:"away_team"`

	HomeScoreHT int `json:"home_score_ht"`
	AwayScoreHT int `json:"away_score_ht"`
	HomeScoreFT int `json:"home_score_ft"`
	AwayScoreFT int `json:"away_score_ft"`

	RealizedAt time.Time `json:"realized_at"`
}

// PairKey identifies the player pairing for reconciliation lookups.
// Player names vary in casing between feeds.
func (r *MatchRecord) PairKey() string {
	return PairKey(r.HomePlayer, r.AwayPlayer)
}

// PairKey builds the canonical home_away lookup key for two player names.
func PairKey(home, away string) string {
	return strings.ToUpper(strings.TrimSpace(home)) + "_" + strings.ToUpper(strings.TrimSpace(away))
}

// Involves reports whether the named player occupied either side.
func (r *MatchRecord) Involves(player string) bool {
	p := strings.ToUpper(strings.TrimSpace(player))
	return strings.ToUpper(strings.TrimSpace(r.HomePlayer)) == p ||
		strings.ToUpper(strings.TrimSpace(r.AwayPlayer)) == p
}

// IsHome reports whether the named player was the home side.
func (r *MatchRecord) IsHome(player string) bool {
	return strings.EqualFold(strings.TrimSpace(r.HomePlayer), strings.TrimSpace(player))
}

// PlayerGoalsFT returns the full-time goals scored and conceded by the named player.
func (r *MatchRecord) PlayerGoalsFT(player string) (scored, conceded int) {
	if r.IsHome(player) {
		return r.HomeScoreFT, r.AwayScoreFT
	}
	return r.AwayScoreFT, r.HomeScoreFT
}

// PlayerGoalsHT returns the half-time goals scored and conceded by the named player.
func (r *MatchRecord) PlayerGoalsHT(player string) (scored, conceded int) {
	if r.IsHome(player) {
		return r.HomeScoreHT, r.AwayScoreHT
	}
	return r.AwayScoreHT, r.HomeScoreHT
}

// LiveEvent is one in-progress match from the live feed.
type LiveEvent struct {
	ID              string       `json:"id"`
	LeagueName      string       `json:"league_name"`
	Format          LeagueFormat `json:"-"`
	HomePlayer      string       `json:"home_player"`
	AwayPlayer      string       `json:"away_player"`
	HomeGoals       int          `json:"home_goals"`
	AwayGoals       int          `json:"away_goals"`
	ElapsedSeconds  int          `json:"elapsed_seconds"`
	TimerFormatted  string       `json:"timer_formatted"`
	ExternalEventID string       `json:"external_event_id"`
}

// Scoreboard renders the current score as "1-0".
func (e *LiveEvent) Scoreboard() string {
	return fmt.Sprintf("%d-%d", e.HomeGoals, e.AwayGoals)
}

// H2HSummary is the optional head-to-head feed result for a player pair.
type H2HSummary struct {
	TotalMatches  int     `json:"total_matches"`
	AvgTotalGoals float64 `json:"avg_total_goals"`
	BTTSPct       float64 `json:"btts_pct"`
}

// Usable reports whether there is enough head-to-head history to weigh in
// scoring; below three meetings the scorer falls back to a neutral credit.
func (h *H2HSummary) Usable() bool {
	return h != nil && h.TotalMatches >= 3
}
