package models

// RegimeDirection tags the detected shift in a player's recent scoring rate
// relative to their slightly older history.
type RegimeDirection string

const (
	RegimeStable  RegimeDirection = "STABLE"
	RegimeHeating RegimeDirection = "HEATING"
	RegimeCooling RegimeDirection = "COOLING"
)

// Regime is the result of regime-change detection over an ordered match list.
type Regime struct {
	Direction   RegimeDirection
	AvgRecent   float64 // average goals scored over the 3 most recent matches
	AvgPrevious float64 // average over the up-to-7 matches before those
}

// PlayerFormProfile is the weighted statistical profile of a player computed
// from their most recent matches. Ephemeral: recomputed per decision cycle,
// never persisted. Every percentage lies in [0,100].
type PlayerFormProfile struct {
	Player        string
	GamesAnalyzed int

	// Total-goal over rates, weighted.
	HTOver05Pct float64
	HTOver15Pct float64
	HTOver25Pct float64
	HTOver35Pct float64
	FTOver05Pct float64
	FTOver15Pct float64
	FTOver25Pct float64
	FTOver35Pct float64
	FTOver45Pct float64

	// The player's own scoring-threshold rates, weighted.
	HTScored05Pct   float64
	HTScored15Pct   float64
	HTScored25Pct   float64
	HTConceded15Pct float64
	FTScored05Pct   float64
	FTScored15Pct   float64
	FTScored25Pct   float64
	FTScored35Pct   float64

	// Weighted goal averages.
	AvgGoalsScoredFT   float64
	AvgGoalsConcededFT float64
	AvgGoalsScoredHT   float64
	AvgGoalsConcededHT float64

	BTTSPct          float64
	HTBTTSPct        float64
	Scored3PlusPct   float64
	Regime           RegimeDirection
	ColdStreak       bool
	LastThreeGoalsFT []int
}
