package engine

import (
	"github.com/rwtips/tipster/internal/pkg/models"
)

// The rule matrix is data: one threshold profile plus one set of clock
// windows per league format, expanded into rule rows. The 12-minute and
// 6-minute formats share the strict threshold profile with different
// windows; the 8-minute formats run the relaxed profile.

type scorePair struct{ home, away int }

type clockWindow struct{ from, to int } // elapsed seconds, inclusive bounds

func (w clockWindow) contains(sec int) bool { return sec >= w.from && sec <= w.to }

// formFloor holds per-player form requirements for one rule. Zero values
// mean "unconstrained"; max caps use 0 as the unset sentinel because no
// rule caps an average at zero.
type formFloor struct {
	minAvgGoalsFT    float64
	maxAvgGoalsFT    float64
	minHTOver05Pct   float64
	minHTOver15Pct   float64
	minFTScored15Pct float64
	minFTScored25Pct float64
	minFTScored35Pct float64
}

func (f formFloor) satisfiedBy(p *models.PlayerFormProfile) bool {
	if p.AvgGoalsScoredFT < f.minAvgGoalsFT {
		return false
	}
	if f.maxAvgGoalsFT > 0 && p.AvgGoalsScoredFT > f.maxAvgGoalsFT {
		return false
	}
	if p.HTOver05Pct < f.minHTOver05Pct {
		return false
	}
	if p.HTOver15Pct < f.minHTOver15Pct {
		return false
	}
	if p.FTScored15Pct < f.minFTScored15Pct {
		return false
	}
	if p.FTScored25Pct < f.minFTScored25Pct {
		return false
	}
	if p.FTScored35Pct < f.minFTScored35Pct {
		return false
	}
	return true
}

// rule is one row of the matrix. It fires when the live clock is inside the
// window, the current score is one of the listed pairs, the league baseline
// metric for the market clears the floor, and both players' form clears the
// per-side floors.
type rule struct {
	market      models.Market
	window      clockWindow
	scores      []scorePair
	minBaseline int
	home        formFloor
	away        formFloor
	minPairBTTS float64
	maxPairBTTS float64 // 0 = uncapped
}

func (r *rule) scoreAllowed(home, away int) bool {
	for _, s := range r.scores {
		if s.home == home && s.away == away {
			return true
		}
	}
	return false
}

// thresholdProfile parameterizes one variant of the rule table. The relaxed
// profile mirrors the tuned 8-minute thresholds; the strict profile keeps
// the original tighter gates used by the longer formats.
type thresholdProfile struct {
	ht05Baseline, ht05AvgFT, ht05Over05, ht05PairBTTS     float64
	ht15Baseline, ht15AvgFT, ht15Over15, ht15PairBTTS     float64
	ht25Baseline, ht25AvgFT, ht25Over15, ht25PairBTTS     float64
	htBTTSBaseline, htBTTSAvgFT, htBTTSOver05, htBTTSPair float64
	ft15Baseline, ft15AvgFT, ft15PairBTTS                 float64
	ft25Baseline, ft25AvgFT, ft25PairBTTS                 float64
	ft35Baseline, ft35AvgFT, ft35PairBTTS                 float64

	p15Baseline, p15MinAvg, p15OppMaxAvg, p15MaxPairBTTS  float64
	p15Scored15, p15Scored25                              float64
	p15AwayMinAvg, p15AwayMaxAvg                          float64
	p25Baseline, p25MinAvg, p25OppMaxAvg, p25MaxPairBTTS  float64
	p25Scored25, p25Scored35                              float64
	p25AwayMinAvg, p25AwayMaxAvg                          float64
}

var relaxedProfile = thresholdProfile{
	ht05Baseline: 95, ht05AvgFT: 0.7, ht05Over05: 85, ht05PairBTTS: 40,
	ht15Baseline: 90, ht15AvgFT: 0.9, ht15Over15: 75, ht15PairBTTS: 40,
	ht25Baseline: 85, ht25AvgFT: 1.4, ht25Over15: 85, ht25PairBTTS: 70,
	htBTTSBaseline: 85, htBTTSAvgFT: 1.2, htBTTSOver05: 90, htBTTSPair: 80,
	ft15Baseline: 90, ft15AvgFT: 0.6, ft15PairBTTS: 70,
	ft25Baseline: 85, ft25AvgFT: 1.8, ft25PairBTTS: 75,
	ft35Baseline: 85, ft35AvgFT: 2.3, ft35PairBTTS: 75,

	p15Baseline: 90, p15MinAvg: 1.8, p15OppMaxAvg: 1.7, p15MaxPairBTTS: 70,
	p15Scored15: 75, p15Scored25: 55,
	p15AwayMinAvg: 0.7, p15AwayMaxAvg: 2.7,
	p25Baseline: 85, p25MinAvg: 2.7, p25OppMaxAvg: 1.2, p25MaxPairBTTS: 60,
	p25Scored25: 75, p25Scored35: 55,
	p25AwayMinAvg: 0.7, p25AwayMaxAvg: 3.6,
}

var strictProfile = thresholdProfile{
	ht05Baseline: 100, ht05AvgFT: 0.7, ht05Over05: 90, ht05PairBTTS: 45,
	ht15Baseline: 95, ht15AvgFT: 1.0, ht15Over15: 90, ht15PairBTTS: 45,
	ht25Baseline: 90, ht25AvgFT: 1.5, ht25Over15: 100, ht25PairBTTS: 75,
	htBTTSBaseline: 90, htBTTSAvgFT: 1.3, htBTTSOver05: 100, htBTTSPair: 85,
	ft15Baseline: 95, ft15AvgFT: 0.7, ft15PairBTTS: 75,
	ft25Baseline: 90, ft25AvgFT: 2.0, ft25PairBTTS: 80,
	ft35Baseline: 90, ft35AvgFT: 2.5, ft35PairBTTS: 80,

	p15Baseline: 95, p15MinAvg: 2.0, p15OppMaxAvg: 1.5, p15MaxPairBTTS: 70,
	p15Scored15: 80, p15Scored25: 60,
	p15AwayMinAvg: 0.8, p15AwayMaxAvg: 2.5,
	p25Baseline: 90, p25MinAvg: 3.0, p25OppMaxAvg: 1.0, p25MaxPairBTTS: 60,
	p25Scored25: 80, p25Scored35: 60,
	p25AwayMinAvg: 0.8, p25AwayMaxAvg: 3.4,
}

// formatWindows carries the per-format clock windows inside which half-time,
// full-time and per-player rules may fire.
type formatWindows struct {
	ht, ft, player clockWindow
}

var ruleWindows = map[models.LeagueFormat]formatWindows{
	models.FormatBattle8: {ht: clockWindow{60, 180}, ft: clockWindow{180, 360}, player: clockWindow{90, 360}},
	models.FormatH2H8:    {ht: clockWindow{60, 180}, ft: clockWindow{180, 360}, player: clockWindow{90, 360}},
	models.FormatGT12:    {ht: clockWindow{90, 300}, ft: clockWindow{260, 510}, player: clockWindow{90, 510}},
	models.FormatVolta6:  {ht: clockWindow{30, 120}, ft: clockWindow{150, 265}, player: clockWindow{30, 265}},
}

var ruleProfiles = map[models.LeagueFormat]thresholdProfile{
	models.FormatBattle8: relaxedProfile,
	models.FormatH2H8:    relaxedProfile,
	models.FormatGT12:    strictProfile,
	models.FormatVolta6:  strictProfile,
}

// RuleMatrix holds the expanded rule tables per league format.
type RuleMatrix struct {
	rules map[models.LeagueFormat][]rule
}

// NewRuleMatrix expands the window and threshold tables into concrete rules.
func NewRuleMatrix() *RuleMatrix {
	m := &RuleMatrix{rules: make(map[models.LeagueFormat][]rule)}
	for format, w := range ruleWindows {
		m.rules[format] = buildRules(w, ruleProfiles[format])
	}
	return m
}

func buildRules(w formatWindows, t thresholdProfile) []rule {
	scoreless := []scorePair{{0, 0}}
	oneGoal := []scorePair{{1, 0}, {0, 1}}

	return []rule{
		// Half-time goal lines and BTTS.
		{
			market: models.Market{Family: models.MarketTotalHT, Line: 0.5},
			window: w.ht, scores: scoreless, minBaseline: int(t.ht05Baseline),
			home:        formFloor{minAvgGoalsFT: t.ht05AvgFT, minHTOver05Pct: t.ht05Over05},
			away:        formFloor{minAvgGoalsFT: t.ht05AvgFT, minHTOver05Pct: t.ht05Over05},
			minPairBTTS: t.ht05PairBTTS,
		},
		{
			market: models.Market{Family: models.MarketTotalHT, Line: 1.5},
			window: w.ht, scores: scoreless, minBaseline: int(t.ht15Baseline),
			home:        formFloor{minAvgGoalsFT: t.ht15AvgFT, minHTOver15Pct: t.ht15Over15},
			away:        formFloor{minAvgGoalsFT: t.ht15AvgFT, minHTOver15Pct: t.ht15Over15},
			minPairBTTS: t.ht15PairBTTS,
		},
		{
			market: models.Market{Family: models.MarketTotalHT, Line: 2.5},
			window: w.ht, scores: oneGoal, minBaseline: int(t.ht25Baseline),
			home:        formFloor{minAvgGoalsFT: t.ht25AvgFT, minHTOver15Pct: t.ht25Over15},
			away:        formFloor{minAvgGoalsFT: t.ht25AvgFT, minHTOver15Pct: t.ht25Over15},
			minPairBTTS: t.ht25PairBTTS,
		},
		{
			market: models.Market{Family: models.MarketBTTSHT},
			window: w.ht, scores: scoreless, minBaseline: int(t.htBTTSBaseline),
			home:        formFloor{minAvgGoalsFT: t.htBTTSAvgFT, minHTOver05Pct: t.htBTTSOver05},
			away:        formFloor{minAvgGoalsFT: t.htBTTSAvgFT, minHTOver05Pct: t.htBTTSOver05},
			minPairBTTS: t.htBTTSPair,
		},

		// Full-time goal lines.
		{
			market: models.Market{Family: models.MarketTotalFT, Line: 1.5},
			window: w.ft, scores: scoreless, minBaseline: int(t.ft15Baseline),
			home:        formFloor{minAvgGoalsFT: t.ft15AvgFT},
			away:        formFloor{minAvgGoalsFT: t.ft15AvgFT},
			minPairBTTS: t.ft15PairBTTS,
		},
		{
			market: models.Market{Family: models.MarketTotalFT, Line: 2.5},
			window: w.ft, scores: scoreless, minBaseline: int(t.ft25Baseline),
			home:        formFloor{minAvgGoalsFT: t.ft25AvgFT},
			away:        formFloor{minAvgGoalsFT: t.ft25AvgFT},
			minPairBTTS: t.ft25PairBTTS,
		},
		{
			market: models.Market{Family: models.MarketTotalFT, Line: 3.5},
			window: w.ft, scores: oneGoal, minBaseline: int(t.ft35Baseline),
			home:        formFloor{minAvgGoalsFT: t.ft35AvgFT},
			away:        formFloor{minAvgGoalsFT: t.ft35AvgFT},
			minPairBTTS: t.ft35PairBTTS,
		},

		// Per-player goal lines. A side only qualifies while the opponent
		// is not out-scoring expectations, hence the BTTS caps and the
		// opponent average caps.
		{
			market: models.Market{Family: models.MarketPlayerFT, Line: 1.5, Side: models.SideHome},
			window: w.player, scores: []scorePair{{0, 0}, {0, 1}}, minBaseline: int(t.p15Baseline),
			home:        formFloor{minAvgGoalsFT: t.p15MinAvg, minFTScored15Pct: t.p15Scored15, minFTScored25Pct: t.p15Scored25},
			away:        formFloor{maxAvgGoalsFT: t.p15OppMaxAvg},
			maxPairBTTS: t.p15MaxPairBTTS,
		},
		{
			market: models.Market{Family: models.MarketPlayerFT, Line: 2.5, Side: models.SideHome},
			window: w.player, scores: []scorePair{{0, 0}, {0, 1}, {0, 2}, {1, 1}, {1, 2}}, minBaseline: int(t.p25Baseline),
			home:        formFloor{minAvgGoalsFT: t.p25MinAvg, minFTScored25Pct: t.p25Scored25, minFTScored35Pct: t.p25Scored35},
			away:        formFloor{maxAvgGoalsFT: t.p25OppMaxAvg},
			maxPairBTTS: t.p25MaxPairBTTS,
		},
		{
			market: models.Market{Family: models.MarketPlayerFT, Line: 1.5, Side: models.SideAway},
			window: w.player, scores: []scorePair{{0, 0}, {1, 0}}, minBaseline: int(t.p15Baseline),
			away:        formFloor{minAvgGoalsFT: t.p15AwayMinAvg, maxAvgGoalsFT: t.p15AwayMaxAvg, minFTScored15Pct: t.p15Scored15, minFTScored25Pct: t.p15Scored25},
			maxPairBTTS: t.p15MaxPairBTTS,
		},
		{
			market: models.Market{Family: models.MarketPlayerFT, Line: 2.5, Side: models.SideAway},
			window: w.player, scores: []scorePair{{0, 0}, {1, 0}, {2, 0}, {1, 1}, {2, 1}}, minBaseline: int(t.p25Baseline),
			away:        formFloor{minAvgGoalsFT: t.p25AwayMinAvg, maxAvgGoalsFT: t.p25AwayMaxAvg, minFTScored25Pct: t.p25Scored25, minFTScored35Pct: t.p25Scored35},
			maxPairBTTS: t.p25MaxPairBTTS,
		},
	}
}

// Candidate is a fired rule with its confidence score, ready for the
// lifecycle tracker's admission filter.
type Candidate struct {
	Market     models.Market
	Confidence float64
}

// Evaluate runs every rule for the event's league format against the live
// state and the two form profiles. Returns zero or more candidates; each
// rule fires at most once per call. A missing baseline disables the whole
// format for this cycle.
func (m *RuleMatrix) Evaluate(event *models.LiveEvent, home, away *models.PlayerFormProfile, baseline *models.LeagueBaseline, h2h *models.H2HSummary) []Candidate {
	rules, ok := m.rules[event.Format]
	if !ok || baseline == nil {
		return nil
	}

	pairBTTS := (home.BTTSPct + away.BTTSPct) / 2

	var out []Candidate
	for i := range rules {
		r := &rules[i]
		if !r.window.contains(event.ElapsedSeconds) {
			continue
		}
		if !r.scoreAllowed(event.HomeGoals, event.AwayGoals) {
			continue
		}
		metric, ok := baseline.MetricFor(r.market)
		if !ok || metric < r.minBaseline {
			continue
		}
		if r.minPairBTTS > 0 && pairBTTS < r.minPairBTTS {
			continue
		}
		if r.maxPairBTTS > 0 && pairBTTS > r.maxPairBTTS {
			continue
		}
		if !r.home.satisfiedBy(home) || !r.away.satisfiedBy(away) {
			continue
		}

		out = append(out, Candidate{
			Market:     r.market,
			Confidence: Score(home, away, baseline, h2h, r.market),
		})
	}
	return out
}
