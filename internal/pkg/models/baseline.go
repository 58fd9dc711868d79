package models

// LeagueBaseline holds rolling integer percentages for one league format,
// computed from its most recent finished matches. Compared by value to
// detect "no change" and suppress redundant downstream updates.
type LeagueBaseline struct {
	Format  LeagueFormat
	Matches int

	HTOver05 int
	HTOver15 int
	HTOver25 int
	HTBTTS   int

	FTOver15 int
	FTOver25 int
	FTBTTS   int
}

// BaselineSet maps league formats to their current baselines.
type BaselineSet map[LeagueFormat]LeagueBaseline

// Equal compares two baseline sets by value.
func (s BaselineSet) Equal(other BaselineSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if o, ok := other[k]; !ok || o != v {
			return false
		}
	}
	return true
}

// MetricFor selects the baseline percentage relevant to a market. The bool
// is false when the baseline carries no usable metric for it.
func (b LeagueBaseline) MetricFor(m Market) (int, bool) {
	switch m.Family {
	case MarketTotalHT:
		switch {
		case m.Line < 1:
			return b.HTOver05, true
		case m.Line < 2:
			return b.HTOver15, true
		default:
			return b.HTOver25, true
		}
	case MarketBTTSHT:
		return b.HTBTTS, true
	case MarketBTTSFT:
		return b.FTBTTS, true
	case MarketTotalFT, MarketPlayerFT:
		switch {
		case m.Line < 2:
			return b.FTOver15, true
		case m.Line < 3:
			return b.FTOver25, true
		default:
			// No direct 3.5+ rate is tracked; the 2.5 rate floored at 70
			// serves as a proxy.
			v := b.FTOver25
			if v < 70 {
				v = 70
			}
			return v, true
		}
	default:
		return 0, false
	}
}
