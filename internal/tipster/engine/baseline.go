package engine

import (
	"sort"

	"github.com/rwtips/tipster/internal/pkg/models"
)

// baselineWindow is how many of the most recent finished matches feed each
// league baseline. Formats with fewer matches available get no baseline at
// all rather than a noisy one.
const baselineWindow = 5

// maxBaselineInput bounds how much of the finished-match stream one recompute
// looks at.
const maxBaselineInput = 200

// ComputeBaselines groups finished matches by canonical league format and
// derives a baseline for every format with at least baselineWindow matches.
// The input may arrive unordered; it is sorted most recent first (ties broken
// by id) so repeated calls over the same set are stable.
func ComputeBaselines(records []models.MatchRecord) models.BaselineSet {
	sorted := make([]models.MatchRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].RealizedAt.Equal(sorted[j].RealizedAt) {
			return sorted[i].RealizedAt.After(sorted[j].RealizedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > maxBaselineInput {
		sorted = sorted[:maxBaselineInput]
	}

	grouped := make(map[models.LeagueFormat][]models.MatchRecord)
	for i := range sorted {
		f := sorted[i].Format
		if !f.Known() {
			f = models.CanonicalizeLeague(sorted[i].LeagueName)
		}
		if !f.Known() {
			continue
		}
		grouped[f] = append(grouped[f], sorted[i])
	}

	set := make(models.BaselineSet)
	for format, matches := range grouped {
		if len(matches) < baselineWindow {
			continue
		}
		set[format] = computeBaseline(format, matches[:baselineWindow])
	}
	return set
}

func computeBaseline(format models.LeagueFormat, matches []models.MatchRecord) models.LeagueBaseline {
	var htO05, htO15, htO25, htBTTS, ftO15, ftO25, ftBTTS int
	for i := range matches {
		m := &matches[i]
		htTotal := m.HomeScoreHT + m.AwayScoreHT
		ftTotal := m.HomeScoreFT + m.AwayScoreFT

		if htTotal > 0 {
			htO05++
		}
		if htTotal > 1 {
			htO15++
		}
		if htTotal > 2 {
			htO25++
		}
		if m.HomeScoreHT > 0 && m.AwayScoreHT > 0 {
			htBTTS++
		}
		if ftTotal > 1 {
			ftO15++
		}
		if ftTotal > 2 {
			ftO25++
		}
		if m.HomeScoreFT > 0 && m.AwayScoreFT > 0 {
			ftBTTS++
		}
	}

	n := len(matches)
	pct := func(count int) int { return count * 100 / n }

	return models.LeagueBaseline{
		Format:   format,
		Matches:  n,
		HTOver05: pct(htO05),
		HTOver15: pct(htO15),
		HTOver25: pct(htO25),
		HTBTTS:   pct(htBTTS),
		FTOver15: pct(ftO15),
		FTOver25: pct(ftO25),
		FTBTTS:   pct(ftBTTS),
	}
}
