package models

import "strings"

// LeagueFormat identifies one of the fixed short-match presets the engine
// knows how to evaluate. Upstream feeds spell league names inconsistently
// (dash variants, prefixes), so raw names are canonicalized into this closed
// set; anything unmapped stays FormatUnknown and no rules fire for it.
type LeagueFormat int

const (
	FormatUnknown LeagueFormat = iota
	FormatBattle8              // Esoccer Battle - 8 mins play
	FormatH2H8                 // Esoccer H2H GG League - 8 mins play
	FormatGT12                 // Esoccer GT Leagues - 12 mins play
	FormatVolta6               // Esoccer Battle Volta - 6 mins play
)

// String returns the short display label used in messages and reports.
func (f LeagueFormat) String() string {
	switch f {
	case FormatBattle8:
		return "BATTLE 8 MIN"
	case FormatH2H8:
		return "H2H 8 MIN"
	case FormatGT12:
		return "GT LEAGUE 12 MIN"
	case FormatVolta6:
		return "VOLTA 6 MIN"
	default:
		return "UNKNOWN"
	}
}

// Known reports whether the format is one the rule matrix covers.
func (f LeagueFormat) Known() bool {
	return f != FormatUnknown
}

// AllFormats lists the formats in display order.
func AllFormats() []LeagueFormat {
	return []LeagueFormat{FormatBattle8, FormatH2H8, FormatGT12, FormatVolta6}
}

// FormatFromLabel inverts String, restoring a LeagueFormat from its stored
// display label. Unrecognized labels map to FormatUnknown.
func FormatFromLabel(label string) LeagueFormat {
	for _, f := range AllFormats() {
		if f.String() == label {
			return f
		}
	}
	return FormatUnknown
}

// CanonicalizeLeague maps a raw upstream league name to a LeagueFormat.
// Volta must be checked before the plain Battle league because its name
// contains "Battle" as a substring. GT Leagues appears with both a hyphen
// and an en dash in the wild, so the match key avoids the dash entirely.
func CanonicalizeLeague(name string) LeagueFormat {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "volta") && strings.Contains(n, "6 mins"):
		return FormatVolta6
	case strings.Contains(n, "h2h gg league") && strings.Contains(n, "8 mins"):
		return FormatH2H8
	case strings.Contains(n, "battle") && strings.Contains(n, "8 mins"):
		return FormatBattle8
	case strings.Contains(n, "gt leagues") && strings.Contains(n, "12 mins"):
		return FormatGT12
	default:
		return FormatUnknown
	}
}
