package engine

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rwtips/tipster/internal/pkg/models"
)

// TrackerConfig bounds the tip lifecycle.
type TrackerConfig struct {
	MinConfidence float64       // admission floor
	WindowBefore  time.Duration // settle window opens this long before the tip
	WindowAfter   time.Duration // and closes this long after it
	GracePeriod   time.Duration // pending tips younger than this are not reconciled yet
	PendingExpiry time.Duration // 0 = pending tips are retried forever
}

// Tracker owns the Tip set and the dedup set for the process lifetime.
// It is not safe for concurrent use; the engine serializes access behind
// its own mutex.
type Tracker struct {
	cfg TrackerConfig
	now func() time.Time

	seen map[string]struct{} // event ids already tipped, append-only
	tips []*models.Tip
}

// NewTracker creates an empty tracker.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		cfg:  cfg,
		now:  time.Now,
		seen: make(map[string]struct{}),
	}
}

// Seen reports whether the event has already produced a tip. Useful to skip
// the whole analysis pipeline for events tipped in a previous cycle.
func (t *Tracker) Seen(eventID string) bool {
	_, ok := t.seen[eventID]
	return ok
}

// Restore reloads previously persisted tips, typically pending ones after a
// restart, so reconciliation and dedup pick up where the last process left off.
func (t *Tracker) Restore(tips []*models.Tip) {
	for _, tip := range tips {
		t.seen[tip.EventID] = struct{}{}
		t.tips = append(t.tips, tip)
	}
}

// PendingCount returns the number of tips still awaiting settlement.
func (t *Tracker) PendingCount() int {
	n := 0
	for _, tip := range t.tips {
		if !tip.Terminal() {
			n++
		}
	}
	return n
}

// Admit applies the dedup and minimum-confidence filters to a fired
// candidate and, if it passes, records a pending Tip. The returned bool is
// false when the candidate was rejected.
func (t *Tracker) Admit(event *models.LiveEvent, cand Candidate) (*models.Tip, bool) {
	if _, dup := t.seen[event.ID]; dup {
		return nil, false
	}
	if cand.Confidence < t.cfg.MinConfidence {
		slog.Info("tip rejected below confidence floor",
			"event_id", event.ID,
			"market", cand.Market.Key(),
			"confidence", cand.Confidence,
			"floor", t.cfg.MinConfidence)
		return nil, false
	}

	playerName := event.HomePlayer
	if cand.Market.Side == models.SideAway {
		playerName = event.AwayPlayer
	}

	tip := &models.Tip{
		ID:         uuid.NewString(),
		EventID:    event.ID,
		Format:     event.Format,
		Market:     cand.Market,
		Label:      cand.Market.Label(playerName),
		Confidence: cand.Confidence,
		HomePlayer: event.HomePlayer,
		AwayPlayer: event.AwayPlayer,
		CreatedAt:  t.now(),
		Status:     models.StatusPending,
	}

	t.seen[event.ID] = struct{}{}
	t.tips = append(t.tips, tip)
	return tip, true
}

// Reconcile matches pending tips against a stream of finished matches and
// settles those with a usable result. A finished match settles a tip only
// when it involves the same player pair and its realization time falls in
// the half-open window [created−before, created+after); the earliest such
// match wins. Matches outside the window are ignored even when nothing else
// is available — re-settling against a stale match is a correctness bug,
// not a missing-data case. Tips with no match stay pending for the next
// pass. Returns the tips settled by this call.
func (t *Tracker) Reconcile(finished []models.MatchRecord) []*models.Tip {
	byPair := make(map[string][]models.MatchRecord)
	for i := range finished {
		key := finished[i].PairKey()
		byPair[key] = append(byPair[key], finished[i])
	}
	for _, ms := range byPair {
		sort.Slice(ms, func(i, j int) bool { return ms[i].RealizedAt.Before(ms[j].RealizedAt) })
	}

	now := t.now()
	var settled []*models.Tip
	for _, tip := range t.tips {
		if tip.Terminal() {
			continue
		}
		if now.Sub(tip.CreatedAt) < t.cfg.GracePeriod {
			continue
		}

		if t.cfg.PendingExpiry > 0 && now.Sub(tip.CreatedAt) > t.cfg.PendingExpiry {
			tip.Status = models.StatusRefund
			tip.SettledAt = now
			settled = append(settled, tip)
			slog.Warn("pending tip expired, settled as void",
				"event_id", tip.EventID, "market", tip.Market.Key(), "age", now.Sub(tip.CreatedAt))
			continue
		}

		match := t.findMatch(tip, byPair[models.PairKey(tip.HomePlayer, tip.AwayPlayer)])
		if match == nil {
			continue
		}

		tip.Status = tip.Market.Settle(match)
		tip.SettledAt = now
		settled = append(settled, tip)
		slog.Info("tip settled",
			"event_id", tip.EventID,
			"market", tip.Market.Key(),
			"status", tip.Status,
			"ht", match.HomeScoreHT+match.AwayScoreHT,
			"ft", match.HomeScoreFT+match.AwayScoreFT)
	}
	return settled
}

func (t *Tracker) findMatch(tip *models.Tip, candidates []models.MatchRecord) *models.MatchRecord {
	for i := range candidates {
		diff := candidates[i].RealizedAt.Sub(tip.CreatedAt)
		if diff >= -t.cfg.WindowBefore && diff < t.cfg.WindowAfter {
			return &candidates[i]
		}
	}
	return nil
}

// DayCounts tallies tips created on day (in loc).
func (t *Tracker) DayCounts(day time.Time, loc *time.Location) models.TipCounts {
	y, m, d := day.In(loc).Date()
	var c models.TipCounts
	for _, tip := range t.tips {
		ty, tm, td := tip.CreatedAt.In(loc).Date()
		if ty != y || tm != m || td != d {
			continue
		}
		switch tip.Status {
		case models.StatusGreen:
			c.Green++
		case models.StatusRed:
			c.Red++
		case models.StatusRefund:
			c.Refund++
		default:
			c.Pending++
		}
	}
	return c
}

// DayCountsByFormat tallies tips created on day per league format.
func (t *Tracker) DayCountsByFormat(day time.Time, loc *time.Location) map[models.LeagueFormat]models.TipCounts {
	y, m, d := day.In(loc).Date()
	out := make(map[models.LeagueFormat]models.TipCounts)
	for _, tip := range t.tips {
		ty, tm, td := tip.CreatedAt.In(loc).Date()
		if ty != y || tm != m || td != d {
			continue
		}
		c := out[tip.Format]
		switch tip.Status {
		case models.StatusGreen:
			c.Green++
		case models.StatusRed:
			c.Red++
		case models.StatusRefund:
			c.Refund++
		default:
			c.Pending++
		}
		out[tip.Format] = c
	}
	return out
}
