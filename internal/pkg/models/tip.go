package models

import "time"

// Tip is one emitted betting signal tied to one live event and one market.
// Created pending by the lifecycle tracker; moved exactly once to a terminal
// status by the reconciliation pass; never deleted while the process runs
// (daily and hourly reports aggregate over the full set).
type Tip struct {
	ID         string       // internal record id (uuid)
	EventID    string       // live event identity, the dedup key
	Format     LeagueFormat
	Market     Market
	Label      string // rendered strategy label, frozen at emit time
	Confidence float64
	HomePlayer string
	AwayPlayer string

	CreatedAt   time.Time
	Status      TipStatus
	SettledAt   time.Time
	MessageID   int    // notification message reference, 0 if delivery failed
	MessageText string // original message body, re-used for settlement edits
}

// Terminal reports whether the tip has left the pending state.
func (t *Tip) Terminal() bool {
	return t.Status != StatusPending
}

// TipCounts aggregates tip outcomes for reporting.
type TipCounts struct {
	Green, Red, Refund, Pending int
}

// Total is the number of decided (green or red) tips.
func (c TipCounts) Total() int { return c.Green + c.Red }

// HitRate is the green share of decided tips, in percent.
func (c TipCounts) HitRate() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.Green) / float64(c.Total()) * 100
}
