package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rwtips/tipster/internal/pkg/metrics"
	"github.com/rwtips/tipster/internal/pkg/models"
)

type fakeFeed struct {
	live     []models.LiveEvent
	finished []models.MatchRecord
	players  map[string][]models.MatchRecord
	h2h      *models.H2HSummary

	playerCalls   int
	finishedCalls int
}

func (f *fakeFeed) LiveEvents(context.Context) ([]models.LiveEvent, error) {
	return f.live, nil
}

func (f *fakeFeed) FinishedMatches(context.Context, int, int) ([]models.MatchRecord, error) {
	f.finishedCalls++
	return f.finished, nil
}

func (f *fakeFeed) PlayerMatches(_ context.Context, player string, _ int) ([]models.MatchRecord, error) {
	f.playerCalls++
	return f.players[player], nil
}

func (f *fakeFeed) H2H(context.Context, string, string) (*models.H2HSummary, error) {
	return f.h2h, nil
}

type sentMessage struct {
	id   int
	text string
}

type fakeNotifier struct {
	sends   []sentMessage
	edits   map[int]string
	deletes []int
	nextID  int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{edits: make(map[int]string)}
}

func (n *fakeNotifier) Send(_ context.Context, text string) (int, error) {
	n.nextID++
	n.sends = append(n.sends, sentMessage{id: n.nextID, text: text})
	return n.nextID, nil
}

func (n *fakeNotifier) Edit(_ context.Context, messageID int, text string) error {
	n.edits[messageID] = text
	return nil
}

func (n *fakeNotifier) Delete(_ context.Context, messageID int) error {
	n.deletes = append(n.deletes, messageID)
	return nil
}

const battleLeague = "Esoccer Battle - 8 mins play"

// forceHistoryRefresh ages the shared history cache past its TTL so the next
// lookup goes back to the feed. Cumulative, so tests can expire it repeatedly.
func forceHistoryRefresh(e *Engine) {
	base := e.historyCache.now()
	e.historyCache.now = func() time.Time { return base.Add(2 * time.Minute) }
}

// playerHistory gives the named player five dominant home wins.
func playerHistory(player string) []models.MatchRecord {
	out := make([]models.MatchRecord, 5)
	for i := range out {
		out[i] = models.MatchRecord{
			ID:          int64(100 + i),
			LeagueName:  battleLeague,
			Format:      models.FormatBattle8,
			HomePlayer:  player,
			AwayPlayer:  "SOMEBODY",
			HomeScoreHT: 2, AwayScoreHT: 1,
			HomeScoreFT: 3, AwayScoreFT: 2,
			RealizedAt: time.Now().Add(-time.Duration(i+1) * time.Hour),
		}
	}
	return out
}

func leagueHistory() []models.MatchRecord {
	out := make([]models.MatchRecord, 6)
	for i := range out {
		out[i] = models.MatchRecord{
			ID:          int64(i + 1),
			LeagueName:  battleLeague,
			Format:      models.FormatBattle8,
			HomePlayer:  "X", AwayPlayer: "Y",
			HomeScoreHT: 2, AwayScoreHT: 1,
			HomeScoreFT: 3, AwayScoreFT: 2,
			RealizedAt: time.Now().Add(-time.Duration(i+1) * time.Hour),
		}
	}
	return out
}

func testEngine(f *fakeFeed, n *fakeNotifier) *Engine {
	return New(Config{
		LiveInterval:      10 * time.Second,
		ReconcileInterval: 3 * time.Minute,
		ReconcileDelay:    time.Second,
		PlayerCacheTTL:    5 * time.Minute,
		HistoryCacheTTL:   time.Minute,
		H2HCacheTTL:       time.Minute,
		HistoryPageSize:   200,
		Location:          time.UTC,
		Tracker: TrackerConfig{
			MinConfidence: 80,
			WindowBefore:  5 * time.Minute,
			WindowAfter:   30 * time.Minute,
		},
	}, f, n, nil, metrics.New())
}

func TestEngineEmitsAndSettlesTip(t *testing.T) {
	ctx := context.Background()

	f := &fakeFeed{
		live: []models.LiveEvent{{
			ID:             "live-1",
			LeagueName:     battleLeague,
			Format:         models.FormatBattle8,
			HomePlayer:     "ALICE",
			AwayPlayer:     "BOB",
			ElapsedSeconds: 100,
			TimerFormatted: "01:40",
		}},
		finished: leagueHistory(),
		players: map[string][]models.MatchRecord{
			"ALICE": playerHistory("ALICE"),
			"BOB":   playerHistory("BOB"),
		},
		h2h: &models.H2HSummary{TotalMatches: 6, AvgTotalGoals: 5, BTTSPct: 90},
	}
	n := newFakeNotifier()
	e := testEngine(f, n)

	// First reconcile establishes the baselines and posts the table.
	e.reconcileCycle(ctx)
	if len(n.sends) != 1 || !strings.Contains(n.sends[0].text, "ANÁLISE DE LIGAS") {
		t.Fatalf("expected a baseline table message, got %v", n.sends)
	}

	e.analyzeCycle(ctx)

	e.mu.Lock()
	pending := e.tracker.PendingCount()
	e.mu.Unlock()
	if pending != 1 {
		t.Fatalf("pending tips = %d, want 1", pending)
	}
	if len(n.sends) != 2 {
		t.Fatalf("sends = %d, want baseline table plus one tip", len(n.sends))
	}
	tipMsg := n.sends[1]
	if !strings.Contains(tipMsg.text, "OPORTUNIDADE DETECTADA") {
		t.Errorf("tip message missing header: %q", tipMsg.text)
	}
	if !strings.Contains(tipMsg.text, "ALICE") || !strings.Contains(tipMsg.text, "BOB") {
		t.Errorf("tip message missing players: %q", tipMsg.text)
	}

	// A second cycle must not emit a second tip for the same event.
	e.analyzeCycle(ctx)
	if len(n.sends) != 2 {
		t.Fatalf("dedup failed, sends = %d", len(n.sends))
	}

	// The pair finishes; the next reconcile settles the tip and edits the
	// original message with the outcome marker.
	f.finished = append([]models.MatchRecord{{
		ID:          999,
		LeagueName:  battleLeague,
		Format:      models.FormatBattle8,
		HomePlayer:  "ALICE",
		AwayPlayer:  "BOB",
		HomeScoreHT: 2, AwayScoreHT: 1,
		HomeScoreFT: 3, AwayScoreFT: 2,
		RealizedAt: time.Now(),
	}}, f.finished...)

	forceHistoryRefresh(e)
	e.reconcileCycle(ctx)

	e.mu.Lock()
	pending = e.tracker.PendingCount()
	e.mu.Unlock()
	if pending != 0 {
		t.Fatalf("pending tips = %d after settlement, want 0", pending)
	}

	edit, ok := n.edits[tipMsg.id]
	if !ok {
		t.Fatal("settlement did not edit the tip message")
	}
	if !strings.Contains(edit, "✅✅✅✅✅") {
		t.Errorf("edit missing green marker: %q", edit)
	}

	// A decided tip produces a daily summary exactly once per change.
	var summaries int
	for _, s := range n.sends {
		if strings.Contains(s.text, "RW TIPS") {
			summaries++
		}
	}
	if summaries != 1 {
		t.Errorf("daily summaries = %d, want 1", summaries)
	}

	e.reconcileCycle(ctx)
	for _, s := range n.sends[len(n.sends)-1:] {
		if strings.Contains(s.text, "RW TIPS") && summaries > 1 {
			t.Error("unchanged daily summary was re-sent")
		}
	}
}

func TestEngineProfilesFromSharedHistory(t *testing.T) {
	ctx := context.Background()

	// Both players have enough matches in the shared recent page, so the
	// targeted per-player endpoint must never be hit.
	finished := append(playerHistory("ALICE"), playerHistory("BOB")...)
	finished = append(finished, leagueHistory()...)

	f := &fakeFeed{
		live: []models.LiveEvent{{
			ID:             "live-3",
			LeagueName:     battleLeague,
			Format:         models.FormatBattle8,
			HomePlayer:     "ALICE",
			AwayPlayer:     "BOB",
			ElapsedSeconds: 100,
			TimerFormatted: "01:40",
		}},
		finished: finished,
		h2h:      &models.H2HSummary{TotalMatches: 6, AvgTotalGoals: 5, BTTSPct: 90},
	}
	n := newFakeNotifier()
	e := testEngine(f, n)

	e.reconcileCycle(ctx)
	e.analyzeCycle(ctx)

	e.mu.Lock()
	pending := e.tracker.PendingCount()
	e.mu.Unlock()
	if pending != 1 {
		t.Fatalf("pending tips = %d, want 1", pending)
	}
	if f.playerCalls != 0 {
		t.Errorf("per-player endpoint was hit %d times, want 0", f.playerCalls)
	}
}

func TestEngineHistoryFetchedOncePerWindow(t *testing.T) {
	ctx := context.Background()
	f := &fakeFeed{finished: leagueHistory()}
	n := newFakeNotifier()
	e := testEngine(f, n)

	if _, err := e.recentHistory(ctx); err != nil {
		t.Fatalf("recentHistory: %v", err)
	}
	if _, err := e.recentHistory(ctx); err != nil {
		t.Fatalf("recentHistory: %v", err)
	}
	if f.finishedCalls != 1 {
		t.Fatalf("back-to-back lookups hit upstream %d times, want 1 within the TTL window", f.finishedCalls)
	}

	// Reconciliation inside the same window reads the cached page too.
	e.reconcileCycle(ctx)
	if f.finishedCalls != 1 {
		t.Fatalf("reconcile re-fetched inside the window, calls = %d", f.finishedCalls)
	}

	forceHistoryRefresh(e)
	if _, err := e.recentHistory(ctx); err != nil {
		t.Fatalf("recentHistory: %v", err)
	}
	if f.finishedCalls != 2 {
		t.Fatalf("expired window did not re-fetch, calls = %d", f.finishedCalls)
	}
}

func TestEngineSkipsUnknownLeagues(t *testing.T) {
	ctx := context.Background()
	f := &fakeFeed{
		live: []models.LiveEvent{{
			ID:             "live-2",
			LeagueName:     "Premier League",
			Format:         models.FormatUnknown,
			HomePlayer:     "ALICE",
			AwayPlayer:     "BOB",
			ElapsedSeconds: 100,
		}},
		finished: leagueHistory(),
		players: map[string][]models.MatchRecord{
			"ALICE": playerHistory("ALICE"),
			"BOB":   playerHistory("BOB"),
		},
	}
	n := newFakeNotifier()
	e := testEngine(f, n)

	e.reconcileCycle(ctx)
	sendsBefore := len(n.sends)
	e.analyzeCycle(ctx)

	if len(n.sends) != sendsBefore {
		t.Fatalf("unknown league produced a tip: %v", n.sends[sendsBefore:])
	}
}

func TestEngineHourlySummaryReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	f := &fakeFeed{}
	n := newFakeNotifier()
	e := testEngine(f, n)

	e.mu.Lock()
	e.tracker.Restore([]*models.Tip{{
		ID: "t1", EventID: "e1", Status: models.StatusGreen,
		Format: models.FormatBattle8, CreatedAt: time.Now(),
	}})
	e.mu.Unlock()

	e.sendHourlySummary(ctx)
	if len(n.sends) != 1 || !strings.Contains(n.sends[0].text, "RESUMO POR LIGA") {
		t.Fatalf("expected one hourly summary, got %v", n.sends)
	}

	e.sendHourlySummary(ctx)
	if len(n.deletes) != 1 || n.deletes[0] != n.sends[0].id {
		t.Fatalf("second summary must delete the first, deletes = %v", n.deletes)
	}
	if len(n.sends) != 2 {
		t.Fatalf("sends = %d, want 2", len(n.sends))
	}
}

func TestEngineBaselineTableOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	f := &fakeFeed{finished: leagueHistory()}
	n := newFakeNotifier()
	e := testEngine(f, n)

	e.reconcileCycle(ctx)
	forceHistoryRefresh(e)
	e.reconcileCycle(ctx)
	if len(n.sends) != 1 {
		t.Fatalf("unchanged baselines were re-sent: %d messages", len(n.sends))
	}

	// A different result set moves the numbers and replaces the table.
	f.finished[0].HomeScoreFT = 0
	f.finished[0].AwayScoreFT = 0
	f.finished[0].HomeScoreHT = 0
	f.finished[0].AwayScoreHT = 0
	forceHistoryRefresh(e)
	e.reconcileCycle(ctx)
	if len(n.sends) != 2 {
		t.Fatalf("changed baselines were not re-sent: %d messages", len(n.sends))
	}
	if len(n.deletes) != 1 || n.deletes[0] != n.sends[0].id {
		t.Fatalf("old baseline table was not deleted: %v", n.deletes)
	}
}
