package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rwtips/tipster/internal/pkg/metrics"
	"github.com/rwtips/tipster/internal/pkg/models"
	"github.com/rwtips/tipster/internal/pkg/storage"
	"github.com/rwtips/tipster/internal/tipster/notify"
)

// Feed is the upstream data dependency: live events, finished matches and
// head-to-head summaries.
type Feed interface {
	LiveEvents(ctx context.Context) ([]models.LiveEvent, error)
	FinishedMatches(ctx context.Context, page, pageSize int) ([]models.MatchRecord, error)
	PlayerMatches(ctx context.Context, player string, limit int) ([]models.MatchRecord, error)
	H2H(ctx context.Context, player1, player2 string) (*models.H2HSummary, error)
}

// Notifier delivers messages to the tip channel. Send returns the message id
// so settlement edits and replace-style reports can reference it later.
type Notifier interface {
	Send(ctx context.Context, text string) (int, error)
	Edit(ctx context.Context, messageID int, text string) error
	Delete(ctx context.Context, messageID int) error
}

// Config bounds the engine's loops and caches.
type Config struct {
	LiveInterval      time.Duration
	ReconcileInterval time.Duration
	ReconcileDelay    time.Duration

	PlayerCacheTTL  time.Duration
	HistoryCacheTTL time.Duration
	H2HCacheTTL     time.Duration

	HistoryPageSize int
	Location        *time.Location

	Tracker TrackerConfig
}

// Engine wires the feed, the decision pipeline and the notifier together and
// owns all mutable state: the tip tracker, the league baselines and the
// report message ids. All state lives on the instance so tests can run
// multiple engines side by side.
type Engine struct {
	cfg      Config
	feed     Feed
	notifier Notifier
	store    storage.TipStore // nil disables persistence
	metrics  *metrics.Metrics
	matrix   *RuleMatrix

	profileCache *ttlCache[*models.PlayerFormProfile]
	historyCache *ttlCache[[]models.MatchRecord]
	h2hCache     *ttlCache[*models.H2HSummary]

	now func() time.Time

	mu        sync.Mutex
	tracker   *Tracker
	baselines models.BaselineSet

	lastDailySummary  string
	hourlyMessageID   int
	baselineMessageID int
}

// New builds an engine. store may be nil.
func New(cfg Config, feed Feed, notifier Notifier, store storage.TipStore, m *metrics.Metrics) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{
		cfg:          cfg,
		feed:         feed,
		notifier:     notifier,
		store:        store,
		metrics:      m,
		matrix:       NewRuleMatrix(),
		profileCache: newTTLCache[*models.PlayerFormProfile](cfg.PlayerCacheTTL),
		historyCache: newTTLCache[[]models.MatchRecord](cfg.HistoryCacheTTL),
		h2hCache:     newTTLCache[*models.H2HSummary](cfg.H2HCacheTTL),
		now:          time.Now,
		tracker:      NewTracker(cfg.Tracker),
	}
}

// RestoreTips reloads persisted pending tips into the tracker, typically
// right after startup.
func (e *Engine) RestoreTips(tips []*models.Tip) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker.Restore(tips)
	slog.Info("restored pending tips", "count", len(tips))
}

// Run drives the three loops until ctx is cancelled: live analysis,
// settlement reconciliation and the hourly per-league report.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); e.liveLoop(ctx) }()
	go func() { defer wg.Done(); e.reconcileLoop(ctx) }()
	go func() { defer wg.Done(); e.hourlyLoop(ctx) }()
	wg.Wait()
}

func (e *Engine) liveLoop(ctx context.Context) {
	slog.Info("live analysis loop started", "interval", e.cfg.LiveInterval)
	ticker := time.NewTicker(e.cfg.LiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.analyzeCycle(ctx)
		}
	}
}

func (e *Engine) reconcileLoop(ctx context.Context) {
	slog.Info("reconcile loop started",
		"interval", e.cfg.ReconcileInterval, "initial_delay", e.cfg.ReconcileDelay)

	select {
	case <-ctx.Done():
		return
	case <-time.After(e.cfg.ReconcileDelay):
	}
	e.reconcileCycle(ctx)

	ticker := time.NewTicker(e.cfg.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.reconcileCycle(ctx)
		}
	}
}

func (e *Engine) hourlyLoop(ctx context.Context) {
	slog.Info("hourly summary loop started")
	for {
		now := e.now().In(e.cfg.Location)
		next := now.Truncate(time.Hour).Add(time.Hour)
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
			e.sendHourlySummary(ctx)
		}
	}
}

// analyzeCycle is one pass over the live feed: profile both players of every
// new event, run the rule matrix and emit whatever passes admission.
func (e *Engine) analyzeCycle(ctx context.Context) {
	start := e.now()
	defer func() {
		e.metrics.CyclesTotal.Inc()
		e.metrics.CycleDuration.Observe(e.now().Sub(start).Seconds())
	}()

	events, err := e.feed.LiveEvents(ctx)
	if err != nil {
		e.metrics.FeedErrors.WithLabelValues("live").Inc()
		slog.Error("live feed unavailable, skipping cycle", "error", err)
		return
	}
	e.metrics.LiveEventsSeen.Add(float64(len(events)))

	for i := range events {
		event := &events[i]
		if !event.Format.Known() {
			continue
		}

		e.mu.Lock()
		seen := e.tracker.Seen(event.ID)
		e.mu.Unlock()
		if seen {
			continue
		}

		e.analyzeEvent(ctx, event)
	}

	e.profileCache.Purge()
	e.historyCache.Purge()
	e.h2hCache.Purge()
}

func (e *Engine) analyzeEvent(ctx context.Context, event *models.LiveEvent) {
	home, err := e.profileFor(ctx, event.HomePlayer)
	if err != nil {
		return
	}
	away, err := e.profileFor(ctx, event.AwayPlayer)
	if err != nil {
		return
	}

	h2h := e.h2hFor(ctx, event.HomePlayer, event.AwayPlayer)

	e.mu.Lock()
	defer e.mu.Unlock()

	var baseline *models.LeagueBaseline
	if b, ok := e.baselines[event.Format]; ok {
		baseline = &b
	}

	candidates := e.matrix.Evaluate(event, home, away, baseline, h2h)
	if len(candidates) == 0 {
		return
	}
	e.metrics.RulesFired.Add(float64(len(candidates)))

	// Highest confidence first; the dedup set admits at most one tip per
	// event, so the order decides which market wins.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	for _, cand := range candidates {
		tip, ok := e.tracker.Admit(event, cand)
		if !ok {
			continue
		}
		e.metrics.TipsEmitted.WithLabelValues(tip.Format.String()).Inc()

		tip.MessageText = notify.TipMessage(event, tip, home, away)
		messageID, err := e.notifier.Send(ctx, tip.MessageText)
		if err != nil {
			// The tip stays tracked: settlement still reports it in the
			// aggregates even though the channel never saw the message.
			e.metrics.NotifyErrors.Inc()
			slog.Error("tip notification failed", "event_id", tip.EventID, "error", err)
		}
		tip.MessageID = messageID

		e.persistTip(ctx, tip)
		slog.Info("tip emitted",
			"event_id", tip.EventID,
			"market", tip.Market.Key(),
			"confidence", tip.Confidence,
			"league", tip.Format.String())
	}
}

// recentHistory returns the latest finished-match page through a short-lived
// shared cache, so per-player lookups during one cycle cost at most one
// upstream fetch per TTL window no matter how many live events are on.
func (e *Engine) recentHistory(ctx context.Context) ([]models.MatchRecord, error) {
	const key = "recent"
	if h, ok := e.historyCache.Get(key); ok {
		return h, nil
	}

	finished, err := e.feed.FinishedMatches(ctx, 1, e.cfg.HistoryPageSize)
	if err != nil {
		e.metrics.FeedErrors.WithLabelValues("history").Inc()
		return nil, err
	}
	e.historyCache.Put(key, finished)
	return finished, nil
}

// playerMatches serves a player's history by filtering the shared recent page,
// most recent first. The targeted endpoint is only hit when the shared window
// is too thin for that player to profile at all.
func (e *Engine) playerMatches(ctx context.Context, player string) ([]models.MatchRecord, error) {
	history, err := e.recentHistory(ctx)
	if err != nil {
		return nil, err
	}

	var matches []models.MatchRecord
	for i := range history {
		if history[i].Involves(player) {
			matches = append(matches, history[i])
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].RealizedAt.After(matches[j].RealizedAt)
	})
	if len(matches) >= minMatchesForProfile {
		return matches, nil
	}

	matches, err = e.feed.PlayerMatches(ctx, player, maxMatchesConsidered)
	if err != nil {
		e.metrics.FeedErrors.WithLabelValues("player").Inc()
		return nil, err
	}
	return matches, nil
}

// profileFor returns the player's cached form profile, building it from the
// feed on a cache miss. Veto and insufficient-data outcomes are not cached:
// a player one match away from the minimum should qualify as soon as the
// match lands.
func (e *Engine) profileFor(ctx context.Context, player string) (*models.PlayerFormProfile, error) {
	if p, ok := e.profileCache.Get(player); ok {
		return p, nil
	}

	matches, err := e.playerMatches(ctx, player)
	if err != nil {
		slog.Warn("player history unavailable", "player", player, "error", err)
		return nil, err
	}

	profile, err := BuildProfile(matches, player)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrRegimeVeto) {
			e.metrics.ProfileVetoes.Inc()
		}
		return nil, err
	}

	e.metrics.ProfilesBuilt.Inc()
	e.profileCache.Put(player, profile)
	return profile, nil
}

// h2hFor returns the cached head-to-head summary; failures degrade to nil,
// which the scorer treats as neutral history.
func (e *Engine) h2hFor(ctx context.Context, home, away string) *models.H2HSummary {
	key := models.PairKey(home, away)
	if h, ok := e.h2hCache.Get(key); ok {
		return h
	}

	h2h, err := e.feed.H2H(ctx, home, away)
	if err != nil {
		e.metrics.FeedErrors.WithLabelValues("h2h").Inc()
		slog.Warn("h2h unavailable", "home", home, "away", away, "error", err)
		return nil
	}
	if h2h != nil {
		e.h2hCache.Put(key, h2h)
	}
	return h2h
}

// reconcileCycle settles pending tips against the finished-match history,
// refreshes the league baselines and sends the daily aggregate when it
// changed.
func (e *Engine) reconcileCycle(ctx context.Context) {
	finished, err := e.recentHistory(ctx)
	if err != nil {
		slog.Error("history feed unavailable, skipping reconcile", "error", err)
		return
	}

	e.mu.Lock()
	settled := e.tracker.Reconcile(finished)
	pending := e.tracker.PendingCount()
	counts := e.tracker.DayCounts(e.now(), e.cfg.Location)
	e.mu.Unlock()

	e.metrics.PendingTips.Set(float64(pending))

	for _, tip := range settled {
		e.metrics.TipsSettled.WithLabelValues(string(tip.Status)).Inc()
		if tip.MessageID != 0 {
			if err := e.notifier.Edit(ctx, tip.MessageID, notify.SettlementText(tip)); err != nil {
				e.metrics.NotifyErrors.Inc()
			}
		}
		if e.store != nil {
			if err := e.store.UpdateTipStatus(ctx, tip); err != nil {
				slog.Error("persist settlement failed", "tip_id", tip.ID, "error", err)
			}
		}
	}

	e.sendDailySummary(ctx, counts)
	e.refreshBaselines(ctx, finished)
}

// sendDailySummary posts the day's aggregate, suppressing repeats of an
// unchanged scoreboard.
func (e *Engine) sendDailySummary(ctx context.Context, counts models.TipCounts) {
	text := notify.DailySummary(counts)
	if text == "" {
		return
	}

	e.mu.Lock()
	changed := text != e.lastDailySummary
	e.mu.Unlock()
	if !changed {
		return
	}

	if _, err := e.notifier.Send(ctx, text); err != nil {
		e.metrics.NotifyErrors.Inc()
		return
	}
	e.mu.Lock()
	e.lastDailySummary = text
	e.mu.Unlock()
	slog.Info("daily summary sent",
		"green", counts.Green, "red", counts.Red, "refund", counts.Refund)
}

// refreshBaselines recomputes the per-league baselines and, when anything
// moved, replaces the baseline table message in the channel.
func (e *Engine) refreshBaselines(ctx context.Context, finished []models.MatchRecord) {
	set := ComputeBaselines(finished)
	if len(set) == 0 {
		return
	}

	e.mu.Lock()
	unchanged := e.baselines.Equal(set)
	if !unchanged {
		e.baselines = set
	}
	oldMessageID := e.baselineMessageID
	e.mu.Unlock()

	if unchanged {
		return
	}
	e.metrics.BaselineRefreshes.Inc()

	text := notify.BaselineTable(set)
	if text == "" {
		return
	}
	if oldMessageID != 0 {
		_ = e.notifier.Delete(ctx, oldMessageID)
	}
	messageID, err := e.notifier.Send(ctx, text)
	if err != nil {
		e.metrics.NotifyErrors.Inc()
		return
	}
	e.mu.Lock()
	e.baselineMessageID = messageID
	e.mu.Unlock()
	slog.Info("league baselines updated", "leagues", len(set))
}

// sendHourlySummary replaces the per-league scoreboard message with today's
// numbers.
func (e *Engine) sendHourlySummary(ctx context.Context) {
	e.mu.Lock()
	byFormat := e.tracker.DayCountsByFormat(e.now(), e.cfg.Location)
	oldMessageID := e.hourlyMessageID
	e.mu.Unlock()

	text := notify.HourlySummary(byFormat)
	if text == "" {
		slog.Info("no decided tips today, skipping hourly summary")
		return
	}

	if oldMessageID != 0 {
		_ = e.notifier.Delete(ctx, oldMessageID)
	}
	messageID, err := e.notifier.Send(ctx, text)
	if err != nil {
		e.metrics.NotifyErrors.Inc()
		return
	}
	e.mu.Lock()
	e.hourlyMessageID = messageID
	e.mu.Unlock()
	slog.Info("hourly league summary sent", "leagues", len(byFormat))
}

func (e *Engine) persistTip(ctx context.Context, tip *models.Tip) {
	if e.store == nil {
		return
	}
	if err := e.store.StoreTip(ctx, tip); err != nil {
		slog.Error("persist tip failed", "tip_id", tip.ID, "error", err)
	}
}
