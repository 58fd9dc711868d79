package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rwtips/tipster/internal/pkg/models"
)

// Options configures the upstream feed client.
type Options struct {
	LiveURL    string
	HistoryURL string
	H2HURL     string // template with {player1} and {player2} placeholders
	AuthToken  string // bearer token for the history feed

	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
	RatePerSec   float64 // upstream request budget; 0 disables limiting
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Timeout <= 0 {
		out.Timeout = 15 * time.Second
	}
	if out.Retries <= 0 {
		out.Retries = 3
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = 2 * time.Second
	}
	return out
}

// Client fetches live events, finished matches and head-to-head summaries.
// Every call retries transient failures up to the configured budget and then
// reports the error; callers degrade to "skip this cycle" rather than abort.
type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a feed client.
func NewClient(opts Options) *Client {
	o := opts.withDefaults()
	var limiter *rate.Limiter
	if o.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.RatePerSec), 2)
	}
	return &Client{
		opts:       o,
		httpClient: &http.Client{Timeout: o.Timeout},
		limiter:    limiter,
	}
}

// Upstream wire shapes. The feeds are Brazilian-hosted and keep Portuguese
// field names; the normalizer maps them to the canonical records.

type liveResponse struct {
	Events []liveEventPayload `json:"events"`
}

type liveEventPayload struct {
	ID             json.Number `json:"id"`
	LeagueName     string      `json:"leagueName"`
	HomePlayer     string      `json:"homePlayer"`
	AwayPlayer     string      `json:"awayPlayer"`
	Bet365EventID  string      `json:"bet365EventId"`
	Timer          timerInfo   `json:"timer"`
	Score          scoreInfo   `json:"score"`
}

type timerInfo struct {
	Minute    int    `json:"minute"`
	Second    int    `json:"second"`
	Formatted string `json:"formatted"`
}

type scoreInfo struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type historyResponse struct {
	Partidas []finishedMatchPayload `json:"partidas"`
}

type finishedMatchPayload struct {
	ID              int64  `json:"id"`
	LeagueName      string `json:"league_name"`
	HomePlayer      string `json:"home_player"`
	AwayPlayer      string `json:"away_player"`
	HomeTeam        string `json:"home_team"`
	AwayTeam        string `json:"away_team"`
	DataRealizacao  string `json:"data_realizacao"`
	HalftimeHome    *int   `json:"halftime_score_home"`
	HalftimeAway    *int   `json:"halftime_score_away"`
	ScoreHome       *int   `json:"score_home"`
	ScoreAway       *int   `json:"score_away"`
}

type h2hResponse struct {
	TotalMatches  int     `json:"total_matches"`
	AvgTotalGoals float64 `json:"avg_total_goals"`
	BTTSPct       float64 `json:"btts_pct"`
}

// LiveEvents fetches the in-progress matches and normalizes them.
func (c *Client) LiveEvents(ctx context.Context) ([]models.LiveEvent, error) {
	var resp liveResponse
	if err := c.getJSON(ctx, c.opts.LiveURL, "", &resp); err != nil {
		return nil, fmt.Errorf("live events: %w", err)
	}

	events := make([]models.LiveEvent, 0, len(resp.Events))
	for _, e := range resp.Events {
		events = append(events, models.LiveEvent{
			ID:              e.ID.String(),
			LeagueName:      e.LeagueName,
			Format:          models.CanonicalizeLeague(e.LeagueName),
			HomePlayer:      e.HomePlayer,
			AwayPlayer:      e.AwayPlayer,
			HomeGoals:       e.Score.Home,
			AwayGoals:       e.Score.Away,
			ElapsedSeconds:  e.Timer.Minute*60 + e.Timer.Second,
			TimerFormatted:  e.Timer.Formatted,
			ExternalEventID: e.Bet365EventID,
		})
	}
	return events, nil
}

// FinishedMatches fetches one page of the finished-match history and
// normalizes it into MatchRecords, most recent first as the feed delivers.
func (c *Client) FinishedMatches(ctx context.Context, page, pageSize int) ([]models.MatchRecord, error) {
	u, err := url.Parse(c.opts.HistoryURL)
	if err != nil {
		return nil, fmt.Errorf("history url: %w", err)
	}
	q := u.Query()
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(pageSize))
	u.RawQuery = q.Encode()

	var resp historyResponse
	if err := c.getJSON(ctx, u.String(), c.opts.AuthToken, &resp); err != nil {
		return nil, fmt.Errorf("finished matches: %w", err)
	}

	return c.normalizeMatches(resp.Partidas), nil
}

func (c *Client) normalizeMatches(payloads []finishedMatchPayload) []models.MatchRecord {
	records := make([]models.MatchRecord, 0, len(payloads))
	for _, p := range payloads {
		realized, err := parseRealizedAt(p.DataRealizacao)
		if err != nil {
			slog.Warn("dropping finished match with unparseable timestamp",
				"match_id", p.ID, "value", p.DataRealizacao)
			continue
		}
		records = append(records, models.MatchRecord{
			ID:          p.ID,
			LeagueName:  p.LeagueName,
			Format:      models.CanonicalizeLeague(p.LeagueName),
			HomePlayer:  p.HomePlayer,
			AwayPlayer:  p.AwayPlayer,
			HomeTeam:    p.HomeTeam,
			AwayTeam:    p.AwayTeam,
			HomeScoreHT: deref(p.HalftimeHome),
			AwayScoreHT: deref(p.HalftimeAway),
			HomeScoreFT: deref(p.ScoreHome),
			AwayScoreFT: deref(p.ScoreAway),
			RealizedAt:  realized,
		})
	}
	return records
}

// PlayerMatches fetches the named player's most recent finished matches,
// newest first. The endpoint is the history feed filtered server-side by
// player name; it serves anonymously, so no bearer token is sent.
func (c *Client) PlayerMatches(ctx context.Context, player string, limit int) ([]models.MatchRecord, error) {
	u, err := url.Parse(c.opts.HistoryURL)
	if err != nil {
		return nil, fmt.Errorf("history url: %w", err)
	}
	q := u.Query()
	q.Set("jogador", player)
	q.Set("limit", fmt.Sprint(limit))
	q.Set("page", "1")
	u.RawQuery = q.Encode()

	var resp historyResponse
	if err := c.getJSON(ctx, u.String(), "", &resp); err != nil {
		return nil, fmt.Errorf("player matches %s: %w", player, err)
	}
	return c.normalizeMatches(resp.Partidas), nil
}

// H2H fetches the head-to-head summary for a player pair. A missing or
// failing H2H feed is tolerable: callers treat nil as "no history".
func (c *Client) H2H(ctx context.Context, player1, player2 string) (*models.H2HSummary, error) {
	if c.opts.H2HURL == "" {
		return nil, nil
	}
	u := strings.NewReplacer(
		"{player1}", url.PathEscape(player1),
		"{player2}", url.PathEscape(player2),
	).Replace(c.opts.H2HURL)

	var resp h2hResponse
	if err := c.getJSON(ctx, u, "", &resp); err != nil {
		return nil, fmt.Errorf("h2h %s vs %s: %w", player1, player2, err)
	}
	return &models.H2HSummary{
		TotalMatches:  resp.TotalMatches,
		AvgTotalGoals: resp.AvgTotalGoals,
		BTTSPct:       resp.BTTSPct,
	}, nil
}

// getJSON performs a GET with retry on transport errors and 5xx responses.
func (c *Client) getJSON(ctx context.Context, rawURL, bearer string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.opts.Retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = c.doGetJSON(ctx, rawURL, bearer, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		slog.Warn("feed request failed",
			"url", rawURL, "attempt", attempt, "retries", c.opts.Retries, "error", lastErr)
		if attempt < c.opts.Retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.opts.RetryBackoff):
			}
		}
	}
	return lastErr
}

func (c *Client) doGetJSON(ctx context.Context, rawURL, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimPrefix(bearer, "Bearer "))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseRealizedAt accepts RFC3339 with or without an explicit offset; bare
// timestamps are taken as UTC, matching the history feed's behaviour.
func parseRealizedAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	s = strings.Replace(s, "Z", "+00:00", 1)
	if t, err := time.Parse("2006-01-02T15:04:05-07:00", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
