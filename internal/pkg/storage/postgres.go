package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/rwtips/tipster/internal/pkg/models"
)

// Ensure PostgresTipStore implements TipStore
var _ TipStore = (*PostgresTipStore)(nil)

// PostgresTipStore stores tips in PostgreSQL.
type PostgresTipStore struct {
	db *sql.DB
}

// NewPostgresTipStore opens the connection, verifies it and initializes the
// schema.
func NewPostgresTipStore(dsn string) (*PostgresTipStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresTipStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	slog.Info("postgres tip store initialized")
	return store, nil
}

func (s *PostgresTipStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS tips (
		id UUID PRIMARY KEY,
		event_id VARCHAR(100) NOT NULL,
		league_format VARCHAR(50) NOT NULL,
		market_key VARCHAR(100) NOT NULL,
		label VARCHAR(200) NOT NULL,
		confidence DECIMAL(5, 1) NOT NULL,
		home_player VARCHAR(200) NOT NULL,
		away_player VARCHAR(200) NOT NULL,
		status VARCHAR(20) NOT NULL,
		message_id INTEGER NOT NULL DEFAULT 0,
		message_text TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		settled_at TIMESTAMPTZ,
		UNIQUE(event_id, market_key)
	);

	CREATE INDEX IF NOT EXISTS idx_tips_status ON tips(status);
	CREATE INDEX IF NOT EXISTS idx_tips_created_at ON tips(created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreTip inserts an emitted tip. Replays of the same event/market pair are
// ignored; the in-memory dedup set is the source of truth while running.
func (s *PostgresTipStore) StoreTip(ctx context.Context, tip *models.Tip) error {
	query := `
	INSERT INTO tips (id, event_id, league_format, market_key, label, confidence,
		home_player, away_player, status, message_id, message_text, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (event_id, market_key) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		tip.ID, tip.EventID, tip.Format.String(), tip.Market.Key(), tip.Label,
		tip.Confidence, tip.HomePlayer, tip.AwayPlayer, string(tip.Status),
		tip.MessageID, tip.MessageText, tip.CreatedAt)
	if err != nil {
		return fmt.Errorf("store tip %s: %w", tip.ID, err)
	}
	return nil
}

// UpdateTipStatus records a settlement outcome.
func (s *PostgresTipStore) UpdateTipStatus(ctx context.Context, tip *models.Tip) error {
	query := `UPDATE tips SET status = $1, settled_at = $2 WHERE id = $3`
	_, err := s.db.ExecContext(ctx, query, string(tip.Status), tip.SettledAt, tip.ID)
	if err != nil {
		return fmt.Errorf("update tip %s: %w", tip.ID, err)
	}
	return nil
}

// LoadOpenTips returns tips still pending, most recent first.
func (s *PostgresTipStore) LoadOpenTips(ctx context.Context) ([]*models.Tip, error) {
	query := `
	SELECT id, event_id, league_format, market_key, label, confidence,
		home_player, away_player, status, message_id, message_text, created_at
	FROM tips
	WHERE status = $1
	ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("load open tips: %w", err)
	}
	defer rows.Close()

	var tips []*models.Tip
	for rows.Next() {
		var (
			tip       models.Tip
			format    string
			marketKey string
			status    string
		)
		if err := rows.Scan(&tip.ID, &tip.EventID, &format, &marketKey,
			&tip.Label, &tip.Confidence, &tip.HomePlayer, &tip.AwayPlayer,
			&status, &tip.MessageID, &tip.MessageText, &tip.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tip row: %w", err)
		}
		market, err := models.ParseMarketKey(marketKey)
		if err != nil {
			slog.Warn("skipping stored tip with unknown market", "tip_id", tip.ID, "market_key", marketKey)
			continue
		}
		tip.Market = market
		tip.Format = models.FormatFromLabel(format)
		tip.Status = models.TipStatus(status)
		tips = append(tips, &tip)
	}
	return tips, rows.Err()
}

// Close closes the database connection.
func (s *PostgresTipStore) Close() error {
	return s.db.Close()
}
