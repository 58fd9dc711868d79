package storage

import (
	"context"

	"github.com/rwtips/tipster/internal/pkg/models"
)

// TipStore persists the tip lifecycle for audit and restart-survivable
// reporting. The engine treats it as optional: a nil store disables
// persistence without changing any decision behaviour.
type TipStore interface {
	// StoreTip inserts a freshly emitted tip.
	StoreTip(ctx context.Context, tip *models.Tip) error

	// UpdateTipStatus records a settlement outcome.
	UpdateTipStatus(ctx context.Context, tip *models.Tip) error

	// LoadOpenTips returns tips still pending, for warm restarts.
	LoadOpenTips(ctx context.Context) ([]*models.Tip, error)

	// Close closes the database connection.
	Close() error
}
