package repository

import (
	"context"
	"time"

	"telegram-group-warden/internal/domain/model"
)

// -----------------------------
// Message history (scheduled deletions)
// -----------------------------

type MessageHistoryRepository interface {
	Save(ctx context.Context, tx Tx, h *model.MessageHistory) error
	FindByMessage(ctx context.Context, tx Tx, chatID int64, messageID int) (*model.MessageHistory, error)
	DeleteByMessage(ctx context.Context, tx Tx, chatID int64, messageID int) error
	// FindDue lists entries whose deletion time has passed, for the
	// catch-up sweep after a restart.
	FindDue(ctx context.Context, tx Tx, until time.Time, limit int) ([]*model.MessageHistory, error)
}
