package repository

import (
	"context"

	"telegram-group-warden/internal/domain/model"
)

// -----------------------------
// Verification step history
// -----------------------------

type StepHistoryRepository interface {
	// Save upserts on (chat_id, user_id, name).
	Save(ctx context.Context, tx Tx, s *model.StepHistory) error
	Find(ctx context.Context, tx Tx, chatID, userID int64, name model.StepName) (*model.StepHistory, error)
	FindPending(ctx context.Context, tx Tx, chatID, userID int64) ([]*model.StepHistory, error)
	UpdateStatus(ctx context.Context, tx Tx, chatID, userID int64, name model.StepName, status model.StepStatus) error
}
