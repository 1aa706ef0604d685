package repository

import (
	"context"

	"telegram-group-warden/internal/domain/model"
)

// -----------------------------
// Chat settings
// -----------------------------

type SettingsRepository interface {
	FindByChat(ctx context.Context, tx Tx, chatID int64) (*model.ChatSetting, error)
	// Save upserts the full row keyed by chat id.
	Save(ctx context.Context, tx Tx, s *model.ChatSetting) error
	// UpdateToggle flips a single switch without rewriting the row.
	UpdateToggle(ctx context.Context, tx Tx, chatID int64, key model.SettingKey, enabled bool) error
}
