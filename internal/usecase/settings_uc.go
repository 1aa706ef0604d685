// File: internal/usecase/settings_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/adapter"
	"telegram-group-warden/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// SettingsUseCase owns per-chat configuration. Reads go through the cached
// repository decorator; any write invalidates the chat's cache entry.
type SettingsUseCase interface {
	GetByChat(ctx context.Context, chatID int64) (*model.ChatSetting, error)
	// Ensure refreshes the stored chat title, type and bot-admin flag from
	// the current request. Runs in the background after every group update.
	Ensure(ctx context.Context, rc *model.RequestContext) error
	SetToggle(ctx context.Context, chatID int64, key model.SettingKey, enabled bool) error
	// Buttons renders the toggle matrix as inline-keyboard rows.
	Buttons(ctx context.Context, chatID int64) ([][]model.InlineButton, error)
}

type settingsUC struct {
	repo repository.SettingsRepository
	tm   repository.TransactionManager
	priv adapter.PrivilegeResolver
	log  *zerolog.Logger
	now  func() time.Time
}

var _ SettingsUseCase = (*settingsUC)(nil)

func NewSettingsUseCase(repo repository.SettingsRepository, tm repository.TransactionManager, priv adapter.PrivilegeResolver, log *zerolog.Logger) *settingsUC {
	return &settingsUC{repo: repo, tm: tm, priv: priv, log: log, now: time.Now}
}

func (u *settingsUC) GetByChat(ctx context.Context, chatID int64) (*model.ChatSetting, error) {
	s, err := u.repo.FindByChat(ctx, repository.NoTX, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &model.ChatSetting{ChatID: chatID}, nil
		}
		return nil, err
	}
	return s, nil
}

func (u *settingsUC) Ensure(ctx context.Context, rc *model.RequestContext) error {
	if rc.Chat == nil || !rc.IsGroupChat() {
		return nil
	}
	s, err := u.GetByChat(ctx, rc.ChatID())
	if err != nil {
		return fmt.Errorf("settings ensure: %w", err)
	}
	botAdmin, err := u.priv.IsBotAdmin(ctx, rc.ChatID())
	if err != nil {
		u.log.Warn().Err(err).Int64("chat_id", rc.ChatID()).Msg("bot admin lookup failed")
		botAdmin = s.IsBotAdmin
	}

	changed := s.ChatTitle != rc.Chat.Title || s.ChatType != rc.Chat.Type || s.IsBotAdmin != botAdmin
	if !changed && !s.CreatedAt.IsZero() {
		return nil
	}

	s.ChatTitle = rc.Chat.Title
	s.ChatType = rc.Chat.Type
	s.IsBotAdmin = botAdmin
	if s.CreatedAt.IsZero() {
		s.CreatedAt = u.now()
	}
	s.UpdatedAt = u.now()
	if err := u.repo.Save(ctx, repository.NoTX, s); err != nil {
		return fmt.Errorf("settings ensure: %w", err)
	}
	return nil
}

// SetToggle flips one column. The ensure-then-update pair runs inside a
// single transaction so a concurrent flip on a fresh chat cannot insert the
// row twice or lose the other writer's column.
func (u *settingsUC) SetToggle(ctx context.Context, chatID int64, key model.SettingKey, enabled bool) error {
	if !model.ValidSettingKey(key) {
		return domain.ErrInvalidSettingKey
	}
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		s, err := u.repo.FindByChat(ctx, tx, chatID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			s = &model.ChatSetting{ChatID: chatID}
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = u.now()
			s.UpdatedAt = s.CreatedAt
			s.SetToggle(key, enabled)
			return u.repo.Save(ctx, tx, s)
		}
		return u.repo.UpdateToggle(ctx, tx, chatID, key, enabled)
	})
}

func (u *settingsUC) Buttons(ctx context.Context, chatID int64) ([][]model.InlineButton, error) {
	s, err := u.GetByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	rows := make([][]model.InlineButton, 0, len(model.SettingKeys))
	for _, key := range model.SettingKeys {
		mark := "❌"
		next := "on"
		if s.Toggle(key) {
			mark = "✅"
			next = "off"
		}
		rows = append(rows, []model.InlineButton{{
			Text: fmt.Sprintf("%s %s", mark, key),
			Data: fmt.Sprintf("setting %s %s", key, next),
		}})
	}
	return rows, nil
}
