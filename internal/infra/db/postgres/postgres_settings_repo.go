package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*PostgresSettingsRepo)(nil)

// settingColumns maps toggle keys to their column names. UpdateToggle builds
// SQL from this map only, never from caller input.
var settingColumns = map[model.SettingKey]string{
	model.SettingWarnUsername:      "enable_warn_username",
	model.SettingHumanVerification: "enable_human_verification",
	model.SettingEventLog:          "enable_event_log",
	model.SettingCleanupCommand:    "enable_cleanup_command",
}

type PostgresSettingsRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSettingsRepo(pool *pgxpool.Pool) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{pool: pool}
}

func (r *PostgresSettingsRepo) FindByChat(ctx context.Context, tx repository.Tx, chatID int64) (*model.ChatSetting, error) {
	const q = `
SELECT chat_id, chat_title, chat_type, is_bot_admin, event_log_chat_id,
       enable_warn_username, enable_human_verification, enable_event_log, enable_cleanup_command,
       created_at, updated_at
  FROM chat_settings WHERE chat_id=$1;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var s model.ChatSetting
	err = ex.QueryRow(ctx, q, chatID).Scan(
		&s.ChatID, &s.ChatTitle, &s.ChatType, &s.IsBotAdmin, &s.EventLogChatID,
		&s.EnableWarnUsername, &s.EnableHumanVerification, &s.EnableEventLog, &s.EnableCleanupCommand,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.ChatSetting) error {
	const q = `
INSERT INTO chat_settings (
  chat_id, chat_title, chat_type, is_bot_admin, event_log_chat_id,
  enable_warn_username, enable_human_verification, enable_event_log, enable_cleanup_command,
  created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (chat_id) DO UPDATE SET
  chat_title=$2, chat_type=$3, is_bot_admin=$4, event_log_chat_id=$5,
  enable_warn_username=$6, enable_human_verification=$7, enable_event_log=$8, enable_cleanup_command=$9,
  updated_at=$11;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		s.ChatID, s.ChatTitle, s.ChatType, s.IsBotAdmin, s.EventLogChatID,
		s.EnableWarnUsername, s.EnableHumanVerification, s.EnableEventLog, s.EnableCleanupCommand,
		s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *PostgresSettingsRepo) UpdateToggle(ctx context.Context, tx repository.Tx, chatID int64, key model.SettingKey, enabled bool) error {
	col, ok := settingColumns[key]
	if !ok {
		return domain.ErrInvalidSettingKey
	}
	q := fmt.Sprintf(`UPDATE chat_settings SET %s=$1, updated_at=NOW() WHERE chat_id=$2;`, col)
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, enabled, chatID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
