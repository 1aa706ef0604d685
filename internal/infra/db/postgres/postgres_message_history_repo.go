package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/repository"
)

var _ repository.MessageHistoryRepository = (*PostgresMessageHistoryRepo)(nil)

type PostgresMessageHistoryRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageHistoryRepo(pool *pgxpool.Pool) *PostgresMessageHistoryRepo {
	return &PostgresMessageHistoryRepo{pool: pool}
}

func (r *PostgresMessageHistoryRepo) Save(ctx context.Context, tx repository.Tx, h *model.MessageHistory) error {
	const q = `
INSERT INTO message_histories (
  id, chat_id, user_id, message_id, flag, delete_at, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
) ON CONFLICT (chat_id, message_id) DO UPDATE SET
  user_id=$3, flag=$5, delete_at=$6;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, h.ID, h.ChatID, h.UserID, h.MessageID, h.Flag, h.DeleteAt, h.CreatedAt)
	return err
}

func (r *PostgresMessageHistoryRepo) FindByMessage(ctx context.Context, tx repository.Tx, chatID int64, messageID int) (*model.MessageHistory, error) {
	const q = `
SELECT id, chat_id, user_id, message_id, flag, delete_at, created_at
  FROM message_histories WHERE chat_id=$1 AND message_id=$2;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var h model.MessageHistory
	err = ex.QueryRow(ctx, q, chatID, messageID).Scan(&h.ID, &h.ChatID, &h.UserID, &h.MessageID, &h.Flag, &h.DeleteAt, &h.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *PostgresMessageHistoryRepo) DeleteByMessage(ctx context.Context, tx repository.Tx, chatID int64, messageID int) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM message_histories WHERE chat_id=$1 AND message_id=$2;`, chatID, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageHistoryRepo) FindDue(ctx context.Context, tx repository.Tx, until time.Time, limit int) ([]*model.MessageHistory, error) {
	const q = `
SELECT id, chat_id, user_id, message_id, flag, delete_at, created_at
  FROM message_histories WHERE delete_at <= $1
  ORDER BY delete_at ASC LIMIT $2;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, until, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.MessageHistory
	for rows.Next() {
		var h model.MessageHistory
		if err := rows.Scan(&h.ID, &h.ChatID, &h.UserID, &h.MessageID, &h.Flag, &h.DeleteAt, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}
