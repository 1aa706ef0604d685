package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/repository"
)

var _ repository.StepHistoryRepository = (*PostgresStepHistoryRepo)(nil)

type PostgresStepHistoryRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresStepHistoryRepo(pool *pgxpool.Pool) *PostgresStepHistoryRepo {
	return &PostgresStepHistoryRepo{pool: pool}
}

func (r *PostgresStepHistoryRepo) Save(ctx context.Context, tx repository.Tx, s *model.StepHistory) error {
	const q = `
INSERT INTO step_histories (
  id, chat_id, user_id, name, status, reason, warn_message_id, job_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (chat_id, user_id, name) DO UPDATE SET
  status=$5, reason=$6, warn_message_id=$7, job_id=$8, updated_at=$10;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, s.ID, s.ChatID, s.UserID, s.Name, s.Status, s.Reason, s.WarnMessageID, s.JobID, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *PostgresStepHistoryRepo) Find(ctx context.Context, tx repository.Tx, chatID, userID int64, name model.StepName) (*model.StepHistory, error) {
	const q = `
SELECT id, chat_id, user_id, name, status, reason, warn_message_id, job_id, created_at, updated_at
  FROM step_histories WHERE chat_id=$1 AND user_id=$2 AND name=$3;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var s model.StepHistory
	err = ex.QueryRow(ctx, q, chatID, userID, name).Scan(
		&s.ID, &s.ChatID, &s.UserID, &s.Name, &s.Status, &s.Reason, &s.WarnMessageID, &s.JobID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresStepHistoryRepo) FindPending(ctx context.Context, tx repository.Tx, chatID, userID int64) ([]*model.StepHistory, error) {
	const q = `
SELECT id, chat_id, user_id, name, status, reason, warn_message_id, job_id, created_at, updated_at
  FROM step_histories WHERE chat_id=$1 AND user_id=$2 AND status=$3
  ORDER BY created_at ASC;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, chatID, userID, model.StepNeedVerify)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.StepHistory
	for rows.Next() {
		var s model.StepHistory
		if err := rows.Scan(&s.ID, &s.ChatID, &s.UserID, &s.Name, &s.Status, &s.Reason, &s.WarnMessageID, &s.JobID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *PostgresStepHistoryRepo) UpdateStatus(ctx context.Context, tx repository.Tx, chatID, userID int64, name model.StepName, status model.StepStatus) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx,
		`UPDATE step_histories SET status=$1, updated_at=NOW() WHERE chat_id=$2 AND user_id=$3 AND name=$4;`,
		status, chatID, userID, name,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
