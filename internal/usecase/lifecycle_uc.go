// File: internal/usecase/lifecycle_uc.go
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
	"telegram-group-warden/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const defaultDeletionWindow = time.Minute

// LifecycleUseCase schedules the two deferred moderation actions: ephemeral
// message deletion and the delayed kick of an unverified member. Scheduled
// jobs are never cancelled; each one re-reads its backing row at fire time
// and no-ops when the row was resolved in the meantime.
type LifecycleUseCase interface {
	ScheduleDeletion(ctx context.Context, chatID, userID int64, messageID int, flag model.MessageFlag, deleteAt time.Time) error
	// ScheduleKick warns-and-arms: upserts the pending step row and registers
	// the deferred kick, returning the job id stored on the row.
	ScheduleKick(ctx context.Context, chatID, userID int64, name model.StepName, reason string, warnMessageID int) (string, error)
	// RescheduleDeletion replaces any stale deletion record for an edited
	// message before arming a fresh one.
	RescheduleDeletion(ctx context.Context, chatID, userID int64, messageID int, flag model.MessageFlag, deleteAt time.Time) error
	// SweepOverdue deletes messages whose deadline passed while the process
	// was down. Called once on startup.
	SweepOverdue(ctx context.Context) (int, error)
}

type lifecycleUC struct {
	bot       adapter.BotClient
	queue     repository.DeferredQueue
	histories repository.MessageHistoryRepository
	steps     repository.StepHistoryRepository
	kickDelay time.Duration
	log       *zerolog.Logger
	now       func() time.Time
}

var _ LifecycleUseCase = (*lifecycleUC)(nil)

func NewLifecycleUseCase(
	bot adapter.BotClient,
	queue repository.DeferredQueue,
	histories repository.MessageHistoryRepository,
	steps repository.StepHistoryRepository,
	kickDelay time.Duration,
	log *zerolog.Logger,
) *lifecycleUC {
	if kickDelay <= 0 {
		kickDelay = time.Minute
	}
	return &lifecycleUC{
		bot:       bot,
		queue:     queue,
		histories: histories,
		steps:     steps,
		kickDelay: kickDelay,
		log:       log,
		now:       time.Now,
	}
}

func (u *lifecycleUC) ScheduleDeletion(ctx context.Context, chatID, userID int64, messageID int, flag model.MessageFlag, deleteAt time.Time) error {
	if deleteAt.IsZero() {
		deleteAt = u.now().Add(defaultDeletionWindow)
	}
	entry, err := model.NewMessageHistory(chatID, userID, messageID, flag, deleteAt)
	if err != nil {
		return fmt.Errorf("schedule deletion: %w", err)
	}
	if err := u.histories.Save(ctx, repository.NoTX, entry); err != nil {
		return fmt.Errorf("schedule deletion: %w", err)
	}
	_, err = u.queue.Schedule("delete-message", time.Until(deleteAt), func(jctx context.Context) error {
		u.deleteRecorded(jctx, chatID, messageID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule deletion: %w", err)
	}
	return nil
}

// deleteRecorded removes the message and its history row. Each half is
// isolated: a Telegram failure still clears the row, and vice versa.
func (u *lifecycleUC) deleteRecorded(ctx context.Context, chatID int64, messageID int) {
	if err := u.bot.DeleteMessage(ctx, chatID, messageID); err != nil {
		if domain.Recoverable(err) {
			u.log.Warn().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("deferred delete skipped")
		} else {
			u.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("deferred delete failed")
		}
	}
	if err := u.histories.DeleteByMessage(ctx, repository.NoTX, chatID, messageID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		u.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("history cleanup failed")
	}
}

func (u *lifecycleUC) RescheduleDeletion(ctx context.Context, chatID, userID int64, messageID int, flag model.MessageFlag, deleteAt time.Time) error {
	if err := u.histories.DeleteByMessage(ctx, repository.NoTX, chatID, messageID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("reschedule deletion: %w", err)
	}
	return u.ScheduleDeletion(ctx, chatID, userID, messageID, flag, deleteAt)
}

func (u *lifecycleUC) ScheduleKick(ctx context.Context, chatID, userID int64, name model.StepName, reason string, warnMessageID int) (string, error) {
	step, err := model.NewStepHistory(chatID, userID, name, reason)
	if err != nil {
		return "", fmt.Errorf("schedule kick: %w", err)
	}
	step.WarnMessageID = warnMessageID

	jobID, err := u.queue.Schedule("member-kick", u.kickDelay, func(jctx context.Context) error {
		u.kickIfStillPending(jctx, chatID, userID, name)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("schedule kick: %w", err)
	}
	step.JobID = jobID

	if err := u.steps.Save(ctx, repository.NoTX, step); err != nil {
		return "", fmt.Errorf("schedule kick: %w", err)
	}
	return jobID, nil
}

// kickIfStillPending is the deferred kick body. The step row decides: only a
// row still in need_verify leads to a kick.
func (u *lifecycleUC) kickIfStillPending(ctx context.Context, chatID, userID int64, name model.StepName) {
	step, err := u.steps.Find(ctx, repository.NoTX, chatID, userID, name)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("kick job: step lookup failed")
		}
		return
	}
	if !step.Pending() {
		u.log.Debug().Int64("chat_id", chatID).Int64("user_id", userID).Str("step", string(step.Name)).Msg("kick job: step already resolved")
		return
	}

	// Ban then unban: removes the member without a permanent ban.
	if err := u.bot.BanChatMember(ctx, chatID, userID, u.now().Add(defaultDeletionWindow)); err != nil {
		u.log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("kick job: ban failed")
		return
	}
	if err := u.bot.UnbanChatMember(ctx, chatID, userID); err != nil {
		u.log.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("kick job: unban failed")
	}
	if err := u.steps.UpdateStatus(ctx, repository.NoTX, chatID, userID, name, model.StepKicked); err != nil {
		u.log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("kick job: status update failed")
	}
	if step.WarnMessageID > 0 {
		if err := u.bot.DeleteMessage(ctx, chatID, step.WarnMessageID); err != nil {
			u.log.Debug().Err(err).Int64("chat_id", chatID).Int("message_id", step.WarnMessageID).Msg("kick job: warn cleanup skipped")
		}
	}
	metrics.IncMemberKick()
	u.log.Info().Int64("chat_id", chatID).Int64("user_id", userID).Str("step", string(name)).Msg("unverified member kicked")
}

func (u *lifecycleUC) SweepOverdue(ctx context.Context) (int, error) {
	due, err := u.histories.FindDue(ctx, repository.NoTX, u.now(), 200)
	if err != nil {
		return 0, fmt.Errorf("sweep overdue: %w", err)
	}
	for _, entry := range due {
		u.deleteRecorded(ctx, entry.ChatID, entry.MessageID)
	}
	return len(due), nil
}
