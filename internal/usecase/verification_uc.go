// File: internal/usecase/verification_uc.go
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

// VerificationUseCase runs the pre-task member checks and the verify-button
// flow. A check returning false means the update must not be processed
// further; the member has been warned, restricted and armed for a kick.
type VerificationUseCase interface {
	CheckUsername(ctx context.Context, rc *model.RequestContext) (bool, error)
	CheckProfilePhoto(ctx context.Context, rc *model.RequestContext) (bool, error)
	// VerifyPending re-evaluates the presser's pending steps and, when all
	// now pass, resolves them and lifts the restriction.
	VerifyPending(ctx context.Context, rc *model.RequestContext) (bool, error)
}

type verificationUC struct {
	settings  SettingsUseCase
	delivery  DeliveryUseCase
	lifecycle LifecycleUseCase
	priv      adapter.PrivilegeResolver
	bot       adapter.BotClient
	steps     repository.StepHistoryRepository
	kickDelay time.Duration
	log       *zerolog.Logger
	now       func() time.Time
}

var _ VerificationUseCase = (*verificationUC)(nil)

func NewVerificationUseCase(
	settings SettingsUseCase,
	delivery DeliveryUseCase,
	lifecycle LifecycleUseCase,
	priv adapter.PrivilegeResolver,
	bot adapter.BotClient,
	steps repository.StepHistoryRepository,
	kickDelay time.Duration,
	log *zerolog.Logger,
) *verificationUC {
	if kickDelay <= 0 {
		kickDelay = time.Minute
	}
	return &verificationUC{
		settings:  settings,
		delivery:  delivery,
		lifecycle: lifecycle,
		priv:      priv,
		bot:       bot,
		steps:     steps,
		kickDelay: kickDelay,
		log:       log,
		now:       time.Now,
	}
}

// exempt reports whether checks do not apply to this update at all:
// private chats, channels, sudoers, anonymous admins, chat admins, and any
// chat where the bot lacks the rights to enforce anything.
func (u *verificationUC) exempt(ctx context.Context, rc *model.RequestContext) (bool, error) {
	if rc.Chat == nil || rc.From == nil {
		return true, nil
	}
	if rc.IsPrivateChat() || rc.IsChannel() {
		return true, nil
	}
	if rc.IsSudo || rc.IsAnonymousAdmin {
		return true, nil
	}
	botAdmin, err := u.priv.IsBotAdmin(ctx, rc.ChatID())
	if err != nil {
		return true, fmt.Errorf("verification exempt: %w", err)
	}
	if !botAdmin {
		// Nothing enforceable without admin rights.
		return true, nil
	}
	isAdmin, err := u.priv.IsAdmin(ctx, rc.ChatID(), rc.FromID())
	if err != nil {
		return true, fmt.Errorf("verification exempt: %w", err)
	}
	return isAdmin, nil
}

func (u *verificationUC) CheckUsername(ctx context.Context, rc *model.RequestContext) (bool, error) {
	if rc.HasUsername {
		return true, nil
	}
	if skip, err := u.exempt(ctx, rc); skip || err != nil {
		return true, err
	}
	s, err := u.settings.GetByChat(ctx, rc.ChatID())
	if err != nil {
		return true, err
	}
	if !s.EnableWarnUsername {
		return true, nil
	}
	u.warnStep(ctx, rc, model.StepUsername,
		fmt.Sprintf("Hi %s!\nPlease set a Telegram username, then press the button below.", rc.From.FullName()),
		"member has no username")
	return false, nil
}

func (u *verificationUC) CheckProfilePhoto(ctx context.Context, rc *model.RequestContext) (bool, error) {
	if rc.IsCallback() {
		// The press itself is part of the verify flow.
		return true, nil
	}
	if skip, err := u.exempt(ctx, rc); skip || err != nil {
		return true, err
	}
	s, err := u.settings.GetByChat(ctx, rc.ChatID())
	if err != nil {
		return true, err
	}
	if !s.EnableHumanVerification {
		return true, nil
	}
	hasPhoto, err := u.bot.HasProfilePhoto(ctx, rc.FromID())
	if err != nil {
		u.log.Warn().Err(err).Int64("user_id", rc.FromID()).Msg("profile photo lookup failed")
		return true, nil
	}
	if hasPhoto {
		return true, nil
	}
	u.warnStep(ctx, rc, model.StepPhoto,
		fmt.Sprintf("Hi %s!\nPlease set a profile photo, then press the button below.", rc.From.FullName()),
		"member has no profile photo")
	return false, nil
}

// warnStep restricts the member, posts the warning with a verify button,
// replaces any previous warning for the same step and arms the deferred kick.
func (u *verificationUC) warnStep(ctx context.Context, rc *model.RequestContext, name model.StepName, text, reason string) {
	chatID, userID := rc.ChatID(), rc.FromID()

	u.delivery.Restrict(ctx, chatID, userID, u.now().Add(u.kickDelay), false)

	if prev, err := u.steps.Find(ctx, repository.NoTX, chatID, userID, name); err == nil && prev.Pending() && prev.WarnMessageID > 0 {
		u.delivery.Delete(ctx, chatID, prev.WarnMessageID)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		u.log.Warn().Err(err).Msg("previous warning lookup failed")
	}

	warn := u.delivery.Send(ctx, rc, text, SendOptions{
		ReplyTo: -1,
		Rows:    [][]model.InlineButton{{{Text: "Verify", Data: "verify"}}},
	})
	warnID := 0
	if warn != nil {
		warnID = warn.ID
	}

	if _, err := u.lifecycle.ScheduleKick(ctx, chatID, userID, name, reason, warnID); err != nil {
		u.log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("kick scheduling failed")
		return
	}
	metrics.IncWarnIssued(string(name))
	u.delivery.SendEventLog(ctx, rc, fmt.Sprintf("⚠️ Warned %s: %s", rc.From.FullName(), reason), false)
}

// stepSatisfied re-evaluates one requirement against current member state.
func (u *verificationUC) stepSatisfied(ctx context.Context, rc *model.RequestContext, name model.StepName) bool {
	switch name {
	case model.StepUsername:
		return rc.HasUsername
	case model.StepPhoto:
		hasPhoto, err := u.bot.HasProfilePhoto(ctx, rc.FromID())
		if err != nil {
			u.log.Warn().Err(err).Int64("user_id", rc.FromID()).Msg("profile photo lookup failed")
			return false
		}
		return hasPhoto
	case model.StepHumanVerification:
		// Pressing the button is the proof.
		return true
	default:
		return false
	}
}

func (u *verificationUC) VerifyPending(ctx context.Context, rc *model.RequestContext) (bool, error) {
	chatID, userID := rc.ChatID(), rc.FromID()
	pending, err := u.steps.FindPending(ctx, repository.NoTX, chatID, userID)
	if err != nil {
		return false, fmt.Errorf("verify pending: %w", err)
	}
	if len(pending) == 0 {
		return true, nil
	}

	for _, step := range pending {
		if !u.stepSatisfied(ctx, rc, step.Name) {
			return false, domain.ErrVerifyIncomplete
		}
	}

	for _, step := range pending {
		if err := u.steps.UpdateStatus(ctx, repository.NoTX, chatID, userID, step.Name, model.StepVerified); err != nil {
			return false, fmt.Errorf("verify pending: %w", err)
		}
		if step.WarnMessageID > 0 {
			u.delivery.Delete(ctx, chatID, step.WarnMessageID)
		}
	}

	u.delivery.Restrict(ctx, chatID, userID, time.Time{}, true)
	metrics.IncVerification()
	u.delivery.SendEventLog(ctx, rc, fmt.Sprintf("✅ %s verified", rc.From.FullName()), false)
	return true, nil
}
