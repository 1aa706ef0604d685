package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/adapter"
	"telegram-group-warden/internal/infra/logging"
	"telegram-group-warden/internal/usecase"
)

// BotFacade composes the use cases into the per-update pipeline: normalize,
// guard, run the awaited pre-task checks, then route commands and callbacks.
type BotFacade struct {
	builder      usecase.ContextBuilder
	settings     usecase.SettingsUseCase
	delivery     usecase.DeliveryUseCase
	verification usecase.VerificationUseCase
	callback     usecase.CallbackUseCase
	lifecycle    usecase.LifecycleUseCase
	priv         adapter.PrivilegeResolver
	bg           adapter.BackgroundRunner

	// staleUpdateAge drops messages that sat in the queue through an outage;
	// answering them a restart later only confuses the chat.
	staleUpdateAge time.Duration

	log *zerolog.Logger
	now func() time.Time
}

func NewBotFacade(
	builder usecase.ContextBuilder,
	settings usecase.SettingsUseCase,
	delivery usecase.DeliveryUseCase,
	verification usecase.VerificationUseCase,
	callback usecase.CallbackUseCase,
	lifecycle usecase.LifecycleUseCase,
	priv adapter.PrivilegeResolver,
	bg adapter.BackgroundRunner,
	staleUpdateAge time.Duration,
	logger *zerolog.Logger,
) *BotFacade {
	if staleUpdateAge <= 0 {
		staleUpdateAge = 5 * time.Minute
	}
	return &BotFacade{
		builder:        builder,
		settings:       settings,
		delivery:       delivery,
		verification:   verification,
		callback:       callback,
		lifecycle:      lifecycle,
		priv:           priv,
		bg:             bg,
		staleUpdateAge: staleUpdateAge,
		log:            logger,
		now:            time.Now,
	}
}

// HandleUpdate runs the full pipeline for one update. Errors are handled and
// logged inside; the poller only sees a failure when the pipeline itself is
// broken, not when Telegram misbehaves.
func (f *BotFacade) HandleUpdate(ctx context.Context, upd *model.Update) error {
	rc := f.builder.Build(upd)
	if rc.Chat == nil {
		f.log.Debug().Int("update_id", upd.ID).Msg("update carries no chat, skipped")
		return nil
	}

	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithChatID(ctx, rc.ChatID())
	if rc.From != nil {
		ctx = logging.WithUserID(ctx, rc.From.ID)
	}
	log := logging.With(ctx, f.log)

	if rc.CallbackQuery == nil && !rc.MessageDate.IsZero() && f.now().Sub(rc.MessageDate) > f.staleUpdateAge {
		log.Debug().Time("message_date", rc.MessageDate).Msg("stale update skipped")
		return nil
	}

	// Post-task: keep the settings row fresh without blocking the handler.
	if err := f.bg.Submit(func(taskCtx context.Context) error {
		return f.settings.Ensure(taskCtx, rc)
	}); err != nil {
		log.Warn().Err(err).Msg("settings refresh dropped")
	}

	// Awaited pre-task checks. A failed check already issued the warning and
	// armed the kick window; the update goes no further.
	if ok, err := f.verification.CheckUsername(ctx, rc); err != nil {
		log.Error().Err(err).Msg("username check failed")
	} else if !ok {
		return nil
	}
	if ok, err := f.verification.CheckProfilePhoto(ctx, rc); err != nil {
		log.Error().Err(err).Msg("profile photo check failed")
	} else if !ok {
		return nil
	}

	if rc.IsCallback() {
		f.routeCallback(ctx, rc, log)
		return nil
	}
	if rc.Command != "" {
		f.routeCommand(ctx, rc, log)
		return nil
	}
	return nil
}

func (f *BotFacade) routeCallback(ctx context.Context, rc *model.RequestContext, log *zerolog.Logger) {
	data := rc.CallbackQuery.Data
	switch {
	case data == "verify":
		f.handleVerifyCallback(ctx, rc, log)
	case strings.HasPrefix(data, "setting "):
		f.handleSettingCallback(ctx, rc, data, log)
	default:
		log.Debug().Str("data", data).Msg("unrouted callback answered")
		f.callback.Dispatch(ctx, rc, model.CallbackAnswer{
			Modes: []model.CallbackAnswerMode{model.AnswerCallback},
		})
	}
}

func (f *BotFacade) handleVerifyCallback(ctx context.Context, rc *model.RequestContext, log *zerolog.Logger) {
	ok, err := f.verification.VerifyPending(ctx, rc)
	if err != nil && !errors.Is(err, domain.ErrVerifyIncomplete) {
		log.Error().Err(err).Msg("verify callback failed")
	}
	if ok {
		f.callback.Dispatch(ctx, rc, model.CallbackAnswer{
			Modes: []model.CallbackAnswerMode{model.AnswerCallback, model.AnswerDeleteMessage},
			Text:  "Verified, welcome aboard!",
		})
		return
	}
	f.callback.Dispatch(ctx, rc, model.CallbackAnswer{
		Modes:     []model.CallbackAnswerMode{model.AnswerCallback},
		Text:      "Not done yet. Complete the step first, then press Verify again.",
		ShowAlert: true,
	})
}

// handleSettingCallback flips one toggle from the settings panel and redraws
// the panel in place. Data format: "setting <key> <on|off>".
func (f *BotFacade) handleSettingCallback(ctx context.Context, rc *model.RequestContext, data string, log *zerolog.Logger) {
	isAdmin, err := f.priv.IsAdmin(ctx, rc.ChatID(), rc.FromID())
	if err != nil {
		log.Error().Err(err).Msg("admin check failed")
		return
	}
	if !isAdmin && !rc.IsSudo {
		f.callback.Dispatch(ctx, rc, model.CallbackAnswer{
			Modes:     []model.CallbackAnswerMode{model.AnswerCallback},
			Text:      "Only admins can change settings.",
			ShowAlert: true,
		})
		return
	}

	parts := strings.Fields(data)
	if len(parts) != 3 {
		log.Warn().Str("data", data).Msg("malformed setting callback")
		return
	}
	key := model.SettingKey(parts[1])
	enabled := parts[2] == "on"

	if err := f.settings.SetToggle(ctx, rc.ChatID(), key, enabled); err != nil {
		log.Error().Err(err).Str("key", string(key)).Msg("toggle update failed")
		f.callback.Dispatch(ctx, rc, model.CallbackAnswer{
			Modes:     []model.CallbackAnswerMode{model.AnswerCallback},
			Text:      "Could not update that setting.",
			ShowAlert: true,
		})
		return
	}

	rows, err := f.settings.Buttons(ctx, rc.ChatID())
	if err != nil {
		log.Error().Err(err).Msg("settings panel rebuild failed")
		return
	}
	f.callback.Dispatch(ctx, rc, model.CallbackAnswer{
		Modes: []model.CallbackAnswerMode{model.AnswerCallback, model.AnswerEditMessage},
		Text:  fmt.Sprintf("%s is now %s.", key, onOff(enabled)),
		Rows:  rows,
	})
}

func (f *BotFacade) routeCommand(ctx context.Context, rc *model.RequestContext, log *zerolog.Logger) {
	switch rc.Command {
	case "ping":
		f.handlePing(ctx, rc)
	case "settings":
		f.handleSettings(ctx, rc, log)
	default:
		log.Debug().Str("command", rc.Command).Msg("unknown command ignored")
		return
	}
	f.cleanupCommand(ctx, rc, log)
}

func (f *BotFacade) handlePing(ctx context.Context, rc *model.RequestContext) {
	f.delivery.Send(ctx, rc, "Pong!", usecase.SendOptions{
		ScheduleDeleteAt: f.now().Add(time.Minute),
		IncludeSender:    true,
	})
}

func (f *BotFacade) handleSettings(ctx context.Context, rc *model.RequestContext, log *zerolog.Logger) {
	if !rc.IsGroupChat() {
		f.delivery.Send(ctx, rc, "Settings only apply to group chats.", usecase.SendOptions{})
		return
	}
	isAdmin, err := f.priv.IsAdmin(ctx, rc.ChatID(), rc.FromID())
	if err != nil {
		log.Error().Err(err).Msg("admin check failed")
		return
	}
	if !isAdmin && !rc.IsSudo {
		f.delivery.Send(ctx, rc, "Only admins can open the settings panel.", usecase.SendOptions{
			ScheduleDeleteAt: f.now().Add(time.Minute),
			IncludeSender:    true,
		})
		return
	}

	rows, err := f.settings.Buttons(ctx, rc.ChatID())
	if err != nil {
		log.Error().Err(err).Msg("settings panel build failed")
		return
	}
	f.delivery.Send(ctx, rc, "<b>Chat settings</b>\nPress a row to flip it.", usecase.SendOptions{
		Rows:             rows,
		ScheduleDeleteAt: f.now().Add(5 * time.Minute),
	})
}

// cleanupCommand removes the triggering command message shortly after
// handling when the chat opted in. Commands that already schedule the sender
// for deletion are left alone.
func (f *BotFacade) cleanupCommand(ctx context.Context, rc *model.RequestContext, log *zerolog.Logger) {
	if !rc.IsGroupChat() || rc.MessageID() == 0 {
		return
	}
	if rc.IsCommand("ping") {
		// ping already deletes its own trigger
		return
	}
	setting, err := f.settings.GetByChat(ctx, rc.ChatID())
	if err != nil || !setting.EnableCleanupCommand {
		return
	}
	if err := f.lifecycle.ScheduleDeletion(ctx, rc.ChatID(), rc.FromID(), rc.MessageID(), model.FlagForCommand(rc.Command), f.now().Add(time.Minute)); err != nil {
		log.Warn().Err(err).Msg("command cleanup not scheduled")
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
