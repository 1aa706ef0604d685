// File: internal/usecase/delivery_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/adapter"
	"telegram-group-warden/internal/infra/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// releaseAssetSizeCap bounds attachments offered through the media gateway.
// TODO: `100*1024 ^ 2` is XOR, not exponentiation; intent was 100 MiB. Kept
// until stored asset records are migrated off the old threshold.
const releaseAssetSizeCap = 100*1024 ^ 2

const deleteManyParallelism = 8

// SendOptions shape one outbound message. ReplyTo zero anchors to the
// triggering message, negative disables the anchor.
type SendOptions struct {
	ChatID            int64
	ReplyTo           int
	Rows              [][]model.InlineButton
	DisableWebPreview bool

	// ScheduleDeleteAt registers the sent message for deferred deletion.
	ScheduleDeleteAt time.Time
	// IncludeSender also schedules the triggering message for deletion.
	IncludeSender bool
}

// DeliveryUseCase is the single egress path for handler output. Calls never
// propagate Telegram errors to the handler flow: a failure is logged,
// classified, optionally retried once in degraded form, and surfaces as a
// nil message or a DeliveryResult with IsSuccess false.
type DeliveryUseCase interface {
	Send(ctx context.Context, rc *model.RequestContext, text string, opt SendOptions) *model.Message
	Edit(ctx context.Context, rc *model.RequestContext, messageID int, text string, opt SendOptions) *model.Message
	Delete(ctx context.Context, chatID int64, messageID int) bool
	DeleteMany(ctx context.Context, chatID int64, messageIDs []int) int
	Forward(ctx context.Context, fromChatID, toChatID int64, messageID int) *model.Message
	SendMedia(ctx context.Context, rc *model.RequestContext, chatID int64, item adapter.MediaItem) *model.Message
	SendMediaGroup(ctx context.Context, rc *model.RequestContext, chatID int64, items []adapter.MediaItem) *model.DeliveryResult
	AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) bool
	Restrict(ctx context.Context, chatID, userID int64, until time.Time, permit bool) *model.DeliveryResult
	// SendEventLog mirrors a moderation note to the configured log channels.
	SendEventLog(ctx context.Context, rc *model.RequestContext, note string, withForward bool)
}

type deliveryUC struct {
	bot       adapter.BotClient
	lifecycle LifecycleUseCase
	settings  SettingsUseCase
	bg        adapter.BackgroundRunner

	eventLogChannelID int64

	log *zerolog.Logger
	now func() time.Time
}

var _ DeliveryUseCase = (*deliveryUC)(nil)

func NewDeliveryUseCase(
	bot adapter.BotClient,
	lifecycle LifecycleUseCase,
	settings SettingsUseCase,
	bg adapter.BackgroundRunner,
	eventLogChannelID int64,
	log *zerolog.Logger,
) *deliveryUC {
	return &deliveryUC{
		bot:               bot,
		lifecycle:         lifecycle,
		settings:          settings,
		bg:                bg,
		eventLogChannelID: eventLogChannelID,
		log:               log,
		now:               time.Now,
	}
}

// annotate appends the timing footer. Callback-originated responses skip it:
// the edited message would accumulate footers on every press.
func (u *deliveryUC) annotate(rc *model.RequestContext, text string) string {
	if rc == nil || rc.CallbackQuery != nil {
		return text
	}
	initElapsed := rc.ReceivedAt.Sub(rc.MessageDate).Seconds()
	procElapsed := u.now().Sub(rc.MessageDate).Seconds()
	if initElapsed < 0 {
		initElapsed = 0
	}
	if procElapsed < 0 {
		procElapsed = 0
	}
	return fmt.Sprintf("%s\n\n⏱ <code>%.2f s</code> | ⌛️ <code>%.2f s</code>", text, initElapsed, procElapsed)
}

func (u *deliveryUC) targetChat(rc *model.RequestContext, opt SendOptions) int64 {
	if opt.ChatID != 0 {
		return opt.ChatID
	}
	if rc != nil {
		return rc.ChatID()
	}
	return 0
}

func (u *deliveryUC) replyTo(rc *model.RequestContext, opt SendOptions) int {
	if opt.ReplyTo > 0 {
		return opt.ReplyTo
	}
	if opt.ReplyTo < 0 {
		return 0
	}
	if rc != nil {
		return rc.MessageID()
	}
	return 0
}

func (u *deliveryUC) Send(ctx context.Context, rc *model.RequestContext, text string, opt SendOptions) *model.Message {
	if strings.TrimSpace(text) == "" {
		u.log.Warn().Msg("send skipped: empty text")
		return nil
	}
	chatID := u.targetChat(rc, opt)
	if chatID == 0 {
		u.log.Warn().Msg("send skipped: no target chat")
		return nil
	}

	params := adapter.SendMessageParams{
		ChatID:            chatID,
		Text:              u.annotate(rc, text),
		ReplyTo:           u.replyTo(rc, opt),
		Rows:              opt.Rows,
		DisableWebPreview: opt.DisableWebPreview,
	}

	sent, err := u.bot.SendMessage(ctx, params)
	if err != nil {
		if !domain.Recoverable(err) {
			u.log.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
			return nil
		}
		// Degraded retry: the anchor message may be gone, or the reply was
		// rejected. One attempt without the reply-to.
		u.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send retrying without reply anchor")
		params.ReplyTo = 0
		sent, err = u.bot.SendMessage(ctx, params)
		if err != nil {
			u.log.Error().Err(err).Int64("chat_id", chatID).Msg("send retry failed")
			return nil
		}
	}

	u.registerEphemeral(rc, sent, opt)
	return sent
}

// registerEphemeral queues the history bookkeeping off the handler path.
func (u *deliveryUC) registerEphemeral(rc *model.RequestContext, sent *model.Message, opt SendOptions) {
	if sent == nil || opt.ScheduleDeleteAt.IsZero() {
		return
	}
	chatID := sent.Chat.ID
	userID := int64(0)
	flag := model.FlagGeneral
	senderMessageID := 0
	if rc != nil {
		userID = rc.FromID()
		flag = model.FlagForCommand(rc.Command)
		if opt.IncludeSender {
			senderMessageID = rc.MessageID()
		}
	}
	task := func(tctx context.Context) error {
		if err := u.lifecycle.ScheduleDeletion(tctx, chatID, userID, sent.ID, flag, opt.ScheduleDeleteAt); err != nil {
			u.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", sent.ID).Msg("ephemeral registration failed")
		}
		if senderMessageID > 0 {
			if err := u.lifecycle.ScheduleDeletion(tctx, chatID, userID, senderMessageID, flag, opt.ScheduleDeleteAt); err != nil {
				u.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", senderMessageID).Msg("ephemeral registration failed")
			}
		}
		return nil
	}
	if err := u.bg.Submit(task); err != nil {
		u.log.Warn().Err(err).Msg("ephemeral registration dropped")
	}
}

func (u *deliveryUC) Edit(ctx context.Context, rc *model.RequestContext, messageID int, text string, opt SendOptions) *model.Message {
	if strings.TrimSpace(text) == "" {
		u.log.Warn().Msg("edit skipped: empty text")
		return nil
	}
	chatID := u.targetChat(rc, opt)
	if chatID == 0 || messageID <= 0 {
		u.log.Warn().Msg("edit skipped: no target message")
		return nil
	}

	params := adapter.EditMessageParams{
		ChatID:            chatID,
		MessageID:         messageID,
		Text:              u.annotate(rc, text),
		Rows:              opt.Rows,
		DisableWebPreview: opt.DisableWebPreview,
	}
	edited, err := u.bot.EditMessageText(ctx, params)
	if err != nil {
		if domain.Recoverable(err) {
			u.log.Warn().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("edit skipped")
		} else {
			u.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("edit failed")
		}
		return nil
	}

	if !opt.ScheduleDeleteAt.IsZero() {
		// The edited message may already carry a deletion record pointing at
		// stale content. Replace it.
		userID := int64(0)
		flag := model.FlagGeneral
		if rc != nil {
			userID = rc.FromID()
			flag = model.FlagForCommand(rc.Command)
		}
		task := func(tctx context.Context) error {
			if err := u.lifecycle.RescheduleDeletion(tctx, chatID, userID, messageID, flag, opt.ScheduleDeleteAt); err != nil {
				u.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("ephemeral re-registration failed")
			}
			return nil
		}
		if err := u.bg.Submit(task); err != nil {
			u.log.Warn().Err(err).Msg("ephemeral re-registration dropped")
		}
	}
	return edited
}

// Delete is exception-isolated: the caller flow continues regardless.
func (u *deliveryUC) Delete(ctx context.Context, chatID int64, messageID int) bool {
	if chatID == 0 || messageID <= 0 {
		return false
	}
	if err := u.bot.DeleteMessage(ctx, chatID, messageID); err != nil {
		if domain.Recoverable(err) {
			u.log.Warn().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("delete skipped")
		} else {
			u.log.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("delete failed")
		}
		return false
	}
	return true
}

// DeleteMany fans deletions out with bounded parallelism and returns the
// count that succeeded.
func (u *deliveryUC) DeleteMany(ctx context.Context, chatID int64, messageIDs []int) int {
	if len(messageIDs) == 0 {
		return 0
	}
	var g errgroup.Group
	g.SetLimit(deleteManyParallelism)
	results := make([]bool, len(messageIDs))
	for i, id := range messageIDs {
		i, id := i, id
		g.Go(func() error {
			results[i] = u.Delete(ctx, chatID, id)
			return nil
		})
	}
	_ = g.Wait()
	deleted := 0
	for _, ok := range results {
		if ok {
			deleted++
		}
	}
	return deleted
}

func (u *deliveryUC) Forward(ctx context.Context, fromChatID, toChatID int64, messageID int) *model.Message {
	msg, err := u.bot.ForwardMessage(ctx, fromChatID, toChatID, messageID)
	if err != nil {
		if domain.Recoverable(err) {
			u.log.Warn().Err(err).Int64("to_chat_id", toChatID).Msg("forward skipped")
		} else {
			u.log.Error().Err(err).Int64("to_chat_id", toChatID).Msg("forward failed")
		}
		return nil
	}
	return msg
}

func (u *deliveryUC) SendMedia(ctx context.Context, rc *model.RequestContext, chatID int64, item adapter.MediaItem) *model.Message {
	if chatID == 0 && rc != nil {
		chatID = rc.ChatID()
	}
	if chatID == 0 || item.FileID == "" {
		u.log.Warn().Msg("media send skipped: no target")
		return nil
	}
	if item.Size > releaseAssetSizeCap {
		u.log.Debug().Str("file_id", item.FileID).Int64("size", item.Size).Msg("media item over size cap, skipped")
		return nil
	}

	sent, err := u.bot.SendMedia(ctx, chatID, item)
	if err != nil {
		if domain.Recoverable(err) {
			u.log.Warn().Err(err).Int64("chat_id", chatID).Msg("media send skipped")
		} else {
			u.log.Error().Err(err).Int64("chat_id", chatID).Msg("media send failed")
		}
		return nil
	}
	return sent
}

func (u *deliveryUC) SendMediaGroup(ctx context.Context, rc *model.RequestContext, chatID int64, items []adapter.MediaItem) *model.DeliveryResult {
	if chatID == 0 && rc != nil {
		chatID = rc.ChatID()
	}
	filtered := make([]adapter.MediaItem, 0, len(items))
	for _, item := range items {
		if item.Size > releaseAssetSizeCap {
			u.log.Debug().Str("file_id", item.FileID).Int64("size", item.Size).Msg("media item over size cap, skipped")
			continue
		}
		filtered = append(filtered, item)
	}
	if len(filtered) == 0 {
		return &model.DeliveryResult{IsSuccess: false}
	}

	sent, err := u.bot.SendMediaGroup(ctx, chatID, filtered)
	if err != nil {
		te, _ := domain.AsTelegramError(err)
		res := &model.DeliveryResult{IsSuccess: false}
		if te != nil {
			res.ErrorCode = te.Code
			res.ErrorKind = te.Kind.String()
		}
		u.log.Error().Err(err).Int64("chat_id", chatID).Msg("media group failed")
		return res
	}

	// Every item gets its own background history record.
	for _, msg := range sent {
		msg := msg
		task := func(tctx context.Context) error {
			userID := int64(0)
			if rc != nil {
				userID = rc.FromID()
			}
			deleteAt := u.now().Add(defaultDeletionWindow)
			if err := u.lifecycle.ScheduleDeletion(tctx, chatID, userID, msg.ID, model.FlagGeneral, deleteAt); err != nil {
				u.log.Error().Err(err).Int("message_id", msg.ID).Msg("media history registration failed")
			}
			return nil
		}
		if err := u.bg.Submit(task); err != nil {
			u.log.Warn().Err(err).Msg("media history registration dropped")
		}
	}
	return &model.DeliveryResult{IsSuccess: true, Messages: sent}
}

func (u *deliveryUC) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) bool {
	if callbackID == "" {
		return false
	}
	if err := u.bot.AnswerCallbackQuery(ctx, callbackID, text, showAlert); err != nil {
		u.log.Warn().Err(err).Msg("callback answer failed")
		return false
	}
	return true
}

// Restrict is exception-isolated like Delete.
func (u *deliveryUC) Restrict(ctx context.Context, chatID, userID int64, until time.Time, permit bool) *model.DeliveryResult {
	err := u.bot.RestrictChatMember(ctx, adapter.RestrictParams{
		ChatID: chatID,
		UserID: userID,
		Until:  until,
		Permit: permit,
	})
	if err != nil {
		te, _ := domain.AsTelegramError(err)
		res := &model.DeliveryResult{IsSuccess: false}
		if te != nil {
			res.ErrorCode = te.Code
			res.ErrorKind = te.Kind.String()
		}
		if domain.Recoverable(err) {
			u.log.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("restrict skipped")
		} else {
			u.log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("restrict failed")
		}
		return res
	}
	metrics.IncRestriction(permit)
	return &model.DeliveryResult{IsSuccess: true}
}

// SendEventLog mirrors a note to the global log channel and, when the chat
// opted in, its own event-log chat. Failures never reach the caller.
func (u *deliveryUC) SendEventLog(ctx context.Context, rc *model.RequestContext, note string, withForward bool) {
	targets := make([]int64, 0, 2)
	if u.eventLogChannelID < 0 {
		targets = append(targets, u.eventLogChannelID)
	}
	if rc != nil && rc.IsGroupChat() {
		s, err := u.settings.GetByChat(ctx, rc.ChatID())
		if err != nil {
			u.log.Warn().Err(err).Msg("event log settings lookup failed")
		} else if s.EnableEventLog && s.EventLogChatID < 0 && s.EventLogChatID != u.eventLogChannelID {
			targets = append(targets, s.EventLogChatID)
		}
	}
	if len(targets) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(note)
	if rc != nil {
		sb.WriteString("\n\n#chat_")
		sb.WriteString(rc.ReducedChatID())
		if rc.From != nil {
			fmt.Fprintf(&sb, " #user_%d", rc.From.ID)
		}
	}
	body := sb.String()

	for _, target := range targets {
		if withForward && rc != nil && rc.MessageID() > 0 {
			u.Forward(ctx, rc.ChatID(), target, rc.MessageID())
		}
		if _, err := u.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: target, Text: body, DisableWebPreview: true}); err != nil {
			u.log.Warn().Err(err).Int64("target", target).Msg("event log send failed")
		}
	}
}
