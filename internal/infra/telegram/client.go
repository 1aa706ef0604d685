package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/adapter"
	"telegram-group-warden/internal/infra/metrics"
)

// Client implements adapter.BotClient on top of tgbotapi. Every API failure
// is classified into a domain.TelegramError before it leaves this package.
type Client struct {
	bot *tgbotapi.BotAPI
}

var _ adapter.BotClient = (*Client)(nil)

func NewClient(bot *tgbotapi.BotAPI) *Client {
	return &Client{bot: bot}
}

func (c *Client) Username() string { return c.bot.Self.UserName }

// classify maps a tgbotapi error onto the domain taxonomy. 400-level
// "not found" descriptions get their own kind because they signal a stale
// reference worth a degraded retry, not a malformed request.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return &domain.TelegramError{Kind: domain.KindUnknown, Description: err.Error(), Err: err}
	}
	kind := domain.KindUnknown
	desc := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == 429:
		kind = domain.KindRateLimited
	case apiErr.Code == 403:
		kind = domain.KindForbidden
	case apiErr.Code == 400 && strings.Contains(desc, "not found"):
		kind = domain.KindNotFound
	case apiErr.Code == 400:
		kind = domain.KindBadRequest
	}
	return &domain.TelegramError{Code: apiErr.Code, Kind: kind, Description: apiErr.Message, Err: err}
}

func observe(method string, start time.Time, err error) {
	kind := "ok"
	if te, ok := domain.AsTelegramError(err); ok {
		kind = te.Kind.String()
	} else if err != nil {
		kind = domain.KindUnknown.String()
	}
	metrics.ObserveTelegramRequest(method, kind, start)
}

func toKeyboard(rows [][]model.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			switch {
			case btn.URL != "":
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL))
			case btn.Data != "":
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
			default:
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Text))
			}
		}
		kbRows = append(kbRows, kbRow)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &kb
}

func (c *Client) SendMessage(ctx context.Context, p adapter.SendMessageParams) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	msg := tgbotapi.NewMessage(p.ChatID, p.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = p.DisableWebPreview
	if p.ReplyTo > 0 {
		msg.ReplyToMessageID = p.ReplyTo
	}
	if kb := toKeyboard(p.Rows); kb != nil {
		msg.ReplyMarkup = *kb
	}

	sent, err := c.bot.Send(msg)
	err = classify(err)
	observe("sendMessage", start, err)
	if err != nil {
		return nil, err
	}
	return toMessage(&sent), nil
}

func (c *Client) EditMessageText(ctx context.Context, p adapter.EditMessageParams) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	edit := tgbotapi.NewEditMessageText(p.ChatID, p.MessageID, p.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = p.DisableWebPreview
	edit.ReplyMarkup = toKeyboard(p.Rows)

	edited, err := c.bot.Send(edit)
	err = classify(err)
	observe("editMessageText", start, err)
	if err != nil {
		return nil, err
	}
	return toMessage(&edited), nil
}

func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	_, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	err = classify(err)
	observe("deleteMessage", start, err)
	return err
}

func (c *Client) ForwardMessage(ctx context.Context, fromChatID, toChatID int64, messageID int) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	sent, err := c.bot.Send(tgbotapi.NewForward(toChatID, fromChatID, messageID))
	err = classify(err)
	observe("forwardMessage", start, err)
	if err != nil {
		return nil, err
	}
	return toMessage(&sent), nil
}

func (c *Client) SendMedia(ctx context.Context, chatID int64, item adapter.MediaItem) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	file := tgbotapi.FileID(item.FileID)
	var cfg tgbotapi.Chattable
	switch item.Kind {
	case adapter.MediaVideo:
		v := tgbotapi.NewVideo(chatID, file)
		v.Caption = item.Caption
		cfg = v
	case adapter.MediaDocument:
		d := tgbotapi.NewDocument(chatID, file)
		d.Caption = item.Caption
		cfg = d
	default:
		p := tgbotapi.NewPhoto(chatID, file)
		p.Caption = item.Caption
		cfg = p
	}

	sent, err := c.bot.Send(cfg)
	err = classify(err)
	observe("sendMedia", start, err)
	if err != nil {
		return nil, err
	}
	return toMessage(&sent), nil
}

func (c *Client) SendMediaGroup(ctx context.Context, chatID int64, items []adapter.MediaItem) ([]*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	media := make([]interface{}, 0, len(items))
	for _, item := range items {
		file := tgbotapi.FileID(item.FileID)
		switch item.Kind {
		case adapter.MediaVideo:
			v := tgbotapi.NewInputMediaVideo(file)
			v.Caption = item.Caption
			media = append(media, v)
		case adapter.MediaDocument:
			d := tgbotapi.NewInputMediaDocument(file)
			d.Caption = item.Caption
			media = append(media, d)
		default:
			p := tgbotapi.NewInputMediaPhoto(file)
			p.Caption = item.Caption
			media = append(media, p)
		}
	}

	sent, err := c.bot.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media))
	err = classify(err)
	observe("sendMediaGroup", start, err)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Message, 0, len(sent))
	for i := range sent {
		out = append(out, toMessage(&sent[i]))
	}
	return out, nil
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	_, err := c.bot.Request(tgbotapi.CallbackConfig{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       showAlert,
	})
	err = classify(err)
	observe("answerCallbackQuery", start, err)
	return err
}

func (c *Client) RestrictChatMember(ctx context.Context, p adapter.RestrictParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	allow := p.Permit
	perms := &tgbotapi.ChatPermissions{
		CanSendMessages:       allow,
		CanSendMediaMessages:  allow,
		CanSendPolls:          allow,
		CanSendOtherMessages:  allow,
		CanAddWebPagePreviews: allow,
		CanChangeInfo:         allow,
		CanInviteUsers:        allow,
		CanPinMessages:        allow,
	}
	cfg := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: p.ChatID, UserID: p.UserID},
		Permissions:      perms,
	}
	if !p.Until.IsZero() {
		cfg.UntilDate = p.Until.Unix()
	}

	_, err := c.bot.Request(cfg)
	err = classify(err)
	observe("restrictChatMember", start, err)
	return err
}

func (c *Client) BanChatMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if !until.IsZero() {
		cfg.UntilDate = until.Unix()
	}
	_, err := c.bot.Request(cfg)
	err = classify(err)
	observe("banChatMember", start, err)
	return err
}

func (c *Client) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	cfg := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		OnlyIfBanned:     true,
	}
	_, err := c.bot.Request(cfg)
	err = classify(err)
	observe("unbanChatMember", start, err)
	return err
}

func (c *Client) HasProfilePhoto(ctx context.Context, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	start := time.Now()
	photos, err := c.bot.GetUserProfilePhotos(tgbotapi.NewUserProfilePhotos(userID))
	err = classify(err)
	observe("getUserProfilePhotos", start, err)
	if err != nil {
		return false, err
	}
	return photos.TotalCount > 0, nil
}
