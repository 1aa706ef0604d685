package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-group-warden/internal/config"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/infra/metrics"
	red "telegram-group-warden/internal/infra/redis"

	"github.com/rs/zerolog"
)

// UpdateHandler is the application entry point the poller feeds.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd *model.Update) error
}

// Poller long-polls Telegram and fans updates out to a fixed worker set.
// A per-sender flood gate drops bursts before they reach the handler.
type Poller struct {
	bot      *tgbotapi.BotAPI
	handler  UpdateHandler
	flood    *red.RateLimiter
	floodCfg config.FloodConfig

	workers       int
	log           *zerolog.Logger
	cancelPolling context.CancelFunc
}

func NewPoller(bot *tgbotapi.BotAPI, handler UpdateHandler, flood *red.RateLimiter, floodCfg config.FloodConfig, workers int, log *zerolog.Logger) *Poller {
	if workers <= 0 {
		workers = 8
	}
	return &Poller{bot: bot, handler: handler, flood: flood, floodCfg: floodCfg, workers: workers, log: log}
}

func (p *Poller) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := p.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	p.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					p.handleRaw(ctx, id, up)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (p *Poller) StopPolling() {
	if p.cancelPolling != nil {
		p.cancelPolling()
	}
}

func (p *Poller) handleRaw(ctx context.Context, worker int, raw tgbotapi.Update) {
	upd := ToUpdate(raw)
	metrics.IncUpdate(updateKind(upd))

	if !p.allow(ctx, upd) {
		metrics.IncFloodLimited()
		return
	}

	if err := p.handler.HandleUpdate(ctx, upd); err != nil {
		p.log.Error().Err(err).Int("worker", worker).Int("update_id", upd.ID).Msg("update handling failed")
	}
}

// allow runs the flood gate. Redis trouble fails open: dropping moderation
// because the cache is down would be worse than a burst.
func (p *Poller) allow(ctx context.Context, upd *model.Update) bool {
	if p.flood == nil {
		return true
	}
	chatID, userID := updateOrigin(upd)
	if chatID == 0 || userID == 0 {
		return true
	}
	ok, err := p.flood.Allow(ctx, red.ChatUserKey(chatID, userID), p.floodCfg.Limit, p.floodCfg.Window)
	if err != nil {
		p.log.Warn().Err(err).Msg("flood gate unavailable")
		return true
	}
	return ok
}

func updateOrigin(upd *model.Update) (chatID, userID int64) {
	switch {
	case upd.CallbackQuery != nil:
		if upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil {
			chatID = upd.CallbackQuery.Message.Chat.ID
		}
		if upd.CallbackQuery.From != nil {
			userID = upd.CallbackQuery.From.ID
		}
	case upd.Message != nil:
		if upd.Message.Chat != nil {
			chatID = upd.Message.Chat.ID
		}
		if upd.Message.From != nil {
			userID = upd.Message.From.ID
		}
	case upd.EditedMessage != nil:
		if upd.EditedMessage.Chat != nil {
			chatID = upd.EditedMessage.Chat.ID
		}
		if upd.EditedMessage.From != nil {
			userID = upd.EditedMessage.From.ID
		}
	}
	return chatID, userID
}

func updateKind(upd *model.Update) string {
	switch {
	case upd.CallbackQuery != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.EditedMessage != nil:
		return "edited"
	case upd.ChannelPost != nil, upd.EditedChannelPost != nil:
		return "channel_post"
	case upd.MyChatMember != nil:
		return "my_chat_member"
	default:
		return "other"
	}
}
