package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-group-warden/internal/domain/ports/adapter"
	"telegram-group-warden/internal/infra/metrics"
	red "telegram-group-warden/internal/infra/redis"

	"github.com/rs/zerolog"
)

const adminCacheTTL = 10 * time.Minute

// PrivilegeResolver answers admin questions from the Telegram API with a
// short Redis cache in front, since the checks run on every group update.
type PrivilegeResolver struct {
	bot     *tgbotapi.BotAPI
	cache   red.RedisClient
	sudoers map[int64]struct{}
	log     *zerolog.Logger
}

var _ adapter.PrivilegeResolver = (*PrivilegeResolver)(nil)

func NewPrivilegeResolver(bot *tgbotapi.BotAPI, cache red.RedisClient, sudoIDs []int64, log *zerolog.Logger) *PrivilegeResolver {
	sudoers := make(map[int64]struct{}, len(sudoIDs))
	for _, id := range sudoIDs {
		sudoers[id] = struct{}{}
	}
	return &PrivilegeResolver{bot: bot, cache: cache, sudoers: sudoers, log: log}
}

func (r *PrivilegeResolver) IsSudo(userID int64) bool {
	_, ok := r.sudoers[userID]
	return ok
}

func (r *PrivilegeResolver) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	return r.cachedStatusCheck(ctx, fmt.Sprintf("admin:%d:%d", chatID, userID), chatID, userID)
}

func (r *PrivilegeResolver) IsBotAdmin(ctx context.Context, chatID int64) (bool, error) {
	return r.cachedStatusCheck(ctx, fmt.Sprintf("botadmin:%d", chatID), chatID, r.bot.Self.ID)
}

func (r *PrivilegeResolver) cachedStatusCheck(ctx context.Context, key string, chatID, userID int64) (bool, error) {
	if cached, err := r.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("privilege", "hit")
		return cached == "1", nil
	}
	metrics.IncCacheRequest("privilege", "miss")

	start := time.Now()
	member, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	cerr := classify(err)
	observe("getChatMember", start, cerr)
	if cerr != nil {
		return false, cerr
	}

	isAdmin := member.IsCreator() || member.IsAdministrator()
	val := "0"
	if isAdmin {
		val = "1"
	}
	if err := r.cache.Set(ctx, key, val, adminCacheTTL); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("privilege cache write failed")
	}
	return isAdmin, nil
}
