package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/repository"
	"telegram-group-warden/internal/infra/metrics"
	red "telegram-group-warden/internal/infra/redis"
)

var _ repository.SettingsRepository = (*settingsRepoCacheDecorator)(nil)

type settingsRepoCacheDecorator struct {
	inner repository.SettingsRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewSettingsRepoCacheDecorator(inner repository.SettingsRepository, cache red.RedisClient, ttl time.Duration) repository.SettingsRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &settingsRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func settingCacheKey(chatID int64) string {
	return fmt.Sprintf("setting-%s", model.ReduceChatID(chatID))
}

func (d *settingsRepoCacheDecorator) FindByChat(ctx context.Context, tx repository.Tx, chatID int64) (*model.ChatSetting, error) {
	if tx != nil {
		// Transactional reads must see the row under the tx, not a snapshot.
		return d.inner.FindByChat(ctx, tx, chatID)
	}
	key := settingCacheKey(chatID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("setting", "hit")
		var s model.ChatSetting
		if json.Unmarshal([]byte(val), &s) == nil {
			return &s, nil
		}
	}

	metrics.IncCacheRequest("setting", "miss")
	s, err := d.inner.FindByChat(ctx, tx, chatID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		bytes, _ := json.Marshal(s)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return s, nil
}

// Write operations invalidate the cached row before touching the database.
func (d *settingsRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, s *model.ChatSetting) error {
	_ = d.cache.Del(ctx, settingCacheKey(s.ChatID))
	return d.inner.Save(ctx, tx, s)
}

func (d *settingsRepoCacheDecorator) UpdateToggle(ctx context.Context, tx repository.Tx, chatID int64, key model.SettingKey, enabled bool) error {
	_ = d.cache.Del(ctx, settingCacheKey(chatID))
	return d.inner.UpdateToggle(ctx, tx, chatID, key, enabled)
}
