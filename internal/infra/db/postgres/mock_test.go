//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/repository"
	red "telegram-group-warden/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerSettingsRepo mocks the database repository that the decorator wraps.
type mockInnerSettingsRepo struct {
	FindByChatFunc   func(ctx context.Context, tx repository.Tx, chatID int64) (*model.ChatSetting, error)
	SaveFunc         func(ctx context.Context, tx repository.Tx, s *model.ChatSetting) error
	UpdateToggleFunc func(ctx context.Context, tx repository.Tx, chatID int64, key model.SettingKey, enabled bool) error
}

func (m *mockInnerSettingsRepo) FindByChat(ctx context.Context, tx repository.Tx, chatID int64) (*model.ChatSetting, error) {
	return m.FindByChatFunc(ctx, tx, chatID)
}
func (m *mockInnerSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.ChatSetting) error {
	return m.SaveFunc(ctx, tx, s)
}
func (m *mockInnerSettingsRepo) UpdateToggle(ctx context.Context, tx repository.Tx, chatID int64, key model.SettingKey, enabled bool) error {
	return m.UpdateToggleFunc(ctx, tx, chatID, key, enabled)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
