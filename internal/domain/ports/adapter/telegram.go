// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"
	"time"

	"telegram-group-warden/internal/domain/model"
)

type SendMessageParams struct {
	ChatID            int64
	Text              string
	ReplyTo           int
	Rows              [][]model.InlineButton
	DisableWebPreview bool
}

type EditMessageParams struct {
	ChatID            int64
	MessageID         int
	Text              string
	Rows              [][]model.InlineButton
	DisableWebPreview bool
}

type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

type MediaItem struct {
	Kind    MediaKind
	FileID  string
	Caption string
	// Size in bytes when known, zero otherwise.
	Size int64
}

type RestrictParams struct {
	ChatID int64
	UserID int64
	Until  time.Time
	// Permit lifts the restriction instead of applying it.
	Permit bool
}

// BotClient is the outbound Telegram surface. Implementations classify API
// failures into domain.TelegramError before returning them.
type BotClient interface {
	SendMessage(ctx context.Context, p SendMessageParams) (*model.Message, error)
	EditMessageText(ctx context.Context, p EditMessageParams) (*model.Message, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	ForwardMessage(ctx context.Context, fromChatID, toChatID int64, messageID int) (*model.Message, error)
	SendMedia(ctx context.Context, chatID int64, item MediaItem) (*model.Message, error)
	SendMediaGroup(ctx context.Context, chatID int64, items []MediaItem) ([]*model.Message, error)
	AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error
	RestrictChatMember(ctx context.Context, p RestrictParams) error
	BanChatMember(ctx context.Context, chatID, userID int64, until time.Time) error
	UnbanChatMember(ctx context.Context, chatID, userID int64) error
	HasProfilePhoto(ctx context.Context, userID int64) (bool, error)
	Username() string
}
