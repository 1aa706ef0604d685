package model

import (
	"time"

	"telegram-group-warden/internal/domain"

	"github.com/google/uuid"
)

// MessageFlag labels why a delivered message was recorded, so sweeps can
// target one class of ephemeral output without touching the rest.
type MessageFlag string

const (
	FlagGeneral      MessageFlag = "general"
	FlagPing         MessageFlag = "ping"
	FlagSettings     MessageFlag = "settings"
	FlagWarnUsername MessageFlag = "warn_username"
	FlagVerify       MessageFlag = "verify"
	FlagEventLog     MessageFlag = "event_log"
)

// FlagForCommand maps a slash command to the history flag its replies carry.
func FlagForCommand(command string) MessageFlag {
	switch command {
	case "ping":
		return FlagPing
	case "settings":
		return FlagSettings
	default:
		return FlagGeneral
	}
}

// MessageHistory is one scheduled-deletion record for a delivered message.
type MessageHistory struct {
	ID        string
	ChatID    int64
	UserID    int64
	MessageID int
	Flag      MessageFlag
	DeleteAt  time.Time
	CreatedAt time.Time
}

func NewMessageHistory(chatID int64, userID int64, messageID int, flag MessageFlag, deleteAt time.Time) (*MessageHistory, error) {
	if chatID == 0 || messageID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if flag == "" {
		flag = FlagGeneral
	}
	if deleteAt.IsZero() {
		deleteAt = time.Now().Add(time.Minute)
	}
	return &MessageHistory{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    userID,
		MessageID: messageID,
		Flag:      flag,
		DeleteAt:  deleteAt,
		CreatedAt: time.Now(),
	}, nil
}
