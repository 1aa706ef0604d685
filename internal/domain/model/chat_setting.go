package model

import "time"

// SettingKey names a toggleable per-chat switch. Only keys listed in
// SettingKeys may reach the persistence layer.
type SettingKey string

const (
	SettingWarnUsername      SettingKey = "warn_username"
	SettingHumanVerification SettingKey = "human_verification"
	SettingEventLog          SettingKey = "event_log"
	SettingCleanupCommand    SettingKey = "cleanup_command"
)

// SettingKeys is the closed set of toggles, in display order.
var SettingKeys = []SettingKey{
	SettingWarnUsername,
	SettingHumanVerification,
	SettingEventLog,
	SettingCleanupCommand,
}

func ValidSettingKey(k SettingKey) bool {
	for _, known := range SettingKeys {
		if known == k {
			return true
		}
	}
	return false
}

// ChatSetting is the persisted per-chat configuration row. A chat without a
// row behaves as the zero value here.
type ChatSetting struct {
	ChatID    int64
	ChatTitle string
	ChatType  ChatType

	// IsBotAdmin records the last observed admin status of the bot itself.
	IsBotAdmin bool

	// EventLogChatID mirrors moderation events into this chat when negative.
	EventLogChatID int64

	EnableWarnUsername      bool
	EnableHumanVerification bool
	EnableEventLog          bool
	EnableCleanupCommand    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Toggle reads the switch named by key. Unknown keys read as false.
func (s *ChatSetting) Toggle(key SettingKey) bool {
	switch key {
	case SettingWarnUsername:
		return s.EnableWarnUsername
	case SettingHumanVerification:
		return s.EnableHumanVerification
	case SettingEventLog:
		return s.EnableEventLog
	case SettingCleanupCommand:
		return s.EnableCleanupCommand
	default:
		return false
	}
}

// SetToggle writes the switch named by key. Unknown keys are ignored.
func (s *ChatSetting) SetToggle(key SettingKey, enabled bool) {
	switch key {
	case SettingWarnUsername:
		s.EnableWarnUsername = enabled
	case SettingHumanVerification:
		s.EnableHumanVerification = enabled
	case SettingEventLog:
		s.EnableEventLog = enabled
	case SettingCleanupCommand:
		s.EnableCleanupCommand = enabled
	}
}
