package model

import "time"

// Pseudo-sender identities Telegram uses for service traffic. Messages from
// these accounts never carry a personal username, so username checks treat
// them as satisfied.
const (
	TelegramServiceID = int64(777000)
	AnonymousAdminID  = int64(1087968824)
)

type ChatType string

const (
	ChatTypePrivate    ChatType = "private"
	ChatTypeGroup      ChatType = "group"
	ChatTypeSuperGroup ChatType = "supergroup"
	ChatTypeChannel    ChatType = "channel"
)

// User is a snapshot of a Telegram account as seen on an update.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}

func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Chat struct {
	ID    int64
	Type  ChatType
	Title string
}

func (c *Chat) IsPrivate() bool { return c != nil && c.Type == ChatTypePrivate }
func (c *Chat) IsGroup() bool {
	return c != nil && (c.Type == ChatTypeGroup || c.Type == ChatTypeSuperGroup)
}
func (c *Chat) IsChannel() bool { return c != nil && c.Type == ChatTypeChannel }

type Message struct {
	ID         int
	Chat       *Chat
	From       *User
	SenderChat *Chat
	Date       time.Time
	Text       string
	Caption    string
	ReplyTo    *Message
	MediaGroup string
}

type CallbackQuery struct {
	ID      string
	From    *User
	Message *Message
	Data    string
}

type ChatMemberUpdated struct {
	Chat      *Chat
	From      *User
	Date      time.Time
	NewStatus string
	OldStatus string
}

// Update is the platform-neutral form of one incoming Telegram update.
// Exactly the payload fields handlers look at, nothing transport-specific.
type Update struct {
	ID                int
	Message           *Message
	EditedMessage     *Message
	ChannelPost       *Message
	EditedChannelPost *Message
	CallbackQuery     *CallbackQuery
	MyChatMember      *ChatMemberUpdated
}
