package model

import (
	"strconv"
	"strings"
	"time"
)

// RequestContext is the normalized view of one update. Every handler and
// usecase reads from this instead of poking at the raw update shape.
type RequestContext struct {
	Update *Update

	// AnyMessage resolves callback message, then message, then edited message.
	AnyMessage *Message
	// ChannelOrEdited resolves channel post, then edited channel post.
	ChannelOrEdited *Message

	Chat          *Chat
	From          *User
	SenderChat    *Chat
	CallbackQuery *CallbackQuery

	// MessageDate is the platform timestamp of the triggering payload.
	MessageDate time.Time
	// ReceivedAt is when normalization ran; feeds the timing annotation.
	ReceivedAt time.Time

	Text        string
	Command     string
	CommandArgs []string

	HasUsername      bool
	IsAnonymousAdmin bool
	IsSudo           bool
}

func (rc *RequestContext) ChatID() int64 {
	if rc.Chat == nil {
		return 0
	}
	return rc.Chat.ID
}

func (rc *RequestContext) FromID() int64 {
	if rc.From == nil {
		return 0
	}
	return rc.From.ID
}

func (rc *RequestContext) MessageID() int {
	if rc.AnyMessage == nil {
		return 0
	}
	return rc.AnyMessage.ID
}

func (rc *RequestContext) IsPrivateChat() bool { return rc.Chat.IsPrivate() }
func (rc *RequestContext) IsGroupChat() bool   { return rc.Chat.IsGroup() }
func (rc *RequestContext) IsChannel() bool {
	return rc.Chat.IsChannel() || rc.ChannelOrEdited != nil
}

func (rc *RequestContext) IsCallback() bool { return rc.CallbackQuery != nil }

func (rc *RequestContext) IsCommand(name string) bool { return rc.Command == name }

// ReducedChatID is the chat id without the supergroup marker prefix,
// used as the stable cache key segment.
func (rc *RequestContext) ReducedChatID() string { return ReduceChatID(rc.ChatID()) }

// ReduceChatID strips the "-100" supergroup prefix from a chat id.
func ReduceChatID(chatID int64) string {
	s := strconv.FormatInt(chatID, 10)
	return strings.TrimPrefix(s, "-100")
}
