package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-group-warden/internal/domain/model"
)

// ToUpdate maps a raw tgbotapi update onto the platform-neutral shape the
// rest of the system consumes.
func ToUpdate(u tgbotapi.Update) *model.Update {
	return &model.Update{
		ID:                u.UpdateID,
		Message:           toMessage(u.Message),
		EditedMessage:     toMessage(u.EditedMessage),
		ChannelPost:       toMessage(u.ChannelPost),
		EditedChannelPost: toMessage(u.EditedChannelPost),
		CallbackQuery:     toCallbackQuery(u.CallbackQuery),
		MyChatMember:      toChatMemberUpdated(u.MyChatMember),
	}
}

func toMessage(m *tgbotapi.Message) *model.Message {
	if m == nil {
		return nil
	}
	msg := &model.Message{
		ID:         m.MessageID,
		Chat:       toChat(m.Chat),
		From:       toUser(m.From),
		SenderChat: toChat(m.SenderChat),
		Date:       time.Unix(int64(m.Date), 0),
		Text:       m.Text,
		Caption:    m.Caption,
		MediaGroup: m.MediaGroupID,
	}
	// One level of reply context is enough for anchoring and cleanup.
	if m.ReplyToMessage != nil {
		reply := *m.ReplyToMessage
		reply.ReplyToMessage = nil
		msg.ReplyTo = toMessage(&reply)
	}
	return msg
}

func toChat(c *tgbotapi.Chat) *model.Chat {
	if c == nil {
		return nil
	}
	return &model.Chat{ID: c.ID, Type: model.ChatType(c.Type), Title: c.Title}
}

func toUser(u *tgbotapi.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsBot:     u.IsBot,
	}
}

func toCallbackQuery(q *tgbotapi.CallbackQuery) *model.CallbackQuery {
	if q == nil {
		return nil
	}
	return &model.CallbackQuery{
		ID:      q.ID,
		From:    toUser(q.From),
		Message: toMessage(q.Message),
		Data:    q.Data,
	}
}

func toChatMemberUpdated(m *tgbotapi.ChatMemberUpdated) *model.ChatMemberUpdated {
	if m == nil {
		return nil
	}
	return &model.ChatMemberUpdated{
		Chat:      toChat(&m.Chat),
		From:      toUser(&m.From),
		Date:      time.Unix(int64(m.Date), 0),
		NewStatus: m.NewChatMember.Status,
		OldStatus: m.OldChatMember.Status,
	}
}
