// File: internal/usecase/context_uc.go
package usecase

import (
	"strings"
	"time"

	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/adapter"
)

// ContextBuilder normalizes a raw update into a RequestContext. Resolution
// order is fixed so every downstream consumer sees the same view:
//   - AnyMessage: callback message, then message, then edited message
//   - sender: channel post author chain, then chat-member event, then
//     callback presser, then message author
type ContextBuilder interface {
	Build(upd *model.Update) *model.RequestContext
}

type contextBuilder struct {
	priv        adapter.PrivilegeResolver
	botUsername string
	now         func() time.Time
}

var _ ContextBuilder = (*contextBuilder)(nil)

func NewContextBuilder(priv adapter.PrivilegeResolver, botUsername string) *contextBuilder {
	return &contextBuilder{priv: priv, botUsername: botUsername, now: time.Now}
}

// usernameExemptIDs are pseudo-senders that can never set a username.
var usernameExemptIDs = []int64{model.TelegramServiceID, model.AnonymousAdminID}

func (b *contextBuilder) Build(upd *model.Update) *model.RequestContext {
	rc := &model.RequestContext{Update: upd, ReceivedAt: b.now()}

	if upd.CallbackQuery != nil {
		rc.CallbackQuery = upd.CallbackQuery
		rc.AnyMessage = upd.CallbackQuery.Message
	} else if upd.Message != nil {
		rc.AnyMessage = upd.Message
	} else if upd.EditedMessage != nil {
		rc.AnyMessage = upd.EditedMessage
	}

	if upd.ChannelPost != nil {
		rc.ChannelOrEdited = upd.ChannelPost
	} else if upd.EditedChannelPost != nil {
		rc.ChannelOrEdited = upd.EditedChannelPost
	}

	rc.Chat = b.resolveChat(upd, rc)
	rc.From = b.resolveFrom(upd, rc)

	if rc.AnyMessage != nil {
		rc.SenderChat = rc.AnyMessage.SenderChat
	}

	rc.MessageDate = b.resolveDate(upd, rc)
	rc.Text = b.resolveText(rc)
	rc.Command, rc.CommandArgs = b.parseCommand(rc.Text)

	rc.HasUsername = b.hasUsername(rc.From)
	rc.IsAnonymousAdmin = b.isAnonymousAdmin(rc)
	if rc.From != nil {
		rc.IsSudo = b.priv.IsSudo(rc.From.ID)
	}
	return rc
}

func (b *contextBuilder) resolveChat(upd *model.Update, rc *model.RequestContext) *model.Chat {
	if rc.ChannelOrEdited != nil {
		return rc.ChannelOrEdited.Chat
	}
	if upd.MyChatMember != nil {
		return upd.MyChatMember.Chat
	}
	if rc.AnyMessage != nil {
		return rc.AnyMessage.Chat
	}
	return nil
}

func (b *contextBuilder) resolveFrom(upd *model.Update, rc *model.RequestContext) *model.User {
	if rc.ChannelOrEdited != nil {
		return rc.ChannelOrEdited.From
	}
	if upd.MyChatMember != nil {
		return upd.MyChatMember.From
	}
	if upd.CallbackQuery != nil {
		return upd.CallbackQuery.From
	}
	if rc.AnyMessage != nil {
		return rc.AnyMessage.From
	}
	return nil
}

func (b *contextBuilder) resolveDate(upd *model.Update, rc *model.RequestContext) time.Time {
	if rc.ChannelOrEdited != nil {
		return rc.ChannelOrEdited.Date
	}
	if upd.MyChatMember != nil {
		return upd.MyChatMember.Date
	}
	if rc.AnyMessage != nil {
		return rc.AnyMessage.Date
	}
	return b.now()
}

func (b *contextBuilder) resolveText(rc *model.RequestContext) string {
	msg := rc.AnyMessage
	if msg == nil {
		msg = rc.ChannelOrEdited
	}
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// parseCommand extracts "/cmd arg1 arg2". A trailing @botname on the command
// is stripped only when it addresses this bot; commands aimed at another bot
// in the group are ignored entirely.
func (b *contextBuilder) parseCommand(text string) (string, []string) {
	if !strings.HasPrefix(text, "/") {
		return "", nil
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(cmd, "@"); at >= 0 {
		target := cmd[at+1:]
		if b.botUsername != "" && !strings.EqualFold(target, b.botUsername) {
			return "", nil
		}
		cmd = cmd[:at]
	}
	if cmd == "" {
		return "", nil
	}
	return strings.ToLower(cmd), fields[1:]
}

func (b *contextBuilder) hasUsername(from *model.User) bool {
	if from == nil {
		return false
	}
	for _, id := range usernameExemptIDs {
		if from.ID == id {
			return true
		}
	}
	return from.Username != ""
}

func (b *contextBuilder) isAnonymousAdmin(rc *model.RequestContext) bool {
	if rc.From == nil || rc.From.ID != model.AnonymousAdminID {
		return false
	}
	return rc.SenderChat != nil && rc.Chat != nil && rc.SenderChat.ID == rc.Chat.ID
}
