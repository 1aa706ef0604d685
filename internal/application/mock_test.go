//go:build !integration

package application

import (
	"context"
	"time"

	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/adapter"
	"telegram-group-warden/internal/usecase"
)

// --- function-field mocks for the facade tests ---

type mockBuilder struct {
	BuildFunc func(upd *model.Update) *model.RequestContext
}

func (m *mockBuilder) Build(upd *model.Update) *model.RequestContext { return m.BuildFunc(upd) }

type mockSettingsUC struct {
	GetByChatFunc func(ctx context.Context, chatID int64) (*model.ChatSetting, error)
	EnsureFunc    func(ctx context.Context, rc *model.RequestContext) error
	SetToggleFunc func(ctx context.Context, chatID int64, key model.SettingKey, enabled bool) error
	ButtonsFunc   func(ctx context.Context, chatID int64) ([][]model.InlineButton, error)
}

func (m *mockSettingsUC) GetByChat(ctx context.Context, chatID int64) (*model.ChatSetting, error) {
	if m.GetByChatFunc == nil {
		return &model.ChatSetting{ChatID: chatID}, nil
	}
	return m.GetByChatFunc(ctx, chatID)
}
func (m *mockSettingsUC) Ensure(ctx context.Context, rc *model.RequestContext) error {
	if m.EnsureFunc == nil {
		return nil
	}
	return m.EnsureFunc(ctx, rc)
}
func (m *mockSettingsUC) SetToggle(ctx context.Context, chatID int64, key model.SettingKey, enabled bool) error {
	return m.SetToggleFunc(ctx, chatID, key, enabled)
}
func (m *mockSettingsUC) Buttons(ctx context.Context, chatID int64) ([][]model.InlineButton, error) {
	if m.ButtonsFunc == nil {
		return [][]model.InlineButton{{{Text: "row", Data: "setting warn_username on"}}}, nil
	}
	return m.ButtonsFunc(ctx, chatID)
}

type sentCall struct {
	text string
	opt  usecase.SendOptions
}

type mockDeliveryUC struct {
	Sent []sentCall
}

func (m *mockDeliveryUC) Send(ctx context.Context, rc *model.RequestContext, text string, opt usecase.SendOptions) *model.Message {
	m.Sent = append(m.Sent, sentCall{text: text, opt: opt})
	return &model.Message{ID: 9000 + len(m.Sent)}
}
func (m *mockDeliveryUC) Edit(ctx context.Context, rc *model.RequestContext, messageID int, text string, opt usecase.SendOptions) *model.Message {
	return nil
}
func (m *mockDeliveryUC) Delete(ctx context.Context, chatID int64, messageID int) bool { return true }
func (m *mockDeliveryUC) DeleteMany(ctx context.Context, chatID int64, messageIDs []int) int {
	return len(messageIDs)
}
func (m *mockDeliveryUC) Forward(ctx context.Context, fromChatID, toChatID int64, messageID int) *model.Message {
	return nil
}
func (m *mockDeliveryUC) SendMedia(ctx context.Context, rc *model.RequestContext, chatID int64, item adapter.MediaItem) *model.Message {
	return nil
}
func (m *mockDeliveryUC) SendMediaGroup(ctx context.Context, rc *model.RequestContext, chatID int64, items []adapter.MediaItem) *model.DeliveryResult {
	return model.DeliveryOK(nil)
}
func (m *mockDeliveryUC) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) bool {
	return true
}
func (m *mockDeliveryUC) Restrict(ctx context.Context, chatID, userID int64, until time.Time, permit bool) *model.DeliveryResult {
	return model.DeliveryOK(nil)
}
func (m *mockDeliveryUC) SendEventLog(ctx context.Context, rc *model.RequestContext, note string, withForward bool) {
}

type mockVerificationUC struct {
	CheckUsernameFunc     func(ctx context.Context, rc *model.RequestContext) (bool, error)
	CheckProfilePhotoFunc func(ctx context.Context, rc *model.RequestContext) (bool, error)
	VerifyPendingFunc     func(ctx context.Context, rc *model.RequestContext) (bool, error)
}

func (m *mockVerificationUC) CheckUsername(ctx context.Context, rc *model.RequestContext) (bool, error) {
	if m.CheckUsernameFunc == nil {
		return true, nil
	}
	return m.CheckUsernameFunc(ctx, rc)
}
func (m *mockVerificationUC) CheckProfilePhoto(ctx context.Context, rc *model.RequestContext) (bool, error) {
	if m.CheckProfilePhotoFunc == nil {
		return true, nil
	}
	return m.CheckProfilePhotoFunc(ctx, rc)
}
func (m *mockVerificationUC) VerifyPending(ctx context.Context, rc *model.RequestContext) (bool, error) {
	return m.VerifyPendingFunc(ctx, rc)
}

type mockCallbackUC struct {
	Answers []model.CallbackAnswer
}

func (m *mockCallbackUC) Dispatch(ctx context.Context, rc *model.RequestContext, answer model.CallbackAnswer) *model.CallbackResult {
	m.Answers = append(m.Answers, answer)
	return &model.CallbackResult{IsSuccess: true}
}

type scheduledDeletion struct {
	chatID    int64
	messageID int
	flag      model.MessageFlag
}

type mockLifecycleUC struct {
	Deletions []scheduledDeletion
}

func (m *mockLifecycleUC) ScheduleDeletion(ctx context.Context, chatID, userID int64, messageID int, flag model.MessageFlag, deleteAt time.Time) error {
	m.Deletions = append(m.Deletions, scheduledDeletion{chatID: chatID, messageID: messageID, flag: flag})
	return nil
}
func (m *mockLifecycleUC) ScheduleKick(ctx context.Context, chatID, userID int64, name model.StepName, reason string, warnMessageID int) (string, error) {
	return "job-1", nil
}
func (m *mockLifecycleUC) RescheduleDeletion(ctx context.Context, chatID, userID int64, messageID int, flag model.MessageFlag, deleteAt time.Time) error {
	return nil
}
func (m *mockLifecycleUC) SweepOverdue(ctx context.Context) (int, error) { return 0, nil }

type mockPriv struct {
	IsAdminFunc func(ctx context.Context, chatID, userID int64) (bool, error)
}

func (m *mockPriv) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if m.IsAdminFunc == nil {
		return false, nil
	}
	return m.IsAdminFunc(ctx, chatID, userID)
}
func (m *mockPriv) IsBotAdmin(ctx context.Context, chatID int64) (bool, error) { return true, nil }
func (m *mockPriv) IsSudo(userID int64) bool                                   { return false }

// syncRunner executes submitted tasks inline so tests observe background
// side effects deterministically.
type syncRunner struct{}

func (syncRunner) Submit(task func(ctx context.Context) error) error {
	return task(context.Background())
}
