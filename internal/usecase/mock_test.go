//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/domain/ports/adapter"
	"telegram-group-warden/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// fixedNow is the reference instant tests pin clocks to.
var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// =============================
// Adapters
// =============================

// ---- Mock BotClient ----

type mockBot struct {
	mu     sync.Mutex
	nextID int

	Sent       []adapter.SendMessageParams
	Edited     []adapter.EditMessageParams
	Deleted    [][2]int64 // chatID, messageID
	Forwarded  [][3]int64
	Restricted []adapter.RestrictParams
	Banned     [][2]int64
	Unbanned   [][2]int64
	Answered   []string

	SendMessageFunc     func(ctx context.Context, p adapter.SendMessageParams) (*model.Message, error)
	EditMessageFunc     func(ctx context.Context, p adapter.EditMessageParams) (*model.Message, error)
	DeleteMessageFunc   func(ctx context.Context, chatID int64, messageID int) error
	RestrictFunc        func(ctx context.Context, p adapter.RestrictParams) error
	HasProfilePhotoFunc func(ctx context.Context, userID int64) (bool, error)
}

var _ adapter.BotClient = (*mockBot)(nil)

func (m *mockBot) nextMessage(chatID int64) *model.Message {
	m.nextID++
	return &model.Message{ID: 1000 + m.nextID, Chat: &model.Chat{ID: chatID, Type: model.ChatTypeSuperGroup}, Date: fixedNow}
}

func (m *mockBot) SendMessage(ctx context.Context, p adapter.SendMessageParams) (*model.Message, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, p)
	msg := m.nextMessage(p.ChatID)
	msg.Text = p.Text
	return msg, nil
}

func (m *mockBot) EditMessageText(ctx context.Context, p adapter.EditMessageParams) (*model.Message, error) {
	if m.EditMessageFunc != nil {
		return m.EditMessageFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, p)
	return &model.Message{ID: p.MessageID, Chat: &model.Chat{ID: p.ChatID, Type: model.ChatTypeSuperGroup}, Text: p.Text}, nil
}

func (m *mockBot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, chatID, messageID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, [2]int64{chatID, int64(messageID)})
	return nil
}

func (m *mockBot) ForwardMessage(ctx context.Context, fromChatID, toChatID int64, messageID int) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Forwarded = append(m.Forwarded, [3]int64{fromChatID, toChatID, int64(messageID)})
	return m.nextMessage(toChatID), nil
}

func (m *mockBot) SendMedia(ctx context.Context, chatID int64, item adapter.MediaItem) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextMessage(chatID), nil
}

func (m *mockBot) SendMediaGroup(ctx context.Context, chatID int64, items []adapter.MediaItem) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Message, 0, len(items))
	for range items {
		out = append(out, m.nextMessage(chatID))
	}
	return out, nil
}

func (m *mockBot) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answered = append(m.Answered, callbackID)
	return nil
}

func (m *mockBot) RestrictChatMember(ctx context.Context, p adapter.RestrictParams) error {
	if m.RestrictFunc != nil {
		return m.RestrictFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Restricted = append(m.Restricted, p)
	return nil
}

func (m *mockBot) BanChatMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Banned = append(m.Banned, [2]int64{chatID, userID})
	return nil
}

func (m *mockBot) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unbanned = append(m.Unbanned, [2]int64{chatID, userID})
	return nil
}

func (m *mockBot) HasProfilePhoto(ctx context.Context, userID int64) (bool, error) {
	if m.HasProfilePhotoFunc != nil {
		return m.HasProfilePhotoFunc(ctx, userID)
	}
	return true, nil
}

func (m *mockBot) Username() string { return "warden_bot" }

// ---- Mock PrivilegeResolver ----

type mockPriv struct {
	IsAdminFunc    func(ctx context.Context, chatID, userID int64) (bool, error)
	IsBotAdminFunc func(ctx context.Context, chatID int64) (bool, error)
	Sudoers        map[int64]bool
}

var _ adapter.PrivilegeResolver = (*mockPriv)(nil)

func (m *mockPriv) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if m.IsAdminFunc != nil {
		return m.IsAdminFunc(ctx, chatID, userID)
	}
	return false, nil
}

func (m *mockPriv) IsBotAdmin(ctx context.Context, chatID int64) (bool, error) {
	if m.IsBotAdminFunc != nil {
		return m.IsBotAdminFunc(ctx, chatID)
	}
	return true, nil
}

func (m *mockPriv) IsSudo(userID int64) bool { return m.Sudoers[userID] }

// ---- Inline BackgroundRunner ----

// syncRunner executes submitted tasks inline so tests see their effects
// immediately.
type syncRunner struct{}

var _ adapter.BackgroundRunner = (*syncRunner)(nil)

func (syncRunner) Submit(task func(ctx context.Context) error) error {
	return task(context.Background())
}

// =============================
// Repositories
// =============================

// ---- Mock DeferredQueue ----

type scheduledJob struct {
	ID    string
	Name  string
	Delay time.Duration
	Task  func(ctx context.Context) error
}

type mockQueue struct {
	mu   sync.Mutex
	Jobs []scheduledJob
}

var _ repository.DeferredQueue = (*mockQueue)(nil)

func (q *mockQueue) Schedule(name string, delay time.Duration, task func(ctx context.Context) error) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := uuid.NewString()
	q.Jobs = append(q.Jobs, scheduledJob{ID: id, Name: name, Delay: delay, Task: task})
	return id, nil
}

// fire runs every captured job, simulating its deadline passing.
func (q *mockQueue) fire(ctx context.Context) {
	q.mu.Lock()
	jobs := append([]scheduledJob(nil), q.Jobs...)
	q.Jobs = q.Jobs[:0]
	q.mu.Unlock()
	for _, j := range jobs {
		_ = j.Task(ctx)
	}
}

func (q *mockQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Jobs)
}

// ---- TransactionManager ----

// txMarker is the handle mockTM hands to the callback so tests can check it
// reached the repository.
type txMarker struct{}

type mockTM struct {
	mu    sync.Mutex
	Calls int
}

var _ repository.TransactionManager = (*mockTM)(nil)

func (m *mockTM) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return fn(ctx, &txMarker{})
}

// ---- In-memory SettingsRepository ----

type memSettingsRepo struct {
	mu     sync.Mutex
	rows   map[int64]*model.ChatSetting
	Saves  int
	LastTx repository.Tx
}

var _ repository.SettingsRepository = (*memSettingsRepo)(nil)

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{rows: make(map[int64]*model.ChatSetting)}
}

func (r *memSettingsRepo) FindByChat(ctx context.Context, tx repository.Tx, chatID int64) (*model.ChatSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.ChatSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.rows[s.ChatID] = &cp
	r.Saves++
	r.LastTx = tx
	return nil
}

func (r *memSettingsRepo) UpdateToggle(ctx context.Context, tx repository.Tx, chatID int64, key model.SettingKey, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[chatID]
	if !ok {
		return domain.ErrNotFound
	}
	s.SetToggle(key, enabled)
	r.LastTx = tx
	return nil
}

// ---- In-memory MessageHistoryRepository ----

type historyKey struct {
	chatID    int64
	messageID int
}

type memHistoryRepo struct {
	mu   sync.Mutex
	rows map[historyKey]*model.MessageHistory
}

var _ repository.MessageHistoryRepository = (*memHistoryRepo)(nil)

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{rows: make(map[historyKey]*model.MessageHistory)}
}

func (r *memHistoryRepo) Save(ctx context.Context, tx repository.Tx, h *model.MessageHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *h
	r.rows[historyKey{h.ChatID, h.MessageID}] = &cp
	return nil
}

func (r *memHistoryRepo) FindByMessage(ctx context.Context, tx repository.Tx, chatID int64, messageID int) (*model.MessageHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.rows[historyKey{chatID, messageID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *memHistoryRepo) DeleteByMessage(ctx context.Context, tx repository.Tx, chatID int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := historyKey{chatID, messageID}
	if _, ok := r.rows[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, key)
	return nil
}

func (r *memHistoryRepo) FindDue(ctx context.Context, tx repository.Tx, until time.Time, limit int) ([]*model.MessageHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.MessageHistory, 0)
	for _, h := range r.rows {
		if !h.DeleteAt.After(until) {
			cp := *h
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memHistoryRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// ---- In-memory StepHistoryRepository ----

type stepKey struct {
	chatID int64
	userID int64
	name   model.StepName
}

type memStepRepo struct {
	mu   sync.Mutex
	rows map[stepKey]*model.StepHistory
}

var _ repository.StepHistoryRepository = (*memStepRepo)(nil)

func newMemStepRepo() *memStepRepo {
	return &memStepRepo{rows: make(map[stepKey]*model.StepHistory)}
}

func (r *memStepRepo) Save(ctx context.Context, tx repository.Tx, s *model.StepHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.rows[stepKey{s.ChatID, s.UserID, s.Name}] = &cp
	return nil
}

func (r *memStepRepo) Find(ctx context.Context, tx repository.Tx, chatID, userID int64, name model.StepName) (*model.StepHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[stepKey{chatID, userID, name}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memStepRepo) FindPending(ctx context.Context, tx repository.Tx, chatID, userID int64) ([]*model.StepHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.StepHistory, 0)
	for _, s := range r.rows {
		if s.ChatID == chatID && s.UserID == userID && s.Status == model.StepNeedVerify {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memStepRepo) UpdateStatus(ctx context.Context, tx repository.Tx, chatID, userID int64, name model.StepName, status model.StepStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[stepKey{chatID, userID, name}]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	return nil
}

// =============================
// Fixture helpers
// =============================

func groupUpdate(chatID, userID int64, text string) *model.Update {
	return &model.Update{
		ID: 1,
		Message: &model.Message{
			ID:   500,
			Chat: &model.Chat{ID: chatID, Type: model.ChatTypeSuperGroup, Title: "Test Group"},
			From: &model.User{ID: userID, Username: "member", FirstName: "Mem"},
			Date: fixedNow.Add(-2 * time.Second),
			Text: text,
		},
	}
}

func groupRC(chatID, userID int64, text string) *model.RequestContext {
	b := NewContextBuilder(&mockPriv{}, "warden_bot")
	b.now = func() time.Time { return fixedNow.Add(-time.Second) }
	return b.Build(groupUpdate(chatID, userID, text))
}
