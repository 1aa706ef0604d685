//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"telegram-group-warden/internal/domain"
	"telegram-group-warden/internal/domain/model"
)

func TestSettingsGetByChat(t *testing.T) {
	ctx := context.Background()

	t.Run("missing row reads as defaults", func(t *testing.T) {
		uc := NewSettingsUseCase(newMemSettingsRepo(), &mockTM{}, &mockPriv{}, testLogger())

		s, err := uc.GetByChat(ctx, -1001234)

		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if s.ChatID != -1001234 {
			t.Errorf("expected the chat id filled in, but got %d", s.ChatID)
		}
		if s.EnableWarnUsername || s.EnableHumanVerification {
			t.Error("expected every toggle off by default")
		}
	})
}

func TestSettingsEnsure(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the row from the request", func(t *testing.T) {
		// Arrange
		repo := newMemSettingsRepo()
		uc := NewSettingsUseCase(repo, &mockTM{}, &mockPriv{}, testLogger())
		uc.now = func() time.Time { return fixedNow }
		rc := groupRC(-1001234, 42, "hi")

		// Act
		if err := uc.Ensure(ctx, rc); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		// Assert
		s, err := uc.GetByChat(ctx, -1001234)
		if err != nil {
			t.Fatal(err)
		}
		if s.ChatTitle != "Test Group" {
			t.Errorf("expected the title captured, but got %q", s.ChatTitle)
		}
		if s.ChatType != model.ChatTypeSuperGroup {
			t.Errorf("expected the type captured, but got %s", s.ChatType)
		}
		if !s.IsBotAdmin {
			t.Error("expected the bot-admin flag captured")
		}
	})

	t.Run("unchanged request does not rewrite the row", func(t *testing.T) {
		repo := newMemSettingsRepo()
		uc := NewSettingsUseCase(repo, &mockTM{}, &mockPriv{}, testLogger())
		rc := groupRC(-1001234, 42, "hi")

		_ = uc.Ensure(ctx, rc)
		saves := repo.Saves
		_ = uc.Ensure(ctx, rc)

		if repo.Saves != saves {
			t.Errorf("expected no extra save, but saves went %d -> %d", saves, repo.Saves)
		}
	})

	t.Run("private chats are skipped", func(t *testing.T) {
		repo := newMemSettingsRepo()
		uc := NewSettingsUseCase(repo, &mockTM{}, &mockPriv{}, testLogger())
		upd := groupUpdate(4242, 42, "hi")
		upd.Message.Chat.Type = model.ChatTypePrivate
		rc := pinnedBuilder().Build(upd)

		if err := uc.Ensure(ctx, rc); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if repo.Saves != 0 {
			t.Errorf("expected no save for a private chat, but got %d", repo.Saves)
		}
	})
}

func TestSettingsSetToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the row when toggling a fresh chat", func(t *testing.T) {
		uc := NewSettingsUseCase(newMemSettingsRepo(), &mockTM{}, &mockPriv{}, testLogger())

		if err := uc.SetToggle(ctx, -1001234, model.SettingWarnUsername, true); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		s, _ := uc.GetByChat(ctx, -1001234)
		if !s.EnableWarnUsername {
			t.Error("expected the toggle on")
		}
	})

	t.Run("updates an existing row in place", func(t *testing.T) {
		repo := newMemSettingsRepo()
		uc := NewSettingsUseCase(repo, &mockTM{}, &mockPriv{}, testLogger())
		_ = uc.SetToggle(ctx, -1001234, model.SettingWarnUsername, true)
		saves := repo.Saves

		if err := uc.SetToggle(ctx, -1001234, model.SettingHumanVerification, true); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		if repo.Saves != saves {
			t.Errorf("expected the column update path, but saves went %d -> %d", saves, repo.Saves)
		}
		s, _ := uc.GetByChat(ctx, -1001234)
		if !s.EnableHumanVerification || !s.EnableWarnUsername {
			t.Error("expected both toggles on")
		}
	})

	t.Run("runs the ensure-then-update pair inside one transaction", func(t *testing.T) {
		repo := newMemSettingsRepo()
		tm := &mockTM{}
		uc := NewSettingsUseCase(repo, tm, &mockPriv{}, testLogger())

		if err := uc.SetToggle(ctx, -1001234, model.SettingWarnUsername, true); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		if tm.Calls != 1 {
			t.Fatalf("expected 1 transaction, but got %d", tm.Calls)
		}
		if _, ok := repo.LastTx.(*txMarker); !ok {
			t.Errorf("expected the tx handle to reach the repository, but got %T", repo.LastTx)
		}
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		uc := NewSettingsUseCase(newMemSettingsRepo(), &mockTM{}, &mockPriv{}, testLogger())
		if err := uc.SetToggle(ctx, -1001234, "bogus", true); !errors.Is(err, domain.ErrInvalidSettingKey) {
			t.Errorf("expected ErrInvalidSettingKey, but got %v", err)
		}
	})
}

func TestSettingsButtons(t *testing.T) {
	ctx := context.Background()

	uc := NewSettingsUseCase(newMemSettingsRepo(), &mockTM{}, &mockPriv{}, testLogger())
	_ = uc.SetToggle(ctx, -1001234, model.SettingWarnUsername, true)

	rows, err := uc.Buttons(ctx, -1001234)
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if len(rows) != len(model.SettingKeys) {
		t.Fatalf("expected %d rows, but got %d", len(model.SettingKeys), len(rows))
	}
	first := rows[0][0]
	if !strings.HasPrefix(first.Text, "✅") {
		t.Errorf("expected the enabled mark on %q", first.Text)
	}
	if first.Data != "setting warn_username off" {
		t.Errorf("expected the off transition in callback data, but got %q", first.Data)
	}
	second := rows[1][0]
	if !strings.HasPrefix(second.Text, "❌") {
		t.Errorf("expected the disabled mark on %q", second.Text)
	}
	if second.Data != "setting human_verification on" {
		t.Errorf("expected the on transition in callback data, but got %q", second.Data)
	}
}
