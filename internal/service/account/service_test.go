package account_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/user"
	"github.com/zhouzirui/dsa-tutor/backend/internal/service/account"
	chatsvc "github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store/memory"
)

func TestCreateGuest(t *testing.T) {
	svc := account.NewService(memory.New())

	u, err := svc.CreateGuest(context.Background())
	if err != nil {
		t.Fatalf("CreateGuest err: %v", err)
	}
	if !u.IsGuest || u.Name != "Guest User" {
		t.Fatalf("unexpected guest: %+v", u)
	}
	if !strings.HasPrefix(u.GuestID, "guest_") {
		t.Fatalf("unexpected guest id %q", u.GuestID)
	}

	got, err := svc.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.GuestID != u.GuestID {
		t.Fatalf("stored guest id mismatch: %q vs %q", got.GuestID, u.GuestID)
	}
}

func TestRegister(t *testing.T) {
	svc := account.NewService(memory.New())
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Ada ", "  Ada@Example.COM ")
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if u.Name != "Ada" || u.Email != "ada@example.com" || u.IsGuest {
		t.Fatalf("unexpected user: %+v", u)
	}

	cases := []struct {
		name, email string
		want        error
	}{
		{name: "", email: "a@b.co", want: account.ErrInvalidName},
		{name: "Ada", email: "", want: account.ErrInvalidEmail},
		{name: "Ada", email: "not-an-email", want: account.ErrInvalidEmail},
		{name: "Ada", email: "Ada <ada@example.com>", want: account.ErrInvalidEmail},
		{name: "Ada", email: "ada@localhost", want: account.ErrInvalidEmail},
		{name: strings.Repeat("a", 101), email: "long@example.com", want: account.ErrInvalidName},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.name, tc.email); !errors.Is(err, tc.want) {
			t.Fatalf("Register(%q, %q) err = %v, want %v", tc.name, tc.email, err, tc.want)
		}
	}
}

func TestGetUnknown(t *testing.T) {
	svc := account.NewService(memory.New())
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	st := memory.New()
	accounts := account.NewService(st)
	chats := chatsvc.NewService(st)
	ctx := context.Background()

	u, err := accounts.CreateGuest(ctx)
	if err != nil {
		t.Fatalf("CreateGuest err: %v", err)
	}

	empty, err := accounts.Stats(ctx, u.ID)
	if err != nil {
		t.Fatalf("Stats err: %v", err)
	}
	if empty.TotalChats != 0 || empty.LastChatAt != nil {
		t.Fatalf("unexpected empty stats: %+v", empty)
	}

	first, _ := chats.CreateSession(ctx, chatsvc.CreateParams{OwnerID: u.ID})
	if _, err := chats.CreateSession(ctx, chatsvc.CreateParams{OwnerID: u.ID}); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if _, err := chats.StartTurn(ctx, first.ID, "what is a heap"); err != nil {
		t.Fatalf("StartTurn err: %v", err)
	}
	turn, err := chats.StartTurn(ctx, first.ID, "and a trie?")
	if err != nil {
		t.Fatalf("StartTurn err: %v", err)
	}

	stats, err := accounts.Stats(ctx, u.ID)
	if err != nil {
		t.Fatalf("Stats err: %v", err)
	}
	if stats.TotalChats != 2 || stats.TotalMessages != 4 || stats.UserMessages != 2 || stats.BotMessages != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.LastChatAt == nil || !stats.LastChatAt.Equal(turn.Session.LastMessageAt) {
		t.Fatalf("unexpected lastChatAt: %v", stats.LastChatAt)
	}
	if stats.LastActivity == nil || !stats.LastActivity.Equal(turn.Session.UpdatedAt) {
		t.Fatalf("unexpected lastActivity: %v", stats.LastActivity)
	}

	if _, err := accounts.Stats(ctx, "missing"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := account.NewService(memory.New())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "A", "Same@Example.com"); err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if _, err := svc.Register(ctx, "B", "same@example.com"); !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := account.NewService(memory.New())
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, u.ID, "", "https://img.example.com/ada.png")
	if err != nil {
		t.Fatalf("UpdateProfile err: %v", err)
	}
	if updated.Name != "Ada" || updated.Picture != "https://img.example.com/ada.png" {
		t.Fatalf("unexpected user: %+v", updated)
	}

	renamed, err := svc.UpdateProfile(ctx, u.ID, " Ada L. ", "")
	if err != nil {
		t.Fatalf("UpdateProfile err: %v", err)
	}
	if renamed.Name != "Ada L." || renamed.Picture != updated.Picture {
		t.Fatalf("unexpected user: %+v", renamed)
	}
	got, _ := svc.Get(ctx, u.ID)
	if got.Name != "Ada L." {
		t.Fatalf("update not persisted: %+v", got)
	}

	cases := []struct {
		id, name, picture string
		want              error
	}{
		{id: u.ID, want: account.ErrNoProfileFields},
		{id: u.ID, picture: "ftp://img.example.com/a.png", want: account.ErrInvalidPicture},
		{id: u.ID, picture: "https://localhost", want: account.ErrInvalidPicture},
		{id: u.ID, name: strings.Repeat("x", 101), want: account.ErrInvalidName},
		{id: "missing", name: "Ghost", want: account.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.UpdateProfile(ctx, tc.id, tc.name, tc.picture); !errors.Is(err, tc.want) {
			t.Fatalf("UpdateProfile(%q, %q, %q) err = %v, want %v", tc.id, tc.name, tc.picture, err, tc.want)
		}
	}
}

func TestConvertGuest(t *testing.T) {
	st := memory.New()
	accounts := account.NewService(st)
	chats := chatsvc.NewService(st)
	ctx := context.Background()

	guest, err := accounts.CreateGuest(ctx)
	if err != nil {
		t.Fatalf("CreateGuest err: %v", err)
	}
	session, err := chats.CreateSession(ctx, chatsvc.CreateParams{OwnerID: guest.ID})
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	u, err := accounts.ConvertGuest(ctx, guest.GuestID, "Grace", "Grace@Example.com", "https://img.example.com/g.png")
	if err != nil {
		t.Fatalf("ConvertGuest err: %v", err)
	}
	if u.ID != guest.ID || u.IsGuest || u.GuestID != "" || u.Email != "grace@example.com" || u.Name != "Grace" {
		t.Fatalf("unexpected converted user: %+v", u)
	}
	list, err := chats.ListSessions(ctx, u.ID)
	if err != nil || len(list) != 1 || list[0].ID != session.ID {
		t.Fatalf("chats not kept after conversion: %+v, %v", list, err)
	}

	if _, err := accounts.ConvertGuest(ctx, guest.GuestID, "Grace", "grace@example.com", ""); !errors.Is(err, account.ErrGuestNotFound) {
		t.Fatalf("expected ErrGuestNotFound on second conversion, got %v", err)
	}

	other, _ := accounts.CreateGuest(ctx)
	if _, err := accounts.ConvertGuest(ctx, other.GuestID, "Copy", "GRACE@example.com", ""); !errors.Is(err, account.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := accounts.ConvertGuest(ctx, other.GuestID, "", "new@example.com", ""); !errors.Is(err, account.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestDeleteAndCleanupGuests(t *testing.T) {
	st := memory.New()
	accounts := account.NewService(st)
	chats := chatsvc.NewService(st)
	ctx := context.Background()

	u, _ := accounts.Register(ctx, "Ada", "ada@example.com")
	if _, err := chats.CreateSession(ctx, chatsvc.CreateParams{OwnerID: u.ID}); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if err := accounts.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if _, err := accounts.Get(ctx, u.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}
	if list, _ := chats.ListSessions(ctx, u.ID); len(list) != 0 {
		t.Fatalf("expected chats to be deleted with the user, got %d", len(list))
	}
	if err := accounts.Delete(ctx, u.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	stale := user.User{ID: "stale", Name: "Guest User", IsGuest: true, GuestID: "guest_stale", CreatedAt: old, LastActive: old}
	if err := st.CreateUser(ctx, stale); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}
	fresh, _ := accounts.CreateGuest(ctx)

	n, err := accounts.CleanupGuests(ctx)
	if err != nil {
		t.Fatalf("CleanupGuests err: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 guest removed, got %d", n)
	}
	if _, err := accounts.Get(ctx, stale.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected stale guest to be removed, got %v", err)
	}
	if _, err := accounts.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh guest removed: %v", err)
	}
}
