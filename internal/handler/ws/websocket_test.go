package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/model/user"
	"github.com/zhouzirui/dsa-tutor/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store/memory"
)

type reply struct {
	Type   string         `json:"type"`
	ChatID string         `json:"chatId"`
	Data   map[string]any `json:"data"`
}

func startServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	return startServerWith(t, memory.New(), nil)
}

// startServerWith serves a handler over st; configure may adjust the handler before it is mounted.
func startServerWith(t *testing.T, st store.Store, configure func(*Handler), opts ...chatservice.Option) (*httptest.Server, string) {
	t.Helper()
	ctx := context.Background()
	if err := st.CreateUser(ctx, user.User{ID: "u1", Name: "Ada"}); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}
	svc := chatservice.NewService(st, opts...)
	session, err := svc.CreateSession(ctx, chatservice.CreateParams{OwnerID: "u1"})
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	h := New(svc, nil)
	if configure != nil {
		configure(h)
	}
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, session.ID
}

func dial(t *testing.T, srv *httptest.Server, chatID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/" + chatID + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c
}

func read(t *testing.T, c *websocket.Conn) reply {
	t.Helper()
	var msg reply
	if err := c.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocketTurn(t *testing.T) {
	srv, chatID := startServer(t)
	c := dial(t, srv, chatID)

	if msg := read(t, c); msg.Type != "connected" {
		t.Fatalf("expected connected, got %+v", msg)
	}

	if err := c.WriteJSON(map[string]string{"type": "message", "text": "binary search trees explained simply now"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := read(t, c)
	if msg.Type != "turn" || msg.ChatID != chatID {
		t.Fatalf("expected turn, got %+v", msg)
	}
	session, _ := msg.Data["chat"].(map[string]any)
	if session["title"] != "Binary search trees explained simply..." {
		t.Fatalf("unexpected chat %v", session)
	}
	bot, _ := msg.Data["botMessage"].(map[string]any)
	if bot["sender"] != "bot" || bot["text"] == "" {
		t.Fatalf("unexpected bot message %v", bot)
	}
}

func TestWebSocketErrors(t *testing.T) {
	srv, chatID := startServer(t)
	c := dial(t, srv, chatID)
	read(t, c)

	for _, frame := range []map[string]string{
		{"type": "message", "text": "   "},
		{"type": "audio"},
	} {
		if err := c.WriteJSON(frame); err != nil {
			t.Fatalf("write: %v", err)
		}
		if msg := read(t, c); msg.Type != "error" {
			t.Fatalf("frame %v: expected error, got %+v", frame, msg)
		}
	}
}

func TestWebSocketUnknownChat(t *testing.T) {
	srv, _ := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %v", resp)
	}
}

// slowGenerator answers after delay, standing in for a sluggish remote model.
type slowGenerator struct {
	delay time.Duration
}

func (g slowGenerator) Generate(ctx context.Context, _ []chat.Message) ai.Result {
	select {
	case <-time.After(g.delay):
		return ai.Ok("a heap is a tree with the heap property")
	case <-ctx.Done():
		return ai.Failure(ctx.Err())
	}
}

func TestWebSocketSurvivesTurnLongerThanReadTimeout(t *testing.T) {
	srv, chatID := startServerWith(t, memory.New(),
		func(h *Handler) { h.readTimeout = 200 * time.Millisecond },
		chatservice.WithRemote(slowGenerator{delay: 400 * time.Millisecond}),
	)
	c := dial(t, srv, chatID)
	read(t, c)

	for i, text := range []string{"what is a heap", "and a min heap?"} {
		if err := c.WriteJSON(map[string]string{"type": "message", "text": text}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		if msg := read(t, c); msg.Type != "turn" {
			t.Fatalf("turn %d: expected turn, got %+v", i, msg)
		}
	}
}

type failingStore struct {
	*memory.Store
}

func (failingStore) SaveSession(context.Context, *chat.Session) error {
	return errors.New("write postgres://tutor:s3cret@db:5432/tutor: connection reset")
}

func TestWebSocketErrorFrameHidesStoreFailure(t *testing.T) {
	srv, chatID := startServerWith(t, failingStore{Store: memory.New()}, nil)
	c := dial(t, srv, chatID)
	read(t, c)

	if err := c.WriteJSON(map[string]string{"type": "message", "text": "what is a heap"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := read(t, c)
	if msg.Type != "error" {
		t.Fatalf("expected error, got %+v", msg)
	}
	text, _ := msg.Data["message"].(string)
	if strings.Contains(text, "s3cret") || strings.Contains(text, "postgres://") {
		t.Fatalf("store error leaked to client: %q", text)
	}
	if text != http.StatusText(http.StatusServiceUnavailable) {
		t.Fatalf("unexpected error text %q", text)
	}
}
