package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/model/user"
	chatservice "github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store/memory"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	st := memory.New()
	if err := st.CreateUser(context.Background(), user.User{ID: "u1", Name: "Ada"}); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}

	r := chi.NewRouter()
	New(chatservice.NewService(st)).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) map[string]any {
	t.Helper()
	resp := do(r, http.MethodPost, "/chat/user/u1", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var session map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestCreateSession(t *testing.T) {
	r := setupRouter(t)

	session := createSession(t, r)
	if session["title"] != "New Chat" || session["userId"] != "u1" {
		t.Fatalf("unexpected session: %v", session)
	}

	resp := do(r, http.MethodPost, "/chat/user/u1", map[string]any{
		"title":          "Graphs",
		"initialMessage": map[string]string{"text": "hi"},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}

func TestCreateSessionUnknownUser(t *testing.T) {
	r := setupRouter(t)

	resp := do(r, http.MethodPost, "/chat/user/ghost", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSendMessage(t *testing.T) {
	r := setupRouter(t)
	session := createSession(t, r)
	path := fmt.Sprintf("/chat/%s/message", session["id"])

	resp := do(r, http.MethodPost, path, map[string]string{"message": "explain tree"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result struct {
		Chat struct {
			Title    string           `json:"title"`
			Messages []map[string]any `json:"messages"`
		} `json:"chat"`
		UserMessage map[string]any `json:"userMessage"`
		BotMessage  map[string]any `json:"botMessage"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Chat.Title != "Explain tree" || len(result.Chat.Messages) != 2 {
		t.Fatalf("unexpected chat: %+v", result.Chat)
	}
	if result.UserMessage["sender"] != "user" || result.BotMessage["sender"] != "bot" {
		t.Fatalf("unexpected senders: %v / %v", result.UserMessage, result.BotMessage)
	}
}

func TestSendMessageErrors(t *testing.T) {
	r := setupRouter(t)
	session := createSession(t, r)

	cases := []struct {
		name string
		path string
		body any
		want int
	}{
		{name: "blank message", path: fmt.Sprintf("/chat/%s/message", session["id"]), body: map[string]string{"message": "  "}, want: http.StatusBadRequest},
		{name: "missing body", path: fmt.Sprintf("/chat/%s/message", session["id"]), body: nil, want: http.StatusBadRequest},
		{name: "unknown chat", path: "/chat/missing/message", body: map[string]string{"message": "hi"}, want: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if resp := do(r, http.MethodPost, tc.path, tc.body); resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestListGetAndDelete(t *testing.T) {
	r := setupRouter(t)
	first := createSession(t, r)
	createSession(t, r)

	resp := do(r, http.MethodGet, "/chat/user/u1", nil)
	var sessions []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &sessions); err != nil || len(sessions) != 2 {
		t.Fatalf("unexpected list %s (err=%v)", resp.Body.String(), err)
	}

	path := fmt.Sprintf("/chat/%s", first["id"])
	if resp := do(r, http.MethodGet, path, nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := do(r, http.MethodDelete, path, nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := do(r, http.MethodGet, path, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	resp = do(r, http.MethodDelete, "/chat/user/u1/all", nil)
	var deleted struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &deleted); err != nil || deleted.DeletedCount != 1 {
		t.Fatalf("unexpected delete-all response %s", resp.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		chatservice.ErrInvalidInput:                         http.StatusBadRequest,
		chatservice.ErrSessionNotFound:                      http.StatusNotFound,
		chatservice.ErrOwnerNotFound:                        http.StatusNotFound,
		fmt.Errorf("%w: timeout", chatservice.ErrTransient): http.StatusServiceUnavailable,
		errors.New("boom"):                                  http.StatusInternalServerError,
		context.Canceled:                                    499,
		fmt.Errorf("turn: %w", context.DeadlineExceeded):    http.StatusGatewayTimeout,
	}
	for err, want := range cases {
		if got := StatusFor(err); got != want {
			t.Fatalf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestMessageForHidesServerErrors(t *testing.T) {
	leaky := fmt.Errorf("%w: dial postgres://tutor:s3cret@db:5432/tutor: connection refused", chatservice.ErrTransient)
	cases := map[error]string{
		chatservice.ErrInvalidInput:    chatservice.ErrInvalidInput.Error(),
		chatservice.ErrSessionNotFound: chatservice.ErrSessionNotFound.Error(),
		leaky:                          http.StatusText(http.StatusServiceUnavailable),
		errors.New("pq: relation chat_sessions does not exist"): http.StatusText(http.StatusInternalServerError),
		context.Canceled:         "request cancelled",
		context.DeadlineExceeded: "request timed out",
	}
	for err, want := range cases {
		if got := MessageFor(err); got != want {
			t.Fatalf("MessageFor(%v) = %q, want %q", err, got, want)
		}
	}
}

// failingStore refuses every save with a driver error that names the DSN.
type failingStore struct {
	*memory.Store
}

func (failingStore) SaveSession(context.Context, *chat.Session) error {
	return errors.New("write postgres://tutor:s3cret@db:5432/tutor: connection reset")
}

func TestSendMessageDoesNotLeakStoreErrors(t *testing.T) {
	st := failingStore{Store: memory.New()}
	if err := st.CreateUser(context.Background(), user.User{ID: "u1", Name: "Ada"}); err != nil {
		t.Fatalf("CreateUser err: %v", err)
	}
	r := chi.NewRouter()
	New(chatservice.NewService(st)).RegisterRoutes(r)

	session := createSession(t, r)
	resp := do(r, http.MethodPost, fmt.Sprintf("/chat/%s/message", session["id"]), map[string]string{"message": "hi"})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if body := resp.Body.String(); strings.Contains(body, "s3cret") || strings.Contains(body, "postgres://") {
		t.Fatalf("store error leaked to client: %s", body)
	}
}

func TestSendMessageCancelledByClient(t *testing.T) {
	r := setupRouter(t)
	session := createSession(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/chat/%s/message", session["id"]),
		strings.NewReader(`{"message":"what is a queue"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != 499 {
		t.Fatalf("expected 499, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "request cancelled") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}
