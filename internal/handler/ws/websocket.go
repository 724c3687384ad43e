package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatHandler "github.com/zhouzirui/dsa-tutor/backend/internal/handler/chat"
	chatService "github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
)

const (
	defaultReadTimeout = 60 * time.Second
	writeTimeout       = 10 * time.Second
)

// Handler runs chat turns over a WebSocket, one turn per inbound message.
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
	// readTimeout bounds the silence between client frames outside a running turn.
	readTimeout time.Duration
}

// New creates a WebSocket handler. checkOrigin may be nil to accept any origin.
func New(chatSvc *chatService.Service, checkOrigin func(r *http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		chatSvc:     chatSvc,
		readTimeout: defaultReadTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts GET /chat/{chatID}/ws.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/{chatID}/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	ChatID    string `json:"chatId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(msg outgoingMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteJSON(msg)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if _, err := h.chatSvc.GetSession(r.Context(), chatID); err != nil {
		chatHandler.RespondServiceError(w, err)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	c := &conn{Conn: raw}
	defer c.Close()

	log.Printf("[websocket] new connection for chat=%s", chatID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	extendDeadline := func() error {
		return c.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
	_ = extendDeadline()
	c.SetPongHandler(func(string) error { return extendDeadline() })

	go pingLoop(ctx, c, h.readTimeout*9/10)

	h.sendResult(c, chatID, "connected", map[string]string{"status": "ready"})

	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		_ = extendDeadline()

		switch msg.Type {
		case "message":
			h.handleTurn(ctx, c, chatID, msg.Text)
			// pongs are not read while a turn runs
			_ = extendDeadline()
		case "ping":
			h.sendResult(c, chatID, "pong", nil)
		default:
			h.sendError(c, chatID, "unsupported message type: "+msg.Type)
		}
	}
}

func (h *Handler) handleTurn(ctx context.Context, c *conn, chatID, text string) {
	result, err := h.chatSvc.StartTurn(ctx, chatID, text)
	if err != nil {
		if !chatHandler.IsCancellation(err) {
			log.Printf("[websocket] turn failed for chat=%s: %v", chatID, err)
		}
		h.sendError(c, chatID, chatHandler.MessageFor(err))
		return
	}
	h.sendResult(c, chatID, "turn", result)
}

func (h *Handler) sendResult(c *conn, chatID, kind string, data any) {
	if err := c.send(outgoingMessage{Type: kind, ChatID: chatID, Data: data, Timestamp: time.Now().Unix()}); err != nil {
		log.Printf("[websocket] write %s failed: %v", kind, err)
	}
}

func (h *Handler) sendError(c *conn, chatID, message string) {
	msg := outgoingMessage{
		Type:      "error",
		ChatID:    chatID,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := c.send(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

func pingLoop(ctx context.Context, c *conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
