package stream

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatHandler "github.com/zhouzirui/dsa-tutor/backend/internal/handler/chat"
	chatService "github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
	"github.com/zhouzirui/dsa-tutor/backend/pkg/utils"
)

// SSE event names.
const (
	EventUser    = "user"
	EventMessage = "message"
	EventEnd     = "end"
	EventError   = "error"
)

// Handler runs a chat turn and reports it as Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a stream handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts GET /chat/{chatID}/stream.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/{chatID}/stream", h.handleStream)
}

// StreamResponse is the data payload of every event.
type StreamResponse struct {
	ChatID  string `json:"chatId"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := chi.URLParam(r, "chatID")
	userMessage := strings.TrimSpace(r.URL.Query().Get("message"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if userMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	// fail with a plain status before the stream is opened
	if _, err := h.chatSvc.GetSession(ctx, chatID); err != nil {
		chatHandler.RespondServiceError(w, err)
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	result, err := h.chatSvc.StartTurn(ctx, chatID, userMessage)
	if err != nil {
		if !chatHandler.IsCancellation(err) {
			log.Printf("[stream] turn failed for chat=%s: %v", chatID, err)
		}
		_ = utils.SendSSEEvent(w, flusher, EventError, StreamResponse{ChatID: chatID, Error: chatHandler.MessageFor(err)})
		return
	}

	events := []struct {
		name    string
		payload any
	}{
		{EventUser, result.UserMessage},
		{EventMessage, result.BotMessage},
		{EventEnd, result.Session},
	}
	for _, ev := range events {
		if err := utils.SendSSEEvent(w, flusher, ev.name, StreamResponse{ChatID: chatID, Payload: ev.payload}); err != nil {
			log.Printf("[stream] client gone for chat=%s: %v", chatID, err)
			return
		}
	}

	log.Printf("[stream] completed turn for chat=%s", chatID)
}
