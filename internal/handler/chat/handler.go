package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	chatService "github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
	"github.com/zhouzirui/dsa-tutor/backend/pkg/utils"
)

// Handler serves the chat session REST endpoints.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/user/{userID}", h.handleListSessions)
	r.Post("/chat/user/{userID}", h.handleCreateSession)
	r.Delete("/chat/user/{userID}/all", h.handleDeleteAllSessions)

	r.Get("/chat/{chatID}", h.handleGetSession)
	r.Delete("/chat/{chatID}", h.handleDeleteSession)
	r.Post("/chat/{chatID}/message", h.handleSendMessage)
}

// statusClientClosedRequest is the non-standard status for a request the client abandoned.
const statusClientClosedRequest = 499

// StatusFor maps chat service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrSessionNotFound), errors.Is(err, chatService.ErrOwnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, chatService.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the client-facing text for err. Only the sentinel text of request errors is
// exposed; server-side failures are reduced to their status text.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, chatService.ErrInvalidInput):
		return chatService.ErrInvalidInput.Error()
	case errors.Is(err, chatService.ErrSessionNotFound):
		return chatService.ErrSessionNotFound.Error()
	case errors.Is(err, chatService.ErrOwnerNotFound):
		return chatService.ErrOwnerNotFound.Error()
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		return http.StatusText(StatusFor(err))
	}
}

// IsCancellation reports whether err only records that the caller went away or ran out of time.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// RespondServiceError writes err with the matching status. Internal details are only logged.
func RespondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && !IsCancellation(err) {
		log.Printf("[chat] request failed: %v", err)
	}
	utils.RespondError(w, status, MessageFor(err))
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatSvc.ListSessions(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title          string `json:"title"`
		InitialMessage *struct {
			Text   string      `json:"text"`
			Sender chat.Sender `json:"sender"`
		} `json:"initialMessage"`
	}

	// an empty body creates an untitled session
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := chatService.CreateParams{
		OwnerID: chi.URLParam(r, "userID"),
		Title:   payload.Title,
	}
	if payload.InitialMessage != nil {
		params.InitialMessage = &chat.Message{
			Text:   payload.InitialMessage.Text,
			Sender: payload.InitialMessage.Sender,
		}
	}

	session, err := h.chatSvc.CreateSession(r.Context(), params)
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleDeleteAllSessions(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.chatSvc.DeleteAllSessions(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message":      "chats deleted",
		"deletedCount": deleted,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "chatID")); err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "chat deleted"})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chatSvc.StartTurn(r.Context(), chi.URLParam(r, "chatID"), payload.Message)
	if err != nil {
		RespondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}
