package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	accountService "github.com/zhouzirui/dsa-tutor/backend/internal/service/account"
	"github.com/zhouzirui/dsa-tutor/backend/pkg/utils"
)

// Handler serves guest sign-in and user profile endpoints.
type Handler struct {
	accounts *accountService.Service
}

// New creates an account handler.
func New(accounts *accountService.Service) *Handler {
	return &Handler{accounts: accounts}
}

// RegisterRoutes mounts the account routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/guest", h.handleCreateGuest)
	r.Post("/auth/convert-guest", h.handleConvertGuest)

	r.Route("/user", func(r chi.Router) {
		r.Post("/", h.handleRegister)
		r.Delete("/cleanup/guests", h.handleCleanupGuests)
		r.Get("/{userID}", h.handleGetUser)
		r.Put("/{userID}", h.handleUpdateUser)
		r.Delete("/{userID}", h.handleDeleteUser)
		r.Get("/{userID}/stats", h.handleStats)
	})
}

func (h *Handler) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.CreateGuest(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"user":    u,
		"message": "guest session created",
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.accounts.Register(r.Context(), payload.Name, payload.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleConvertGuest(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		GuestID  string `json:"guestId"`
		UserInfo *struct {
			Name    string `json:"name"`
			Email   string `json:"email"`
			Picture string `json:"picture"`
		} `json:"userInfo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.GuestID == "" || payload.UserInfo == nil {
		utils.RespondError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	info := payload.UserInfo
	u, err := h.accounts.ConvertGuest(r.Context(), payload.GuestID, info.Name, info.Email, info.Picture)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.accounts.UpdateProfile(r.Context(), chi.URLParam(r, "userID"), payload.Name, payload.Picture)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *Handler) handleCleanupGuests(w http.ResponseWriter, r *http.Request) {
	n, err := h.accounts.CleanupGuests(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"deletedCount": n,
		"message":      fmt.Sprintf("cleaned up %d inactive guest accounts", n),
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.accounts.Stats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accountService.ErrInvalidName),
		errors.Is(err, accountService.ErrInvalidEmail),
		errors.Is(err, accountService.ErrInvalidPicture),
		errors.Is(err, accountService.ErrNoProfileFields):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, accountService.ErrNotFound), errors.Is(err, accountService.ErrGuestNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, accountService.ErrEmailTaken):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, accountService.ErrUnavailable):
		log.Printf("[account] request failed: %v", err)
		utils.RespondError(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
	default:
		log.Printf("[account] request failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
