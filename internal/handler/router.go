package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/dsa-tutor/backend/internal/handler/account"
	"github.com/zhouzirui/dsa-tutor/backend/internal/handler/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/handler/stream"
	"github.com/zhouzirui/dsa-tutor/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/dsa-tutor/backend/internal/middleware"
	accountService "github.com/zhouzirui/dsa-tutor/backend/internal/service/account"
	chatService "github.com/zhouzirui/dsa-tutor/backend/internal/service/chat"
	"github.com/zhouzirui/dsa-tutor/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(accountSvc *accountService.Service, chatSvc *chatService.Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)

		account.New(accountSvc).RegisterRoutes(api)
		chat.New(chatSvc).RegisterRoutes(api)
		stream.New(chatSvc).RegisterRoutes(api)
		ws.New(chatSvc, originChecker(allowedOrigins)).RegisterRoutes(api)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// originChecker applies the CORS allow-list to WebSocket upgrades. Requests without an
// Origin header come from non-browser clients and are accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	if slices.Contains(allowed, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
