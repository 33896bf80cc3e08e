package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lorinsinzig/lisa-chat/backend/internal/config"
	chatHandler "github.com/lorinsinzig/lisa-chat/backend/internal/handler/chat"
	streamHandler "github.com/lorinsinzig/lisa-chat/backend/internal/handler/stream"
	middlewarePkg "github.com/lorinsinzig/lisa-chat/backend/internal/middleware"
	aiService "github.com/lorinsinzig/lisa-chat/backend/internal/service/ai"
	"github.com/lorinsinzig/lisa-chat/backend/internal/store"
	"github.com/lorinsinzig/lisa-chat/backend/pkg/utils"
	"github.com/lorinsinzig/lisa-chat/backend/web"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(s store.Store, aiSvc *aiService.Service, corsCfg config.CORSConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(corsCfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.New(s).RegisterRoutes(api)

		if aiSvc != nil {
			streamHandler.New(aiSvc, s).RegisterRoutes(api)
		} else {
			api.Post("/continueConversation", func(w http.ResponseWriter, _ *http.Request) {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
			})
		}
	})

	// Browser UI.
	r.Handle("/*", http.FileServer(http.FS(web.Static())))

	return r
}
