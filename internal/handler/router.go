package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yunxiao/lessonforge/backend/internal/handler/chat"
	"github.com/yunxiao/lessonforge/backend/internal/handler/profile"
	"github.com/yunxiao/lessonforge/backend/internal/handler/stream"
	middlewarePkg "github.com/yunxiao/lessonforge/backend/internal/middleware"
	"github.com/yunxiao/lessonforge/backend/internal/model/lesson"
	chatService "github.com/yunxiao/lessonforge/backend/internal/service/chat"
	"github.com/yunxiao/lessonforge/backend/internal/service/convert"
	"github.com/yunxiao/lessonforge/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. streamHandler is nil when
// the AI credentials are not configured; generation endpoints then report
// 503 while session and profile endpoints keep working.
func NewRouter(profiles lesson.Store, chatSvc *chatService.Service, converter *convert.Service, streamHandler *stream.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	profileHandler := profile.New(profiles)
	chatHandler := chat.New(chatSvc, profiles, converter)

	r.Route("/api", func(api chi.Router) {
		profileHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)

		// Streaming generation endpoint. An absent message parameter
		// consumes pending upload content instead.
		api.Get("/generate/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			task := r.URL.Query().Get("message")

			if streamHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}

			if err := streamHandler.HandleGenerateRequest(r.Context(), w, sessionID, task); err != nil {
				// SSE 头已发出，错误只能记录。
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		if streamHandler != nil {
			wsHandler := stream.NewWebSocketHandler(streamHandler)
			wsHandler.RegisterWebSocketRoutes(api)
		}
	})

	// 产物链接指向 public/ 下的文件，直接静态托管。
	fileServer := http.StripPrefix("/public/", http.FileServer(http.Dir("public")))
	r.Get("/public/*", func(w http.ResponseWriter, r *http.Request) {
		fileServer.ServeHTTP(w, r)
	})

	return r
}
