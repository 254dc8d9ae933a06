package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"goa.design/clue/log"

	"lingo-backend/internal/handlers"
	"lingo-backend/internal/middleware"
	"lingo-backend/internal/websocket"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Chat   *handlers.ChatHandler
	Lesson *handlers.LessonHandler
	Vocab  *handlers.VocabHandler
	OCR    *handlers.OCRHandler
	System *handlers.SystemHandler
	Hub    *websocket.Hub
}

// Limits are the per-client budgets for the chat endpoints and the /api tree.
type Limits struct {
	Chat middleware.Limiter
	API  middleware.Limiter
}

// New builds the HTTP router. Requests log with the given clue format.
func New(format log.FormatFunc, jwtAuth *middleware.JWTAuth, h Handlers, limits Limits, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(format))
	r.Use(middleware.CORS(allowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── Chat Stream ────
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limits.Chat))
		r.Post("/chat", h.Chat.Stream)
		r.Get("/chat/ws", h.Hub.HandleWebSocket)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(log.HTTP(log.Context(context.Background(), log.WithFormat(format))))
		r.Use(middleware.RateLimit(limits.API))

		// ──── System Routes (public) ────
		r.Route("/system", func(r chi.Router) {
			r.Get("/healthz", h.System.Health)
			r.Get("/readyz", h.System.Ready)
			r.Get("/version", h.System.Version)
		})

		// ──── AI Routes ────
		r.Route("/ai", func(r chi.Router) {
			r.Post("/ocr", h.OCR.Recognize)
		})

		// ──── Lesson Routes ────
		r.Route("/lessons", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", h.Lesson.List)
			r.Post("/", h.Lesson.Create)
			r.Put("/{id}/complete", h.Lesson.Complete)
		})

		// ──── Vocab Routes ────
		r.Route("/vocab", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", h.Vocab.List)
			r.Post("/", h.Vocab.Create)
			r.Get("/review", h.Vocab.Review)
		})
	})

	return r
}
