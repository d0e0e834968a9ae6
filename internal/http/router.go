// Package http exposes the ask and health endpoints over chi.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/radulovicigor/CBCGchatbot/internal/handlers"
	"github.com/radulovicigor/CBCGchatbot/internal/service"
)

// requestTimeout bounds one ask, including retrieval and the completion call.
const requestTimeout = 90 * time.Second

// Deps holds what the router serves.
type Deps struct {
	AskService service.AskService
}

// NewRouter builds the chatbot API: POST /ask and GET /health.
// Unknown routes and wrong methods answer with a JSON error body.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handlers.Health)
	r.With(middleware.Timeout(requestTimeout)).Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.AskService))

	return r
}
