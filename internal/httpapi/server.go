// Package httpapi serves the chat page, its JSON equivalents and the
// operational endpoints.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medchat/internal/chat"
	"medchat/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Open(id string) (*chat.Session, bool)
	Session(id string) (*chat.Session, error)
	Submit(ctx context.Context, id, text string) (chat.Turn, error)
	Clear(id string) error
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsAllowedOrigins,
			AllowedMethods:   corsAllowedMethods,
			AllowedHeaders:   corsAllowedHeaders,
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	var limiter *rateLimiter
	if submitsPerMinute > 0 {
		limiter = newRateLimiter(submitsPerMinute)
	}
	pages := &pageHandlers{svc: svc, flashes: newFlashes(), limiter: limiter}
	api := &apiHandlers{svc: svc, limiter: limiter}

	r.Get("/", pages.index)
	r.Post("/chat", pages.chat)
	r.Post("/clear", pages.clear)

	r.Route("/api", func(r chi.Router) {
		r.Get("/turns", api.turns)
		r.Post("/submit", api.submit)
		r.Post("/clear", api.clear)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(svc.Status().State))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
