package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
)

// RouterConfig holds the edge settings for NewRouter.
type RouterConfig struct {
	// ToolsToken protects the tool endpoint when set.
	ToolsToken         string
	AllowedOrigins     []string
	RateLimitPerMinute int
	// Auth serves /api/auth/*. Nil leaves the path unrouted.
	Auth http.Handler
}

// NewRouter builds and returns the Chi router with all routes configured.
// Rate limiting is applied globally per IP. The tool endpoint requires
// bearer auth when a tools token is configured.
func NewRouter(handlers *Handlers, cfg RouterConfig, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 60
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	r.Use(httprate.LimitByIP(limit, time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc(db, redisClient, log))
		r.Get("/destinations", handlers.ListDestinations)
		r.Get("/destinations/{slug}", handlers.GetDestination)
		r.Get("/images", handlers.SearchImages)
		r.Get("/voice/token", handlers.VoiceToken)

		r.Post("/sessions", handlers.CreateSession)
		r.Get("/sessions/{id}", handlers.GetSession)
		r.Post("/sessions/{id}/chat", handlers.Chat)
		r.Post("/sessions/{id}/voice/toggle", handlers.ToggleVoice)

		r.Group(func(r chi.Router) {
			if cfg.ToolsToken != "" {
				r.Use(BearerAuth(cfg.ToolsToken))
			}
			r.Post("/sessions/{id}/tools/{name}", handlers.InvokeTool)
		})
	})

	if cfg.Auth != nil {
		r.Handle("/api/auth", cfg.Auth)
		r.Handle("/api/auth/*", cfg.Auth)
	}

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
