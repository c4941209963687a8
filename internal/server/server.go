package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dsfhealth/sahaya/internal/config"
	"github.com/dsfhealth/sahaya/internal/metrics"
	appmw "github.com/dsfhealth/sahaya/internal/middleware"
	"github.com/dsfhealth/sahaya/internal/modules/auth"
	"github.com/dsfhealth/sahaya/internal/modules/chat"
	"github.com/dsfhealth/sahaya/internal/modules/emergency"
	"github.com/dsfhealth/sahaya/internal/modules/profile"
	"github.com/dsfhealth/sahaya/internal/modules/supplement"
	"github.com/dsfhealth/sahaya/internal/session"
)

// Dependencies collects the wired services the server mounts.
type Dependencies struct {
	Sessions   *session.Registry
	Publisher  auth.Publisher
	Chat       chat.Service
	Profile    profile.Service
	Supplement supplement.Service
	Emergency  emergency.Service
	Metrics    *metrics.Collector
}

// New creates and configures a new server instance.
func New(cfg *config.Config, log *slog.Logger, deps Dependencies) chi.Router {
	router := chi.NewMux()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", appmw.PreviewKeyHeader},
		MaxAge:         300,
	}))

	// Staging-only access gate; disabled when no hash is configured.
	router.Use(appmw.PreviewGate(cfg.Preview.PasswordHash, log))

	// Non-API mounts: the chat relay keeps its own permissive CORS and wire
	// contract, the webhook authenticates via shared secret, metrics stays
	// off the OpenAPI surface.
	chatHandler := chat.NewHandler(deps.Chat, log)
	router.Mount("/chat", chatHandler.Routes())

	webhook := auth.NewWebhookHandler(deps.Publisher, cfg.Identity.WebhookSecret, log)
	router.Method(http.MethodPost, "/auth/events", webhook)

	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	apiConfig := huma.DefaultConfig("Sahaya API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(router, apiConfig)

	// The session guard runs only for operations that declare bearerAuth.
	guard := appmw.SessionGuardHuma(deps.Sessions, log)
	api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
		if operationNeedsAuth(ctx.Operation()) {
			guard(ctx, next)
			return
		}
		next(ctx)
	})

	auth.NewHandler(deps.Sessions, log).RegisterRoutes(api)
	profile.NewHandler(deps.Profile, log).RegisterRoutes(api)
	supplement.NewHandler(deps.Supplement, log).RegisterRoutes(api)
	emergency.NewHandler(deps.Emergency, log).RegisterRoutes(api)

	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health Check",
		Description: "Responds with the server's health status.",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Status string `json:"status"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status"`
			}
		}{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	return router
}

func operationNeedsAuth(op *huma.Operation) bool {
	if op == nil {
		return false
	}
	for _, requirement := range op.Security {
		if _, ok := requirement["bearerAuth"]; ok {
			return true
		}
	}
	return false
}
