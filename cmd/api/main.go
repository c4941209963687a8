package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/dsfhealth/sahaya/internal/cache"
	"github.com/dsfhealth/sahaya/internal/config"
	"github.com/dsfhealth/sahaya/internal/database"
	"github.com/dsfhealth/sahaya/internal/identity"
	"github.com/dsfhealth/sahaya/internal/llm"
	"github.com/dsfhealth/sahaya/internal/metrics"
	"github.com/dsfhealth/sahaya/internal/modules/chat"
	"github.com/dsfhealth/sahaya/internal/modules/emergency"
	"github.com/dsfhealth/sahaya/internal/modules/profile"
	"github.com/dsfhealth/sahaya/internal/modules/supplement"
	"github.com/dsfhealth/sahaya/internal/notification"
	"github.com/dsfhealth/sahaya/internal/notification/templates"
	"github.com/dsfhealth/sahaya/internal/server"
	"github.com/dsfhealth/sahaya/internal/session"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		// Use a structured logger
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg := config.Load()
		if cfg == nil {
			logger.Error("failed to load configuration")
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)

		// --- Database & Cache ---
		dbPool := database.NewPostgresPool(cfg.Database.URL)
		if dbPool == nil {
			logger.Error("failed to connect to postgres")
			os.Exit(1)
		}
		hooks.OnStop(dbPool.Close)
		logger.Info("successfully connected to postgres database")
		redisClient := cache.NewRedisClient(cfg.Redis.URL)
		if redisClient == nil {
			logger.Error("failed to connect to redis")
			os.Exit(1)
		}
		hooks.OnStop(func() { redisClient.Close() })
		logger.Info("successfully connected to redis")

		// --- Identity & Sessions ---
		provider, err := identity.NewHTTPProvider(cfg.Identity.BaseURL, cfg.Identity.JWTSecret)
		if err != nil {
			logger.Error("failed to create identity provider", "error", err)
			os.Exit(1)
		}
		collector := metrics.NewCollector()
		sessions := session.NewRegistry(provider, redisClient, logger, collector, session.Config{
			VerifyTTL: cfg.Session.VerifyTTL,
			IdleTTL:   cfg.Session.IdleTTL,
		})
		hooks.OnStop(sessions.Close)

		// --- Module Initialization (Bottom-Up) ---

		// Chat relay. Without an API key the relay stays up but answers
		// every request with a configuration error.
		chatCfg := &chat.Config{Logger: logger, Metrics: collector}
		if cfg.Chat.APIKey != "" {
			client, err := llm.NewClient(cfg.Chat.APIKey, llm.WithBaseURL(cfg.Chat.BaseURL), llm.WithModel(cfg.Chat.Model))
			if err != nil {
				logger.Error("failed to create llm client", "error", err)
				os.Exit(1)
			}
			chatCfg.LLM = client
		} else {
			logger.Warn("⚠️ no llm api key configured, chat relay will reject requests")
		}
		chatService := chat.NewService(chatCfg)

		// Profile Module
		profileRepo := profile.NewRepository(dbPool)
		profileService := profile.NewService(&profile.Config{
			Repo:   profileRepo,
			Logger: logger,
		})

		// Supplement Module
		supplementRepo := supplement.NewRepository(dbPool)
		supplementService := supplement.NewService(&supplement.Config{
			Repo:    supplementRepo,
			Logger:  logger,
			Metrics: collector,
		})

		// Emergency Module
		emailSender := notification.NewSMTPEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger)
		notifier := notification.NewService(logger, emailSender, notification.NewDummySMSSender(logger))
		emergencyService := emergency.NewService(&emergency.Config{
			Profiles:      profileService,
			Notifier:      notifier,
			Renderer:      templates.NewEngine(templates.Config{}, logger),
			Logger:        logger,
			HelplineEmail: cfg.Emergency.ContactEmail,
		})

		router := server.New(cfg, logger, server.Dependencies{
			Sessions:   sessions,
			Publisher:  provider,
			Chat:       chatService,
			Profile:    profileService,
			Supplement: supplementService,
			Emergency:  emergencyService,
			Metrics:    collector,
		})

		port := options.Port
		if port == 0 {
			if parsed, err := strconv.Atoi(cfg.Server.Port); err == nil {
				port = parsed
			} else {
				port = 8080
			}
		}
		hooks.OnStart(func() {
			logger.Info(fmt.Sprintf("Starting server on port %d...", port))
			if err := http.ListenAndServe(fmt.Sprintf(":%d", port), router); err != nil {
				slog.Error("Server failed to start", "error", err)
				os.Exit(1)
			}
		})
	})
	cli.Run()
}
