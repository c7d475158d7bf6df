// Package api assembles the HTTP application.
package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rentalqa/backend/internal/api/handlers"
	"github.com/rentalqa/backend/internal/metrics"
	"github.com/rentalqa/backend/internal/middleware/ratelimit"
	"github.com/rentalqa/backend/internal/middleware/security"
	"github.com/rentalqa/backend/internal/middleware/validation"
	"github.com/rentalqa/backend/internal/submission"
	"github.com/rentalqa/backend/pkg/config"
	"github.com/rentalqa/backend/pkg/logger"
)

type Deps struct {
	Questions handlers.QuestionLister
	Submitter handlers.Submitter
	Store     handlers.Pinger
	Limiter   *ratelimit.RateLimiter
}

func NewApp(cfg config.ServerConfig, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "rentalqa",
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit,
	})

	app.Use(recover.New())
	if cfg.Development {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins(cfg.AllowedOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID, If-None-Match",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		IsDevelopment:  cfg.Development,
	}))
	app.Use(etag.New())

	questionsHandler := handlers.NewQuestionsHandler(deps.Questions, deps.Submitter)
	tagsHandler := handlers.NewTagsHandler()
	healthHandler := handlers.NewHealthHandler(deps.Store)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Config{Logger: logger.Log})
		app.Hooks().OnShutdown(func() error {
			limiter.Stop()
			return nil
		})
	}

	api := app.Group("/api/v1")

	api.Get("/questions", questionsHandler.ListQuestions)
	api.Post("/questions",
		limiter.Middleware(),
		validation.Middleware(validation.Config{
			Reject: fiber.Map{"notification": submission.ErrorNotification},
			Logger: logger.Log,
		}),
		questionsHandler.CreateQuestion,
	)

	api.Get("/tags/suggest", tagsHandler.SuggestTags)

	api.Get("/health", healthHandler.Health)
	api.Get("/ready", healthHandler.Ready)

	app.Get("/metrics", metrics.MetricsHandler())

	return app
}

func allowOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}
