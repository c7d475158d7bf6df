// Package validation rejects write requests whose body is not JSON before
// they reach a handler. Field contents are left to the handler.
package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/metrics"
	"github.com/rentalqa/backend/pkg/logger"
)

type Config struct {
	AllowedContentTypes []string
	// Reject is merged into every rejection body.
	Reject fiber.Map
	Logger *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{fiber.MIMEApplicationJSON}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Log
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if !allowed(contentType, cfg.AllowedContentTypes) {
			cfg.Logger.Debug("Rejected request body",
				zap.String("path", c.Path()),
				zap.String("content_type", contentType),
			)
			metrics.SubmissionsTotal.WithLabelValues("error", "request").Inc()
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(rejection(cfg.Reject, "Unsupported content type"))
		}

		return c.Next()
	}
}

func allowed(contentType string, types []string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, t := range types {
		if mediaType == t {
			return true
		}
	}
	return false
}

func rejection(extra fiber.Map, msg string) fiber.Map {
	body := fiber.Map{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	return body
}
