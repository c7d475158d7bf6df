package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/tags"
	"github.com/rentalqa/backend/pkg/logger"
)

const (
	defaultTagLimit  = 5
	maxTagLimit      = 20
	maxSuggestLength = 2000
)

type TagsHandler struct{}

func NewTagsHandler() *TagsHandler {
	return &TagsHandler{}
}

func (h *TagsHandler) SuggestTags(c *fiber.Ctx) error {
	text := c.Query("text")
	if len(text) > maxSuggestLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text exceeds maximum length",
		})
	}

	limit := c.QueryInt("limit", defaultTagLimit)
	if limit <= 0 || limit > maxTagLimit {
		limit = defaultTagLimit
	}

	suggested, err := tags.Suggest(text, limit)
	if err != nil {
		logger.Error("Failed to suggest tags", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to suggest tags",
		})
	}

	return c.JSON(fiber.Map{
		"tags": suggested,
	})
}
