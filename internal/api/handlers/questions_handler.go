package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/metrics"
	"github.com/rentalqa/backend/internal/query"
	"github.com/rentalqa/backend/internal/storage/models"
	"github.com/rentalqa/backend/internal/submission"
	"github.com/rentalqa/backend/pkg/logger"
)

// QuestionLister serves the aggregated question list.
type QuestionLister interface {
	Questions(ctx context.Context) ([]models.QuestionWithResponses, error)
}

// Submitter writes a contributed question.
type Submitter interface {
	Submit(ctx context.Context, in submission.Input) (*submission.Result, error)
}

type QuestionsHandler struct {
	questions QuestionLister
	submitter Submitter
}

func NewQuestionsHandler(questions QuestionLister, submitter Submitter) *QuestionsHandler {
	return &QuestionsHandler{
		questions: questions,
		submitter: submitter,
	}
}

func (h *QuestionsHandler) ListQuestions(c *fiber.Ctx) error {
	criteria := query.Criteria{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if criteria.Category != "" && criteria.Category != query.CategoryAll {
		if _, err := models.ParseCategory(criteria.Category); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	items, err := h.questions.Questions(c.UserContext())
	if err != nil {
		logger.Error("Failed to list questions", zap.Error(err))

		resp := fiber.Map{"error": "Failed to load questions"}
		var fetchErr *query.FetchError
		if errors.As(err, &fetchErr) {
			resp["source"] = fetchErr.Source
		}
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	items = query.Filter(items, criteria)

	return c.JSON(fiber.Map{
		"data":  items,
		"count": len(items),
	})
}

func (h *QuestionsHandler) CreateQuestion(c *fiber.Ctx) error {
	var req submission.Input
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		metrics.SubmissionsTotal.WithLabelValues("error", "request").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":        "Invalid request body",
			"notification": submission.ErrorNotification,
		})
	}

	res, err := h.submitter.Submit(c.UserContext(), req)
	if err != nil {
		return submissionFailed(c, res, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"question":         res.Question,
		"expectedResponse": res.ExpectedResponse,
		"actualResponse":   res.ActualResponse,
		"notification":     submission.SuccessNotification,
	})
}

func submissionFailed(c *fiber.Ctx, res *submission.Result, err error) error {
	var validationErr *submission.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":        validationErr.Error(),
			"notification": submission.ErrorNotification,
		})
	}

	resp := fiber.Map{
		"error":        "Failed to submit question",
		"notification": submission.ErrorNotification,
	}

	var stepErr *submission.StepError
	if errors.As(err, &stepErr) {
		resp["step"] = stepErr.Step
	}
	if res != nil && res.Question != nil {
		resp["question"] = res.Question
	}

	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}
