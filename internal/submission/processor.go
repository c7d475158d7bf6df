package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/metrics"
	"github.com/rentalqa/backend/internal/query"
	"github.com/rentalqa/backend/internal/storage/models"
	"github.com/rentalqa/backend/pkg/logger"
)

// Input is a contributed question with its optional first responses.
type Input struct {
	Question         string          `json:"question" validate:"required"`
	ExpectedResponse string          `json:"expectedResponse"`
	ActualResponse   string          `json:"actualResponse"`
	Category         models.Category `json:"category" validate:"omitempty,oneof=tenant-to-landlord landlord-to-tenant"`
	Tags             []string        `json:"tags"`
}

// Result holds the rows written so far. After a failed step it still carries
// whatever was committed before the failure.
type Result struct {
	Question         *models.Question
	ExpectedResponse *models.ExpectedResponse
	ActualResponse   *models.ActualResponse
}

// Store is the write side of the data store.
type Store interface {
	InsertQuestion(ctx context.Context, q *models.Question) error
	InsertExpectedResponse(ctx context.Context, r *models.ExpectedResponse) error
	InsertActualResponse(ctx context.Context, r *models.ActualResponse) error
}

// Invalidator drops a cached query result.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

type Processor struct {
	store    Store
	cache    Invalidator
	notifier Notifier
	validate *validator.Validate

	pending atomic.Int64
}

func NewProcessor(store Store, cache Invalidator, notifier Notifier) *Processor {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Processor{
		store:    store,
		cache:    cache,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Submit runs a fresh Mutation for in.
func (p *Processor) Submit(ctx context.Context, in Input) (*Result, error) {
	return p.NewMutation().Mutate(ctx, in)
}

// Pending reports whether any submission is currently writing.
func (p *Processor) Pending() bool {
	return p.pending.Load() > 0
}

// Normalize applies the category and tag defaults. Text fields are kept
// exactly as submitted.
func Normalize(in Input) Input {
	out := in
	if out.Category == "" {
		out.Category = models.DefaultCategory
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

// check validates in. The question only has to be non-blank; surrounding
// whitespace is ignored for the check and kept for the write.
func (p *Processor) check(in Input) error {
	trimmed := in
	trimmed.Question = strings.TrimSpace(in.Question)

	if err := p.validate.Struct(trimmed); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return &ValidationError{Fields: fieldErrs}
		}
		return fmt.Errorf("failed to validate submission: %w", err)
	}
	return nil
}

// write performs the inserts strictly in order. Nothing is rolled back: a
// failure after the question insert leaves the question in place.
func (p *Processor) write(ctx context.Context, in Input) (*Result, error) {
	res := &Result{}

	q := &models.Question{
		Category: in.Category,
		Question: in.Question,
		Tags:     in.Tags,
	}
	if err := p.store.InsertQuestion(ctx, q); err != nil {
		return res, &StepError{Step: StepQuestion, Err: err}
	}
	res.Question = q
	logger.Info("Question created", zap.String("question_id", q.ID), zap.String("category", string(q.Category)))

	if in.ExpectedResponse != "" {
		r := &models.ExpectedResponse{QuestionID: q.ID, Response: in.ExpectedResponse}
		if err := p.store.InsertExpectedResponse(ctx, r); err != nil {
			return res, &StepError{Step: StepExpectedResponse, Err: err}
		}
		res.ExpectedResponse = r
	}

	if in.ActualResponse != "" {
		r := &models.ActualResponse{QuestionID: q.ID, Response: in.ActualResponse, Outcome: models.OutcomeNeutral}
		if err := p.store.InsertActualResponse(ctx, r); err != nil {
			return res, &StepError{Step: StepActualResponse, Err: err}
		}
		res.ActualResponse = r
	}

	return res, nil
}

func (p *Processor) succeeded(ctx context.Context, res *Result) {
	metrics.SubmissionsTotal.WithLabelValues("success", "").Inc()

	if err := p.cache.Invalidate(ctx, query.CacheKey); err != nil {
		// The rows are committed; a stale list expires with its TTL.
		logger.Warn("Failed to invalidate question cache", zap.Error(err))
	}

	p.notifier.Notify(ctx, SuccessNotification)
	logger.Info("Submission completed", zap.String("question_id", res.Question.ID))
}

func (p *Processor) failed(ctx context.Context, res *Result, err error) {
	step := ""
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		step = string(stepErr.Step)
	}
	metrics.SubmissionsTotal.WithLabelValues("error", step).Inc()

	fields := []zap.Field{zap.Error(err), zap.String("step", step)}
	if res != nil && res.Question != nil {
		fields = append(fields, zap.String("question_id", res.Question.ID))
	}
	logger.Error("Error submitting question", fields...)

	p.notifier.Notify(ctx, ErrorNotification)
}
