// Package seed loads the sample questions into an empty store.
package seed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/storage/models"
	"github.com/rentalqa/backend/pkg/logger"
)

type Store interface {
	CountQuestions(ctx context.Context) (int, error)
	InsertQuestion(ctx context.Context, q *models.Question) error
	InsertExpectedResponse(ctx context.Context, r *models.ExpectedResponse) error
	InsertActualResponse(ctx context.Context, r *models.ActualResponse) error
}

type Sample struct {
	Category         models.Category
	Question         string
	ExpectedResponse string
	ActualResponses  []SampleResponse
	Tags             []string
	Votes            int
}

type SampleResponse struct {
	Response string
	Outcome  models.Outcome
	Context  string
}

type Seeder struct {
	store   Store
	samples []Sample
	now     func() time.Time
}

func NewSeeder(store Store) *Seeder {
	return &Seeder{
		store:   store,
		samples: Samples(),
		now:     time.Now,
	}
}

// Run inserts the samples if the store holds no questions and reports how
// many questions it wrote. A populated store is left untouched.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	count, err := s.store.CountQuestions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		logger.Debug("Store already populated, skipping seed", zap.Int("questions", count))
		return 0, nil
	}

	// Samples are listed newest first, so each one is stamped a minute
	// earlier than the one before it.
	base := s.now().UTC()
	for i, sample := range s.samples {
		created := base.Add(-time.Duration(i) * time.Minute)
		if err := s.insert(ctx, sample, created); err != nil {
			return i, err
		}
	}

	logger.Info("Sample questions seeded", zap.Int("count", len(s.samples)))
	return len(s.samples), nil
}

func (s *Seeder) insert(ctx context.Context, sample Sample, created time.Time) error {
	q := &models.Question{
		Category:  sample.Category,
		Question:  sample.Question,
		Tags:      append([]string{}, sample.Tags...),
		Votes:     sample.Votes,
		CreatedAt: created,
	}
	if err := s.store.InsertQuestion(ctx, q); err != nil {
		return fmt.Errorf("failed to seed question %q: %w", sample.Question, err)
	}

	if sample.ExpectedResponse != "" {
		r := &models.ExpectedResponse{QuestionID: q.ID, Response: sample.ExpectedResponse, CreatedAt: created}
		if err := s.store.InsertExpectedResponse(ctx, r); err != nil {
			return fmt.Errorf("failed to seed expected response: %w", err)
		}
	}

	for j, resp := range sample.ActualResponses {
		r := &models.ActualResponse{
			QuestionID: q.ID,
			Response:   resp.Response,
			Outcome:    resp.Outcome,
			CreatedAt:  created.Add(time.Duration(j) * time.Second),
		}
		if resp.Context != "" {
			ctxNote := resp.Context
			r.Context = &ctxNote
		}
		if err := s.store.InsertActualResponse(ctx, r); err != nil {
			return fmt.Errorf("failed to seed actual response: %w", err)
		}
	}

	return nil
}
