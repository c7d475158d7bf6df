package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/cache"
	"github.com/rentalqa/backend/internal/metrics"
	"github.com/rentalqa/backend/internal/storage/models"
	"github.com/rentalqa/backend/pkg/logger"
)

// CacheKey is the single key the aggregated question list lives under.
const CacheKey = "questions"

// Source names the collection a fetch read from.
type Source string

const (
	SourceQuestions         Source = "questions"
	SourceExpectedResponses Source = "expected_responses"
	SourceActualResponses   Source = "actual_responses"
)

// FetchError reports which of the three reads failed. The store error is
// kept as-is and reachable through errors.Is / errors.As.
type FetchError struct {
	Source Source
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Store is the read side of the data store.
type Store interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
	ListExpectedResponses(ctx context.Context) ([]models.ExpectedResponse, error)
	ListActualResponses(ctx context.Context) ([]models.ActualResponse, error)
}

type Engine struct {
	store Store
	cache *cache.Client
}

func NewEngine(store Store, cache *cache.Client) *Engine {
	return &Engine{
		store: store,
		cache: cache,
	}
}

// Questions returns the aggregated question list, from the cache when it
// holds one. Concurrent callers on a cold cache share a single fetch.
func (e *Engine) Questions(ctx context.Context) ([]models.QuestionWithResponses, error) {
	return cache.Fetch(ctx, e.cache, CacheKey, e.Fetch)
}

// Fetch reads the three collections and joins them, bypassing the cache.
// The reads are independent; if any fails nothing is returned.
func (e *Engine) Fetch(ctx context.Context) ([]models.QuestionWithResponses, error) {
	startTime := time.Now()

	result, err := e.fetch(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.AggregationDuration.WithLabelValues(status).Observe(time.Since(startTime).Seconds())

	return result, err
}

func (e *Engine) fetch(ctx context.Context) ([]models.QuestionWithResponses, error) {
	logger.Debug("Fetching questions from database")

	questions, err := e.store.ListQuestions(ctx)
	if err != nil {
		return nil, e.fetchFailed(SourceQuestions, err)
	}
	logger.Debug("Fetched questions", zap.Int("count", len(questions)))

	expected, err := e.store.ListExpectedResponses(ctx)
	if err != nil {
		return nil, e.fetchFailed(SourceExpectedResponses, err)
	}
	logger.Debug("Fetched expected responses", zap.Int("count", len(expected)))

	actual, err := e.store.ListActualResponses(ctx)
	if err != nil {
		return nil, e.fetchFailed(SourceActualResponses, err)
	}
	logger.Debug("Fetched actual responses", zap.Int("count", len(actual)))

	result, orphans := aggregate(questions, expected, actual)
	if orphans.expected > 0 || orphans.actual > 0 {
		metrics.OrphanedResponses.WithLabelValues(string(SourceExpectedResponses)).Add(float64(orphans.expected))
		metrics.OrphanedResponses.WithLabelValues(string(SourceActualResponses)).Add(float64(orphans.actual))
		logger.Debug("Skipped responses without a matching question",
			zap.Int("expected", orphans.expected),
			zap.Int("actual", orphans.actual),
		)
	}
	metrics.QuestionsServed.Set(float64(len(result)))

	logger.Info("Questions aggregated",
		zap.Int("questions", len(result)),
		zap.Int("expected_responses", len(expected)-orphans.expected),
		zap.Int("actual_responses", len(actual)-orphans.actual),
	)

	return result, nil
}

func (e *Engine) fetchFailed(source Source, err error) error {
	metrics.FetchFailures.WithLabelValues(string(source)).Inc()
	logger.Error("Failed to fetch", zap.String("source", string(source)), zap.Error(err))
	return &FetchError{Source: source, Err: err}
}
