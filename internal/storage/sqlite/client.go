package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rentalqa/backend/internal/storage/models"
	"github.com/rentalqa/backend/pkg/logger"
)

type Client struct {
	db  *sql.DB
	now func() time.Time
}

func NewClient(dbPath string) (*Client, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db, now: time.Now}, nil
}

// dsn turns on the pragmas per connection; a plain PRAGMA statement only
// reaches whichever pooled connection happens to run it.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL CHECK (category IN ('tenant-to-landlord', 'landlord-to-tenant')),
		question TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		votes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_questions_created ON questions(created_at);
	CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category);

	CREATE TABLE IF NOT EXISTS expected_responses (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL,
		response TEXT NOT NULL,
		votes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_expected_question ON expected_responses(question_id);
	CREATE INDEX IF NOT EXISTS idx_expected_votes ON expected_responses(votes);

	CREATE TABLE IF NOT EXISTS actual_responses (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL,
		response TEXT NOT NULL,
		outcome TEXT NOT NULL DEFAULT 'neutral' CHECK (outcome IN ('positive', 'negative', 'neutral')),
		context TEXT,
		votes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_actual_question ON actual_responses(question_id);
	CREATE INDEX IF NOT EXISTS idx_actual_votes ON actual_responses(votes);
	`

	_, err := c.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// InsertQuestion stores q and fills in the generated ID and timestamps.
// Nil tags are stored as an empty list.
func (c *Client) InsertQuestion(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	now := c.now().UTC()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = q.CreatedAt
	}

	tagsJSON, err := json.Marshal(q.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO questions (id, category, question, tags, votes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.ExecContext(ctx, query,
		q.ID,
		string(q.Category),
		q.Question,
		string(tagsJSON),
		q.Votes,
		q.CreatedAt.UnixNano(),
		q.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	logger.Debug("Question inserted", zap.String("question_id", q.ID), zap.String("category", string(q.Category)))
	return nil
}

func (c *Client) InsertExpectedResponse(ctx context.Context, r *models.ExpectedResponse) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = c.now().UTC()
	}

	query := `INSERT INTO expected_responses (id, question_id, response, votes, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query, r.ID, r.QuestionID, r.Response, r.Votes, r.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert expected response: %w", err)
	}

	logger.Debug("Expected response inserted", zap.String("response_id", r.ID), zap.String("question_id", r.QuestionID))
	return nil
}

// InsertActualResponse stores r; an empty outcome is stored as neutral.
func (c *Client) InsertActualResponse(ctx context.Context, r *models.ActualResponse) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Outcome == "" {
		r.Outcome = models.OutcomeNeutral
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = c.now().UTC()
	}

	query := `
		INSERT INTO actual_responses (id, question_id, response, outcome, context, votes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var respContext sql.NullString
	if r.Context != nil {
		respContext = sql.NullString{String: *r.Context, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, query,
		r.ID,
		r.QuestionID,
		r.Response,
		string(r.Outcome),
		respContext,
		r.Votes,
		r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert actual response: %w", err)
	}

	logger.Debug("Actual response inserted", zap.String("response_id", r.ID), zap.String("question_id", r.QuestionID))
	return nil
}

// ListQuestions returns every question, newest first. Questions created in the
// same instant come back in reverse insertion order.
func (c *Client) ListQuestions(ctx context.Context) ([]models.Question, error) {
	query := `
		SELECT id, category, question, tags, votes, created_at, updated_at
		FROM questions
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		var category, tagsJSON string
		var createdAt, updatedAt int64

		err := rows.Scan(&q.ID, &category, &q.Question, &tagsJSON, &q.Votes, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}

		q.Category = models.Category(category)
		if err := json.Unmarshal([]byte(tagsJSON), &q.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for question %s: %w", q.ID, err)
		}
		if q.Tags == nil {
			q.Tags = []string{}
		}
		q.CreatedAt = time.Unix(0, createdAt).UTC()
		q.UpdatedAt = time.Unix(0, updatedAt).UTC()

		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, nil
}

// ListExpectedResponses returns every expected response by votes descending.
// Ties keep insertion order.
func (c *Client) ListExpectedResponses(ctx context.Context) ([]models.ExpectedResponse, error) {
	query := `
		SELECT id, question_id, response, votes, created_at
		FROM expected_responses
		ORDER BY votes DESC, created_at ASC, rowid ASC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list expected responses: %w", err)
	}
	defer rows.Close()

	responses := []models.ExpectedResponse{}
	for rows.Next() {
		var r models.ExpectedResponse
		var createdAt int64

		err := rows.Scan(&r.ID, &r.QuestionID, &r.Response, &r.Votes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expected response: %w", err)
		}

		r.CreatedAt = time.Unix(0, createdAt).UTC()
		responses = append(responses, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list expected responses: %w", err)
	}

	return responses, nil
}

// ListActualResponses returns every actual response by votes descending.
// Ties keep insertion order.
func (c *Client) ListActualResponses(ctx context.Context) ([]models.ActualResponse, error) {
	query := `
		SELECT id, question_id, response, outcome, context, votes, created_at
		FROM actual_responses
		ORDER BY votes DESC, created_at ASC, rowid ASC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list actual responses: %w", err)
	}
	defer rows.Close()

	responses := []models.ActualResponse{}
	for rows.Next() {
		var r models.ActualResponse
		var outcome string
		var respContext sql.NullString
		var createdAt int64

		err := rows.Scan(&r.ID, &r.QuestionID, &r.Response, &outcome, &respContext, &r.Votes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan actual response: %w", err)
		}

		r.Outcome = models.Outcome(outcome)
		if respContext.Valid {
			s := respContext.String
			r.Context = &s
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		responses = append(responses, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list actual responses: %w", err)
	}

	return responses, nil
}

func (c *Client) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}
