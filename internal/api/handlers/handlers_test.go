package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentalqa/backend/internal/query"
	"github.com/rentalqa/backend/internal/storage/models"
	"github.com/rentalqa/backend/internal/submission"
)

type fakeLister struct {
	items []models.QuestionWithResponses
	err   error
}

func (f *fakeLister) Questions(context.Context) ([]models.QuestionWithResponses, error) {
	return f.items, f.err
}

type fakeSubmitter struct {
	got submission.Input
	res *submission.Result
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, in submission.Input) (*submission.Result, error) {
	f.got = in
	return f.res, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func sampleItems() []models.QuestionWithResponses {
	return query.Aggregate([]models.Question{
		{ID: "q1", Category: models.CategoryTenantToLandlord, Question: "What is your policy on repairs?", Tags: []string{"repairs"}},
		{ID: "q2", Category: models.CategoryLandlordToTenant, Question: "How will you respect neighbors?", Tags: []string{"neighbors"}},
	}, []models.ExpectedResponse{{ID: "e1", QuestionID: "q1", Response: "Within a week."}}, nil)
}

func newQuestionsApp(lister QuestionLister, submitter Submitter) *fiber.App {
	h := NewQuestionsHandler(lister, submitter)
	app := fiber.New()
	app.Get("/questions", h.ListQuestions)
	app.Post("/questions", h.CreateQuestion)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	out := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestListQuestions(t *testing.T) {
	app := newQuestionsApp(&fakeLister{items: sampleItems()}, &fakeSubmitter{})

	status, body := do(t, app, fiber.MethodGet, "/questions", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["count"])

	data := body["data"].([]any)
	first := data[0].(map[string]any)
	assert.Equal(t, "q1", first["id"])
	assert.Equal(t, "What is your policy on repairs?", first["question"])
	assert.Len(t, first["expectedResponses"], 1)
	assert.Equal(t, []any{}, first["actualResponses"])
}

func TestListQuestionsFilters(t *testing.T) {
	app := newQuestionsApp(&fakeLister{items: sampleItems()}, &fakeSubmitter{})

	status, body := do(t, app, fiber.MethodGet, "/questions?category=landlord-to-tenant", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = do(t, app, fiber.MethodGet, "/questions?category=all&search=REPAIRS", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = do(t, app, fiber.MethodGet, "/questions?search=deposit", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, []any{}, body["data"])
}

func TestListQuestionsRejectsUnknownCategory(t *testing.T) {
	app := newQuestionsApp(&fakeLister{items: sampleItems()}, &fakeSubmitter{})

	status, body := do(t, app, fiber.MethodGet, "/questions?category=roommates", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "unknown category")
}

func TestListQuestionsFetchFailure(t *testing.T) {
	lister := &fakeLister{err: &query.FetchError{Source: query.SourceActualResponses, Err: errors.New("permission denied")}}
	app := newQuestionsApp(lister, &fakeSubmitter{})

	status, body := do(t, app, fiber.MethodGet, "/questions", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "actual_responses", body["source"])
	assert.NotContains(t, body, "data")
}

func TestCreateQuestion(t *testing.T) {
	submitter := &fakeSubmitter{res: &submission.Result{
		Question:         &models.Question{ID: "q9", Category: models.CategoryTenantToLandlord, Question: "Do you allow pets?", Tags: []string{}},
		ExpectedResponse: &models.ExpectedResponse{ID: "e9", QuestionID: "q9", Response: "Yes, with a deposit."},
	}}
	app := newQuestionsApp(&fakeLister{}, submitter)

	status, body := do(t, app, fiber.MethodPost, "/questions",
		`{"question":"Do you allow pets?","expectedResponse":"Yes, with a deposit.","category":"tenant-to-landlord","tags":["pets"]}`)
	require.Equal(t, fiber.StatusCreated, status)

	assert.Equal(t, submission.Input{
		Question:         "Do you allow pets?",
		ExpectedResponse: "Yes, with a deposit.",
		Category:         models.CategoryTenantToLandlord,
		Tags:             []string{"pets"},
	}, submitter.got)

	assert.Equal(t, "q9", body["question"].(map[string]any)["id"])
	assert.Nil(t, body["actualResponse"])
	assert.Equal(t, "Success!", body["notification"].(map[string]any)["title"])
}

func TestCreateQuestionBadRequestsCarryNotification(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		submitErr error
	}{
		{"truncated json", `{"question":`, nil},
		{"wrong field type", `{"question":"q","expectedResponse":42}`, nil},
		{"tags not a list", `{"question":"q","tags":"pets"}`, nil},
		{"rejected by validation", `{"question":"   "}`, &submission.ValidationError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newQuestionsApp(&fakeLister{}, &fakeSubmitter{err: tt.submitErr})

			status, body := do(t, app, fiber.MethodPost, "/questions", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, status)
			require.Contains(t, body, "notification")
			notification := body["notification"].(map[string]any)
			assert.Equal(t, submission.ErrorNotification.Variant, notification["variant"])
			assert.Equal(t, submission.ErrorNotification.Title, notification["title"])
			assert.Equal(t, submission.ErrorNotification.Description, notification["description"])
		})
	}
}

func TestCreateQuestionValidationFailure(t *testing.T) {
	submitter := &fakeSubmitter{err: &submission.ValidationError{}}
	app := newQuestionsApp(&fakeLister{}, submitter)

	status, body := do(t, app, fiber.MethodPost, "/questions", `{"question":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "destructive", body["notification"].(map[string]any)["variant"])
}

func TestCreateQuestionStepFailure(t *testing.T) {
	submitter := &fakeSubmitter{
		res: &submission.Result{Question: &models.Question{ID: "q9", Question: "Do you allow pets?"}},
		err: &submission.StepError{Step: submission.StepExpectedResponse, Err: errors.New("disk I/O error")},
	}
	app := newQuestionsApp(&fakeLister{}, submitter)

	status, body := do(t, app, fiber.MethodPost, "/questions", `{"question":"Do you allow pets?","expectedResponse":"Yes"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "expected_response", body["step"])
	assert.Equal(t, "q9", body["question"].(map[string]any)["id"])
	assert.Equal(t, "Error", body["notification"].(map[string]any)["title"])
}

func TestCreateQuestionFirstStepFailure(t *testing.T) {
	submitter := &fakeSubmitter{
		res: &submission.Result{},
		err: &submission.StepError{Step: submission.StepQuestion, Err: errors.New("readonly database")},
	}
	app := newQuestionsApp(&fakeLister{}, submitter)

	status, body := do(t, app, fiber.MethodPost, "/questions", `{"question":"q"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "question", body["step"])
	assert.NotContains(t, body, "question")
}

func TestSuggestTags(t *testing.T) {
	app := fiber.New()
	app.Get("/tags/suggest", NewTagsHandler().SuggestTags)

	status, body := do(t, app, fiber.MethodGet, "/tags/suggest?text=Is+the+apartment+close+to+the+station%3F", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body["tags"], "apartment")

	status, body = do(t, app, fiber.MethodGet, "/tags/suggest", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []any{}, body["tags"])

	status, _ = do(t, app, fiber.MethodGet, "/tags/suggest?text="+strings.Repeat("a", maxSuggestLength+1), "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHealthAndReady(t *testing.T) {
	app := fiber.New()
	healthy := NewHealthHandler(fakePinger{})
	broken := NewHealthHandler(fakePinger{err: errors.New("database is closed")})
	app.Get("/health", healthy.Health)
	app.Get("/ready", healthy.Ready)
	app.Get("/broken/ready", broken.Ready)

	status, body := do(t, app, fiber.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, body = do(t, app, fiber.MethodGet, "/ready", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = do(t, app, fiber.MethodGet, "/broken/ready", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", body["status"])
}
