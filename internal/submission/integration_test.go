package submission_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentalqa/backend/internal/cache"
	"github.com/rentalqa/backend/internal/cache/memory"
	"github.com/rentalqa/backend/internal/query"
	"github.com/rentalqa/backend/internal/storage/models"
	"github.com/rentalqa/backend/internal/storage/sqlite"
	"github.com/rentalqa/backend/internal/submission"
)

func openStore(t *testing.T) *sqlite.Client {
	t.Helper()
	store, err := sqlite.NewClient(filepath.Join(t.TempDir(), "qa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema(context.Background()))
	return store
}

func TestSubmissionShowsUpInNextAggregation(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	c := cache.New(memory.New(), 0)
	engine := query.NewEngine(store, c)
	proc := submission.NewProcessor(store, c, nil)

	before, err := engine.Questions(ctx)
	require.NoError(t, err)
	assert.Empty(t, before)

	res, err := proc.Submit(ctx, submission.Input{
		Question:         "Do you allow pets?",
		ExpectedResponse: "Yes, with a deposit.",
		Category:         models.CategoryTenantToLandlord,
	})
	require.NoError(t, err)

	after, err := engine.Questions(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)

	got := after[0]
	assert.Equal(t, res.Question.ID, got.ID)
	assert.Equal(t, "Do you allow pets?", got.Question.Question)
	assert.Equal(t, models.CategoryTenantToLandlord, got.Category)
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, 0, got.Votes)
	require.Len(t, got.ExpectedResponses, 1)
	assert.Equal(t, "Yes, with a deposit.", got.ExpectedResponses[0].Response)
	assert.Len(t, got.ActualResponses, 0)

	assert.Equal(t, int64(1), c.Stats().Invalidations)
}

func TestSubmittedTextRoundTrips(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	c := cache.New(memory.New(), 0)
	engine := query.NewEngine(store, c)
	proc := submission.NewProcessor(store, c, nil)

	question := "Can my landlord charge a <pet fee>?"
	actual := "Line one.\n\n  <i>Line two</i> &amp; more"

	_, err := proc.Submit(ctx, submission.Input{
		Question:       question,
		ActualResponse: actual,
		Tags:           []string{"fees", "<pets>"},
	})
	require.NoError(t, err)

	items, err := engine.Questions(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, question, items[0].Question.Question)
	assert.Equal(t, []string{"fees", "<pets>"}, items[0].Tags)
	require.Len(t, items[0].ActualResponses, 1)
	assert.Equal(t, actual, items[0].ActualResponses[0].Response)
}

func TestFailedSubmissionLeavesCacheAlone(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	c := cache.New(memory.New(), 0)
	engine := query.NewEngine(store, c)
	proc := submission.NewProcessor(store, c, nil)

	_, err := engine.Questions(ctx)
	require.NoError(t, err)

	_, err = proc.Submit(ctx, submission.Input{Question: "   "})
	require.Error(t, err)

	assert.Zero(t, c.Stats().Invalidations)
}
