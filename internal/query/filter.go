package query

import (
	"strings"

	"github.com/rentalqa/backend/internal/storage/models"
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

type Criteria struct {
	// Category is a models.Category value, CategoryAll, or empty.
	Category string
	// Search matches case-insensitively against question text and tags.
	Search string
}

// Filter keeps the questions matching c without reordering them.
func Filter(items []models.QuestionWithResponses, c Criteria) []models.QuestionWithResponses {
	term := strings.ToLower(strings.TrimSpace(c.Search))
	allCategories := c.Category == "" || c.Category == CategoryAll

	out := make([]models.QuestionWithResponses, 0, len(items))
	for _, q := range items {
		if !allCategories && string(q.Category) != c.Category {
			continue
		}
		if term != "" && !matchesSearch(q.Question, term) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func matchesSearch(q models.Question, term string) bool {
	if strings.Contains(strings.ToLower(q.Question), term) {
		return true
	}
	for _, tag := range q.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}
