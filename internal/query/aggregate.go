package query

import "github.com/rentalqa/backend/internal/storage/models"

type orphanCounts struct {
	expected int
	actual   int
}

// Aggregate attaches to each question the responses whose question_id matches
// it. Question order and the order of each response list follow the input
// slices. Every question appears in the output, with empty lists when it has
// no responses; responses pointing at an unknown question are dropped.
func Aggregate(questions []models.Question, expected []models.ExpectedResponse, actual []models.ActualResponse) []models.QuestionWithResponses {
	result, _ := aggregate(questions, expected, actual)
	return result
}

func aggregate(questions []models.Question, expected []models.ExpectedResponse, actual []models.ActualResponse) ([]models.QuestionWithResponses, orphanCounts) {
	result := make([]models.QuestionWithResponses, len(questions))
	index := make(map[string][]int, len(questions))

	for i, q := range questions {
		result[i] = models.QuestionWithResponses{
			Question:          q,
			ExpectedResponses: []models.ExpectedResponse{},
			ActualResponses:   []models.ActualResponse{},
		}
		index[q.ID] = append(index[q.ID], i)
	}

	var orphans orphanCounts

	for _, r := range expected {
		owners, ok := index[r.QuestionID]
		if !ok {
			orphans.expected++
			continue
		}
		for _, i := range owners {
			result[i].ExpectedResponses = append(result[i].ExpectedResponses, r)
		}
	}

	for _, r := range actual {
		owners, ok := index[r.QuestionID]
		if !ok {
			orphans.actual++
			continue
		}
		for _, i := range owners {
			result[i].ActualResponses = append(result[i].ActualResponses, r)
		}
	}

	return result, orphans
}
