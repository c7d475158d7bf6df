package models

import (
	"fmt"
	"time"
)

type Category string

const (
	CategoryTenantToLandlord Category = "tenant-to-landlord"
	CategoryLandlordToTenant Category = "landlord-to-tenant"
)

// DefaultCategory is used when a submission names no category.
const DefaultCategory = CategoryTenantToLandlord

func (c Category) Valid() bool {
	return c == CategoryTenantToLandlord || c == CategoryLandlordToTenant
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

type Outcome string

const (
	OutcomePositive Outcome = "positive"
	OutcomeNegative Outcome = "negative"
	OutcomeNeutral  Outcome = "neutral"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomePositive, OutcomeNegative, OutcomeNeutral:
		return true
	}
	return false
}

type Question struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Question  string    `json:"question"`
	Tags      []string  `json:"tags"`
	Votes     int       `json:"votes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ExpectedResponse struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Response   string    `json:"response"`
	Votes      int       `json:"votes"`
	CreatedAt  time.Time `json:"created_at"`
}

type ActualResponse struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Response   string    `json:"response"`
	Outcome    Outcome   `json:"outcome"`
	Context    *string   `json:"context"`
	Votes      int       `json:"votes"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionWithResponses is the display shape. It is rebuilt on every fetch and
// never written back to the store.
type QuestionWithResponses struct {
	Question
	ExpectedResponses []ExpectedResponse `json:"expectedResponses"`
	ActualResponses   []ActualResponse   `json:"actualResponses"`
}
