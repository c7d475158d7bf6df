package submission

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Step names one insert of a submission.
type Step string

const (
	StepQuestion         Step = "question"
	StepExpectedResponse Step = "expected_response"
	StepActualResponse   Step = "actual_response"
)

// StepError wraps the store error of the insert that failed. Steps before it
// stay committed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s creation failed: %v", strings.ReplaceAll(string(e.Step), "_", " "), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a submission before anything is written.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", f.Field(), f.Tag()))
	}
	return "invalid submission: " + strings.Join(msgs, ", ")
}
