package submission

import (
	"context"

	"go.uber.org/zap"

	"github.com/rentalqa/backend/pkg/logger"
)

// Notification is the toast shown to the person who submitted.
type Notification struct {
	Variant     string `json:"variant"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var (
	SuccessNotification = Notification{
		Variant:     "default",
		Title:       "Success!",
		Description: "Your question has been submitted successfully.",
	}
	ErrorNotification = Notification{
		Variant:     "destructive",
		Title:       "Error",
		Description: "Failed to submit your question. Please try again.",
	}
)

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// LogNotifier records notifications in the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	logger.Debug("Notification", zap.String("variant", n.Variant), zap.String("title", n.Title))
}
