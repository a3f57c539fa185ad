package notification

import (
	"context"
	"errors"
	"log/slog"
)

const (
	// KindWaitlistJoined fires once per newly created waitlist entrant.
	KindWaitlistJoined = "waitlist_joined"
	// KindDocumentCompleted fires when an upload reaches completed.
	KindDocumentCompleted = "document_completed"
	// KindDocumentFailed fires when an upload reaches failed.
	KindDocumentFailed = "document_failed"
)

// Message describes a notification payload.
type Message struct {
	Kind        string            `json:"kind"`
	Destination string            `json:"destination,omitempty"`
	Locale      string            `json:"locale,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	Body        string            `json:"body"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
	}
	for k, v := range message.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	n.logger.Info("notification", attrs...)
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

// Send delivers to all notifiers even when one fails.
func (m Multi) Send(ctx context.Context, message Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
