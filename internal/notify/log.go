package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogMessenger writes messages to the log instead of sending them.
type LogMessenger struct{}

// Send logs msg and returns a fresh id.
func (LogMessenger) Send(ctx context.Context, msg Message) (string, error) {
	id := uuid.NewString()
	slog.Info("alert message", "id", id, "body", msg.Body, "media_url", msg.MediaURL, "to", msg.To)
	return id, nil
}
