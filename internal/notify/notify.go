// Package notify delivers alert evidence to the outside world: an object
// store that turns a local file into a public URL, and a messaging channel
// that carries the alert text.
package notify

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNotConfigured is returned by a channel whose credentials are missing.
var ErrNotConfigured = errors.New("channel not configured")

// DefaultTimeout bounds a single HTTP call to an external service.
const DefaultTimeout = 30 * time.Second

// Uploader publishes a local file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Message is one outbound notification.
type Message struct {
	Body     string
	MediaURL string
	From     string
	To       string
}

// Messenger sends a message and returns the provider's message id.
type Messenger interface {
	Send(ctx context.Context, msg Message) (string, error)
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}
