package notify

import (
	"context"
	"fmt"
	"sync"
)

// MemoryUploader records uploads and returns predictable URLs.
type MemoryUploader struct {
	mu    sync.Mutex
	paths []string
	err   error
}

// Upload records localPath.
func (u *MemoryUploader) Upload(ctx context.Context, localPath string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.paths = append(u.paths, localPath)
	return fmt.Sprintf("https://evidence.test/%d", len(u.paths)), nil
}

// SetError makes subsequent uploads fail with err.
func (u *MemoryUploader) SetError(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.err = err
}

// Paths returns the uploaded paths in order.
func (u *MemoryUploader) Paths() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

// MemoryMessenger records sent messages.
type MemoryMessenger struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

// Send records msg.
func (m *MemoryMessenger) Send(ctx context.Context, msg Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}

// SetError makes subsequent sends fail with err.
func (m *MemoryMessenger) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Sent returns the messages sent so far.
func (m *MemoryMessenger) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
