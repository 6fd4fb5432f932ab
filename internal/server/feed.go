package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
)

const (
	feedSendBuffer   = 16
	feedWriteTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type feedClient struct {
	send chan []byte
}

// AlertFeed broadcasts dispatched alerts to WebSocket clients. Publish never
// blocks: a client whose buffer is full misses the message.
type AlertFeed struct {
	clients map[*feedClient]struct{}
	mu      sync.RWMutex
}

// NewAlertFeed creates an empty feed.
func NewAlertFeed() *AlertFeed {
	return &AlertFeed{clients: make(map[*feedClient]struct{})}
}

// Publish sends ev to every connected client. It can be passed to
// alert.Dispatcher.Subscribe.
func (f *AlertFeed) Publish(ev event.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("feed marshal failed", "id", ev.ID, "error", err)
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		select {
		case c.send <- msg:
		default:
			slog.Debug("feed client too slow, dropping alert", "id", ev.ID)
		}
	}
}

// Clients returns the number of connected clients.
func (f *AlertFeed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (f *AlertFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	c := &feedClient{send: make(chan []byte, feedSendBuffer)}
	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.clients, c)
		f.mu.Unlock()
	}()

	// The read loop only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
