package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/alert"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/notify"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/store"
)

func TestAPI_AlertWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	st, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	feed := NewAlertFeed()
	d := alert.NewDispatcher(alert.Options{
		ViolenceLog:  filepath.Join(tmpDir, "violence_log.csv"),
		GestureLog:   filepath.Join(tmpDir, "sos_gestures.csv"),
		EvidenceRoot: tmpDir,
		Uploader:     &notify.MemoryUploader{},
		Messenger:    &notify.MemoryMessenger{},
		Recorder:     st,
	})
	d.Subscribe(feed.Publish)

	ts := httptest.NewServer(New(Config{Store: st, Feed: feed}))
	defer ts.Close()

	// 1. Connect to the live feed.
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/feed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for feed.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// 2. Dispatch an alert.
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	lobby := region.Region{ID: 1, Width: 640, Height: 480, Location: "Lobby"}
	ev := event.NewEvent(event.ViolenceAgainstWoman, lobby, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	if err := d.Dispatch(context.Background(), ev, frame); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// 3. The feed delivers it.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var pushed event.Event
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if pushed.ID != ev.ID || pushed.Kind != event.ViolenceAgainstWoman {
		t.Errorf("unexpected feed event: %+v", pushed)
	}
	if pushed.ImageURL == "" {
		t.Error("feed event should carry the image URL")
	}

	// 4. The API lists it.
	resp, err := ts.Client().Get(ts.URL + "/api/alerts")
	if err != nil {
		t.Fatalf("GET /api/alerts error = %v", err)
	}
	var listed struct {
		Alerts []struct {
			ID       string `json:"id"`
			Kind     string `json:"kind"`
			Location string `json:"location"`
		} `json:"alerts"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Alerts) != 1 || listed.Alerts[0].ID != ev.ID || listed.Alerts[0].Location != "Lobby" {
		t.Errorf("unexpected alert list: %+v", listed.Alerts)
	}

	// 5. One alert is not a hotspot.
	resp, err = ts.Client().Get(ts.URL + "/api/hotspots?min=0")
	if err != nil {
		t.Fatalf("GET /api/hotspots error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/hotspots status = %d", resp.StatusCode)
	}
	var spots struct {
		Hotspots []store.Hotspot `json:"hotspots"`
	}
	json.NewDecoder(resp.Body).Decode(&spots)
	if len(spots.Hotspots) != 1 || spots.Hotspots[0].Count != 1 {
		t.Errorf("min=0 should report the single alert, got %+v", spots.Hotspots)
	}
}
