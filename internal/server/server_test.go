package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/metrics"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
)

func TestServer_Health(t *testing.T) {
	s := New(Config{Regions: []region.Region{{ID: 1, Location: "Lobby"}}})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if response["regions"] != float64(1) {
			t.Errorf("expected 1 region, got %v", response["regions"])
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_Regions(t *testing.T) {
	s := New(Config{Regions: []region.Region{
		{ID: 1, X: 0, Y: 0, Width: 640, Height: 480, Location: "Lobby"},
		{ID: 2, X: 640, Y: 0, Width: 640, Height: 480, Location: "Unknown"},
	}})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/regions", nil))

	var response struct {
		Regions []regionResponse `json:"regions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Regions) != 2 || response.Regions[1].X != 640 {
		t.Errorf("unexpected regions: %+v", response.Regions)
	}
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/alerts", "/api/feed", "/api/stream/x", "/metrics"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 when not configured, got %d", path, rec.Code)
		}
	}
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.New()
	m.AlertsGesture.Add(2)
	s := New(Config{Metrics: m})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "abhayam_alerts_gesture_total 2") {
		t.Errorf("metrics output missing gesture counter:\n%s", rec.Body.String())
	}
}

func TestServer_Streams(t *testing.T) {
	var gotPath string
	streams := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	})
	s := New(Config{Streams: streams})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream/Lobby", nil))

	if gotPath != "/api/stream/Lobby" {
		t.Errorf("stream handler got path %q", gotPath)
	}
}
