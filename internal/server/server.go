// Package server provides the HTTP surface: health, the alert API, the live
// alert feed, MJPEG streams and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/metrics"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/server/api"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/store"
)

// StreamPrefix is where the MJPEG streams are mounted.
const StreamPrefix = "/api/stream/"

// Config holds the server configuration. Nil fields disable their routes.
type Config struct {
	Store   *store.Store
	Feed    *AlertFeed
	Streams http.Handler
	Metrics *metrics.Metrics
	Regions []region.Region
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/regions", s.handleRegions)

	if s.config.Store != nil {
		alerts := api.NewAlertHandler(s.config.Store)
		s.mux.Handle("/api/alerts", alerts)
		s.mux.Handle("/api/alerts/", alerts)
		s.mux.Handle("/api/hotspots", api.NewHotspotHandler(s.config.Store))
	}

	if s.config.Feed != nil {
		s.mux.Handle("/api/feed", s.config.Feed)
	}

	if s.config.Streams != nil {
		s.mux.Handle(StreamPrefix, s.config.Streams)
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(s.start).String(),
		"regions": len(s.config.Regions),
	}
	if s.config.Feed != nil {
		response["feed_clients"] = s.config.Feed.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

type regionResponse struct {
	ID       int    `json:"id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Location string `json:"location"`
}

// handleRegions handles GET /api/regions.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	regions := make([]regionResponse, 0, len(s.config.Regions))
	for _, reg := range s.config.Regions {
		regions = append(regions, regionResponse{
			ID:       reg.ID,
			X:        reg.X,
			Y:        reg.Y,
			Width:    reg.Width,
			Height:   reg.Height,
			Location: reg.Location,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"regions": regions})
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Streaming clients never finish on their own.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
	}
	return nil
}
