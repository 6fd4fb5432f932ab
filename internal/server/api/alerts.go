// Package api provides HTTP API handlers over the alert mirror.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/store"
)

// Defaults for query parameters.
const (
	DefaultListLimit    = 100
	DefaultHotspotCount = 5
)

// AlertHandler handles HTTP requests for alert resources.
type AlertHandler struct {
	store *store.Store
}

// NewAlertHandler creates a new AlertHandler with the given store.
func NewAlertHandler(s *store.Store) *AlertHandler {
	return &AlertHandler{store: s}
}

// ServeHTTP routes /api/alerts and /api/alerts/{id}. Alerts are read-only.
func (h *AlertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/alerts")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, path)
}

type alertResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Action       string `json:"action"`
	RegionID     int    `json:"region_id"`
	Location     string `json:"location"`
	OccurredAt   string `json:"occurred_at"`
	MaleCount    int    `json:"male_count"`
	FemaleCount  int    `json:"female_count"`
	EvidencePath string `json:"evidence_path,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

type listAlertsResponse struct {
	Alerts []alertResponse `json:"alerts"`
}

type hotspotsResponse struct {
	MinCount int             `json:"min_count"`
	Hotspots []store.Hotspot `json:"hotspots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(a *store.Alert) alertResponse {
	return alertResponse{
		ID:           a.ID,
		Kind:         a.Kind,
		Action:       a.Action,
		RegionID:     a.RegionID,
		Location:     a.Location,
		OccurredAt:   a.OccurredAt.Format("2006-01-02T15:04:05Z07:00"),
		MaleCount:    a.MaleCount,
		FemaleCount:  a.FemaleCount,
		EvidencePath: a.EvidencePath,
		ImageURL:     a.ImageURL,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// intParam reads a non-negative integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

// list handles GET /api/alerts?limit=n, newest first.
func (h *AlertHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", DefaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	alerts, err := h.store.Alerts().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	response := listAlertsResponse{
		Alerts: make([]alertResponse, 0, len(alerts)),
	}
	for _, a := range alerts {
		response.Alerts = append(response.Alerts, toResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/alerts/{id}.
func (h *AlertHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.store.Alerts().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Alert not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get alert")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(a))
}

// HotspotHandler serves GET /api/hotspots?min=n.
type HotspotHandler struct {
	store *store.Store
}

// NewHotspotHandler creates a new HotspotHandler with the given store.
func NewHotspotHandler(s *store.Store) *HotspotHandler {
	return &HotspotHandler{store: s}
}

func (h *HotspotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	min, err := intParam(r, "min", DefaultHotspotCount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid min")
		return
	}

	spots, err := h.store.Alerts().Hotspots(min)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute hotspots")
		return
	}
	if spots == nil {
		spots = []store.Hotspot{}
	}

	writeJSON(w, http.StatusOK, hotspotsResponse{MinCount: min, Hotspots: spots})
}
