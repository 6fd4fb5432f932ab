package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Alert is a stored alert row.
type Alert struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Action       string    `json:"action"`
	RegionID     int       `json:"region_id"`
	Location     string    `json:"location"`
	OccurredAt   time.Time `json:"occurred_at"`
	MaleCount    int       `json:"male_count"`
	FemaleCount  int       `json:"female_count"`
	EvidencePath string    `json:"evidence_path"`
	ImageURL     string    `json:"image_url"`
	MessageID    string    `json:"message_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromEvent converts a dispatched event into a row.
func FromEvent(ev event.Event) *Alert {
	return &Alert{
		ID:           ev.ID,
		Kind:         ev.Kind.Category(),
		Action:       ev.Kind.ActionText(),
		RegionID:     ev.RegionID,
		Location:     ev.Location,
		OccurredAt:   ev.Timestamp,
		MaleCount:    ev.MaleCount,
		FemaleCount:  ev.FemaleCount,
		EvidencePath: ev.EvidencePath,
		ImageURL:     ev.ImageURL,
		MessageID:    ev.MessageID,
	}
}

// Hotspot is a location with repeated alerts of one action.
type Hotspot struct {
	Location string `json:"location"`
	Action   string `json:"action"`
	Count    int    `json:"count"`
}

// AlertRepository provides access to stored alerts.
type AlertRepository struct {
	db *sql.DB
}

// Alerts returns the alert repository for this store.
func (s *Store) Alerts() *AlertRepository {
	return &AlertRepository{db: s.db}
}

// Record stores a dispatched event. It satisfies alert.Recorder.
func (s *Store) Record(ctx context.Context, ev event.Event) error {
	return s.Alerts().CreateContext(ctx, FromEvent(ev))
}

// Create inserts a new alert.
func (r *AlertRepository) Create(a *Alert) error {
	return r.CreateContext(context.Background(), a)
}

// CreateContext inserts a new alert.
func (r *AlertRepository) CreateContext(ctx context.Context, a *Alert) error {
	a.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (id, kind, action, region_id, location, occurred_at,
		 male_count, female_count, evidence_path, image_url, message_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Kind, a.Action, a.RegionID, a.Location, a.OccurredAt,
		a.MaleCount, a.FemaleCount, a.EvidencePath, a.ImageURL, a.MessageID, a.CreatedAt,
	)
	return err
}

const alertColumns = `id, kind, action, region_id, location, occurred_at,
	male_count, female_count, evidence_path, image_url, message_id, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(s scanner) (*Alert, error) {
	a := &Alert{}
	err := s.Scan(&a.ID, &a.Kind, &a.Action, &a.RegionID, &a.Location, &a.OccurredAt,
		&a.MaleCount, &a.FemaleCount, &a.EvidencePath, &a.ImageURL, &a.MessageID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(id string) (*Alert, error) {
	a, err := scanAlert(r.db.QueryRow(`SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns up to limit alerts, newest first. A limit of 0 or less
// returns all alerts.
func (r *AlertRepository) List(limit int) ([]*Alert, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+alertColumns+` FROM alerts ORDER BY occurred_at DESC, created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return alerts, nil
}

// Hotspots groups violence against women alerts by location and returns
// the groups with more than minCount alerts, busiest first.
func (r *AlertRepository) Hotspots(minCount int) ([]Hotspot, error) {
	rows, err := r.db.Query(
		`SELECT location, action, COUNT(*) AS n FROM alerts
		 WHERE kind = ?
		 GROUP BY location, action
		 HAVING n > ?
		 ORDER BY n DESC, location ASC`,
		event.ViolenceAgainstWoman.Category(), minCount,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []Hotspot
	for rows.Next() {
		var h Hotspot
		if err := rows.Scan(&h.Location, &h.Action, &h.Count); err != nil {
			return nil, err
		}
		spots = append(spots, h)
	}
	return spots, rows.Err()
}
