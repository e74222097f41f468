// Package analytics records client usage events in the track_event table.
package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/quotegrep/quotegrep/pkg/log"
)

// Event types accepted by the recorder.
const (
	TypePageView = "page_view"
	TypeSearch   = "search"
	TypePageExit = "page_exit"
)

// Event is one client-reported usage event. Fields outside the common set are
// meaningful only for some event types.
type Event struct {
	Type            string  `json:"type"`
	Path            string  `json:"path,omitempty"`
	SearchTerm      string  `json:"searchTerm,omitempty"`
	Channel         string  `json:"channel,omitempty"`
	Year            string  `json:"year,omitempty"`
	SortOrder       string  `json:"sortOrder,omitempty"`
	Game            string  `json:"game,omitempty"`
	Strict          bool    `json:"strict,omitempty"`
	Page            int     `json:"page,omitempty"`
	TotalPages      int     `json:"totalPages,omitempty"`
	UserHash        string  `json:"userHash,omitempty"`
	SessionID       string  `json:"sessionId,omitempty"`
	Referrer        string  `json:"referrer,omitempty"`
	Device          string  `json:"device,omitempty"`
	OS              string  `json:"os,omitempty"`
	Browser         string  `json:"browser,omitempty"`
	Language        string  `json:"language,omitempty"`
	Timezone        string  `json:"timezone,omitempty"`
	ResponseTimeMs  int64   `json:"responseTimeMs,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	StartTime       string  `json:"startTime,omitempty"`
}

// Validate checks the per-type required fields.
func (e Event) Validate() error {
	switch e.Type {
	case TypeSearch:
		if e.SearchTerm == "" {
			return fmt.Errorf("search events require searchTerm")
		}
	case TypePageView:
		if e.Path == "" || e.StartTime == "" {
			return fmt.Errorf("page_view events require path and startTime")
		}
	case TypePageExit:
		if e.DurationSeconds <= 0 {
			return fmt.Errorf("page_exit events require durationSeconds")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// Recorder writes events to the database.
type Recorder struct {
	db     *sql.DB
	logger *log.Logger
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{
		db:     db,
		logger: log.ForComponent("analytics"),
	}
}

// Record validates and stores one event, assigning it a fresh id.
func (r *Recorder) Record(ctx context.Context, e Event) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO track_event
		(id, type, path, search_term, channel, year, sort_order, game, strict,
		 page, total_pages, user_hash, session_id, referrer, device, os, browser,
		 language, timezone, response_time_ms, duration_seconds, start_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, e.Type, nullable(e.Path), nullable(e.SearchTerm), nullable(e.Channel),
		nullable(e.Year), nullable(e.SortOrder), nullable(e.Game), e.Strict,
		e.Page, e.TotalPages, nullable(e.UserHash), nullable(e.SessionID),
		nullable(e.Referrer), nullable(e.Device), nullable(e.OS), nullable(e.Browser),
		nullable(e.Language), nullable(e.Timezone), e.ResponseTimeMs,
		e.DurationSeconds, nullable(e.StartTime))
	if err != nil {
		return "", fmt.Errorf("recording %s event: %w", e.Type, err)
	}

	r.logger.Debugf("recorded %s event %s", e.Type, id)
	return id, nil
}

// EventCount returns the number of stored events, optionally filtered by type.
func (r *Recorder) EventCount(ctx context.Context, eventType string) (int, error) {
	var count int
	var err error
	if eventType == "" {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM track_event").Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM track_event WHERE type = ?", eventType).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
