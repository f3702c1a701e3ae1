// Package audit appends scoring events to a durable event log.
package audit

import (
	"context"
	"database/sql"
	"time"
)

// Event types written by the scoring service.
const (
	TypeDictationGraded  = "DictationGraded"
	TypeAttemptSubmitted = "AttemptSubmitted"
)

type Event struct {
	Offset    int64
	SiteID    string
	Type      string
	Key       string // natural key: answer or attempt ID
	DataJSON  string
	CreatedAt int64
}

// Recorder is what the service needs; EventRepo is the SQL-backed
// implementation, Nop the one used when no log is configured.
type Recorder interface {
	Append(ctx context.Context, e Event) error
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.siteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

type Nop struct{}

func (Nop) Append(context.Context, Event) error { return nil }
