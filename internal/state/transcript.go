package state

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/yubzen/maestro/internal/log"
	"github.com/yubzen/maestro/internal/mutation"
	"github.com/yubzen/maestro/internal/timeline"
)

// StoredEvent is one persisted transcript row. The payload is kept as the
// JSON the event carried at the time it was accepted.
type StoredEvent struct {
	ID        string
	SessionID string
	Kind      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

func genID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (db *DB) CreateSession(ctx context.Context, workingDir string, autoApprove bool) (*Session, error) {
	id := genID()
	now := time.Now()
	_, err := db.conn.ExecContext(ctx, "INSERT INTO sessions (id, created_at, working_dir, auto_approve) VALUES (?, ?, ?, ?)", id, now, workingDir, autoApprove)
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, CreatedAt: now, WorkingDir: workingDir, AutoApprove: autoApprove}, nil
}

func (db *DB) GetSession(ctx context.Context, id string) (*Session, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT id, created_at, working_dir, auto_approve FROM sessions WHERE id = ?", id)
	var s Session
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.WorkingDir, &s.AutoApprove); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveEvent persists one timeline event under the given session.
func (db *DB) SaveEvent(ctx context.Context, sessionID string, ev timeline.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, "INSERT INTO events (id, session_id, kind, payload, created_at) VALUES (?, ?, ?, ?, ?)",
		ev.ID, sessionID, ev.Payload.Kind().String(), string(payload), ev.Timestamp)
	return err
}

// ListEvents returns the session transcript in acceptance order.
func (db *DB) ListEvents(ctx context.Context, sessionID string) ([]StoredEvent, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT id, session_id, kind, payload, created_at FROM events WHERE session_id = ? ORDER BY created_at ASC", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var payload string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

// SaveReport persists the outcome of a plan execution.
func (db *DB) SaveReport(ctx context.Context, sessionID string, report mutation.Report) error {
	failed := 0
	for _, r := range report.Results {
		if !r.Success {
			failed++
		}
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO plan_reports (session_id, plan_id, summary, state, item_count, failed_count, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		sessionID, report.PlanID, report.Summary, report.State.String(), len(report.Results), failed, report.Duration.Milliseconds(), time.Now())
	return err
}

// Recorder adapts a session-scoped DB to the timeline sink contract so the
// pipeline can persist accepted events as a side effect of Add.
type Recorder struct {
	db        *DB
	sessionID string
}

func (db *DB) Recorder(sessionID string) *Recorder {
	return &Recorder{db: db, sessionID: sessionID}
}

// RecordEvent persists the event. Failures are logged, not surfaced: the
// transcript store must never stall or break rendering.
func (r *Recorder) RecordEvent(ev timeline.Event) {
	if r == nil || r.db == nil {
		return
	}
	if err := r.db.SaveEvent(context.Background(), r.sessionID, ev); err != nil {
		log.Warn("transcript store: %v", err)
	}
}

// RecordReport persists a plan execution outcome. It satisfies the plan
// runner's report sink; like RecordEvent, failures only log.
func (r *Recorder) RecordReport(report mutation.Report) {
	if r == nil || r.db == nil {
		return
	}
	if err := r.db.SaveReport(context.Background(), r.sessionID, report); err != nil {
		log.Warn("plan report store: %v", err)
	}
}
