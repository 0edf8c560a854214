package state

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

func Connect(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := migrate(conn); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME,
		working_dir TEXT,
		auto_approve INTEGER
	);
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		kind TEXT,
		payload TEXT,
		created_at DATETIME
	);
	CREATE TABLE IF NOT EXISTS plan_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		plan_id TEXT,
		summary TEXT,
		state TEXT,
		item_count INTEGER,
		failed_count INTEGER,
		duration_ms INTEGER,
		created_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events (session_id, created_at);`
	_, err := db.Exec(schema)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

type Session struct {
	ID          string
	CreatedAt   time.Time
	WorkingDir  string
	AutoApprove bool
}
