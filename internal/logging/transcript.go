package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS turn_log (
	session_id  TEXT NOT NULL,
	turn_number INTEGER NOT NULL,
	sender      TEXT NOT NULL,
	text        TEXT NOT NULL,
	source      TEXT,
	confidence  REAL NOT NULL DEFAULT 0,
	category    TEXT,
	mode        TEXT NOT NULL DEFAULT 'none',
	reply       TEXT,
	exit_reason TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turn_log_session ON turn_log(session_id, turn_number);
`

// #endregion schema

// #region transcript

// Transcript writes and reads the turn log.
type Transcript struct {
	db *sql.DB
}

// NewTranscript ensures the turn_log table exists on db.
func NewTranscript(db *sql.DB) (*Transcript, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate turn_log: %w", err)
	}
	return &Transcript{db: db}, nil
}

// LogTurn appends one row to the turn log.
func (t *Transcript) LogTurn(entry TurnEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := t.db.Exec(
		`INSERT INTO turn_log (session_id, turn_number, sender, text, source, confidence, category, mode, reply, exit_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.TurnNumber,
		entry.Sender,
		entry.Text,
		nullIfEmpty(entry.Source),
		entry.Confidence,
		nullIfEmpty(entry.Category),
		entry.Mode,
		nullIfEmpty(entry.Reply),
		nullIfEmpty(entry.ExitReason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

// ListTurns returns a session's rows in turn order.
func (t *Transcript) ListTurns(sessionID string) ([]TurnEntry, error) {
	rows, err := t.db.Query(
		`SELECT session_id, turn_number, sender, text, source, confidence, category, mode, reply, exit_reason, created_at
		 FROM turn_log WHERE session_id = ? ORDER BY turn_number ASC, created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query turn_log: %w", err)
	}
	defer rows.Close()

	var entries []TurnEntry
	for rows.Next() {
		var e TurnEntry
		var source, category, reply, exitReason sql.NullString
		var createdAt string
		if err := rows.Scan(&e.SessionID, &e.TurnNumber, &e.Sender, &e.Text,
			&source, &e.Confidence, &category, &e.Mode, &reply, &exitReason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn_log: %w", err)
		}
		e.Source = source.String
		e.Category = category.String
		e.Reply = reply.String
		e.ExitReason = exitReason.String
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion transcript

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
