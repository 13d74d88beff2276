package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id        TEXT PRIMARY KEY,
	created_at        TEXT NOT NULL,
	turn_count        INTEGER NOT NULL DEFAULT 0,
	last_confidence   REAL NOT NULL DEFAULT 0,
	last_mode         TEXT NOT NULL DEFAULT 'none',
	last_category     TEXT NOT NULL DEFAULT '',
	intelligence_json TEXT NOT NULL DEFAULT '{}',
	last_intel_turn   INTEGER NOT NULL DEFAULT 0,
	exit_reason       TEXT,
	terminal          INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
`

// #endregion schema

// #region sqlite-store
// SQLiteStore persists sessions in SQLite. Because every write is a
// read-merge-write of commutative merges inside one transaction, the
// store tolerates duplicate or out-of-order application of a turn.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by tooling (inspect, export).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// #endregion sqlite-store

// #region get
// Get reads a session by id, reporting presence.
func (s *SQLiteStore) Get(id string) (Session, bool, error) {
	row := s.db.QueryRow(
		`SELECT session_id, created_at, turn_count, last_confidence, last_mode,
		        last_category, intelligence_json, last_intel_turn, exit_reason, terminal
		 FROM sessions WHERE session_id = ?`, id,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, true, nil
}

// #endregion get

// #region init-if-absent
// InitIfAbsent creates a fresh session row unless one already exists.
func (s *SQLiteStore) InitIfAbsent(id string, now time.Time) (Session, error) {
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, created_at, intelligence_json)
		 VALUES (?, ?, '{}')
		 ON CONFLICT(session_id) DO NOTHING`,
		id, now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Session{}, fmt.Errorf("init session %s: %w", id, err)
	}
	sess, _, err := s.Get(id)
	return sess, err
}

// #endregion init-if-absent

// #region apply-turn
// ApplyTurn merges one turn's result into the stored session inside a
// transaction.
func (s *SQLiteStore) ApplyTurn(id string, turn TurnUpdate) (Session, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Session{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		`SELECT session_id, created_at, turn_count, last_confidence, last_mode,
		        last_category, intelligence_json, last_intel_turn, exit_reason, terminal
		 FROM sessions WHERE session_id = ?`, id,
	)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}

	sess = applyMerge(sess, turn)

	intelJSON, err := json.Marshal(sess.Intelligence)
	if err != nil {
		return Session{}, fmt.Errorf("marshal intelligence: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE sessions
		 SET turn_count = ?, last_confidence = ?, last_mode = ?, last_category = ?,
		     intelligence_json = ?, last_intel_turn = ?
		 WHERE session_id = ?`,
		sess.TurnCount, sess.LastConfidence, sess.LastMode.String(), sess.LastCategory,
		string(intelJSON), sess.LastIntelTurn, id,
	)
	if err != nil {
		return Session{}, fmt.Errorf("update session %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("commit: %w", err)
	}
	return sess, nil
}

// #endregion apply-turn

// #region finalize
// Finalize marks a session terminal. The first exit reason wins.
func (s *SQLiteStore) Finalize(id, exitReason string) (Session, error) {
	_, err := s.db.Exec(
		`UPDATE sessions SET terminal = 1, exit_reason = ?
		 WHERE session_id = ? AND terminal = 0`,
		nullIfEmpty(exitReason), id,
	)
	if err != nil {
		return Session{}, fmt.Errorf("finalize session %s: %w", id, err)
	}
	sess, ok, err := s.Get(id)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

// #endregion finalize

// #region list
// List returns up to limit sessions, most recently created first.
func (s *SQLiteStore) List(limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT session_id, created_at, turn_count, last_confidence, last_mode,
		        last_category, intelligence_json, last_intel_turn, exit_reason, terminal
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// #endregion list

// #region scan
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var createdStr, modeStr, intelJSON string
	var exitReason sql.NullString
	var terminal int

	err := row.Scan(
		&sess.ID, &createdStr, &sess.TurnCount, &sess.LastConfidence, &modeStr,
		&sess.LastCategory, &intelJSON, &sess.LastIntelTurn, &exitReason, &terminal,
	)
	if err != nil {
		return Session{}, err
	}

	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	sess.LastMode = ParseMode(modeStr)
	sess.Intelligence = Intelligence{}
	if err := json.Unmarshal([]byte(intelJSON), &sess.Intelligence); err != nil {
		return Session{}, fmt.Errorf("unmarshal intelligence: %w", err)
	}
	if exitReason.Valid {
		sess.ExitReason = exitReason.String
	}
	sess.Terminal = terminal != 0
	return sess, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion scan
