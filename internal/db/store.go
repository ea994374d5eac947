package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jssdwang06/listening-master/internal/dictation"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		audio_path TEXT NOT NULL UNIQUE,
		started_at REAL NOT NULL,
		ended_at REAL NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		total_length REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS dictation_attempts (
		id TEXT PRIMARY KEY,
		audio_path TEXT NOT NULL,
		sentence_index INTEGER NOT NULL,
		reference TEXT NOT NULL,
		transcript TEXT NOT NULL,
		similarity REAL NOT NULL,
		matched INTEGER NOT NULL DEFAULT 0,
		correct INTEGER NOT NULL DEFAULT 0,
		created_at REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_audio ON dictation_attempts(audio_path, created_at);
`

// Store provides access to the listening history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "listening-master", "history.sqlite")
}

// Open opens or creates the database with WAL and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// OpenReadOnly opens an existing database without write access.
func OpenReadOnly(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetAccumulated returns the seconds listened to audioPath, 0 when unknown.
func (s *Store) GetAccumulated(audioPath string) (float64, error) {
	var d float64
	err := s.db.QueryRow(`SELECT duration FROM sessions WHERE audio_path = ?`, audioPath).Scan(&d)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query duration: %w", err)
	}
	return d, nil
}

// UpsertSession saves the listened total for audioPath. A first save dates
// the session back by the time already listened.
func (s *Store) UpsertSession(audioPath string, accumulated, totalLength float64) error {
	now := unixFromTime(s.now())
	_, err := s.db.Exec(`
		INSERT INTO sessions (audio_path, started_at, ended_at, duration, total_length)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(audio_path) DO UPDATE SET
			ended_at = excluded.ended_at,
			duration = excluded.duration,
			total_length = excluded.total_length
	`, audioPath, now-accumulated, now, accumulated, totalLength)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Sessions returns the listening history, most recently played first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, audio_path, started_at, ended_at, duration, total_length
		FROM sessions
		ORDER BY ended_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Session returns the record for audioPath, or nil if there is none.
func (s *Store) Session(audioPath string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT id, audio_path, started_at, ended_at, duration, total_length
		FROM sessions
		WHERE audio_path = ?
	`, audioPath)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var sess Session
	var startedAt, endedAt float64
	if err := sc.Scan(&sess.ID, &sess.AudioPath, &startedAt, &endedAt,
		&sess.Duration, &sess.TotalLength); err != nil {
		if err == sql.ErrNoRows {
			return sess, err
		}
		return sess, fmt.Errorf("scan session: %w", err)
	}
	sess.StartedAt = timeFromUnix(startedAt)
	sess.EndedAt = timeFromUnix(endedAt)
	return sess, nil
}

// DeleteSession removes a history entry and its dictation attempts.
func (s *Store) DeleteSession(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM dictation_attempts
		WHERE audio_path = (SELECT audio_path FROM sessions WHERE id = ?)
	`, id); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return tx.Commit()
}

// ClearSessions removes all history.
func (s *Store) ClearSessions() error {
	if _, err := s.db.Exec(`DELETE FROM dictation_attempts; DELETE FROM sessions;`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// RecordAttempt stores a graded dictation attempt.
func (s *Store) RecordAttempt(audioPath string, a dictation.Attempt) error {
	_, err := s.db.Exec(`
		INSERT INTO dictation_attempts
			(id, audio_path, sentence_index, reference, transcript, similarity, matched, correct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, audioPath, a.SentenceIndex, a.Reference, a.Transcript,
		a.Similarity, a.Matched, a.Correct, unixFromTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// AttemptsFor returns the attempts made on audioPath, oldest first.
func (s *Store) AttemptsFor(audioPath string) ([]Attempt, error) {
	rows, err := s.db.Query(`
		SELECT id, audio_path, sentence_index, reference, transcript, similarity, matched, correct, created_at
		FROM dictation_attempts
		WHERE audio_path = ?
		ORDER BY created_at ASC
	`, audioPath)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var createdAt float64
		if err := rows.Scan(&a.ID, &a.AudioPath, &a.SentenceIndex, &a.Reference, &a.Transcript,
			&a.Similarity, &a.Matched, &a.Correct, &createdAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.CreatedAt = timeFromUnix(createdAt)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// DictationTotals sums the attempts made on audioPath.
func (s *Store) DictationTotals(audioPath string) (DictationTotals, error) {
	var d DictationTotals
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(correct), 0),
			COALESCE(SUM(LENGTH(reference)), 0),
			COALESCE(SUM(matched), 0)
		FROM dictation_attempts
		WHERE audio_path = ?
	`, audioPath).Scan(&d.Attempts, &d.Correct, &d.ReferenceChars, &d.CorrectChars)
	if err != nil {
		return d, fmt.Errorf("query dictation totals: %w", err)
	}
	return d, nil
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
