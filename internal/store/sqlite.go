package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/docqa/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	deleteMu sync.Mutex // serializes session deletes to limit SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen_at);

	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		chunks INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_session ON documents(session_id);

	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSession creates the session if needed and bumps its last_seen_at.
func (s *SQLiteStore) EnsureSession(ctx context.Context, sessionID string, now time.Time) (*domain.Session, error) {
	query := `
	INSERT INTO sessions (session_id, last_seen_at, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET last_seen_at = excluded.last_seen_at
	RETURNING created_at`

	var createdAt int64
	if err := s.db.QueryRowContext(ctx, query, sessionID, now.Unix(), now.Unix()).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("upsert session: %w", err)
	}

	return &domain.Session{
		ID:         sessionID,
		LastSeenAt: time.Unix(now.Unix(), 0),
		CreatedAt:  time.Unix(createdAt, 0),
	}, nil
}

// AddDocuments records documents indexed for a session in one transaction.
func (s *SQLiteStore) AddDocuments(ctx context.Context, sessionID string, docs []domain.Document) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Warn("failed to roll back document insert", "error", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (session_id, filename, pages, size, chunks, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare document insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, d := range docs {
		if _, err = stmt.ExecContext(ctx, sessionID, d.Filename, d.Pages, d.Size, d.Chunks, now); err != nil {
			return fmt.Errorf("insert document %s: %w", d.Filename, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit documents: %w", err)
	}
	return nil
}

// ListDocuments returns the session's documents in upload order.
func (s *SQLiteStore) ListDocuments(ctx context.Context, sessionID string) ([]domain.Document, error) {
	query := `
		SELECT filename, pages, size, chunks
		FROM documents WHERE session_id = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close document rows", "error", closeErr)
		}
	}()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.Filename, &d.Pages, &d.Size, &d.Chunks); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// AppendExchange records one question/answer pair.
func (s *SQLiteStore) AppendExchange(ctx context.Context, sessionID string, ex domain.Exchange) error {
	at := ex.At
	if at.IsZero() {
		at = time.Now()
	}
	query := `INSERT INTO exchanges (session_id, question, answer, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, sessionID, ex.Question, ex.Answer, at.Unix()); err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// Stats counts documents, chunks and exchanges for a session.
func (s *SQLiteStore) Stats(ctx context.Context, sessionID string) (domain.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM documents WHERE session_id = ?),
			(SELECT COALESCE(SUM(chunks), 0) FROM documents WHERE session_id = ?),
			(SELECT COUNT(*) FROM exchanges WHERE session_id = ?)`

	var st domain.Stats
	if err := s.db.QueryRowContext(ctx, query, sessionID, sessionID, sessionID).
		Scan(&st.Documents, &st.Chunks, &st.ChatHistory); err != nil {
		return domain.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}

// DeleteSession removes a session and everything attached to it.
// Implements retry logic with exponential backoff to handle SQLITE_BUSY errors.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.deleteSessionOnce(ctx, sessionID)
		if err == nil {
			return nil
		}

		if IsBusyError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("DeleteSession failed with SQLITE_BUSY, retrying",
				"session_id", sessionID,
				"attempt", i+1,
				"delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		return fmt.Errorf("failed to delete session %s after %d attempts: %w", sessionID, i+1, err)
	}

	return nil
}

func (s *SQLiteStore) deleteSessionOnce(ctx context.Context, sessionID string) (err error) {
	s.deleteMu.Lock()
	defer s.deleteMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, q := range []string{
		`DELETE FROM documents WHERE session_id = ?`,
		`DELETE FROM exchanges WHERE session_id = ?`,
		`DELETE FROM sessions WHERE session_id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, q, sessionID); err != nil {
			return fmt.Errorf("delete session data: %w", err)
		}
	}

	return tx.Commit()
}

// ExpiredSessions returns the IDs of sessions idle for longer than ttl.
func (s *SQLiteStore) ExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := time.Now().Add(-ttl).Unix()
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM sessions WHERE last_seen_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close expired sessions rows", "error", closeErr)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired session row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}

	return ids, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
