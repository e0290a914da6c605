// Package store persists stub backend sessions, their indexed documents and
// their question/answer history.
package store

import (
	"context"
	"time"

	"github.com/ashureev/docqa/internal/domain"
)

// Repository defines the interface for persisting session state.
type Repository interface {
	// EnsureSession creates the session if needed and bumps its last_seen_at.
	EnsureSession(ctx context.Context, sessionID string, now time.Time) (*domain.Session, error)

	// AddDocuments records documents indexed for a session.
	AddDocuments(ctx context.Context, sessionID string, docs []domain.Document) error

	// ListDocuments returns the session's documents in upload order.
	ListDocuments(ctx context.Context, sessionID string) ([]domain.Document, error)

	// AppendExchange records one question/answer pair.
	AppendExchange(ctx context.Context, sessionID string, ex domain.Exchange) error

	// Stats counts documents, chunks and exchanges for a session.
	Stats(ctx context.Context, sessionID string) (domain.Stats, error)

	// DeleteSession removes a session and everything attached to it.
	DeleteSession(ctx context.Context, sessionID string) error

	// ExpiredSessions returns the IDs of sessions idle for longer than ttl.
	ExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
