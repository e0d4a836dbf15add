package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/domain"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (memory, sqlite)
// implement this. Tokens are scoped to a session so there is never a
// process-wide "current token".
type Store interface {
	Sessions() Sessions

	// Tokens returns the token slot of one session.
	Tokens(sessionID string) TokenStore

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}

type Sessions interface {
	// CreateSession inserts a new session. Returns ErrAlreadyExists on an ID clash.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession returns ErrNotFound for unknown IDs. Expired sessions are
	// returned as-is; callers decide what expiry means.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// UpdateSession overwrites the mutable fields (state, account key, expiry).
	// The session's token is left alone.
	UpdateSession(ctx context.Context, s domain.Session) error

	// DeleteSession removes the session and its token. Deleting an unknown
	// session is not an error.
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions removes every session with ExpiresAt <= now and
	// reports how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// TokenStore holds at most one current TokenRecord for a session.
type TokenStore interface {
	// Get returns the current record, or nil when the session has never
	// authenticated, was cleared, or no longer exists.
	Get(ctx context.Context) (*oauthx.TokenRecord, error)

	// Replace atomically swaps in rec. Readers holding the previous record
	// keep it. A nil rec is the same as Clear. Returns ErrNotFound if the
	// session does not exist.
	Replace(ctx context.Context, rec *oauthx.TokenRecord) error

	// Clear drops the current record.
	Clear(ctx context.Context) error
}
