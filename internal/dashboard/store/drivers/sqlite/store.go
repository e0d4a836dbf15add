// Package sqlite persists sessions in a SQLite database. Tokens are stored
// CBOR-encoded and sealed with AES-GCM, bound to their session ID.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/domain"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/aussiebroadwan/devicelocator/pkg/cryptox"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
	"github.com/fxamacker/cbor/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sqlx.DB
	sealer *cryptox.Sealer
}

// DSN builds a modernc sqlite DSN for path with WAL and a busy timeout.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

func NewStore(dsn string, sealer *cryptox.Sealer) (*Store, error) {
	if sealer == nil {
		return nil, errors.New("sqlite: sealer is required")
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, sealer: sealer}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Sessions() store.Sessions { return &sessionsRepo{db: s.db} }

func (s *Store) Tokens(sessionID string) store.TokenStore {
	return &tokenSlot{db: s.db, sealer: s.sealer, sessionID: sessionID}
}

type sessionRow struct {
	ID         string `db:"id"`
	OAuthState string `db:"oauth_state"`
	AccountKey string `db:"account_key"`
	CreatedAt  int64  `db:"created_at"`
	ExpiresAt  int64  `db:"expires_at"`
}

func toRow(s domain.Session) sessionRow {
	return sessionRow{
		ID:         s.ID,
		OAuthState: s.OAuthState,
		AccountKey: s.AccountKey,
		CreatedAt:  s.CreatedAt.UnixMilli(),
		ExpiresAt:  s.ExpiresAt.UnixMilli(),
	}
}

func (r sessionRow) toDomain() domain.Session {
	return domain.Session{
		ID:         r.ID,
		OAuthState: r.OAuthState,
		AccountKey: r.AccountKey,
		CreatedAt:  time.UnixMilli(r.CreatedAt).UTC(),
		ExpiresAt:  time.UnixMilli(r.ExpiresAt).UTC(),
	}
}

type sessionsRepo struct {
	db *sqlx.DB
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sessions (id, oauth_state, account_key, created_at, expires_at)
		VALUES (:id, :oauth_state, :account_key, :created_at, :expires_at)`, toRow(s))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, oauth_state, account_key, created_at, expires_at
		FROM sessions WHERE id = ?`, id)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *sessionsRepo) UpdateSession(ctx context.Context, s domain.Session) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE sessions
		SET oauth_state = :oauth_state, account_key = :account_key, expires_at = :expires_at
		WHERE id = :id`, toRow(s))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type tokenSlot struct {
	db        *sqlx.DB
	sealer    *cryptox.Sealer
	sessionID string
}

func (t *tokenSlot) Get(ctx context.Context) (*oauthx.TokenRecord, error) {
	var sealed []byte
	err := t.db.QueryRowxContext(ctx, `SELECT token FROM sessions WHERE id = ?`, t.sessionID).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && len(sealed) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	plain, err := t.sealer.Open(sealed, []byte(t.sessionID))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open token: %w", err)
	}

	var rec oauthx.TokenRecord
	if err := cbor.Unmarshal(plain, &rec); err != nil {
		return nil, fmt.Errorf("sqlite: decode token: %w", err)
	}
	return &rec, nil
}

func (t *tokenSlot) Replace(ctx context.Context, rec *oauthx.TokenRecord) error {
	if rec == nil {
		return t.Clear(ctx)
	}

	plain, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sqlite: encode token: %w", err)
	}

	sealed, err := t.sealer.Seal(plain, []byte(t.sessionID))
	if err != nil {
		return fmt.Errorf("sqlite: seal token: %w", err)
	}

	res, err := t.db.ExecContext(ctx, `UPDATE sessions SET token = ? WHERE id = ?`, sealed, t.sessionID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (t *tokenSlot) Clear(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `UPDATE sessions SET token = NULL WHERE id = ?`, t.sessionID)
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
