// Package memory is an in-process session store. Tokens never leave the
// process and are lost on restart.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/domain"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
)

type entry struct {
	session domain.Session
	token   atomic.Pointer[oauthx.TokenRecord]
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

func (s *Store) Sessions() store.Sessions { return sessionsRepo{s} }

func (s *Store) Tokens(sessionID string) store.TokenStore {
	return tokenSlot{s: s, sessionID: sessionID}
}

func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

type sessionsRepo struct{ s *Store }

func (r sessionsRepo) CreateSession(_ context.Context, sess domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[sess.ID]; ok {
		return store.ErrAlreadyExists
	}
	r.s.sessions[sess.ID] = &entry{session: sess}
	return nil
}

func (r sessionsRepo) GetSession(_ context.Context, id string) (domain.Session, error) {
	e, ok := r.s.lookup(id)
	if !ok {
		return domain.Session{}, store.ErrNotFound
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return e.session, nil
}

func (r sessionsRepo) UpdateSession(_ context.Context, sess domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.sessions[sess.ID]
	if !ok {
		return store.ErrNotFound
	}
	e.session.OAuthState = sess.OAuthState
	e.session.AccountKey = sess.AccountKey
	e.session.ExpiresAt = sess.ExpiresAt
	return nil
}

func (r sessionsRepo) DeleteSession(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, id)
	return nil
}

func (r sessionsRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, e := range r.s.sessions {
		if e.session.Expired(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

type tokenSlot struct {
	s         *Store
	sessionID string
}

func (t tokenSlot) Get(_ context.Context) (*oauthx.TokenRecord, error) {
	e, ok := t.s.lookup(t.sessionID)
	if !ok {
		return nil, nil
	}
	return e.token.Load(), nil
}

func (t tokenSlot) Replace(_ context.Context, rec *oauthx.TokenRecord) error {
	e, ok := t.s.lookup(t.sessionID)
	if !ok {
		return store.ErrNotFound
	}
	e.token.Store(rec)
	return nil
}

func (t tokenSlot) Clear(_ context.Context) error {
	if e, ok := t.s.lookup(t.sessionID); ok {
		e.token.Store(nil)
	}
	return nil
}
