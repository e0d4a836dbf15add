// Package storetest holds behaviour tests shared by every store driver.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/domain"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// NewSession returns a session created at epoch that lives for an hour.
func NewSession(id string) domain.Session {
	return domain.Session{
		ID:        id,
		CreatedAt: epoch,
		ExpiresAt: epoch.Add(time.Hour),
	}
}

// NewToken builds a token issued at epoch.
func NewToken(t *testing.T, access, refresh string) *oauthx.TokenRecord {
	t.Helper()
	rec, err := oauthx.NewTokenRecord(access, refresh, "Bearer", []string{"voice-admin.v1.read"}, epoch, time.Hour)
	require.NoError(t, err)
	return rec
}

// Run exercises a driver. newStore must return an empty, migrated store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("expired sessions", func(t *testing.T) { testExpiredSessions(t, newStore(t)) })
	t.Run("tokens", func(t *testing.T) { testTokens(t, newStore(t)) })
	t.Run("tokens are per session", func(t *testing.T) { testTokenIsolation(t, newStore(t)) })
	t.Run("concurrent replace", func(t *testing.T) { testConcurrentReplace(t, newStore(t)) })
}

func testSessions(t *testing.T, st store.Store) {
	ctx := context.Background()
	repo := st.Sessions()

	_, err := repo.GetSession(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	s := NewSession("sid-1")
	require.NoError(t, repo.CreateSession(ctx, s))
	require.ErrorIs(t, repo.CreateSession(ctx, s), store.ErrAlreadyExists)

	got, err := repo.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, s, got)

	s.OAuthState = "state-1"
	s.AccountKey = "acct-1"
	s.ExpiresAt = epoch.Add(2 * time.Hour)
	require.NoError(t, repo.UpdateSession(ctx, s))

	got, err = repo.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, "state-1", got.OAuthState)
	require.Equal(t, "acct-1", got.AccountKey)
	require.Equal(t, epoch.Add(2*time.Hour), got.ExpiresAt)
	require.Equal(t, epoch, got.CreatedAt)

	require.ErrorIs(t, repo.UpdateSession(ctx, NewSession("missing")), store.ErrNotFound)

	require.NoError(t, repo.DeleteSession(ctx, "sid-1"))
	require.NoError(t, repo.DeleteSession(ctx, "sid-1"))
	_, err = repo.GetSession(ctx, "sid-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testExpiredSessions(t *testing.T, st store.Store) {
	ctx := context.Background()
	repo := st.Sessions()

	short := NewSession("short")
	short.ExpiresAt = epoch.Add(10 * time.Minute)
	require.NoError(t, repo.CreateSession(ctx, short))
	require.NoError(t, repo.CreateSession(ctx, NewSession("long")))
	require.NoError(t, st.Tokens("short").Replace(ctx, NewToken(t, "at-short", "rt-short")))

	n, err := repo.DeleteExpiredSessions(ctx, epoch.Add(5*time.Minute))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = repo.DeleteExpiredSessions(ctx, epoch.Add(10*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = repo.GetSession(ctx, "short")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetSession(ctx, "long")
	require.NoError(t, err)

	rec, err := st.Tokens("short").Get(ctx)
	require.NoError(t, err)
	require.Nil(t, rec, "purging a session drops its token")
}

func testTokens(t *testing.T, st store.Store) {
	ctx := context.Background()
	require.NoError(t, st.Sessions().CreateSession(ctx, NewSession("sid-1")))
	tokens := st.Tokens("sid-1")

	rec, err := tokens.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, rec, "never authenticated")

	first := NewToken(t, "at-1", "rt-1")
	require.NoError(t, tokens.Replace(ctx, first))

	rec, err = tokens.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "at-1", rec.AccessToken())
	require.Equal(t, "rt-1", rec.RefreshToken())
	require.Equal(t, first.ExpiresAt(), rec.ExpiresAt())
	require.Equal(t, first.IssuedAt(), rec.IssuedAt())
	require.Equal(t, first.Scopes(), rec.Scopes())

	require.NoError(t, tokens.Replace(ctx, NewToken(t, "at-2", "rt-2")))
	rec, err = tokens.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "at-2", rec.AccessToken())
	require.Equal(t, "at-1", first.AccessToken(), "old holders keep their record")

	require.NoError(t, tokens.Clear(ctx))
	rec, err = tokens.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, rec)

	require.NoError(t, tokens.Replace(ctx, first))
	require.NoError(t, tokens.Replace(ctx, nil))
	rec, err = tokens.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, rec, "replacing with nil clears")

	require.ErrorIs(t, st.Tokens("missing").Replace(ctx, first), store.ErrNotFound)
	require.NoError(t, st.Tokens("missing").Clear(ctx))

	// Logout path: deleting the session removes the token with it.
	require.NoError(t, tokens.Replace(ctx, first))
	require.NoError(t, st.Sessions().DeleteSession(ctx, "sid-1"))
	rec, err = tokens.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, rec)
}

func testTokenIsolation(t *testing.T, st store.Store) {
	ctx := context.Background()
	require.NoError(t, st.Sessions().CreateSession(ctx, NewSession("a")))
	require.NoError(t, st.Sessions().CreateSession(ctx, NewSession("b")))

	require.NoError(t, st.Tokens("a").Replace(ctx, NewToken(t, "at-a", "rt-a")))

	rec, err := st.Tokens("b").Get(ctx)
	require.NoError(t, err)
	require.Nil(t, rec)

	require.NoError(t, st.Tokens("b").Replace(ctx, NewToken(t, "at-b", "rt-b")))
	require.NoError(t, st.Tokens("a").Clear(ctx))

	rec, err = st.Tokens("b").Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "at-b", rec.AccessToken())
}

func testConcurrentReplace(t *testing.T, st store.Store) {
	ctx := context.Background()
	require.NoError(t, st.Sessions().CreateSession(ctx, NewSession("sid-1")))
	tokens := st.Tokens("sid-1")

	candidates := make(map[string]bool)
	var wg sync.WaitGroup
	for i := range 8 {
		access := "at-" + string(rune('a'+i))
		candidates[access] = true
		rec := NewToken(t, access, "rt")

		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tokens.Replace(ctx, rec))
			_, err := tokens.Get(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := tokens.Get(ctx)
	require.NoError(t, err)
	require.True(t, candidates[rec.AccessToken()], "last writer wins with a whole record")
}
