package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/domain"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store/drivers/memory"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, st store.Store, id string, ttl time.Duration) {
	t.Helper()
	require.NoError(t, st.Sessions().CreateSession(context.Background(), domain.Session{
		ID:        id,
		CreatedAt: epoch,
		ExpiresAt: epoch.Add(ttl),
	}))
}

func sessionExists(st store.Store, id string) bool {
	_, err := st.Sessions().GetSession(context.Background(), id)
	return err == nil
}

func TestHousekeepingRunOnce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	st := memory.NewStore()
	hk := service.NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), 0, clock)
	require.Equal(t, service.DefaultHousekeepingInterval, hk.Interval)

	seedSession(t, st, "short", 5*time.Minute)
	seedSession(t, st, "long", time.Hour)

	n, err := hk.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	clock.Advance(5 * time.Minute)
	n, err = hk.RunOnce(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.False(t, sessionExists(st, "short"))
	require.True(t, sessionExists(st, "long"))
}

func TestHousekeepingLoop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	st := memory.NewStore()
	hk := service.NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Minute, clock)

	seedSession(t, st, "stale", -time.Minute)
	seedSession(t, st, "soon", 15*time.Minute)

	hk.Start()
	t.Cleanup(hk.Stop)

	// Startup pass removes sessions that were already expired.
	require.Eventually(t, func() bool { return !sessionExists(st, "stale") }, time.Second, 5*time.Millisecond)
	require.True(t, sessionExists(st, "soon"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(10 * time.Minute)
	require.True(t, sessionExists(st, "soon"))

	clock.Advance(10 * time.Minute)
	require.Eventually(t, func() bool { return !sessionExists(st, "soon") }, time.Second, 5*time.Millisecond)
}
