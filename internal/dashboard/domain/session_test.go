package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/domain"
	"github.com/stretchr/testify/require"
)

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := domain.Session{ID: "sid", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	require.False(t, s.Expired(now))
	require.False(t, s.Expired(now.Add(59*time.Minute)))
	require.True(t, s.Expired(now.Add(time.Hour)))

	touched := s.Touch(now.Add(30*time.Minute), time.Hour)
	require.Equal(t, now.Add(90*time.Minute), touched.ExpiresAt)
	require.Equal(t, now.Add(time.Hour), s.ExpiresAt, "Touch must not mutate the receiver")
}
