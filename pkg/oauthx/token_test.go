package oauthx

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func TestNewTokenRecord(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("derives expiry from issue time", func(t *testing.T) {
		rec, err := NewTokenRecord("access", "refresh", "", []string{"b", "a", "a"}, issued, time.Hour)
		require.NoError(t, err)
		require.Equal(t, issued.Add(time.Hour), rec.ExpiresAt())
		require.Equal(t, "Bearer", rec.TokenType())
		require.Equal(t, []string{"a", "b"}, rec.Scopes())
		require.Equal(t, "a b", rec.Scope())
		require.True(t, rec.HasScope("a"))
		require.False(t, rec.HasScope("c"))
	})

	t.Run("rejects empty access token", func(t *testing.T) {
		_, err := NewTokenRecord("", "refresh", "Bearer", nil, issued, time.Hour)
		require.ErrorIs(t, err, ErrEmptyAccessToken)
	})

	t.Run("rejects non-positive expiry", func(t *testing.T) {
		_, err := NewTokenRecord("access", "", "Bearer", nil, issued, 0)
		require.ErrorIs(t, err, ErrInvalidExpiry)
	})
}

func TestTokenRecordScopesIsCopy(t *testing.T) {
	t.Parallel()

	rec, err := NewTokenRecord("access", "", "Bearer", []string{"voice-admin.v1.read"}, time.Now(), time.Minute)
	require.NoError(t, err)

	scopes := rec.Scopes()
	scopes[0] = "tampered"
	require.Equal(t, []string{"voice-admin.v1.read"}, rec.Scopes())
}

func TestTokenRecordExpiresWithin(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec, err := NewTokenRecord("access", "", "Bearer", nil, issued, 10*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		now    time.Time
		window time.Duration
		want   bool
	}{
		{"well before expiry", issued, time.Minute, false},
		{"inside window", issued.Add(9*time.Minute + 30*time.Second), time.Minute, true},
		{"exactly at window edge", issued.Add(9 * time.Minute), time.Minute, true},
		{"already expired", issued.Add(11 * time.Minute), time.Minute, true},
		{"zero window before expiry", issued.Add(9 * time.Minute), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, rec.ExpiresWithin(tt.now, tt.window))
		})
	}

	require.False(t, rec.Expired(issued.Add(9*time.Minute)))
	require.True(t, rec.Expired(issued.Add(10*time.Minute)))
}

func TestTokenRecordWithFallback(t *testing.T) {
	t.Parallel()

	now := time.Now()
	prev, err := NewTokenRecord("old-access", "old-refresh", "Bearer", []string{"read"}, now, time.Minute)
	require.NoError(t, err)

	next, err := NewTokenRecord("new-access", "", "Bearer", nil, now, time.Hour)
	require.NoError(t, err)

	merged := next.withFallback(prev)
	require.Equal(t, "new-access", merged.AccessToken())
	require.Equal(t, "old-refresh", merged.RefreshToken())
	require.Equal(t, []string{"read"}, merged.Scopes())

	// the inputs are left untouched
	require.Empty(t, next.RefreshToken())
	require.Equal(t, "old-access", prev.AccessToken())
}

func TestTokenRecordCBOR(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec, err := NewTokenRecord("access", "refresh", "Bearer", []string{"read", "write"}, issued, time.Hour)
	require.NoError(t, err)

	data, err := cbor.Marshal(rec)
	require.NoError(t, err)

	var decoded TokenRecord
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	require.Equal(t, rec.AccessToken(), decoded.AccessToken())
	require.Equal(t, rec.RefreshToken(), decoded.RefreshToken())
	require.Equal(t, rec.Scopes(), decoded.Scopes())
	require.True(t, rec.ExpiresAt().Equal(decoded.ExpiresAt()))
	require.True(t, rec.IssuedAt().Equal(decoded.IssuedAt()))
}

func TestTokenRecordStringHidesSecrets(t *testing.T) {
	t.Parallel()

	rec, err := NewTokenRecord("super-secret-access", "super-secret-refresh", "Bearer", nil, time.Now(), time.Hour)
	require.NoError(t, err)

	require.NotContains(t, rec.String(), "super-secret")
	require.NotContains(t, rec.LogValue().String(), "super-secret")
}
