package app

import (
	"io"
	"log/slog"
	"testing"

	"github.com/aussiebroadwan/devicelocator/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitKeysDeterministic(t *testing.T) {
	a, err := InitKeys("correct horse battery staple", discardLogger())
	require.NoError(t, err)
	b, err := InitKeys("correct horse battery staple", discardLogger())
	require.NoError(t, err)

	require.Len(t, a.CookieKey, jwtx.MinHS256KeySize)
	require.Equal(t, a.CookieKey, b.CookieKey)

	// A token sealed by one process opens in the next.
	sealed, err := a.Sealer.Seal([]byte("refresh-token"), []byte("sid"))
	require.NoError(t, err)
	opened, err := b.Sealer.Open(sealed, []byte("sid"))
	require.NoError(t, err)
	require.Equal(t, "refresh-token", string(opened))
}

func TestInitKeysDifferentSecrets(t *testing.T) {
	a, err := InitKeys("secret-one", discardLogger())
	require.NoError(t, err)
	b, err := InitKeys("secret-two", discardLogger())
	require.NoError(t, err)

	require.NotEqual(t, a.CookieKey, b.CookieKey)

	sealed, err := a.Sealer.Seal([]byte("refresh-token"), nil)
	require.NoError(t, err)
	_, err = b.Sealer.Open(sealed, nil)
	require.Error(t, err)
}

func TestInitKeysGeneratesSecret(t *testing.T) {
	a, err := InitKeys("", discardLogger())
	require.NoError(t, err)
	b, err := InitKeys("", discardLogger())
	require.NoError(t, err)

	require.Len(t, a.CookieKey, jwtx.MinHS256KeySize)
	require.NotEqual(t, a.CookieKey, b.CookieKey, "each process gets its own random secret")
}
