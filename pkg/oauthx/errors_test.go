package oauthx

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthErrorIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := fmt.Errorf("loading page: %w", newAuthError(KindNetworkFailure, "refresh", cause))

	require.ErrorIs(t, err, ErrNetworkFailure)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrInvalidGrant)
	require.Equal(t, KindNetworkFailure, KindOf(err))
	require.Equal(t, Kind(""), KindOf(cause))
}

func TestAuthErrorNested(t *testing.T) {
	t.Parallel()

	inner := newAuthError(KindInvalidGrant, "refresh", &OAuth2Error{Code: "invalid_grant"})
	outer := newAuthError(KindNotAuthenticated, "session", inner)

	require.ErrorIs(t, outer, ErrNotAuthenticated)
	require.ErrorIs(t, outer, ErrInvalidGrant)
	require.Equal(t, KindNotAuthenticated, KindOf(outer))
	require.Equal(t, "oauthx: session: not_authenticated: oauthx: refresh: invalid_grant: invalid_grant", outer.Error())
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("rfc 6749 body", func(t *testing.T) {
		e := parseErrorResponse(400, []byte(`{"error":"invalid_grant","error_description":"expired"}`))
		require.Equal(t, "invalid_grant", e.Code)
		require.Equal(t, "expired", e.Description)
		require.Equal(t, 400, e.StatusCode)
	})

	t.Run("fallback", func(t *testing.T) {
		e := parseErrorResponse(502, []byte(`<html>bad gateway</html>`))
		require.Equal(t, "http_502", e.Code)
		require.Equal(t, "Bad Gateway", e.Description)
	})
}

func TestParseCallback(t *testing.T) {
	t.Parallel()

	t.Run("code and state", func(t *testing.T) {
		code, state, err := ParseCallback(url.Values{"code": {"abc"}, "state": {"xyz"}})
		require.NoError(t, err)
		require.Equal(t, "abc", code)
		require.Equal(t, "xyz", state)
	})

	t.Run("vendor error", func(t *testing.T) {
		_, _, err := ParseCallback(url.Values{"error": {"access_denied"}, "error_description": {"user said no"}})

		var oe *OAuth2Error
		require.True(t, errors.As(err, &oe))
		require.Equal(t, "access_denied", oe.Code)
		require.Equal(t, "access_denied: user said no", err.Error())
	})

	t.Run("missing code", func(t *testing.T) {
		_, _, err := ParseCallback(url.Values{"state": {"xyz"}})
		require.ErrorIs(t, err, ErrMissingCode)
	})
}
