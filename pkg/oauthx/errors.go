package oauthx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// Error kinds
// ============================================================================

// Kind classifies a token lifecycle failure by how the caller should react.
type Kind string

const (
	// KindNotAuthenticated means the session holds no usable credentials and the
	// user has to log in again.
	KindNotAuthenticated Kind = "not_authenticated"

	// KindInvalidGrant means the vendor rejected the code or refresh token.
	KindInvalidGrant Kind = "invalid_grant"

	// KindNetworkFailure means the token endpoint could not be reached or did not
	// answer in time. The caller may retry.
	KindNetworkFailure Kind = "network_failure"

	// KindMalformedResponse means the vendor answered with something that is not
	// a usable token response.
	KindMalformedResponse Kind = "malformed_response"
)

// ============================================================================
// AuthError
// ============================================================================

// AuthError is the error type returned by every token lifecycle operation.
type AuthError struct {
	Kind Kind
	Op   string // exchange, refresh, session
	Err  error
}

func (e *AuthError) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("oauthx: %s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("oauthx: %s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("oauthx: %s: %s", e.Op, e.Kind)
	default:
		return "oauthx: " + string(e.Kind)
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any *AuthError with the same Kind, so the sentinels below work
// with errors.Is regardless of Op and cause.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotAuthenticated  = &AuthError{Kind: KindNotAuthenticated}
	ErrInvalidGrant      = &AuthError{Kind: KindInvalidGrant}
	ErrNetworkFailure    = &AuthError{Kind: KindNetworkFailure}
	ErrMalformedResponse = &AuthError{Kind: KindMalformedResponse}
)

// KindOf returns the kind of the outermost AuthError in err's chain, or the
// empty Kind if there is none.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func newAuthError(kind Kind, op string, err error) *AuthError {
	return &AuthError{Kind: kind, Op: op, Err: err}
}

// ============================================================================
// OAuth2Error - vendor error bodies (RFC 6749 section 5.2)
// ============================================================================

// OAuth2Error is an error response returned by the authorization server,
// either from the token endpoint or on the redirect back to the callback.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuth2Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// parseErrorResponse turns a non-2xx token endpoint response into an
// *OAuth2Error. Bodies that are not RFC 6749 errors fall back to a generic
// error carrying the HTTP status.
func parseErrorResponse(statusCode int, body []byte) *OAuth2Error {
	var errResp OAuth2Error
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		errResp.StatusCode = statusCode
		return &errResp
	}

	return &OAuth2Error{
		StatusCode:  statusCode,
		Code:        fmt.Sprintf("http_%d", statusCode),
		Description: http.StatusText(statusCode),
	}
}
