package oauthx

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrEmptyAccessToken is returned when a token record is built without an access token.
	ErrEmptyAccessToken = errors.New("oauthx: access token is empty")

	// ErrInvalidExpiry is returned when expires_in is missing, zero or negative.
	ErrInvalidExpiry = errors.New("oauthx: expires_in must be positive")
)

// TokenRecord is an immutable snapshot of one set of credentials issued by the
// token endpoint. Use the accessor methods to read it; a refresh always
// produces a new record rather than mutating an existing one.
type TokenRecord struct {
	accessToken  string
	refreshToken string
	tokenType    string
	scopes       []string
	issuedAt     time.Time
	expiresAt    time.Time
}

// NewTokenRecord builds a record issued at issuedAt that expires expiresIn later.
func NewTokenRecord(
	accessToken, refreshToken, tokenType string,
	scopes []string,
	issuedAt time.Time,
	expiresIn time.Duration,
) (*TokenRecord, error) {
	if accessToken == "" {
		return nil, ErrEmptyAccessToken
	}
	if expiresIn <= 0 {
		return nil, ErrInvalidExpiry
	}
	if tokenType == "" {
		tokenType = "Bearer"
	}

	issuedAt = issuedAt.UTC()
	return &TokenRecord{
		accessToken:  accessToken,
		refreshToken: refreshToken,
		tokenType:    tokenType,
		scopes:       normalizeScopes(scopes),
		issuedAt:     issuedAt,
		expiresAt:    issuedAt.Add(expiresIn),
	}, nil
}

func (t *TokenRecord) AccessToken() string  { return t.accessToken }
func (t *TokenRecord) RefreshToken() string { return t.refreshToken }
func (t *TokenRecord) TokenType() string    { return t.tokenType }
func (t *TokenRecord) IssuedAt() time.Time  { return t.issuedAt }
func (t *TokenRecord) ExpiresAt() time.Time { return t.expiresAt }

// Scopes returns a copy of the granted scopes in sorted order.
func (t *TokenRecord) Scopes() []string {
	return slices.Clone(t.scopes)
}

// Scope returns the granted scopes in their space-delimited wire form.
func (t *TokenRecord) Scope() string {
	return strings.Join(t.scopes, " ")
}

// HasScope reports whether scope was granted.
func (t *TokenRecord) HasScope(scope string) bool {
	_, found := slices.BinarySearch(t.scopes, scope)
	return found
}

// ExpiresWithin reports whether the record expires before now+window, which
// includes records that have already expired.
func (t *TokenRecord) ExpiresWithin(now time.Time, window time.Duration) bool {
	return !now.Add(window).Before(t.expiresAt)
}

// Expired reports whether the record is past its expiry at now.
func (t *TokenRecord) Expired(now time.Time) bool {
	return !now.Before(t.expiresAt)
}

// withFallback returns a copy of t that inherits the refresh token and scopes
// of prev wherever the token endpoint omitted them.
func (t *TokenRecord) withFallback(prev *TokenRecord) *TokenRecord {
	if prev == nil {
		return t
	}

	next := *t
	if next.refreshToken == "" {
		next.refreshToken = prev.refreshToken
	}
	if len(next.scopes) == 0 {
		next.scopes = slices.Clone(prev.scopes)
	}
	return &next
}

// LogValue keeps credentials out of structured logs.
func (t *TokenRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token_type", t.tokenType),
		slog.Bool("has_refresh_token", t.refreshToken != ""),
		slog.String("scope", t.Scope()),
		slog.Time("expires_at", t.expiresAt),
	)
}

// String never prints the credentials themselves.
func (t *TokenRecord) String() string {
	return fmt.Sprintf("TokenRecord{type=%s, scope=%q, expires_at=%s}",
		t.tokenType, t.Scope(), t.expiresAt.Format(time.RFC3339))
}

// tokenRecordWire is the CBOR layout used when a record is persisted.
type tokenRecordWire struct {
	_            struct{} `cbor:",toarray"`
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scopes       []string
	IssuedAt     int64
	ExpiresAt    int64
}

// MarshalCBOR implements cbor.Marshaler.
func (t *TokenRecord) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(tokenRecordWire{
		AccessToken:  t.accessToken,
		RefreshToken: t.refreshToken,
		TokenType:    t.tokenType,
		Scopes:       t.scopes,
		IssuedAt:     t.issuedAt.UnixMilli(),
		ExpiresAt:    t.expiresAt.UnixMilli(),
	})
}

// UnmarshalCBOR implements cbor.Unmarshaler. It is only meant for decoding
// into a zero TokenRecord.
func (t *TokenRecord) UnmarshalCBOR(data []byte) error {
	var w tokenRecordWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("oauthx: decode token record: %w", err)
	}
	if w.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	*t = TokenRecord{
		accessToken:  w.AccessToken,
		refreshToken: w.RefreshToken,
		tokenType:    w.TokenType,
		scopes:       normalizeScopes(w.Scopes),
		issuedAt:     time.UnixMilli(w.IssuedAt).UTC(),
		expiresAt:    time.UnixMilli(w.ExpiresAt).UTC(),
	}
	return nil
}

// ParseScope splits a space-delimited scope string.
func ParseScope(s string) []string {
	return normalizeScopes(strings.Fields(s))
}

func normalizeScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}
	out := slices.Clone(scopes)
	slices.Sort(out)
	return slices.Compact(out)
}
