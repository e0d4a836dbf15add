package oauthx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout bounds a single token endpoint round trip.
	DefaultTimeout = 10 * time.Second

	// maxTokenResponseSize caps how much of a token response we read.
	maxTokenResponseSize = 1 << 20
)

// Config describes a confidential OAuth 2.0 client registered with the vendor.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// Client talks to the vendor authorization server. It never keeps token
// state of its own; every call maps its inputs to a new TokenRecord or an
// *AuthError.
type Client struct {
	HTTPClient *http.Client
	Clock      clockwork.Clock

	oauth oauth2.Config
}

// NewClient returns a Client using a 10 second HTTP timeout and the real clock.
func NewClient(cfg Config) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Clock:      clockwork.NewRealClock(),
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// AuthorizationURL returns the URL the user agent is sent to in order to
// start the authorization code flow. state is echoed back on the callback.
func (c *Client) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a TokenRecord.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenRecord, error) {
	const op = "exchange"
	if code == "" {
		return nil, newAuthError(KindInvalidGrant, op, errors.New("authorization code is empty"))
	}

	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.oauth.RedirectURL},
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
	}

	return c.requestToken(ctx, op, data)
}

// Refresh trades the refresh token held by current for a new TokenRecord.
// When the vendor does not rotate the refresh token, or omits the scope, the
// values from current are carried into the new record.
func (c *Client) Refresh(ctx context.Context, current *TokenRecord) (*TokenRecord, error) {
	const op = "refresh"
	if current == nil {
		return nil, newAuthError(KindNotAuthenticated, op, errors.New("no token to refresh"))
	}
	if current.RefreshToken() == "" {
		return nil, newAuthError(KindInvalidGrant, op, errors.New("no refresh token available"))
	}

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {current.RefreshToken()},
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
	}

	next, err := c.requestToken(ctx, op, data)
	if err != nil {
		return nil, err
	}
	return next.withFallback(current), nil
}

// maxExpiresIn is the largest expires_in, in seconds, a time.Duration holds.
const maxExpiresIn = math.MaxInt64 / int64(time.Second)

// tokenResponse is the RFC 6749 section 5.1 success body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    *int64 `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func (c *Client) requestToken(ctx context.Context, op string, data url.Values) (*TokenRecord, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.oauth.Endpoint.TokenURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, newAuthError(KindNetworkFailure, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	// Expiry is measured from before the round trip so it never overshoots
	// the vendor's own clock.
	issuedAt := c.Clock.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, newAuthError(KindNetworkFailure, op, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return nil, newAuthError(KindNetworkFailure, op, fmt.Errorf("failed to read response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return nil, newAuthError(KindInvalidGrant, op, parseErrorResponse(resp.StatusCode, body))
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return nil, newAuthError(KindNetworkFailure, op, parseErrorResponse(resp.StatusCode, body))
	default:
		return nil, newAuthError(KindMalformedResponse, op, parseErrorResponse(resp.StatusCode, body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, newAuthError(KindMalformedResponse, op, fmt.Errorf("failed to decode response: %w", err))
	}
	if tr.ExpiresIn == nil {
		return nil, newAuthError(KindMalformedResponse, op, errors.New("response is missing expires_in"))
	}
	if *tr.ExpiresIn > maxExpiresIn {
		return nil, newAuthError(KindMalformedResponse, op, fmt.Errorf("expires_in out of range: %d", *tr.ExpiresIn))
	}

	rec, err := NewTokenRecord(
		tr.AccessToken,
		tr.RefreshToken,
		tr.TokenType,
		ParseScope(tr.Scope),
		issuedAt,
		time.Duration(*tr.ExpiresIn)*time.Second,
	)
	if err != nil {
		return nil, newAuthError(KindMalformedResponse, op, err)
	}

	return rec, nil
}
