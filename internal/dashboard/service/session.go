package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/domain"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/aussiebroadwan/devicelocator/pkg/cryptox"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRefreshSkew is how long before expiry a token is refreshed.
	DefaultRefreshSkew = 60 * time.Second

	// DefaultSessionTTL is the idle lifetime of a browser session.
	DefaultSessionTTL = time.Hour

	// DefaultRefreshTimeout bounds a shared refresh once it no longer
	// follows the request that started it.
	DefaultRefreshTimeout = 30 * time.Second
)

// ErrStateMismatch is returned when a callback's state does not match the
// login started by the session.
var ErrStateMismatch = errors.New("service: oauth state mismatch")

// Authenticator is the subset of oauthx.Client used by SessionService.
type Authenticator interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauthx.TokenRecord, error)
	Refresh(ctx context.Context, current *oauthx.TokenRecord) (*oauthx.TokenRecord, error)
}

// SessionService owns browser sessions and is the only way handlers obtain an
// access token.
type SessionService struct {
	Store  store.Store
	Auth   Authenticator
	Clock  clockwork.Clock
	Logger *slog.Logger

	RefreshSkew    time.Duration
	SessionTTL     time.Duration
	RefreshTimeout time.Duration

	refreshes singleflight.Group
}

func (s *SessionService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *SessionService) skew() time.Duration {
	if s.RefreshSkew <= 0 {
		return DefaultRefreshSkew
	}
	return s.RefreshSkew
}

func (s *SessionService) refreshTimeout() time.Duration {
	if s.RefreshTimeout <= 0 {
		return DefaultRefreshTimeout
	}
	return s.RefreshTimeout
}

func (s *SessionService) ttl() time.Duration {
	if s.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return s.SessionTTL
}

func (s *SessionService) logger(ctx context.Context, sessionID string) *slog.Logger {
	l := s.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	return l.With("sid", cryptox.FingerprintToken(sessionID))
}

func notAuthenticated(err error) error {
	return &oauthx.AuthError{Kind: oauthx.KindNotAuthenticated, Op: "session", Err: err}
}

// GetValidToken returns a token for sessionID that is not within the refresh
// skew of expiry, refreshing it first if needed.
//
// A refresh rejected by the vendor clears the session's token and returns a
// NotAuthenticated error. Network failures and malformed responses leave the
// stored token untouched so a later call can retry.
func (s *SessionService) GetValidToken(ctx context.Context, sessionID string) (*oauthx.TokenRecord, error) {
	if sessionID == "" {
		return nil, notAuthenticated(nil)
	}

	rec, err := s.Store.Tokens(sessionID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if rec == nil {
		return nil, notAuthenticated(nil)
	}

	if !rec.ExpiresWithin(s.now(), s.skew()) {
		return rec, nil
	}

	// The flight is shared by every waiting request, so it must not be
	// cancelled with the one that started it.
	ch := s.refreshes.DoChan(sessionID, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout())
		defer cancel()
		return s.refresh(flightCtx, sessionID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauthx.TokenRecord), nil
	case <-ctx.Done():
		return nil, &oauthx.AuthError{Kind: oauthx.KindNetworkFailure, Op: "refresh", Err: ctx.Err()}
	}
}

func (s *SessionService) refresh(ctx context.Context, sessionID string) (*oauthx.TokenRecord, error) {
	log := s.logger(ctx, sessionID)
	tokens := s.Store.Tokens(sessionID)

	// Re-read: a flight that just finished may already have replaced it.
	current, err := tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if current == nil {
		return nil, notAuthenticated(nil)
	}
	if !current.ExpiresWithin(s.now(), s.skew()) {
		return current, nil
	}

	next, err := s.Auth.Refresh(ctx, current)
	switch oauthx.KindOf(err) {
	case "":
		if err != nil {
			return nil, err
		}
	case oauthx.KindInvalidGrant, oauthx.KindNotAuthenticated:
		log.Info("token refresh rejected, clearing session token", "error", err)
		if clearErr := tokens.Clear(ctx); clearErr != nil {
			log.Error("failed to clear session token", "error", clearErr)
		}
		return nil, notAuthenticated(err)
	case oauthx.KindMalformedResponse:
		log.Error("token endpoint returned a malformed response", "error", err)
		return nil, err
	default:
		log.Warn("token refresh failed", "error", err)
		return nil, err
	}

	if err := tokens.Replace(ctx, next); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notAuthenticated(err)
		}
		return nil, fmt.Errorf("store refreshed token: %w", err)
	}

	log.Debug("token refreshed", "token", next)
	return next, nil
}

// Start returns the live session for sessionID with its expiry slid forward,
// or a new session when sessionID is empty, unknown or expired.
func (s *SessionService) Start(ctx context.Context, sessionID string) (domain.Session, error) {
	now := s.now()
	repo := s.Store.Sessions()

	if sessionID != "" {
		sess, err := repo.GetSession(ctx, sessionID)
		switch {
		case err == nil && !sess.Expired(now):
			sess = sess.Touch(now, s.ttl())
			if err := repo.UpdateSession(ctx, sess); err != nil {
				return domain.Session{}, fmt.Errorf("touch session: %w", err)
			}
			return sess, nil
		case err == nil:
			if err := repo.DeleteSession(ctx, sessionID); err != nil {
				return domain.Session{}, fmt.Errorf("drop expired session: %w", err)
			}
		case !errors.Is(err, store.ErrNotFound):
			return domain.Session{}, fmt.Errorf("load session: %w", err)
		}
	}

	return s.create(ctx, domain.Session{})
}

func (s *SessionService) create(ctx context.Context, tmpl domain.Session) (domain.Session, error) {
	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}

	now := s.now()
	sess := tmpl
	sess.ID = id
	sess.CreatedAt = now
	sess.ExpiresAt = now.Add(s.ttl())

	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Session returns the live session without modifying it.
func (s *SessionService) Session(ctx context.Context, sessionID string) (domain.Session, error) {
	sess, err := s.Store.Sessions().GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Expired(s.now()) {
		return domain.Session{}, store.ErrNotFound
	}
	return sess, nil
}

// BeginLogin records a fresh CSRF state on the session and returns the
// authorization URL the browser should be sent to.
func (s *SessionService) BeginLogin(ctx context.Context, sessionID string) (domain.Session, string, error) {
	sess, err := s.Start(ctx, sessionID)
	if err != nil {
		return domain.Session{}, "", err
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return domain.Session{}, "", err
	}
	sess.OAuthState = state

	if err := s.Store.Sessions().UpdateSession(ctx, sess); err != nil {
		return domain.Session{}, "", fmt.Errorf("save oauth state: %w", err)
	}
	return sess, s.Auth.AuthorizationURL(state), nil
}

// CompleteLogin validates state against the pending login, exchanges code for
// a token and binds it to a new session ID. The old session is removed; the
// returned session must be written back to the browser.
func (s *SessionService) CompleteLogin(ctx context.Context, sessionID, code, state string) (domain.Session, error) {
	repo := s.Store.Sessions()

	sess, err := s.Session(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, ErrStateMismatch
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	if sess.OAuthState == "" || !cryptox.EqualTokens(sess.OAuthState, state) {
		return domain.Session{}, ErrStateMismatch
	}

	// State is single use, whatever the exchange outcome.
	sess.OAuthState = ""
	if err := repo.UpdateSession(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("consume oauth state: %w", err)
	}

	rec, err := s.Auth.ExchangeCode(ctx, code)
	if err != nil {
		if oauthx.KindOf(err) == oauthx.KindMalformedResponse {
			s.logger(ctx, sessionID).Error("token endpoint returned a malformed response", "error", err)
		}
		return domain.Session{}, err
	}

	next, err := s.create(ctx, domain.Session{AccountKey: sess.AccountKey})
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.Store.Tokens(next.ID).Replace(ctx, rec); err != nil {
		if delErr := repo.DeleteSession(ctx, next.ID); delErr != nil {
			s.logger(ctx, next.ID).Warn("failed to drop session without token", "error", delErr)
		}
		return domain.Session{}, fmt.Errorf("store token: %w", err)
	}
	if err := repo.DeleteSession(ctx, sessionID); err != nil {
		s.logger(ctx, sessionID).Warn("failed to drop pre-login session", "error", err)
	}

	s.logger(ctx, next.ID).Info("login completed", "token", rec)
	return next, nil
}

// Logout clears the session's token and deletes the session.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return errors.Join(
		s.Store.Tokens(sessionID).Clear(ctx),
		s.Store.Sessions().DeleteSession(ctx, sessionID),
	)
}

// ClearToken drops the session's token while keeping the session. Used when
// the vendor API rejects an access token the session still considered valid.
func (s *SessionService) ClearToken(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.Store.Tokens(sessionID).Clear(ctx)
}

// SetAccountKey stores the Voice Admin account chosen on the dashboard.
func (s *SessionService) SetAccountKey(ctx context.Context, sessionID, accountKey string) error {
	sess, err := s.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.AccountKey = accountKey
	return s.Store.Sessions().UpdateSession(ctx, sess)
}

// IsAuthenticated reports whether the session currently holds a token. It
// does not contact the token endpoint.
func (s *SessionService) IsAuthenticated(ctx context.Context, sessionID string) bool {
	if sessionID == "" {
		return false
	}
	rec, err := s.Store.Tokens(sessionID).Get(ctx)
	return err == nil && rec != nil
}
