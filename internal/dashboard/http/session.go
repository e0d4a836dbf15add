package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/domain"
	"github.com/aussiebroadwan/devicelocator/pkg/cryptox"
	"github.com/aussiebroadwan/devicelocator/pkg/httpx"
	"github.com/aussiebroadwan/devicelocator/pkg/jwtx"
	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
	"github.com/jonboulle/clockwork"
)

const (
	sessionCookieName = "dl_session"
	flashCookieName   = "dl_flash"

	flashMaxAge = 60
)

// Flash categories, used as CSS classes by the templates.
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashError   = "error"
)

type flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

type sessionCtxKey struct{}

func withSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

// sessionFromContext returns the session resolved by Router.withSession.
func sessionFromContext(ctx context.Context) domain.Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(domain.Session)
	return sess
}

// sessionCookies issues the signed cookie binding a browser to its session,
// and the short-lived flash cookie.
type sessionCookies struct {
	signer   jwtx.Signer
	verifier jwtx.Verifier
	issuer   string
	secure   bool
	ttl      time.Duration
	clock    clockwork.Clock
}

// read returns the session ID carried by the request and when the cookie was
// issued. An absent or invalid cookie yields an empty ID.
func (c *sessionCookies) read(r *http.Request) (string, time.Time) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", time.Time{}
	}

	claims, err := c.verifier.Verify(cookie.Value)
	if err != nil {
		slogx.FromContext(r.Context()).Debug("session cookie rejected", "error", err)
		return "", time.Time{}
	}

	var issued time.Time
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	return claims.SID, issued
}

func (c *sessionCookies) set(w http.ResponseWriter, sessionID string) error {
	token, err := c.signer.Sign(jwtx.NewSessionClaims(sessionID, c.issuer, c.ttl, c.clock.Now()))
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *sessionCookies) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// stale reports whether a cookie issued at issued should be re-signed so the
// browser keeps up with the sliding session expiry.
func (c *sessionCookies) stale(issued time.Time) bool {
	return issued.IsZero() || c.clock.Since(issued) > c.ttl/4
}

// addFlash queues a message for the next rendered page.
func (c *sessionCookies) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	flashes := append(readFlashes(r), flash{Category: category, Message: message})

	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns the queued messages and expires the cookie.
func (c *sessionCookies) popFlashes(w http.ResponseWriter, r *http.Request) []flash {
	flashes := readFlashes(r)
	if len(flashes) == 0 {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return flashes
}

func readFlashes(r *http.Request) []flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flashes []flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}

// withSession resolves the browser session from the cookie, creating a new
// one when it is missing or expired, and places it on the request context.
func (r *Router) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		log := slogx.FromContext(ctx)

		sid, issued := r.cookies.read(req)

		sess, err := r.SessionService.Start(ctx, sid)
		if err != nil {
			log.Error("failed to start session", "error", err)
			r.views.renderError(w, req, http.StatusInternalServerError, "Your session could not be loaded. Please try again.")
			return
		}

		if sess.ID != sid || r.cookies.stale(issued) {
			if err := r.cookies.set(w, sess.ID); err != nil {
				log.Error("failed to sign session cookie", "error", err)
				r.views.renderError(w, req, http.StatusInternalServerError, "Your session could not be loaded. Please try again.")
				return
			}
		}

		ctx = httpx.WithSessionID(ctx, sess.ID)
		ctx = withSession(ctx, sess)
		ctx = slogx.With(ctx, "sid", cryptox.FingerprintToken(sess.ID))

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
