package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/pkg/httpx"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
)

// AuthHandler drives the authorization code login and logout.
type AuthHandler struct {
	Sessions *service.SessionService

	cookies *sessionCookies
	views   *views
}

// Authenticate records a fresh state on the session and redirects the
// browser to the GoTo authorization page.
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := httpx.SessionIDFromContext(ctx)

	sess, authURL, err := h.Sessions.BeginLogin(ctx, sid)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to begin login", "error", err)
		h.views.renderError(w, r, http.StatusInternalServerError, "Login could not be started. Please try again.")
		return
	}
	if sess.ID != sid {
		if err := h.cookies.set(w, sess.ID); err != nil {
			slogx.FromContext(ctx).Error("failed to sign session cookie", "error", err)
			h.views.renderError(w, r, http.StatusInternalServerError, "Login could not be started. Please try again.")
			return
		}
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the login started by Authenticate. On success the
// session is replaced by a new one holding the token.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code, state, err := oauthx.ParseCallback(r.URL.Query())
	if err != nil {
		var oauthErr *oauthx.OAuth2Error
		if errors.As(err, &oauthErr) {
			log.Info("authorization denied", "error", oauthErr.Code, "description", oauthErr.Description)
			h.views.redirect(w, r, "/", flashError, "Authentication error: "+oauthErr.Code)
			return
		}
		h.views.redirect(w, r, "/", flashError, "Authentication was cancelled or failed.")
		return
	}

	sess, err := h.Sessions.CompleteLogin(ctx, httpx.SessionIDFromContext(ctx), code, state)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStateMismatch):
			log.Warn("oauth state mismatch on callback")
			h.views.redirect(w, r, "/", flashError, "Authentication failed due to state mismatch. Please try again.")
		case errors.Is(err, oauthx.ErrInvalidGrant):
			log.Info("authorization code rejected", "error", err)
			h.views.redirect(w, r, "/", flashError, "Authentication failed. Please try again.")
		default:
			f := h.views.classify(ctx, err)
			h.views.redirect(w, r, "/", flashError, "Authentication failed. "+f.Message)
		}
		return
	}

	if err := h.cookies.set(w, sess.ID); err != nil {
		log.Error("failed to sign session cookie", "error", err)
		h.views.renderError(w, r, http.StatusInternalServerError, "Your session could not be saved. Please try again.")
		return
	}

	h.views.redirect(w, r, "/dashboard", flashSuccess, "Authentication successful!")
}

// Logout forgets the token and the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Sessions.Logout(ctx, httpx.SessionIDFromContext(ctx)); err != nil {
		slogx.FromContext(ctx).Error("failed to clear session on logout", "error", err)
	}
	h.cookies.clear(w)

	h.views.redirect(w, r, "/", flashInfo, "You have been logged out.")
}
