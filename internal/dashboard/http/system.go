package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/aussiebroadwan/devicelocator/pkg/cryptox"
	"github.com/aussiebroadwan/devicelocator/pkg/httpx"
	"github.com/jonboulle/clockwork"
)

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status" example:"ok"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty" example:"1h23m45s"`

	// Version is the service version string
	Version string `json:"version,omitempty" example:"v0.1.0"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds the per-dependency results of /readyz.
type HealthChecks struct {
	// SessionStore indicates the session store connection status
	SessionStore string `json:"session_store" example:"ok"`
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string, clock clockwork.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  clock.Since(startTime).Round(time.Second).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and the session store check
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, clock clockwork.Clock, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{SessionStore: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.SessionStore = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  clock.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

// DebugHandler exposes the caller's own session state in development.
type DebugHandler struct {
	Sessions *service.SessionService
	Env      string
}

// SessionDebug is the body of /debug/session.
type SessionDebug struct {
	SessionFingerprint string    `json:"session_fingerprint"`
	AccountKey         string    `json:"account_key,omitempty"`
	LoginPending       bool      `json:"login_pending"`
	Authenticated      bool      `json:"authenticated"`
	CreatedAt          time.Time `json:"created_at"`
	ExpiresAt          time.Time `json:"expires_at"`
	TokenExpiresAt     time.Time `json:"token_expires_at,omitzero"`
	Scopes             []string  `json:"scopes,omitempty"`
}

// Session godoc
//
//	@Summary		Inspect the current session
//	@Description	Only available when ENV=dev. Never returns token values.
//	@Tags			Debug
//	@Produce		json
//	@Success		200	{object}	SessionDebug		"session state"
//	@Failure		403	{object}	httpx.ErrorResponse	"not in development mode"
//	@Router			/debug/session [get].
func (h *DebugHandler) Session(w http.ResponseWriter, r *http.Request) {
	if h.Env != "dev" {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "Debug mode only")
		return
	}

	ctx := r.Context()
	sess := sessionFromContext(ctx)

	out := SessionDebug{
		SessionFingerprint: cryptox.FingerprintToken(sess.ID),
		AccountKey:         sess.AccountKey,
		LoginPending:       sess.OAuthState != "",
		CreatedAt:          sess.CreatedAt,
		ExpiresAt:          sess.ExpiresAt,
	}

	if rec, err := h.Sessions.Store.Tokens(sess.ID).Get(ctx); err == nil && rec != nil {
		out.Authenticated = true
		out.TokenExpiresAt = rec.ExpiresAt()
		out.Scopes = rec.Scopes()
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}
