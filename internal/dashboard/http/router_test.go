package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	httpapi "github.com/aussiebroadwan/devicelocator/internal/dashboard/http"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store/drivers/memory"
	"github.com/aussiebroadwan/devicelocator/pkg/httpx"
	"github.com/aussiebroadwan/devicelocator/pkg/jwtx"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
	"github.com/aussiebroadwan/devicelocator/pkg/voiceadmin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const validAccessToken = "at-login"

// fixture runs the dashboard against fake GoTo token and Voice Admin servers.
type fixture struct {
	t      *testing.T
	clock  *clockwork.FakeClock
	store  *memory.Store
	server *httptest.Server
	client *http.Client

	exchanges atomic.Int32
	reboots   atomic.Int32

	mu          sync.Mutex
	onRefresh   http.HandlerFunc
	voiceStatus int // forced status for every Voice Admin call, 0 for normal
}

type fixtureOption func(*httpapi.Options)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		clock: clockwork.NewFakeClockAt(epoch),
		store: memory.NewStore(),
	}

	tokenSrv := httptest.NewServer(http.HandlerFunc(f.serveToken))
	t.Cleanup(tokenSrv.Close)
	voiceSrv := httptest.NewServer(f.voiceMux())
	t.Cleanup(voiceSrv.Close)

	auth := oauthx.NewClient(oauthx.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:5000/auth/callback",
		AuthURL:      tokenSrv.URL + "/oauth/authorize",
		TokenURL:     tokenSrv.URL + "/oauth/token",
	})
	auth.Clock = f.clock
	auth.HTTPClient = &http.Client{Timeout: 2 * time.Second}

	api := voiceadmin.NewClient(voiceSrv.URL)

	sessions := &service.SessionService{
		Store:      f.store,
		Auth:       auth,
		Clock:      f.clock,
		SessionTTL: 2 * time.Hour,
	}

	signer, err := jwtx.NewHS256([]byte(strings.Repeat("k", jwtx.MinHS256KeySize)), "test", f.clock)
	require.NoError(t, err)

	options := httpapi.Options{
		AppTitle:   "Test Dashboard",
		Version:    "test",
		Env:        "dev",
		SessionTTL: 2 * time.Hour,
		Clock:      f.clock,
	}
	for _, opt := range opts {
		opt(&options)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := httpapi.NewRouter(signer, f.store, logger, options)
	router.SessionService = sessions
	router.DirectoryService = &service.DirectoryService{API: api}
	router.VoiceAdmin = api
	router.ApplyRoutes()

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fixture) serveToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		f.exchanges.Add(1)
		if r.PostForm.Get("code") != "good-code" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  validAccessToken,
			"refresh_token": "rt-login",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	case "refresh_token":
		f.mu.Lock()
		handler := f.onRefresh
		f.mu.Unlock()
		if handler != nil {
			handler(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": validAccessToken,
			"expires_in":   3600,
		})
	default:
		http.Error(w, "unsupported grant", http.StatusBadRequest)
	}
}

func (f *fixture) voiceMux() http.Handler {
	mux := http.NewServeMux()

	device := map[string]any{
		"id":       "dev-1",
		"name":     "Reception Phone",
		"type":     "DESK_PHONE",
		"location": map[string]any{"id": "loc-1", "name": "Head Office"},
	}

	mux.HandleFunc("GET /locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{{"id": "loc-1", "name": "Head Office"}},
		})
	})
	mux.HandleFunc("GET /locations/{id}/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{device}})
	})
	mux.HandleFunc("GET /locations/{id}/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{{"id": "u-1", "firstName": "Ada", "lastName": "Lovelace"}},
		})
	})
	mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"items": []any{device}}
		if r.URL.Query().Get("pageMarker") == "" {
			body["nextPageMarker"] = "page-2"
		}
		writeJSON(w, http.StatusOK, body)
	})
	mux.HandleFunc("GET /devices/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "dev-1":
			writeJSON(w, http.StatusOK, device)
		case "dev-nowhere":
			writeJSON(w, http.StatusOK, map[string]any{"id": "dev-nowhere", "location": map[string]any{}})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		}
	})
	mux.HandleFunc("GET /devices/{id}/buttons-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	})
	mux.HandleFunc("POST /devices/{id}/reboot", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "dev-1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		f.reboots.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /extensions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": "ext-1", "number": "1001", "name": "Sales", "type": "DIRECT_EXTENSION"},
				{"id": "ext-2", "number": "2000", "name": "Main menu"},
			},
		})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		forced := f.voiceStatus
		f.mu.Unlock()

		if forced != 0 {
			w.WriteHeader(forced)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+validAccessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (f *fixture) setVoiceStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voiceStatus = status
}

func (f *fixture) setRefreshHandler(fn http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onRefresh = fn
}

func (f *fixture) do(method, path string, body io.Reader, contentType string) *http.Response {
	f.t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, body)
	require.NoError(f.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := f.client.Do(req)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *fixture) get(path string) *http.Response {
	f.t.Helper()
	return f.do(http.MethodGet, path, nil, "")
}

func (f *fixture) postJSON(path, body string) *http.Response {
	f.t.Helper()
	return f.do(http.MethodPost, path, strings.NewReader(body), "application/json")
}

func (f *fixture) postForm(path string, form url.Values) *http.Response {
	f.t.Helper()
	return f.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func requireRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))
}

func (f *fixture) sessionCookie() string {
	u, _ := url.Parse(f.server.URL)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == "dl_session" {
			return c.Value
		}
	}
	return ""
}

// beginLogin follows /authenticate and returns the state sent to GoTo.
func (f *fixture) beginLogin() string {
	f.t.Helper()

	resp := f.get("/authenticate")
	require.Equal(f.t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(f.t, err)
	require.Equal(f.t, "/oauth/authorize", loc.Path)

	state := loc.Query().Get("state")
	require.NotEmpty(f.t, state)
	return state
}

// login completes the authorization code flow and selects an account.
func (f *fixture) login(withAccount bool) {
	f.t.Helper()

	state := f.beginLogin()
	requireRedirect(f.t, f.get("/auth/callback?code=good-code&state="+url.QueryEscape(state)), "/dashboard")

	if withAccount {
		requireRedirect(f.t, f.postForm("/dashboard", url.Values{"account_key": {"acct-1"}}), "/dashboard")
	}
}

func TestIndex(t *testing.T) {
	f := newFixture(t)

	resp := f.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Test Dashboard")
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	require.NotEmpty(t, f.sessionCookie(), "first visit starts a session")
}

func TestUnauthenticatedPagesRedirect(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/dashboard", "/locations", "/devices", "/device-locations", "/device/dev-1"} {
		t.Run(path, func(t *testing.T) {
			requireRedirect(t, f.get(path), "/")
		})
	}

	resp := f.get("/")
	require.Contains(t, readBody(t, resp), "Please authenticate first.")

	// The flash is shown once.
	require.NotContains(t, readBody(t, f.get("/")), "Please authenticate first.")
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	f.get("/")
	before := f.sessionCookie()
	require.NotEmpty(t, before)

	state := f.beginLogin()
	requireRedirect(t, f.get("/auth/callback?code=good-code&state="+url.QueryEscape(state)), "/dashboard")

	require.NotEqual(t, before, f.sessionCookie(), "session is replaced after login")
	require.EqualValues(t, 1, f.exchanges.Load())

	resp := f.get("/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, "Authentication successful!")
	require.Contains(t, body, "Log out")
}

func TestCallbackFailures(t *testing.T) {
	t.Run("state mismatch", func(t *testing.T) {
		f := newFixture(t)
		f.beginLogin()

		requireRedirect(t, f.get("/auth/callback?code=good-code&state=forged"), "/")
		require.Contains(t, readBody(t, f.get("/")), "state mismatch")
		require.Zero(t, f.exchanges.Load(), "no exchange on mismatched state")
		requireRedirect(t, f.get("/dashboard"), "/")
	})

	t.Run("state is single use", func(t *testing.T) {
		f := newFixture(t)
		state := f.beginLogin()

		requireRedirect(t, f.get("/auth/callback?code=bad-code&state="+url.QueryEscape(state)), "/")
		requireRedirect(t, f.get("/auth/callback?code=good-code&state="+url.QueryEscape(state)), "/")
		require.EqualValues(t, 1, f.exchanges.Load())
	})

	t.Run("authorization error", func(t *testing.T) {
		f := newFixture(t)
		f.beginLogin()

		requireRedirect(t, f.get("/auth/callback?error=access_denied"), "/")
		require.Contains(t, readBody(t, f.get("/")), "Authentication error: access_denied")
	})

	t.Run("missing code", func(t *testing.T) {
		f := newFixture(t)
		f.beginLogin()

		requireRedirect(t, f.get("/auth/callback?state=x"), "/")
		require.Contains(t, readBody(t, f.get("/")), "Authentication was cancelled or failed.")
	})
}

func TestAccountKey(t *testing.T) {
	f := newFixture(t)
	f.login(false)

	requireRedirect(t, f.get("/locations"), "/dashboard")
	require.Contains(t, readBody(t, f.get("/dashboard")), "Please set your account key in the dashboard first.")

	requireRedirect(t, f.postForm("/dashboard", url.Values{"account_key": {"  "}}), "/dashboard")
	require.Contains(t, readBody(t, f.get("/dashboard")), "Please enter an account key.")

	requireRedirect(t, f.postForm("/dashboard", url.Values{"account_key": {"acct-1"}}), "/dashboard")
	body := readBody(t, f.get("/dashboard"))
	require.Contains(t, body, "Account key updated successfully!")
	require.Contains(t, body, "acct-1")

	resp := f.get("/locations")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Head Office")
}

func TestAccountKeyQueryOverride(t *testing.T) {
	f := newFixture(t)
	f.login(false)

	resp := f.get("/devices?account_key=acct-2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, "Reception Phone")
	require.Contains(t, body, "page_marker=page-2")

	// The override is remembered.
	require.Equal(t, http.StatusOK, f.get("/locations").StatusCode)
}

func TestPages(t *testing.T) {
	f := newFixture(t)
	f.login(true)

	tests := []struct {
		path string
		want []string
	}{
		{"/device-locations", []string{"Head Office", "Reception Phone"}},
		{"/extensions", []string{"DIRECT_EXTENSION", "Sales", service.UnknownExtensionType, "Main menu"}},
		{"/location/loc-1", []string{"Reception Phone", "Ada"}},
		{"/device/dev-1", []string{"Reception Phone", "DESK_PHONE"}},
		{"/device-management", []string{"Reception Phone", "/reboot-device"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := f.get(tt.path)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			body := readBody(t, resp)
			for _, want := range tt.want {
				require.Contains(t, body, want)
			}
		})
	}
}

func TestDeviceRedirects(t *testing.T) {
	f := newFixture(t)
	f.login(true)

	requireRedirect(t, f.get("/device/dev-1/location"), "/location/loc-1")
	requireRedirect(t, f.get("/device/dev-nowhere/location"), "/device/dev-nowhere")

	requireRedirect(t, f.get("/device/missing"), "/devices")
	require.Contains(t, readBody(t, f.get("/dashboard")), "Device not found.")
}

func TestDeviceActions(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		f := newFixture(t)

		resp := f.postJSON("/reboot-device", `{"device_key":"dev-1"}`)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.JSONEq(t, `{"success":false,"error":"Not authenticated"}`, readBody(t, resp))
	})

	f := newFixture(t)
	f.login(true)

	t.Run("reboot by key", func(t *testing.T) {
		resp := f.postJSON("/reboot-device", `{"device_key":"dev-1"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result voiceadmin.ActionResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.True(t, result.Success)
		require.Equal(t, "Device reboot initiated successfully", result.Message)
	})

	t.Run("reboot by path", func(t *testing.T) {
		resp := f.do(http.MethodPost, "/device/dev-1/reboot", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing device key", func(t *testing.T) {
		resp := f.postJSON("/reboot-device", `{}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"success":false,"error":"Device key is required"}`, readBody(t, resp))
	})

	t.Run("unknown device", func(t *testing.T) {
		resp := f.postJSON("/reboot-device", `{"device_key":"missing"}`)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	require.EqualValues(t, 2, f.reboots.Load())
}

func TestDeviceActionsRateLimited(t *testing.T) {
	f := newFixture(t, func(o *httpapi.Options) {
		o.RateLimits = httpx.RateLimitProfiles{
			Strict:   httpx.StrictLimit,
			Moderate: httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
			Lenient:  httpx.LenientLimit,
		}
	})
	f.login(true)

	require.Equal(t, http.StatusOK, f.postJSON("/reboot-device", `{"device_key":"dev-1"}`).StatusCode)

	resp := f.postJSON("/reboot-device", `{"device_key":"dev-1"}`)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestAPIDevice(t *testing.T) {
	f := newFixture(t)

	resp := f.get("/api/device/dev-1")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.JSONEq(t, `{"error":"Not authenticated"}`, readBody(t, resp))

	f.login(false)

	resp = f.get("/api/device/dev-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var device voiceadmin.Device
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&device))
	require.Equal(t, "Reception Phone", device.Name)
	require.Equal(t, "loc-1", device.Location.Ident())

	resp = f.get("/api/device/missing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"error":"Device not found"}`, readBody(t, resp))
}

func TestUpstreamFailures(t *testing.T) {
	t.Run("vendor rejects access token", func(t *testing.T) {
		f := newFixture(t)
		f.login(true)

		f.setVoiceStatus(http.StatusUnauthorized)
		requireRedirect(t, f.get("/locations"), "/")
		require.Contains(t, readBody(t, f.get("/")), "Please log in again.")

		// The rejected token is gone.
		f.setVoiceStatus(0)
		requireRedirect(t, f.get("/locations"), "/")
	})

	t.Run("vendor error", func(t *testing.T) {
		f := newFixture(t)
		f.login(true)

		f.setVoiceStatus(http.StatusInternalServerError)
		resp := f.get("/locations")
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
		require.Contains(t, readBody(t, resp), "status 500")
	})

	t.Run("refresh rejected", func(t *testing.T) {
		f := newFixture(t)
		f.login(true)

		f.setRefreshHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		})
		f.clock.Advance(3590 * time.Second)

		requireRedirect(t, f.get("/locations"), "/")
		require.Contains(t, readBody(t, f.get("/")), "Please log in again.")
	})

	t.Run("token endpoint unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.login(true)

		f.setRefreshHandler(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		f.clock.Advance(3590 * time.Second)

		resp := f.get("/locations")
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Contains(t, readBody(t, resp), "Please try again.")

		// The token survives, so a recovered endpoint serves the page.
		f.setRefreshHandler(nil)
		require.Equal(t, http.StatusOK, f.get("/locations").StatusCode)
	})

	t.Run("malformed token response", func(t *testing.T) {
		f := newFixture(t)
		f.login(true)

		f.setRefreshHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"token_type":"Bearer"}`)
		})
		f.clock.Advance(3590 * time.Second)

		require.Equal(t, http.StatusBadGateway, f.get("/locations").StatusCode)
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(true)

	requireRedirect(t, f.get("/logout"), "/")
	require.Contains(t, readBody(t, f.get("/")), "You have been logged out.")
	requireRedirect(t, f.get("/locations"), "/")
}

func TestSessionExpiry(t *testing.T) {
	f := newFixture(t)
	f.login(true)

	f.clock.Advance(2*time.Hour + time.Second)
	requireRedirect(t, f.get("/locations"), "/")
}

func TestSystemRoutes(t *testing.T) {
	f := newFixture(t)

	resp := f.get("/livez")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health httpapi.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)

	resp = f.get("/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "ok", health.Checks.SessionStore)

	require.Equal(t, http.StatusNoContent, f.get("/favicon.ico").StatusCode)

	resp = f.get("/no/such/page")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Page not found")
}

func TestDebugSession(t *testing.T) {
	t.Run("dev", func(t *testing.T) {
		f := newFixture(t)
		f.login(true)

		resp := f.get("/debug/session")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := readBody(t, resp)
		require.NotContains(t, body, validAccessToken)

		var dbg httpapi.SessionDebug
		require.NoError(t, json.Unmarshal([]byte(body), &dbg))
		require.True(t, dbg.Authenticated)
		require.Equal(t, "acct-1", dbg.AccountKey)
		require.False(t, dbg.LoginPending)
	})

	t.Run("prod", func(t *testing.T) {
		f := newFixture(t, func(o *httpapi.Options) { o.Env = "prod" })
		require.Equal(t, http.StatusForbidden, f.get("/debug/session").StatusCode)
	})
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t, func(o *httpapi.Options) {
		o.RateLimits = httpx.RateLimitProfiles{
			Strict:   httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
			Moderate: httpx.ModerateLimit,
			Lenient:  httpx.LenientLimit,
		}
	})

	require.Equal(t, http.StatusFound, f.get("/authenticate").StatusCode)
	require.Equal(t, http.StatusTooManyRequests, f.get("/authenticate").StatusCode)
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	f := newFixture(t, func(o *httpapi.Options) {
		o.RateLimits = httpx.RateLimitProfiles{
			Strict:   httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
			Moderate: httpx.ModerateLimit,
			Lenient:  httpx.LenientLimit,
		}
	})

	authenticateAs := func(forwardedFor string) int {
		req, err := http.NewRequest(http.MethodGet, f.server.URL+"/authenticate", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		resp, err := f.client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	require.Equal(t, http.StatusFound, authenticateAs("203.0.113.1"))
	require.Equal(t, http.StatusTooManyRequests, authenticateAs("203.0.113.2"))
}
