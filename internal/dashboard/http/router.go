package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/service"
	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/aussiebroadwan/devicelocator/pkg/httpx"
	"github.com/aussiebroadwan/devicelocator/pkg/jwtx"
	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
	"github.com/jonboulle/clockwork"

	_ "github.com/aussiebroadwan/devicelocator/api/dashboard" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options are the presentation and policy settings of the dashboard.
type Options struct {
	AppTitle     string
	Version      string
	Env          string
	CookieSecure bool
	SessionTTL   time.Duration
	RateLimits   httpx.RateLimitProfiles
	Clock        clockwork.Clock

	// TrustProxyHeaders keys IP rate limits on X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

func (o Options) withDefaults() Options {
	if o.AppTitle == "" {
		o.AppTitle = "GoTo Voice Admin Dashboard"
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = service.DefaultSessionTTL
	}
	if o.RateLimits == (httpx.RateLimitProfiles{}) {
		o.RateLimits = httpx.DefaultRateLimitProfiles()
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	opts      Options
	startTime time.Time
	logger    *slog.Logger
	store     store.Store
	cookies   *sessionCookies
	views     *views

	SessionService   *service.SessionService
	DirectoryService *service.DirectoryService
	VoiceAdmin       VoiceAdmin
}

// NewRouter builds a Router. The services and VoiceAdmin client must be set
// before ApplyRoutes.
func NewRouter(signer *jwtx.HS256, st store.Store, logger *slog.Logger, opts Options) *Router {
	opts = opts.withDefaults()

	cookies := &sessionCookies{
		signer:   signer,
		verifier: signer,
		issuer:   signer.Issuer(),
		secure:   opts.CookieSecure,
		ttl:      opts.SessionTTL,
		clock:    opts.Clock,
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		opts:      opts,
		startTime: opts.Clock.Now(),
		logger:    logger,
		store:     st,
		cookies:   cookies,
		views:     newViews(opts.AppTitle, opts.Env, cookies),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		httpx.SecurityHeaders(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.views.sessions = r.SessionService

	r.registerAuth()
	r.registerPages()
	r.registerDevices()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Voice Admin Dashboard API
//	@version		0.1.0
//	@description	JSON endpoints of the GoTo Voice Admin dashboard. Every call is made on behalf of
//	@description	the browser session identified by the session cookie; the dashboard holds the
//	@description	vendor access token server-side and refreshes it as needed.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/devicelocator
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:5000
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) proxyOption() httpx.RateLimitOption {
	return httpx.WithTrustedProxyHeaders(r.opts.TrustProxyHeaders)
}

func (r *Router) limitByIP(cfg httpx.RateLimitConfig) httpx.Middleware {
	return httpx.RateLimitByIP(cfg, r.proxyOption())
}

// page wraps a browser-facing handler: lenient IP limit, then session.
func (r *Router) page(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		r.limitByIP(r.opts.RateLimits.Lenient),
		r.withSession,
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Sessions: r.SessionService,
		cookies:  r.cookies,
		views:    r.views,
	}

	// Login and callback start token exchanges - strict rate limit by IP
	r.Mux.Handle("GET /authenticate",
		httpx.Chain(http.HandlerFunc(h.Authenticate),
			r.limitByIP(r.opts.RateLimits.Strict),
			r.withSession,
		),
	)
	r.Mux.Handle("GET /auth/callback",
		httpx.Chain(http.HandlerFunc(h.Callback),
			r.limitByIP(r.opts.RateLimits.Strict),
			r.withSession,
		),
	)

	r.Mux.Handle("GET /logout", r.page(h.Logout))
}

func (r *Router) registerPages() {
	h := &PageHandler{
		Sessions:  r.SessionService,
		Directory: r.DirectoryService,
		API:       r.VoiceAdmin,
		views:     r.views,
	}

	r.Mux.Handle("GET /{$}", r.page(h.Index))
	r.Mux.Handle("GET /dashboard", r.page(h.Dashboard))
	r.Mux.Handle("POST /dashboard", r.page(h.SetAccountKey))

	r.Mux.Handle("GET /locations", r.page(h.Locations))
	r.Mux.Handle("GET /devices", r.page(h.Devices))
	r.Mux.Handle("GET /device-locations", r.page(h.DeviceLocations))
	r.Mux.Handle("GET /phone-numbers", r.page(h.PhoneNumbers))
	r.Mux.Handle("GET /extensions", r.page(h.Extensions))
	r.Mux.Handle("GET /device-models", r.page(h.DeviceModels))
	r.Mux.Handle("GET /device-management", r.page(h.DeviceManagement))

	r.Mux.Handle("GET /location/{id}", r.page(h.LocationDetail))
	r.Mux.Handle("GET /device/{key}", r.page(h.DeviceDetail))
	r.Mux.Handle("GET /device/{key}/location", r.page(h.DeviceLocation))
	r.Mux.Handle("GET /phone-number/{id}", r.page(h.PhoneNumberDetail))
	r.Mux.Handle("GET /extension/{id}", r.page(h.ExtensionDetail))
}

func (r *Router) registerDevices() {
	h := &DeviceHandler{
		Sessions: r.SessionService,
		API:      r.VoiceAdmin,
		views:    r.views,
	}

	// Device actions have side effects on real phones - moderate limit per session
	action := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.limitByIP(r.opts.RateLimits.Lenient),
			r.withSession,
			httpx.RateLimitBySession(r.opts.RateLimits.Moderate, r.proxyOption()),
		)
	}

	r.Mux.Handle("POST /device/{id}/reboot", action(h.Reboot))
	r.Mux.Handle("POST /device/{id}/resync", action(h.Resync))
	r.Mux.Handle("POST /reboot-device", action(h.RebootByKey))
	r.Mux.Handle("POST /resync-device", action(h.ResyncByKey))

	r.Mux.Handle("GET /api/device/{id}", r.page(h.Get))
}

func (r *Router) registerSystem() {
	lenient := r.limitByIP(r.opts.RateLimits.Lenient)

	r.Mux.Handle("GET /livez", httpx.Chain(LivezHandler(r.startTime, r.opts.Version, r.opts.Clock), lenient))
	r.Mux.Handle("GET /readyz", httpx.Chain(ReadyzHandler(r.startTime, r.opts.Version, r.opts.Clock, r.store), lenient))
	r.Mux.Handle("GET /favicon.ico", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	debug := &DebugHandler{Sessions: r.SessionService, Env: r.opts.Env}
	r.Mux.Handle("GET /debug/session", r.page(debug.Session))

	// Anything unmatched gets the HTML 404 page.
	r.Mux.Handle("/", httpx.Chain(http.HandlerFunc(r.views.notFound), lenient))
}
