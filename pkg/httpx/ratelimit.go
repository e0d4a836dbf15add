package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/devicelocator/pkg/slogx"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Default rate limit profiles.
var (
	// StrictLimit guards the login and callback routes.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	// ModerateLimit guards device actions that reach the vendor API with side effects.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 30, Window: time.Minute, Burst: 30}

	// LenientLimit guards read-only pages and health checks.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 300, Window: time.Minute, Burst: 300}
)

// RateLimitProfiles groups the limits applied by a router.
type RateLimitProfiles struct {
	Strict   RateLimitConfig
	Moderate RateLimitConfig
	Lenient  RateLimitConfig
}

// DefaultRateLimitProfiles returns the package defaults.
func DefaultRateLimitProfiles() RateLimitProfiles {
	return RateLimitProfiles{Strict: StrictLimit, Moderate: ModerateLimit, Lenient: LenientLimit}
}

// RateLimitProfilesFromEnv applies RATELIMIT_{STRICT,MODERATE,LENIENT}_* overrides
// to the defaults.
func RateLimitProfilesFromEnv() RateLimitProfiles {
	return RateLimitProfiles{
		Strict:   ParseRateLimitFromEnv("STRICT", StrictLimit),
		Moderate: ParseRateLimitFromEnv("MODERATE", ModerateLimit),
		Lenient:  ParseRateLimitFromEnv("LENIENT", LenientLimit),
	}
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
// For example: RATELIMIT_STRICT_REQUESTS, RATELIMIT_STRICT_WINDOW_SEC, RATELIMIT_STRICT_BURST
// Invalid or non-positive values leave the default in place.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		config.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		config.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_BURST"); ok {
		config.Burst = n
	}

	return config
}

func positiveEnvInt(key string) (int, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyExtractor is a function that extracts a unique key from the request
// for rate limiting purposes (e.g., IP address or session ID).
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the IP of the connection's remote address. Client
// supplied forwarding headers are ignored.
func IPKeyExtractor(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ForwardedIPKeyExtractor prefers X-Forwarded-For and X-Real-IP over the
// remote address. Only use it behind a proxy that overwrites those headers.
func ForwardedIPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return IPKeyExtractor(r)
}

// SessionKeyExtractor extracts the session ID placed on the context by WithSessionID.
func SessionKeyExtractor(r *http.Request) string {
	return SessionIDFromContext(r.Context())
}

// CompositeKeyExtractor combines multiple key extractors with a separator.
// Empty parts are skipped.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// FirstKeyExtractor returns the first non-empty key produced by extractors.
func FirstKeyExtractor(extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				return key
			}
		}
		return ""
	}
}

const limiterSweepInterval = 5 * time.Minute

// limiterSet manages one token bucket per key.
type limiterSet struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	rate      rate.Limit
	burst     int
	clock     clockwork.Clock
	lastSweep time.Time
}

func (ls *limiterSet) get(key string, now time.Time) *rate.Limiter {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if now.Sub(ls.lastSweep) >= limiterSweepInterval {
		ls.sweep(now)
	}

	limiter, ok := ls.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(ls.rate, ls.burst)
		ls.limiters[key] = limiter
	}
	return limiter
}

// sweep drops limiters whose buckets have refilled, i.e. idle keys.
func (ls *limiterSet) sweep(now time.Time) {
	ls.lastSweep = now
	for key, limiter := range ls.limiters {
		if limiter.TokensAt(now) >= float64(ls.burst) {
			delete(ls.limiters, key)
		}
	}
}

// RateLimitOption customises RateLimitMiddleware.
type RateLimitOption func(*rateLimitOptions)

type rateLimitOptions struct {
	clock      clockwork.Clock
	reject     http.Handler
	trustProxy bool
}

func (o *rateLimitOptions) ipExtractor() KeyExtractor {
	if o.trustProxy {
		return ForwardedIPKeyExtractor
	}
	return IPKeyExtractor
}

func applyRateLimitOptions(opts []RateLimitOption) rateLimitOptions {
	var o rateLimitOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRateLimitClock sets the clock used to refill buckets.
func WithRateLimitClock(c clockwork.Clock) RateLimitOption {
	return func(o *rateLimitOptions) { o.clock = c }
}

// WithTrustedProxyHeaders makes the IP based limiters key on X-Forwarded-For
// and X-Real-IP. Enable it only when a reverse proxy sets those headers.
func WithTrustedProxyHeaders(trust bool) RateLimitOption {
	return func(o *rateLimitOptions) { o.trustProxy = trust }
}

// WithRejectHandler replaces the default JSON 429 body. Retry-After and
// X-RateLimit-* headers are set before h runs.
func WithRejectHandler(h http.Handler) RateLimitOption {
	return func(o *rateLimitOptions) { o.reject = h }
}

// RateLimitMiddleware creates a rate limiting middleware with the given configuration.
// The keyExtractor determines how requests are grouped for rate limiting.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor, opts ...RateLimitOption) Middleware {
	o := applyRateLimitOptions(opts)
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.reject == nil {
		o.reject = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}

	ls := &limiterSet{
		limiters:  make(map[string]*rate.Limiter),
		rate:      rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:     config.Burst,
		clock:     o.clock,
		lastSweep: o.clock.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			now := ls.clock.Now()
			limiter := ls.get(key, now)

			if !limiter.AllowN(now, 1) {
				reservation := limiter.ReserveN(now, 1)
				delay := reservation.DelayFrom(now)
				reservation.CancelAt(now)

				retryAfter := max(int(delay.Seconds()), 1)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", config.Window.String())

				log.Warn("rate limit exceeded",
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				o.reject.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP creates a rate limiter that limits by IP address only.
func RateLimitByIP(config RateLimitConfig, opts ...RateLimitOption) Middleware {
	o := applyRateLimitOptions(opts)
	return RateLimitMiddleware(config, o.ipExtractor(), opts...)
}

// RateLimitBySession limits by browser session, falling back to the client IP
// for requests that have not resolved a session.
func RateLimitBySession(config RateLimitConfig, opts ...RateLimitOption) Middleware {
	o := applyRateLimitOptions(opts)
	return RateLimitMiddleware(config, FirstKeyExtractor(
		SessionKeyExtractor,
		o.ipExtractor(),
	), opts...)
}
