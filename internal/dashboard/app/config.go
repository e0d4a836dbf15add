package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/devicelocator/pkg/httpx"
	"github.com/aussiebroadwan/devicelocator/pkg/oauthx"
	"github.com/aussiebroadwan/devicelocator/pkg/voiceadmin"
	"github.com/joho/godotenv"
)

const (
	DefaultAuthURL  = "https://authentication.logmeininc.com/oauth/authorize"
	DefaultTokenURL = "https://authentication.logmeininc.com/oauth/token"
	DefaultScopes   = "voice-admin.v1.read voice-admin.v1.write"

	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
)

type Config struct {
	ClientID     string   // Required: GoTo OAuth client ID
	ClientSecret string   // Required: GoTo OAuth client secret
	RedirectURI  string   // Required: callback registered with GoTo
	AuthURL      string   // Authorization endpoint (default: GoTo production)
	TokenURL     string   // Token endpoint (default: GoTo production)
	APIBase      string   // Voice Admin API base URL (default: GoTo production)
	Scopes       []string // Requested scopes, space separated in GOTO_SCOPES (default: voice-admin read/write)

	SecretKey string // Secret the cookie and at-rest keys are derived from (default: random per process)
	AppTitle  string // Title shown on every page

	Env       string // Environment (dev, staging, prod) (default: prod)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	LogFile   string // Optional: also write logs to this daily rotated file

	Port                 int           // HTTP server port (default: 5000)
	SessionLifetime      time.Duration // Idle session lifetime (default: 1h)
	SessionStore         string        // memory or sqlite (default: memory)
	SessionDatabaseFile  string        // SQLite file for the sqlite store (default: ./sessions.db)
	TokenRefreshSkew     time.Duration // Refresh tokens this long before expiry (default: 60s)
	HTTPClientTimeout    time.Duration // Timeout for calls to GoTo (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 10m)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	CookieSecure         bool          // Mark cookies Secure (default: true outside dev)
	TrustProxyHeaders    bool          // Rate limit on X-Forwarded-For / X-Real-IP (default: false)

	RateLimits httpx.RateLimitProfiles
}

// LoadConfig reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	env := getEnvOrDefault("ENV", "prod")

	cfg := Config{
		ClientID:     os.Getenv("GOTO_CLIENT_ID"),
		ClientSecret: os.Getenv("GOTO_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("GOTO_REDIRECT_URI"),
		AuthURL:      getEnvOrDefault("GOTO_AUTH_URL", DefaultAuthURL),
		TokenURL:     getEnvOrDefault("GOTO_TOKEN_URL", DefaultTokenURL),
		APIBase:      getEnvOrDefault("GOTO_API_BASE", voiceadmin.DefaultBaseURL),
		Scopes:       oauthx.ParseScope(getEnvOrDefault("GOTO_SCOPES", DefaultScopes)),

		SecretKey: os.Getenv("SECRET_KEY"),
		AppTitle:  getEnvOrDefault("APP_TITLE", "GoTo Device Location Manager"),

		Env:       env,
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		LogFile:   os.Getenv("LOG_FILE"),

		Port:                 getEnvIntOrDefault("PORT", 5000),
		SessionLifetime:      getEnvDurationOrDefault("SESSION_LIFETIME", time.Hour),
		SessionStore:         strings.ToLower(getEnvOrDefault("SESSION_STORE", SessionStoreMemory)),
		SessionDatabaseFile:  getEnvOrDefault("SESSION_DATABASE_FILE", "sessions.db"),
		TokenRefreshSkew:     getEnvDurationOrDefault("TOKEN_REFRESH_SKEW", 60*time.Second),
		HTTPClientTimeout:    getEnvDurationOrDefault("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 10*time.Minute),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		CookieSecure:         getEnvBoolOrDefault("COOKIE_SECURE", env != "dev"),
		TrustProxyHeaders:    getEnvBoolOrDefault("TRUST_PROXY_HEADERS", false),

		RateLimits: httpx.RateLimitProfilesFromEnv(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing or invalid setting at once.
func (c Config) Validate() error {
	var missing []string
	for _, v := range []struct{ name, value string }{
		{"GOTO_CLIENT_ID", c.ClientID},
		{"GOTO_CLIENT_SECRET", c.ClientSecret},
		{"GOTO_REDIRECT_URI", c.RedirectURI},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
	}

	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreSQLite, c.SessionStore))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.SessionLifetime <= 0 {
		errs = append(errs, errors.New("SESSION_LIFETIME must be positive"))
	}
	if c.TokenRefreshSkew <= 0 {
		errs = append(errs, errors.New("TOKEN_REFRESH_SKEW must be positive"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
