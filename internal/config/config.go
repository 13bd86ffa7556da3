package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the portal
type Config struct {
	AppMode  string
	Port     string
	LogLevel string
	Database DatabaseConfig
	Session  SessionConfig
	Cookie   CookieConfig
	Backend  BackendConfig
	Identity IdentityConfig
	Guard    GuardConfig
	Cache    CacheConfig
	Cron     CronConfig
	Payment  PaymentConfig
}

// DatabaseConfig holds the MySQL connection used for persisted sessions
// and local accounts
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// SessionConfig controls the browser-session cookie token
type SessionConfig struct {
	Secret   string
	TTLHours int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// BackendConfig points at the loan-marketplace REST backend
type BackendConfig struct {
	URL            string
	TimeoutSeconds int
	RPS            float64
}

// IdentityConfig selects and configures the identity provider
type IdentityConfig struct {
	Provider      string // "firebase" or "local"
	FirebaseKey   string
	FirebaseAuth  string
	FirebaseToken string
	TokenSecret   string
	TokenMinutes  int
	RefreshDays   int
	BcryptCost    int
}

// GuardConfig controls how long a navigation waits for session restore and
// role resolution before the placeholder is rendered
type GuardConfig struct {
	WaitMS int
}

// CacheConfig bounds the in-memory caches
type CacheConfig struct {
	RoleSize       int
	SessionSize    int
	LingerSeconds  int
	PaymentResults int
}

// CronConfig holds background job schedules
type CronConfig struct {
	Purge string
	Sweep string
}

// PaymentConfig holds checkout return URLs
type PaymentConfig struct {
	SuccessURL string
	CancelURL  string
}

// Load reads configuration from .env file and environment variables
func Load(log logrus.FieldLogger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("⚠️  .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	cfg := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: loadDatabaseConfig(appMode),
		Session:  loadSessionConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Backend: BackendConfig{
			URL:            strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
			TimeoutSeconds: getInt("HTTP_TIMEOUT_SECONDS", 10),
			RPS:            getFloat("BACKEND_RPS", 0),
		},
		Identity: loadIdentityConfig(appMode),
		Guard:    GuardConfig{WaitMS: getInt("GUARD_WAIT_MS", 1500)},
		Cache: CacheConfig{
			RoleSize:       getInt("ROLE_CACHE_SIZE", 1024),
			SessionSize:    getInt("SESSION_CACHE_SIZE", 4096),
			LingerSeconds:  getInt("RESOURCE_LINGER_SECONDS", 30),
			PaymentResults: getInt("PAYMENT_RESULT_CACHE_SIZE", 512),
		},
		Cron: CronConfig{
			Purge: getEnv("PURGE_CRON", "0 */30 * * * *"),
			Sweep: getEnv("SWEEP_CRON", "*/15 * * * * *"),
		},
		Payment: PaymentConfig{
			SuccessURL: getEnv("PAYMENT_SUCCESS_URL", "http://localhost:3000/dashboard/payment-success"),
			CancelURL:  getEnv("PAYMENT_CANCEL_URL", "http://localhost:3000/dashboard/payment-cancelled"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.WithField("mode", appMode).Info("✅ Configuration loaded successfully")
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at request time
func (c *Config) Validate() error {
	switch c.Identity.Provider {
	case "firebase":
		if c.Identity.FirebaseKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required when IDENTITY_PROVIDER=firebase")
		}
	case "local":
	default:
		return fmt.Errorf("invalid IDENTITY_PROVIDER: '%s' (must be 'firebase' or 'local')", c.Identity.Provider)
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.Cache.RoleSize <= 0 || c.Cache.SessionSize <= 0 {
		return fmt.Errorf("cache sizes must be positive")
	}
	return nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "loanlink_portal"),
	}
}

func loadSessionConfig(mode string) SessionConfig {
	prefix := modePrefix(mode)
	return SessionConfig{
		Secret:   getEnv(prefix+"SESSION_SECRET", "default_session_secret"),
		TTLHours: getInt("SESSION_TTL_HOURS", 168),
	}
}

func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)
	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))
	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "Lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadIdentityConfig(mode string) IdentityConfig {
	prefix := modePrefix(mode)
	return IdentityConfig{
		Provider:      strings.ToLower(getEnv("IDENTITY_PROVIDER", "firebase")),
		FirebaseKey:   getEnv("FIREBASE_API_KEY", ""),
		FirebaseAuth:  getEnv("FIREBASE_AUTH_URL", "https://identitytoolkit.googleapis.com/v1"),
		FirebaseToken: getEnv("FIREBASE_TOKEN_URL", "https://securetoken.googleapis.com/v1"),
		TokenSecret:   getEnv(prefix+"JWT_SECRET", "default_secret"),
		TokenMinutes:  getInt("ACCESS_TOKEN_MINUTES", 60),
		RefreshDays:   getInt("REFRESH_TOKEN_DAYS", 7),
		BcryptCost:    getInt("BCRYPT_COST", 12),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://loanlink.example.com"
	}
	return origins
}

// BackendTimeout is the per-request timeout of the HTTP client facade
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// GuardWait is how long the guard waits before rendering the placeholder
func (c *Config) GuardWait() time.Duration {
	return time.Duration(c.Guard.WaitMS) * time.Millisecond
}

// SessionTTL is the lifetime of a persisted browser session
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// ResourceLinger is how long an unreferenced resource entry stays cached
func (c *Config) ResourceLinger() time.Duration {
	return time.Duration(c.Cache.LingerSeconds) * time.Second
}
