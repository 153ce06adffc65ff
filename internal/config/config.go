package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName          = "Paycasso"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultSiteURL          = "http://localhost:3000"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultUpstreamTimeout  = 30 * time.Second
	defaultGeminiTimeout    = 120 * time.Second
	defaultCircleAPIURL     = "https://api.circle.com"
	defaultCircleBlockchain = "ETH-SEPOLIA"
	defaultCircleAccount    = "EOA"
	defaultGeminiModel      = "gemini-1.5-flash"
	defaultMaxUploadBytes   = 10 * 1024 * 1024
	defaultSignInAttempts   = 5
	defaultTxCacheTTL       = 30 * time.Second

	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"

	// AuthProviderSupabase routes identity calls to Supabase GoTrue.
	AuthProviderSupabase = "supabase"
	// AuthProviderMemory keeps credentials in process; development and tests only.
	AuthProviderMemory = "memory"
)

// Config captures application runtime configuration loaded from environment variables.
// It is built once at process start and handed to every constructor.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	SiteURL        string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	MaxUploadBytes int

	SignInAttemptsPerMinute int
	TransactionsCacheTTL    time.Duration

	Supabase SupabaseConfig
	Circle   CircleConfig
	Gemini   GeminiConfig
}

// SupabaseConfig holds the auth/database backend settings.
type SupabaseConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	AuthProvider   string
	Timeout        time.Duration
}

// CircleConfig holds the wallet-custody vendor settings.
type CircleConfig struct {
	APIURL       string
	APIKey       string
	EntitySecret string
	Blockchain   string
	AccountType  string
	Timeout      time.Duration
}

// GeminiConfig holds the document analysis model settings.
type GeminiConfig struct {
	APIKey  string
	// BaseURL overrides the SDK endpoint; empty uses Google's.
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		SiteURL:        strings.TrimSuffix(getEnv("SITE_URL", defaultSiteURL), "/"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		Supabase: SupabaseConfig{
			URL:            strings.TrimSuffix(os.Getenv("SUPABASE_URL"), "/"),
			AnonKey:        sanitizeCredential(os.Getenv("SUPABASE_ANON_KEY")),
			ServiceRoleKey: sanitizeCredential(os.Getenv("SUPABASE_SERVICE_ROLE_KEY")),
			JWTSecret:      sanitizeCredential(os.Getenv("SUPABASE_JWT_SECRET")),
			AuthProvider:   strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderSupabase)),
		},
		Circle: CircleConfig{
			APIURL:       strings.TrimSuffix(getEnv("CIRCLE_API_URL", defaultCircleAPIURL), "/"),
			APIKey:       sanitizeCredential(os.Getenv("CIRCLE_API_KEY")),
			EntitySecret: sanitizeCredential(os.Getenv("CIRCLE_ENTITY_SECRET")),
			Blockchain:   getEnv("CIRCLE_BLOCKCHAIN", defaultCircleBlockchain),
			AccountType:  getEnv("CIRCLE_ACCOUNT_TYPE", defaultCircleAccount),
		},
		Gemini: GeminiConfig{
			APIKey:  sanitizeCredential(os.Getenv("GEMINI_API_KEY")),
			BaseURL: os.Getenv("GEMINI_BASE_URL"),
			Model:   getEnv("GEMINI_MODEL", defaultGeminiModel),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.Supabase.Timeout, err = getEnvDuration("SUPABASE_TIMEOUT", defaultUpstreamTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Circle.Timeout, err = getEnvDuration("CIRCLE_TIMEOUT", defaultUpstreamTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Gemini.Timeout, err = getEnvDuration("GEMINI_TIMEOUT", defaultGeminiTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TransactionsCacheTTL, err = getEnvDuration("TRANSACTIONS_CACHE_TTL", defaultTxCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.MaxUploadBytes, err = getEnvInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes); err != nil {
		return Config{}, err
	}
	if cfg.SignInAttemptsPerMinute, err = getEnvInt("SIGNIN_ATTEMPTS_PER_MINUTE", defaultSignInAttempts); err != nil {
		return Config{}, err
	}

	switch cfg.Supabase.AuthProvider {
	case AuthProviderSupabase:
	case AuthProviderMemory:
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("AUTH_PROVIDER=%s is only allowed when APP_ENV is a development environment", AuthProviderMemory)
		}
	default:
		return Config{}, fmt.Errorf("invalid AUTH_PROVIDER %q", cfg.Supabase.AuthProvider)
	}

	if !cfg.IsDev() && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// HasAuthBackend reports whether the auth provider can be reached.
func (c Config) HasAuthBackend() bool {
	if c.Supabase.AuthProvider == AuthProviderMemory {
		return true
	}
	return c.Supabase.URL != "" && c.Supabase.AnonKey != ""
}

// HasPrivilegedStore reports whether profile and wallet rows can be written
// with privileges that bypass row-level security. The memory provider runs
// against in-process repositories.
func (c Config) HasPrivilegedStore() bool {
	if c.Supabase.AuthProvider == AuthProviderMemory {
		return true
	}
	return c.DatabaseURL != "" || (c.Supabase.URL != "" && c.Supabase.ServiceRoleKey != "")
}

// HasCustody reports whether the wallet-custody vendor is configured.
func (c Config) HasCustody() bool {
	return c.Circle.APIKey != "" && c.Circle.EntitySecret != ""
}

func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	return getEnvDuration(durationKey, fallback)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	return strings.Trim(strings.TrimSpace(value), "\"")
}
