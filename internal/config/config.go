package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session strategies supported by the identity provider integration.
const (
	SessionStrategyJWT      = "jwt"
	SessionStrategyDatabase = "database"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Guard    GuardConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// UpstreamConfig points at the web front-end that forwarded requests reach.
type UpstreamConfig struct {
	URL string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig describes how session tokens are read and verified.
type AuthConfig struct {
	JWTSecret         string
	TokenTTLMinutes   int
	SessionStrategy   string
	SessionCookie     string
	RevocationEnabled bool
}

// GuardConfig is the route table of the access guard.
type GuardConfig struct {
	StorePrefix       string
	PersonalPaths     []string
	AdminPrefix       string
	LoginPath         string
	CustomerLoginPath string
	CallbackParam     string
	AdminRoles        []string
	Matcher           []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "access-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Upstream: UpstreamConfig{
			URL: strings.TrimRight(getEnv("UPSTREAM_URL", "http://127.0.0.1:3000"), "/"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes:   getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
			SessionStrategy:   strings.ToLower(getEnv("AUTH_SESSION_STRATEGY", SessionStrategyJWT)),
			SessionCookie:     getEnv("AUTH_SESSION_COOKIE", "session-token"),
			RevocationEnabled: getEnvAsBool("AUTH_REVOCATION_ENABLED", false),
		},
		Guard: GuardConfig{
			StorePrefix:       getEnv("GUARD_STORE_PREFIX", "/store"),
			PersonalPaths:     getEnvAsList("GUARD_PERSONAL_PATHS", []string{"/profile", "/cart"}),
			AdminPrefix:       getEnv("GUARD_ADMIN_PREFIX", "/admin"),
			LoginPath:         getEnv("GUARD_LOGIN_PATH", "/auth/login"),
			CustomerLoginPath: getEnv("GUARD_CUSTOMER_LOGIN_PATH", "/auth/customer/login"),
			CallbackParam:     getEnv("GUARD_CALLBACK_PARAM", "callbackUrl"),
			AdminRoles:        getEnvAsList("GUARD_ADMIN_ROLES", []string{"admin", "superadmin"}),
			Matcher:           getEnvAsList("GUARD_MATCHER", []string{"/store/*", "/profile", "/cart", "/admin/*"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	switch c.Auth.SessionStrategy {
	case SessionStrategyJWT, SessionStrategyDatabase:
	default:
		return fmt.Errorf("invalid AUTH_SESSION_STRATEGY %q", c.Auth.SessionStrategy)
	}
	if c.Auth.SessionStrategy == SessionStrategyDatabase && c.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for the %s session strategy", SessionStrategyDatabase)
	}
	if c.Auth.SessionStrategy == SessionStrategyJWT && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required for the %s session strategy", SessionStrategyJWT)
	}
	return c.Guard.Validate()
}

// Validate checks the guard route table.
func (g GuardConfig) Validate() error {
	for key, val := range map[string]string{
		"GUARD_STORE_PREFIX":        g.StorePrefix,
		"GUARD_ADMIN_PREFIX":        g.AdminPrefix,
		"GUARD_LOGIN_PATH":          g.LoginPath,
		"GUARD_CUSTOMER_LOGIN_PATH": g.CustomerLoginPath,
	} {
		if !strings.HasPrefix(val, "/") {
			return fmt.Errorf("%s must be an absolute path, got %q", key, val)
		}
	}
	if g.CallbackParam == "" {
		return fmt.Errorf("GUARD_CALLBACK_PARAM must not be empty")
	}
	if len(g.AdminRoles) == 0 {
		return fmt.Errorf("GUARD_ADMIN_ROLES must name at least one role")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of tokens minted by the gateway's token manager.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
