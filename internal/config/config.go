package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"smartbin-backend/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	Server    ServerConfig
	CORS      CORSConfig
	Log       LogConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	NATS      NATSConfig
	Uploads   UploadsConfig
	Devices   DevicesConfig
	Accounts  AccountsConfig
	Worker    WorkerConfig
}

type DatabaseConfig struct {
	Driver           string // mysql | postgres | sqlite
	Host             string
	Port             string
	User             string
	Password         string
	Database         string
	StatementTimeout time.Duration
	MaxIdleConns     int
	MaxOpenConns     int
	ConnMaxLifetime  time.Duration
}

type JWTConfig struct {
	AccessSecret       string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// RedisConfig is optional: an empty Addr disables rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// NATSConfig is optional: an empty URL disables event publishing.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

type UploadsConfig struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

type DevicesConfig struct {
	RequireAPIKey bool
}

type AccountsConfig struct {
	SignupRequiresApproval bool
}

type WorkerConfig struct {
	StaleBinAfter time.Duration // zero disables the stale bin monitor
	Interval      time.Duration
}

// LoadConfig reads configuration from the environment after loading the given
// .env files (missing files are ignored).
func LoadConfig(envFiles ...string) *Config {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "mysql"),
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnv("DB_PORT", "3306"),
			User:             getEnv("DB_USER", "root"),
			Password:         getEnv("DB_PASSWORD", ""),
			Database:         getEnv("DB_NAME", "smart_bins"),
			StatementTimeout: parseDuration(getEnv("DB_STATEMENT_TIMEOUT", "5s"), 5*time.Second),
			MaxIdleConns:     parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpenConns:     parseInt(getEnv("DB_MAX_OPEN_CONNS", "100"), 100),
			ConnMaxLifetime:  parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "1h"), time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:       getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "24h"), 24*time.Hour),
			RefreshTokenExpiry: parseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "7001"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			ShutdownTimeout: parseDuration(getEnv("SERVER_SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		RateLimit: RateLimitConfig{
			Requests: parseInt(getEnv("RATE_LIMIT_REQUESTS", "120"), 120),
			Window:   parseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"), time.Minute),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "smartbins"),
		},
		Uploads: UploadsConfig{
			Dir:       getEnv("UPLOADS_DIR", "uploads"),
			URLPrefix: getEnv("UPLOADS_URL_PREFIX", "/uploads"),
			MaxBytes:  int64(parseInt(getEnv("UPLOADS_MAX_BYTES", "5242880"), 5<<20)),
		},
		Devices: DevicesConfig{
			RequireAPIKey: parseBool(getEnv("DEVICE_REQUIRE_API_KEY", "false"), false),
		},
		Accounts: AccountsConfig{
			SignupRequiresApproval: parseBool(getEnv("SIGNUP_REQUIRES_APPROVAL", "true"), true),
		},
		Worker: WorkerConfig{
			StaleBinAfter: parseDuration(getEnv("STALE_BIN_AFTER", "0"), 0),
			Interval:      parseDuration(getEnv("WORKER_INTERVAL", "1m"), time.Minute),
		},
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		logger.Log.Warnf("Invalid duration format '%s', using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		logger.Log.Warnf("Invalid integer '%s', using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		logger.Log.Warnf("Invalid boolean '%s', using default %t", s, fallback)
		return fallback
	}
	return b
}

func parseList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
