package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"iris/internal/logger"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Session   SessionConfig
	Email     EmailConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	App       AppConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Vault     VaultConfig
	Storage   StorageConfig
	Search    SearchConfig
	Reward    RewardConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         string
	TimeoutRead  time.Duration
	TimeoutWrite time.Duration
	TimeoutIdle  time.Duration
	MaxUploadMB  int64
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// SessionConfig holds the Redis-backed session store configuration
type SessionConfig struct {
	RedisURL  string
	KeyPrefix string
	TTL       time.Duration
}

// EmailConfig holds email-related configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	PortalURL    string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Duration time.Duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	Env            string
	Name           string
	Version        string
	MigrationsPath string // empty means the embedded migrations
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // DEBUG, INFO, WARN or ERROR
	Format string // json or text
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	DigestCron           string // e.g., "0 8 * * *" (daily 8 AM)
	ReviewReminderCron   string // e.g., "0 9 * * 1" (Monday 9 AM)
	CloseExpiredCron     string // e.g., "0 */1 * * *" (hourly)
	EnableDigest         bool
	EnableReviewReminder bool
	EnableCloseExpired   bool
}

// VaultConfig holds Vault transit configuration for confidential ideas
type VaultConfig struct {
	Address      string
	Token        string
	TransitMount string
	KeyName      string
	Enabled      bool
}

// StorageConfig holds the S3-compatible file store configuration
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Enabled   bool
}

// SearchConfig holds Meilisearch configuration
type SearchConfig struct {
	URL     string
	APIKey  string
	Index   string
	Enabled bool
}

// RewardConfig holds reward ledger settings
type RewardConfig struct {
	IdeaSubmissionPoints int
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads configuration from environment variables without validation.
// The admin CLI uses it because it never signs tokens.
func Read() *Config {
	// godotenv doesn't override already-set variables, so order matters
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "8080"),
			TimeoutRead:  getDurationEnv("SERVER_TIMEOUT_READ", 15*time.Second),
			TimeoutWrite: getDurationEnv("SERVER_TIMEOUT_WRITE", 30*time.Second),
			TimeoutIdle:  getDurationEnv("SERVER_TIMEOUT_IDLE", 60*time.Second),
			MaxUploadMB:  int64(getIntEnv("SERVER_MAX_UPLOAD_MB", 20)),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "iris"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "iris"),
			SSLMode:         getEnv("DB_SSLMODE", "prefer"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 12*time.Hour),
		},
		Session: SessionConfig{
			RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix: getEnv("SESSION_KEY_PREFIX", "iris:session:"),
			TTL:       getDurationEnv("SESSION_TTL", 12*time.Hour),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:     getEnv("SMTP_FROM", "iris@example.com"),
			PortalURL:    getEnv("PORTAL_URL", "http://localhost:3000"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
			ExposedHeaders:   getSliceEnv("CORS_EXPOSED_HEADERS", []string{"Content-Disposition"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getIntEnv("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolEnv("RATE_LIMIT_ENABLED", true),
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			Duration: getDurationEnv("RATE_LIMIT_DURATION", 1*time.Minute),
		},
		App: AppConfig{
			Env:            getEnv("APP_ENV", "development"),
			Name:           getEnv("APP_NAME", "IRIS"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", ""),
		},
		Log: LogConfig{
			Level:  logger.NormalizeLevel(getEnv("LOG_LEVEL", "info")),
			Format: logger.NormalizeFormat(getEnv("LOG_FORMAT", logger.FormatJSON)),
		},
		Scheduler: SchedulerConfig{
			DigestCron:           getEnv("SCHEDULER_DIGEST_CRON", "0 8 * * *"),          // Daily 8 AM
			ReviewReminderCron:   getEnv("SCHEDULER_REVIEW_REMINDER_CRON", "0 9 * * 1"), // Monday 9 AM
			CloseExpiredCron:     getEnv("SCHEDULER_CLOSE_EXPIRED_CRON", "0 */1 * * *"),
			EnableDigest:         getBoolEnv("SCHEDULER_ENABLE_DIGEST", true),
			EnableReviewReminder: getBoolEnv("SCHEDULER_ENABLE_REVIEW_REMINDER", true),
			EnableCloseExpired:   getBoolEnv("SCHEDULER_ENABLE_CLOSE_EXPIRED", true),
		},
		Vault: VaultConfig{
			Address:      getEnv("VAULT_ADDR", "http://localhost:8200"),
			Token:        getEnv("VAULT_TOKEN", ""),
			TransitMount: getEnv("VAULT_TRANSIT_MOUNT", "transit"),
			KeyName:      getEnv("VAULT_IDEA_KEY", "idea-details"),
			Enabled:      getBoolEnv("VAULT_ENABLED", false),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "iris-documents"),
			UseSSL:    getBoolEnv("STORAGE_USE_SSL", false),
			Enabled:   getBoolEnv("STORAGE_ENABLED", true),
		},
		Search: SearchConfig{
			URL:     getEnv("MEILI_URL", "http://localhost:7700"),
			APIKey:  getEnv("MEILI_API_KEY", ""),
			Index:   getEnv("MEILI_CHALLENGE_INDEX", "challenges"),
			Enabled: getBoolEnv("SEARCH_ENABLED", false),
		},
		Reward: RewardConfig{
			IdeaSubmissionPoints: getIntEnv("REWARD_IDEA_SUBMISSION_POINTS", 5),
		},
	}

	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.Password == "" && c.App.Env == "production" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}
	if c.Vault.Enabled && c.Vault.Token == "" {
		return fmt.Errorf("VAULT_TOKEN is required when VAULT_ENABLED is set")
	}
	if c.Reward.IdeaSubmissionPoints < 0 {
		return fmt.Errorf("REWARD_IDEA_SUBMISSION_POINTS must not be negative")
	}
	return nil
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, v := range parts {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
