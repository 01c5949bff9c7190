package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	S3           S3Config
	Workflow     WorkflowConfig
	Report       ReportConfig
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

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
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

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// S3Config locates the photo bucket. Endpoint is set for MinIO or LocalStack.
type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	Prefix         string
	PublicBaseURL  string
	MaxUploadBytes int64
}

// Enabled reports whether uploads are configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// WorkflowConfig tunes issue lifecycle defaults.
type WorkflowConfig struct {
	DefaultSLADays int
	CloseAfterDays int
	// CloseoutInterval is how often the server sweeps resolved issues; 0 disables it.
	CloseoutInterval time.Duration
}

// ReportConfig tunes dashboard aggregates.
type ReportConfig struct {
	MonthsWindow int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "vital-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
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
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		S3: S3Config{
			Bucket:         os.Getenv("S3_BUCKET"),
			Region:         getEnv("S3_REGION", "ap-south-1"),
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			Prefix:         getEnv("S3_PREFIX", "uploads"),
			PublicBaseURL:  os.Getenv("S3_PUBLIC_BASE_URL"),
			MaxUploadBytes: int64(getEnvAsInt("S3_MAX_UPLOAD_BYTES", 5<<20)),
		},
		Workflow: WorkflowConfig{
			DefaultSLADays:   getEnvAsInt("WORKFLOW_DEFAULT_SLA_DAYS", 3),
			CloseAfterDays:   getEnvAsInt("WORKFLOW_CLOSE_AFTER_DAYS", 7),
			CloseoutInterval: time.Duration(getEnvAsInt("WORKFLOW_CLOSEOUT_INTERVAL_MINUTES", 60)) * time.Minute,
		},
		Report: ReportConfig{
			MonthsWindow: getEnvAsInt("REPORT_MONTHS_WINDOW", 6),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.App.Port) == "" {
		errs = append(errs, errors.New("APP_PORT must not be empty"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must not be empty"))
	}
	if c.App.Env == "production" && c.Auth.JWTSecret == "dev-secret" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set in production"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}
	if c.Workflow.DefaultSLADays <= 0 {
		errs = append(errs, fmt.Errorf("WORKFLOW_DEFAULT_SLA_DAYS must be positive, got %d", c.Workflow.DefaultSLADays))
	}
	if c.Workflow.CloseoutInterval < 0 {
		errs = append(errs, errors.New("WORKFLOW_CLOSEOUT_INTERVAL_MINUTES must not be negative"))
	}
	if c.Workflow.CloseAfterDays < 0 {
		errs = append(errs, fmt.Errorf("WORKFLOW_CLOSE_AFTER_DAYS must not be negative, got %d", c.Workflow.CloseAfterDays))
	}
	if c.Report.MonthsWindow <= 0 || c.Report.MonthsWindow > 60 {
		errs = append(errs, fmt.Errorf("REPORT_MONTHS_WINDOW must be between 1 and 60, got %d", c.Report.MonthsWindow))
	}
	if c.S3.MaxUploadBytes < 0 {
		errs = append(errs, errors.New("S3_MAX_UPLOAD_BYTES must not be negative"))
	}
	return errors.Join(errs...)
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
