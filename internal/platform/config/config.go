package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                     string
	DatabaseURL              string
	JWTSecret                string
	Environment              string
	LogLevel                 string
	RunMigrations            bool
	RunSeed                  bool
	SeedSuperAdminEmail      string
	MaxBodyBytes             int64
	RateLimitPerMinute       int
	MetricsEnabled           bool
	NATSURL                  string
	StorageEndpoint          string
	StorageAccessKey         string
	StorageSecretKey         string
	StorageBucket            string
	StoragePublicURL         string
	CertificateDir           string
	EmailEnabled             bool
	EmailFrom                string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUser                 string
	SMTPPassword             string
	SMTPUseTLS               bool
	SuperAdminRole           string
	OverdueSweepInterval     time.Duration
	EnrollmentExpiryInterval time.Duration
	QuizTimeLimitGrace       time.Duration
	ShutdownTimeout          time.Duration
}

// Load reads a .env file when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn(".env load failed", "err", err)
	}
	return Config{
		Addr:                     getEnv("APP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTSecret:                getEnv("JWT_SECRET", ""),
		Environment:              getEnv("APP_ENV", "development"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		RunMigrations:            getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                  getEnvBool("RUN_SEED", true),
		SeedSuperAdminEmail:      getEnv("SEED_SUPER_ADMIN_EMAIL", ""),
		MaxBodyBytes:             int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:       getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:           getEnvBool("METRICS_ENABLED", true),
		NATSURL:                  getEnv("NATS_URL", ""),
		StorageEndpoint:          getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey:         getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:         getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:            getEnv("STORAGE_BUCKET", "certificates"),
		StoragePublicURL:         getEnv("STORAGE_PUBLIC_URL", ""),
		CertificateDir:           getEnv("CERTIFICATE_DIR", "storage/certificates"),
		EmailEnabled:             getEnvBool("EMAIL_ENABLED", false),
		EmailFrom:                getEnv("EMAIL_FROM", "no-reply@example.com"),
		SMTPHost:                 getEnv("SMTP_HOST", ""),
		SMTPPort:                 getEnvInt("SMTP_PORT", 587),
		SMTPUser:                 getEnv("SMTP_USER", ""),
		SMTPPassword:             getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:               getEnvBool("SMTP_USE_TLS", true),
		SuperAdminRole:           getEnv("SUPER_ADMIN_ROLE", "super_admin"),
		OverdueSweepInterval:     getEnvDuration("OVERDUE_SWEEP_INTERVAL", time.Hour),
		EnrollmentExpiryInterval: getEnvDuration("ENROLLMENT_EXPIRY_INTERVAL", 6*time.Hour),
		QuizTimeLimitGrace:       getEnvDuration("QUIZ_TIME_LIMIT_GRACE", 30*time.Second),
		ShutdownTimeout:          getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if strings.TrimSpace(c.SuperAdminRole) == "" {
		return fmt.Errorf("SUPER_ADMIN_ROLE must not be empty")
	}
	if c.StorageEndpoint != "" && (c.StorageAccessKey == "" || c.StorageSecretKey == "") {
		return fmt.Errorf("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY must be set when STORAGE_ENDPOINT is configured")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.QuizTimeLimitGrace < 0 {
		return fmt.Errorf("QUIZ_TIME_LIMIT_GRACE must not be negative")
	}
	return nil
}
