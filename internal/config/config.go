package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mail     MailConfig
	Media    MediaConfig
	Order    OrderConfig
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

// AuthConfig defines authentication parameters. JWTSecret and
// AdminAccessCode carry no defaults; startup fails when they are unset.
type AuthConfig struct {
	JWTSecret              string
	AdminAccessCode        string
	SessionTTLMinutes      int
	OTPTTLMinutes          int
	PasswordResetTTLHours  int
	BcryptCost             int
	MaxLoginAttempts       int
	LockoutDurationMinutes int
}

// MailConfig selects and configures the outbound mail provider.
type MailConfig struct {
	SenderEmail  string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	ResetBaseURL string
}

// MediaConfig points at the external media host.
type MediaConfig struct {
	UploadURL      string
	APIKey         string
	MaxUploadBytes int64
	TimeoutSeconds int
}

// OrderConfig holds pricing parameters. Amounts are integer cents.
type OrderConfig struct {
	TaxPercent             int
	ShippingFlatCents      int64
	FreeShippingAboveCents int64
}

// Load reads configuration from environment variables, applying defaults
// where possible and rejecting missing secrets.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}
	adminCode := os.Getenv("AUTH_ADMIN_ACCESS_CODE")
	if adminCode == "" {
		return nil, errors.New("AUTH_ADMIN_ACCESS_CODE is required")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "commerce-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
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
			JWTSecret:              jwtSecret,
			AdminAccessCode:        adminCode,
			SessionTTLMinutes:      getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 7*24*60),
			OTPTTLMinutes:          getEnvAsInt("AUTH_OTP_TTL_MINUTES", 10),
			PasswordResetTTLHours:  getEnvAsInt("AUTH_PASSWORD_RESET_TTL_HOURS", 1),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MaxLoginAttempts:       getEnvAsInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockoutDurationMinutes: getEnvAsInt("AUTH_LOCKOUT_DURATION_MINUTES", 15),
		},
		Mail: MailConfig{
			SenderEmail:  getEnv("MAIL_SENDER_EMAIL", "noreply@example.com"),
			ResendAPIKey: os.Getenv("MAIL_RESEND_API_KEY"),
			SMTPHost:     os.Getenv("MAIL_SMTP_HOST"),
			SMTPPort:     getEnv("MAIL_SMTP_PORT", "587"),
			SMTPUsername: os.Getenv("MAIL_SMTP_USERNAME"),
			SMTPPassword: os.Getenv("MAIL_SMTP_PASSWORD"),
			ResetBaseURL: getEnv("MAIL_RESET_BASE_URL", "http://localhost:3000/reset-password"),
		},
		Media: MediaConfig{
			UploadURL:      os.Getenv("MEDIA_UPLOAD_URL"),
			APIKey:         os.Getenv("MEDIA_API_KEY"),
			MaxUploadBytes: int64(getEnvAsInt("MEDIA_MAX_UPLOAD_BYTES", 10<<20)),
			TimeoutSeconds: getEnvAsInt("MEDIA_TIMEOUT_SECONDS", 15),
		},
		Order: OrderConfig{
			TaxPercent:             getEnvAsInt("ORDER_TAX_PERCENT", 10),
			ShippingFlatCents:      int64(getEnvAsInt("ORDER_SHIPPING_FLAT_CENTS", 500)),
			FreeShippingAboveCents: int64(getEnvAsInt("ORDER_FREE_SHIPPING_ABOVE_CENTS", 10000)),
		},
	}

	return cfg, nil
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

// IsProduction reports whether the service runs in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
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
