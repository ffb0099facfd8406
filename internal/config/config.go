package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL is the externally reachable origin used to build public file URLs.
	// When empty it is derived from Endpoint and UseSSL.
	PublicBaseURL string
}

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "sipeta_session"

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret    string
	Issuer       string
	TokenTTL     time.Duration
	CookieName   string
	CookieSecure bool
}

// UploadConfig holds the default upload policy applied when a category does not override it.
type UploadConfig struct {
	MaxSizeMB int
	Accept    string
}

// JanitorConfig controls the sweeper that finishes interrupted deletions.
type JanitorConfig struct {
	Interval time.Duration
	Grace    time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	LogLevel string
	BoardTTL time.Duration
	Database DatabaseConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Janitor  JanitorConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		BoardTTL: getEnvDuration("BOARD_TTL", 5*time.Minute),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", "sipeta"),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			Issuer:       getEnv("JWT_ISSUER", "sipeta"),
			TokenTTL:     getEnvDuration("JWT_TTL", 24*time.Hour),
			CookieName:   getEnv("SESSION_COOKIE_NAME", DefaultCookieName),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
		},
		Upload: UploadConfig{
			MaxSizeMB: getEnvInt("UPLOAD_MAX_SIZE_MB", 10),
			Accept:    getEnv("UPLOAD_ACCEPT", ".pdf,.docx,.doc,.xls,.xlsx,.jpg,.jpeg,.png"),
		},
		Janitor: JanitorConfig{
			Interval: getEnvDuration("JANITOR_INTERVAL", time.Minute),
			Grace:    getEnvDuration("JANITOR_GRACE", 5*time.Minute),
		},
	}
}

// Validate reports every required setting that is missing.
func (c *AppConfig) Validate() error {
	required := []struct{ key, value string }{
		{"DB_HOST", c.Database.Host},
		{"DB_USER", c.Database.User},
		{"DB_NAME", c.Database.Name},
		{"MINIO_ENDPOINT", c.MinIO.Endpoint},
		{"MINIO_ACCESS_KEY", c.MinIO.AccessKey},
		{"MINIO_SECRET_KEY", c.MinIO.SecretKey},
		{"JWT_SECRET", c.Auth.JWTSecret},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.Upload.MaxSizeMB <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE_MB must be a positive integer")
	}
	return nil
}

// Location resolves the configured time zone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
