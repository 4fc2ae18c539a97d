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

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Auth       AuthSettings
	Log        LogSettings
	Gemini     GeminiSettings
	Validation ValidationSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

// GeminiSettings configures the document-understanding client and the
// resilience policy wrapped around it.
type GeminiSettings struct {
	BaseURL          string
	APIKey           string
	Model            string
	APITimeout       time.Duration
	PollInterval     time.Duration
	PollMaxAttempts  int
	MaxRetries       int
	RetryBaseDelay   time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// ValidationSettings bounds what the service accepts before uploading
// anything. PDF minimums are in points, image minimums in pixels.
type ValidationSettings struct {
	MaxFileSizeBytes int64
	MaxPDFPages      int
	MinPDFWidth      int
	MinPDFHeight     int
	MinImageWidth    int
	MinImageHeight   int
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	// This allows the application to work both with .env files (local dev)
	// and environment variables (Docker, production)
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_extraccion_gastos"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Gemini: GeminiSettings{
			BaseURL:          getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:           strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:            getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			APITimeout:       getEnvAsDuration("GEMINI_API_TIMEOUT", 120*time.Second),
			PollInterval:     getEnvAsDuration("GEMINI_POLL_INTERVAL", 2*time.Second),
			PollMaxAttempts:  getEnvAsInt("GEMINI_POLL_MAX_ATTEMPTS", 10),
			MaxRetries:       getEnvAsInt("GEMINI_MAX_RETRIES", 3),
			RetryBaseDelay:   getEnvAsDuration("GEMINI_RETRY_BASE_DELAY", 1*time.Second),
			BreakerThreshold: getEnvAsInt("GEMINI_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getEnvAsDuration("GEMINI_BREAKER_COOLDOWN", 60*time.Second),
		},
		Validation: ValidationSettings{
			MaxFileSizeBytes: getEnvAsInt64("VALIDATION_MAX_FILE_SIZE_BYTES", 20*1024*1024),
			MaxPDFPages:      getEnvAsInt("VALIDATION_MAX_PDF_PAGES", 50),
			MinPDFWidth:      getEnvAsInt("VALIDATION_MIN_PDF_WIDTH", 500),
			MinPDFHeight:     getEnvAsInt("VALIDATION_MIN_PDF_HEIGHT", 500),
			MinImageWidth:    getEnvAsInt("VALIDATION_MIN_IMAGE_WIDTH", 800),
			MinImageHeight:   getEnvAsInt("VALIDATION_MIN_IMAGE_HEIGHT", 600),
		},
	}

	if cfg.Gemini.APIKey == "" {
		return cfg, errors.New("invalid config: GEMINI_API_KEY is required")
	}
	if cfg.Gemini.PollMaxAttempts <= 0 {
		return cfg, errors.New("invalid config: GEMINI_POLL_MAX_ATTEMPTS must be greater than 0")
	}
	if cfg.Gemini.MaxRetries < 0 {
		return cfg, errors.New("invalid config: GEMINI_MAX_RETRIES cannot be negative")
	}
	if cfg.Validation.MaxFileSizeBytes <= 0 {
		return cfg, errors.New("invalid config: VALIDATION_MAX_FILE_SIZE_BYTES must be greater than 0")
	}
	if cfg.Validation.MaxPDFPages <= 0 {
		return cfg, errors.New("invalid config: VALIDATION_MAX_PDF_PAGES must be greater than 0")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
