package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Stats    StatsConfig
	Features FeatureFlags
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	RealtimeLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	SuperuserEmails    []string
}

type StatsConfig struct {
	Timezone string
	// Attribute records created during local hour 0 to the previous day.
	// Only needed to reproduce reports generated by the first deployment.
	LegacyMidnightShift bool
}

// TracingConfig controls the OpenTelemetry exporter. SamplePercent is the
// share of root spans kept; child spans follow their parent.
type TracingConfig struct {
	Enabled       bool
	Endpoint      string
	ServiceName   string
	SamplePercent int
}

type FeatureFlags struct {
	ApprovalMode     bool
	InactivityWindow time.Duration
	SweepInterval    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RealtimeLogPath:    getEnv("REALTIME_LOG_FILE_PATH", "logs/realtime.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Lamdam"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			TokenTTL:           time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/api/auth/google/callback"),
			SuperuserEmails:    getEnvAsList("SUPERUSER_EMAILS"),
		},
		Stats: StatsConfig{
			Timezone:            getEnv("STATS_TIMEZONE", "Asia/Ho_Chi_Minh"),
			LegacyMidnightShift: getEnvAsBool("STATS_LEGACY_MIDNIGHT_SHIFT", false),
		},
		Features: FeatureFlags{
			ApprovalMode:     getEnvAsBool("APPROVAL_MODE", true),
			InactivityWindow: time.Duration(getEnvAsInt("INACTIVITY_DAYS", 3)) * 24 * time.Hour,
			SweepInterval:    time.Duration(getEnvAsInt("INACTIVITY_SWEEP_MINUTES", 60)) * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:       getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:   getEnv("OTEL_SERVICE_NAME", "lamdam-backend"),
			SamplePercent: getEnvAsInt("OTEL_SAMPLE_PERCENT", 100),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
