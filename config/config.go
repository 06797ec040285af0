package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the thermal inspection service.
type Config struct {
	// HTTP server
	Port string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Filesystem layout
	UploadDir string
	ReportDir string
	OutboxDir string

	// Optional GeoJSON file the tower registry is seeded from; the built-in
	// Mumbai registry applies when unset.
	TowersFile string

	// Upload limits
	MaxUploadMB int64

	// Batch processing
	BatchWorkers int

	// OCR configuration
	OCREngine      string
	TesseractLangs string

	// Fallback site coordinates used when an image carries no GPS data
	DefaultSiteLat float64
	DefaultSiteLon float64

	// Classification policy overrides; zero keeps the built-in defaults
	DefaultThreshold   float64
	CriticalMultiplier float64
	NominalAmbient     float64

	// Weather provider (OpenWeatherMap)
	WeatherAPIKey  string
	WeatherBaseURL string
	WeatherTimeout time.Duration

	// LLM provider
	LLMProvider      string
	OpenRouterAPIKey string
	OpenRouterModel  string
	LLMTimeout       time.Duration

	// Email configuration
	EmailProvider   string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	SendGridAPIKey  string
	FromName        string
	FromEmail       string
	AlertRecipients []string
	OutboxSweep     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "thermal"),
		DBPassword: getEnv("DB_PASSWORD", "thermal_pwd"),
		DBName:     getEnv("DB_NAME", "thermal_eye"),

		UploadDir: getEnv("UPLOAD_DIR", "./static/uploads"),
		ReportDir: getEnv("REPORT_DIR", "./static/reports"),
		OutboxDir: getEnv("OUTBOX_DIR", "/tmp/outbox"),

		TowersFile: getEnv("TOWERS_FILE", ""),

		MaxUploadMB: int64(getIntEnv("MAX_UPLOAD_MB", 10)),

		BatchWorkers: getIntEnv("BATCH_WORKERS", 4),

		OCREngine:      getEnv("OCR_ENGINE", "tesseract"),
		TesseractLangs: getEnv("TESSERACT_LANGS", "eng"),

		DefaultSiteLat: getFloatEnv("DEFAULT_SITE_LAT", 19.07611),
		DefaultSiteLon: getFloatEnv("DEFAULT_SITE_LON", 72.87750),

		DefaultThreshold:   getFloatEnv("DEFAULT_THRESHOLD_C", 0),
		CriticalMultiplier: getFloatEnv("CRITICAL_MULTIPLIER", 0),
		NominalAmbient:     getFloatEnv("NOMINAL_AMBIENT_C", 0),

		WeatherAPIKey:  getEnv("OPENWEATHERMAP_API_KEY", ""),
		WeatherBaseURL: getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		WeatherTimeout: getDurationEnv("WEATHER_TIMEOUT", 10*time.Second),

		LLMProvider:      getEnv("LLM_PROVIDER", "openrouter"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "meta-llama/llama-3.1-8b-instruct"),
		LLMTimeout:       getDurationEnv("LLM_TIMEOUT", 30*time.Second),

		EmailProvider:   getEnv("EMAIL_PROVIDER", "smtp"),
		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getIntEnv("SMTP_PORT", 587),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		FromName:        getEnv("EMAIL_FROM_NAME", "Thermal Eye"),
		FromEmail:       getEnv("EMAIL_FROM", "alerts@thermal-eye.local"),
		AlertRecipients: getStringSliceEnv("ALERT_RECIPIENTS", []string{}),
		OutboxSweep:     getEnv("OUTBOX_SWEEP_SCHEDULE", "@every 10m"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
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

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
