package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	Timezone          string `mapstructure:"TIMEZONE"`

	// Redis configuration. Empty addr keeps sessions in process memory.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`

	// Mongo booking history. Empty URL disables persistence.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Dialogue policy.
	SessionTTLMinutes   int     `mapstructure:"SESSION_TTL_MINUTES"`
	SessionIdleMinutes  int     `mapstructure:"SESSION_IDLE_MINUTES"`
	ConfidenceThreshold float64 `mapstructure:"CONFIDENCE_THRESHOLD"`
	RequireAttendee     bool    `mapstructure:"REQUIRE_ATTENDEE"`
	RequesterID         string  `mapstructure:"REQUESTER_ID"`

	// Availability scanning.
	ScanStepMinutes int `mapstructure:"SCAN_STEP_MINUTES"`
	ScanHorizonDays int `mapstructure:"SCAN_HORIZON_DAYS"`
	LookaroundDays  int `mapstructure:"LOOKAROUND_DAYS"`
	MaxAlternatives int `mapstructure:"MAX_ALTERNATIVES"`

	// Gateway policy.
	GatewayTimeoutSeconds int `mapstructure:"GATEWAY_TIMEOUT_SECONDS"`
	RetryBackoffSeconds   int `mapstructure:"RETRY_BACKOFF_SECONDS"`

	// Google Calendar provider. Empty credentials path keeps the in-memory
	// gateway (demo mode).
	GoogleCalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`
	GoogleCredentialsPath string `mapstructure:"GOOGLE_CREDENTIALS_PATH"`

	// Gemini-backed extraction. Empty key keeps the rule-based extractor.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	// Static attendee directory: name -> calendar identifier.
	Directory map[string]string `mapstructure:"DIRECTORY"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 3)
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("SESSION_IDLE_MINUTES", 30)
	viper.SetDefault("CONFIDENCE_THRESHOLD", 0.5)
	viper.SetDefault("REQUIRE_ATTENDEE", false)
	viper.SetDefault("REQUESTER_ID", "me")
	viper.SetDefault("SCAN_STEP_MINUTES", 15)
	viper.SetDefault("SCAN_HORIZON_DAYS", 7)
	viper.SetDefault("LOOKAROUND_DAYS", 7)
	viper.SetDefault("MAX_ALTERNATIVES", 3)
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 5)
	viper.SetDefault("RETRY_BACKOFF_SECONDS", 2)
	viper.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	viper.SetDefault("GOOGLE_CREDENTIALS_PATH", "")
	viper.SetDefault("GEMINI_API_KEY", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
