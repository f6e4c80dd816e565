// Package config supplies environment helpers and the service-shell
// configuration. The mpesa.Config itself is supplied programmatically by
// library users; FromEnv builds one for the bundled webhook service.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sokopay/daraja/mpesa"
)

// AppConfig represents the webhook service configuration.
type AppConfig struct {
	Port             string
	OpenSearchURL    string
	OpenSearchUser   string
	OpenSearchPass   string
	EnableLogging    bool
	LoggingLevel     string
	RateLimitPerMin  int
	RedisURL         string
	DedupDBPath      string
	DedupWindow      time.Duration
	ValidateIP       bool
	C2BDefaultAccept bool
}

var appConfigInstance *AppConfig

// GetAppConfig returns the service configuration, loading it from the
// environment on first use.
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:             GetEnv("APP_PORT", "9000"),
			OpenSearchURL:    GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:   GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:   GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:    GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:     GetEnv("LOGGING_LEVEL", "info"),
			RateLimitPerMin:  GetIntEnv("RATE_LIMIT_PER_MINUTE", 100),
			RedisURL:         GetEnv("REDIS_URL", ""),
			DedupDBPath:      GetEnv("DEDUP_DB_PATH", ""),
			DedupWindow:      GetDurationEnv("DEDUP_WINDOW", 24*time.Hour),
			ValidateIP:       GetBoolEnv("VALIDATE_CALLBACK_IP", true),
			C2BDefaultAccept: GetBoolEnv("C2B_DEFAULT_ACCEPT", false),
		}
	}
	return appConfigInstance
}

// FromEnv builds the gateway configuration for the service shell.
func FromEnv() mpesa.Config {
	return mpesa.Config{
		ConsumerKey:        GetEnv("MPESA_CONSUMER_KEY", ""),
		ConsumerSecret:     GetEnv("MPESA_CONSUMER_SECRET", ""),
		Passkey:            GetEnv("MPESA_PASSKEY", ""),
		ShortCode:          GetEnv("MPESA_SHORTCODE", ""),
		Environment:        GetEnv("MPESA_ENVIRONMENT", mpesa.EnvSandbox),
		CallbackURL:        GetEnv("MPESA_CALLBACK_URL", ""),
		ResultURL:          GetEnv("MPESA_RESULT_URL", ""),
		TimeoutURL:         GetEnv("MPESA_TIMEOUT_URL", ""),
		InitiatorName:      GetEnv("MPESA_INITIATOR_NAME", ""),
		SecurityCredential: GetEnv("MPESA_SECURITY_CREDENTIAL", ""),
		Timeout:            GetDurationEnv("MPESA_HTTP_TIMEOUT", 0),
	}
}

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a
// default value.
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a
// default value.
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDurationEnv returns the duration value of an environment variable or a
// default value.
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
