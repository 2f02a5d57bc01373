package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port                string
	Env                 string
	PublicBaseURL       string
	LogLevel            string
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisTLS            bool
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	AdminJWTSecret      string
	CORSAllowedOrigins  []string

	// Email
	EmailProvider          string
	SendGridAPIKey         string
	EmailFromAddress       string
	EmailFromName          string
	StaffNotificationEmail string

	// Form pipeline
	RateLimitMaxAttempts int
	RateLimitWindow      time.Duration
	RateLimitBlock       time.Duration
	APIRateLimitMax      int
	APIRateLimitWindow   time.Duration
	APIRateLimitBlock    time.Duration
	PersistMaxAttempts   int
	PersistRetryDelay    time.Duration
	StoreTimeout         time.Duration
	NotifyTimeout        time.Duration
	BusinessTimezone     string
	ProgramCapacity      map[string]int

	// Localization
	DefaultLocale string

	// Weather widget
	WeatherAPIKey   string
	WeatherBaseURL  string
	WeatherCacheTTL time.Duration

	// Parent portal documents and resource library
	DocumentsBucket   string
	DocumentsMaxBytes int64

	// Feature flags
	FeatureReferrals    bool
	FeatureResources    bool
	FeatureParentPortal bool
	FeatureWeather      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		PublicBaseURL:       getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AdminJWTSecret:      getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS"),

		EmailProvider:          strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:         getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "Little Sprouts Childcare"),
		StaffNotificationEmail: getEnv("STAFF_NOTIFICATION_EMAIL", ""),

		RateLimitMaxAttempts: getEnvAsInt("RATE_LIMIT_MAX_ATTEMPTS", 5),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitBlock:       getEnvAsDuration("RATE_LIMIT_BLOCK", time.Hour),
		APIRateLimitMax:      getEnvAsInt("API_RATE_LIMIT_MAX", 120),
		APIRateLimitWindow:   getEnvAsDuration("API_RATE_LIMIT_WINDOW", time.Minute),
		APIRateLimitBlock:    getEnvAsDuration("API_RATE_LIMIT_BLOCK", time.Minute),
		PersistMaxAttempts:   getEnvAsInt("PERSIST_MAX_ATTEMPTS", 3),
		PersistRetryDelay:    getEnvAsDuration("PERSIST_RETRY_DELAY", time.Second),
		StoreTimeout:         getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		NotifyTimeout:        getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		BusinessTimezone:     getEnv("BUSINESS_TIMEZONE", "America/Chicago"),
		ProgramCapacity:      getEnvAsIntMap("PROGRAM_CAPACITY"),

		DefaultLocale: strings.ToLower(getEnv("DEFAULT_LOCALE", "en")),

		WeatherAPIKey:   getEnv("WEATHER_API_KEY", ""),
		WeatherBaseURL:  getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		WeatherCacheTTL: getEnvAsDuration("WEATHER_CACHE_TTL", 10*time.Minute),

		DocumentsBucket:   getEnv("DOCUMENTS_BUCKET", ""),
		DocumentsMaxBytes: int64(getEnvAsInt("DOCUMENTS_MAX_BYTES", 10<<20)),

		FeatureReferrals:    getEnvAsBool("FEATURE_REFERRALS", false),
		FeatureResources:    getEnvAsBool("FEATURE_RESOURCES", false),
		FeatureParentPortal: getEnvAsBool("FEATURE_PARENT_PORTAL", false),
		FeatureWeather:      getEnvAsBool("FEATURE_WEATHER", true),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsIntMap parses "a=1,b=2". Malformed pairs are skipped.
func getEnvAsIntMap(key string) map[string]int {
	out := map[string]int{}
	for _, pair := range getEnvAsList(key) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(name))] = n
	}
	return out
}
