// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetAPIRateLimitPerMinute() int
}

// TrackingConfig provides settings for the location tracker and the
// refresh scheduler.
type TrackingConfig interface {
	GetRefreshInterval() time.Duration
	GetMovementThresholdDegrees() float64
	GetSensorTimeout() time.Duration
	GetSensorMaxAge() time.Duration
	GetSensorHighAccuracy() bool
}

// LookupConfig provides settings for the remote parking lookup client.
type LookupConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetAddressProvider() string
	GetMoonshotAPIKey() string
	GetMoonshotModel() string
	GetLookupTimeout() time.Duration
	GetSearchRadiusKm() float64
	GetSearchMaxResults() int
}

// CacheConfig provides settings for the optional Redis address cache.
type CacheConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAddressCacheTTL() time.Duration
	IsCacheEnabled() bool
}

// MQTTConfig provides settings for the optional outcome publisher.
type MQTTConfig interface {
	GetMQTTBrokerURL() string
	GetMQTTClientID() string
	GetMQTTTopic() string
	GetMQTTUsername() string
	GetMQTTPassword() string
	IsMQTTEnabled() bool
}

const (
	// AddressProviderGemini resolves addresses with the same Gemini model used for search.
	AddressProviderGemini = "gemini"
	// AddressProviderMoonshot resolves addresses through the Moonshot chat API.
	AddressProviderMoonshot = "moonshot"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	CORSAllowAll          bool
	CORSOrigins           []string
	APIRateLimitPerMinute int

	RefreshInterval          time.Duration
	MovementThresholdDegrees float64
	SensorTimeout            time.Duration
	SensorMaxAge             time.Duration
	SensorHighAccuracy       bool

	GeminiAPIKey     string
	GeminiModel      string
	AddressProvider  string
	MoonshotAPIKey   string
	MoonshotModel    string
	LookupTimeout    time.Duration
	SearchRadiusKm   float64
	SearchMaxResults int

	RedisURL         string
	RedisTLSInsecure bool
	AddressCacheTTL  time.Duration

	MQTTBrokerURL string
	MQTTClientID  string
	MQTTTopic     string
	MQTTUsername  string
	MQTTPassword  string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string           { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool         { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string      { return c.CORSOrigins }
func (c *Config) GetAPIRateLimitPerMinute() int { return c.APIRateLimitPerMinute }

// TrackingConfig implementation
func (c *Config) GetRefreshInterval() time.Duration    { return c.RefreshInterval }
func (c *Config) GetMovementThresholdDegrees() float64 { return c.MovementThresholdDegrees }
func (c *Config) GetSensorTimeout() time.Duration      { return c.SensorTimeout }
func (c *Config) GetSensorMaxAge() time.Duration       { return c.SensorMaxAge }
func (c *Config) GetSensorHighAccuracy() bool          { return c.SensorHighAccuracy }

// LookupConfig implementation
func (c *Config) GetGeminiAPIKey() string         { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string          { return c.GeminiModel }
func (c *Config) GetAddressProvider() string      { return c.AddressProvider }
func (c *Config) GetMoonshotAPIKey() string       { return c.MoonshotAPIKey }
func (c *Config) GetMoonshotModel() string        { return c.MoonshotModel }
func (c *Config) GetLookupTimeout() time.Duration { return c.LookupTimeout }
func (c *Config) GetSearchRadiusKm() float64      { return c.SearchRadiusKm }
func (c *Config) GetSearchMaxResults() int        { return c.SearchMaxResults }

// CacheConfig implementation
func (c *Config) GetRedisURL() string               { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool         { return c.RedisTLSInsecure }
func (c *Config) GetAddressCacheTTL() time.Duration { return c.AddressCacheTTL }
func (c *Config) IsCacheEnabled() bool              { return c.RedisURL != "" }

// MQTTConfig implementation
func (c *Config) GetMQTTBrokerURL() string { return c.MQTTBrokerURL }
func (c *Config) GetMQTTClientID() string  { return c.MQTTClientID }
func (c *Config) GetMQTTTopic() string     { return c.MQTTTopic }
func (c *Config) GetMQTTUsername() string  { return c.MQTTUsername }
func (c *Config) GetMQTTPassword() string  { return c.MQTTPassword }
func (c *Config) IsMQTTEnabled() bool      { return c.MQTTBrokerURL != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		APIRateLimitPerMinute: int(mustInt64(getEnv("API_RATE_LIMIT_PER_MIN", "120"))),

		RefreshInterval:          mustDuration(getEnv("REFRESH_INTERVAL", "60s")),
		MovementThresholdDegrees: mustFloat(getEnv("MOVEMENT_THRESHOLD_DEG", "0.0005")),
		SensorTimeout:            mustDuration(getEnv("SENSOR_TIMEOUT", "15s")),
		SensorMaxAge:             mustDuration(getEnv("SENSOR_MAX_AGE", "0s")),
		SensorHighAccuracy:       !strings.EqualFold(getEnv("SENSOR_HIGH_ACCURACY", "true"), "false"),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AddressProvider:  strings.ToLower(getEnv("ADDRESS_PROVIDER", AddressProviderGemini)),
		MoonshotAPIKey:   getEnv("MOONSHOT_API_KEY", ""),
		MoonshotModel:    getEnv("MOONSHOT_MODEL", "kimi-k2-turbo-preview"),
		LookupTimeout:    mustDuration(getEnv("LOOKUP_TIMEOUT", "30s")),
		SearchRadiusKm:   mustFloat(getEnv("SEARCH_RADIUS_KM", "2")),
		SearchMaxResults: int(mustInt64(getEnv("SEARCH_MAX_RESULTS", "5"))),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AddressCacheTTL:  mustDuration(getEnv("ADDRESS_CACHE_TTL", "10m")),

		MQTTBrokerURL: getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:  getEnv("MQTT_CLIENT_ID", "parksmart"),
		MQTTTopic:     getEnv("MQTT_TOPIC", "parksmart/outcomes"),
		MQTTUsername:  getEnv("MQTT_USERNAME", ""),
		MQTTPassword:  getEnv("MQTT_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	switch c.AddressProvider {
	case AddressProviderGemini:
	case AddressProviderMoonshot:
		if c.MoonshotAPIKey == "" {
			return fmt.Errorf("MOONSHOT_API_KEY is required when ADDRESS_PROVIDER is moonshot")
		}
	default:
		return fmt.Errorf("ADDRESS_PROVIDER must be %q or %q, got %q", AddressProviderGemini, AddressProviderMoonshot, c.AddressProvider)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be a positive duration")
	}
	if c.SensorTimeout <= 0 {
		return fmt.Errorf("SENSOR_TIMEOUT must be a positive duration")
	}
	if c.SensorMaxAge < 0 {
		return fmt.Errorf("SENSOR_MAX_AGE cannot be negative")
	}
	if c.MovementThresholdDegrees <= 0 {
		return fmt.Errorf("MOVEMENT_THRESHOLD_DEG must be positive")
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT must be a positive duration")
	}
	if c.SearchMaxResults < 1 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be at least 1")
	}
	if c.SearchRadiusKm <= 0 {
		return fmt.Errorf("SEARCH_RADIUS_KM must be positive")
	}
	if c.APIRateLimitPerMinute < 1 {
		return fmt.Errorf("API_RATE_LIMIT_PER_MIN must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
