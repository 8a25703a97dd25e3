package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(LevelForEnvironment(GetEnvWithDefault("APP_ENV", "development")))
}

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "ia-platform-secret-key-2024"

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Environment     string        `json:"environment"`
	Port            int           `json:"port"`
	Host            string        `json:"host"`
	FrontendURL     string        `json:"frontend_url"`
	MaxBodyBytes    int64         `json:"max_body_bytes"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBPath     string `json:"db_path"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`
	SeedDemo   bool   `json:"seed_demo"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret  string        `json:"jwt_secret"`
	JWTExpiry  time.Duration `json:"jwt_expiry"`
	BcryptCost int           `json:"bcrypt_cost"`

	// Rate limiting
	RateLimitMax    int           `json:"rate_limit_max"`
	RateLimitWindow time.Duration `json:"rate_limit_window"`
	RedisAddr       string        `json:"redis_addr"`
	RedisPassword   string        `json:"redis_password"`
	RedisDB         int           `json:"redis_db"`

	// Proxies whose X-Forwarded-For is believed when resolving the client IP; empty trusts none
	TrustedProxies []string `json:"trusted_proxies"`

	// Tracing
	OTLPEndpoint string `json:"otlp_endpoint"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Host: %s, Port: %d, FrontendURL: %s, DBDriver: %s, DBPath: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], LogLevel: %s, JWTSecret: [REDACTED], JWTExpiry: %s, BcryptCost: %d, RateLimit: %d/%s, RedisAddr: %s, RedisPassword: [REDACTED], TrustedProxies: %v, OTLPEndpoint: %s}",
		c.Environment, c.Host, c.Port, c.FrontendURL, c.DBDriver, c.DBPath, c.DBHost, c.DBName, c.DBUser,
		c.LogLevel, c.JWTExpiry, c.BcryptCost, c.RateLimitMax, c.RateLimitWindow, c.RedisAddr, c.TrustedProxies, c.OTLPEndpoint)
}

// IsDevelopment reports whether error responses may carry debugging details.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any variable is present but malformed, or if production runs with the default secret
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")

	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "3001"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	jwtExpiry, err := getEnvDuration("JWT_EXPIRY", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	rateWindow, err := getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	bcryptCost, err := getEnvInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}
	rateMax, err := getEnvInt("RATE_LIMIT_MAX", 100)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	maxBody, err := getEnvInt("MAX_BODY_BYTES", 50<<20)
	if err != nil {
		return nil, err
	}
	trustedProxies, err := getEnvProxies("TRUSTED_PROXIES")
	if err != nil {
		return nil, err
	}

	config := &Config{
		Environment:     GetEnvWithDefault("APP_ENV", "development"),
		Port:            port,
		Host:            GetEnvWithDefault("APP_HOST", "0.0.0.0"),
		FrontendURL:     GetEnvWithDefault("FRONTEND_URL", "http://localhost:5173"),
		MaxBodyBytes:    int64(maxBody),
		ShutdownTimeout: shutdownTimeout,
		DBDriver:        strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite")),
		DBPath:          GetEnvWithDefault("DB_PATH", "file::memory:?cache=shared"),
		DBHost:          GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:          GetEnvWithDefault("DB_PORT", "5432"),
		DBName:          GetEnvWithDefault("DB_NAME", "ia_platform"),
		DBUser:          GetEnvWithDefault("DB_USER", "postgres"),
		DBPassword:      GetEnvWithDefault("DB_PASSWORD", ""),
		DBSSLMode:       GetEnvWithDefault("DB_SSLMODE", "disable"),
		SeedDemo:        GetEnvAsType("SEED_DEMO_DATA", true),
		LogLevel:        GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:       GetEnvWithDefault("JWT_SECRET", DefaultJWTSecret),
		JWTExpiry:       jwtExpiry,
		BcryptCost:      bcryptCost,
		RateLimitMax:    rateMax,
		RateLimitWindow: rateWindow,
		RedisAddr:       GetEnvWithDefault("REDIS_ADDR", ""),
		RedisPassword:   GetEnvWithDefault("REDIS_PASSWORD", ""),
		RedisDB:         redisDB,
		TrustedProxies:  trustedProxies,
		OTLPEndpoint:    GetEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if config.Environment == "production" && config.JWTSecret == DefaultJWTSecret {
		return nil, errors.New("JWT_SECRET must be set in production")
	}
	if config.DBDriver != "sqlite" && config.DBDriver != "postgres" && config.DBDriver != "postgresql" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres)", config.DBDriver)
	}
	if config.RateLimitMax <= 0 {
		return nil, errors.New("RATE_LIMIT_MAX must be positive")
	}

	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// LevelForEnvironment maps APP_ENV to the default log level
func LevelForEnvironment(environment string) logrus.Level {
	switch environment {
	case "development":
		return logrus.DebugLevel
	case "production":
		return logrus.ErrorLevel
	default:
		// Default to info level for other environments
		return logrus.InfoLevel
	}
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	case time.Duration:
		durationValue, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return any(durationValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}

// getEnvInt is the strict variant used by LoadConfig: a malformed value is an error, not a default
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return parsed, nil
}

// getEnvProxies reads a comma separated list of IPs or CIDRs
func getEnvProxies(key string) ([]string, error) {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var proxies []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if net.ParseIP(entry) == nil {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return nil, fmt.Errorf("invalid %s entry %q", key, entry)
			}
		}
		proxies = append(proxies, entry)
	}
	return proxies, nil
}
