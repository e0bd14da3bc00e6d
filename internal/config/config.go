// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Upstream services
	EventServiceURL string `koanf:"event_service_url"`
	UserServiceURL  string `koanf:"user_service_url"`

	// Database (recommendation history). Optional; history recording is
	// disabled when unset.
	DatabaseURL string `koanf:"database_url"`

	// Redis cache. Optional; falls back to the in-process cache when unset.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// JWT Authentication
	JWTSecret string `koanf:"jwt_secret"`

	// Scoring
	WeightsPath      string   `koanf:"weights_path"` // optional calibration overrides file
	DefaultInterests []string `koanf:"default_interests"`
	DefaultRadiusKm  float64  `koanf:"default_radius_km"`

	// Ranking engine
	CandidatePoolSize int `koanf:"candidate_pool_size"`
	DefaultPageSize   int `koanf:"default_page_size"`
	MaxPageSize       int `koanf:"max_page_size"`

	// Cache TTLs in seconds
	UserCacheTTLSeconds     int `koanf:"user_cache_ttl_seconds"`
	TrendingCacheTTLSeconds int `koanf:"trending_cache_ttl_seconds"`
	SimilarCacheTTLSeconds  int `koanf:"similar_cache_ttl_seconds"`
	CategoryCacheTTLSeconds int `koanf:"category_cache_ttl_seconds"`

	// History recorder
	HistoryQueueSize int `koanf:"history_queue_size"`
}

// Configuration validation errors.
var (
	ErrMissingEventServiceURL = errors.New("EVENT_SERVICE_URL is required")
	ErrMissingUserServiceURL  = errors.New("USER_SERVICE_URL is required")
	ErrMissingJWTSecret       = errors.New("JWT_SECRET is required")
	ErrInvalidPort            = errors.New("PORT must be a valid integer")
	ErrInvalidRadius          = errors.New("DEFAULT_RADIUS_KM must be positive")
	ErrInvalidPageSize        = errors.New("DEFAULT_PAGE_SIZE must not exceed MAX_PAGE_SIZE")
)

// Default values for non-secret configuration.
const (
	DefaultPort             = 8080
	DefaultEnv              = "development"
	DefaultRadius           = 20.0
	DefaultCandidatePool    = 100
	DefaultPageSize         = 20
	DefaultMaxPageSize      = 100
	DefaultUserCacheTTL     = 900  // 15 minutes
	DefaultTrendingCacheTTL = 1800 // 30 minutes
	DefaultSimilarCacheTTL  = 3600 // 60 minutes
	DefaultCategoryCacheTTL = 900  // 15 minutes
	DefaultHistoryQueueSize = 256
)

// DefaultInterestSet seeds cold-start users with no declared interests.
var DefaultInterestSet = []string{"music", "art", "food"}

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid
	// Try RECS_PORT first, then PORT for backward compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"RECS_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	redisDB, redisDBErr := getEnvIntOrDefault("REDIS_DB", k.Int("redis_db"), 0)
	if redisDBErr != nil {
		loadErrs = append(loadErrs, redisDBErr)
	}

	radius, radiusErr := getEnvFloatOrDefault("DEFAULT_RADIUS_KM", k.Float64("default_radius_km"), DefaultRadius)
	if radiusErr != nil {
		loadErrs = append(loadErrs, radiusErr)
	}

	poolSize, poolErr := getEnvIntOrDefault("CANDIDATE_POOL_SIZE", k.Int("candidate_pool_size"), DefaultCandidatePool)
	if poolErr != nil {
		loadErrs = append(loadErrs, poolErr)
	}
	pageSize, pageErr := getEnvIntOrDefault("DEFAULT_PAGE_SIZE", k.Int("default_page_size"), DefaultPageSize)
	if pageErr != nil {
		loadErrs = append(loadErrs, pageErr)
	}
	maxPageSize, maxPageErr := getEnvIntOrDefault("MAX_PAGE_SIZE", k.Int("max_page_size"), DefaultMaxPageSize)
	if maxPageErr != nil {
		loadErrs = append(loadErrs, maxPageErr)
	}

	userTTL, userTTLErr := getEnvIntOrDefault("USER_CACHE_TTL_SECONDS", k.Int("user_cache_ttl_seconds"), DefaultUserCacheTTL)
	if userTTLErr != nil {
		loadErrs = append(loadErrs, userTTLErr)
	}
	trendingTTL, trendingTTLErr := getEnvIntOrDefault("TRENDING_CACHE_TTL_SECONDS", k.Int("trending_cache_ttl_seconds"), DefaultTrendingCacheTTL)
	if trendingTTLErr != nil {
		loadErrs = append(loadErrs, trendingTTLErr)
	}
	similarTTL, similarTTLErr := getEnvIntOrDefault("SIMILAR_CACHE_TTL_SECONDS", k.Int("similar_cache_ttl_seconds"), DefaultSimilarCacheTTL)
	if similarTTLErr != nil {
		loadErrs = append(loadErrs, similarTTLErr)
	}
	categoryTTL, categoryTTLErr := getEnvIntOrDefault("CATEGORY_CACHE_TTL_SECONDS", k.Int("category_cache_ttl_seconds"), DefaultCategoryCacheTTL)
	if categoryTTLErr != nil {
		loadErrs = append(loadErrs, categoryTTLErr)
	}

	queueSize, queueErr := getEnvIntOrDefault("HISTORY_QUEUE_SIZE", k.Int("history_queue_size"), DefaultHistoryQueueSize)
	if queueErr != nil {
		loadErrs = append(loadErrs, queueErr)
	}

	// Default interest set: comma-separated env var wins over file config
	interests := k.Strings("default_interests")
	if val := os.Getenv("DEFAULT_INTERESTS"); val != "" {
		interests = splitCSV(val)
	}
	if len(interests) == 0 {
		interests = DefaultInterestSet
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:            port,
		Env:             getEnvOrDefaultMulti([]string{"RECS_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		EventServiceURL: getEnvOrKoanf("EVENT_SERVICE_URL", k, "event_service_url"),
		UserServiceURL:  getEnvOrKoanf("USER_SERVICE_URL", k, "user_service_url"),
		DatabaseURL:     getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisAddr:       getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		RedisPassword:   getEnvOrKoanf("REDIS_PASSWORD", k, "redis_password"),
		RedisDB:         redisDB,
		JWTSecret:       getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		WeightsPath:     getEnvOrKoanf("SCORING_WEIGHTS_PATH", k, "weights_path"),

		DefaultInterests:  interests,
		DefaultRadiusKm:   radius,
		CandidatePoolSize: poolSize,
		DefaultPageSize:   pageSize,
		MaxPageSize:       maxPageSize,

		UserCacheTTLSeconds:     userTTL,
		TrendingCacheTTLSeconds: trendingTTL,
		SimilarCacheTTLSeconds:  similarTTL,
		CategoryCacheTTLSeconds: categoryTTL,

		HistoryQueueSize: queueSize,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// TTL duration accessors for wiring the cache layer.

func (c *Config) UserCacheTTL() time.Duration {
	return time.Duration(c.UserCacheTTLSeconds) * time.Second
}

func (c *Config) TrendingCacheTTL() time.Duration {
	return time.Duration(c.TrendingCacheTTLSeconds) * time.Second
}

func (c *Config) SimilarCacheTTL() time.Duration {
	return time.Duration(c.SimilarCacheTTLSeconds) * time.Second
}

func (c *Config) CategoryCacheTTL() time.Duration {
	return time.Duration(c.CategoryCacheTTLSeconds) * time.Second
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.EventServiceURL == "" {
		errs = append(errs, ErrMissingEventServiceURL)
	}
	if c.UserServiceURL == "" {
		errs = append(errs, ErrMissingUserServiceURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.DefaultRadiusKm <= 0 {
		errs = append(errs, ErrInvalidRadius)
	}
	if c.DefaultPageSize > c.MaxPageSize {
		errs = append(errs, ErrInvalidPageSize)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                fmt.Sprintf("%d", c.Port),
		"env":                 c.Env,
		"event_service_url":   c.EventServiceURL,
		"user_service_url":    c.UserServiceURL,
		"database_url":        maskDatabaseURL(c.DatabaseURL),
		"redis_addr":          c.RedisAddr,
		"redis_password":      maskSecret(c.RedisPassword),
		"jwt_secret":          maskSecret(c.JWTSecret),
		"weights_path":        c.WeightsPath,
		"default_interests":   strings.Join(c.DefaultInterests, ","),
		"default_radius_km":   fmt.Sprintf("%.1f", c.DefaultRadiusKm),
		"candidate_pool_size": fmt.Sprintf("%d", c.CandidatePoolSize),
		"default_page_size":   fmt.Sprintf("%d", c.DefaultPageSize),
		"max_page_size":       fmt.Sprintf("%d", c.MaxPageSize),
		"user_cache_ttl":      c.UserCacheTTL().String(),
		"trending_cache_ttl":  c.TrendingCacheTTL().String(),
		"similar_cache_ttl":   c.SimilarCacheTTL().String(),
		"category_cache_ttl":  c.CategoryCacheTTL().String(),
		"history_queue_size":  fmt.Sprintf("%d", c.HistoryQueueSize),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
// Supports both postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
