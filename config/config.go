package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL         = "https://scio.ly/api"
	defaultAPITimeout     = 30 * time.Second
	defaultDBPath         = "./data/quizbot.db"
	defaultExplanationTTL = 24 * time.Hour

	defaultRateLimitMax    = 1
	defaultRateLimitWindow = 1000 * time.Millisecond
	defaultRateLimitBlock  = 2000 * time.Millisecond

	// DisabledDBPath turns the sqlite cache off.
	DisabledDBPath = "none"
)

// Config holds all the configuration for the application
type Config struct {
	BotToken string
	Debug    bool
	Verbose  bool

	APIKey     string
	APIURL     string
	APITimeout time.Duration

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	RateLimitBlock       time.Duration

	DatabasePath   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ExplanationTTL time.Duration

	// OTLPEndpoint enables OTLP/HTTP trace export; the exporter reads the
	// remaining OTEL_EXPORTER_OTLP_* variables itself.
	OTLPEndpoint string
	TraceStdout  bool
}

// LoadEnvFile loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, errors.New("BOT_TOKEN environment variable is required")
	}

	apiKey := os.Getenv("SCIO_API_KEY")
	if apiKey == "" {
		return nil, errors.New("SCIO_API_KEY environment variable is required")
	}

	apiURL := os.Getenv("SCIO_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	// Set database path with default
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("REDIS_DB must be a non-negative integer, got %q", raw)
		}
		redisDB = n
	}

	return &Config{
		BotToken: botToken,
		Debug:    envBool("DEBUG"),
		Verbose:  envBool("VERBOSE"),

		APIKey:     apiKey,
		APIURL:     apiURL,
		APITimeout: time.Duration(positiveInt("API_TIMEOUT_SEC", int(defaultAPITimeout/time.Second))) * time.Second,

		RateLimitMaxRequests: positiveInt("RATE_LIMIT_MAX_REQUESTS", defaultRateLimitMax),
		RateLimitWindow:      time.Duration(positiveInt("RATE_LIMIT_WINDOW_MS", int(defaultRateLimitWindow/time.Millisecond))) * time.Millisecond,
		RateLimitBlock:       time.Duration(positiveInt("RATE_LIMIT_BLOCK_MS", int(defaultRateLimitBlock/time.Millisecond))) * time.Millisecond,

		DatabasePath:   dbPath,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		ExplanationTTL: duration("EXPLANATION_TTL", defaultExplanationTTL),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceStdout:  envBool("TRACE_STDOUT"),
	}, nil
}

// CacheEnabled reports whether the sqlite cache should be opened.
func (c *Config) CacheEnabled() bool {
	return !strings.EqualFold(c.DatabasePath, DisabledDBPath)
}

// positiveInt reads a positive integer, falling back to def when the
// variable is unset or invalid.
func positiveInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		log.Printf("config: ignoring invalid %s=%q, using %d", name, raw, def)
		return def
	}
	return n
}

func duration(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("config: ignoring invalid %s=%q, using %v", name, raw, def)
		return def
	}
	return d
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}
