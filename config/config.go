package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/gonbooster/AIArriendo-sub002/schema"
)

// Config holds all application configuration loaded from environment
// variables, with an optional YAML overrides file for per-source budgets.
type Config struct {
	Port  string
	Debug bool

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	CacheEnabled     bool
	CacheTTL         time.Duration

	ChromeBin        string
	FetchTimeout     time.Duration
	MaxPagesOverride int

	SourcesFile string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getEnvBool("DEBUG", false),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "aiarriendo"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "aiarriendo123"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		CacheEnabled:     getEnvBool("CACHE_ENABLED", false),
		CacheTTL:         time.Duration(getEnvInt("CACHE_TTL_MINUTES", 30)) * time.Minute,

		ChromeBin:        getEnv("CHROME_BIN", ""),
		FetchTimeout:     time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxPagesOverride: getEnvInt("MAX_PAGES_PER_SOURCE", 0),

		SourcesFile: getEnv("SOURCES_FILE", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// sourceOverride is one provider block in the YAML overrides file. Zero
// fields keep the schema's built-in budget.
type sourceOverride struct {
	RequestsPerMinute     int `yaml:"requests_per_minute"`
	DelayMs               int `yaml:"delay_ms"`
	MaxConcurrentRequests int `yaml:"max_concurrent_requests"`
	TimeoutSec            int `yaml:"timeout_sec"`
	MaxPages              int `yaml:"max_pages"`
}

// LoadSourceOverrides reads the optional per-source overrides file. An
// unset SourcesFile yields an empty map.
func (c *Config) LoadSourceOverrides() (map[string]schema.Override, error) {
	overrides := make(map[string]schema.Override)
	if c.SourcesFile == "" {
		return overrides, nil
	}

	data, err := os.ReadFile(c.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", c.SourcesFile, err)
	}

	var raw map[string]sourceOverride
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", c.SourcesFile, err)
	}

	for id, o := range raw {
		overrides[id] = schema.Override{
			RequestsPerMinute:     o.RequestsPerMinute,
			DelayBetweenRequests:  time.Duration(o.DelayMs) * time.Millisecond,
			MaxConcurrentRequests: o.MaxConcurrentRequests,
			Timeout:               time.Duration(o.TimeoutSec) * time.Second,
			MaxPages:              o.MaxPages,
		}
	}
	return overrides, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
