package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis (chart cache)
	Redis RedisConfig

	// Persistence backend
	Store    StoreConfig
	Supabase SupabaseConfig

	// Chart calculation
	Astro AstroConfig

	// Scoring
	Scoring ScoringConfig

	// Batch pipeline
	Batch BatchConfig

	// External statistics sources
	MSF  MSFConfig
	HTML HTMLSourceConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// StoreConfig selects where entities and scores live
type StoreConfig struct {
	Driver string // postgres, supabase
}

// SupabaseConfig holds Supabase REST credentials
type SupabaseConfig struct {
	URL            string
	ServiceKey     string
	Table          string // score table
	EphemerisTable string // daily transit table
	Schema         string
}

// AstroConfig holds chart calculation settings.
// ZodiacMode is process-wide; tropical and sidereal never mix in one run.
type AstroConfig struct {
	ZodiacMode  string   // tropical, sidereal
	HouseSystem string   // placidus, porphyry, equal
	Bodies      []string // empty = all nine
	CacheTTL    time.Duration
}

// ScoringConfig holds the weight profile location
type ScoringConfig struct {
	ProfilePath string // empty = embedded nba_impact_v1
}

// BatchConfig holds batch pipeline settings
type BatchConfig struct {
	Pacing        time.Duration
	StatsSource   string // db, msf, html
	Season        string
	Schedule      string // cron spec for the scheduler
	ProgressEvery int
}

// MSFConfig holds MySportsFeeds-style stats API configuration
type MSFConfig struct {
	BaseURL  string
	APIKey   string
	Password string
	Timeout  time.Duration
}

// HTMLSourceConfig holds the HTML stat table source
type HTMLSourceConfig struct {
	URL string
}

var (
	validEnvs         = []string{"development", "staging", "production"}
	validStoreDrivers = []string{"postgres", "supabase"}
	validZodiacModes  = []string{"tropical", "sidereal"}
	validHouseSystems = []string{"placidus", "porphyry", "equal"}
	validStatsSources = []string{"db", "msf", "html"}
)

// Load reads configuration from environment variables and validates it,
// including store and statistics source credentials.
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadLocal reads configuration for commands that never touch a store
// (offline chart computation). Only enum values are validated.
func LoadLocal() (*Config, error) {
	cfg := read()
	if err := cfg.validateEnums(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// read loads .env and the environment into a Config
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func read() *Config {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		},

		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", ""),
			ServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
			Table:          getEnv("SUPABASE_SCORE_TABLE", "players"),
			EphemerisTable: getEnv("SUPABASE_EPHEMERIS_TABLE", "ephemeris"),
			Schema:         getEnv("SUPABASE_SCHEMA", "public"),
		},

		Astro: AstroConfig{
			ZodiacMode:  strings.ToLower(getEnv("ZODIAC_MODE", "tropical")),
			HouseSystem: strings.ToLower(getEnv("HOUSE_SYSTEM", "placidus")),
			Bodies:      getEnvAsList("ASTRO_BODIES"),
			CacheTTL:    getEnvAsDuration("CHART_CACHE_TTL", "24h"),
		},

		Scoring: ScoringConfig{
			ProfilePath: getEnv("SCORING_PROFILE", ""),
		},

		Batch: BatchConfig{
			Pacing:        getEnvAsDuration("BATCH_PACING", "100ms"),
			StatsSource:   strings.ToLower(getEnv("STATS_SOURCE", "db")),
			Season:        getEnv("STATS_SEASON", "current"),
			Schedule:      getEnv("BATCH_SCHEDULE", "0 0 6 * * *"),
			ProgressEvery: getEnvAsInt("BATCH_PROGRESS_EVERY", 50),
		},

		MSF: MSFConfig{
			BaseURL:  getEnv("MSF_BASE_URL", "https://api.mysportsfeeds.com/v2.1/pull/nba"),
			APIKey:   getEnv("MSF_API_KEY", ""),
			Password: getEnv("MSF_PASSWORD", "MYSPORTSFEEDS"),
			Timeout:  getEnvAsDuration("MSF_TIMEOUT", "30s"),
		},

		HTML: HTMLSourceConfig{
			URL: getEnv("STATS_HTML_URL", ""),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	return cfg
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if err := c.validateEnums(); err != nil {
		return err
	}

	if !oneOf(c.Store.Driver, validStoreDrivers) {
		return fmt.Errorf("STORE_DRIVER must be one of: %s", strings.Join(validStoreDrivers, ", "))
	}

	// 저장소 자격증명은 드라이버별로 필수
	switch c.Store.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	case "supabase":
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for STORE_DRIVER=supabase")
		}
	}

	if !oneOf(c.Batch.StatsSource, validStatsSources) {
		return fmt.Errorf("STATS_SOURCE must be one of: %s", strings.Join(validStatsSources, ", "))
	}

	// db 통계는 postgres 저장소에서만 읽을 수 있음
	if c.Batch.StatsSource == "db" && c.Database.URL == "" {
		return fmt.Errorf("STATS_SOURCE=db requires DATABASE_URL")
	}

	if c.Batch.StatsSource == "msf" && c.MSF.APIKey == "" {
		return fmt.Errorf("MSF_API_KEY is required for STATS_SOURCE=msf")
	}

	if c.Batch.StatsSource == "html" && c.HTML.URL == "" {
		return fmt.Errorf("STATS_HTML_URL is required for STATS_SOURCE=html")
	}

	if c.Batch.Pacing < 0 {
		return fmt.Errorf("BATCH_PACING must not be negative")
	}

	return nil
}

// validateEnums checks the settings every command depends on
func (c *Config) validateEnums() error {
	if !oneOf(c.Env, validEnvs) {
		return fmt.Errorf("ENV must be one of: %s", strings.Join(validEnvs, ", "))
	}

	if !oneOf(c.Astro.ZodiacMode, validZodiacModes) {
		return fmt.Errorf("ZODIAC_MODE must be one of: %s", strings.Join(validZodiacModes, ", "))
	}

	if !oneOf(c.Astro.HouseSystem, validHouseSystems) {
		return fmt.Errorf("HOUSE_SYSTEM must be one of: %s", strings.Join(validHouseSystems, ", "))
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",    // Current directory
		"../.env", // From cmd/astrobet
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
