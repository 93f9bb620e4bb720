package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"mezzanine/internal/errors"
)

// Game names accepted by MEZZANINE_GAME
const (
	GameNumber   = "number"
	GameTriangle = "triangle"
)

// Config represents the complete application configuration
type Config struct {
	Game     GameConfig
	Search   SearchConfig
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	Log      LogConfig
}

// GameConfig selects the game and its subject domain
type GameConfig struct {
	Name string
	// Bound is the largest number of the number game.
	Bound int
	// MaxBound caps the bound a request or an imported session may ask for.
	MaxBound int
	// Seed drives every random stream of a session; 0 picks one from the clock.
	Seed      int64
	MaxStacks int
	MaxHeight int
}

// SearchConfig tunes prior construction and question selection
type SearchConfig struct {
	DesiredBits           float64
	SampleCap             int
	SubstantialitySamples int
	// Workers bounds the exhaustive search fan-out; 0 means GOMAXPROCS.
	Workers int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings. Persistence is
// optional: an empty URL keeps sessions in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether sessions are persisted to PostgreSQL
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// StoreConfig holds settings for the embedded session store used when no
// database is configured. An empty Dir keeps sessions in memory.
type StoreConfig struct {
	Dir        string
	SyncWrites bool
}

// Enabled reports whether sessions are persisted to the embedded store
func (s StoreConfig) Enabled() bool {
	return s.Dir != ""
}

// LogConfig holds structured logging settings
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Game:     *loadGameConfig(),
		Search:   *loadSearchConfig(),
		Server:   *loadServerConfig(),
		Database: *loadDatabaseConfig(),
		Store:    *loadStoreConfig(),
		Log:      *loadLogConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadGameConfig() *GameConfig {
	return &GameConfig{
		Name:      strings.ToLower(getEnvOrDefault("MEZZANINE_GAME", GameTriangle)),
		Bound:     getEnvIntOrDefault("MEZZANINE_BOUND", 30),
		MaxBound:  getEnvIntOrDefault("MEZZANINE_MAX_BOUND", 60),
		Seed:      getEnvInt64OrDefault("MEZZANINE_SEED", 0),
		MaxStacks: getEnvIntOrDefault("MEZZANINE_MAX_STACKS", 3),
		MaxHeight: getEnvIntOrDefault("MEZZANINE_MAX_HEIGHT", 3),
	}
}

func loadSearchConfig() *SearchConfig {
	return &SearchConfig{
		DesiredBits:           getEnvFloatOrDefault("MEZZANINE_DESIRED_BITS", 0.95),
		SampleCap:             getEnvIntOrDefault("MEZZANINE_SAMPLE_CAP", 300),
		SubstantialitySamples: getEnvIntOrDefault("MEZZANINE_SUBSTANTIALITY_SAMPLES", 300),
		Workers:               getEnvIntOrDefault("MEZZANINE_WORKERS", 0),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Dir:        os.Getenv("MEZZANINE_STORE_DIR"),
		SyncWrites: getEnvBoolOrDefault("MEZZANINE_STORE_SYNC", false),
	}
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level:  strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
	}
}

// Validate checks the values Load and command-line overrides produce
func (c *Config) Validate() error {
	if c.Game.MaxBound < 2 {
		return errors.ConfigInvalid("MEZZANINE_MAX_BOUND must be at least 2")
	}
	switch c.Game.Name {
	case GameNumber:
		if c.Game.Bound < 2 {
			return errors.ConfigInvalid("MEZZANINE_BOUND must be at least 2")
		}
		if c.Game.Bound > c.Game.MaxBound {
			return errors.ConfigInvalid("MEZZANINE_BOUND cannot exceed MEZZANINE_MAX_BOUND")
		}
	case GameTriangle:
		if c.Game.MaxStacks < 1 || c.Game.MaxHeight < 1 {
			return errors.ConfigInvalid("study dimensions must be positive")
		}
	default:
		return errors.ConfigInvalid("unknown game " + strconv.Quote(c.Game.Name))
	}
	if c.Search.DesiredBits <= 0 {
		return errors.ConfigInvalid("MEZZANINE_DESIRED_BITS must be positive")
	}
	if c.Search.SampleCap <= 0 {
		return errors.ConfigInvalid("MEZZANINE_SAMPLE_CAP must be positive")
	}
	if c.Search.SubstantialitySamples <= 0 {
		return errors.ConfigInvalid("MEZZANINE_SUBSTANTIALITY_SAMPLES must be positive")
	}
	if c.Search.Workers < 0 {
		return errors.ConfigInvalid("MEZZANINE_WORKERS cannot be negative")
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.ConfigInvalid("LOG_FORMAT must be text or json")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
