package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/artpar/kitchen/internal/shell/manifest"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Manifest ManifestConfig `mapstructure:"manifest"`
	Generate GenerateConfig `mapstructure:"generate"`
	History  HistoryConfig  `mapstructure:"history"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AdminToken guards /admin routes. Set via KITCHEN_SERVER_ADMIN_TOKEN.
	AdminToken string `mapstructure:"admin_token"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// Enabled turns on generation history. When false no database is opened.
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ManifestConfig says where the manifest documents live.
type ManifestConfig struct {
	Dir string `mapstructure:"dir"`

	// Paths override individual documents inside Dir.
	Paths manifest.Paths `mapstructure:"paths"`

	// Watch reloads the catalog when a document changes on disk.
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// ResolvedPaths returns the conventional paths inside Dir with any explicit
// per-document path taking precedence.
func (c ManifestConfig) ResolvedPaths() manifest.Paths {
	paths := manifest.FromDir(c.Dir)
	override := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	override(&paths.Contracts, c.Paths.Contracts)
	override(&paths.Combos, c.Paths.Combos)
	override(&paths.Bentos, c.Paths.Bentos)
	override(&paths.Platters, c.Paths.Platters)
	override(&paths.Environment, c.Paths.Environment)
	override(&paths.Network, c.Paths.Network)
	return paths
}

// GenerateConfig holds defaults for generate requests.
type GenerateConfig struct {
	DefaultTier     string `mapstructure:"default_tier"`
	IncludeOptional bool   `mapstructure:"include_optional"`
}

// HistoryConfig controls pruning of stored generations.
type HistoryConfig struct {
	PruneInterval time.Duration `mapstructure:"prune_interval"`
	MaxAge        time.Duration `mapstructure:"max_age"`
	Keep          int           `mapstructure:"keep"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.dsn", "./data/kitchen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Manifest defaults. Every key needs a default for env overrides to apply.
	v.SetDefault("manifest.dir", "./manifests")
	v.SetDefault("manifest.paths.contracts", "")
	v.SetDefault("manifest.paths.combos", "")
	v.SetDefault("manifest.paths.bentos", "")
	v.SetDefault("manifest.paths.platters", "")
	v.SetDefault("manifest.paths.environment", "")
	v.SetDefault("manifest.paths.network", "")
	v.SetDefault("manifest.watch", false)
	v.SetDefault("manifest.debounce", "500ms")

	v.SetDefault("generate.default_tier", "open")
	v.SetDefault("generate.include_optional", true)

	v.SetDefault("history.prune_interval", "1h")
	v.SetDefault("history.max_age", "720h")
	v.SetDefault("history.keep", 100)

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("KITCHEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format writing
// to w. The server logs to stdout; CLI commands log to stderr so the
// generated document stays clean.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}
