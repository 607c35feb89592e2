package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the lighttable service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	ArchiveAPI ArchiveAPIConfig `yaml:"archive_api"`
	Search     SearchConfig     `yaml:"search"`
	Storage    StorageConfig    `yaml:"storage"`
	Collection CollectionConfig `yaml:"collection"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"` // default: determined by env
}

// AuthConfig holds session API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Archive API drivers.
const (
	DriverREST        = "rest"
	DriverMeilisearch = "meilisearch"
)

// ArchiveAPIConfig selects and configures the search provider backend.
type ArchiveAPIConfig struct {
	Driver     string            `yaml:"driver" validate:"oneof=rest meilisearch"`
	BaseURL    string            `yaml:"base_url" validate:"required_if=Driver rest"`
	Username   string            `yaml:"username"`
	Password   string            `yaml:"password"`
	TimeoutSec int               `yaml:"timeout_sec" validate:"min=0"`
	Meili      MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig holds the Meilisearch driver settings.
type MeilisearchConfig struct {
	URL     string            `yaml:"url" validate:"omitempty,url"`
	APIKey  string            `yaml:"api_key"`
	Indexes map[string]string `yaml:"indexes"` // artifact kind -> index uid
}

// Search modes.
const (
	ModeLighttable = "lighttable"
	ModeGlobal     = "global"
)

// SearchConfig holds the filter store settings.
type SearchConfig struct {
	DebounceMS            int    `yaml:"debounce_ms" validate:"min=0"`
	DefaultPageSize       int    `yaml:"default_page_size" validate:"min=0,max=500"`
	ExtendedPageFactor    int    `yaml:"extended_page_factor" validate:"min=0"`
	DiscardStaleResponses bool   `yaml:"discard_stale_responses"`
	Mode                  string `yaml:"mode" validate:"oneof=lighttable global"`
	DefaultLang           string `yaml:"default_lang"`
}

// Debounce returns the debounce window.
func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageValkey = "valkey"
)

// StorageConfig holds session storage settings.
type StorageConfig struct {
	Driver           string   `yaml:"driver" validate:"oneof=memory redis valkey"`
	Addrs            []string `yaml:"addrs" validate:"required_unless=Driver memory"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	SessionTTLSec    int      `yaml:"session_ttl_sec" validate:"min=0"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CollectionConfig holds favorites settings.
type CollectionConfig struct {
	ComparisonURL string `yaml:"comparison_url" validate:"omitempty,url"`
}

// SessionsConfig holds session registry settings.
type SessionsConfig struct {
	MaxIdleSec int `yaml:"max_idle_sec" validate:"min=0"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.ArchiveAPI.Driver == "" {
		c.ArchiveAPI.Driver = DriverREST
	}
	if c.ArchiveAPI.TimeoutSec <= 0 {
		c.ArchiveAPI.TimeoutSec = 30
	}
	if c.Search.DebounceMS <= 0 {
		c.Search.DebounceMS = 500
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 60
	}
	if c.Search.ExtendedPageFactor <= 0 {
		c.Search.ExtendedPageFactor = 2
	}
	if c.Search.Mode == "" {
		c.Search.Mode = ModeLighttable
	}
	if c.Search.DefaultLang == "" {
		c.Search.DefaultLang = "de"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "lighttable:"
	}
	if c.Storage.ReadinessTimeout <= 0 {
		c.Storage.ReadinessTimeout = 10
	}
	if c.Sessions.MaxIdleSec <= 0 {
		c.Sessions.MaxIdleSec = 1800
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if c.ArchiveAPI.Driver == DriverMeilisearch && c.ArchiveAPI.Meili.URL == "" {
		return fmt.Errorf("archive_api.meilisearch.url is required for the meilisearch driver")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
