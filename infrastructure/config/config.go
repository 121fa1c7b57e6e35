package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration (renderer bridge)
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Remote weave service
	ServiceBaseURL string        `yaml:"service_base_url"`
	ServiceTimeout time.Duration `yaml:"service_timeout"`

	// Offline snapshot cache
	SnapshotPath    string `yaml:"snapshot_path"`
	SnapshotsEnable bool   `yaml:"snapshots_enable"`

	// Initial cache target: a weave id, or empty for the read-only
	// aggregated view
	DefaultWeaveID string `yaml:"default_weave_id"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Feature flags
	ClusteringEnabled bool `yaml:"clustering_enabled"`
	EnableCORS        bool `yaml:"enable_cors"`
}

// LoadConfig loads configuration from environment variables, optionally
// overlaid by a YAML file named in WEAVE_CONFIG_FILE
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8090"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServiceBaseURL: getEnv("WEAVE_SERVICE_URL", "http://localhost:8080"),
		ServiceTimeout: time.Duration(getEnvInt("WEAVE_SERVICE_TIMEOUT_MS", 15000)) * time.Millisecond,

		SnapshotPath:    getEnv("SNAPSHOT_PATH", ".weavecache"),
		SnapshotsEnable: getEnvBool("SNAPSHOTS_ENABLE", true),

		DefaultWeaveID: getEnv("DEFAULT_WEAVE_ID", ""),

		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ClusteringEnabled: getEnvBool("CLUSTERING_ENABLED", true),
		EnableCORS:        getEnvBool("ENABLE_CORS", true),
	}

	if path := os.Getenv("WEAVE_CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayFile applies settings from a YAML file on top of the
// env-derived configuration
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.ServiceBaseURL == "" {
		return fmt.Errorf("WEAVE_SERVICE_URL is required")
	}
	if c.ServiceTimeout <= 0 {
		return fmt.Errorf("service timeout must be positive")
	}
	if c.SnapshotsEnable && c.SnapshotPath == "" {
		return fmt.Errorf("SNAPSHOT_PATH is required when snapshots are enabled")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
