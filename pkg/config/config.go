package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Config holds the full service configuration.
type Config struct {
	// DBPath is the path to the SQLite quotes database.
	DBPath string `toml:"db_path"`

	// Channels is the allow-list of channel identifiers accepted by the
	// channel filter. Values are matched case-insensitively; anything not
	// listed here is treated as "all".
	Channels []string `toml:"channels"`

	// DiscordWebhookURL receives flagged-quote reports. Empty disables
	// webhook delivery.
	DiscordWebhookURL string `toml:"discord_webhook_url"`

	Server    ServerConfig    `toml:"server"`
	Pool      PoolConfig      `toml:"pool"`
	Timeouts  TimeoutConfig   `toml:"timeouts"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PoolConfig configures the database connection pool.
type PoolConfig struct {
	MaxConnections     int      `toml:"max_connections"`
	MinIdleConnections int      `toml:"min_idle_connections"`
	IdleTimeout        Duration `toml:"idle_timeout"`
	ConnectTimeout     Duration `toml:"connect_timeout"`
}

// TimeoutConfig holds per-stage deadlines for search execution.
type TimeoutConfig struct {
	Acquire    Duration `toml:"acquire"`
	DataQuery  Duration `toml:"data_query"`
	CountQuery Duration `toml:"count_query"`
}

// RateLimitConfig configures the per-client API rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	dbPath, err := GetDefaultDBPath()
	if err != nil {
		return nil, fmt.Errorf("getting default database path: %w", err)
	}
	cfg := &Config{DBPath: dbPath}
	cfg.applyDefaults()
	return cfg, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.DBPath == "" {
		dbPath, err := GetDefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("getting default database path: %w", err)
		}
		config.DBPath = dbPath
	}

	config.applyDefaults()

	return &config, nil
}

// applyDefaults fills in zero-valued fields. The pool and timeout defaults
// mirror the production deployment: a small pool with fast idle recycling,
// fail-fast acquisition and data-query deadlines, and a shorter degradable
// count-query deadline.
func (c *Config) applyDefaults() {
	if len(c.Channels) == 0 {
		c.Channels = []string{"joerogan"}
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Pool.MaxConnections == 0 {
		c.Pool.MaxConnections = 15
	}
	if c.Pool.MinIdleConnections == 0 {
		c.Pool.MinIdleConnections = 2
	}
	if c.Pool.IdleTimeout.Duration == 0 {
		c.Pool.IdleTimeout = Duration{30 * time.Second}
	}
	if c.Pool.ConnectTimeout.Duration == 0 {
		c.Pool.ConnectTimeout = Duration{5 * time.Second}
	}
	if c.Timeouts.Acquire.Duration == 0 {
		c.Timeouts.Acquire = Duration{5 * time.Second}
	}
	if c.Timeouts.DataQuery.Duration == 0 {
		c.Timeouts.DataQuery = Duration{10 * time.Second}
	}
	if c.Timeouts.CountQuery.Duration == 0 {
		c.Timeouts.CountQuery = Duration{5 * time.Second}
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 2
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}
}

// AllowedChannel reports whether name is in the configured channel allow-list.
// Matching is case-insensitive.
func (c *Config) AllowedChannel(name string) bool {
	lower := strings.ToLower(name)
	for _, ch := range c.Channels {
		if strings.ToLower(ch) == lower {
			return true
		}
	}
	return false
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	dbPath := c.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = GetDefaultDBPath()
		if err != nil {
			return "", fmt.Errorf("getting default database path: %w", err)
		}
	}

	// Replace the placeholder db_path with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/quotegrep/quotes.db", dbPath, 1)
	return template, nil
}

// GetDefaultDataDir returns the default data directory for the database
func GetDefaultDataDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	qgDir := filepath.Join(dataDir, "quotegrep")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(qgDir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", qgDir, err)
	}

	return qgDir, nil
}

// GetDefaultDBPath returns the default database path in the user's data directory
func GetDefaultDBPath() (string, error) {
	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "quotes.db"), nil
}

// GetConfigDir returns the configuration directory for quotegrep
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	qgConfigDir := filepath.Join(configDir, "quotegrep")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(qgConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", qgConfigDir, err)
	}

	return qgConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
