// ABOUTME: Configuration loading for the lavalink-go tools
// ABOUTME: Defaults, optional YAML file, .env file and LAVALINK_* overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/internal/logger"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config contains the program configuration
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       logger.Config   `yaml:"log"`
}

// NodeConfig describes the node to connect to
type NodeConfig struct {
	Name      string `yaml:"name"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Secure    bool   `yaml:"secure"`
	Password  string `yaml:"password"`
	UserID    string `yaml:"user_id"` // Bot user snowflake
	NumShards int    `yaml:"num_shards"`
	Resume    bool   `yaml:"resume"`
	ResumeKey string `yaml:"resume_key"`
}

// ServerConfig configures the local decode service
type ServerConfig struct {
	Addr            string        `yaml:"addr"` // ex: ":8080"
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBatch        int           `yaml:"max_batch"` // Tracks accepted per /decodetracks request
}

// RedisConfig configures the load result cache
type RedisConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	TTL         time.Duration `yaml:"ttl"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

// DiscoveryConfig configures mDNS browsing
type DiscoveryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{
			Host:      "localhost",
			Port:      2333,
			Password:  "youshallnotpass",
			NumShards: 1,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBatch:        100,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			TTL:         30 * time.Minute,
			DialTimeout: 5 * time.Second,
			PingTimeout: 2 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Timeout: 3 * time.Second,
		},
		Log: logger.Config{
			Level:      "info",
			Pretty:     true,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file, then the
// environment. A .env file in the working directory is read into the
// environment first. An empty path searches the standard locations.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return cfg, err
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	cfg.Log.File = ExpandHome(cfg.Log.File)
	return cfg, nil
}

// LoadConfigFile loads configuration from a YAML file over the defaults.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./lavalink.yaml",
		"./lavalink.yml",
		filepath.Join(home, ".config", "lavalink-go", "config.yaml"),
		filepath.Join(home, ".config", "lavalink-go", "config.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// applyEnv overrides fields from LAVALINK_* variables
func (c *Config) applyEnv() error {
	c.Node.Name = getenv("LAVALINK_NAME", c.Node.Name)
	c.Node.Host = getenv("LAVALINK_HOST", c.Node.Host)
	c.Node.Password = getenv("LAVALINK_PASSWORD", c.Node.Password)
	c.Node.UserID = getenv("LAVALINK_USER_ID", c.Node.UserID)
	c.Node.ResumeKey = getenv("LAVALINK_RESUME_KEY", c.Node.ResumeKey)
	c.Server.Addr = getenv("LAVALINK_SERVER_ADDR", c.Server.Addr)
	c.Redis.Addr = getenv("LAVALINK_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Username = getenv("LAVALINK_REDIS_USERNAME", c.Redis.Username)
	c.Redis.Password = getenv("LAVALINK_REDIS_PASSWORD", c.Redis.Password)
	c.Log.Level = getenv("LAVALINK_LOG_LEVEL", c.Log.Level)
	c.Log.File = getenv("LAVALINK_LOG_FILE", c.Log.File)

	var err error
	if c.Node.Port, err = getenvInt("LAVALINK_PORT", c.Node.Port); err != nil {
		return err
	}
	if c.Node.NumShards, err = getenvInt("LAVALINK_NUM_SHARDS", c.Node.NumShards); err != nil {
		return err
	}
	if c.Node.Secure, err = getenvBool("LAVALINK_SECURE", c.Node.Secure); err != nil {
		return err
	}
	if c.Node.Resume, err = getenvBool("LAVALINK_RESUME", c.Node.Resume); err != nil {
		return err
	}
	if c.Redis.Enabled, err = getenvBool("LAVALINK_REDIS_ENABLED", c.Redis.Enabled); err != nil {
		return err
	}
	if c.Redis.DB, err = getenvInt("LAVALINK_REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Redis.TTL, err = getenvDuration("LAVALINK_REDIS_TTL", c.Redis.TTL); err != nil {
		return err
	}
	if c.Log.Pretty, err = getenvBool("LAVALINK_PRETTY_LOG", c.Log.Pretty); err != nil {
		return err
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Node.Port < 1 || c.Node.Port > 65535 {
		return fmt.Errorf("node port must be between 1 and 65535, got %d", c.Node.Port)
	}
	if c.Node.NumShards < 1 {
		return fmt.Errorf("num_shards must be at least 1, got %d", c.Node.NumShards)
	}
	if c.Node.UserID != "" {
		if _, err := snowflake.Parse(c.Node.UserID); err != nil {
			return fmt.Errorf("invalid user_id %q: %w", c.Node.UserID, err)
		}
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server addr cannot be empty")
	}
	if c.Server.MaxBatch < 1 {
		return fmt.Errorf("server max_batch must be at least 1, got %d", c.Server.MaxBatch)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required when redis is enabled")
		}
		if c.Redis.TTL <= 0 {
			return fmt.Errorf("redis ttl must be positive, got %s", c.Redis.TTL)
		}
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// RequireNode checks the settings needed to open a node connection
func (c *Config) RequireNode() error {
	if c.Node.Host == "" {
		return fmt.Errorf("node host is required")
	}
	if c.Node.UserID == "" {
		return fmt.Errorf("node user_id is required (set LAVALINK_USER_ID)")
	}
	return nil
}

// UserSnowflake returns the parsed bot user ID
func (c *Config) UserSnowflake() (snowflake.ID, error) {
	if c.Node.UserID == "" {
		return 0, nil
	}
	return snowflake.Parse(c.Node.UserID)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid integer value for %s: %q", key, v)
	}
	return i, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid boolean value for %s: %q", key, v)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid duration value for %s: %q", key, v)
	}
	return d, nil
}
