package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Blob drivers.
const (
	BlobDriverFS    = "fs"
	BlobDriverS3    = "s3"
	BlobDriverRedis = "redis"
)

// Config holds the ekn server configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
	Content ContentConfig `yaml:"content"`
	Backend BackendConfig `yaml:"backend"`
	Blob    BlobConfig    `yaml:"blob"`
	Auth    AuthConfig    `yaml:"auth"`
	// Denylist maps a domain to tags hidden from every query against it.
	Denylist map[string][]string `yaml:"denylist"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ContentConfig locates content domains.
type ContentConfig struct {
	// Root is the directory of domains for the fs blob driver.
	Root string `yaml:"root"`
	// IndexRoot is the directory of domains as the search backend sees it (default: Root).
	IndexRoot     string `yaml:"index_root"`
	DefaultDomain string `yaml:"default_domain"`
	MediaDir      string `yaml:"media_dir"`
	ShardName     string `yaml:"shard_name"`
	// CacheDir receives shard files downloaded from remote blob stores.
	CacheDir string `yaml:"cache_dir"`
	// PoolSize bounds concurrent hit resolution across all domains.
	PoolSize int `yaml:"pool_size"`
}

// BackendConfig holds search backend settings.
type BackendConfig struct {
	BaseURL          string `yaml:"base_url"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// BlobConfig selects the content store.
type BlobConfig struct {
	Driver string          `yaml:"driver"` // fs, s3, redis (default: fs)
	S3     S3BlobConfig    `yaml:"s3"`
	Redis  RedisBlobConfig `yaml:"redis"`
}

// S3BlobConfig holds S3 content store settings.
type S3BlobConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
}

// RedisBlobConfig holds Redis content store settings.
type RedisBlobConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	Prefix   string   `yaml:"prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from the YAML file at configPath.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expands ${VAR} references, applies
// defaults and validates the result.
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Content.IndexRoot == "" {
		c.Content.IndexRoot = c.Content.Root
	}
	if c.Content.MediaDir == "" {
		c.Content.MediaDir = "media"
	}
	if c.Content.ShardName == "" {
		c.Content.ShardName = "content.shard"
	}
	if c.Content.CacheDir == "" {
		c.Content.CacheDir = filepath.Join(os.TempDir(), "ekn-cache")
	}
	if c.Content.PoolSize <= 0 {
		c.Content.PoolSize = 4 * runtime.NumCPU()
	}
	if c.Backend.TimeoutSec <= 0 {
		c.Backend.TimeoutSec = 10
	}
	if c.Backend.ReadinessTimeout <= 0 {
		c.Backend.ReadinessTimeout = 10
	}
	if c.Blob.Driver == "" {
		c.Blob.Driver = BlobDriverFS
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Content.IndexRoot == "" {
		return fmt.Errorf("content.index_root or content.root is required")
	}
	switch c.Blob.Driver {
	case BlobDriverFS:
		if c.Content.Root == "" {
			return fmt.Errorf("content.root is required for the fs blob driver")
		}
	case BlobDriverS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket is required for the s3 blob driver")
		}
	case BlobDriverRedis:
		if len(c.Blob.Redis.Addrs) == 0 {
			return fmt.Errorf("blob.redis.addrs is required for the redis blob driver")
		}
	default:
		return fmt.Errorf("blob.driver must be \"fs\", \"s3\" or \"redis\", got %q", c.Blob.Driver)
	}
	for d, tags := range c.Denylist {
		for _, t := range tags {
			if strings.TrimSpace(t) == "" {
				return fmt.Errorf("denylist.%s contains an empty tag", d)
			}
		}
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

	// 3. Fallback to ./config/
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
