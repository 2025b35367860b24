// Package config provides unified configuration for the arrestview service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv.
const EnvPrefix = "ARRESTVIEW_"

// Config holds the unified configuration for the arrestview service.
type Config struct {
	// Env selects the logging profile: prod, local, dev or docker
	Env string `json:"env" yaml:"env"`

	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Query core configuration
	Query QueryConfig `json:"query" yaml:"query"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the HTTP listen address
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout; it must cover a full multi-year filter
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout bounds the wait for in-flight requests on shutdown
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// AllowedOrigins lists the CORS origins; "*" allows any origin
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// QueryConfig holds query core configuration.
type QueryConfig struct {
	// Workers is the maximum number of partitions loaded at once, process-wide
	Workers int `json:"workers" yaml:"workers"`

	// PartitionTimeout bounds a single partition download and decode
	PartitionTimeout time.Duration `json:"partition_timeout" yaml:"partition_timeout"`

	// DownloadDir is the directory for partitions being decoded
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// StatsWindow is how long filter usage statistics are kept
	StatsWindow time.Duration `json:"stats_window" yaml:"stats_window"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// Prefix is prepended to every partition object name
	Prefix string `json:"prefix" yaml:"prefix"`

	// ObjectTemplate names a yearly partition; %d is replaced by the year
	ObjectTemplate string `json:"object_template" yaml:"object_template"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (required for MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`

	// MaxRetries is the number of retries after a failed request
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level overrides the profile's level: debug, info, warn, error
	Level string `json:"level" yaml:"level"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Env:     "local",
		DataDir: "./data/arrestview",
		HTTP: HTTPConfig{
			Addr:            ":5000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Query: QueryConfig{
			Workers:          8,
			PartitionTimeout: 60 * time.Second,
			DownloadDir:      "",
			StatsWindow:      time.Hour,
		},
		Storage: StorageConfig{
			Type:           "local",
			Path:           "",
			ObjectTemplate: "nypd_cleaned_%d.parquet",
			S3: S3Config{
				Bucket:     "608project",
				Region:     "us-east-1",
				MaxRetries: 3,
			},
		},
		Logging: LoggingConfig{
			Level: "",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/arrestview"
	}

	// Resolve storage path
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}

	// Resolve query paths
	if c.Query.DownloadDir == "" {
		c.Query.DownloadDir = filepath.Join(c.DataDir, "downloads")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Env {
	case "prod", "local", "dev", "docker":
		// Valid environments
	default:
		return fmt.Errorf("invalid env: %s (must be prod, local, dev, or docker)", c.Env)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if strings.Count(c.Storage.ObjectTemplate, "%d") != 1 || strings.Count(c.Storage.ObjectTemplate, "%") != 1 {
		return fmt.Errorf("storage.object_template must contain exactly one %%d verb, got %q", c.Storage.ObjectTemplate)
	}

	if c.Query.Workers < 1 {
		return fmt.Errorf("query.workers must be at least 1, got %d", c.Query.Workers)
	}

	if c.Query.PartitionTimeout <= 0 {
		return fmt.Errorf("query.partition_timeout must be positive, got %s", c.Query.PartitionTimeout)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the ARRESTVIEW_ prefix. Malformed numeric and
// duration values are ignored.
func LoadFromEnv(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	boolean := func(name string, dst *bool) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	str("ENV", &cfg.Env)
	str("DATA_DIR", &cfg.DataDir)

	// HTTP configuration
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	dur("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	dur("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)
	dur("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout)
	dur("HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)
	if v := os.Getenv(EnvPrefix + "HTTP_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.HTTP.AllowedOrigins = origins
	}

	// Query configuration
	num("QUERY_WORKERS", &cfg.Query.Workers)
	dur("QUERY_PARTITION_TIMEOUT", &cfg.Query.PartitionTimeout)
	str("QUERY_DOWNLOAD_DIR", &cfg.Query.DownloadDir)
	dur("QUERY_STATS_WINDOW", &cfg.Query.StatsWindow)

	// Storage configuration
	str("STORAGE_TYPE", &cfg.Storage.Type)
	str("STORAGE_PATH", &cfg.Storage.Path)
	str("STORAGE_PREFIX", &cfg.Storage.Prefix)
	str("STORAGE_OBJECT_TEMPLATE", &cfg.Storage.ObjectTemplate)
	str("S3_BUCKET", &cfg.Storage.S3.Bucket)
	str("S3_REGION", &cfg.Storage.S3.Region)
	str("S3_ENDPOINT", &cfg.Storage.S3.Endpoint)
	boolean("S3_USE_PATH_STYLE", &cfg.Storage.S3.UsePathStyle)
	num("S3_MAX_RETRIES", &cfg.Storage.S3.MaxRetries)

	// Logging configuration
	str("LOG_LEVEL", &cfg.Logging.Level)
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Query.DownloadDir,
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
