package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// StorageDriverDisk keeps uploads in a flat local directory.
	StorageDriverDisk = "disk"
	// StorageDriverMinIO keeps uploads in an S3-compatible bucket.
	StorageDriverMinIO = "minio"

	// OriginPolicyStatic builds URLs from APP_SCHEME, APP_HOST and PORT.
	OriginPolicyStatic = "static"
	// OriginPolicyForwarded builds URLs from X-Forwarded-* headers, falling back to the request itself.
	OriginPolicyForwarded = "forwarded"
)

// DatabaseConfig holds PostgreSQL settings for the optional upload audit ledger.
// The ledger is disabled when Host is empty.
type DatabaseConfig struct {
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"sslmode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
}

// Enabled reports whether the audit ledger should be wired.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// StorageConfig selects and configures the backend holding uploaded bytes.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
}

// AppConfig is the centralized configuration struct for the application.
// It is built once at startup and passed to the components that need it.
type AppConfig struct {
	AppHost        string         `yaml:"app_host"`
	AppScheme      string         `yaml:"app_scheme"`
	Port           string         `yaml:"port"`
	OriginPolicy   string         `yaml:"origin_policy"`
	MaxUploadBytes int64          `yaml:"max_upload_bytes"`
	LogTimezone    string         `yaml:"log_timezone"`
	MetricsEnabled bool           `yaml:"metrics_enabled"`
	Storage        StorageConfig  `yaml:"storage"`
	Database       DatabaseConfig `yaml:"database"`
	MinIO          MinIOConfig    `yaml:"minio"`
}

// Default returns the configuration used when nothing is set.
func Default() *AppConfig {
	return &AppConfig{
		AppHost:        "localhost",
		AppScheme:      "http",
		Port:           "3000",
		OriginPolicy:   OriginPolicyForwarded,
		MaxUploadBytes: 100 << 20,
		LogTimezone:    "UTC",
		MetricsEnabled: true,
		Storage: StorageConfig{
			Driver: StorageDriverDisk,
			Dir:    "uploads",
		},
		Database: DatabaseConfig{
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by CONFIG_PATH,
// and environment variables, in that order of precedence (environment wins).
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() (*AppConfig, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.AppHost = getEnv("APP_HOST", cfg.AppHost)
	cfg.AppScheme = getEnv("APP_SCHEME", cfg.AppScheme)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.OriginPolicy = getEnv("ORIGIN_POLICY", cfg.OriginPolicy)
	cfg.MaxUploadBytes = getEnvInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.LogTimezone = getEnv("LOG_TIMEZONE", cfg.LogTimezone)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Dir = getEnv("STORAGE_DIR", cfg.Storage.Dir)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", cfg.Database.ConnMaxLifetimeSec)

	cfg.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", cfg.MinIO.Endpoint)
	cfg.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIO.AccessKey)
	cfg.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIO.SecretKey)
	cfg.MinIO.Bucket = getEnv("MINIO_BUCKET", cfg.MinIO.Bucket)
	cfg.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", cfg.MinIO.UseSSL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that cannot be wired at startup.
func (c *AppConfig) Validate() error {
	switch c.OriginPolicy {
	case OriginPolicyStatic, OriginPolicyForwarded:
	default:
		return fmt.Errorf("unknown origin policy %q", c.OriginPolicy)
	}
	switch c.Storage.Driver {
	case StorageDriverDisk:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage dir is required for the disk driver")
		}
	case StorageDriverMinIO:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	return nil
}

// Location returns the time zone used for log timestamps, UTC if the name is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.LogTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
