package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the service. Load fills defaults first, then
// the YAML file, then environment overrides.
type Config struct {
	HTTP      HTTPConfig     `yaml:"http"`
	Database  DatabaseConfig `yaml:"database"`
	Auth      AuthConfig     `yaml:"auth"`
	Cache     CacheConfig    `yaml:"cache"`
	Kafka     KafkaConfig    `yaml:"kafka"`
	Snapshots SnapshotConfig `yaml:"snapshots"`
	Uploads   UploadsConfig  `yaml:"uploads"`
	Log       LogConfig      `yaml:"log"`
	Import    ImportConfig   `yaml:"import"`
}

type HTTPConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
	BodyLimitMB  int      `yaml:"body_limit_mb"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	// LogLevel controls the gorm logger: silent, error, warn, info.
	LogLevel string `yaml:"log_level"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	Issuer        string        `yaml:"issuer"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
}

type CacheConfig struct {
	// Engine is "memory" or "redis".
	Engine    string        `yaml:"engine"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
	MaxItems  int           `yaml:"max_items"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether change events should also go to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type SnapshotConfig struct {
	// Schedule is a cron spec; empty disables the snapshot job.
	Schedule  string `yaml:"schedule"`
	Retention int    `yaml:"retention"`
}

type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ImportConfig struct {
	MaxRows int `yaml:"max_rows"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:         ":3000",
			AllowOrigins: []string{"*"},
			BodyLimitMB:  8,
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      "database.db",
			LogLevel: "warn",
		},
		Auth: AuthConfig{
			TokenTTL:   12 * time.Hour,
			Issuer:     "initiativehub",
			BcryptCost: 12,
		},
		Cache: CacheConfig{
			Engine:   "memory",
			TTL:      5 * time.Minute,
			MaxItems: 1000,
		},
		Kafka: KafkaConfig{
			Topic: "initiativehub.changes",
		},
		Snapshots: SnapshotConfig{
			Schedule:  "@every 1h",
			Retention: 168,
		},
		Uploads: UploadsConfig{Dir: "uploads"},
		Log:     LogConfig{Level: "info", Format: "json"},
		Import:  ImportConfig{MaxRows: 2000},
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() {
	if v := os.Getenv("IH_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("IH_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("IH_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("IH_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("IH_REDIS_ADDR"); v != "" {
		c.Cache.Engine = "redis"
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("IH_KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
	if v := os.Getenv("IH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the settings that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	switch c.Cache.Engine {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis engine"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.engine %q is not supported", c.Cache.Engine))
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Snapshots.Retention < 0 {
		errs = append(errs, errors.New("snapshots.retention cannot be negative"))
	}
	if c.Import.MaxRows <= 0 {
		errs = append(errs, errors.New("import.max_rows must be positive"))
	}

	return errors.Join(errs...)
}
