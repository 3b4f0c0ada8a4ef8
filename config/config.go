// Package config loads service settings: built-in defaults, then an optional
// YAML file, then environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv      string          `yaml:"appEnv"`
	Port        string          `yaml:"port"`
	Database    DatabaseConfig  `yaml:"database"`
	RedisURL    string          `yaml:"redisUrl"`
	JWTSecret   string          `yaml:"jwtSecret"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	Sync        SyncConfig      `yaml:"sync"`
	CacheTTL    time.Duration   `yaml:"filterCacheTTL"`
	RateLimit   RateLimitConfig `yaml:"rateLimit"`
	CORSOrigins []string        `yaml:"corsOrigins"`
	Log         LogConfig       `yaml:"log"`
}

// DatabaseConfig: URL wins over the discrete fields when set.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}

// KafkaConfig: no brokers means product events are applied inline.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ProductTopic  string   `yaml:"productTopic"`
	ConsumerGroup string   `yaml:"consumerGroup"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type SyncConfig struct {
	Concurrency int `yaml:"concurrency"`
	BatchSize   int `yaml:"batchSize"`
}

type RateLimitConfig struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads path (skipped when empty) over the defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		AppEnv: "development",
		Port:   "8081",
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "modeva_cms_backend",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			ProductTopic:  "catalog.product-events",
			ConsumerGroup: "modeva-catalog-filters",
		},
		Sync: SyncConfig{
			Concurrency: 8,
			BatchSize:   200,
		},
		CacheTTL: 5 * time.Minute,
		RateLimit: RateLimitConfig{
			Max:    100,
			Window: time.Minute,
		},
		CORSOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.AppEnv, "APP_ENV")
	setString(&cfg.Port, "PORT")
	setString(&cfg.Database.URL, "CMS_DB_URL")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Name, "DB_NAME")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setList(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Kafka.ProductTopic, "KAFKA_PRODUCT_TOPIC")
	setString(&cfg.Kafka.ConsumerGroup, "KAFKA_CONSUMER_GROUP")
	setList(&cfg.CORSOrigins, "CORS_ORIGINS")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	if err := setInt(&cfg.Sync.Concurrency, "SYNC_CONCURRENCY"); err != nil {
		return err
	}
	if err := setInt(&cfg.Sync.BatchSize, "SYNC_BATCH_SIZE"); err != nil {
		return err
	}
	if err := setInt(&cfg.RateLimit.Max, "RATE_LIMIT_MAX"); err != nil {
		return err
	}
	if err := setDuration(&cfg.CacheTTL, "FILTER_CACHE_TTL"); err != nil {
		return err
	}
	return setDuration(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	*dst = d
	return nil
}

// WithTimeout returns a context with a 10s timeout (bumped from 5s for Neon cold starts)
func WithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
