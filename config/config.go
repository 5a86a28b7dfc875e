package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Session    SessionConfig    `mapstructure:"session"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"` // debug, release, test
	TLSDomains     []string `mapstructure:"tls_domains"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// RedisConfig Addr 为空时使用进程内缓存
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
	Store  string `mapstructure:"store"` // cookie, db
	MaxAge int    `mapstructure:"max_age"`
	Secure bool   `mapstructure:"secure"`
}

type StorageConfig struct {
	Driver    string   `mapstructure:"driver"` // disk, s3
	Path      string   `mapstructure:"path"`
	URLPrefix string   `mapstructure:"url_prefix"`
	S3        S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type CacheConfig struct {
	IndexTTL time.Duration `mapstructure:"index_ttl"`
}

type PaginationConfig struct {
	PostsPerPage int `mapstructure:"posts_per_page"`
}

type AuthConfig struct {
	ResetSecret  string        `mapstructure:"reset_secret"`
	ResetTTL     time.Duration `mapstructure:"reset_ttl"`
	RateLimit    float64       `mapstructure:"rate_limit"` // 每秒允许的 POST 次数（按 IP）
	RateBurst    int           `mapstructure:"rate_burst"`
	ThumbWorkers int           `mapstructure:"thumb_workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type SentryConfig struct {
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

// Load 读取配置：config.yaml + YATUBE_* 环境变量
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("YATUBE_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("YATUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回只包含默认值的配置（测试与工具使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "disk", "s3":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "s3" && c.Storage.S3.Bucket == "" {
		return errors.New("storage.s3.bucket is required for s3 storage")
	}
	switch c.Session.Store {
	case "cookie", "db":
	default:
		return fmt.Errorf("unsupported session store %q", c.Session.Store)
	}
	if c.Pagination.PostsPerPage <= 0 {
		return errors.New("pagination.posts_per_page must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.tls_domains", []string{})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "yatube.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.name", "yatube_session")
	v.SetDefault("session.secret", "change-me-in-production")
	v.SetDefault("session.store", "cookie")
	v.SetDefault("session.max_age", 14*24*3600)
	v.SetDefault("session.secure", false)

	v.SetDefault("storage.driver", "disk")
	v.SetDefault("storage.path", "media")
	v.SetDefault("storage.url_prefix", "/media/")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("cache.index_ttl", 20*time.Second)

	v.SetDefault("pagination.posts_per_page", 10)

	v.SetDefault("auth.reset_secret", "change-me-too")
	v.SetDefault("auth.reset_ttl", time.Hour)
	v.SetDefault("auth.rate_limit", 1.0)
	v.SetDefault("auth.rate_burst", 10)
	v.SetDefault("auth.thumb_workers", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "yatube")
	v.SetDefault("tracing.insecure", true)
}
