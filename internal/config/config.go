// Package config loads the service configuration from cmd/app/config.yml,
// with every key overridable from the environment (api.port -> API_PORT).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DefaultChecksumSecret = "change-me-checksum-secret"
	minProductionSecret   = 32
)

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Tickets   *TicketsConfig   `mapstructure:"tickets"`
	Artifacts *ArtifactsConfig `mapstructure:"artifacts"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	Metrics   *MetricsConfig   `mapstructure:"metrics"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	LogLevel           string   `mapstructure:"log_level"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	// PrincipalSigningKey verifies the HS256 tokens minted by the account service.
	PrincipalSigningKey string `mapstructure:"principal_signing_key"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DB           string `mapstructure:"db"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type TicketsConfig struct {
	ChecksumSecret  string `mapstructure:"checksum_secret"`
	CodeLength      int    `mapstructure:"code_length"`
	MaxCodeAttempts int    `mapstructure:"max_code_attempts"`
	QRSize          int    `mapstructure:"qr_size"`
}

type ArtifactsConfig struct {
	Driver    string   `mapstructure:"driver"`
	LocalDir  string   `mapstructure:"local_dir"`
	PublicURL string   `mapstructure:"public_url"`
	S3        S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint       string `mapstructure:"endpoint"`
	PublicEndpoint string `mapstructure:"public_endpoint"`
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	SSLDisabled    bool   `mapstructure:"ssl_disabled"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	FeedChannel string `mapstructure:"feed_channel"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", EnvDevelopment)
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.log_level", "info")
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:3000"})
	v.SetDefault("api.principal_signing_key", "")

	v.SetDefault("gin.mode", "debug")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.db", "ceremony_tickets")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 25)
	v.SetDefault("postgres.max_idle_conns", 5)

	v.SetDefault("tickets.checksum_secret", DefaultChecksumSecret)
	v.SetDefault("tickets.code_length", 10)
	v.SetDefault("tickets.max_code_attempts", 10)
	v.SetDefault("tickets.qr_size", 300)

	v.SetDefault("artifacts.driver", "local")
	v.SetDefault("artifacts.local_dir", "storage")
	v.SetDefault("artifacts.public_url", "")
	v.SetDefault("artifacts.s3.endpoint", "")
	v.SetDefault("artifacts.s3.public_endpoint", "")
	v.SetDefault("artifacts.s3.region", "us-east-1")
	v.SetDefault("artifacts.s3.bucket", "")
	v.SetDefault("artifacts.s3.access_key", "")
	v.SetDefault("artifacts.s3.secret_key", "")
	v.SetDefault("artifacts.s3.ssl_disabled", false)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.feed_channel", "gate-feed")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return v
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var conf AppConfig
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &conf, nil
}

// Load reads the config file at path. A missing file leaves the defaults and
// environment in effect.
func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return decode(v)
}

// Watch calls onChange with the reloaded configuration whenever the file at
// path changes. Invalid edits are reported through onError and ignored.
func Watch(path string, onChange func(*AppConfig), onError func(error)) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		onError(fmt.Errorf("v.ReadInConfig -> %w", err))
		return
	}

	v.OnConfigChange(func(fsnotify.Event) {
		conf, err := decode(v)
		if err != nil {
			onError(err)
			return
		}
		onChange(conf)
	})
	v.WatchConfig()
}

func (c *AppConfig) IsProduction() bool {
	return c.API != nil && (c.API.Environment == EnvProduction || c.API.Environment == "prod")
}

// Validate rejects configurations the service cannot run with.
func (c *AppConfig) Validate() error {
	if c.API == nil || c.API.Port == "" {
		return errors.New("api.port is required")
	}
	if c.Tickets == nil || c.Tickets.ChecksumSecret == "" {
		return errors.New("tickets.checksum_secret is required")
	}
	if c.Tickets.CodeLength < 6 {
		return errors.New("tickets.code_length must be at least 6")
	}
	if c.Tickets.MaxCodeAttempts < 1 {
		return errors.New("tickets.max_code_attempts must be at least 1")
	}
	if c.Artifacts != nil && c.Artifacts.Driver == "s3" && c.Artifacts.S3.Bucket == "" {
		return errors.New("artifacts.s3.bucket is required for the s3 driver")
	}

	if c.IsProduction() {
		if c.Tickets.ChecksumSecret == DefaultChecksumSecret {
			return errors.New("tickets.checksum_secret must be changed from the default value in production")
		}
		if len(c.Tickets.ChecksumSecret) < minProductionSecret {
			return fmt.Errorf("tickets.checksum_secret must be at least %d characters in production", minProductionSecret)
		}
		if c.API.PrincipalSigningKey == "" {
			return errors.New("api.principal_signing_key is required in production")
		}
	}

	return nil
}
