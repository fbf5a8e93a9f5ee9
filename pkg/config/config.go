package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// envPrefix is stripped from environment variables before they are merged into
// the config tree, e.g. TALEWEAVE_SERVER_PORT -> server.port.
const envPrefix = "TALEWEAVE_"

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type DatabaseConfig struct {
	FilePath          string        `koanf:"file_path"`
	Debug             bool          `koanf:"debug"`
	ConnectRetryCount int           `koanf:"connect_retry_count"`
	ConnectRetryDelay time.Duration `koanf:"connect_retry_delay"`
	BusyTimeout       time.Duration `koanf:"busy_timeout"`
	MaxRetries        int           `koanf:"max_retries"`
}

type AuthConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`
}

type StripeConfig struct {
	SecretKey     string `koanf:"secret_key"`
	WebhookSecret string `koanf:"webhook_secret"`
}

type MailConfig struct {
	APIKey string `koanf:"api_key"`
	From   string `koanf:"from"`
}

type AIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type UploadsConfig struct {
	Dir           string `koanf:"dir"`
	ObjectStorage struct {
		Enabled   bool   `koanf:"enabled"`
		Endpoint  string `koanf:"endpoint"`
		AccessKey string `koanf:"access_key"`
		SecretKey string `koanf:"secret_key"`
		Bucket    string `koanf:"bucket"`
		UseSSL    bool   `koanf:"use_ssl"`
	} `koanf:"object_storage"`
}

type Config struct {
	Environment string         `koanf:"environment"`
	Hostname    string         `koanf:"-"`
	BaseURL     string         `koanf:"base_url"`
	ClientURL   string         `koanf:"client_url"`
	Server      ServerConfig   `koanf:"server"`
	Database    DatabaseConfig `koanf:"database"`
	Auth        AuthConfig     `koanf:"auth"`
	Stripe      StripeConfig   `koanf:"stripe"`
	Mail        MailConfig     `koanf:"mail"`
	AI          AIConfig       `koanf:"ai"`
	Uploads     UploadsConfig  `koanf:"uploads"`
}

// New builds the config from defaults, an optional YAML file pointed to by
// CONFIG_FILE, and TALEWEAVE_-prefixed environment variables, in that order of
// precedence. Everything is read once at process start.
func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := defaultConfig()
	cfg.Hostname = hostname

	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, "load config file")
		}
	}

	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{
		Environment: "development",
		BaseURL:     "http://localhost:4000",
		ClientURL:   "http://localhost:3000",
	}

	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 4000

	cfg.Database.FilePath = "./tmp/data.sqlite"
	cfg.Database.ConnectRetryCount = 5
	cfg.Database.ConnectRetryDelay = 2 * time.Second
	cfg.Database.BusyTimeout = 5 * time.Second
	cfg.Database.MaxRetries = 3

	cfg.Auth.AccessTokenTTL = 24 * time.Hour
	cfg.Auth.RefreshTokenTTL = 72 * time.Hour

	cfg.AI.Timeout = 30 * time.Second

	cfg.Uploads.Dir = "./tmp/uploads"

	return cfg
}
