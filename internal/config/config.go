package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dukerupert/tandem/internal/push"
	"github.com/dukerupert/tandem/internal/reminder"
)

// EnvPrefix marks environment overrides: TANDEM_SERVER_PORT sets server.port.
const EnvPrefix = "TANDEM_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Auth      AuthConfig      `koanf:"auth"`
	Email     EmailConfig     `koanf:"email"`
	Push      PushConfig      `koanf:"push"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Dispatch  DispatchConfig  `koanf:"dispatch"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	BaseURL         string        `koanf:"base_url"`
	AllowedOrigins  []string      `koanf:"allowed_origins"` // websocket origin patterns
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type AuthConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	Issuer         string        `koanf:"issuer"`
	TokenTTL       time.Duration `koanf:"token_ttl"`
	LoginPerMinute int           `koanf:"login_per_minute"`
}

type EmailConfig struct {
	PostmarkToken string `koanf:"postmark_token"`
	From          string `koanf:"from"`
}

type PushConfig struct {
	VAPIDPublicKey  string `koanf:"vapid_public_key"`
	VAPIDPrivateKey string `koanf:"vapid_private_key"`
	Subject         string `koanf:"subject"`
	TTL             int    `koanf:"ttl"`
}

// Enabled reports whether a VAPID key pair is configured.
func (p PushConfig) Enabled() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != ""
}

type SchedulerConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Timezone string `koanf:"timezone"`
	DailyAt  string `koanf:"daily_at"`
}

type DispatchConfig struct {
	Concurrency int `koanf:"concurrency"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Load layers defaults, the optional YAML file at configPath, and TANDEM_
// environment variables, in that order.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// envKey maps TANDEM_PUSH_VAPID_PUBLIC_KEY to push.vapid_public_key. Only the
// first underscore separates section from key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + key
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required (set TANDEM_AUTH_JWT_SECRET)"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		errs = append(errs, errors.New("push.vapid_public_key and push.vapid_private_key must be set together"))
	} else if c.Push.Enabled() {
		if err := push.ValidateVAPIDKeys(c.Push.VAPIDPublicKey, c.Push.VAPIDPrivateKey); err != nil {
			errs = append(errs, fmt.Errorf("push: %w", err))
		}
	}
	if c.Email.PostmarkToken != "" && c.Email.From == "" {
		errs = append(errs, errors.New("email.from is required when email.postmark_token is set"))
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.timezone: %w", err))
	}
	if _, _, err := reminder.ParseDailyAt(c.Scheduler.DailyAt); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.daily_at: %w", err))
	}
	if c.Dispatch.Concurrency < 0 {
		errs = append(errs, errors.New("dispatch.concurrency must not be negative"))
	}

	return errors.Join(errs...)
}

// Location returns the scheduler time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
