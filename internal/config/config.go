// Package config loads server configuration from defaults, an optional YAML
// file, a .env file and MEYDAN_* environment variables, in increasing order
// of precedence.
//
// Every key is nested, and the environment name is the key upper-cased with
// dots replaced by underscores:
//
//	server.port         → MEYDAN_SERVER_PORT
//	messaging.auto_reply → MEYDAN_MESSAGING_AUTO_REPLY
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "MEYDAN"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	Confirm   ConfirmConfig   `mapstructure:"confirm"`
	Enhance   EnhanceConfig   `mapstructure:"enhance"`
	Share     ShareConfig     `mapstructure:"share"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// SeedConfig adds generated users on top of the fixed seed. FakeSeed 0 means
// a different population every start.
type SeedConfig struct {
	FakeUsers int    `mapstructure:"fake_users"`
	FakeSeed  uint64 `mapstructure:"fake_seed"`
}

type FeedConfig struct {
	DateLocale string `mapstructure:"date_locale"`
	Timezone   string `mapstructure:"timezone"`
}

type MessagingConfig struct {
	AutoReply      bool          `mapstructure:"auto_reply"`
	AutoReplyDelay time.Duration `mapstructure:"auto_reply_delay"`
	AutoReplyText  string        `mapstructure:"auto_reply_text"`
}

type ConfirmConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// EnhanceConfig configures the Gemini client. An empty APIKey disables
// enhancement; drafts are then returned unchanged.
type EnhanceConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "file:meydan?mode=memory&cache=shared")
	v.SetDefault("seed.fake_users", 0)
	v.SetDefault("seed.fake_seed", 0)
	v.SetDefault("feed.date_locale", "ar-EG")
	v.SetDefault("feed.timezone", "Local")
	v.SetDefault("messaging.auto_reply", false)
	v.SetDefault("messaging.auto_reply_delay", 3*time.Second)
	v.SetDefault("messaging.auto_reply_text", "شكراً لرسالتك، سأرد عليك قريباً!")
	v.SetDefault("confirm.ttl", 5*time.Minute)
	v.SetDefault("enhance.api_key", "")
	v.SetDefault("enhance.model", "gemini-2.5-flash")
	v.SetDefault("enhance.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("enhance.timeout", 15*time.Second)
	v.SetDefault("share.base_url", "http://localhost:8080")
}

// Load reads configuration. path names an optional YAML file; when empty,
// ./meydan.yaml is used if it exists. A .env file in the working directory
// is loaded into the environment first and never overrides variables that
// are already set.
func Load(path string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("meydan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json, pretty", c.Log.Format))
	}
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, sqlite", c.Store.Driver))
	}
	switch c.Feed.DateLocale {
	case "ar-EG", "en-US":
	default:
		errs = append(errs, fmt.Errorf("feed.date_locale %q is not one of ar-EG, en-US", c.Feed.DateLocale))
	}
	if _, err := time.LoadLocation(c.Feed.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("feed.timezone: %w", err))
	}
	if c.Seed.FakeUsers < 0 {
		errs = append(errs, errors.New("seed.fake_users cannot be negative"))
	}
	if c.Confirm.TTL < 0 {
		errs = append(errs, errors.New("confirm.ttl cannot be negative"))
	}
	if c.Messaging.AutoReply && c.Messaging.AutoReplyDelay < 0 {
		errs = append(errs, errors.New("messaging.auto_reply_delay cannot be negative"))
	}

	return errors.Join(errs...)
}

// Location returns the zone post dates are formatted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Feed.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
