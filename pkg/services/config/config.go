// Package config resolves runtime settings from defaults, an optional ini
// profile, the environment (optionally seeded from a dotenv file) and flags,
// in increasing order of precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyDatabaseURL = "database_url"
	KeyMaxConns    = "max_conns"
	KeyConcurrency = "concurrency"
	KeyLogLevel    = "log_level"
	KeyTimeout     = "timeout"
	KeyServerHost  = "server_host"
	KeyServerPort  = "server_port"
)

const (
	DefaultMaxConns    = 20
	DefaultConcurrency = 10
	DefaultLogLevel    = "warn"
)

var ErrMissingDatabaseURL = errors.New("database_url is not set (use DATABASE_URL, a profile or --database-url)")

type Config struct {
	DatabaseURL string
	MaxConns    int
	Concurrency int
	LogLevel    zerolog.Level
	Timeout     time.Duration
	ServerHost  string
	ServerPort  string
}

// Sources names the optional files consulted before the environment.
type Sources struct {
	EnvFile  string
	Profiles string
	Profile  string
}

type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyMaxConns, DefaultMaxConns)
	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyTimeout, time.Duration(0))
	v.SetDefault(KeyServerHost, "")
	v.SetDefault(KeyServerPort, "")
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlags lets flags override every other source. Flag names use dashes
// where keys use underscores; flags absent from the set are skipped.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{
		KeyDatabaseURL, KeyMaxConns, KeyConcurrency, KeyLogLevel, KeyTimeout, KeyServerHost, KeyServerPort,
	} {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

func (l *Loader) Load(ctx context.Context, src Sources) (Config, error) {
	logger := zerolog.Ctx(ctx)

	if src.EnvFile != "" {
		if err := godotenv.Load(src.EnvFile); err != nil {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", src.EnvFile, err)
		}
		logger.Debug().Str("file", src.EnvFile).Msg("loaded env file")
	}

	if src.Profile != "" {
		if src.Profiles == "" {
			return Config{}, fmt.Errorf("profile %s requested without a profiles file", src.Profile)
		}
		registry, err := NewRegistry(src.Profiles)
		if err != nil {
			return Config{}, err
		}
		values, err := registry.GetProfile(ctx, src.Profile)
		if err != nil {
			return Config{}, err
		}
		if err := l.v.MergeConfigMap(values); err != nil {
			return Config{}, fmt.Errorf("failed to apply profile %s: %w", src.Profile, err)
		}
		logger.Debug().Str("profile", src.Profile).Msg("loaded profile")
	}

	level, err := zerolog.ParseLevel(l.v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := Config{
		DatabaseURL: l.v.GetString(KeyDatabaseURL),
		MaxConns:    l.v.GetInt(KeyMaxConns),
		Concurrency: l.v.GetInt(KeyConcurrency),
		LogLevel:    level,
		Timeout:     l.v.GetDuration(KeyTimeout),
		ServerHost:  l.v.GetString(KeyServerHost),
		ServerPort:  l.v.GetString(KeyServerPort),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max_conns must be positive, got %d", c.MaxConns)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
