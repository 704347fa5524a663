package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides, e.g. REMOTEDEV_REDIS_ADDR.
const EnvPrefix = "REMOTEDEV_"

// ServeConfig configures the collector server.
type ServeConfig struct {
	Addr        string      `koanf:"addr"`
	Store       string      `koanf:"store"`
	MaxRecords  int         `koanf:"max_records"`
	MaxBodySize int64       `koanf:"max_body_size"`
	Tracing     bool        `koanf:"tracing"`
	Dir         string      `koanf:"dir"`
	Redis       RedisConfig `koanf:"redis"`
}

// RedisConfig selects the Redis backend.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl"`
}

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

var defaults = map[string]any{
	"addr":        ":8000",
	"store":       StoreMemory,
	"max_records": 1000,
	"redis.addr":  "localhost:6379",
}

// LoadServeConfig merges defaults, the optional YAML file at path and
// REMOTEDEV_ environment variables, in that order. A single underscore
// separates nesting levels, so REMOTEDEV_REDIS_ADDR sets redis.addr.
func LoadServeConfig(path string) (*ServeConfig, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg ServeConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps REMOTEDEV_REDIS_ADDR to redis.addr and REMOTEDEV_MAX_RECORDS
// to max_records.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "redis_"); ok {
		return "redis." + rest
	}
	return key
}

// Validate checks the store selection.
func (c *ServeConfig) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis store requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown store %q (want %q, %q or %q)", c.Store, StoreMemory, StoreFile, StoreRedis)
	}
	return nil
}
