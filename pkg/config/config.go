// Package config loads argdump settings from TOML.
//
// A missing field keeps its default, so an empty file is a valid
// configuration:
//
//	strict = false
//	[store]
//	backend = "redis"
//	[store.redis]
//	addr = "cache:6379"
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/argdump/internal/logging"
	"github.com/matzehuels/argdump/pkg/cache"
	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/grammar"
	"github.com/matzehuels/argdump/pkg/store"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNull   = "null"
)

// Config holds codec and store settings.
type Config struct {
	Strict     bool        `toml:"strict"`
	MaxDepth   int         `toml:"max_depth"`
	IncludeEnv bool        `toml:"include_env"`
	SchemaURL  string      `toml:"schema_url"`
	LogLevel   string      `toml:"log_level"`
	Store      StoreConfig `toml:"store"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	Prefix  string        `toml:"prefix"`
	Redis   RedisConfig   `toml:"redis"`
	Mongo   MongoConfig   `toml:"mongo"`
}

// RedisConfig is the [store.redis] table, used when the backend is "redis".
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig is the [store.mongo] table, used when the backend is "mongo".
// Expired documents are purged through a TTL index on the collection.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Strict:    true,
		MaxDepth:  grammar.DefaultMaxDepth,
		SchemaURL: grammar.SchemaURL,
		LogLevel:  "info",
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     "~/.cache/argdump",
			TTL:     24 * time.Hour,
			Redis:   RedisConfig{Addr: "localhost:6379"},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "argdump",
				Collection: "grammars",
			},
		},
	}
}

// Load reads the file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field ranges and the settings the chosen backend needs.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_depth must not be negative, got %d", c.MaxDepth)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log_level %q", c.LogLevel)
	}
	s := c.Store
	if s.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "store.ttl must not be negative")
	}
	switch s.Backend {
	case BackendFile:
		if s.Dir == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.dir is required for the file backend")
		}
	case BackendRedis:
		if s.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.redis.addr is required for the redis backend")
		}
	case BackendMongo:
		if s.Mongo.URI == "" || s.Mongo.Database == "" || s.Mongo.Collection == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.mongo needs uri, database and collection")
		}
	case BackendMemory, BackendNull:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", s.Backend)
	}
	return nil
}

// Logger builds a logger at the configured level.
func (c *Config) Logger() *log.Logger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return logging.New(os.Stderr, level)
}

// CodecOptions maps the codec settings onto grammar options. The caller
// fills in Registry, Enums and Logger.
func (c *Config) CodecOptions() grammar.Options {
	return grammar.Options{
		Lenient:    !c.Strict,
		MaxDepth:   c.MaxDepth,
		IncludeEnv: c.IncludeEnv,
		SchemaURL:  c.SchemaURL,
	}
}

// OpenCache connects the configured backend and instruments it.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	s := c.Store
	var (
		backend cache.Cache
		err     error
	)
	switch s.Backend {
	case BackendFile:
		dir, derr := expandHome(s.Dir)
		if derr != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, derr, "store.dir %q", s.Dir)
		}
		backend, err = cache.NewFileCache(dir)
	case BackendMemory:
		backend = cache.NewMemoryCache(0)
	case BackendRedis:
		backend, err = cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
		})
	case BackendMongo:
		backend, err = cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        s.Mongo.URI,
			Database:   s.Mongo.Database,
			Collection: s.Mongo.Collection,
		})
	case BackendNull:
		backend = cache.NewNullCache()
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", s.Backend)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open %s store", s.Backend)
	}
	logging.FromContext(ctx).Debug("opened cache", "backend", s.Backend)
	return cache.Instrument(backend, s.Backend), nil
}

// OpenStore opens the configured cache and wraps it in a document store
// using codec. A nil codec is built from CodecOptions.
func (c *Config) OpenStore(ctx context.Context, codec *grammar.Codec) (*store.Store, error) {
	backend, err := c.OpenCache(ctx)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = grammar.NewCodec(c.CodecOptions())
	}
	var keyer cache.Keyer
	if c.Store.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.Store.Prefix)
	}
	return store.New(backend, store.Options{Codec: codec, Keyer: keyer, TTL: c.Store.TTL}), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
