package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/address-classifier/internal/classifier"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port           string        `yaml:"port" json:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

type ParserConfig struct {
	MaxBranches  int    `yaml:"max_branches" json:"max_branches"`
	UseLibpostal bool   `yaml:"use_libpostal" json:"use_libpostal"`
	Format       string `yaml:"format" json:"format"`
	// TypesDB is an optional SQLite database with a socrbase table.
	TypesDB string `yaml:"types_db" json:"types_db"`
}

type ClassifierConfig struct {
	// Backend is "memory" or "meili". Data is a YAML object file, "mongo",
	// or empty for the embedded sample.
	Backend   string                 `yaml:"backend" json:"backend"`
	Data      string                 `yaml:"data" json:"data"`
	Version   string                 `yaml:"version" json:"version"`
	CacheSize int                    `yaml:"cache_size" json:"cache_size"`
	Meili     classifier.MeiliConfig `yaml:"meili" json:"meili"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" json:"uri"`
	Database string `yaml:"database" json:"database"`
}

type RedisConfig struct {
	URL    string `yaml:"url" json:"url"`
	Prefix string `yaml:"prefix" json:"prefix"`
}

type CacheConfig struct {
	// Backend is "none", "memory", "redis", "mongo" or "hybrid".
	Backend string        `yaml:"backend" json:"backend"`
	L1Size  int           `yaml:"l1_size" json:"l1_size"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

type JobsConfig struct {
	Workers      int           `yaml:"workers" json:"workers"`
	TTL          time.Duration `yaml:"ttl" json:"ttl"`
	MaxAddresses int           `yaml:"max_addresses" json:"max_addresses"`
}

// Config is the service configuration.
type Config struct {
	Env        string           `yaml:"env" json:"env"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Parser     ParserConfig     `yaml:"parser" json:"parser"`
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`
	Mongo      MongoConfig      `yaml:"mongo" json:"mongo"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Cache      CacheConfig      `yaml:"cache" json:"cache"`
	Jobs       JobsConfig       `yaml:"jobs" json:"jobs"`
}

// Default returns a configuration that runs without external services.
func Default() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 1500 * time.Millisecond,
		},
		Parser: ParserConfig{
			MaxBranches: 20000,
		},
		Classifier: ClassifierConfig{
			Backend:   "memory",
			Version:   "sample",
			CacheSize: 4096,
			Meili: classifier.MeiliConfig{
				Host:  "http://localhost:7700",
				Index: "address_objects",
			},
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "address_classifier",
		},
		Redis: RedisConfig{
			URL:    "redis://localhost:6379/0",
			Prefix: "addr:",
		},
		Cache: CacheConfig{
			Backend: "memory",
			L1Size:  10000,
			TTL:     24 * time.Hour,
		},
		Jobs: JobsConfig{
			Workers:      4,
			TTL:          time.Hour,
			MaxAddresses: 20000,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, c.Validate()
}

// NewViper returns a viper instance reading ADDR_* environment variables,
// e.g. ADDR_CACHE_BACKEND for cache.backend.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ADDR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Override applies values set in v (environment or bound flags).
func (c *Config) Override(v *viper.Viper) error {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}

	str("env", &c.Env)
	str("server.port", &c.Server.Port)
	dur("server.request_timeout", &c.Server.RequestTimeout)
	num("parser.max_branches", &c.Parser.MaxBranches)
	if v.IsSet("parser.use_libpostal") {
		c.Parser.UseLibpostal = v.GetBool("parser.use_libpostal")
	}
	str("parser.format", &c.Parser.Format)
	str("parser.types_db", &c.Parser.TypesDB)
	str("classifier.backend", &c.Classifier.Backend)
	str("classifier.data", &c.Classifier.Data)
	str("classifier.version", &c.Classifier.Version)
	str("classifier.meili.host", &c.Classifier.Meili.Host)
	str("classifier.meili.api_key", &c.Classifier.Meili.APIKey)
	str("classifier.meili.index", &c.Classifier.Meili.Index)
	str("mongo.uri", &c.Mongo.URI)
	str("mongo.database", &c.Mongo.Database)
	str("redis.url", &c.Redis.URL)
	str("cache.backend", &c.Cache.Backend)
	num("cache.l1_size", &c.Cache.L1Size)
	dur("cache.ttl", &c.Cache.TTL)
	num("jobs.workers", &c.Jobs.Workers)
	dur("jobs.ttl", &c.Jobs.TTL)
	num("jobs.max_addresses", &c.Jobs.MaxAddresses)
	return c.Validate()
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Classifier.Backend {
	case "memory", "meili":
	default:
		return fmt.Errorf("unknown classifier backend %q", c.Classifier.Backend)
	}
	switch c.Cache.Backend {
	case "none", "memory", "redis", "mongo", "hybrid":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be positive, got %d", c.Jobs.Workers)
	}
	return nil
}

// IsProduction reports whether production logging should be used.
func (c *Config) IsProduction() bool { return c.Env == "production" }
