package server

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/assetsync"
	"github.com/xraph/assetsync/bus"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ASSETSYNC_"

// Config holds the server configuration. It is loaded from a YAML file and
// then overridden by ASSETSYNC_* environment variables.
type Config struct {
	// Config embeds the core assetsync configuration.
	assetsync.Config `json:",inline" yaml:",inline" mapstructure:",squash"`

	// Addr is the HTTP listen address.
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// BasePath mounts the API under a prefix. Empty mounts it at the root.
	BasePath string `json:"base_path" yaml:"base_path" mapstructure:"base_path"`

	// MetricsPath serves Prometheus metrics. Empty disables the endpoint.
	MetricsPath string `json:"metrics_path" yaml:"metrics_path" mapstructure:"metrics_path"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// DisableMigrate skips store migration on startup.
	DisableMigrate bool `json:"disable_migrate" yaml:"disable_migrate" mapstructure:"disable_migrate"`

	Log   LogConfig   `json:"log" yaml:"log" mapstructure:"log"`
	Store StoreConfig `json:"store" yaml:"store" mapstructure:"store"`
	Cache CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`
	Bus   BusConfig   `json:"bus" yaml:"bus" mapstructure:"bus"`
	AEM   AEMConfig   `json:"aem" yaml:"aem" mapstructure:"aem"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// StoreConfig selects the durable store.
type StoreConfig struct {
	// Driver is memory or redis. Other backends are passed in with WithDurableStore.
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// URL is the connection URL for network drivers.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Namespace prefixes keys for drivers sharing a keyspace.
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
}

// CacheConfig selects the cache tier.
type CacheConfig struct {
	// Driver is none, memory or redis.
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	URL       string        `json:"url" yaml:"url" mapstructure:"url"`
	Namespace string        `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
	TTL       time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// BusConfig selects the internal event bus publisher.
type BusConfig struct {
	// Driver is none, memory, kafka or http.
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	Kafka bus.KafkaConfig `json:"kafka" yaml:"kafka" mapstructure:"kafka"`

	// URL and Token configure the http driver.
	URL   string `json:"url" yaml:"url" mapstructure:"url"`
	Token string `json:"-" yaml:"token" mapstructure:"token"`
}

// AEMConfig configures the asset metadata client.
type AEMConfig struct {
	// Host is the DAM origin, e.g. https://author.example.com. Notifications
	// naming another host are refused.
	Host string `json:"host" yaml:"host" mapstructure:"host"`

	// Token is sent as a bearer token to Host only.
	Token string `json:"-" yaml:"token" mapstructure:"token"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Config:          assetsync.DefaultConfig(),
		Addr:            ":8080",
		MetricsPath:     "/metrics",
		ShutdownTimeout: 15 * time.Second,
		Log:             LogConfig{Level: "info", Format: "text"},
		Store:           StoreConfig{Driver: "memory"},
		Cache:           CacheConfig{Driver: "memory", TTL: 5 * time.Minute},
		Bus:             BusConfig{Driver: "none"},
	}
}

// LoadConfig reads path (when non-empty) over the defaults and applies
// environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("server: read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("server: parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks driver names and driver-specific settings.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "external":
	case "redis":
		if c.Store.URL == "" {
			return fmt.Errorf("server: store driver redis requires %sSTORE_URL", EnvPrefix)
		}
	default:
		return fmt.Errorf("server: unknown store driver %q", c.Store.Driver)
	}

	switch c.Cache.Driver {
	case "", "none", "memory":
	case "redis":
		if c.Cache.URL == "" {
			return fmt.Errorf("server: cache driver redis requires %sCACHE_URL", EnvPrefix)
		}
	default:
		return fmt.Errorf("server: unknown cache driver %q", c.Cache.Driver)
	}

	if c.AEM.Token != "" && c.AEM.Host == "" {
		return fmt.Errorf("server: aem token requires %sAEM_HOST", EnvPrefix)
	}

	switch c.Bus.Driver {
	case "", "none", "memory":
	case "kafka":
		if len(c.Bus.Kafka.Brokers) == 0 || c.Bus.Kafka.Topic == "" {
			return fmt.Errorf("server: bus driver kafka requires brokers and topic")
		}
	case "http":
		if c.Bus.URL == "" {
			return fmt.Errorf("server: bus driver http requires %sBUS_URL", EnvPrefix)
		}
	default:
		return fmt.Errorf("server: unknown bus driver %q", c.Bus.Driver)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("ADDR", c.Addr)
	c.BasePath = getEnv("BASE_PATH", c.BasePath)
	c.MetricsPath = getEnv("METRICS_PATH", c.MetricsPath)
	c.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.DisableMigrate = getEnvAsBool("DISABLE_MIGRATE", c.DisableMigrate)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.URL = getEnv("STORE_URL", c.Store.URL)
	c.Store.Namespace = getEnv("STORE_NAMESPACE", c.Store.Namespace)

	c.Cache.Driver = getEnv("CACHE_DRIVER", c.Cache.Driver)
	c.Cache.URL = getEnv("CACHE_URL", c.Cache.URL)
	c.Cache.Namespace = getEnv("CACHE_NAMESPACE", c.Cache.Namespace)
	c.Cache.TTL = getEnvAsDuration("CACHE_TTL", c.Cache.TTL)

	c.Bus.Driver = getEnv("BUS_DRIVER", c.Bus.Driver)
	c.Bus.URL = getEnv("BUS_URL", c.Bus.URL)
	c.Bus.Token = getEnv("BUS_TOKEN", c.Bus.Token)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Bus.Kafka.Brokers = splitList(brokers)
	}
	c.Bus.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Bus.Kafka.Topic)
	c.Bus.Kafka.RequiredAcks = getEnv("KAFKA_REQUIRED_ACKS", c.Bus.Kafka.RequiredAcks)
	c.Bus.Kafka.Compression = getEnv("KAFKA_COMPRESSION", c.Bus.Kafka.Compression)

	c.AEM.Host = getEnv("AEM_HOST", c.AEM.Host)
	c.AEM.Token = getEnv("AEM_TOKEN", c.AEM.Token)

	c.Concurrency = getEnvAsInt("CONCURRENCY", c.Concurrency)
	c.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.PublishTimeout = getEnvAsDuration("PUBLISH_TIMEOUT", c.PublishTimeout)
	c.StoreTimeout = getEnvAsDuration("STORE_TIMEOUT", c.StoreTimeout)
	c.FetchTimeout = getEnvAsDuration("FETCH_TIMEOUT", c.FetchTimeout)
	c.MaxAttempts = getEnvAsInt("MAX_ATTEMPTS", c.MaxAttempts)
	c.OptimisticLocking = getEnvAsBool("OPTIMISTIC_LOCKING", c.OptimisticLocking)
	c.HighPriorityThreshold = getEnvAsInt("HIGH_PRIORITY_THRESHOLD", c.HighPriorityThreshold)

	c.Runtime.Namespace = getEnv("NAMESPACE", c.Runtime.Namespace)
	c.Runtime.ActionName = getEnv("ACTION_NAME", c.Runtime.ActionName)
	c.Runtime.Region = getEnv("REGION", c.Runtime.Region)
	c.Runtime.ProviderID = getEnv("PROVIDER_ID", c.Runtime.ProviderID)
	c.Runtime.AgencyID = getEnv("AGENCY_ID", c.Runtime.AgencyID)
	c.Runtime.AgencyName = getEnv("AGENCY_NAME", c.Runtime.AgencyName)
	c.Runtime.OrgID = getEnv("ORG_ID", c.Runtime.OrgID)
}

func getEnv(key, def string) string {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return def
	}
	return value
}

func getEnvAsInt(key string, def int) int {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid int in environment, using default", "key", EnvPrefix+key, "default", def, "error", err)
		return def
	}
	return i
}

func getEnvAsBool(key string, def bool) bool {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid bool in environment, using default", "key", EnvPrefix+key, "default", def, "error", err)
		return def
	}
	return b
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", EnvPrefix+key, "default", def, "error", err)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
