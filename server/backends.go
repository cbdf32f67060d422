package server

import (
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/assetsync/bus"
	"github.com/xraph/assetsync/store"
	"github.com/xraph/assetsync/store/memory"
	redisstore "github.com/xraph/assetsync/store/redis"
)

// openStore builds the durable store named by cfg.
func openStore(cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "redis":
		return openRedis(cfg.URL, cfg.Namespace, 0)
	default:
		return nil, fmt.Errorf("server: store driver %q needs an injected store", cfg.Driver)
	}
}

// openCache builds the cache tier, or returns nil when caching is off.
func openCache(cfg CacheConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.New(memory.WithTTL(cfg.TTL)), nil
	case "redis":
		return openRedis(cfg.URL, cfg.Namespace, cfg.TTL)
	default:
		return nil, fmt.Errorf("server: unknown cache driver %q", cfg.Driver)
	}
}

func openRedis(url, namespace string, ttl time.Duration) (store.Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("server: parse redis url: %w", err)
	}

	storeOpts := append(namespaceOpt(namespace), redisstore.WithTTL(ttl))
	return redisstore.NewFromClient(goredis.NewClient(opts), storeOpts...), nil
}

func namespaceOpt(namespace string) []redisstore.Option {
	if namespace == "" {
		return nil
	}
	return []redisstore.Option{redisstore.WithNamespace(namespace)}
}

// openPublisher builds the bus publisher named by cfg.
func openPublisher(cfg BusConfig, timeout time.Duration) (bus.Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return bus.Noop{}, nil
	case "memory":
		return bus.NewMemory(), nil
	case "kafka":
		return bus.NewKafka(cfg.Kafka)
	case "http":
		return bus.NewHTTP(cfg.URL, cfg.Token, timeout), nil
	default:
		return nil, fmt.Errorf("server: unknown bus driver %q", cfg.Driver)
	}
}
