// Package server runs assetsync as an HTTP service: it builds the stores and
// the bus publisher from configuration, wires a Syncer, and serves the API
// with graceful shutdown.
//
// Backends without a URL-based driver (the Postgres, SQLite and MongoDB
// stores over a grove database) are passed in with WithDurableStore:
//
//	db := ... // *grove.DB opened by the application
//	srv, err := server.New(ctx, cfg, server.WithDurableStore(postgres.New(db)))
//
// A grove kv.Store on Redis can back either tier through WithDurableKV and
// WithCacheKV.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/grove/kv"

	"github.com/xraph/assetsync"
	"github.com/xraph/assetsync/api"
	"github.com/xraph/assetsync/asset"
	"github.com/xraph/assetsync/observability"
	"github.com/xraph/assetsync/store"
	redisstore "github.com/xraph/assetsync/store/redis"
)

// Server owns the backends and the HTTP listener.
type Server struct {
	config  Config
	logger  *slog.Logger
	syncer  *assetsync.Syncer
	durable store.Store
	cache   store.Store
	metrics *prometheus.Registry
	http    *http.Server

	opts []assetsync.Option
}

// Option configures a Server.
type Option func(*Server)

// WithDurableStore injects the durable store instead of building one from
// the configured driver.
func WithDurableStore(s store.Store) Option {
	return func(srv *Server) { srv.durable = s }
}

// WithCacheStore injects the cache store instead of building one from the
// configured driver.
func WithCacheStore(s store.Store) Option {
	return func(srv *Server) { srv.cache = s }
}

// WithDurableKV uses a grove kv.Store on Redis as the durable store.
func WithDurableKV(kvStore *kv.Store) Option {
	return func(srv *Server) {
		srv.durable = redisstore.New(kvStore, namespaceOpt(srv.config.Store.Namespace)...)
	}
}

// WithCacheKV uses a grove kv.Store on Redis as the cache tier, with the
// configured TTL and namespace.
func WithCacheKV(kvStore *kv.Store) Option {
	return func(srv *Server) {
		opts := append(namespaceOpt(srv.config.Cache.Namespace), redisstore.WithTTL(srv.config.Cache.TTL))
		srv.cache = redisstore.New(kvStore, opts...)
	}
}

// WithLogger sets the logger. The default is built from Config.Log.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// WithSyncerOption appends a raw assetsync.Option.
func WithSyncerOption(opt assetsync.Option) Option {
	return func(srv *Server) { srv.opts = append(srv.opts, opt) }
}

// New builds the backends, migrates the stores and wires the Syncer.
func New(ctx context.Context, cfg Config, opts ...Option) (*Server, error) {
	srv := &Server{config: cfg}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.logger == nil {
		srv.logger = NewLogger(os.Stderr, cfg.Log)
	}

	var err error
	if srv.durable == nil {
		if srv.durable, err = openStore(cfg.Store); err != nil {
			return nil, err
		}
	}
	if srv.cache == nil {
		if srv.cache, err = openCache(cfg.Cache); err != nil {
			return nil, err
		}
	}

	if !cfg.DisableMigrate {
		if err := srv.durable.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("server: migrate store: %w", err)
		}
		if srv.cache != nil {
			if err := srv.cache.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("server: migrate cache: %w", err)
			}
		}
	}

	publisher, err := openPublisher(cfg.Bus, cfg.PublishTimeout)
	if err != nil {
		return nil, err
	}

	srv.metrics = prometheus.NewRegistry()
	srv.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	syncOpts := []assetsync.Option{
		assetsync.WithConfig(cfg.Config),
		assetsync.WithStore(srv.durable),
		assetsync.WithPublisher(publisher),
		assetsync.WithLogger(srv.logger),
		assetsync.WithMetrics(observability.NewMetrics(srv.metrics)),
		assetsync.WithTracer(observability.NewTracer()),
		assetsync.WithAssetFetcher(asset.NewClient(cfg.FetchTimeout,
			asset.WithBaseURL(cfg.AEM.Host),
			asset.WithToken(cfg.AEM.Token),
		)),
	}
	if srv.cache != nil {
		syncOpts = append(syncOpts, assetsync.WithCache(srv.cache))
	}
	syncOpts = append(syncOpts, srv.opts...)

	srv.syncer, err = assetsync.New(syncOpts...)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	srv.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv.logger.InfoContext(ctx, "assetsync configured",
		"store", cfg.Store.Driver,
		"cache", cfg.Cache.Driver,
		"bus", cfg.Bus.Driver,
	)
	return srv, nil
}

// Syncer returns the wired Syncer.
func (srv *Server) Syncer() *assetsync.Syncer { return srv.syncer }

// Handler returns the full HTTP handler: the API under BasePath plus the
// metrics endpoint.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	apiHandler := http.Handler(api.NewHandler(srv.syncer, srv.logger))
	base := strings.TrimRight(srv.config.BasePath, "/")
	if base != "" {
		apiHandler = http.StripPrefix(base, apiHandler)
	}
	mux.Handle(base+"/", apiHandler)

	if srv.config.MetricsPath != "" {
		mux.Handle("GET "+srv.config.MetricsPath, promhttp.HandlerFor(srv.metrics, promhttp.HandlerOpts{}))
	}
	return mux
}

// Run serves HTTP until ctx is done, then shuts down gracefully within
// ShutdownTimeout and closes the backends.
func (srv *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", srv.config.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", srv.config.Addr, err)
	}
	return srv.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.http.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		srv.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), srv.config.ShutdownTimeout)
		defer cancel()
		if err := srv.http.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("server: shutdown: %w", err)
		}
	}

	return errors.Join(serveErr, srv.Close())
}

// Close releases the bus publisher and the stores.
func (srv *Server) Close() error {
	errs := []error{srv.syncer.Close(), srv.durable.Close()}
	if srv.cache != nil {
		errs = append(errs, srv.cache.Close())
	}
	return errors.Join(errs...)
}
