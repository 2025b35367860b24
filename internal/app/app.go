// Package app provides the application lifecycle management for arrestview.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httpapi "github.com/arrestview/arrestview/internal/api/http"
	"github.com/arrestview/arrestview/internal/config"
	"github.com/arrestview/arrestview/internal/observability"
	"github.com/arrestview/arrestview/internal/partition"
	"github.com/arrestview/arrestview/internal/query"
	"github.com/arrestview/arrestview/internal/query/executor"
	"github.com/arrestview/arrestview/internal/server"
	"github.com/arrestview/arrestview/internal/storage"
)

// statsPruneInterval is how often expired usage statistics are dropped.
const statsPruneInterval = 5 * time.Minute

// App wires storage, the query core and the HTTP server together and
// manages their lifecycle.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	// Shared resources
	storage  storage.ObjectStorage
	registry *prometheus.Registry
	metrics  *observability.Metrics
	stats    *observability.QueryStats
	pool     *executor.Pool
	service  *query.Service
	shutdown *server.ShutdownManager
	handler  http.Handler

	httpServer *http.Server

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new App with the given configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Resolve paths and validate
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Start initializes shared resources and starts the HTTP server.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.init(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to initialize: %w", err)
	}

	a.httpServer = &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}
	a.shutdown.RegisterCloser(server.HTTPServerCloser(a.httpServer, a.cfg.HTTP.ShutdownTimeout))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("HTTP server listening", zap.String("addr", a.cfg.HTTP.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.pruneStats(ctx)
	}()

	a.logger.Info("arrestview started",
		zap.String("env", a.cfg.Env),
		zap.String("storage", a.cfg.Storage.Type),
		zap.Int("workers", a.cfg.Query.Workers),
	)
	return nil
}

// init builds storage, metrics, the query core and the router.
func (a *App) init(ctx context.Context) error {
	store, err := a.newStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.storage = store

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = observability.NewMetrics(a.registry)
	a.stats = observability.NewQueryStats(a.cfg.Query.StatsWindow)

	layout := partition.Layout{
		Prefix:   a.cfg.Storage.Prefix,
		Template: a.cfg.Storage.ObjectTemplate,
	}
	loader := partition.NewLoader(a.storage, partition.LoaderConfig{
		Layout:      layout,
		DownloadDir: a.cfg.Query.DownloadDir,
		Timeout:     a.cfg.Query.PartitionTimeout,
	}, a.logger, a.metrics)

	// One pool for the whole process bounds concurrent partition loads
	// across requests.
	a.pool = executor.NewPool(a.cfg.Query.Workers, executor.WithMetrics(a.metrics))

	a.service = query.NewService(query.Options{
		Loader:  loader,
		Pool:    a.pool,
		Storage: a.storage,
		Layout:  layout,
		Stats:   a.stats,
		Metrics: a.metrics,
		Logger:  a.logger,
	})

	a.shutdown = server.NewShutdownManager(server.ShutdownConfig{
		ShutdownTimeout: a.cfg.HTTP.ShutdownTimeout,
		Logger:          a.logger,
	})

	a.handler = httpapi.NewRouter(httpapi.RouterConfig{
		Service:        a.service,
		Metrics:        a.metrics,
		Gatherer:       a.registry,
		Shutdown:       a.shutdown,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		Env:            a.cfg.Env,
		Logger:         a.logger,
	})
	return nil
}

// newStorage creates the object storage selected by the configuration.
func (a *App) newStorage(ctx context.Context) (storage.ObjectStorage, error) {
	switch a.cfg.Storage.Type {
	case "local":
		store, err := storage.NewLocalStorage(a.cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		a.logger.Info("storage initialized",
			zap.String("type", "local"),
			zap.String("path", a.cfg.Storage.Path),
		)
		return store, nil
	case "s3":
		s3Cfg := s3StorageConfig(a.cfg.Storage.S3)
		store, err := storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
		if err != nil {
			return nil, err
		}
		a.logger.Info("storage initialized",
			zap.String("type", "s3"),
			zap.String("bucket", a.cfg.Storage.S3.Bucket),
			zap.String("region", s3Cfg.Region),
			zap.String("endpoint", s3Cfg.Endpoint),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
}

// s3StorageConfig maps the S3 section of the configuration onto the storage
// client settings. MaxRetries is copied as is so that 0 disables retries.
func s3StorageConfig(c config.S3Config) storage.S3Config {
	s3Cfg := storage.DefaultS3Config()
	if c.Region != "" {
		s3Cfg.Region = c.Region
	}
	if c.Endpoint != "" {
		s3Cfg.Endpoint = c.Endpoint
	}
	s3Cfg.MaxRetries = c.MaxRetries
	s3Cfg.UsePathStyle = c.UsePathStyle
	return s3Cfg
}

// pruneStats periodically drops usage statistics older than the window.
func (a *App) pruneStats(ctx context.Context) {
	if a.cfg.Query.StatsWindow <= 0 {
		return
	}
	ticker := time.NewTicker(statsPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.stats.Prune()
		}
	}
}

// Handler returns the HTTP handler. It is nil until Start succeeds.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Stop gracefully stops the HTTP server and background work.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	a.logger.Info("initiating graceful shutdown")

	var stopErr error
	if a.shutdown != nil {
		stopErr = a.shutdown.Shutdown(ctx, "stop requested")
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("shutdown timeout, some goroutines may not have finished")
	}

	a.logger.Info("arrestview stopped")
	return stopErr
}

// WaitForShutdown blocks until a shutdown signal is received or ctx ends.
func (a *App) WaitForShutdown(ctx context.Context) error {
	if a.shutdown == nil {
		<-ctx.Done()
		return nil
	}
	return a.shutdown.ListenForSignals(ctx)
}
