// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stats-service/internal/config"
	"stats-service/internal/logging"
	"stats-service/internal/repository/filestore"
	"stats-service/internal/repository/postgresql"
	redisrepo "stats-service/internal/repository/redis"
	"stats-service/internal/service"
	"stats-service/internal/stats"
	httptransport "stats-service/internal/transport/http"
	"stats-service/internal/worker"
)

// @title Statistics Service API
// @version 1.0
// @description Asynchronous statistics queries over the nutrition, physical activity and obesity dataset.
// @BasePath /
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stats-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ds, err := stats.LoadCSV(cfg.DatasetPath)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", slog.String("path", cfg.DatasetPath), slog.Int("rows", ds.Len()))

	store, closeStore, err := newResultStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// DI
	pool, err := worker.NewPool(worker.NewProcessor(logger), cfg.Workers, logger)
	if err != nil {
		return err
	}
	disp := service.NewDispatcher(pool, store, service.NewStatusTable(), logger)
	handler := httptransport.NewHandler(disp, ds, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httptransport.Routes(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("config",
		slog.Int("workers", cfg.Workers),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("result_backend", cfg.ResultBackend),
		slog.String("results_dir", cfg.ResultsDir),
		slog.String("redis_addr", cfg.RedisAddr),
		slog.String("redis_url", config.RedactDSN(cfg.RedisURL)),
		slog.String("postgres_dsn", config.RedactDSN(cfg.PostgresDSN)),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", slog.String("error", err.Error()))
		}
		drainJobs(shutdownCtx, disp, logger)
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// drainJobs waits for queued jobs until ctx expires, then abandons the rest.
func drainJobs(ctx context.Context, disp *service.Dispatcher, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		_ = disp.Shutdown(true)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("shutdown timeout, abandoning unfinished jobs", slog.Int("jobs", disp.NumJobs()))
		_ = disp.Shutdown(false)
	}
}

func newResultStore(ctx context.Context, cfg config.Config) (service.ResultStore, func(), error) {
	switch cfg.ResultBackend {
	case config.BackendRedis:
		rdb, err := redisrepo.NewClient(ctx, cfg.RedisAddr, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		return redisrepo.NewResultStore(rdb, cfg.RedisKeyPrefix), func() { _ = rdb.Close() }, nil

	case config.BackendPostgres:
		pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pg: %w", err)
		}
		repo := postgresql.NewResultRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pg: %w", err)
		}
		return repo, pool.Close, nil

	default:
		fs, err := filestore.NewResultStore(cfg.ResultsDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}
