// Command apiserver serves the assembled firm-year panel over HTTP, backed
// by PostgreSQL with a Redis read-through cache, and accepts recompute
// requests that it enqueues for the workers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/DisruptMetrics/internal/config"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/postgres"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/redis"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/DisruptMetrics/internal/interfaces/http"
	"github.com/turtacn/DisruptMetrics/internal/interfaces/http/handlers"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	skipMigrations := flag.Bool("skip-migrations", false, "do not run database migrations on startup")
	flag.Parse()

	if err := run(*configPath, *port, *skipMigrations); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int, skipMigrations bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	logger = logger.Named("apiserver")

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "disrupt",
		Subsystem:            "api",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if !skipMigrations {
		if err := postgres.RunMigrations(postgres.MigrationURL(cfg.Database), cfg.Database.MigrationPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	panelRepo := repositories.NewPanelRepository(conn.Pool(), logger)

	// The cache and the task queue are optional: the API degrades to
	// direct reads and rejected recomputes when they are unreachable.
	var cache handlers.PanelCache
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, serving without cache", logging.Err(err))
	} else {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL))
	}

	var queue handlers.TaskPublisher
	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Warn("kafka unavailable, recompute requests disabled", logging.Err(err))
	} else {
		defer producer.Close()
		queue = producer
	}

	checkers := []handlers.HealthChecker{
		handlers.CheckerFunc{Component: "postgres", Fn: conn.HealthCheck},
	}
	if redisClient != nil {
		checkers = append(checkers, handlers.CheckerFunc{Component: "redis", Fn: redisClient.HealthCheck})
	}

	routerCfg := httpserver.RouterConfig{
		PanelHandler:  handlers.NewPanelHandler(panelRepo, cache, logger),
		RunHandler:    handlers.NewRunHandler(panelRepo, queue, logger),
		HealthHandler: handlers.NewHealthHandler(version(), checkers...),
		Logger:        logger,
		Metrics:       appMetrics,
		Mode:          cfg.Server.Mode,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = collector
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	router := httpserver.NewRouter(routerCfg)

	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// Build-time variable injected via ldflags.
var buildVersion = "dev"

func version() string { return buildVersion }
