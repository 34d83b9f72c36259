// Command worker consumes per-company scoring tasks from Kafka, runs the
// pipeline for each company, persists the firm-year rows to PostgreSQL and
// reports results.  A Redis lock serializes concurrent recomputes of the
// same company across worker replicas.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/DisruptMetrics/internal/application/pipeline"
	"github.com/turtacn/DisruptMetrics/internal/config"
	neo4jdb "github.com/turtacn/DisruptMetrics/internal/infrastructure/database/neo4j"
	neo4jrepos "github.com/turtacn/DisruptMetrics/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/postgres"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/database/redis"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/storage"
	miniostore "github.com/turtacn/DisruptMetrics/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/DisruptMetrics/internal/interfaces/http"
	"github.com/turtacn/DisruptMetrics/internal/interfaces/http/handlers"
)

const companyLockTTL = 30 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	di1Path := flag.String("di1", "", "path to the external disruption-flag JSON file")
	flag.Parse()

	if err := run(*configPath, *di1Path); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, di1Path string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}
	logger = logger.Named("worker")

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "disrupt",
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startupCtx, startupCancel := context.WithTimeout(ctx, 30*time.Second)
	defer startupCancel()

	conn, err := postgres.NewConnection(startupCtx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if err := postgres.RunMigrations(postgres.MigrationURL(cfg.Database), cfg.Database.MigrationPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	panelRepo := repositories.NewPanelRepository(conn.Pool(), logger)

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL))

	store, err := newArtifactStore(startupCtx, cfg, logger)
	if err != nil {
		return err
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithObserver(prometheus.NewPipelineObserver(appMetrics)),
	}
	if cfg.Neo4j.URI != "" {
		graphDriver, err := neo4jdb.NewDriver(cfg.Neo4j, logger)
		if err != nil {
			logger.Warn("neo4j unavailable, graph mirroring disabled", logging.Err(err))
		} else {
			defer graphDriver.Close()
			graphRepo := neo4jrepos.NewGraphRepository(graphDriver, logger)
			if err := graphRepo.EnsureConstraints(startupCtx); err != nil {
				logger.Warn("graph constraints not ensured", logging.Err(err))
			}
			pipelineOpts = append(pipelineOpts, pipeline.WithGraphMirror(graphRepo))
		}
	}
	if di1Path != "" {
		di1, err := pipeline.LoadDI1(di1Path)
		if err != nil {
			return err
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithDI1(di1))
	}

	p := pipeline.New(cfg.Pipeline, store, logger, pipelineOpts...)

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("connect kafka producer: %w", err)
	}
	defer producer.Close()

	if cfg.Kafka.AutoCreateTopics {
		manager, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
		if err != nil {
			logger.Warn("topic manager unavailable", logging.Err(err))
		} else {
			if err := manager.EnsureDefaultTopics(); err != nil {
				logger.Warn("topics not ensured", logging.Err(err))
			}
			manager.Close()
		}
	}

	handler := newTaskHandler(p, panelRepo, cache, redisClient, producer, appMetrics, logger)
	consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Worker, producer, handler, logger)
	if err != nil {
		return fmt.Errorf("connect kafka consumer: %w", err)
	}
	defer consumer.Close()

	healthSrv := startHealthServer(cfg, conn, redisClient, collector, appMetrics, logger)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = healthSrv.Stop(stopCtx)
	}()

	logger.Info("worker started",
		logging.Int("concurrency", cfg.Worker.Concurrency),
		logging.Int("health_port", cfg.Worker.HealthPort))
	return consumer.Run(ctx)
}

// newTaskHandler builds the per-task processing function: lock the company,
// run the pipeline, persist the firm-year rows, drop stale cache entries
// and publish the result.
func newTaskHandler(
	p *pipeline.Pipeline,
	panelRepo *repositories.PanelRepository,
	cache *redis.Cache,
	redisClient *redis.Client,
	producer *kafka.Producer,
	appMetrics *prometheus.AppMetrics,
	logger logging.Logger,
) kafka.TaskHandler {
	return func(ctx context.Context, task kafka.TaskEnvelope) error {
		start := time.Now()

		lock := redis.NewLock(redisClient, logger, "company:"+task.Company, companyLockTTL)
		if err := lock.Acquire(ctx); err != nil {
			return fmt.Errorf("acquire company lock: %w", err)
		}
		defer func() {
			releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer releaseCancel()
			_ = lock.Release(releaseCtx)
		}()

		rc := p.CompanyRun(task.RunID, task.Company)
		result, firmYears := p.RunCompany(ctx, rc)

		if result.Succeeded {
			if err := panelRepo.ReplaceCompany(ctx, task.RunID, task.Company, firmYears); err != nil {
				prometheus.RecordWorkerTask(appMetrics, "persist_failed", time.Since(start))
				return err
			}
			if _, err := cache.InvalidateAll(ctx); err != nil {
				logger.Warn("cache invalidation failed", logging.Err(err))
			}
		}

		if err := producer.PublishResult(ctx, task.RunID, result); err != nil {
			logger.Warn("result publish failed",
				logging.String("company", task.Company),
				logging.Err(err))
		}

		if !result.Succeeded {
			prometheus.RecordWorkerTask(appMetrics, "failed", time.Since(start))
			return fmt.Errorf("company %s failed: [%s] %s", task.Company, result.ErrorCode, result.Error)
		}
		prometheus.RecordWorkerTask(appMetrics, "succeeded", time.Since(start))
		return nil
	}
}

// newArtifactStore selects the artifact backend: MinIO when an endpoint is
// configured, the local filesystem otherwise.
func newArtifactStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (pipeline.ArtifactStore, error) {
	if cfg.MinIO.Endpoint != "" {
		client, err := miniostore.NewClient(miniostore.Config{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKey,
			SecretAccessKey: cfg.MinIO.SecretKey,
			UseSSL:          cfg.MinIO.UseSSL,
			Bucket:          cfg.MinIO.Bucket,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		return miniostore.NewStore(client), nil
	}
	return storage.NewFSStore(cfg.Pipeline.OutputDir, logger)
}

// startHealthServer exposes /healthz, /readyz and /metrics on the worker's
// health port.
func startHealthServer(
	cfg *config.Config,
	conn *postgres.Connection,
	redisClient *redis.Client,
	collector prometheus.MetricsCollector,
	appMetrics *prometheus.AppMetrics,
	logger logging.Logger,
) *httpserver.Server {
	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(buildVersion,
			handlers.CheckerFunc{Component: "postgres", Fn: conn.HealthCheck},
			handlers.CheckerFunc{Component: "redis", Fn: redisClient.HealthCheck},
		),
		Logger:           logger,
		Metrics:          appMetrics,
		MetricsCollector: collector,
		Mode:             cfg.Server.Mode,
	})

	srv := httpserver.NewServer(config.ServerConfig{Port: cfg.Worker.HealthPort}, router, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("health server failed", logging.Err(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

// Build-time variable injected via ldflags.
var buildVersion = "dev"
