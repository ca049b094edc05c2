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

	"github.com/bibbank/appraisal/internal/application/usecase"
	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/service"
	"github.com/bibbank/appraisal/internal/infrastructure/cache"
	"github.com/bibbank/appraisal/internal/infrastructure/config"
	"github.com/bibbank/appraisal/internal/infrastructure/kafka"
	"github.com/bibbank/appraisal/internal/infrastructure/persistence/memory"
	pgRepo "github.com/bibbank/appraisal/internal/infrastructure/persistence/postgres"
	grpcPresentation "github.com/bibbank/appraisal/internal/presentation/grpc"
	"github.com/bibbank/appraisal/internal/presentation/rest"
	"github.com/bibbank/appraisal/migrations"
	"github.com/bibbank/appraisal/pkg/auth"
	pkgkafka "github.com/bibbank/appraisal/pkg/kafka"
	"github.com/bibbank/appraisal/pkg/observability"
	pkgpostgres "github.com/bibbank/appraisal/pkg/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("appraisal-service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Telemetry.LogLevel,
		Format:  cfg.Telemetry.LogFormat,
		Service: cfg.ServiceName,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Info("starting appraisal-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"db_driver", cfg.DB.Driver,
	)

	// Tracing is optional; without an endpoint spans go to the no-op provider.
	if cfg.Telemetry.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Insecure:    cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck

	policies, err := config.LoadPolicies(cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("load policies: %w", err)
	}

	checks := map[string]rest.Pinger{}

	// Application store.
	var repo port.ApplicationRepository
	switch cfg.DB.Driver {
	case "memory":
		logger.Warn("using the in-memory application store; data is lost on restart")
		repo = memory.NewApplicationRepo()
	default:
		pgCfg := pkgpostgres.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Name,
			SSLMode:  cfg.DB.SSLMode,
			MaxConns: int32(cfg.DB.MaxConns), //nolint:gosec // bounded by configuration
		}
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pkgpostgres.NewPool(dbCtx, pgCfg)
		dbCancel()
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to database")

		if err := pkgpostgres.RunMigrations(pgCfg.DSN(), migrations.FS, "."); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		repo = pgRepo.NewApplicationRepo(pool)
		checks["postgres"] = rest.PingFunc(func(ctx context.Context) error {
			return pkgpostgres.HealthCheck(ctx, pool)
		})
	}

	// Event publishing.
	var publisher port.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := pkgkafka.NewProducer(pkgkafka.Config{
			Brokers:       cfg.Kafka.Brokers,
			TLS:           cfg.Kafka.TLS,
			SASLEnabled:   cfg.Kafka.SASLEnabled,
			SASLMechanism: cfg.Kafka.SASLMechanism,
			SASLUsername:  cfg.Kafka.SASLUsername,
			SASLPassword:  cfg.Kafka.SASLPassword,
		})
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }() //nolint:errcheck
		publisher = kafka.NewEventPublisher(producer, cfg.Kafka.Topic, logger)
	} else {
		logger.Warn("kafka disabled, domain events are only logged")
		publisher = kafka.NewLogEventPublisher(logger)
	}

	// Evaluation cache.
	var evalCache port.EvaluationCache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer func() { _ = client.Close() }() //nolint:errcheck
		redisCache := cache.NewRedisEvaluationCache(client)
		evalCache = redisCache
		checks["redis"] = redisCache
		logger.Info("evaluation cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	uc := usecase.NewSet(usecase.Dependencies{
		Repo:        repo,
		Publisher:   publisher,
		Cache:       evalCache,
		CacheTTL:    cfg.Redis.TTL,
		Calculator:  service.NewAmortizationCalculator(logger),
		RatioPolicy: policies.Ratio,
		Scorer:      service.NewCreditScorer(policies.Scoring),
		Logger:      logger,
	})

	// Events committed while the broker was unreachable are relayed here.
	go uc.Relay.Run(ctx, cfg.Kafka.RelayInterval)

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:       cfg.Auth.JWTSecret,
		PublicKeyPEM: cfg.Auth.JWTPublicKey,
		Issuer:       cfg.Auth.Issuer,
	})
	if err != nil {
		return fmt.Errorf("init JWT service: %w", err)
	}

	grpcServer, err := grpcPresentation.NewServer(
		grpcPresentation.NewAppraisalHandler(uc, logger), logger, jwtSvc,
		grpcPresentation.ServerConfig{
			CertFile:     cfg.TLS.CertFile,
			KeyFile:      cfg.TLS.KeyFile,
			ClientCAFile: cfg.TLS.ClientCAFile,
			Reflection:   cfg.GRPCReflection,
		})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: rest.NewRouter(rest.RouterConfig{
			UseCases:   uc,
			JWTService: jwtSvc,
			Health:     rest.NewHealthHandler(logger, cfg.ServiceName, checks),
			Metrics:    metricsHandler,
			Logger:     logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server error", "error", serveErr)
	}

	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("appraisal-service stopped")
	return serveErr
}
