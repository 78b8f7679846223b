package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/rera-lookup-gateway/internal/core/port"
	"github.com/arklim/rera-lookup-gateway/internal/infra/config"
	"github.com/arklim/rera-lookup-gateway/internal/infra/database"
	kafkainfra "github.com/arklim/rera-lookup-gateway/internal/infra/kafka"
	"github.com/arklim/rera-lookup-gateway/internal/infra/logger"
	redisinfra "github.com/arklim/rera-lookup-gateway/internal/infra/redis"
	"github.com/arklim/rera-lookup-gateway/internal/infra/telegram"
	"github.com/arklim/rera-lookup-gateway/internal/infra/telemetry"
	filerepo "github.com/arklim/rera-lookup-gateway/internal/repository/file"
	postgresrepo "github.com/arklim/rera-lookup-gateway/internal/repository/postgres"
	redisrepo "github.com/arklim/rera-lookup-gateway/internal/repository/redis"
	"github.com/arklim/rera-lookup-gateway/internal/transport/http/middleware"
	"github.com/arklim/rera-lookup-gateway/internal/transport/http/routes"
	"github.com/arklim/rera-lookup-gateway/internal/usecase"
)

// Application wires the Telegram client, services, and HTTP transport together.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	tgClient *telegram.Client
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New builds the application graph. The Telegram client is connected before
// New returns, so a broken session surfaces at startup rather than on the
// first request.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	provider, err := telemetry.Attach(cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.Telemetry.MetricsNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	app := &Application{cfg: cfg, logger: log}

	sessionStore, err := app.buildSessionStore()
	if err != nil {
		return nil, err
	}

	tgClient := telegram.New(telegram.Config{
		APIID:   cfg.Telegram.APIID,
		APIHash: cfg.Telegram.APIHash,
	}, sessionStore, log)

	if err := tgClient.Start(ctx); err != nil {
		app.closePartial()
		return nil, fmt.Errorf("start telegram client: %w", err)
	}
	app.tgClient = tgClient

	eventPublisher := app.buildEventPublisher()

	correlator := usecase.NewReplyCorrelator(log)
	tgClient.OnMessage(correlator.HandleMessage)

	authService := usecase.NewAuthService(tgClient, sessionStore, eventPublisher, log).WithObserver(provider)

	lookupTimeout := cfg.Telegram.LookupTimeout
	lookupService := usecase.NewLookupService(
		authService,
		tgClient,
		correlator,
		telegram.NormalizePeerKey(cfg.Telegram.LookupBot),
		lookupTimeout,
		log,
	).WithEvents(eventPublisher).WithObserver(provider)

	if cfg.Postgres.Enabled {
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		app.pool = pool
		lookupService.WithHistory(postgresrepo.NewLookupRepository(pool))
	}

	deps := routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  httpMetrics,
		Telegram: tgClient,
		Services: routes.ServiceSet{
			Auth:    authService,
			Lookups: lookupService,
		},
	}
	if app.pool != nil {
		deps.Database = app.pool
	}
	if app.redis != nil {
		deps.Cache = app.redis
	}

	app.engine = routes.Register(deps)

	return app, nil
}

// buildSessionStore selects the configured session backend.
func (a *Application) buildSessionStore() (port.SessionStore, error) {
	switch a.cfg.Telegram.SessionBackend {
	case "redis":
		redisClient, err := redisinfra.NewClient(a.cfg.Redis, a.logger)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = redisClient
		return redisrepo.NewSessionStore(redisClient.Client(), a.cfg.Redis.SessionPrefix, a.cfg.Telegram.Account), nil
	default:
		store, err := filerepo.NewSessionStore(a.cfg.Telegram.SessionFile)
		if err != nil {
			return nil, fmt.Errorf("init session file store: %w", err)
		}
		return store, nil
	}
}

// buildEventPublisher returns the Kafka publisher when brokers are configured,
// falling back to the logging stub otherwise.
func (a *Application) buildEventPublisher() port.EventPublisher {
	if len(a.cfg.Kafka.Brokers) == 0 {
		a.logger.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, a.logger)
	if err != nil {
		a.logger.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}

	a.producer = producer
	a.logger.Info("kafka event publisher initialized", zap.Strings("brokers", a.cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, a.cfg.App, a.logger)
}

func (a *Application) closePartial() {
	if a.tgClient != nil {
		_ = a.tgClient.Close()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closePartial()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Lookups hold the request open while waiting for the bot reply, so
		// the write timeout must exceed the lookup window.
		WriteTimeout: a.cfg.Telegram.LookupTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("starting RERA lookup gateway",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("lookup_bot", a.cfg.Telegram.LookupBot),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
