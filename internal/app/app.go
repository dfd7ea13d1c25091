package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/StayGo/internal/auth"
	"github.com/utafrali/StayGo/internal/config"
	"github.com/utafrali/StayGo/internal/event"
	handler "github.com/utafrali/StayGo/internal/handler/http"
	"github.com/utafrali/StayGo/internal/repository"
	"github.com/utafrali/StayGo/internal/repository/postgres"
	redisrepo "github.com/utafrali/StayGo/internal/repository/redis"
	"github.com/utafrali/StayGo/internal/service"
	"github.com/utafrali/StayGo/migrations"
	"github.com/utafrali/StayGo/pkg/database"
	"github.com/utafrali/StayGo/pkg/health"
	pkgkafka "github.com/utafrali/StayGo/pkg/kafka"
	"github.com/utafrali/StayGo/pkg/middleware"
	"github.com/utafrali/StayGo/pkg/tracing"
)

const serviceVersion = "0.1.0"

// App wires together all dependencies and runs the StayGo server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	sweeper        *service.SessionSweeper
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.PostgresMaxConns,
		MinConns:        cfg.PostgresMinConns,
		MaxConnLifetime: cfg.PostgresConnLife,
		MaxConnIdleTime: cfg.PostgresConnIdle,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(reg, pool, cfg.ServiceName); err != nil {
		pool.Close()
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryMS > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryMS)*time.Millisecond, logger)
	}

	redisClient, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var sessions repository.SessionStore
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		sessions = redisrepo.NewSessionStore(redisClient)
	default:
		sessions = postgres.NewSessionStore(pool)
	}
	logger.Info("session store ready", slog.String("backend", cfg.SessionBackend))

	// Kafka
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger,
		pkgkafka.WithMetrics(pkgkafka.NewProducerMetrics(reg)))
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	events := event.NewProducer(producer, logger)

	// Auth
	issuer := auth.NewTokenIssuer(auth.IssuerConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        cfg.TokenIssuer,
	})
	userRepo := postgres.NewUserRepository(pool)
	refresher := auth.NewRefresher(issuer, sessions, logger,
		auth.WithUserLookup(userRepo),
		auth.WithRotation(cfg.SessionRotateOnRefresh),
		auth.WithRefreshMetrics(reg),
	)
	cookies := auth.NewCookies(cfg.CookieSecure, issuer.AccessTTL(), issuer.RefreshTTL())

	// Repositories and services.
	placeRepo := postgres.NewPlaceRepository(pool)
	roomRepo := postgres.NewRoomRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)

	authService := service.NewAuthService(userRepo, sessions, issuer, refresher, events, logger)
	userService := service.NewUserService(userRepo, sessions, events, logger, service.DefaultBcryptCost)
	placeService := service.NewPlaceService(placeRepo, logger)
	roomService := service.NewRoomService(roomRepo, placeRepo, logger)
	reservationService := service.NewReservationService(reservationRepo, roomRepo, userRepo, events, logger)
	reviewService := service.NewReviewService(reviewRepo, reservationRepo, roomRepo, events, logger)

	sweeper := service.NewSessionSweeper(sessions, cfg.SessionSweepInterval, logger, reg)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		redisPing := func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
		if cfg.SessionBackend == config.SessionBackendRedis {
			healthHandler.RegisterCritical("redis", redisPing)
		} else {
			healthHandler.RegisterNonCritical("redis", redisPing)
		}
	}
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: cfg.ServiceName,
		Gate:        auth.NewGate(issuer, refresher, cookies, handler.PublicRoutes(), logger),
		Health:      healthHandler,
		Metrics:     middleware.NewHTTPMetrics(reg, cfg.ServiceName),
		Gatherer:    reg,
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: true,
		},
		AuthLimiter: middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger),
		PprofCIDRs:  cfg.PprofAllowedCIDR,
		Logger:      logger,
	}, handler.Handlers{
		Auth:        handler.NewAuthHandler(authService, cookies, logger),
		User:        handler.NewUserHandler(userService, logger),
		Place:       handler.NewPlaceHandler(placeService, logger),
		Room:        handler.NewRoomHandler(roomService, logger),
		Reservation: handler.NewReservationHandler(reservationService, logger),
		Review:      handler.NewReviewHandler(reviewService, logger),
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		sweeper:        sweeper,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// connectRedis dials Redis. A failure is fatal only when Redis backs the
// session store; otherwise the server runs without it and a nil client is
// returned.
func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*goredis.Client, error) {
	client, err := database.NewRedisClient(ctx, database.RedisConfig{
		URL:      cfg.RedisURL,
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err == nil {
		return client, nil
	}
	if cfg.SessionBackend == config.SessionBackendRedis {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Warn("redis unavailable, continuing without it",
		slog.String("backend", cfg.SessionBackend),
		slog.String("error", err.Error()),
	)
	return nil, nil
}

// Run starts the HTTP server and the session sweeper and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sweeper.Run(sweepCtx)
	}()
	// The sweeper uses the stores Shutdown closes, so it must exit first.
	shutdown := func() error {
		stopSweep()
		wg.Wait()
		return a.Shutdown()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, shutdown())
	}

	return shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
