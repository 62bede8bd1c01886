package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gator-forum/internal/cache"
	"gator-forum/internal/config"
	"gator-forum/internal/database"
	"gator-forum/internal/engine"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/events"
	"gator-forum/internal/feed"
	"gator-forum/internal/handlers"
	"gator-forum/internal/logger"
	"gator-forum/internal/middleware"
	"gator-forum/internal/reddit"
	"gator-forum/internal/scheduler"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// app is the assembled server and everything it must release on shutdown.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        database.DBAdapter
	cache     cache.Cache
	publisher events.Publisher
	engine    *engine.Engine
	warmer    *scheduler.Periodic
	listings  *reddit.Service
	handler   http.Handler
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer log.Sync()

	if cfg.UsesDevSecret() {
		log.Warn("AUTH_JWT_SECRET is not set, identity tokens are verified with the development secret")
	}

	a, err := newApp(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := a.run(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// newApp wires the store, cache, event publisher, actor engine and router.
// Empty MONGODB_URI, REDIS_ADDR and KAFKA_BROKERS select the in-process
// implementations.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &app{cfg: cfg, logger: log}
	var err error
	if a.db, err = openStore(cfg, log); err != nil {
		return nil, err
	}
	if a.cache, err = openCache(cfg, log); err != nil {
		a.close(ctx)
		return nil, err
	}
	if a.publisher, err = openPublisher(cfg, log); err != nil {
		a.close(ctx)
		return nil, err
	}

	// Initialize components
	metrics := utils.NewMetricsCollector()
	composer := feed.NewComposer(a.db)
	system := actor.NewActorSystem()
	a.engine = engine.NewEngine(system, &actors.Deps{
		DB:      a.db,
		Feeds:   composer,
		Events:  a.publisher,
		Metrics: metrics,
		Logger:  log,
		Timeout: cfg.Server.RequestTimeout,
	}, cfg.VoteShards)

	client := reddit.NewClient(reddit.ClientConfig{
		BaseURL:       cfg.Reddit.BaseURL,
		UserAgent:     cfg.Reddit.UserAgent,
		RatePerSecond: cfg.Reddit.RatePerSecond,
		Burst:         cfg.Reddit.Burst,
	})
	a.listings = reddit.NewService(client, a.cache, cfg.Reddit.CacheTTL, metrics, log)
	if cfg.Reddit.RefreshInterval > 0 {
		a.warmer = scheduler.NewPeriodic("warm_popular_subreddits", cfg.Reddit.RefreshInterval, a.listings.WarmPopular, log)
	}

	server := handlers.NewServer(system, a.engine, metrics, a.db, composer, a.listings,
		middleware.NewIdentityVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), log)
	server.RequestTimeout = cfg.Server.RequestTimeout
	server.AllowedOrigins = cfg.AllowedOrigins
	server.ExposeMetrics = cfg.Server.MetricsEnabled
	a.handler = server.NewRouter()
	return a, nil
}

func openStore(cfg *config.Config, log *zap.Logger) (database.DBAdapter, error) {
	if cfg.Database.URI == "" {
		log.Warn("MONGODB_URI is not set, using the in-memory store")
		return database.NewMemoryStore(), nil
	}
	return database.NewMongoDB(cfg.Database.URI, cfg.Database.Name, log)
}

func openCache(cfg *config.Config, log *zap.Logger) (cache.Cache, error) {
	if cfg.Redis.Addr == "" {
		log.Info("REDIS_ADDR is not set, caching listings in memory")
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
}

func openPublisher(cfg *config.Config, log *zap.Logger) (events.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("KAFKA_BROKERS is not set, domain events are logged only")
		return events.NewLogPublisher(log), nil
	}
	return events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
}

// run serves until ctx is cancelled, then shuts everything down in order:
// HTTP server, scheduler, actors, publisher, cache, store.
func (a *app) run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.warmer != nil {
		a.warmer.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down server")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server forced to shutdown", zap.Error(err))
	}
	a.close(shutdownCtx)
	a.logger.Info("server exited")
	return serveErr
}

type closer interface {
	Close() error
}

func (a *app) close(ctx context.Context) {
	if a.warmer != nil {
		a.warmer.Stop()
	}
	if a.engine != nil {
		a.engine.Stop()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}
	if c, ok := a.cache.(closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close cache", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(ctx); err != nil {
			a.logger.Warn("failed to close store", zap.Error(err))
		}
	}
}
