package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/totegamma/cardfeed/internal/config"
	"github.com/totegamma/cardfeed/internal/infra/database"
	"github.com/totegamma/cardfeed/internal/infra/gateway"
	"github.com/totegamma/cardfeed/internal/infra/repository"
	"github.com/totegamma/cardfeed/internal/interface/rest"
	"github.com/totegamma/cardfeed/internal/service"
	"github.com/totegamma/cardfeed/internal/usecase"
)

const serviceName = "cardfeed"

func newLogger(level string) *zap.Logger {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}

func main() {
	conf, err := config.Load(config.Path())
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := newLogger(conf.Server.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint, serviceName)
		if err != nil {
			logger.Fatal("failed to setup trace provider", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to shutdown trace provider", zap.Error(err))
			}
		}()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	err = database.MigratePostgres(db)
	if err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	var cursors usecase.CursorRepository = repository.NewMemoryCursorRepository()
	var signals usecase.SignalPublisher
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		defer rdb.Close()
		cursors = repository.NewCursorRepository(rdb, conf.Firehose.CursorKey)
		signals = service.NewSignalService(rdb)
	} else {
		logger.Warn("redis not configured, cursor is kept in memory and signals are disabled")
	}

	var ledgerRepo usecase.LedgerRepository = repository.NewLedgerRepository(db)
	if conf.Server.MemcachedAddr != "" {
		mc := database.NewMemcached(conf.Server.MemcachedAddr)
		ledgerRepo = repository.NewCachedLedgerRepository(ledgerRepo, mc)
	}

	resolutionRepo := repository.NewCachedResolutionRepository(
		repository.NewResolutionRepository(db),
		conf.Server.ResolutionCacheTTL,
	)
	cardRepo := repository.NewCardRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	linkRepo := repository.NewCollectionLinkRepository(db)

	collections := conf.Firehose.Collections
	resolution := usecase.NewResolutionService(resolutionRepo)
	router := usecase.NewRouter(
		collections,
		usecase.NewCardProjector(cardRepo, resolution),
		usecase.NewCollectionProjector(collectionRepo, resolution),
		usecase.NewCollectionLinkProjector(linkRepo, cardRepo, resolution),
	)
	dedup := usecase.NewDeduplicationService(ledgerRepo, resolution, collections)
	ingest := usecase.NewIngestUsecase(dedup, router, ledgerRepo, signals, logger.Named("ingest"))

	queue := service.NewDispatchQueue(
		ingest,
		collections,
		conf.Firehose.GracePeriod,
		conf.Firehose.TickInterval,
		logger.Named("dispatch"),
	)
	session := service.NewSessionManager(
		gateway.NewJetstreamGateway(conf.Firehose.Endpoint),
		usecase.NewClassifier(),
		queue,
		cursors,
		service.SessionConfig{
			Collections:       collections,
			ReconnectDelay:    conf.Firehose.ReconnectDelay,
			MaxReconnectDelay: conf.Firehose.MaxReconnectDelay,
			CursorRewind:      conf.Firehose.CursorRewind,
		},
		logger.Named("session"),
	)

	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		queue.Run(ctx)
	}()

	err = session.Start(ctx)
	if err != nil {
		logger.Fatal("failed to start firehose session", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}

	handler := rest.NewHandler(collections, resolution, ingest, queue, session)
	handler.RegisterRoutes(e)

	go func() {
		if err := e.Start(conf.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	logger.Info("cardfeed started",
		zap.String("endpoint", conf.Firehose.Endpoint),
		zap.Strings("collections", collections.Names()),
		zap.String("http", conf.Server.HTTPAddr),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	session.Stop()
	queue.Stop()
	<-queueDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown http server", zap.Error(err))
	}
}
