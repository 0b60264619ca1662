package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-seat-planner/internal/budget"
	"github.com/iliyamo/tour-seat-planner/internal/config"
	"github.com/iliyamo/tour-seat-planner/internal/database"
	"github.com/iliyamo/tour-seat-planner/internal/handler"
	"github.com/iliyamo/tour-seat-planner/internal/logging"
	"github.com/iliyamo/tour-seat-planner/internal/middleware"
	"github.com/iliyamo/tour-seat-planner/internal/planner"
	"github.com/iliyamo/tour-seat-planner/internal/pricing"
	"github.com/iliyamo/tour-seat-planner/internal/queue"
	"github.com/iliyamo/tour-seat-planner/internal/repository"
	"github.com/iliyamo/tour-seat-planner/internal/router"
	"github.com/iliyamo/tour-seat-planner/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is configured from cfg, so it does not exist yet
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DSNParts())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}

	redisCfg := config.LoadRedisConfig()
	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		logger.Warn("redis unavailable; running without caches and rate limiting")
	} else {
		defer rdb.Close()
	}

	plans := repository.NewTripPlanRepo(db)
	layouts := repository.NewBusLayoutRepo(db)
	packages := repository.NewPackageRepo(db)
	states := repository.NewRedisStateCache(repository.NewPlanStateRepo(db), rdb, redisCfg.StateTTL, logger)

	engine := pricing.NewEngine(cfg.FrontBandRows)
	store := planner.New(planner.Deps{
		Gateway:        states,
		Directory:      plans,
		Catalog:        packages,
		Layouts:        layouts,
		Publisher:      service.NewPublisher(cfg.AMQPURL, logger),
		Logger:         logger,
		Engine:         engine,
		StrictStock:    cfg.StrictStock,
		PersistTimeout: cfg.PersistTimeout,
	})

	if cfg.ConsumerEnabled {
		go func() {
			if err := queue.StartSeatsConsumer(ctx, cfg.AMQPURL, cfg.SeatsLogDir, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("seats consumer stopped", zap.Error(err))
			}
		}()
	}

	seatCache := middleware.NewSeatMapCache(config.LoadCacheConfig(), rdb, logger)
	seatLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(logger))

	router.RegisterRoutes(e, handler.Ready(db))
	layoutHandler := handler.NewLayoutHandler(layouts, packages, engine, seatCache, logger)
	router.RegisterPublic(e, layoutHandler, seatCache.Middleware())
	router.RegisterTraveler(e,
		handler.NewPlanHandler(store, budget.NewTracker(store)),
		handler.NewSeatHandler(store),
		cfg.JWTSecret, seatLimit)
	router.RegisterSupplier(e, layoutHandler, cfg.JWTSecret)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	// drain pending plan saves and event publishes
	return store.Close(shutdownCtx)
}
