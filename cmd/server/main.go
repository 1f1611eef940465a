package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/goalboard/backend/api/handler"
	"github.com/goalboard/backend/internal/config"
	"github.com/goalboard/backend/internal/infrastructure/activity"
	"github.com/goalboard/backend/internal/infrastructure/monitor"
	pgInfra "github.com/goalboard/backend/internal/infrastructure/postgres"
	redisInfra "github.com/goalboard/backend/internal/infrastructure/redis"
	"github.com/goalboard/backend/internal/middleware"
	"github.com/goalboard/backend/internal/router"
	"github.com/goalboard/backend/internal/services"
	"github.com/goalboard/backend/internal/services/lifecycle"
	"github.com/goalboard/backend/pkg/httpcontext"
	"github.com/goalboard/backend/pkg/logger"
	"github.com/goalboard/backend/repository/postgres"
	redisRepo "github.com/goalboard/backend/repository/redis"
	authUC "github.com/goalboard/backend/usecase/auth"
	goalUC "github.com/goalboard/backend/usecase/goal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	activityStore, err := activity.Open(cfg.Activity.Path, "activity")
	if err != nil {
		zapLogger.Fatal("failed to open activity store", zap.Error(err))
	}
	manager.Register("activity_store", func(ctx context.Context) error {
		return activityStore.Close()
	})

	mon := monitor.New(pool, redisClient, activityStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	goalRepo := postgres.NewGoalRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.RefreshTTL)

	activityLog := services.NewActivityLog(activityStore, zapLogger, services.ActivityConfig{
		Retention:     cfg.Activity.Retention,
		PruneInterval: cfg.Activity.PruneInterval,
	})
	activityLog.Start()
	manager.Register("activity_log", func(ctx context.Context) error {
		activityLog.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, authUC.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}, zapLogger)
	goalUseCase := goalUC.New(goalRepo, goalUC.NewAllocator(), activityLog, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Goal:     apiHandler.NewGoalHandler(goalUseCase, ctxAdapter, zapLogger),
		Public:   apiHandler.NewPublicHandler(goalUseCase, ctxAdapter, zapLogger),
		Activity: apiHandler.NewActivityHandler(activityLog, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
