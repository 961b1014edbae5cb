package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/mouhsinou/course-enrollment-platform/internal/api/http"
	"github.com/mouhsinou/course-enrollment-platform/internal/api/http/handlers"
	"github.com/mouhsinou/course-enrollment-platform/internal/auth"
	"github.com/mouhsinou/course-enrollment-platform/internal/cache"
	"github.com/mouhsinou/course-enrollment-platform/internal/config"
	"github.com/mouhsinou/course-enrollment-platform/internal/events"
	"github.com/mouhsinou/course-enrollment-platform/internal/observability"
	"github.com/mouhsinou/course-enrollment-platform/internal/persistence"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository"
	"github.com/mouhsinou/course-enrollment-platform/internal/repository/memory"
	"github.com/mouhsinou/course-enrollment-platform/internal/service"
	"github.com/mouhsinou/course-enrollment-platform/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	probes := map[string]handlers.Probe{}

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pool)
		probes["postgres"] = pg.Ping
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	if redis.Configured() {
		probes["redis"] = redis.Ping
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	courseCache := cache.NewCourseCache(redis.Client, cfg.Cache.CoursesTTL(), logger)

	worker.StartSubscribers(dispatcher, worker.Subscribers{
		Notifications: service.NewNotificationService(dispatcher, logger, cfg.Notification),
		CourseCache:   courseCache,
	})

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	courseService := service.NewCourseService(service.CourseDependencies{
		Store:      store,
		Cache:      courseCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	enrollmentService := service.NewEnrollmentService(service.EnrollmentDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Repositories().Users)

	app := httptransport.NewApp(httptransport.ServerOptions{
		AppName:        cfg.App.Name,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		Routes: httptransport.RouteConfig{
			Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, probes, metrics, logger),
			Users:             handlers.NewUsersHandler(authService, enrollmentService),
			Courses:           handlers.NewCoursesHandler(courseService),
			Enrollments:       handlers.NewEnrollmentsHandler(enrollmentService),
			AuthMiddleware:    authMiddleware,
			AuthRatePerMinute: cfg.RateLimit.AuthPerMinute,
		},
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
