package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/vital-portal/vital/internal/api/http"
	"github.com/vital-portal/vital/internal/api/http/handlers"
	"github.com/vital-portal/vital/internal/auth"
	"github.com/vital-portal/vital/internal/config"
	"github.com/vital-portal/vital/internal/events"
	"github.com/vital-portal/vital/internal/observability"
	"github.com/vital-portal/vital/internal/persistence"
	"github.com/vital-portal/vital/internal/realtime"
	"github.com/vital-portal/vital/internal/repository"
	"github.com/vital-portal/vital/internal/service"
	"github.com/vital-portal/vital/internal/storage"
	"github.com/vital-portal/vital/internal/worker"
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

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	hub := realtime.NewHub(redis.Client, logger)

	var store storage.ObjectStore
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("failed to init object storage", zap.Error(err))
		}
		store = s3Store
	} else {
		logger.Warn("S3_BUCKET not set; photo uploads disabled")
	}

	pool := pg.PoolHandle()
	accountRepo := repository.NewAccountRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	villagerRepo := repository.NewVillagerRepository(pool)
	authorityRepo := repository.NewAuthorityRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	fundRepo := repository.NewFundRequestRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)
	workerRepo := repository.NewWorkerRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo:       accountRepo,
		PasswordResetRepo: resetRepo,
		VillagerRepo:      villagerRepo,
		AuthorityRepo:     authorityRepo,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:      issueRepo,
		AuditRepo:      auditRepo,
		VillagerRepo:   villagerRepo,
		WorkerRepo:     workerRepo,
		Dispatcher:     dispatcher,
		Stream:         hub,
		Logger:         logger,
		DefaultSLADays: cfg.Workflow.DefaultSLADays,
		MonthsWindow:   cfg.Report.MonthsWindow,
	})
	fundService := service.NewFundService(service.FundDependencies{
		FundRequestRepo: fundRepo,
		IssueRepo:       issueRepo,
		AuditRepo:       auditRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	workerService := service.NewWorkerService(workerRepo)
	reportService := service.NewReportService(issueRepo, fundRepo, cfg.Report.MonthsWindow)
	notificationService := service.NewNotificationService(dispatcher, hub, metrics, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	closeAfter := time.Duration(cfg.Workflow.CloseAfterDays) * 24 * time.Hour
	closeoutDone := worker.StartCloseoutWorker(ctx, issueService, cfg.Workflow.CloseoutInterval, closeAfter, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), authService.Identity())

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.S3.MaxUploadBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService, cfg.App.Env != "production"),
		Issues:         handlers.NewIssuesHandler(issueService),
		Funds:          handlers.NewFundsHandler(fundService),
		Workers:        handlers.NewWorkersHandler(workerService),
		Reports:        handlers.NewReportsHandler(reportService),
		Admin:          handlers.NewAdminHandler(authService, issueService, metrics, closeAfter),
		Stream:         handlers.NewStreamHandler(issueService, logger),
		Uploads:        handlers.NewUploadsHandler(store, cfg.S3.MaxUploadBytes),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-closeoutDone
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
