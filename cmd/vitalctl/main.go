package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vital-portal/vital/internal/cli"
	"github.com/vital-portal/vital/internal/config"
	"github.com/vital-portal/vital/internal/observability"
	"github.com/vital-portal/vital/internal/persistence"
	"github.com/vital-portal/vital/internal/repository"
	"github.com/vital-portal/vital/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(load, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load(ctx context.Context) (*cli.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(config.LoggerConfig{Level: "warn"}, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool := pg.PoolHandle()
	issueRepo := repository.NewIssueRepository(pool)
	fundRepo := repository.NewFundRequestRepository(pool)
	villagerRepo := repository.NewVillagerRepository(pool)
	authorityRepo := repository.NewAuthorityRepository(pool)

	issues := service.NewIssueService(service.IssueDependencies{
		IssueRepo:      issueRepo,
		AuditRepo:      repository.NewAuditLogRepository(pool),
		VillagerRepo:   villagerRepo,
		WorkerRepo:     repository.NewWorkerRepository(pool),
		Logger:         logger,
		DefaultSLADays: cfg.Workflow.DefaultSLADays,
		MonthsWindow:   cfg.Report.MonthsWindow,
	})
	auth := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo:       repository.NewAccountRepository(pool),
		PasswordResetRepo: repository.NewPasswordResetRepository(pool),
		VillagerRepo:      villagerRepo,
		AuthorityRepo:     authorityRepo,
		Logger:            logger,
	})

	return &cli.Deps{
		Reports:    service.NewReportService(issueRepo, fundRepo, cfg.Report.MonthsWindow),
		Issues:     issues,
		Admins:     auth,
		CloseAfter: time.Duration(cfg.Workflow.CloseAfterDays) * 24 * time.Hour,
		Close: func() {
			pg.Close()
			_ = logger.Sync()
		},
	}, nil
}

