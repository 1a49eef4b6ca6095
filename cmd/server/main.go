package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ERPlora/module-returns/internal/config"
	"github.com/ERPlora/module-returns/internal/db"
	"github.com/ERPlora/module-returns/internal/handler"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/ERPlora/module-returns/internal/server"
	"github.com/ERPlora/module-returns/internal/service"
)

// defaultHubID is the hub seeded on first boot for single-tenant installs.
const defaultHubID = 1

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	returnRepo := repository.ReturnRepository{DB: pg}
	reasonRepo := repository.ReasonRepository{DB: pg}
	creditRepo := repository.CreditRepository{DB: pg}
	returnsSettingsRepo := repository.ReturnsSettingsRepository{DB: pg}
	areaRepo := repository.AreaRepository{DB: pg}
	tableRepo := repository.TableRepository{DB: pg}
	tablesSettingsRepo := repository.TablesSettingsRepository{DB: pg}
	logRepo := repository.ActivityLogRepository{DB: pg}

	if err := reasonRepo.SeedDefaults(ctx, defaultHubID); err != nil {
		logger.Error("failed to seed return reasons", "err", err)
		os.Exit(1)
	}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger}
	returnSvc := service.ReturnService{
		Returns:  returnRepo,
		Reasons:  reasonRepo,
		Settings: returnsSettingsRepo,
		Logs:     logRepo,
		Logger:   logger,
	}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	authHandler := handler.AuthHandler{Service: &authSvc, Users: userRepo}
	returnHandler := handler.ReturnHandler{Repo: returnRepo, Service: &returnSvc}
	reasonHandler := handler.ReasonHandler{Repo: reasonRepo}
	creditHandler := handler.CreditHandler{Repo: creditRepo}
	returnsSettingsHandler := handler.ReturnsSettingsHandler{Repo: returnsSettingsRepo}
	areaHandler := handler.AreaHandler{Repo: areaRepo}
	tableHandler := handler.TableHandler{Repo: tableRepo, Areas: areaRepo, Settings: tablesSettingsRepo, Logs: logRepo}
	tablesSettingsHandler := handler.TablesSettingsHandler{Repo: tablesSettingsRepo}
	assistantHandler := handler.AssistantHandler{Returns: returnRepo, Reasons: reasonRepo, Credits: creditRepo}
	activityHandler := handler.ActivityLogHandler{Repo: logRepo}
	dashboardHandler := handler.DashboardHandler{Returns: returnRepo, Tables: tableRepo}
	docsHandler := handler.DocsHandler{OpenAPIPath: cfg.OpenAPIPath}

	router := server.NewRouter(cfg, logger,
		healthHandler, authHandler,
		returnHandler, reasonHandler, creditHandler, returnsSettingsHandler,
		areaHandler, tableHandler, tablesSettingsHandler,
		assistantHandler, activityHandler, dashboardHandler, docsHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
