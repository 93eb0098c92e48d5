package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketdesk/internal/api/dto"
	httptransport "github.com/spec-kit/ticketdesk/internal/api/http"
	"github.com/spec-kit/ticketdesk/internal/api/http/handlers"
	"github.com/spec-kit/ticketdesk/internal/api/http/views"
	"github.com/spec-kit/ticketdesk/internal/auth"
	"github.com/spec-kit/ticketdesk/internal/config"
	"github.com/spec-kit/ticketdesk/internal/events"
	"github.com/spec-kit/ticketdesk/internal/observability"
	"github.com/spec-kit/ticketdesk/internal/persistence"
	"github.com/spec-kit/ticketdesk/internal/repository"
	"github.com/spec-kit/ticketdesk/internal/service"
	"github.com/spec-kit/ticketdesk/internal/worker"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the environment is read")
	seed := flag.Bool("seed", true, "provision the default accounts and example tickets")
	migrateOnly := flag.Bool("migrate-only", false, "apply migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if flag.CommandLine.Changed("seed") {
		cfg.Seed.Enabled = *seed
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := persistence.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if cfg.Store.RunMigrations || *migrateOnly {
		if err := database.Migrate(ctx, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if *migrateOnly {
		logger.Info("migrations applied", zap.String("driver", database.Driver))
		return
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos, err := repository.New(database)
	if err != nil {
		logger.Fatal("failed to build repositories", zap.Error(err))
	}
	sessionRepo := repository.NewSessionRepository(redis.Client, redis.KeyPrefix)

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    repos.Users,
		SessionRepo: sessionRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repos.Tickets,
		UserRepo:   repos.Users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	historyService := service.NewHistoryService(service.HistoryDependencies{
		HistoryRepo: repos.History,
		UserRepo:    repos.Users,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	worker.StartHistoryWorker(historyService)

	if cfg.Seed.Enabled {
		seeder := service.NewSeeder(cfg.Seed, authService, ticketService, repos, logger)
		if err := seeder.Run(ctx); err != nil {
			logger.Fatal("failed to seed data", zap.Error(err))
		}
	}

	renderer, err := views.New()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}
	validator := dto.NewValidator()
	metrics := observability.NewMetrics()
	sessionMiddleware := auth.NewSessionMiddleware(authService, cfg.Session, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, renderer, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, database, redis, metrics),
		Tickets:       handlers.NewTicketsHandler(ticketService, historyService, validator, renderer, logger),
		Users:         handlers.NewUsersHandler(authService, ticketService, sessionMiddleware, validator, renderer, logger),
		Admin:         handlers.NewAdminHandler(authService, renderer, logger),
		Sessions:      sessionMiddleware,
		CSRF:          cfg.Security.CSRFEnabled,
		SecureCookies: cfg.Session.Secure,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
