package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"adops/docs/swagger"
	"adops/internal/access"
	"adops/internal/api"
	"adops/internal/brands"
	"adops/internal/config"
	"adops/internal/db"
	"adops/internal/filesystem"
	"adops/internal/mail"
	"adops/internal/models"
	"adops/internal/storage"
	"adops/internal/tasks"
	"adops/internal/tasks/rate"
	"adops/internal/utils/logger"

	"github.com/joho/godotenv"
)

// @title adops API
// @version 1.0
// @description Accounts, brand-scoped file trees and permission lattices
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	logger := logger.New("adops")

	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		logger.Info("No .env file found, skipping environment variable loading")
	} else {
		logger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()
	database := db.GetDB()

	if err := models.CreateSuperAdminFromEnv(database, cfg); err != nil {
		logger.Warn("Super admin not seeded: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objects, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Domain services
	authorizer := access.NewAuthorizer(access.NewGormStore(database), access.NewGate(access.DefaultLattice()))
	resolver := brands.NewResolver(brands.NewGormMembershipStore(database))
	brandService := brands.NewService(database, resolver)
	engine := filesystem.NewEngine(filesystem.NewGormCatalog(database), resolver)

	// Background work
	mailer, err := mail.NewMailer(cfg.Mail)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}
	taskClient := tasks.NewTaskClient(cfg.Redis)
	defer taskClient.Close()

	limiter := rate.NewQueueRateLimiter(taskClient.Redis(), rate.QueueConfig{
		Name: "email",
		RateLimit: rate.RateLimit{
			Window:  time.Hour,
			MaxJobs: cfg.Mail.MaxPerRecipientPerHour,
		},
	})
	taskHandler := tasks.NewTaskHandler(database, mailer, objects, limiter)
	taskServer := tasks.NewServer(cfg.Redis, cfg.Worker, taskHandler, logger)

	go func() {
		if err := taskServer.Start(ctx); err != nil {
			logger.Error("Task server error", err)
		}
	}()

	taskScheduler := tasks.NewScheduler(cfg.Redis, cfg.Scheduler, logger)
	go func() {
		if err := taskScheduler.Start(); err != nil {
			logger.Error("Task scheduler error", err)
		}
	}()

	tasks.NewNotifier(database, taskClient, cfg.Server.PublicURL).Subscribe()

	apiServer, err := api.NewServer(cfg, api.Deps{
		DB:         database,
		Authorizer: authorizer,
		Resolver:   resolver,
		Brands:     brandService,
		Engine:     engine,
		Storage:    objects,
	})
	if err != nil {
		log.Fatalf("Failed to build API server: %v", err)
	}

	swagger.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.Server.PublicURL, "https://"), "http://")

	go func() {
		logger.Success("API server listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := apiServer.Start(); err != nil {
			logger.Error("API server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	taskScheduler.Stop()
	cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown API server", err)
	}

	logger.Info("Servers shutdown gracefully")
}

