package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"treewatch/config"
	"treewatch/middleware"
	"treewatch/routes"
	"treewatch/storage"
	"treewatch/utils"
	"treewatch/worker"
)

func main() {
	logger := logrus.WithField("component", "server")

	if err := run(logger); err != nil {
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second)
		logger.WithError(err).Fatal("Server stopped")
	}
	sentry.Flush(2 * time.Second)
}

func run(logger *logrus.Entry) error {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := &config.AppConfig

	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if err := utils.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logger.WithError(err).Warn("Sentry disabled")
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	store := storage.New(config.DB)

	app := fiber.New(fiber.Config{
		AppName:   "treewatch",
		BodyLimit: (cfg.MaxUploadMB + 1) << 20,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = cfg.AllowedOrigins
	}
	app.Use(middleware.CORS(corsConfig))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	milestoneWorker := worker.NewMilestoneWorker(store, cfg.MilestoneSweep)
	go milestoneWorker.Start(ctx)

	routes.SetupRoutes(app, store, cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Shutdown failed")
		}
	}()

	logger.Infof("🌳 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
