package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relialab/healthprobe/configs"
	"github.com/relialab/healthprobe/internal/application/services"
	"github.com/relialab/healthprobe/internal/core/domain/target"
	"github.com/relialab/healthprobe/internal/infrastructure/broker"
	"github.com/relialab/healthprobe/internal/infrastructure/db"
	"github.com/relialab/healthprobe/internal/infrastructure/httpserver"
	"github.com/relialab/healthprobe/internal/infrastructure/metrics"
	"github.com/relialab/healthprobe/internal/infrastructure/targets"
)

func main() {
	// Load configuration
	cfg, err := configs.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting healthprobe...")

	ctx := context.Background()

	health := services.NewHealthService(services.HealthServiceDeps{
		Factory:    targets.NewFactory(),
		HTTPClient: &http.Client{Timeout: cfg.Probe.HTTPTimeout},
		Observer:   metrics.NewProbeObserver(),
	}, logger)

	// Messaging target
	if cfg.Broker.URL != "" {
		client, err := broker.Dial(cfg.Broker.URL)
		if err != nil {
			if cfg.Broker.Required {
				logger.Fatal("Failed to connect to broker:", err)
			}
			logger.WithError(err).Warn("broker unreachable at startup; messaging target not registered")
		} else {
			defer client.Close()
			if err := health.Register(ctx, target.Messaging{Client: client}, cfg.Broker.Required, target.RegisterOptions{}); err != nil {
				logger.Fatal("Failed to register messaging target:", err)
			}
		}
	}

	// Database target
	if cfg.Database.Enabled {
		if cfg.Database.AutoMigrate {
			database, err := db.NewDatabaseWithConfig(&cfg.Database)
			if err != nil {
				if cfg.Database.Required {
					logger.Fatal("Failed to connect to database:", err)
				}
				logger.WithError(err).Warn("database unreachable at startup; skipping migrations")
			} else {
				if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
					logger.Warn("Failed to run migrations:", err)
				}
				database.Close()
			}
		}

		dbTarget := target.Database{Handle: db.NewConnector(cfg.Database.DSN)}
		opts := target.RegisterOptions{Query: cfg.Database.Query}
		if err := health.Register(ctx, dbTarget, cfg.Database.Required, opts); err != nil {
			logger.Fatal("Failed to register database target:", err)
		}
	}

	// Service targets
	for _, address := range cfg.Probe.ServiceTargets {
		if err := health.RegisterAddress(ctx, target.KindService, address, cfg.Probe.ServicesRequired, target.RegisterOptions{}); err != nil {
			logger.Fatal("Failed to register service target:", err)
		}
	}

	logger.Infof("Registered %d health-check targets", health.TargetCount())

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
		CheckTimeout: cfg.Probe.HTTPTimeout + 5*time.Second,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{HealthService: health})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
