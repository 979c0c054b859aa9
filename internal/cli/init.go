// Package cli holds the start-up steps shared by cmd/painel and
// cmd/painel-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"painel/internal/config"
	"painel/internal/log"
	"painel/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Setup loads and validates the configuration and installs the default
// logger for component. It exits the process on an invalid configuration.
func Setup(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.Component = component
	logger := log.New(logCfg)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenStore opens the configured key-value store or exits the process.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) storage.Store {
	store, err := storage.Open(ctx, cfg.StorageBackend, storage.Options{
		SQLitePath: cfg.SQLiteDBPath,
		RedisAddr:  cfg.RedisAddr,
		RedisDB:    cfg.RedisDB,
	})
	if err != nil {
		logger.Error("Failed to open storage", log.FieldError, err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}
	logger.Info("Storage ready", "backend", cfg.StorageBackend)
	return store
}

// OnShutdown calls stop once SIGINT or SIGTERM arrives.
func OnShutdown(logger *log.Logger, stop func()) {
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		stop()
	}()
}
