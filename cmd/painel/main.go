package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"painel/internal/amqp"
	"painel/internal/api"
	"painel/internal/cache"
	"painel/internal/cli"
	apphttp "painel/internal/http"
	"painel/internal/log"
	"painel/internal/services"
	"painel/internal/session"
)

func main() {
	cfg, logger := cli.Setup(log.ComponentApp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := cli.OpenStore(ctx, logger, cfg)
	defer store.Close()

	remote := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.APITimeout),
		api.WithLoanInterestRate(cfg.LoanInterestRate))
	clients := cache.NewClientCache(store, remote, cfg.ClientCacheTTL)

	// Left as a nil interface when events are off.
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, loan events disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Publishing loan events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("Loan events disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Clients:   services.NewClientService(remote, remote, clients),
		Loans:     services.NewLoanService(remote, clients, publisher, remote.LoanInterestRate()),
		Dashboard: services.NewDashboardService(remote, clients),
		Auth:      services.NewAuthService(remote),
		Sessions:  session.NewManager(store, cfg.SecureCookies),
		Ready: func(ctx context.Context) error {
			_, _, err := store.Get(ctx, "readyz")
			return err
		},
	}, apphttp.Options{
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		Logger:             logger,
	})

	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	cli.OnShutdown(logger, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	})

	logger.Info("Starting painel server", "port", cfg.Port, "api", cfg.APIBaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
