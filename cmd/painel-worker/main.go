package main

import (
	"context"
	"errors"
	"os"

	"painel/internal/amqp"
	"painel/internal/api"
	"painel/internal/cli"
	"painel/internal/log"
	"painel/internal/sheets"
	gsheet "painel/internal/sheets/google"
	mem "painel/internal/sheets/memory"
	"painel/internal/worker"
)

func main() {
	cfg, logger := cli.Setup(log.ComponentWorker)
	logger.Info("Starting painel-worker")

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var report sheets.LoanExporter
	if cfg.GoogleSpreadsheetID != "" {
		exporter, err := gsheet.NewExporter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		report = exporter
		logger.Info("Google Sheets report enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		report = mem.New()
		logger.Info("Google Sheets disabled - exporting to an in-memory report")
	}

	remote := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.APITimeout))
	exportWorker := worker.NewExportWorker(remote, report, cfg.ExportBatchSize)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Export loans whose events were lost while the worker was down.
	logger.Info("Performing startup export check...")
	if err := exportWorker.StartupExportCheck(ctx); err != nil {
		logger.Error("Failed startup export check", log.FieldError, err)
	}

	cli.OnShutdown(logger, cancel)

	err = amqpClient.ConsumeLoanEvents(ctx, exportWorker.HandleLoanEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
