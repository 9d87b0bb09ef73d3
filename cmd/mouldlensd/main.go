package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhi542/MouldLensAI/internal/auditlog"
	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/export"
	"github.com/abhi542/MouldLensAI/internal/llm/groq"
	"github.com/abhi542/MouldLensAI/internal/pipeline"
	"github.com/abhi542/MouldLensAI/internal/reading"
	"github.com/abhi542/MouldLensAI/internal/repository"
	"github.com/abhi542/MouldLensAI/internal/server"
	"github.com/abhi542/MouldLensAI/internal/shapegate"
	"github.com/abhi542/MouldLensAI/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Primary sink: document store.
	client, err := repository.Open(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Error("document store connection failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(client, logger)

	if err := repository.HealthCheck(ctx, client, cfg.Mongo.DialTimeout, logger); err != nil {
		logger.Error("document store health check failed", "error", err)
		os.Exit(1)
	}

	readings, err := repository.NewReadingRepository(ctx, client, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
	if err != nil {
		logger.Error("readings repository init failed", "error", err)
		os.Exit(1)
	}

	// Secondary sink: rotated JSON-line audit log.
	audit := auditlog.NewWriter(cfg.AuditLog, logger)
	defer func() {
		if err := audit.Close(); err != nil {
			logger.Warn("audit log close error", "error", err)
		}
	}()

	// Shared outbound client, created once and reused for every upload.
	httpClient := &http.Client{Timeout: cfg.Vision.Timeout}
	extractor := groq.NewClient(groq.Config{
		APIKey:      cfg.Vision.APIKey,
		BaseURL:     cfg.Vision.BaseURL,
		Model:       cfg.Vision.Model,
		Temperature: cfg.Vision.Temperature,
		Timeout:     cfg.Vision.Timeout,
	}, httpClient, logger)

	validator, err := reading.NewValidator(logger)
	if err != nil {
		logger.Error("validator init failed", "error", err)
		os.Exit(1)
	}

	proc := pipeline.NewProcessor(
		shapegate.NewGate(cfg.Gate, logger),
		extractor,
		validator,
		[]pipeline.RecordSink{repository.NewReadingSink(readings), audit},
		logger,
	)

	srv := server.New(
		cfg.Server,
		proc,
		readings,
		telemetry.NewGate(telemetry.DefaultAlarmThreshold, logger),
		export.NewService(readings, logger),
		logger,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
