// Package server wires the HTTP boundary. Handlers are thin: all decision
// logic lives in the pipeline, the validator, and the telemetry gate.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/entity"
	"github.com/abhi542/MouldLensAI/internal/export"
	"github.com/abhi542/MouldLensAI/internal/repository"
	"github.com/abhi542/MouldLensAI/internal/telemetry"
)

// Processor is the pipeline surface the upload handler needs.
type Processor interface {
	Process(ctx context.Context, imageData []byte, mimeType, cameraID string) *entity.OutcomeRecord
}

type Server struct {
	cfg       common.ServerConfig
	proc      Processor
	readings  repository.ReadingRepository
	telemetry *telemetry.Gate
	exporter  *export.Service
	logger    *slog.Logger
}

func New(cfg common.ServerConfig, proc Processor, readings repository.ReadingRepository,
	tg *telemetry.Gate, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		proc:      proc,
		readings:  readings,
		telemetry: tg,
		exporter:  exporter,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.cfg.MaxUploadSize > 0 {
		r.MaxMultipartMemory = s.cfg.MaxUploadSize
	}

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.POST("/upload", s.handleUpload)
	api.GET("/metrics/recent", s.handleRecent)
	api.POST("/metrics/correct/:id", s.handleCorrect)
	api.GET("/metrics/export", s.handleExport)
	api.GET("/telemetry/alarms", s.handleAlarms)

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http serving", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mouldlensd"})
}
