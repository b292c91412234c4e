package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jayvaidya30/FraudEx/internal/async"
	"github.com/jayvaidya30/FraudEx/internal/auth"
	"github.com/jayvaidya30/FraudEx/internal/common"
	"github.com/jayvaidya30/FraudEx/internal/export"
	"github.com/jayvaidya30/FraudEx/internal/extract"
	"github.com/jayvaidya30/FraudEx/internal/narrative/gemini"
	"github.com/jayvaidya30/FraudEx/internal/ocr"
	"github.com/jayvaidya30/FraudEx/internal/pipeline"
	"github.com/jayvaidya30/FraudEx/internal/repository"
	"github.com/jayvaidya30/FraudEx/internal/server"
	"github.com/jayvaidya30/FraudEx/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cases, closeDB, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	if err := cases.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	if err := repository.HealthCheck(ctx, cases, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	files := storage.NewFileStore(cfg.Storage.UploadDir, logger)

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Tesseract:   cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
	}, logger)
	textExtractor := extract.NewOCRAdapter(extractor)

	analyzer := gemini.NewClient(gemini.Config{
		Model:   cfg.Narrative.Model,
		APIKey:  cfg.Narrative.APIKey,
		BaseURL: cfg.Narrative.BaseURL,
		Timeout: cfg.Narrative.Timeout,
	}, logger)

	orchestrator := pipeline.NewOrchestrator(cases, textExtractor, analyzer, logger)
	queue := async.NewAnalysisQueue(orchestrator, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithRunTimeout(cfg.Queue.RunTimeout),
	)

	keys := auth.NewJWKSCache(auth.JWKSURL(cfg.Auth.SupabaseURL), cfg.Auth.JWKSTTL, logger)
	verifier := auth.NewVerifier(keys, cfg.Auth.Audience, logger)

	exporter := export.NewService(cases, logger)

	router := server.NewRouter(server.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CaseHandler:    server.NewCaseHandler(cases, files, queue, exporter, logger),
		AuthHandler:    server.NewAuthHandler(),
		AuthMiddleware: server.NewAuthMiddleware(verifier, logger),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("fraudexd listening", "addr", cfg.Server.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}
