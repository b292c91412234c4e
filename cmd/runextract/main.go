package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/jayvaidya30/FraudEx/internal/ocr"
	"github.com/jayvaidya30/FraudEx/internal/risk"
)

// runextract extracts text from a local document and scores it with the
// heuristic rules, without touching the database. Useful for checking
// OCR tooling and eyeballing scorer output.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runextract <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	extractor := ocr.NewExtractor(ocr.Config{
		TessdataDir: os.Getenv("TESSDATA_PREFIX"),
	}, logger)

	start := time.Now()
	res := extractor.Extract(ctx, path)
	if res.Err != nil {
		logger.Error("text extraction failed", "path", path, "error", res.Err)
		os.Exit(1)
	}

	score, signals, explanation := risk.Score(res.Text)

	out := map[string]any{
		"path":        path,
		"method":      res.Method,
		"pages":       res.Pages,
		"text_bytes":  len(res.Text),
		"duration_ms": time.Since(start).Milliseconds(),
		"risk_score":  score,
		"signals":     signals,
		"explanation": explanation,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
