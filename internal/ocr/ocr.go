package ocr

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jayvaidya30/FraudEx/constants"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // pages rasterized for a scanned PDF, default 3

	TessdataDir string
}

// MinNativeTextLen is the trimmed-length threshold below which a PDF's
// embedded text is treated as "likely scanned" and the OCR fallback runs.
const MinNativeTextLen = 50

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE | constants.TEXT
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "plain-text"
	Duration   time.Duration
	Warnings   []string
	// Err records why a branch produced no text. Callers that only need
	// the tolerant contract can ignore it: Text is always empty when set.
	Err error
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Extract picks a strategy based on file extension. It never fails the
// caller: a missing file or a broken extraction branch yields an empty
// Text, with the cause logged and recorded on the result.
func (e *Extractor) Extract(ctx context.Context, path string) ExtractionResult {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))

	if _, err := os.Stat(path); err != nil {
		e.logger.Warn("extraction source missing", "path", path, "error", err)
		return ExtractionResult{Duration: time.Since(start), Err: err}
	}

	var res ExtractionResult
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res = e.extractImage(ctx, path)
	default:
		res = e.extractText(path)
	}
	res.Duration = time.Since(start)
	if res.Err != nil {
		e.logger.Warn("extraction branch failed",
			"path", path,
			"source_type", res.SourceType,
			"method", res.Method,
			"error", res.Err,
		)
		res.Text = ""
	}
	return res
}
