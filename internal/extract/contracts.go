package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1 of the pipeline: file -> text. Implementations
// never fail the caller; an unusable file yields an empty Text, and Err
// carries the diagnostic for logs only.
type TextExtractor interface {
	Extract(ctx context.Context, path string) TextExtractionResult
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE" | "TEXT"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "plain-text"
	Duration   time.Duration
	Warnings   []string
	Err        error
}

// Empty reports whether the extraction produced no usable text.
func (r TextExtractionResult) Empty() bool {
	return r.Text == ""
}
