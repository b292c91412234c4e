package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jayvaidya30/FraudEx/constants"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) ExtractionResult {
	native, pages, err := pdfNativeText(path)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF, Method: "pdf-text", Err: err}
	}

	res := ExtractionResult{
		Text:       strings.TrimSpace(native),
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-text",
	}
	if len(res.Text) >= MinNativeTextLen {
		return res
	}

	// Short embedded text usually means a scanned PDF. Rasterize the
	// leading pages and OCR them; keep the OCR output only if it beats
	// the native text. Missing tooling degrades to the native result.
	ocrText, ocrPages, warns, err := e.pdfToOCR(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		e.logger.Warn("pdf ocr fallback unavailable", "path", path, "error", err)
		return res
	}
	ocrText = strings.TrimSpace(Normalize(ocrText))
	if len(ocrText) > len(res.Text) {
		res.Text = ocrText
		res.Pages = ocrPages
		res.Method = "pdf-ocr"
	}
	return res
}

// pdfNativeText extracts the embedded text of every page, in page order.
func pdfNativeText(path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only pages routinely fail here; skip them.
			continue
		}
		b.WriteString(txt)
		b.WriteString("\n")
	}
	return b.String(), pages, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "fx-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rerr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -f 1 -l 3 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", e.cfg.DPI),
		"-f", "1", "-l", fmt.Sprintf("%d", e.cfg.MaxPages),
		"-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	return b.String(), len(matches), warns, nil
}
