package ocr

import (
	"os"
	"strings"

	"github.com/jayvaidya30/FraudEx/constants"
)

// extractText is the fallback branch for plain text, CSV and anything with
// an extension we do not recognize: read the bytes as text, dropping
// undecodable sequences.
func (e *Extractor) extractText(path string) ExtractionResult {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{SourceType: constants.TEXT, Method: "plain-text", Err: err}
	}
	txt := strings.ToValidUTF8(string(raw), "")
	return ExtractionResult{
		Text:       strings.TrimSpace(txt),
		Pages:      1,
		SourceType: constants.TEXT,
		Method:     "plain-text",
	}
}
