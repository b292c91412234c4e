package ocr

import (
	"regexp"
	"strings"
)

var (
	reGaps       = regexp.MustCompile(`[ \t]{2,}|\t`)
	reTrailingWS = regexp.MustCompile(`(?m)[ \t]+$`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)
)

// Normalize collapses the whitespace noise tesseract leaves in scanned
// documents while keeping the line structure the heuristic scorer and
// the stored preview rely on. At most one blank line survives between
// paragraphs.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = reGaps.ReplaceAllString(s, " ")
	s = reTrailingWS.ReplaceAllString(s, "")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
