package constants

import "strings"

// FileFormats holds the coarse source types the extraction engine
// dispatches on.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TEXT  = "TEXT"
)

// AllowedExtensions holds the file extensions accepted at upload time.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tiff": {},
	"bmp":  {},
	"txt":  {},
	"csv":  {},
}

var imageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tiff": {},
	"bmp":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a coarse format.
// Unknown extensions fall through to TEXT: anything that is not a PDF or
// raster image is read as plain text.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	switch {
	case ext == "pdf":
		return PDF
	case IsImageExt(ext):
		return IMAGE
	default:
		return TEXT
	}
}

// IsImageExt reports whether ext names a raster image format we OCR.
func IsImageExt(ext string) bool {
	_, ok := imageExtensions[NormalizeExt(ext)]
	return ok
}

// IsAllowedExt reports whether ext is accepted at upload time.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
