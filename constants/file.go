package constants

import "strings"

// Document formats understood by the text extraction adapter.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// FileTypes holds the allowed values for a document's resolved format.
var FileTypes = []string{PDF, IMAGE, TXT}

// AllowedExtensions holds the file extensions accepted for parsing.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
	"webp": {},
	"heic": {},
	"heif": {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns PDF, IMAGE or TXT for a supported extension and "" otherwise.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt":
		return TXT
	case "jpg", "jpeg", "png", "bmp", "tif", "tiff", "webp", "heic", "heif":
		return IMAGE
	default:
		return ""
	}
}

func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}
