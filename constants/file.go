package constants

import "strings"

// AllowedExtensions holds the image extensions the upload endpoint accepts.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// Digit-string bounds for cope and drag main numbers.
const (
	MinDigits = 1
	MaxDigits = 8
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageContentType reports whether a multipart Content-Type header
// names an image. Uploads from the camera client always send image/jpeg.
func IsImageContentType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "image/")
}
