package watermark

import (
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var MimeToExt = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/bmp":       ".bmp",
	"image/tiff":      ".tiff",
	"image/webp":      ".webp",
}

var ExtToMime = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// normalizeMediaType lowercases mt and drops any parameters.
func normalizeMediaType(mt string) string {
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return strings.ToLower(strings.SplitN(mt, ";", 2)[0])
}

// ExtFor returns the file extension for a media type, falling back to the
// extension of path.
func ExtFor(mediaType, path string) string {
	if ext, ok := MimeToExt[normalizeMediaType(mediaType)]; ok {
		return ext
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		return ext
	}
	return ".bin"
}

const maxNameBytes = 200

// SanitizeName makes name safe as a single path segment inside an archive or
// a Content-Disposition filename.
func SanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"\x00", "",
	)
	s := strings.TrimSpace(replacer.Replace(name))
	s = strings.Trim(s, ".")
	if len(s) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimRight(s[:cut], " .")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
