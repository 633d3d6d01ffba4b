package watermark

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind selects the compositor for a source asset.
type Kind int

const (
	KindUnsupported Kind = iota
	KindRaster
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindRaster:
		return "raster"
	case KindDocument:
		return "document"
	default:
		return "unsupported"
	}
}

var rasterTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// typeAliases maps non-standard names browsers and older uploads declare.
var typeAliases = map[string]string{
	"image/jpg":      "image/jpeg",
	"image/pjpeg":    "image/jpeg",
	"image/x-png":    "image/png",
	"image/x-ms-bmp": "image/bmp",
}

func isGeneric(mt string) bool {
	switch mt {
	case "", "application/octet-stream", "binary/octet-stream", "application/unknown":
		return true
	}
	return false
}

// untrusted reports whether a declared type is too vague to dispatch on: an
// image subtype we do not know, or "application/<ext>" as stored for uploads
// that arrived without a content type.
func untrusted(mt string) bool {
	if isGeneric(mt) {
		return true
	}
	if strings.HasPrefix(mt, "image/") {
		return !rasterTypes[mt]
	}
	if ext, ok := strings.CutPrefix(mt, "application/"); ok {
		byExt, known := ExtToMime["."+ext]
		return known && byExt != mt
	}
	return false
}

// EffectiveMediaType returns the declared type unless it is empty, generic or
// untrusted, in which case the file content and then its extension decide.
func EffectiveMediaType(declared, path string) string {
	mt := normalizeMediaType(declared)
	if alias, ok := typeAliases[mt]; ok {
		mt = alias
	}
	if !untrusted(mt) {
		return mt
	}
	if path != "" {
		if m, err := mimetype.DetectFile(path); err == nil {
			if sniffed := normalizeMediaType(m.String()); !isGeneric(sniffed) && sniffed != "text/plain" {
				return sniffed
			}
		}
	}
	if byExt, ok := ExtToMime[strings.ToLower(filepath.Ext(path))]; ok {
		return byExt
	}
	return mt
}

// Classify resolves the compositor kind for a source once, at the engine
// boundary.
func Classify(declared, path string) Kind {
	return kindOf(EffectiveMediaType(declared, path))
}

func kindOf(mt string) Kind {
	switch {
	case mt == "application/pdf":
		return KindDocument
	case rasterTypes[mt]:
		return KindRaster
	default:
		return KindUnsupported
	}
}
