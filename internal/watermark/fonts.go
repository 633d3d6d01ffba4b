package watermark

import (
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// systemFonts are tried after any configured path, in order.
var systemFonts = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/Library/Fonts/Arial.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// FontSet holds the parsed font used for text blocks. It is read-only after
// construction; faces are created per call since they are not safe for
// concurrent use.
type FontSet struct {
	font *opentype.Font
	name string
}

// NewFontSet loads the first usable font from paths, then the system list,
// then the bundled Go font. If every source fails, Face returns a fixed
// bitmap face.
func NewFontSet(paths ...string) *FontSet {
	candidates := append(append([]string{}, paths...), systemFonts...)
	for _, p := range candidates {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			slog.Debug("font unusable", "path", p, "error", err)
			continue
		}
		return &FontSet{font: f, name: p}
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		slog.Warn("bundled font unusable, using bitmap face", "error", err)
		return &FontSet{name: "basicfont"}
	}
	return &FontSet{font: f, name: "goregular"}
}

// Name identifies the loaded font for logs.
func (s *FontSet) Name() string { return s.name }

// Face returns a face at size pixels. The caller closes it.
func (s *FontSet) Face(size float64) font.Face {
	if s == nil || s.font == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		slog.Warn("font face failed, using bitmap face", "size", size, "error", err)
		return basicfont.Face7x13
	}
	return face
}
