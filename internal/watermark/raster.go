package watermark

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/YannKr/brandportal/internal/layout"
)

// textColor is the fill used for identity and contact text before opacity.
var textColor = color.NRGBA{R: 0x22, G: 0x22, B: 0x22}

// RasterCompositor brands single raster images.
type RasterCompositor struct {
	Fonts       *FontSet
	JPEGQuality int
}

func (c *RasterCompositor) OutputType(mediaType string) (string, string) {
	if mediaType == "image/webp" {
		return "image/png", ".png"
	}
	if ext, ok := MimeToExt[mediaType]; ok {
		return mediaType, ext
	}
	return "image/png", ".png"
}

func (c *RasterCompositor) Compose(ctx context.Context, in Input, w io.Writer) error {
	base, err := decodeFile(in.SourcePath)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	canvas := c.Render(base, in)

	_, ext := c.OutputType(in.MediaType)
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		format = imaging.PNG
	}
	if format == imaging.JPEG {
		// JPEG has no alpha; flatten onto white rather than black.
		b := canvas.Bounds()
		canvas = imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), canvas, image.Pt(0, 0), 1.0)
	}
	q := c.JPEGQuality
	if q <= 0 {
		q = 92
	}
	return imaging.Encode(w, canvas, format, imaging.JPEGQuality(q))
}

// Render draws the profile onto a copy of base. The returned image always
// has the dimensions of base.
func (c *RasterCompositor) Render(base image.Image, in Input) *image.NRGBA {
	canvas := imaging.Clone(base)
	cw, ch := canvas.Bounds().Dx(), canvas.Bounds().Dy()

	if in.Logo != nil {
		lb := in.Logo.Bounds()
		lw, lh := logoSize(float64(cw), float64(ch), float64(lb.Dx()), float64(lb.Dy()), in.Profile.Logo.Width)
		tw := clampInt(int(math.Round(lw)), 1, cw)
		th := clampInt(int(math.Round(lh)), 1, ch)
		prepared := prepareLogo(in.Logo, in.Profile.Logo.Opacity, tw, th)

		x0, y0 := placeCenter(
			float64(cw)*in.Profile.Logo.X/100, float64(ch)*in.Profile.Logo.Y/100,
			float64(tw), float64(th), float64(cw), float64(ch))
		px := clampInt(int(math.Round(x0)), 0, cw-tw)
		py := clampInt(int(math.Round(y0)), 0, ch-th)

		overlay := imaging.New(cw, ch, color.NRGBA{})
		overlay = imaging.Paste(overlay, prepared, image.Pt(px, py))
		canvas = imaging.Overlay(canvas, overlay, image.Pt(0, 0), 1.0)
	}

	if in.Preset.DrawsText() {
		c.drawText(canvas, in.Context.DisplayName, in.Profile.Identity.Block())
		c.drawText(canvas, in.Context.ContactLine, in.Profile.Contact.Block())
	}
	return canvas
}

func (c *RasterCompositor) drawText(dst *image.NRGBA, text string, b layout.TextBlock) {
	if text == "" {
		return
	}
	face := c.Fonts.Face(b.FontSize)
	defer face.Close()

	fill := textColor
	fill.A = uint8(math.Round(255 * b.Opacity))
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fill),
		Face: face,
	}
	cx := float64(dst.Bounds().Dx()) * b.X / 100
	cy := float64(dst.Bounds().Dy()) * b.Y / 100
	m := face.Metrics()
	adv := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(math.Round(cx*64)) - adv/2,
		Y: fixed.Int26_6(math.Round(cy*64)) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(text)
}

// logoSize returns the logo box for a canvas: widthPct of the canvas width,
// height following the logo aspect ratio, shrunk to fit when taller than the
// canvas.
func logoSize(canvasW, canvasH, logoW, logoH, widthPct float64) (float64, float64) {
	if logoW <= 0 || logoH <= 0 {
		return 0, 0
	}
	w := canvasW * widthPct / 100
	h := w * logoH / logoW
	if h > canvasH {
		h = canvasH
		w = h * logoW / logoH
	}
	return w, h
}

// placeCenter returns the top-left corner of a w×h box centred on (cx, cy),
// moved as little as needed to stay inside the canvas.
func placeCenter(cx, cy, w, h, canvasW, canvasH float64) (float64, float64) {
	x := math.Max(math.Min(cx-w/2, canvasW-w), 0)
	y := math.Max(math.Min(cy-h/2, canvasH-h), 0)
	return x, y
}

// prepareLogo scales the logo alpha by opacity and resizes it to w×h.
func prepareLogo(logo image.Image, opacity float64, w, h int) *image.NRGBA {
	src := imaging.Clone(logo)
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = uint8(math.Round(float64(src.Pix[i]) * opacity))
	}
	return imaging.Resize(src, w, h, imaging.Lanczos)
}

func clampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
