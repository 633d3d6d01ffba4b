package watermark

import (
	"io"

	"github.com/fogleman/gg"

	"github.com/YannKr/brandportal/internal/layout"
)

// Placeholder canvas, US letter at 100 dpi.
const (
	placeholderW = 850
	placeholderH = 1100
)

// RenderPlaceholder draws a schematic page showing where the logo, name and
// contact blocks of p would land. It is served as a preview when the real
// source cannot be read.
func RenderPlaceholder(w io.Writer, fonts *FontSet, title string, p layout.Profile, bc BrandingContext) error {
	dc := gg.NewContext(placeholderW, placeholderH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0.8, 0.8, 0.8)
	dc.SetLineWidth(2)
	dc.DrawRectangle(10, 10, placeholderW-20, placeholderH-20)
	dc.Stroke()

	header := fonts.Face(18)
	defer header.Close()
	dc.SetFontFace(header)
	dc.SetRGB(0.45, 0.45, 0.45)
	if title == "" {
		title = "Resource"
	}
	dc.DrawStringAnchored(title+" (preview unavailable)", placeholderW/2, 40, 0.5, 0.5)

	// Logo box uses a 2:1 stand-in aspect ratio.
	lw, lh := logoSize(placeholderW, placeholderH, 2, 1, p.Logo.Width)
	lx, ly := placeCenter(placeholderW*p.Logo.X/100, placeholderH*p.Logo.Y/100, lw, lh, placeholderW, placeholderH)
	dc.SetRGBA(0.2, 0.4, 0.9, p.Logo.Opacity*0.5)
	dc.DrawRectangle(lx, ly, lw, lh)
	dc.Fill()
	dc.SetRGBA(0.2, 0.4, 0.9, 1)
	dc.DrawRectangle(lx, ly, lw, lh)
	dc.Stroke()
	label := fonts.Face(14)
	defer label.Close()
	dc.SetFontFace(label)
	dc.DrawStringAnchored("LOGO", lx+lw/2, ly+lh/2, 0.5, 0.5)

	name := bc.DisplayName
	if name == "" {
		name = "School Name"
	}
	contact := bc.ContactLine
	if contact == "" {
		contact = "Contact Information"
	}
	drawPlaceholderText(dc, fonts, name, p.Identity.Block(), 0.85, 0.2, 0.2)
	drawPlaceholderText(dc, fonts, contact, p.Contact.Block(), 0.15, 0.6, 0.3)

	return dc.EncodePNG(w)
}

func drawPlaceholderText(dc *gg.Context, fonts *FontSet, text string, b layout.TextBlock, r, g, bl float64) {
	face := fonts.Face(b.FontSize)
	defer face.Close()
	dc.SetFontFace(face)

	cx := placeholderW * b.X / 100
	cy := placeholderH * b.Y / 100
	tw, th := dc.MeasureString(text)
	dc.SetRGBA(r, g, bl, 0.15)
	dc.DrawRectangle(cx-tw/2-6, cy-th/2-6, tw+12, th+12)
	dc.Fill()
	dc.SetRGBA(r, g, bl, b.Opacity)
	dc.DrawStringAnchored(text, cx, cy, 0.5, 0.5)
}
