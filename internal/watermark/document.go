package watermark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/YannKr/brandportal/internal/layout"
)

// logoPixelsPerPoint is the resolution the logo is rasterized at before it is
// embedded, so it stays sharp when the page is zoomed.
const logoPixelsPerPoint = 2.0

var pdfcpuInit sync.Once

// DocumentCompositor brands PDFs with native page content: the logo becomes
// an image XObject and text is inserted as Helvetica text, so pages stay
// searchable.
type DocumentCompositor struct {
	TempDir string
}

func (c *DocumentCompositor) OutputType(string) (string, string) {
	return "application/pdf", ".pdf"
}

func (c *DocumentCompositor) Compose(ctx context.Context, in Input, w io.Writer) error {
	pdfcpuInit.Do(api.DisableConfigDir)

	src, err := os.ReadFile(in.SourcePath)
	if err != nil {
		return err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dims, err := api.PageDims(bytes.NewReader(src), conf)
	if err != nil {
		return fmt.Errorf("read pages: %w", err)
	}
	if len(dims) == 0 {
		return errors.New("document has no pages")
	}

	var logoFile string
	var logoW, logoH, logoScale float64
	if in.Logo != nil {
		// Page 1 is the reference frame for the logo size on every page.
		lb := in.Logo.Bounds()
		logoW, logoH = logoSize(dims[0].Width, dims[0].Height, float64(lb.Dx()), float64(lb.Dy()), in.Profile.Logo.Width)
		pxW := max(1, int(math.Round(logoW*logoPixelsPerPoint)))
		pxH := max(1, int(math.Round(logoH*logoPixelsPerPoint)))
		logoFile, err = c.writeLogo(prepareLogo(in.Logo, in.Profile.Logo.Opacity, pxW, pxH))
		if err != nil {
			slog.Warn("logo preparation failed, branding without it", "error", err)
		} else {
			defer os.Remove(logoFile)
			logoScale = logoW / float64(pxW)
		}
	}

	plan := make(map[int][]stamp, len(dims))
	for i, d := range dims {
		page := i + 1
		if logoFile != "" {
			desc := logoDescription(d, logoW, logoH, logoScale, in.Profile.Logo)
			plan[page] = append(plan[page], stamp{layerLogo, func() (*model.Watermark, error) {
				return api.ImageWatermark(logoFile, desc, true, false, types.POINTS)
			}})
		}
		if in.Preset.DrawsText() {
			for _, t := range []struct {
				layer int
				text  string
				block layout.TextBlock
			}{
				{layerIdentity, in.Context.DisplayName, in.Profile.Identity.Block()},
				{layerContact, in.Context.ContactLine, in.Profile.Contact.Block()},
			} {
				if t.text == "" {
					continue
				}
				text, desc := t.text, textDescription(d, t.block)
				plan[page] = append(plan[page], stamp{t.layer, func() (*model.Watermark, error) {
					return api.TextWatermark(text, desc, true, false, types.POINTS)
				}})
			}
		}
	}

	if len(plan) == 0 {
		_, err := w.Write(src)
		return err
	}

	out, err := applyLayers(src, plan, conf)
	if err != nil {
		slog.Warn("document stamping failed, retrying page by page", "error", err)
		if out, err = stampPages(ctx, src, len(dims), plan, conf); err != nil {
			return err
		}
	}
	_, err = w.Write(out)
	return err
}

// Layers are applied bottom to top, so later layers win where blocks overlap.
const (
	layerLogo = iota
	layerIdentity
	layerContact
	numLayers
)

// stamp builds the watermark for one element on one page. pdfcpu consumes
// image readers and caches resources on the watermark, so every attempt
// gets a freshly built one.
type stamp struct {
	layer int
	build func() (*model.Watermark, error)
}

// applyLayers stamps plan onto src one layer per pass. pdfcpu shares one
// opacity state across a call, and each layer carries its own opacity.
func applyLayers(src []byte, plan map[int][]stamp, conf *model.Configuration) ([]byte, error) {
	cur := src
	for layer := 0; layer < numLayers; layer++ {
		m := make(map[int][]*model.Watermark)
		for page, stamps := range plan {
			for _, s := range stamps {
				if s.layer != layer {
					continue
				}
				wm, err := s.build()
				if err != nil {
					return nil, fmt.Errorf("page %d: %w", page, err)
				}
				m[page] = append(m[page], wm)
			}
		}
		if len(m) == 0 {
			continue
		}
		var out bytes.Buffer
		if err := api.AddWatermarksSliceMap(bytes.NewReader(cur), &out, m, conf); err != nil {
			return nil, err
		}
		cur = out.Bytes()
	}
	return cur, nil
}

// stampPages applies the plan one page at a time, and one element at a time
// on pages that fail, skipping whatever cannot be inserted.
func stampPages(ctx context.Context, src []byte, pages int, plan map[int][]stamp, conf *model.Configuration) ([]byte, error) {
	cur := src
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stamps := plan[page]
		if len(stamps) == 0 {
			continue
		}
		if out, err := applyLayers(cur, map[int][]stamp{page: stamps}, conf); err == nil {
			cur = out
			continue
		}
		for _, s := range stamps {
			out, err := applyLayers(cur, map[int][]stamp{page: {s}}, conf)
			if err != nil {
				slog.Warn("stamp skipped", "page", page, "layer", s.layer, "error", err)
				continue
			}
			cur = out
		}
	}
	return cur, nil
}

// writeLogo encodes the prepared logo once to a scratch PNG that every page
// stamp references.
func (c *DocumentCompositor) writeLogo(img *image.NRGBA) (string, error) {
	f, err := os.CreateTemp(c.TempDir, TempPattern+"logo-*.png")
	if err != nil {
		return "", err
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// centerOffset converts a top-left based point on a page into the offset
// from the page centre, with y pointing up as in PDF user space.
func centerOffset(d types.Dim, x, y float64) (float64, float64) {
	return x - d.Width/2, d.Height/2 - y
}

func logoDescription(d types.Dim, w, h, scale float64, b layout.LogoBlock) string {
	x0, y0 := placeCenter(d.Width*b.X/100, d.Height*b.Y/100, w, h, d.Width, d.Height)
	dx, dy := centerOffset(d, x0+w/2, y0+h/2)
	return fmt.Sprintf("pos:c, off:%.2f %.2f, scale:%.4f abs, rot:0, op:1", dx, dy, scale)
}

func textDescription(d types.Dim, b layout.TextBlock) string {
	dx, dy := centerOffset(d, d.Width*b.X/100, d.Height*b.Y/100)
	return fmt.Sprintf("font:Helvetica, points:%d, pos:c, off:%.2f %.2f, scale:1 abs, rot:0, fillc:#%02x%02x%02x, op:%.2f, mode:0",
		int(math.Round(b.FontSize)), dx, dy, textColor.R, textColor.G, textColor.B, b.Opacity)
}
