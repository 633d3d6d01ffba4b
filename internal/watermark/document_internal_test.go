package watermark

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPagePDF(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for _, s := range []string{"one", "two"} {
		pdf.AddPage()
		pdf.Cell(40, 10, s)
	}
	p := filepath.Join(t.TempDir(), "two.pdf")
	require.NoError(t, pdf.OutputFileAndClose(p))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return data
}

func textStamp(layer int, text string) stamp {
	return stamp{layer, func() (*model.Watermark, error) {
		return api.TextWatermark(text, "font:Helvetica, points:12, pos:c, scale:1 abs, rot:0, op:0.8", true, false, types.POINTS)
	}}
}

// brokenImageStamp parses fine but fails when pdfcpu decodes the image.
func brokenImageStamp() stamp {
	return stamp{layerLogo, func() (*model.Watermark, error) {
		return api.ImageWatermarkForReader(bytes.NewReader([]byte("not an image")), "pos:c, scale:0.5 abs, rot:0", true, false, types.POINTS)
	}}
}

func pageHasStamp(t *testing.T, pdf []byte, page string) bool {
	t.Helper()
	var out bytes.Buffer
	return api.RemoveWatermarks(bytes.NewReader(pdf), &out, []string{page}, nil) == nil
}

func TestApplyLayersFailsOnBrokenElement(t *testing.T) {
	src := twoPagePDF(t)
	_, err := applyLayers(src, map[int][]stamp{1: {brokenImageStamp()}}, model.NewDefaultConfiguration())
	assert.Error(t, err)
}

func TestStampPagesSkipsFailingElement(t *testing.T) {
	src := twoPagePDF(t)
	plan := map[int][]stamp{
		1: {brokenImageStamp(), textStamp(layerIdentity, "Example School")},
		2: {textStamp(layerIdentity, "Example School"), textStamp(layerContact, "office@example.org")},
	}

	out, err := stampPages(context.Background(), src, 2, plan, model.NewDefaultConfiguration())
	require.NoError(t, err)

	n, err := api.PageCount(bytes.NewReader(out), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, pageHasStamp(t, out, "1"), "text on the failing page is kept")
	assert.True(t, pageHasStamp(t, out, "2"))
	assert.False(t, pageHasStamp(t, src, "1"))
}

func TestStampPagesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := stampPages(ctx, twoPagePDF(t), 2, map[int][]stamp{1: {textStamp(layerIdentity, "x")}}, model.NewDefaultConfiguration())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyLayersRebuildsWatermarks(t *testing.T) {
	src := twoPagePDF(t)
	builds := 0
	logo := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(logo, onePixelPNG(t), 0644))
	s := stamp{layerLogo, func() (*model.Watermark, error) {
		builds++
		return api.ImageWatermark(logo, "pos:c, scale:0.5 abs, rot:0, op:1", true, false, types.POINTS)
	}}
	plan := map[int][]stamp{1: {s}, 2: {s}}

	first, err := applyLayers(src, plan, model.NewDefaultConfiguration())
	require.NoError(t, err)
	second, err := applyLayers(src, plan, model.NewDefaultConfiguration())
	require.NoError(t, err)
	assert.Equal(t, 4, builds)
	assert.True(t, pageHasStamp(t, first, "2"))
	assert.True(t, pageHasStamp(t, second, "2"))
}
