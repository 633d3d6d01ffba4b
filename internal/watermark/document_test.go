package watermark_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/brandportal/internal/layout"
	"github.com/YannKr/brandportal/internal/watermark"
)

// writePDF creates a PDF with one page per size, in millimetres.
func writePDF(t *testing.T, dir string, sizes ...gofpdf.SizeType) string {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for i, s := range sizes {
		pdf.AddPageFormat("P", s)
		pdf.Cell(40, 10, "Page "+string(rune('1'+i)))
	}
	p := filepath.Join(dir, "doc.pdf")
	require.NoError(t, pdf.OutputFileAndClose(p))
	return p
}

var a4 = gofpdf.SizeType{Wd: 210, Ht: 297}

func TestDocumentTwoPagesWithLogoAndText(t *testing.T) {
	dir := t.TempDir()
	src := writePDF(t, dir, a4, a4)
	before, err := os.ReadFile(src)
	require.NoError(t, err)

	p := layout.Default()
	p.Logo = layout.LogoBlock{X: 50, Y: 10, Width: 20, Opacity: 0.7}
	p.Identity = layout.IdentityText{X: 50, Y: 20, FontSize: 16, Opacity: 0.9}

	c := &watermark.DocumentCompositor{TempDir: dir}
	var out bytes.Buffer
	err = c.Compose(context.Background(), watermark.Input{
		SourcePath: src,
		MediaType:  "application/pdf",
		Logo:       solid(200, 100, red),
		Profile:    p,
		Context:    watermark.BrandingContext{DisplayName: "Example School"},
		Preset:     layout.PresetTextLogo,
	}, &out)
	require.NoError(t, err)

	n, err := api.PageCount(bytes.NewReader(out.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	has, err := api.HasWatermarks(bytes.NewReader(out.Bytes()), nil)
	require.NoError(t, err)
	assert.True(t, has)

	inDims, err := api.PageDims(bytes.NewReader(before), nil)
	require.NoError(t, err)
	outDims, err := api.PageDims(bytes.NewReader(out.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, inDims, outDims)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, before, after, "source must not be modified")

	leftovers, err := filepath.Glob(filepath.Join(dir, watermark.TempPattern+"*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "scratch logo must be removed")
}

func TestDocumentMixedPageSizes(t *testing.T) {
	dir := t.TempDir()
	src := writePDF(t, dir, a4, gofpdf.SizeType{Wd: 148, Ht: 210})

	c := &watermark.DocumentCompositor{TempDir: dir}
	var out bytes.Buffer
	err := c.Compose(context.Background(), watermark.Input{
		SourcePath: src,
		Logo:       solid(50, 50, red),
		Profile:    layout.Default(),
		Context:    watermark.BrandingContext{DisplayName: "Example School", ContactLine: "office@example.org"},
		Preset:     layout.PresetTextLogo,
	}, &out)
	require.NoError(t, err)

	n, err := api.PageCount(bytes.NewReader(out.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDocumentWithoutStampsIsCopied(t *testing.T) {
	dir := t.TempDir()
	src := writePDF(t, dir, a4)
	before, err := os.ReadFile(src)
	require.NoError(t, err)

	c := &watermark.DocumentCompositor{TempDir: dir}
	var out bytes.Buffer
	require.NoError(t, c.Compose(context.Background(), watermark.Input{
		SourcePath: src,
		Profile:    layout.Default(),
		Preset:     layout.PresetLogoOnly,
	}, &out))
	assert.Equal(t, before, out.Bytes())
}

func TestDocumentRejectsCorruptInput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 not really"), 0644))

	c := &watermark.DocumentCompositor{TempDir: dir}
	err := c.Compose(context.Background(), watermark.Input{
		SourcePath: src,
		Profile:    layout.Default(),
		Preset:     layout.PresetLogoOnly,
	}, &bytes.Buffer{})
	assert.Error(t, err)
}
