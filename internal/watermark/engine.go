// Package watermark produces branded copies of stored resources. A source is
// classified once, handed to the compositor for its kind, and written to a
// temporary Artifact the caller closes after use.
package watermark

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/YannKr/brandportal/internal/layout"
	"github.com/YannKr/brandportal/internal/storage"
)

// SourceAsset is the stored resource being branded. The engine only reads it.
type SourceAsset struct {
	StoredPath string
	Category   string
	MediaType  string
	Name       string
	Size       int64
}

// BrandingContext carries the recipient identity drawn onto the copy.
type BrandingContext struct {
	DisplayName string
	ContactLine string
	// LogoPath is a stored path, resolved through the storage root.
	LogoPath string
}

// HasText reports whether any text block has content to draw.
func (b BrandingContext) HasText() bool {
	return strings.TrimSpace(b.DisplayName) != "" || strings.TrimSpace(b.ContactLine) != ""
}

// ContactLine joins the non-empty contact fields of a recipient.
func ContactLine(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " | ")
}

// Input is what a compositor draws from. Logo is nil when the recipient has
// none or it could not be loaded.
type Input struct {
	SourcePath string
	MediaType  string
	Logo       image.Image
	Profile    layout.Profile
	Context    BrandingContext
	Preset     layout.Preset
}

// Compositor brands one kind of source.
type Compositor interface {
	// OutputType returns the media type and extension written for a source
	// of the given media type.
	OutputType(mediaType string) (string, string)
	Compose(ctx context.Context, in Input, w io.Writer) error
}

// Request is one branding operation.
type Request struct {
	Source  SourceAsset
	Profile layout.Profile
	Context BrandingContext
	// Preview allows a placeholder image when the source is unavailable.
	Preview bool
}

type Options struct {
	TempDir     string
	JPEGQuality int
	Fonts       *FontSet
}

type Engine struct {
	resolver    *storage.Resolver
	fonts       *FontSet
	tempDir     string
	compositors map[Kind]Compositor
}

func NewEngine(resolver *storage.Resolver, opts Options) *Engine {
	fonts := opts.Fonts
	if fonts == nil {
		fonts = NewFontSet()
	}
	return &Engine{
		resolver: resolver,
		fonts:    fonts,
		tempDir:  opts.TempDir,
		compositors: map[Kind]Compositor{
			KindRaster:   &RasterCompositor{Fonts: fonts, JPEGQuality: opts.JPEGQuality},
			KindDocument: &DocumentCompositor{TempDir: opts.TempDir},
		},
	}
}

// Resolver exposes the storage resolver the engine reads from.
func (e *Engine) Resolver() *storage.Resolver { return e.resolver }

// Brand produces a branded artifact for req. Unsupported formats yield an
// unowned artifact over the original file. A missing or undecodable source
// yields a placeholder image when req.Preview is set and an error otherwise.
func (e *Engine) Brand(ctx context.Context, req Request) (*Artifact, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}

	src, err := e.resolver.Resolve(req.Source.StoredPath, req.Source.Category)
	if err != nil {
		if req.Preview {
			slog.Info("source missing, rendering placeholder", "path", req.Source.StoredPath)
			return e.placeholder(req)
		}
		return nil, err
	}

	mt := EffectiveMediaType(req.Source.MediaType, src)
	kind := kindOf(mt)
	comp, ok := e.compositors[kind]
	if !ok {
		slog.Debug("branding unsupported, passing original through", "path", src, "media_type", mt)
		return Passthrough(src, mt, ExtFor(mt, src)), nil
	}

	in := Input{
		SourcePath: src,
		MediaType:  mt,
		Logo:       e.loadLogo(req.Context.LogoPath),
		Profile:    req.Profile,
		Context:    req.Context,
		Preset:     layout.PresetFor(req.Context.HasText()),
	}

	outType, ext := comp.OutputType(mt)
	art, err := e.compose(ctx, comp, in, outType, ext)
	if err != nil {
		if req.Preview && !errors.Is(err, context.Canceled) {
			slog.Warn("source unreadable, rendering placeholder", "path", src, "kind", kind, "error", err)
			return e.placeholder(req)
		}
		return nil, fmt.Errorf("brand %s: %w", kind, err)
	}
	return art, nil
}

func (e *Engine) compose(ctx context.Context, comp Compositor, in Input, mediaType, ext string) (_ *Artifact, err error) {
	art, f, err := NewArtifact(e.tempDir, ext, mediaType)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compositor panic: %v", r)
		}
		if err != nil {
			f.Close()
			art.Close()
		}
	}()

	if err = comp.Compose(ctx, in, f); err != nil {
		return nil, err
	}
	if err = f.Close(); err != nil {
		return nil, err
	}
	art.Branded = true
	return art, nil
}

// loadLogo returns nil when the recipient has no usable logo. A missing or
// broken logo never fails the operation.
func (e *Engine) loadLogo(stored string) image.Image {
	if stored == "" {
		return nil
	}
	p, err := e.resolver.Resolve(stored, "")
	if err != nil {
		slog.Warn("logo not found, branding without it", "logo", stored, "error", err)
		return nil
	}
	img, err := decodeFile(p)
	if err != nil {
		slog.Warn("logo undecodable, branding without it", "logo", p, "error", err)
		return nil
	}
	return img
}

func (e *Engine) placeholder(req Request) (*Artifact, error) {
	art, f, err := NewArtifact(e.tempDir, ".png", "image/png")
	if err != nil {
		return nil, err
	}
	err = RenderPlaceholder(f, e.fonts, req.Source.Name, req.Profile, req.Context)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		art.Close()
		return nil, fmt.Errorf("placeholder: %w", err)
	}
	art.Placeholder = true
	return art, nil
}
