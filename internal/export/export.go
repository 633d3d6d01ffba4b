// Package export builds one archive holding a branded copy of a resource for
// each recipient.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"github.com/YannKr/brandportal/internal/layout"
	"github.com/YannKr/brandportal/internal/watermark"
)

// ErrNothingExported is returned when every recipient failed.
var ErrNothingExported = errors.New("no recipient could be exported")

// Brander produces one branded artifact. *watermark.Engine implements it.
type Brander interface {
	Brand(ctx context.Context, req watermark.Request) (*watermark.Artifact, error)
}

// Recipient is one entry of a batch.
type Recipient struct {
	ID      string
	Name    string
	Context watermark.BrandingContext
	Profile layout.Profile
}

// Skipped records a recipient left out of the archive.
type Skipped struct {
	RecipientID string `json:"recipient_id"`
	Name        string `json:"name"`
	Reason      string `json:"reason"`
}

type Result struct {
	// Archive is owned by the caller, who must Close it.
	Archive *watermark.Artifact
	Entries []string
	Skipped []Skipped
}

type Coordinator struct {
	brander Brander
	workers int
	tempDir string
}

func New(b Brander, workers int, tempDir string) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{brander: b, workers: workers, tempDir: tempDir}
}

// EstimateBytes is a worst-case size for an export of src to n recipients.
func EstimateBytes(src watermark.SourceAsset, n int) int64 {
	return src.Size * int64(n)
}

// Export brands src once per recipient and packs the results in recipient
// order. A recipient that fails is logged and reported in Result.Skipped.
func (c *Coordinator) Export(ctx context.Context, src watermark.SourceAsset, recipients []Recipient) (*Result, error) {
	start := time.Now()
	arts := make([]*watermark.Artifact, len(recipients))
	errs := make([]error, len(recipients))
	defer func() {
		for _, a := range arts {
			if a != nil {
				a.Close()
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, r := range recipients {
		i, r := i, r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			arts[i], errs[i] = c.brander.Brand(ctx, watermark.Request{
				Source:  src,
				Profile: r.Profile,
				Context: r.Context,
			})
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archive, f, err := watermark.NewArtifact(c.tempDir, ".zip", "application/zip")
	if err != nil {
		return nil, err
	}
	res := &Result{Archive: archive}
	fail := func(err error) (*Result, error) {
		f.Close()
		archive.Close()
		return nil, err
	}

	zw := zip.NewWriter(f)
	names := newNamer()
	for i, r := range recipients {
		if errs[i] != nil {
			slog.Warn("export recipient skipped", "recipient", r.ID, "error", errs[i])
			res.Skipped = append(res.Skipped, Skipped{RecipientID: r.ID, Name: r.Name, Reason: errs[i].Error()})
			continue
		}
		name := names.entry(r.Name, arts[i].Filename(src.Name))
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: start,
		})
		if err != nil {
			return fail(fmt.Errorf("archive entry %s: %w", name, err))
		}
		if _, err := arts[i].WriteTo(w); err != nil {
			return fail(fmt.Errorf("archive entry %s: %w", name, err))
		}
		res.Entries = append(res.Entries, name)
		arts[i].Close()
	}
	if err := zw.Close(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	if len(res.Entries) == 0 {
		archive.Close()
		return nil, fmt.Errorf("%w: %d skipped", ErrNothingExported, len(res.Skipped))
	}

	size, _ := archive.Size()
	slog.Info("export built",
		"resource", src.Name,
		"entries", len(res.Entries),
		"skipped", len(res.Skipped),
		"size", humanize.Bytes(uint64(size)),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// namer hands out unique recipient folder names within one archive.
type namer struct {
	used map[string]bool
}

func newNamer() *namer { return &namer{used: make(map[string]bool)} }

func (n *namer) entry(recipient, file string) string {
	base := watermark.SanitizeName(recipient)
	dir := base
	for i := 2; n.used[dir]; i++ {
		dir = base + " (" + strconv.Itoa(i) + ")"
	}
	n.used[dir] = true
	return dir + "/" + file
}
