package watermark

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
)

// MaxPixels caps the decoded size of sources and logos. A small compressed
// file can declare dimensions that would need gigabytes once decoded.
const MaxPixels = 100_000_000

var ErrImageTooLarge = errors.New("image dimensions exceed limit")

// DecodeConfigFile reads only the header of the image at path. It fails for
// content no registered decoder recognises and for images above MaxPixels.
func DecodeConfigFile(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer f.Close()
	return decodeConfig(f)
}

func decodeConfig(r io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return image.Config{}, "", fmt.Errorf("%dx%d %s: %w", cfg.Width, cfg.Height, format, ErrImageTooLarge)
	}
	return cfg, format, nil
}

// decodeFile decodes the image at path once its header passed the size check.
func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, _, err := decodeConfig(f); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(f)
	return img, err
}
