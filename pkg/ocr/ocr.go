// Package ocr reads text lines off post-match screenshots.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Config tunes the Tesseract pass.
type Config struct {
	Languages []string
	// PageSegMode zero leaves the engine default.
	PageSegMode int
	// MinHeight upscales shorter screenshots before recognition.
	MinHeight int
	// Threshold enables global binarisation when non-zero.
	Threshold uint8
}

// DefaultConfig matches the screenshots the game exports.
func DefaultConfig() Config {
	return Config{Languages: []string{"eng"}, MinHeight: 900}
}

// Tesseract is the production TextLineSource.
type Tesseract struct {
	cfg    Config
	logger *slog.Logger
}

// NewTesseract returns a source using cfg. A nil logger discards debug output.
func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tesseract{cfg: cfg, logger: logger}
}

// Lines decodes data (PNG or JPEG), preprocesses it and returns the
// recognised lines.
func (t *Tesseract) Lines(ctx context.Context, data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prepped, err := t.Preprocess(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepped); err != nil {
		return nil, fmt.Errorf("encode preprocessed image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.cfg.Languages...); err != nil {
		return nil, fmt.Errorf("ocr language: %w", err)
	}
	if t.cfg.PageSegMode != 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.cfg.PageSegMode)); err != nil {
			return nil, fmt.Errorf("ocr page seg mode: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("ocr set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("ocr error: %w", err)
	}
	lines := splitLines(text)
	t.logger.Debug("ocr pass",
		"bytes", len(data),
		"height", prepped.Bounds().Dy(),
		"lines", len(lines),
		"snippet", Snippet(text, 180))
	return lines, nil
}

// Preprocess decodes data and returns the image handed to the engine.
func (t *Tesseract) Preprocess(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return prepare(img, t.cfg.MinHeight, t.cfg.Threshold), nil
}

// LinesFromFile reads the image at path and runs src on it.
func LinesFromFile(ctx context.Context, src TextLineSource, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return src.Lines(ctx, data)
}
