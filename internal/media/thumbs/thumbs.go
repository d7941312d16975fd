// Package thumbs turns capture screenshots into small library previews: a
// downscaled PNG data URL for grids and a BlurHash placeholder that renders
// before the thumbnail loads.
package thumbs

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"log/slog"
	"strings"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	"github.com/sectionsmith/sectionsmith-server/internal/util"
)

const (
	// Library previews render at card size; 256px wide is plenty.
	maxThumbWidth = 256

	// BlurHash only needs a tiny source image to produce the same hash.
	blurHashSize = 64
)

// DecodeDataURL splits a data URL ("data:image/png;base64,...") into raw
// bytes and MIME type.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, "", fmt.Errorf("not a data url")
	}
	meta, payload, found := strings.Cut(dataURL[len("data:"):], ",")
	if !found {
		return nil, "", fmt.Errorf("malformed data url: missing payload")
	}
	mime, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return nil, "", fmt.Errorf("unsupported data url encoding %q", encoding)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data url payload: %w", err)
	}
	return raw, mime, nil
}

// Processor generates preview assets from capture screenshots.
type Processor struct {
	logger *slog.Logger
}

func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{logger: logger}
}

// Process decodes the screenshot, downscales it, and returns a PNG data URL
// plus a BlurHash placeholder. A missing size label is filled in from the
// decoded byte count. Thumbnails are best-effort; callers should log the
// error and save the section without a preview.
func (p *Processor) Process(screenshot *domain.Screenshot) (thumb, hash string, err error) {
	raw, _, err := DecodeDataURL(screenshot.ImageData)
	if err != nil {
		return "", "", err
	}

	if screenshot.SizeLabel == "" {
		screenshot.SizeLabel = util.FormatBytes(len(raw))
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", "", fmt.Errorf("decode screenshot: %w", err)
	}

	scaled := scaleToWidth(img, maxThumbWidth)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", "", fmt.Errorf("encode thumbnail: %w", err)
	}
	thumb = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	// 4x3 components keep the hash around 30 characters, enough detail
	// for a section-shaped placeholder.
	hash, err = blurhash.Encode(4, 3, scaleToWidth(scaled, blurHashSize))
	if err != nil {
		return "", "", fmt.Errorf("encode blurhash: %w", err)
	}

	p.logger.Debug("thumbnail generated",
		"source", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()),
		"thumb_bytes", buf.Len(),
	)
	return thumb, hash, nil
}

// scaleToWidth downscales img to the given width, keeping aspect ratio.
// Images already narrower are returned untouched.
func scaleToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= width {
		return img
	}
	height := (bounds.Dy() * width) / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
