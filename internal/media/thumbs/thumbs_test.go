package thumbs

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

func pngDataURL(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeDataURL(t *testing.T) {
	raw, mime, err := DecodeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pixels")))

	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte("pixels"), raw)
}

func TestDecodeDataURL_Rejects(t *testing.T) {
	_, _, err := DecodeDataURL("https://example.com/shot.png")
	assert.Error(t, err)

	_, _, err = DecodeDataURL("data:image/png;base64")
	assert.Error(t, err)

	_, _, err = DecodeDataURL("data:text/plain,hello")
	assert.Error(t, err)
}

func TestProcessor_DownscalesWideScreenshots(t *testing.T) {
	p := NewProcessor(slog.New(slog.DiscardHandler))

	thumb, hash, err := p.Process(&domain.Screenshot{ImageData: pngDataURL(t, 1024, 400)})

	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	require.True(t, strings.HasPrefix(thumb, "data:image/png;base64,"))

	raw, _, err := DecodeDataURL(thumb)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 256, decoded.Bounds().Dx())
	assert.Equal(t, 100, decoded.Bounds().Dy())
}

func TestProcessor_KeepsSmallScreenshots(t *testing.T) {
	p := NewProcessor(slog.New(slog.DiscardHandler))

	thumb, _, err := p.Process(&domain.Screenshot{ImageData: pngDataURL(t, 120, 80)})

	require.NoError(t, err)
	raw, _, err := DecodeDataURL(thumb)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 120, decoded.Bounds().Dx())
}

func TestProcessor_FillsMissingSizeLabel(t *testing.T) {
	p := NewProcessor(slog.New(slog.DiscardHandler))

	shot := &domain.Screenshot{ImageData: pngDataURL(t, 300, 200)}
	_, _, err := p.Process(shot)

	require.NoError(t, err)
	assert.Regexp(t, `^[\d.]+ (Bytes|KB|MB)$`, shot.SizeLabel)
}

func TestProcessor_KeepsProvidedSizeLabel(t *testing.T) {
	p := NewProcessor(slog.New(slog.DiscardHandler))

	shot := &domain.Screenshot{ImageData: pngDataURL(t, 64, 64), SizeLabel: "12.5 KB"}
	_, _, err := p.Process(shot)

	require.NoError(t, err)
	assert.Equal(t, "12.5 KB", shot.SizeLabel)
}

func TestProcessor_BadImageData(t *testing.T) {
	p := NewProcessor(slog.New(slog.DiscardHandler))

	_, _, err := p.Process(&domain.Screenshot{ImageData: "data:image/png;base64,AAAA"})

	assert.Error(t, err)
}
