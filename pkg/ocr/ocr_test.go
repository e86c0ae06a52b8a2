package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareInvertsDarkScreens(t *testing.T) {
	dark := solid(40, 20, color.NRGBA{R: 20, G: 25, B: 30, A: 255})
	out, ok := prepare(dark, 0, 0).(*image.NRGBA)
	require.True(t, ok)
	assert.Greater(t, meanLuma(out), float64(darkScreenLuma))

	light := solid(40, 20, color.NRGBA{R: 230, G: 230, B: 230, A: 255})
	out, ok = prepare(light, 0, 0).(*image.NRGBA)
	require.True(t, ok)
	assert.Greater(t, meanLuma(out), float64(darkScreenLuma))
}

func TestPrepareUpscalesSmallCaptures(t *testing.T) {
	img := solid(200, 100, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	out := prepare(img, 900, 0)
	assert.Equal(t, 900, out.Bounds().Dy())
	assert.Equal(t, 1800, out.Bounds().Dx())

	tall := solid(50, 1000, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	assert.Equal(t, 1000, prepare(tall, 900, 0).Bounds().Dy())
}

func TestBinarizeIsTwoTone(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 120, G: 120, B: 120, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 140, G: 140, B: 140, A: 255})
	img.SetNRGBA(3, 0, color.NRGBA{R: 250, G: 250, B: 250, A: 255})

	out := binarize(img, 128)
	var got []uint8
	for x := 0; x < 4; x++ {
		got = append(got, out.NRGBAAt(x, 0).R)
	}
	assert.Equal(t, []uint8{0, 0, 255, 255}, got)
}

func TestPreprocessRejectsBadInput(t *testing.T) {
	tess := NewTesseract(DefaultConfig(), nil)

	_, err := tess.Preprocess(nil)
	assert.True(t, errors.Is(err, ErrEmptyImage))

	_, err = tess.Preprocess([]byte("definitely not a png"))
	assert.True(t, errors.Is(err, ErrUnreadableImage))

	_, err = tess.Lines(context.Background(), []byte("GIF89a garbage"))
	assert.True(t, errors.Is(err, ErrUnreadableImage))

	out, err := tess.Preprocess(encodePNG(t, solid(30, 10, color.NRGBA{A: 255})))
	require.NoError(t, err)
	assert.Equal(t, 900, out.Bounds().Dy())
}

func TestLinesHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTesseract(DefaultConfig(), nil).Lines(ctx, []byte{1})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSplitLines(t *testing.T) {
	text := "Mbappe 9.8 3 2\r\n\n   \n  PlayerOne 7.5 2 1  \fFooter\n"
	assert.Equal(t, []string{"Mbappe 9.8 3 2", "PlayerOne 7.5 2 1", "Footer"}, splitLines(text))
	assert.Empty(t, splitLines(""))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "abc", Snippet("abc", 5))
	assert.Equal(t, "ab…", Snippet("abcdef", 2))
}

func TestStaticSource(t *testing.T) {
	src := StaticSource{"a", "b"}
	lines, err := src.Lines(context.Background(), nil)
	require.NoError(t, err)
	lines[0] = "changed"
	assert.Equal(t, "a", src[0])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Lines(ctx, nil)
	assert.Error(t, err)
}

func TestLinesFromFile(t *testing.T) {
	var seen []byte
	src := SourceFunc(func(_ context.Context, img []byte) ([]string, error) {
		seen = img
		return []string{"ok"}, nil
	})
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))

	lines, err := LinesFromFile(context.Background(), src, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, lines)
	assert.Equal(t, []byte("bytes"), seen)

	_, err = LinesFromFile(context.Background(), src, filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestTesseractReadsBlankImage(t *testing.T) {
	// Needs the tesseract engine and its eng traineddata.
	if os.Getenv("LIGAPRO_TEST_TESSERACT") == "" {
		t.Skip("set LIGAPRO_TEST_TESSERACT=1 to run the engine")
	}
	lines, err := NewTesseract(DefaultConfig(), nil).Lines(context.Background(),
		encodePNG(t, solid(300, 100, color.NRGBA{R: 255, G: 255, B: 255, A: 255})))
	require.NoError(t, err)
	assert.Empty(t, lines)
}
