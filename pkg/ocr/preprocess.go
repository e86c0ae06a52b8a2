package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// darkScreenLuma is the mean luminance below which a screenshot is treated
// as light text on a dark background and inverted.
const darkScreenLuma = 128

// prepare turns a stats screenshot into a dark-on-light grayscale image that
// Tesseract reads reliably. Small captures are upscaled to minHeight and a
// non-zero threshold adds a global binarisation step.
func prepare(img image.Image, minHeight int, threshold uint8) image.Image {
	gray := imaging.Grayscale(img)
	if meanLuma(gray) < darkScreenLuma {
		gray = imaging.Invert(gray)
	}
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	if minHeight > 0 && gray.Bounds().Dy() < minHeight {
		gray = imaging.Resize(gray, 0, minHeight, imaging.Lanczos)
	}
	if threshold > 0 {
		return binarize(gray, threshold)
	}
	return gray
}

// meanLuma averages the red channel of a grayscale image.
func meanLuma(img *image.NRGBA) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 255
	}
	var sum uint64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			sum += uint64(row[i])
		}
	}
	return float64(sum) / float64(w*h)
}

// binarize performs a simple global threshold on a grayscale image.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			gray := uint8((r + g + bb) / 3 >> 8)
			var v uint8 = 255
			if gray <= threshold {
				v = 0
			}
			out.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}
