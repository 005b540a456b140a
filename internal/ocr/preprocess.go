package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Preprocess controls the clean-up applied to images before OCR.
type Preprocess struct {
	Enabled bool
	// ThresholdWindow is the side of the Bradley window in pixels; 0 means width/8.
	ThresholdWindow int
	// ThresholdRatio darkens a pixel when it is this much below the window mean.
	ThresholdRatio float64
	BlurSigma      float64
	Contrast       float64 // percentage, -100..100
}

func (p Preprocess) withDefaults() Preprocess {
	if p.ThresholdRatio <= 0 || p.ThresholdRatio >= 1 {
		p.ThresholdRatio = 0.15
	}
	if p.BlurSigma < 0 {
		p.BlurSigma = 0
	}
	return p
}

// Apply runs grayscale, adaptive threshold, denoise and contrast boost.
func (p Preprocess) Apply(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	bin := adaptiveThreshold(gray, p.ThresholdWindow, p.ThresholdRatio)
	out := bin
	if p.BlurSigma > 0 {
		out = imaging.Blur(out, p.BlurSigma)
	}
	if p.Contrast != 0 {
		out = imaging.AdjustContrast(out, p.Contrast)
	}
	return out
}

// adaptiveThreshold binarizes a grayscale image with Bradley's method over a
// summed-area table: a pixel becomes black when it is more than ratio below
// the mean of its window.
func adaptiveThreshold(src *image.NRGBA, window int, ratio float64) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	if window <= 0 {
		window = w / 8
	}
	if window < 3 {
		window = 3
	}
	half := window / 2

	// integral[y+1][x+1] = sum of luma over [0..x]x[0..y]
	stride := w + 1
	integral := make([]int64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(src.Pix[y*src.Stride+x*4])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + row
		}
	}

	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			count := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*stride+x1+1] - integral[y0*stride+x1+1] -
				integral[(y1+1)*stride+x0] + integral[y0*stride+x0]

			v := color.NRGBA{A: 255}
			lum := int64(src.Pix[y*src.Stride+x*4])
			if float64(lum*count) > float64(sum)*(1-ratio) {
				v.R, v.G, v.B = 255, 255, 255
			}
			dst.SetNRGBA(x, y, v)
		}
	}
	return dst
}
