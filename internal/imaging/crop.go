package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// CropRect returns the centered region of a w×h image whose width/height
// equals ratio. The region spans the full height when the source is wider
// than the ratio and the full width otherwise.
func CropRect(w, h int, ratio float64) (image.Rectangle, error) {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return image.Rectangle{}, ErrInvalidRatio
	}
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, errEmptyImage
	}

	if float64(w)/float64(h) > ratio {
		cw := clamp(int(math.Round(float64(h)*ratio)), 1, w)
		x0 := (w - cw) / 2
		return image.Rect(x0, 0, x0+cw, h), nil
	}

	ch := clamp(int(math.Round(float64(w)/ratio)), 1, h)
	y0 := (h - ch) / 2
	return image.Rect(0, y0, w, y0+ch), nil
}

// Crop cuts the centered ratio region out of src and re-encodes it as PNG.
func Crop(src RasterImage, ratio float64) (RasterImage, error) {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return RasterImage{}, ErrInvalidRatio
	}

	img, err := src.Decode()
	if err != nil {
		return RasterImage{}, &ImageLoadError{Source: "source", Err: err}
	}

	b := img.Bounds()
	rect, err := CropRect(b.Dx(), b.Dy(), ratio)
	if err != nil {
		return RasterImage{}, err
	}

	out := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min.Add(rect.Min), draw.Src)
	return encodePNG(out)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
