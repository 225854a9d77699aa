package imaging

import (
	"context"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/onoo-labs/marketing-assistant/internal/logging"
)

const (
	logoBoxFraction = 0.12  // logo bounding box edge, relative to base width
	marginFraction  = 0.025 // right and bottom margin, relative to base width
	logoSpacing     = 10    // pixels between the stacked logos
	logoOpacity     = 0.85
)

// LogoRole names the two watermark slots of a project.
type LogoRole string

const (
	LogoPrimary   LogoRole = "primary"   // product identity
	LogoSecondary LogoRole = "secondary" // company identity
)

// Placement holds where each logo lands on the base. An empty rectangle
// means the logo is not drawn.
type Placement struct {
	Primary   image.Rectangle
	Secondary image.Rectangle
}

// Layout stacks the logos in the bottom-right corner of a baseW×baseH image:
// secondary nearest the bottom margin, primary directly above it.
// Sizes are the native logo dimensions; nil means the logo is absent.
func Layout(baseW, baseH int, primary, secondary *image.Point) Placement {
	var p Placement
	box := float64(baseW) * logoBoxFraction
	margin := float64(baseW) * marginFraction
	right := float64(baseW) - margin
	bottom := float64(baseH) - margin

	if secondary != nil {
		w, h := fitLogo(box, *secondary)
		x, y := right-w, bottom-h
		p.Secondary = roundRect(x, y, w, h)
		bottom = y - logoSpacing
	}
	if primary != nil {
		w, h := fitLogo(box, *primary)
		p.Primary = roundRect(right-w, bottom-h, w, h)
	}
	return p
}

// fitLogo scales a logo to the box width, then re-constrains by height for
// tall logos. Small logos are scaled up.
func fitLogo(box float64, size image.Point) (float64, float64) {
	if size.X <= 0 || size.Y <= 0 {
		return 0, 0
	}
	aspect := float64(size.X) / float64(size.Y)
	w, h := box, box/aspect
	if h > box {
		h = box
		w = box * aspect
	}
	return w, h
}

func roundRect(x, y, w, h float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	)
}

// Compositor renders watermarked images.
type Compositor struct {
	log logging.Logger
}

func NewCompositor(log logging.Logger) *Compositor {
	return &Compositor{log: log}
}

type decoded struct {
	img image.Image
	err error
}

// Watermark draws the available logos over base. With no logos the base is
// returned as is. Only a base decode failure is an error; a logo that fails
// to decode is logged and left out.
func (c *Compositor) Watermark(ctx context.Context, base RasterImage, primary, secondary *RasterImage) (RasterImage, error) {
	if primary == nil && secondary == nil {
		if _, _, err := base.Size(); err != nil {
			return RasterImage{}, &ImageLoadError{Source: "base", Err: err}
		}
		return base, nil
	}

	var baseRes, primaryRes, secondaryRes decoded
	g, gctx := errgroup.WithContext(ctx)
	decodeInto := func(dst *decoded, src *RasterImage) {
		if src == nil {
			return
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst.img, dst.err = src.Decode()
			return nil
		})
	}
	decodeInto(&baseRes, &base)
	decodeInto(&primaryRes, primary)
	decodeInto(&secondaryRes, secondary)
	if err := g.Wait(); err != nil {
		return RasterImage{}, err
	}

	if baseRes.err != nil {
		return RasterImage{}, &ImageLoadError{Source: "base", Err: baseRes.err}
	}

	log := c.log.FromContext(ctx)
	primaryImg := usableLogo(log, LogoPrimary, primary, primaryRes)
	secondaryImg := usableLogo(log, LogoSecondary, secondary, secondaryRes)
	if primaryImg == nil && secondaryImg == nil {
		return base, nil
	}

	bb := baseRes.img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(canvas, canvas.Bounds(), baseRes.img, bb.Min, draw.Src)

	place := Layout(bb.Dx(), bb.Dy(), sizeOf(primaryImg), sizeOf(secondaryImg))
	drawLogo(canvas, secondaryImg, place.Secondary)
	drawLogo(canvas, primaryImg, place.Primary)

	return encodePNG(canvas)
}

func usableLogo(log logging.Logger, role LogoRole, src *RasterImage, res decoded) image.Image {
	if src == nil {
		return nil
	}
	if res.err != nil {
		log.LogWarnf("imaging.watermark", "skipping %s logo: %v", role, res.err)
		return nil
	}
	return res.img
}

func sizeOf(img image.Image) *image.Point {
	if img == nil {
		return nil
	}
	s := img.Bounds().Size()
	return &s
}

func drawLogo(dst *image.RGBA, logo image.Image, r image.Rectangle) {
	if logo == nil || r.Empty() {
		return
	}
	scaled := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), logo, logo.Bounds(), draw.Src, nil)

	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(logoOpacity * 255))})
	draw.DrawMask(dst, r, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}
