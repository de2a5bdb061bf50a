package analyzer

import (
	"image"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// analysisWidth bounds the work per slide; 300 dpi pages are scaled down
// before detection
const analysisWidth = 320

// Focus is where a slide's content sits, as an offset of the content
// centre from the image centre in fractions of the image size. Both axes
// are in [-0.5, 0.5].
type Focus struct {
	X, Y float64
}

// FindFocus returns the area-weighted centre of the detected blocks. ok is
// false for blank images.
func FindFocus(img image.Image, d Detector) (Focus, bool, error) {
	small := downscale(img, analysisWidth)
	blocks, err := d.Detect(small)
	if err != nil {
		return Focus{}, false, err
	}

	var sumX, sumY, total float64
	for _, b := range blocks {
		a := float64(b.Area())
		c := b.Rect.Min.Add(b.Rect.Max).Div(2)
		sumX += a * float64(c.X)
		sumY += a * float64(c.Y)
		total += a
	}
	if total == 0 {
		return Focus{}, false, nil
	}

	r := small.Bounds()
	w, h := float64(r.Dx()), float64(r.Dy())
	return Focus{
		X: (sumX/total-float64(r.Min.X))/w - 0.5,
		Y: (sumY/total-float64(r.Min.Y))/h - 0.5,
	}, true, nil
}

// FocusFinder loads still images from disk and locates their content
type FocusFinder struct {
	Detector Detector
}

// NewFocusFinder uses the detector registered under variant
func NewFocusFinder(variant string) (*FocusFinder, error) {
	d, err := NewDetector(variant)
	if err != nil {
		return nil, err
	}
	return &FocusFinder{Detector: d}, nil
}

// Find implements the director's focus lookup. Unreadable or blank images
// report no focus.
func (f *FocusFinder) Find(path string) (float64, float64, bool) {
	img, err := gg.LoadImage(path)
	if err != nil {
		return 0, 0, false
	}
	focus, ok, err := FindFocus(img, f.Detector)
	if err != nil || !ok {
		return 0, 0, false
	}
	return focus.X, focus.Y, true
}

func downscale(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width {
		return img
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, xdraw.Src, nil)
	return dst
}
