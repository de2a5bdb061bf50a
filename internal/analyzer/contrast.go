package analyzer

import (
	"image"
	"image/draw"
	"math"
)

// ContrastDetector finds content by its edges: Sobel gradients are
// thresholded, dilated so neighbouring glyphs merge, and every connected
// region becomes a block
type ContrastDetector struct {
	MinBlockArea  int     // pixels
	EdgeThreshold float64 // gradient magnitude
	DilateRadius  int
	DilatePasses  int
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30.0,
		DilateRadius:  2,
		DilatePasses:  2,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	gray := toGray(img)
	mask := sobelMask(gray, d.EdgeThreshold)
	for i := 0; i < d.DilatePasses; i++ {
		mask = dilate(mask, d.DilateRadius)
	}

	var blocks []Block
	for _, rect := range mask.regions() {
		b := Block{Rect: rect.Add(gray.Rect.Min)}
		if b.Area() >= d.MinBlockArea {
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Rect, img, img.Bounds().Min, draw.Src)
	return gray
}

// bitmask is a w*h grid of on/off cells with origin at 0,0
type bitmask struct {
	w, h  int
	cells []bool
}

func newBitmask(w, h int) *bitmask {
	return &bitmask{w: w, h: h, cells: make([]bool, w*h)}
}

func (m *bitmask) at(x, y int) bool { return m.cells[y*m.w+x] }

func sobelMask(gray *image.Gray, threshold float64) *bitmask {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	mask := newBitmask(w, h)
	px := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x])
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -px(x-1, y-1) + px(x+1, y-1) -
				2*px(x-1, y) + 2*px(x+1, y) -
				px(x-1, y+1) + px(x+1, y+1)
			gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
				px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)
			if math.Hypot(gx, gy) > threshold {
				mask.cells[y*w+x] = true
			}
		}
	}
	return mask
}

// dilate grows every on cell into a square of the given radius
func dilate(m *bitmask, radius int) *bitmask {
	out := newBitmask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if !m.at(x, y) {
				continue
			}
			for yy := max(0, y-radius); yy <= min(m.h-1, y+radius); yy++ {
				for xx := max(0, x-radius); xx <= min(m.w-1, x+radius); xx++ {
					out.cells[yy*m.w+xx] = true
				}
			}
		}
	}
	return out
}

// regions returns the bounding box of every 4-connected group of on cells
func (m *bitmask) regions() []image.Rectangle {
	visited := make([]bool, len(m.cells))
	var rects []image.Rectangle
	var stack []image.Point

	for start := range m.cells {
		if !m.cells[start] || visited[start] {
			continue
		}
		sx, sy := start%m.w, start/m.w
		bounds := image.Rect(sx, sy, sx+1, sy+1)
		visited[start] = true
		stack = append(stack[:0], image.Pt(sx, sy))

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			bounds = bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

			for _, n := range [4]image.Point{image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y), image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1)} {
				if n.X < 0 || n.Y < 0 || n.X >= m.w || n.Y >= m.h {
					continue
				}
				i := n.Y*m.w + n.X
				if m.cells[i] && !visited[i] {
					visited[i] = true
					stack = append(stack, n)
				}
			}
		}
		rects = append(rects, bounds)
	}
	return rects
}
