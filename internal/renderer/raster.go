package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"

	"github.com/ivlev/motionreel/internal/captions"
	"github.com/ivlev/motionreel/internal/effects"
	"github.com/ivlev/motionreel/internal/motion"
	"github.com/ivlev/motionreel/internal/system"
	"github.com/ivlev/motionreel/internal/timeline"
)

// basicfont glyphs are 13px tall; text is scaled up from there
const glyphHeight = 13.0

// Rasterizer draws FrameStates into RGBA images. Images and video sources
// are shown as placeholders unless they are still images on disk.
type Rasterizer struct {
	Width, Height int
	Background    color.Color

	logger *zap.Logger
	images sync.Map // src -> image.Image, or error on failed loads
	qrs    sync.Map // text -> image.Image
}

// NewRasterizer creates a rasterizer for the given frame size
func NewRasterizer(width, height int, logger *zap.Logger) *Rasterizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rasterizer{
		Width:      width,
		Height:     height,
		Background: color.Black,
		logger:     logger.With(zap.String("component", "rasterizer")),
	}
}

// Render draws fs into a pooled image. Hand the image back with
// system.PutImage once it has been consumed.
func (r *Rasterizer) Render(fs FrameState) *image.RGBA {
	img := system.GetImage(image.Rect(0, 0, r.Width, r.Height))
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(r.Background)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for _, l := range fs.Layers {
		r.drawLayer(dc, img, l)
	}
	for _, s := range fs.Shapes {
		r.drawShape(dc, s)
	}
	for _, p := range fs.Paths {
		r.drawPath(dc, p)
	}
	r.drawCaptions(dc, fs.Captions)
	for _, e := range fs.Effects {
		r.drawEffect(dc, e)
	}
	return img
}

func (r *Rasterizer) center() (float64, float64) {
	return float64(r.Width) / 2, float64(r.Height) / 2
}

func (r *Rasterizer) drawLayer(dc *gg.Context, dst *image.RGBA, l Layer) {
	if l.Opacity <= 0 {
		return
	}

	switch l.Kind {
	case timeline.Audio:
		return
	case timeline.Text, timeline.Caption:
		cx, cy := r.center()
		scale := l.Prop("scale", 1) * l.Prop("fontSize", 48) / glyphHeight
		dc.Push()
		dc.Translate(cx+l.Prop("x", 0), cy+l.Prop("y", 0))
		dc.Rotate(gg.Radians(l.Prop("rotation", 0)))
		dc.Scale(scale, scale)
		dc.SetRGBA(1, 1, 1, l.Opacity)
		dc.DrawStringAnchored(l.Label, 0, 0, 0.5, 0.5)
		dc.Pop()
		return
	}

	src := r.loadImage(l.Src)
	if src == nil {
		r.drawPlaceholder(dc, l)
		return
	}

	if l.Opacity >= 1 {
		r.drawImageLayer(dc, src, l)
		return
	}

	// gg has no global alpha, so draw on a scratch frame and blend it in
	scratch := system.GetImage(dst.Rect)
	defer system.PutImage(scratch)
	draw.Draw(scratch, scratch.Rect, image.Transparent, image.Point{}, draw.Src)
	r.drawImageLayer(gg.NewContextForRGBA(scratch), src, l)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(l.Opacity * 255))})
	draw.DrawMask(dst, dst.Rect, scratch, image.Point{}, mask, image.Point{}, draw.Over)
}

func (r *Rasterizer) drawImageLayer(dc *gg.Context, src image.Image, l Layer) {
	b := src.Bounds()
	fit := math.Min(float64(r.Width)/float64(b.Dx()), float64(r.Height)/float64(b.Dy()))
	scale := fit * l.Prop("scale", 1)

	cx, cy := r.center()
	dc.Push()
	dc.Translate(cx+l.Prop("x", 0), cy+l.Prop("y", 0))
	dc.Rotate(gg.Radians(l.Prop("rotation", 0)))
	dc.Scale(scale, scale)
	dc.DrawImageAnchored(src, 0, 0, 0.5, 0.5)
	dc.Pop()
}

func (r *Rasterizer) drawPlaceholder(dc *gg.Context, l Layer) {
	cx, cy := r.center()
	w := float64(r.Width) * 0.8 * l.Prop("scale", 1)
	h := float64(r.Height) * 0.8 * l.Prop("scale", 1)

	dc.Push()
	dc.Translate(cx+l.Prop("x", 0), cy+l.Prop("y", 0))
	dc.Rotate(gg.Radians(l.Prop("rotation", 0)))
	dc.SetRGBA(0.25, 0.25, 0.3, l.Opacity)
	dc.DrawRectangle(-w/2, -h/2, w, h)
	dc.Fill()
	dc.SetRGBA(0.9, 0.9, 0.9, l.Opacity)
	dc.DrawStringAnchored(fmt.Sprintf("%s %s @%d", l.Kind, l.Label, l.SourceFrame), 0, 0, 0.5, 0.5)
	dc.Pop()
}

// loadImage returns nil for anything that is not a readable still image
func (r *Rasterizer) loadImage(src string) image.Image {
	if src == "" || strings.Contains(src, "://") {
		return nil
	}
	if cached, ok := r.images.Load(src); ok {
		img, _ := cached.(image.Image)
		return img
	}

	img, err := gg.LoadImage(src)
	if err != nil {
		r.logger.Debug("source is not a still image, using placeholder", zap.String("src", src), zap.Error(err))
		r.images.Store(src, err)
		return nil
	}
	r.images.Store(src, img)
	return img
}

func (r *Rasterizer) drawShape(dc *gg.Context, s ShapeState) {
	p := s.Props
	opacity := p.Number(motion.PropOpacity, 1)
	if opacity <= 0 {
		return
	}

	cx, cy := r.center()
	scale := p.Number(motion.PropScale, 1)
	radius := p.Number(motion.PropRadius, 20)

	dc.Push()
	defer dc.Pop()
	dc.Translate(cx+s.X+p.Number(motion.PropX, 0), cy+s.Y+p.Number(motion.PropY, 0))
	dc.Rotate(gg.Radians(p.Number(motion.PropRotation, 0)))
	dc.Scale(scale, scale)

	fill := withAlpha(parseColor(p.Text(motion.PropFill, "#ffffff")), opacity)
	dc.SetColor(fill)
	dc.SetLineWidth(p.Number(motion.PropStrokeWidth, 2))

	switch s.Kind {
	case motion.Circle, motion.Blob:
		dc.DrawCircle(0, 0, radius)
		dc.Fill()
	case motion.Ring:
		dc.SetColor(withAlpha(parseColor(p.Text(motion.PropStroke, p.Text(motion.PropFill, "#ffffff"))), opacity))
		dc.DrawCircle(0, 0, radius)
		dc.Stroke()
	case motion.Arc:
		dc.DrawArc(0, 0, radius, 0, math.Pi)
		dc.Stroke()
	case motion.Rect:
		w, h := p.Number(motion.PropWidth, radius*2), p.Number(motion.PropHeight, radius*2)
		dc.DrawRectangle(0, -h/2, w, h)
		dc.Fill()
	case motion.Triangle:
		dc.DrawRegularPolygon(3, 0, 0, radius, 0)
		dc.Fill()
	case motion.Polygon:
		dc.DrawRegularPolygon(int(p.Number(motion.PropPoints, 6)), 0, 0, radius, 0)
		dc.Fill()
	case motion.Star, motion.Burst:
		drawStar(dc, int(p.Number(motion.PropPoints, 5)), radius)
		dc.Fill()
	case motion.Cross:
		dc.DrawLine(-radius, 0, radius, 0)
		dc.DrawLine(0, -radius, 0, radius)
		dc.Stroke()
	case motion.Line:
		w := p.Number(motion.PropWidth, radius*2)
		dc.DrawLine(-w/2, 0, w/2, 0)
		dc.Stroke()
	case motion.Text:
		size := p.Number("fontSize", 32) / glyphHeight
		dc.Scale(size, size)
		dc.DrawStringAnchored(p.Text(motion.PropText, ""), 0, 0, 0.5, 0.5)
	case motion.QR:
		if qr := r.qrImage(p.Text(motion.PropText, "")); qr != nil {
			dc.DrawImageAnchored(qr, 0, 0, 0.5, 0.5)
		}
	}
}

func drawStar(dc *gg.Context, points int, radius float64) {
	if points < 2 {
		points = 5
	}
	inner := radius / 2
	for i := 0; i < points*2; i++ {
		rr := radius
		if i%2 == 1 {
			rr = inner
		}
		a := float64(i)*math.Pi/float64(points) - math.Pi/2
		dc.LineTo(math.Cos(a)*rr, math.Sin(a)*rr)
	}
	dc.ClosePath()
}

func (r *Rasterizer) qrImage(text string) image.Image {
	if text == "" {
		return nil
	}
	if cached, ok := r.qrs.Load(text); ok {
		return cached.(image.Image)
	}
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		r.logger.Warn("failed to encode qr", zap.Error(err))
		return nil
	}
	img := qr.Image(r.Height / 3)
	r.qrs.Store(text, img)
	return img
}

func (r *Rasterizer) drawPath(dc *gg.Context, p PathState) {
	points := parsePath(p.Config.Path)
	if len(points) < 2 || p.Config.Length <= 0 {
		return
	}
	visible := 1 - p.Dash.Offset/p.Config.Length
	if visible <= 0 {
		return
	}

	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i].distance(points[i-1])
	}
	budget := total * math.Min(visible, 1)

	cx, cy := r.center()
	dc.Push()
	defer dc.Pop()
	dc.Translate(cx+p.X, cy+p.Y)
	dc.SetColor(parseColor(orDefault(p.Config.StrokeColor, "#ffffff")))
	width := p.Config.StrokeWidth
	if width <= 0 {
		width = 4
	}
	dc.SetLineWidth(width)

	dc.MoveTo(points[0].x, points[0].y)
	for i := 1; i < len(points) && budget > 0; i++ {
		seg := points[i].distance(points[i-1])
		if seg > budget {
			t := budget / seg
			dc.LineTo(points[i-1].x+(points[i].x-points[i-1].x)*t, points[i-1].y+(points[i].y-points[i-1].y)*t)
			break
		}
		dc.LineTo(points[i].x, points[i].y)
		budget -= seg
	}
	dc.Stroke()
}

func (r *Rasterizer) drawCaptions(dc *gg.Context, c CaptionState) {
	if len(c.Words) == 0 {
		return
	}

	y := float64(r.Height) * 0.85
	switch c.Position {
	case captions.Top:
		y = float64(r.Height) * 0.15
	case captions.Center:
		y = float64(r.Height) / 2
	}

	// lay words out left to right at their own scale, then center the line
	widths := make([]float64, len(c.Words))
	total := 0.0
	for i, w := range c.Words {
		tw, _ := dc.MeasureString(w.Text)
		widths[i] = (tw + 6) * w.Look.FontSize / glyphHeight * w.Look.Scale
		total += widths[i]
	}

	x := (float64(r.Width) - total) / 2
	for i, w := range c.Words {
		s := w.Look.FontSize / glyphHeight * w.Look.Scale
		dc.Push()
		dc.Translate(x+widths[i]/2, y)
		dc.Scale(s, s)
		if w.Look.OutlineWidth > 0 {
			dc.SetColor(parseColor(w.Look.OutlineColor))
			for _, off := range [][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				dc.DrawStringAnchored(w.Text, off[0], off[1], 0.5, 0.5)
			}
		}
		dc.SetColor(parseColor(w.Look.Color))
		dc.DrawStringAnchored(w.Text, 0, 0, 0.5, 0.5)
		dc.Pop()
		x += widths[i]
	}
}

// drawEffect previews a transition as a veil peaking at the midpoint
func (r *Rasterizer) drawEffect(dc *gg.Context, e EffectState) {
	strength := e.Transition.Config.Intensity
	shade := 0.0
	switch e.Transition.Type {
	case effects.DipToBlack:
		strength = 1
	case effects.DipToWhite:
		strength, shade = 1, 1
	}
	alpha := (1 - math.Abs(2*e.Progress-1)) * strength
	if alpha <= 0 {
		return
	}
	dc.SetRGBA(shade, shade, shade, alpha)
	dc.DrawRectangle(0, 0, float64(r.Width), float64(r.Height))
	dc.Fill()
}

// parseColor understands #rgb, #rrggbb, #rrggbbaa and CSS color names.
// Anything else is white.
func parseColor(s string) color.NRGBA {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	hex := strings.TrimPrefix(s, "#")
	c := color.NRGBA{A: 255}
	var err error
	switch len(hex) {
	case 3:
		_, err = fmt.Sscanf(hex, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R, c.G, c.B = c.R*17, c.G*17, c.B*17
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return white
	}
	if err != nil {
		return white
	}
	return c
}

func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * math.Max(0, math.Min(opacity, 1))))
	return c
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
