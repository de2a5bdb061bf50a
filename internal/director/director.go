package director

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ivlev/motionreel/internal/captions"
	"github.com/ivlev/motionreel/internal/compiler"
	"github.com/ivlev/motionreel/internal/effects"
	"github.com/ivlev/motionreel/internal/interp"
	"github.com/ivlev/motionreel/internal/motion"
	"github.com/ivlev/motionreel/internal/renderer"
	"github.com/ivlev/motionreel/internal/timeline"
)

// Tracks used by generated documents, bottom to top
const (
	SlideTrack      = 0
	TitleTrack      = 1
	AudioTrack      = 2
	TransitionTrack = 3
)

var ErrNoInputs = errors.New("no inputs to build a slideshow from")

// Director turns documents into renderable scenes and generates slideshow
// documents from a list of stills
type Director struct {
	ViewportWidth  int
	ViewportHeight int
	MinDwell       float64 // Minimum time per slide (seconds)
	MaxDwell       float64 // Maximum time per slide (seconds)
	MaxZoom        float64 // Ken Burns zoom reached at the end of a slide

	Transition       effects.Type
	TransitionFrames int

	// Focus, when set, locates a slide's content as an offset from the
	// image centre in fractions of its size. Focused slides zoom in and
	// drift toward the content instead of alternating.
	Focus func(src string) (x, y float64, ok bool)

	rand *rand.Rand
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportWidth, viewportHeight int) *Director {
	return &Director{
		ViewportWidth:    viewportWidth,
		ViewportHeight:   viewportHeight,
		MinDwell:         1.0,
		MaxDwell:         3.0,
		MaxZoom:          1.15,
		Transition:       effects.Crossfade,
		TransitionFrames: 15,
		rand:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithSeed makes slide durations reproducible
func (d *Director) WithSeed(seed int64) *Director {
	d.rand = rand.New(rand.NewSource(seed))
	return d
}

// BuildScene compiles the timeline and expands overlays, paths and captions
func (d *Director) BuildScene(doc *Document) (renderer.Scene, error) {
	cfg := doc.Timeline.Config
	scene := renderer.Scene{
		Width:            d.ViewportWidth,
		Height:           d.ViewportHeight,
		FPS:              cfg.FPS,
		DurationInFrames: cfg.DurationInFrames,
		Sequences:        compiler.Compile(doc.Timeline),
	}

	for i, o := range doc.Overlays {
		shapes, err := overlayShapes(o)
		if err != nil {
			return renderer.Scene{}, fmt.Errorf("overlay %d: %w", i, err)
		}
		for _, s := range shapes {
			scene.Overlays = append(scene.Overlays, renderer.Overlay{At: o.At, X: o.X, Y: o.Y, Shape: s})
		}
	}

	for _, p := range doc.Paths {
		scene.Paths = append(scene.Paths, renderer.PathOverlay{
			At:   p.At,
			X:    p.X,
			Y:    p.Y,
			Path: motion.AnimatePath(p.Config),
		})
	}

	if c := doc.Captions; c != nil && len(c.Words) > 0 {
		style, err := captionStyle(c)
		if err != nil {
			return renderer.Scene{}, err
		}
		scene.Captions = c.Words
		scene.CaptionStyle = style
		scene.MaxCaptionWords = c.MaxWords
		if scene.MaxCaptionWords <= 0 {
			scene.MaxCaptionWords = captions.DefaultMaxWords
		}
	}

	return scene, nil
}

func overlayShapes(o Overlay) ([]motion.AnimatedShape, error) {
	switch {
	case o.Template != "":
		shapes, ok := motion.Template(o.Template, o.Text, o.Color, o.Number, o.Colors)
		if !ok {
			return nil, fmt.Errorf("unknown template %q", o.Template)
		}
		return shapes, nil
	case o.Burst != nil:
		return motion.CreateBurst(*o.Burst), nil
	default:
		return o.Shapes, nil
	}
}

func captionStyle(c *CaptionTrack) (captions.StyleConfig, error) {
	if c.Style != nil {
		return *c.Style, nil
	}
	if c.Preset == "" {
		return captions.StyleConfig{}, nil
	}
	return captions.Preset(c.Preset)
}

// GenerateDocument lays inputs out as a Ken Burns slideshow. Slides split
// totalDuration with a little random variation, each one slowly zooms and
// fades in, and a transition clip covers every cut. audio, when set, is
// placed under the whole composition. A non-positive totalDuration gives
// every slide the midpoint of MinDwell and MaxDwell.
func (d *Director) GenerateDocument(inputs []string, audio string, totalDuration float64, fps int) (*Document, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	if totalDuration <= 0 {
		totalDuration = float64(len(inputs)) * (d.MinDwell + d.MaxDwell) / 2
	}

	totalFrames := int(math.Round(totalDuration * float64(fps)))
	if totalFrames < len(inputs) {
		totalFrames = len(inputs)
	}
	durations := d.slideDurations(totalDuration, len(inputs))
	frames := alignToFrames(durations, totalFrames)

	tl := timeline.New(timeline.Config{FPS: fps, DurationInFrames: totalFrames})
	start := 0
	for i, src := range inputs {
		end := start + frames[i]
		var id string
		tl, id = timeline.AddClip(tl, timeline.ClipData{
			Track:      SlideTrack,
			Kind:       timeline.Image,
			Src:        src,
			StartFrame: start,
			EndFrame:   end,
			Label:      fmt.Sprintf("slide_%d", i+1),
		})
		for _, kf := range d.kenBurns(id, src, i, start, end, fps) {
			tl = timeline.AddKeyframe(tl, kf)
		}

		if i > 0 {
			tl = d.addTransition(tl, start, frames[i-1], frames[i])
		}
		start = end
	}

	if audio != "" {
		tl, _ = timeline.AddClip(tl, timeline.ClipData{
			Track:      AudioTrack,
			Kind:       timeline.Audio,
			Src:        audio,
			StartFrame: 0,
			EndFrame:   totalFrames,
		})
	}

	return &Document{Version: CurrentVersion, Timeline: tl}, nil
}

// kenBurns alternates zooming in and out and drifts sideways, or pans
// toward the content when Focus finds it; every slide after the first
// fades in over its first third of a second
func (d *Director) kenBurns(clipID, src string, index, start, end, fps int) []timeline.Keyframe {
	marginX := float64(d.ViewportWidth) * (d.MaxZoom - 1) / 2
	marginY := float64(d.ViewportHeight) * (d.MaxZoom - 1) / 2

	zoomFrom, zoomTo := 1.0, d.MaxZoom
	driftX, driftY := marginX, 0.0
	if index%2 == 1 {
		zoomFrom, zoomTo = zoomTo, zoomFrom
		driftX = -driftX
	}
	if d.Focus != nil {
		if fx, fy, ok := d.Focus(src); ok {
			// content right of centre means the image moves left
			zoomFrom, zoomTo = 1.0, d.MaxZoom
			driftX = clamp(-2*fx, -1, 1) * marginX
			driftY = clamp(-2*fy, -1, 1) * marginY
		}
	}

	fade := fps / 3
	if fade > (end-start)/2 {
		fade = (end - start) / 2
	}
	last := end - 1

	kfs := []timeline.Keyframe{
		{ClipID: clipID, Property: "scale", Frame: start, Value: zoomFrom, Easing: interp.Linear},
		{ClipID: clipID, Property: "scale", Frame: last, Value: zoomTo, Easing: interp.Linear},
		{ClipID: clipID, Property: "x", Frame: start, Value: 0, Easing: interp.EaseInOut},
		{ClipID: clipID, Property: "x", Frame: last, Value: driftX, Easing: interp.EaseInOut},
	}
	if driftY != 0 {
		kfs = append(kfs,
			timeline.Keyframe{ClipID: clipID, Property: "y", Frame: start, Value: 0, Easing: interp.EaseInOut},
			timeline.Keyframe{ClipID: clipID, Property: "y", Frame: last, Value: driftY, Easing: interp.EaseInOut},
		)
	}
	if index > 0 && fade > 0 {
		kfs = append(kfs,
			timeline.Keyframe{ClipID: clipID, Property: "opacity", Frame: start, Value: 0, Easing: interp.EaseOut},
			timeline.Keyframe{ClipID: clipID, Property: "opacity", Frame: start + fade, Value: 1, Easing: interp.EaseOut},
		)
	}
	return kfs
}

// addTransition centres an effect clip on the cut at frame cut. It is
// shortened so it never covers more than half of either neighbouring slide.
func (d *Director) addTransition(tl timeline.Timeline, cut, before, after int) timeline.Timeline {
	if d.Transition == "" || d.TransitionFrames <= 0 {
		return tl
	}
	half := d.TransitionFrames / 2
	if limit := min(before, after) / 2; half > limit {
		half = limit
	}
	if half <= 0 {
		return tl
	}
	tl, _ = timeline.AddClip(tl, timeline.ClipData{
		Track:      TransitionTrack,
		Kind:       timeline.Effect,
		Src:        string(d.Transition),
		StartFrame: cut - half,
		EndFrame:   cut + half,
	})
	return tl
}
