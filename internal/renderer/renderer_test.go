package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/ivlev/motionreel/internal/captions"
	"github.com/ivlev/motionreel/internal/compiler"
	"github.com/ivlev/motionreel/internal/effects"
	"github.com/ivlev/motionreel/internal/interp"
	"github.com/ivlev/motionreel/internal/motion"
	"github.com/ivlev/motionreel/internal/system"
	"github.com/ivlev/motionreel/internal/timeline"
)

func sceneFromTimeline(tl timeline.Timeline) Scene {
	return Scene{
		Width: 64, Height: 36,
		FPS:              tl.Config.FPS,
		DurationInFrames: tl.Config.DurationInFrames,
		Sequences:        compiler.Compile(tl),
	}
}

func newTimeline() timeline.Timeline {
	return timeline.New(timeline.Config{FPS: 30, DurationInFrames: 120}, timeline.WithIDs(timeline.NewCounterIDs()))
}

func TestEvaluateOrdersLayersByTrack(t *testing.T) {
	tl := newTimeline()
	tl, top := timeline.AddClip(tl, timeline.ClipData{Track: 2, Kind: timeline.Text, EndFrame: 60})
	tl, bottom := timeline.AddClip(tl, timeline.ClipData{Track: 0, Kind: timeline.Image, EndFrame: 60})
	tl, middle := timeline.AddClip(tl, timeline.ClipData{Track: 1, Kind: timeline.Video, StartFrame: 10, EndFrame: 60, TrimStart: 5})
	tl, _ = timeline.AddClip(tl, timeline.ClipData{Track: 0, Kind: timeline.Image, StartFrame: 60, EndFrame: 90})

	fs := Evaluate(sceneFromTimeline(tl), 20)
	require.Len(t, fs.Layers, 3)
	assert.Equal(t, []string{bottom, middle, top}, []string{fs.Layers[0].ClipID, fs.Layers[1].ClipID, fs.Layers[2].ClipID})

	video := fs.Layers[1]
	assert.Equal(t, 10, video.LocalFrame)
	assert.Equal(t, 15, video.SourceFrame)
	assert.Equal(t, 1.0, video.Opacity)
	assert.InDelta(t, 20.0/30, fs.Time, 1e-12)

	// end frames are exclusive
	fs = Evaluate(sceneFromTimeline(tl), 60)
	require.Len(t, fs.Layers, 1)
	assert.Equal(t, 0, fs.Layers[0].LocalFrame)
}

func TestEvaluateKeyframedProperties(t *testing.T) {
	tl := newTimeline()
	half := 0.5
	tl, id := timeline.AddClip(tl, timeline.ClipData{Kind: timeline.Image, StartFrame: 0, EndFrame: 100, Opacity: &half})
	tl = timeline.AddKeyframe(tl, timeline.Keyframe{ClipID: id, Property: "scale", Frame: 0, Value: 1, Easing: interp.Linear})
	tl = timeline.AddKeyframe(tl, timeline.Keyframe{ClipID: id, Property: "scale", Frame: 40, Value: 2, Easing: interp.Linear})

	fs := Evaluate(sceneFromTimeline(tl), 10)
	require.Len(t, fs.Layers, 1)
	l := fs.Layers[0]
	assert.Equal(t, 0.5, l.Opacity)
	assert.InDelta(t, 1.25, l.Prop("scale", 0), 1e-9)
	assert.Equal(t, 7.0, l.Prop("rotation", 7))

	fs = Evaluate(sceneFromTimeline(tl), 80)
	assert.InDelta(t, 2, fs.Layers[0].Prop("scale", 0), 1e-9)

	tl = timeline.AddKeyframe(tl, timeline.Keyframe{ClipID: id, Property: "opacity", Frame: 0, Value: 0, Easing: interp.Linear})
	tl = timeline.AddKeyframe(tl, timeline.Keyframe{ClipID: id, Property: "opacity", Frame: 20, Value: 1, Easing: interp.Linear})
	fs = Evaluate(sceneFromTimeline(tl), 5)
	assert.InDelta(t, 0.25, fs.Layers[0].Opacity, 1e-9)
}

func TestEvaluateEffectsAndOverlays(t *testing.T) {
	tl := newTimeline()
	tl, fx := timeline.AddClip(tl, timeline.ClipData{Track: 3, Kind: timeline.Effect, Src: string(effects.DipToBlack), StartFrame: 20, EndFrame: 40})

	scene := sceneFromTimeline(tl)
	scene.Overlays = []Overlay{{
		At: 50, X: 3, Y: 4,
		Shape: motion.AnimateShape(motion.Circle, motion.Animation{
			From: motion.Props{motion.PropX: motion.Num(0)}, To: motion.Props{motion.PropX: motion.Num(10)},
			Duration: 10, Easing: interp.Linear,
		}),
	}}
	scene.Paths = []PathOverlay{{At: 0, Path: motion.AnimatePath(motion.PathConfig{Path: "M0 0 L10 0", Duration: 20})}}

	fs := Evaluate(scene, 30)
	assert.Empty(t, fs.Layers)
	require.Len(t, fs.Effects, 1)
	assert.Equal(t, fx, fs.Effects[0].ClipID)
	assert.Equal(t, effects.DipToBlack, fs.Effects[0].Transition.Type)
	assert.Equal(t, 20, fs.Effects[0].Transition.Config.Duration)
	assert.InDelta(t, 0.5, fs.Effects[0].Progress, 1e-9)
	assert.Empty(t, fs.Shapes)
	require.Len(t, fs.Paths, 1)
	assert.Equal(t, 0.0, fs.Paths[0].Dash.Offset)

	fs = Evaluate(scene, 55)
	require.Len(t, fs.Shapes, 1)
	assert.Equal(t, 3.0, fs.Shapes[0].X)
	assert.InDelta(t, 5, fs.Shapes[0].Props.Number(motion.PropX, -1), 1e-9)
}

func TestEvaluateCaptions(t *testing.T) {
	scene := Scene{Width: 64, Height: 36, FPS: 10, DurationInFrames: 40}
	scene.Captions = []captions.Word{
		{Text: "one", Start: 0, End: 1},
		{Text: "two", Start: 1.2, End: 2},
		{Text: "three", Start: 2.1, End: 3},
	}
	scene.MaxCaptionWords = 2

	fs := Evaluate(scene, 15)
	assert.Equal(t, captions.Bottom, fs.Captions.Position)
	require.Len(t, fs.Captions.Words, 2)
	// the window opens one word before the active one
	assert.Equal(t, "one", fs.Captions.Words[0].Text)
	assert.Equal(t, "two", fs.Captions.Words[1].Text)
	assert.False(t, fs.Captions.Words[0].Active)
	assert.True(t, fs.Captions.Words[1].Active)
	assert.Greater(t, fs.Captions.Words[1].Look.Scale, fs.Captions.Words[0].Look.Scale)

	// between words nothing is shown
	assert.Empty(t, Evaluate(scene, 11).Captions.Words)
}

func TestEvaluateIsOrderIndependent(t *testing.T) {
	tl := newTimeline()
	tl, id := timeline.AddClip(tl, timeline.ClipData{Kind: timeline.Text, Label: "x", EndFrame: 120})
	tl = timeline.AddKeyframe(tl, timeline.Keyframe{ClipID: id, Property: "x", Frame: 0, Value: 0, Easing: interp.SpringEase})
	tl = timeline.AddKeyframe(tl, timeline.Keyframe{ClipID: id, Property: "x", Frame: 90, Value: 100, Easing: interp.SpringEase})
	scene := sceneFromTimeline(tl)

	forward := make([]FrameState, 120)
	for f := 0; f < 120; f++ {
		forward[f] = Evaluate(scene, f)
	}
	for f := 119; f >= 0; f-- {
		assert.Equal(t, forward[f], Evaluate(scene, f), "frame %d", f)
	}
}

func TestRenderProducesFrame(t *testing.T) {
	tl := newTimeline()
	tl, _ = timeline.AddClip(tl, timeline.ClipData{Kind: timeline.Text, Label: "Hi", EndFrame: 60})
	tl, _ = timeline.AddClip(tl, timeline.ClipData{Track: 1, Kind: timeline.Video, Src: "missing.mp4", EndFrame: 60})
	tl, _ = timeline.AddClip(tl, timeline.ClipData{Track: 3, Kind: timeline.Effect, Src: "dip-to-white", StartFrame: 0, EndFrame: 20})
	scene := sceneFromTimeline(tl)
	star := motion.Props{motion.PropRadius: motion.Num(8)}
	qr := motion.Props{motion.PropText: motion.Str("https://example.com")}
	scene.Overlays = []Overlay{
		{Shape: motion.AnimateShape(motion.Star, motion.Animation{From: star, To: star})},
		{Shape: motion.AnimateShape(motion.QR, motion.Animation{From: qr, To: qr})},
	}
	scene.Captions = []captions.Word{{Text: "hello", Start: 0, End: 1}}

	r := NewRasterizer(scene.Width, scene.Height, nil)
	img := r.Render(Evaluate(scene, 10))
	defer system.PutImage(img)

	assert.Equal(t, image.Rect(0, 0, 64, 36), img.Bounds())
	// the white dip peaks at frame 10 and washes the frame out
	c := img.RGBAAt(0, 0)
	assert.Greater(t, int(c.R), 200)
}

func TestRenderBlendsTranslucentImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	path := filepath.Join(t.TempDir(), "white.png")
	require.NoError(t, SaveStill(path, src))

	r := NewRasterizer(8, 8, nil)
	img := r.Render(FrameState{Layers: []Layer{{Kind: timeline.Image, Src: path, Opacity: 0.5}}})
	defer system.PutImage(img)

	c := img.RGBAAt(4, 4)
	assert.InDelta(t, 128, int(c.R), 2)
	assert.Equal(t, uint8(255), c.A)
}

func TestParsePath(t *testing.T) {
	pts := parsePath("M10,20 L30 20 H50 V0 Z")
	assert.Equal(t, []point{{10, 20}, {30, 20}, {50, 20}, {50, 0}, {10, 20}}, pts)

	pts = parsePath("M0 0 C 1 1 2 2 3 3 Q4 4 5 5")
	assert.Equal(t, []point{{0, 0}, {3, 3}, {5, 5}}, pts)

	pts = parsePath("M1e1 0L-5.5,2")
	assert.Equal(t, []point{{10, 0}, {-5.5, 2}}, pts)

	assert.Empty(t, parsePath(""))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#FFD700", color.NRGBA{255, 215, 0, 255}},
		{"#00000080", color.NRGBA{0, 0, 0, 128}},
		{"red", color.NRGBA{255, 0, 0, 255}},
		{"  Navy ", color.NRGBA{0, 0, 128, 255}},
		{"nonsense", color.NRGBA{255, 255, 255, 255}},
		{"#zzzzzz", color.NRGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseColor(tt.in), tt.in)
	}
	assert.Equal(t, uint8(64), withAlpha(color.NRGBA{A: 128}, 0.5).A)
	assert.Equal(t, uint8(128), withAlpha(color.NRGBA{A: 128}, 3).A)
}

func TestEncodeStill(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeStill(&buf, img, "png"))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, EncodeStill(&buf, img, "BMP"))
	decoded, err = bmp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	assert.Error(t, EncodeStill(&buf, img, "gif"))
}
