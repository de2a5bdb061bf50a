package renderer

import (
	"sort"

	"github.com/ivlev/motionreel/internal/captions"
	"github.com/ivlev/motionreel/internal/compiler"
	"github.com/ivlev/motionreel/internal/effects"
	"github.com/ivlev/motionreel/internal/motion"
	"github.com/ivlev/motionreel/internal/timeline"
)

// Overlay is an animated shape starting at frame At, drawn around X,Y
// relative to the frame center
type Overlay struct {
	At    int
	X, Y  float64
	Shape motion.AnimatedShape
}

// PathOverlay is a path drawn on from frame At
type PathOverlay struct {
	At   int
	X, Y float64
	Path motion.PathAnimation
}

// Scene is everything needed to answer "what does frame N look like"
type Scene struct {
	Width, Height    int
	FPS              int
	DurationInFrames int

	Sequences []compiler.Sequence
	Overlays  []Overlay
	Paths     []PathOverlay

	Captions        []captions.Word
	CaptionStyle    captions.StyleConfig
	MaxCaptionWords int
}

// Layer is one active sequence at a frame
type Layer struct {
	ClipID      string
	Track       int
	Kind        timeline.Kind
	Src         string
	Label       string
	LocalFrame  int
	SourceFrame int
	Opacity     float64
	Volume      float64
	// Props holds every keyframed property resolved at the frame
	Props map[string]float64
}

// Prop returns a resolved property or def
func (l Layer) Prop(name string, def float64) float64 {
	if v, ok := l.Props[name]; ok {
		return v
	}
	return def
}

// ShapeState is an overlay shape resolved at a frame
type ShapeState struct {
	Kind  motion.ShapeKind
	X, Y  float64
	Props motion.Props
}

// PathState is a path overlay resolved at a frame
type PathState struct {
	X, Y   float64
	Config motion.PathConfig
	Dash   motion.Dash
}

// EffectState is a transition clip resolved at a frame
type EffectState struct {
	ClipID     string
	Transition effects.Transition
	Progress   float64
}

// CaptionWord is a visible caption word with its look
type CaptionWord struct {
	captions.Word
	Active bool
	Look   captions.WordLook
}

// CaptionState is the caption block at a frame
type CaptionState struct {
	Position captions.Position
	Words    []CaptionWord
}

// FrameState is the full description of one frame
type FrameState struct {
	Frame    int
	Time     float64 // seconds
	Layers   []Layer
	Effects  []EffectState
	Shapes   []ShapeState
	Paths    []PathState
	Captions CaptionState
}

// Evaluate resolves a frame. It depends only on scene and frame, so frames
// can be evaluated in any order and from any number of goroutines.
func Evaluate(scene Scene, frame int) FrameState {
	fs := FrameState{Frame: frame}
	if scene.FPS > 0 {
		fs.Time = float64(frame) / float64(scene.FPS)
	}

	active := make([]compiler.Sequence, 0, len(scene.Sequences))
	for _, seq := range scene.Sequences {
		if seq.Active(frame) {
			active = append(active, seq)
		}
	}
	// lower tracks first; insertion order inside a track
	sort.SliceStable(active, func(i, j int) bool { return active[i].Track < active[j].Track })

	for _, seq := range active {
		if seq.Kind == timeline.Effect {
			fs.Effects = append(fs.Effects, evaluateEffect(seq, frame))
			continue
		}
		fs.Layers = append(fs.Layers, evaluateLayer(seq, frame))
	}

	for _, o := range scene.Overlays {
		if frame < o.At {
			continue
		}
		fs.Shapes = append(fs.Shapes, ShapeState{
			Kind:  o.Shape.Kind,
			X:     o.X,
			Y:     o.Y,
			Props: o.Shape.EasedPropsAt(frame - o.At),
		})
	}

	for _, p := range scene.Paths {
		if frame < p.At {
			continue
		}
		fs.Paths = append(fs.Paths, PathState{
			X:      p.X,
			Y:      p.Y,
			Config: p.Path.Config,
			Dash:   p.Path.DashAt(frame - p.At),
		})
	}

	fs.Captions = evaluateCaptions(scene, fs.Time)
	return fs
}

func evaluateLayer(seq compiler.Sequence, frame int) Layer {
	opacity, volume := 1.0, 1.0
	if seq.Style.Opacity != nil {
		opacity = *seq.Style.Opacity
	}
	if seq.Style.Volume != nil {
		volume = *seq.Style.Volume
	}

	return Layer{
		ClipID:      seq.ClipID,
		Track:       seq.Track,
		Kind:        seq.Kind,
		Src:         seq.Src,
		Label:       seq.Label,
		LocalFrame:  seq.LocalFrame(frame),
		SourceFrame: seq.SourceFrame(frame),
		Opacity:     seq.ValueAt("opacity", frame, opacity),
		Volume:      seq.ValueAt("volume", frame, volume),
		Props:       seq.Values(frame),
	}
}

// evaluateEffect treats an effect clip as a transition named by its source
// that runs over the whole clip
func evaluateEffect(seq compiler.Sequence, frame int) EffectState {
	tr := effects.Apply(effects.Type(seq.Src), effects.Config{Duration: seq.DurationInFrames})
	return EffectState{
		ClipID:     seq.ClipID,
		Transition: tr,
		Progress:   tr.Progress(seq.From, frame),
	}
}

func evaluateCaptions(scene Scene, t float64) CaptionState {
	state := CaptionState{Position: scene.CaptionStyle.Position}
	if len(scene.Captions) == 0 {
		return state
	}
	if state.Position == "" {
		state.Position = captions.Bottom
	}

	words := captions.VisibleWords(scene.Captions, t, scene.MaxCaptionWords)
	activeSeen := false
	for _, w := range words {
		active := !activeSeen && t >= w.Start && t <= w.End
		if active {
			activeSeen = true
		}
		state.Words = append(state.Words, CaptionWord{
			Word:   w,
			Active: active,
			Look:   captions.WordStyle(scene.CaptionStyle, active),
		})
	}
	return state
}
