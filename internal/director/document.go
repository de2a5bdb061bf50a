package director

import (
	"github.com/ivlev/motionreel/internal/captions"
	"github.com/ivlev/motionreel/internal/motion"
	"github.com/ivlev/motionreel/internal/timeline"
)

// CurrentVersion is written into new documents
const CurrentVersion = "1.0"

// Document is the on-disk description of a composition
type Document struct {
	Version  string            `yaml:"version"`
	Timeline timeline.Timeline `yaml:"timeline"`
	Overlays []Overlay         `yaml:"overlays,omitempty"`
	Paths    []PathOverlay     `yaml:"paths,omitempty"`
	Captions *CaptionTrack     `yaml:"captions,omitempty"`
}

// Overlay places motion graphics on top of the clips. Exactly one of
// Template, Burst or Shapes is expected; X and Y give the origin the shapes
// are drawn around (0,0 means the frame center).
type Overlay struct {
	At       int                    `yaml:"at"` // first frame of the overlay
	X        float64                `yaml:"x,omitempty"`
	Y        float64                `yaml:"y,omitempty"`
	Template string                 `yaml:"template,omitempty"`
	Text     string                 `yaml:"text,omitempty"`
	Color    string                 `yaml:"color,omitempty"`
	Number   float64                `yaml:"number,omitempty"`
	Colors   []string               `yaml:"colors,omitempty"`
	Burst    *motion.BurstConfig    `yaml:"burst,omitempty"`
	Shapes   []motion.AnimatedShape `yaml:"shapes,omitempty"`
}

// PathOverlay draws an SVG-style path on over time
type PathOverlay struct {
	At     int               `yaml:"at"`
	X      float64           `yaml:"x,omitempty"`
	Y      float64           `yaml:"y,omitempty"`
	Config motion.PathConfig `yaml:"config"`
}

// CaptionTrack holds word-level captions and how they look
type CaptionTrack struct {
	Preset   string                `yaml:"preset,omitempty"` // tiktok, youtube, reels, karaoke
	Style    *captions.StyleConfig `yaml:"style,omitempty"`  // overrides Preset
	MaxWords int                   `yaml:"max_words,omitempty"`
	Source   string                `yaml:"source,omitempty"` // audio that was transcribed
	Words    []captions.Word       `yaml:"words"`
}
