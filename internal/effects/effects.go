package effects

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ivlev/motionreel/internal/interp"
)

// Type names a transition between two scenes
type Type string

const (
	Crossfade     Type = "crossfade"
	Fade          Type = "fade"
	WipeLeft      Type = "wipe-left"
	WipeRight     Type = "wipe-right"
	WipeUp        Type = "wipe-up"
	WipeDown      Type = "wipe-down"
	Cube          Type = "cube"
	Flip          Type = "flip"
	Rotate        Type = "rotate"
	Swap          Type = "swap"
	Pixelate      Type = "pixelate"
	Morph         Type = "morph"
	Kaleidoscope  Type = "kaleidoscope"
	Glitch        Type = "glitch"
	Burn          Type = "burn"
	Ripple        Type = "ripple"
	Dissolve      Type = "dissolve"
	DipToBlack    Type = "dip-to-black"
	DipToWhite    Type = "dip-to-white"
	FilmBurn      Type = "film-burn"
	SlideLeft     Type = "slide-left"
	SlideRight    Type = "slide-right"
	SlideUp       Type = "slide-up"
	SlideDown     Type = "slide-down"
	ZoomIn        Type = "zoom-in"
	ZoomOut       Type = "zoom-out"
	CircleReveal  Type = "circle-reveal"
	DiamondReveal Type = "diamond-reveal"
	HeartReveal   Type = "heart-reveal"
	StarReveal    Type = "star-reveal"
)

// Categories groups every transition the catalog knows
var Categories = map[string][]Type{
	"geometric":   {Crossfade, Fade, WipeLeft, WipeRight, WipeUp, WipeDown},
	"3d":          {Cube, Flip, Rotate, Swap},
	"creative":    {Pixelate, Morph, Kaleidoscope, Glitch, Burn, Ripple},
	"film":        {Dissolve, DipToBlack, DipToWhite, FilmBurn},
	"directional": {SlideLeft, SlideRight, SlideUp, SlideDown, ZoomIn, ZoomOut},
	"pattern":     {CircleReveal, DiamondReveal, HeartReveal, StarReveal},
}

// Category returns the group a transition belongs to
func Category(t Type) (string, bool) {
	for name, types := range Categories {
		for _, candidate := range types {
			if candidate == t {
				return name, true
			}
		}
	}
	return "", false
}

// List returns every known transition sorted by name
func List() []Type {
	var all []Type
	for _, types := range Categories {
		all = append(all, types...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// Parse validates a transition name
func Parse(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := Category(t); !ok {
		return "", fmt.Errorf("unknown transition %q", name)
	}
	return t, nil
}

// Config describes one transition instance
type Config struct {
	Duration  int           `yaml:"duration"` // frames
	Direction string        `yaml:"direction,omitempty"`
	Easing    interp.Easing `yaml:"easing,omitempty"`
	Color     string        `yaml:"color,omitempty"`
	Intensity float64       `yaml:"intensity,omitempty"`
	// CustomShader replaces the catalog shader when set
	CustomShader string `yaml:"custom_shader,omitempty"`
}

// Transition is a resolved transition with its shader source. The shader is
// opaque text handed to whatever renderer supports it.
type Transition struct {
	Type   Type
	Config Config
	Shader string
}

// Apply fills the defaults for a transition: 30 frames, direction left,
// ease-in-out, intensity 0.5
func Apply(t Type, partial Config) Transition {
	cfg := partial
	if cfg.Duration <= 0 {
		cfg.Duration = 30
	}
	if cfg.Direction == "" {
		cfg.Direction = "left"
	}
	if cfg.Easing == "" {
		cfg.Easing = interp.EaseInOut
	}
	if cfg.Intensity == 0 {
		cfg.Intensity = 0.5
	}

	shader := cfg.CustomShader
	if shader == "" {
		shader = shaders[t]
	}
	return Transition{Type: t, Config: cfg, Shader: shader}
}

// Progress is the eased 0..1 progress of a transition that started at
// startFrame
func (tr Transition) Progress(startFrame, frame int) float64 {
	p := interp.Progress(float64(frame), float64(startFrame), float64(tr.Config.Duration))
	return tr.Config.Easing.Apply(p)
}
