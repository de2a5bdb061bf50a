package motion

import (
	"strconv"

	"github.com/ivlev/motionreel/internal/interp"
)

// DrawStyle selects how a path is revealed
type DrawStyle string

const (
	DrawStroke DrawStyle = "draw"
	DrawFill   DrawStyle = "fill"
	DrawMorph  DrawStyle = "morph"
)

// PathConfig describes a path reveal. Path is opaque SVG path data.
type PathConfig struct {
	Path        string    `yaml:"path"`
	Duration    int       `yaml:"duration"`
	Length      float64   `yaml:"length,omitempty"` // total path length, default 1000
	StrokeColor string    `yaml:"stroke_color,omitempty"`
	StrokeWidth float64   `yaml:"stroke_width,omitempty"`
	FillColor   string    `yaml:"fill_color,omitempty"`
	Style       DrawStyle `yaml:"style,omitempty"`
}

const defaultPathLength = 1000

// Dash is a stroke-dasharray / stroke-dashoffset pair
type Dash struct {
	Array  string
	Offset float64
}

// PathAnimation reveals a path progressively
type PathAnimation struct {
	Config PathConfig
}

func AnimatePath(cfg PathConfig) PathAnimation {
	if cfg.Length <= 0 {
		cfg.Length = defaultPathLength
	}
	if cfg.Style == "" {
		cfg.Style = DrawStroke
	}
	return PathAnimation{Config: cfg}
}

// DashAt returns the dash settings at frame: the offset runs from the full
// length down to 0 over Duration frames.
func (p PathAnimation) DashAt(frame int) Dash {
	progress := interp.Progress(float64(frame), 0, float64(p.Config.Duration))
	return Dash{
		Array:  strconv.FormatFloat(p.Config.Length, 'f', -1, 64),
		Offset: p.Config.Length * (1 - progress),
	}
}
