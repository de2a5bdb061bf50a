package motion

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/motionreel/internal/interp"
)

// ShapeKind is the primitive drawn for an AnimatedShape
type ShapeKind string

const (
	Circle   ShapeKind = "circle"
	Rect     ShapeKind = "rect"
	Triangle ShapeKind = "triangle"
	Polygon  ShapeKind = "polygon"
	Star     ShapeKind = "star"
	Burst    ShapeKind = "burst"
	Cross    ShapeKind = "cross"
	Line     ShapeKind = "line"
	Arc      ShapeKind = "arc"
	Ring     ShapeKind = "ring"
	Blob     ShapeKind = "blob"
	QR       ShapeKind = "qr"
	Text     ShapeKind = "text"
)

// Well-known property keys
const (
	PropX           = "x"
	PropY           = "y"
	PropScale       = "scale"
	PropRotation    = "rotation"
	PropOpacity     = "opacity"
	PropFill        = "fill"
	PropStroke      = "stroke"
	PropStrokeWidth = "strokeWidth"
	PropWidth       = "width"
	PropHeight      = "height"
	PropRadius      = "radius"
	PropPoints      = "points"
	PropText        = "text"
)

// Value is either a number or a string
type Value struct {
	num   float64
	str   string
	isNum bool
}

func Num(v float64) Value { return Value{num: v, isNum: true} }

func Str(s string) Value { return Value{str: s} }

func (v Value) IsNum() bool { return v.isNum }

// Float returns the numeric value, false for strings
func (v Value) Float() (float64, bool) { return v.num, v.isNum }

// String returns the string form of either variant
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

func (v Value) MarshalYAML() (interface{}, error) {
	if v.isNum {
		return v.num, nil
	}
	return v.str, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: property value must be a scalar", node.Line)
	}
	if tag := node.ShortTag(); tag == "!!int" || tag == "!!float" {
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = Num(f)
		return nil
	}
	*v = Str(node.Value)
	return nil
}

// Props is a property bag; numeric entries interpolate, string entries step
type Props map[string]Value

// Number returns a numeric property or def when missing or non-numeric
func (p Props) Number(key string, def float64) float64 {
	if v, ok := p[key]; ok && v.isNum {
		return v.num
	}
	return def
}

// Text returns a property's string form or def when missing
func (p Props) Text(key, def string) string {
	if v, ok := p[key]; ok {
		return v.String()
	}
	return def
}

// Animation describes a from/to tween over Duration frames after Delay frames
type Animation struct {
	From     Props         `yaml:"from"`
	To       Props         `yaml:"to"`
	Duration int           `yaml:"duration"`
	Delay    int           `yaml:"delay,omitempty"`
	Easing   interp.Easing `yaml:"easing,omitempty"`
	Loop     bool          `yaml:"loop,omitempty"`
	Yoyo     bool          `yaml:"yoyo,omitempty"`
}

// AnimatedShape is a stateless animation descriptor
type AnimatedShape struct {
	Kind      ShapeKind `yaml:"kind"`
	Animation Animation `yaml:"animation"`
}

// AnimateShape creates an animated shape
func AnimateShape(kind ShapeKind, anim Animation) AnimatedShape {
	return AnimatedShape{Kind: kind, Animation: anim}
}

// PropsAt resolves the shape's properties at frame. Numeric keys present in
// both bags are interpolated linearly; every other key takes the from value
// before the halfway mark and the to value from then on.
func (s AnimatedShape) PropsAt(frame int) Props {
	return s.Animation.propsAt(s.Animation.progress(float64(frame)))
}

// EasedPropsAt is PropsAt with the animation's easing applied to progress
func (s AnimatedShape) EasedPropsAt(frame int) Props {
	p := s.Animation.progress(float64(frame))
	if s.Animation.Easing == interp.SpringEase {
		// a spring runs on its own clock from the delay
		local := float64(frame - s.Animation.Delay)
		if s.Animation.Loop || s.Animation.Yoyo {
			local = p * float64(s.Animation.Duration)
		}
		return s.Animation.propsAt(interp.Spring(local, 30, interp.DefaultSpring))
	}
	return s.Animation.propsAt(s.Animation.Easing.Apply(p))
}

// Done reports whether the animation has reached its final state at frame.
// Looping animations never finish.
func (s AnimatedShape) Done(frame int) bool {
	a := s.Animation
	if a.Loop {
		return false
	}
	end := a.Delay + a.Duration
	if a.Yoyo {
		end += a.Duration
	}
	return frame >= end
}

// progress folds loop/yoyo into a single [0,1] value
func (a Animation) progress(frame float64) float64 {
	d := float64(a.Duration)
	if d <= 0 || (!a.Loop && !a.Yoyo) {
		return interp.Progress(frame, float64(a.Delay), d)
	}

	local := frame - float64(a.Delay)
	if local <= 0 {
		return 0
	}

	cycle := math.Floor(local / d)
	within := (local - cycle*d) / d

	if !a.Loop {
		// one pass out and back, then rest at the start
		switch {
		case cycle == 0:
			return within
		case cycle == 1:
			return 1 - within
		default:
			return 0
		}
	}
	if a.Yoyo && int64(cycle)%2 == 1 {
		return 1 - within
	}
	return within
}

func (a Animation) propsAt(progress float64) Props {
	out := make(Props, len(a.From))
	for key, from := range a.From {
		to, ok := a.To[key]
		if ok && from.isNum && to.isNum {
			out[key] = Num(from.num + (to.num-from.num)*progress)
			continue
		}
		if progress < 0.5 {
			out[key] = from
		} else if ok {
			out[key] = to
		}
	}
	return out
}
